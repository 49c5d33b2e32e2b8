package proc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/proc"
)

// workerResponse mirrors the wire shape of one worker answer.
type workerResponse struct {
	Result any    `json:"result"`
	Error  string `json:"error"`
}

func serveRegistry(t *testing.T) *flow.Registry[flow.Transform] {
	t.Helper()
	reg := flow.NewRegistry[flow.Transform]()
	reg.MustRegister("upper", flow.TransformFunc("upper", func(_ context.Context, elem any) (any, error) {
		s, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", elem)
		}
		return strings.ToUpper(s), nil
	}))
	reg.MustRegister("fail", flow.TransformFunc("fail", func(_ context.Context, _ any) (any, error) {
		return nil, fmt.Errorf("boom")
	}))
	return reg
}

func TestServeExecutesTransforms(t *testing.T) {
	in := strings.NewReader(
		`{"op":"upper","elem":"go"}` + "\n" +
			`{"op":"upper","elem":"flow"}` + "\n")
	var out bytes.Buffer

	if err := proc.Serve(in, &out, serveRegistry(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dec := json.NewDecoder(&out)
	for _, want := range []string{"GO", "FLOW"} {
		var resp workerResponse
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Error != "" {
			t.Fatalf("expected no error, got %q", resp.Error)
		}
		if resp.Result != want {
			t.Errorf("expected %q, got %v", want, resp.Result)
		}
	}
}

func TestServeReportsUnknownOp(t *testing.T) {
	in := strings.NewReader(`{"op":"nope","elem":1}` + "\n")
	var out bytes.Buffer

	if err := proc.Serve(in, &out, serveRegistry(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp workerResponse
	if err := json.NewDecoder(&out).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(resp.Error, `unknown transform "nope"`) {
		t.Errorf("expected an unknown transform response, got %q", resp.Error)
	}
}

func TestServeReportsTransformError(t *testing.T) {
	in := strings.NewReader(`{"op":"fail","elem":1}` + "\n")
	var out bytes.Buffer

	if err := proc.Serve(in, &out, serveRegistry(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp workerResponse
	if err := json.NewDecoder(&out).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "boom" {
		t.Errorf("expected error %q, got %q", "boom", resp.Error)
	}
	if resp.Result != nil {
		t.Errorf("expected no result, got %v", resp.Result)
	}
}

func TestServeMalformedInput(t *testing.T) {
	in := strings.NewReader("{{{\n")
	var out bytes.Buffer

	err := proc.Serve(in, &out, serveRegistry(t))
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !strings.Contains(err.Error(), "proc: decode request") {
		t.Errorf("expected a decode error, got %q", err.Error())
	}
}

func TestServeEmptyInput(t *testing.T) {
	var out bytes.Buffer
	if err := proc.Serve(strings.NewReader(""), &out, serveRegistry(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}
