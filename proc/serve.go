package proc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kbukum/flowkit/flow"
)

// request is one unit of work sent to a worker process.
type request struct {
	Op   string `json:"op"`
	Elem any    `json:"elem"`
}

// response is a worker's answer. Exactly one of Result or Error is set.
type response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Serve runs the worker side of the pool protocol: it decodes one
// request per line from r, resolves the transform by name in reg,
// executes it, and encodes the response to w. It returns nil when r
// reaches EOF, which is how the parent shuts a worker down.
//
// Any main() becomes a worker by calling
// Serve(os.Stdin, os.Stdout, reg) when its marker env var is set.
// Unknown transform names and transform failures are reported as
// responses, not crashes.
func Serve(r io.Reader, w io.Writer, reg *flow.Registry[flow.Transform]) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)
	ctx := context.Background()

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("proc: decode request: %w", err)
		}
		if err := enc.Encode(serve(ctx, reg, req)); err != nil {
			return fmt.Errorf("proc: encode response: %w", err)
		}
	}
}

func serve(ctx context.Context, reg *flow.Registry[flow.Transform], req request) response {
	t, ok := reg.Get(req.Op)
	if !ok {
		return response{Error: fmt.Sprintf("unknown transform %q", req.Op)}
	}
	out, err := t.Execute(ctx, req.Elem)
	if err != nil {
		return response{Error: err.Error()}
	}
	return response{Result: out}
}
