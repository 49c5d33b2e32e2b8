package definition

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/ops"
	"github.com/kbukum/flowkit/stream"
)

func writeDef(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testRegistry() *flow.Registry[flow.Operation] {
	reg := flow.NewRegistry[flow.Operation]()
	reg.MustRegister("double", ops.Map(func(_ context.Context, v int) (int, error) {
		return v * 2, nil
	}))
	reg.MustRegister("increment", ops.Map(func(_ context.Context, v int) (int, error) {
		return v + 1, nil
	}))
	reg.MustRegister("evens", ops.Filter(func(v int) bool {
		return v%2 == 0
	}))
	return reg
}

func collectInts(t *testing.T, p *flow.Pipeline, items ...any) []int {
	t.Helper()
	out, err := p.Run(context.Background(), stream.Of(items...))
	if err != nil {
		t.Fatal(err)
	}
	got, err := stream.CollectAs[int](context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "word-count.yaml", `
name: word-count
description: Count words across documents
steps:
  - label: split
    op: split-words
  - label: count
    op: count-words
`)

	d, err := LoadFile(filepath.Join(dir, "word-count.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "word-count" {
		t.Errorf("expected name %q, got %q", "word-count", d.Name)
	}
	if d.Description != "Count words across documents" {
		t.Errorf("unexpected description %q", d.Description)
	}
	if len(d.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(d.Steps))
	}
	if d.Steps[0].Label != "split" || d.Steps[0].Op != "split-words" {
		t.Errorf("unexpected first step %+v", d.Steps[0])
	}
}

func TestFileLoader_SearchesDirsAndExtensions(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeDef(t, first, "alpha.yaml", "name: alpha\nsteps:\n  - op: double\n")
	writeDef(t, second, "beta.yml", "name: beta\nsteps:\n  - op: evens\n")

	loader := NewFileLoader(first, second)

	a, err := loader.Load("alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "alpha" {
		t.Errorf("expected %q, got %q", "alpha", a.Name)
	}

	b, err := loader.Load("beta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name != "beta" {
		t.Errorf("expected %q, got %q", "beta", b.Name)
	}
}

func TestFileLoader_NotFound(t *testing.T) {
	loader := NewFileLoader(t.TempDir())
	_, err := loader.Load("ghost")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected a not-found error, got %q", err.Error())
	}
}

func TestFileLoader_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "broken.yaml", "name: [unclosed\n")

	_, err := NewFileLoader(dir).Load("broken")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("expected a parse error, got %q", err.Error())
	}
}

func TestValidate_MissingName(t *testing.T) {
	d := &Definition{Steps: []StepDef{{Op: "double"}}}
	err := d.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("expected a required-field error, got %q", err.Error())
	}
}

func TestValidate_NoSteps(t *testing.T) {
	d := &Definition{Name: "empty"}
	if err := d.Validate(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate_StepNeedsOpOrPipeline(t *testing.T) {
	d := &Definition{Name: "bad", Steps: []StepDef{{Label: "noop"}}}
	err := d.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exactly one of op or pipeline") {
		t.Errorf("expected the exclusivity error, got %q", err.Error())
	}
}

func TestValidate_StepRejectsBoth(t *testing.T) {
	d := &Definition{Name: "bad", Steps: []StepDef{{Op: "double", Pipeline: "inner"}}}
	err := d.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exactly one of op or pipeline") {
		t.Errorf("expected the exclusivity error, got %q", err.Error())
	}
}

func TestResolve_BuildsPipeline(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "evens-doubled.yaml", `
name: evens-doubled
steps:
  - label: keep-evens
    op: evens
  - label: double
    op: double
`)

	p, err := Resolve("evens-doubled", NewFileLoader(dir), testRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "evens-doubled" {
		t.Errorf("expected name %q, got %q", "evens-doubled", p.Name())
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 steps, got %d", p.Len())
	}
	if p.Steps()[0].Name() != "keep-evens" {
		t.Errorf("expected first step %q, got %q", "keep-evens", p.Steps()[0].Name())
	}

	got := collectInts(t, p, 1, 2, 3, 4, 5)
	if len(got) != 2 || got[0] != 4 || got[1] != 8 {
		t.Errorf("expected [4 8], got %v", got)
	}
}

func TestResolve_NestedPipeline(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "inner.yaml", `
name: inner
steps:
  - op: double
`)
	writeDef(t, dir, "outer.yaml", `
name: outer
steps:
  - label: doubled
    pipeline: inner
  - op: increment
`)

	p, err := Resolve("outer", NewFileLoader(dir), testRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 steps, got %d", p.Len())
	}
	if p.Steps()[0].Name() != "doubled" {
		t.Errorf("expected first step %q, got %q", "doubled", p.Steps()[0].Name())
	}

	got := collectInts(t, p, 1, 2)
	if len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Errorf("expected [3 5], got %v", got)
	}
}

func TestResolve_CircularReference(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "a.yaml", "name: a\nsteps:\n  - pipeline: b\n")
	writeDef(t, dir, "b.yaml", "name: b\nsteps:\n  - pipeline: a\n")

	_, err := Resolve("a", NewFileLoader(dir), testRegistry())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "circular reference") {
		t.Errorf("expected a circular reference error, got %q", err.Error())
	}
}

func TestResolve_SelfReference(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "loop.yaml", "name: loop\nsteps:\n  - pipeline: loop\n")

	_, err := Resolve("loop", NewFileLoader(dir), testRegistry())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "circular reference") {
		t.Errorf("expected a circular reference error, got %q", err.Error())
	}
}

func TestResolve_UnknownOperation(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "bad.yaml", "name: bad\nsteps:\n  - op: missing\n")

	_, err := Resolve("bad", NewFileLoader(dir), testRegistry())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `operation "missing" not found`) {
		t.Errorf("expected an unknown-operation error, got %q", err.Error())
	}
}

func TestResolve_UnknownPipelineReference(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "top.yaml", "name: top\nsteps:\n  - pipeline: ghost\n")

	_, err := Resolve("top", NewFileLoader(dir), testRegistry())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected a not-found error, got %q", err.Error())
	}
}
