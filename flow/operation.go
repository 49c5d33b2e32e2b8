package flow

import (
	"context"

	"github.com/kbukum/flowkit/stream"
)

// Operation is the execution unit of a pipeline step: it consumes a stream
// and produces a new stream. The result is either a lazy wrapper over the
// input or a materialized stream for terminal operations; downstream steps
// treat both the same.
type Operation interface {
	// Name identifies the operation in diagnostics.
	Name() string
	// Apply builds the operation's output stream over in. Building must be
	// cheap: element work belongs in the returned stream's Next.
	Apply(ctx context.Context, in stream.Stream) (stream.Stream, error)
}

// OptionedOperation is implemented by operations that consume invoke-time
// execution options (pool handles, logging). The engine checks for the
// interface explicitly; operations that do not implement it receive the
// stream only.
type OptionedOperation interface {
	Operation
	ApplyWith(ctx context.Context, in stream.Stream, opts Options) (stream.Stream, error)
}

// OpFunc wraps a function as a named Operation.
func OpFunc(name string, apply func(ctx context.Context, in stream.Stream) (stream.Stream, error)) Operation {
	return &opFunc{name: name, apply: apply}
}

type opFunc struct {
	name  string
	apply func(ctx context.Context, in stream.Stream) (stream.Stream, error)
}

func (o *opFunc) Name() string { return o.name }

func (o *opFunc) Apply(ctx context.Context, in stream.Stream) (stream.Stream, error) {
	return o.apply(ctx, in)
}

// Transform applies to a single element. It is the unit a mapped step
// applies across a stream; the name lets process-pool workers resolve
// transforms from a registry.
type Transform interface {
	Name() string
	Execute(ctx context.Context, elem any) (any, error)
}

// TransformFunc wraps a function as a named Transform.
func TransformFunc(name string, fn func(ctx context.Context, elem any) (any, error)) Transform {
	return &transformFunc{name: name, fn: fn}
}

type transformFunc struct {
	name string
	fn   func(ctx context.Context, elem any) (any, error)
}

func (t *transformFunc) Name() string { return t.name }

func (t *transformFunc) Execute(ctx context.Context, elem any) (any, error) {
	return t.fn(ctx, elem)
}

// applyStep invokes op with options when it accepts them.
func applyStep(ctx context.Context, op Operation, in stream.Stream, o Options) (stream.Stream, error) {
	if oo, ok := op.(OptionedOperation); ok {
		return oo.ApplyWith(ctx, in, o)
	}
	return op.Apply(ctx, in)
}
