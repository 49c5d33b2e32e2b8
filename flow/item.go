package flow

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/stream"
)

// One derives a per-element transform from an operation. The element is
// lifted to a stream (slices and streams iterate, scalars become
// one-element streams), the operation is applied, and its single result
// becomes the output. An operation producing zero or multiple elements is
// an error. Use it to map reducing sub-pipelines across a stream.
func One(op Operation) Transform {
	return &oneTransform{op: op}
}

type oneTransform struct {
	op Operation
}

func (t *oneTransform) Name() string { return t.op.Name() }

func (t *oneTransform) Execute(ctx context.Context, elem any) (any, error) {
	vals, err := applyItem(ctx, t.op, elem)
	if err != nil {
		return nil, err
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("flow: operation %q produced %d elements, want exactly 1", t.op.Name(), len(vals))
	}
	return vals[0], nil
}

// All derives a per-element transform whose output is the operation's
// fully materialized result as a []any. Use it to map expanding
// sub-pipelines across a stream, typically followed by ops.Flatten.
func All(op Operation) Transform {
	return &allTransform{op: op}
}

type allTransform struct {
	op Operation
}

func (t *allTransform) Name() string { return t.op.Name() }

func (t *allTransform) Execute(ctx context.Context, elem any) (any, error) {
	vals, err := applyItem(ctx, t.op, elem)
	if err != nil {
		return nil, err
	}
	if vals == nil {
		vals = []any{}
	}
	return vals, nil
}

func applyItem(ctx context.Context, op Operation, elem any) ([]any, error) {
	out, err := op.Apply(ctx, stream.Lift(elem))
	if err != nil {
		return nil, err
	}
	return stream.Collect(ctx, out)
}
