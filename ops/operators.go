package ops

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/stream"
)

// elemAs asserts a stream element's type for a typed operation.
func elemAs[T any](op string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("ops: %s: expected %T, got %T", op, zero, v)
	}
	return t, nil
}

// Map transforms each element using fn. Lazy and order-preserving.
func Map[I, O any](fn func(context.Context, I) (O, error)) flow.Operation {
	return flow.OpFunc("map", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &mapStream[I, O]{source: in, fn: fn}, nil
	})
}

// Filter keeps elements that satisfy pred. Lazy and order-preserving.
func Filter[T any](pred func(T) bool) flow.Operation {
	return flow.OpFunc("filter", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &filterStream[T]{source: in, pred: pred}, nil
	})
}

// FlatMap maps each element to a sub-sequence and splices the results
// into the output in input order.
func FlatMap[I, O any](fn func(context.Context, I) ([]O, error)) flow.Operation {
	return flow.OpFunc("flatmap", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &flatMapStream[I, O]{source: in, fn: fn}, nil
	})
}

// Tap calls fn for each element as a side-effect, then passes the
// element through unchanged.
func Tap[T any](fn func(T)) flow.Operation {
	return flow.OpFunc("tap", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &tapStream[T]{source: in, fn: fn}, nil
	})
}

// Take emits at most the first n elements. The upstream is closed as
// soon as the limit is reached and is never pulled past it, so Take is
// safe after unbounded generators.
func Take(n int) flow.Operation {
	return flow.OpFunc("take", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &takeStream{source: in, remaining: n}, nil
	})
}

// Drop skips the first n elements. A stream shorter than n drops to
// empty.
func Drop(n int) flow.Operation {
	return flow.OpFunc("drop", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &dropStream{source: in, n: n}, nil
	})
}

// Flatten splices each element's own sequence into the output in order.
// Elements must be streams, slices, or arrays.
func Flatten() flow.Operation {
	return flow.OpFunc("flatten", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return &flattenStream{source: in}, nil
	})
}

// --- stream implementations ---

type mapStream[I, O any] struct {
	source stream.Stream
	fn     func(context.Context, I) (O, error)
}

func (s *mapStream[I, O]) Next(ctx context.Context) (any, bool, error) {
	v, ok, err := s.source.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	in, err := elemAs[I]("map", v)
	if err != nil {
		return nil, false, err
	}
	out, err := s.fn(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (s *mapStream[I, O]) Close() error { return s.source.Close() }

type filterStream[T any] struct {
	source stream.Stream
	pred   func(T) bool
}

func (s *filterStream[T]) Next(ctx context.Context) (any, bool, error) {
	for {
		v, ok, err := s.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		t, err := elemAs[T]("filter", v)
		if err != nil {
			return nil, false, err
		}
		if s.pred(t) {
			return v, true, nil
		}
	}
}

func (s *filterStream[T]) Close() error { return s.source.Close() }

type flatMapStream[I, O any] struct {
	source stream.Stream
	fn     func(context.Context, I) ([]O, error)
	buf    []O
	idx    int
}

func (s *flatMapStream[I, O]) Next(ctx context.Context) (any, bool, error) {
	for {
		if s.idx < len(s.buf) {
			v := s.buf[s.idx]
			s.idx++
			return v, true, nil
		}
		el, ok, err := s.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		in, err := elemAs[I]("flatmap", el)
		if err != nil {
			return nil, false, err
		}
		out, err := s.fn(ctx, in)
		if err != nil {
			return nil, false, err
		}
		s.buf, s.idx = out, 0
	}
}

func (s *flatMapStream[I, O]) Close() error { return s.source.Close() }

type tapStream[T any] struct {
	source stream.Stream
	fn     func(T)
}

func (s *tapStream[T]) Next(ctx context.Context) (any, bool, error) {
	v, ok, err := s.source.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	t, err := elemAs[T]("tap", v)
	if err != nil {
		return nil, false, err
	}
	s.fn(t)
	return v, true, nil
}

func (s *tapStream[T]) Close() error { return s.source.Close() }

type takeStream struct {
	source    stream.Stream
	remaining int
	stopped   bool
}

func (s *takeStream) Next(ctx context.Context) (any, bool, error) {
	if s.remaining <= 0 {
		s.stop()
		return nil, false, nil
	}
	v, ok, err := s.source.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	s.remaining--
	if s.remaining == 0 {
		s.stop()
	}
	return v, true, nil
}

func (s *takeStream) stop() {
	if !s.stopped {
		s.stopped = true
		_ = s.source.Close()
	}
}

func (s *takeStream) Close() error {
	if s.stopped {
		return nil
	}
	s.stopped = true
	return s.source.Close()
}

type dropStream struct {
	source  stream.Stream
	n       int
	skipped bool
}

func (s *dropStream) Next(ctx context.Context) (any, bool, error) {
	if !s.skipped {
		s.skipped = true
		for i := 0; i < s.n; i++ {
			_, ok, err := s.source.Next(ctx)
			if err != nil || !ok {
				return nil, false, err
			}
		}
	}
	return s.source.Next(ctx)
}

func (s *dropStream) Close() error { return s.source.Close() }

type flattenStream struct {
	source  stream.Stream
	current stream.Stream
	index   int
}

func (s *flattenStream) Next(ctx context.Context) (any, bool, error) {
	for {
		if s.current != nil {
			v, ok, err := s.current.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if ok {
				return v, true, nil
			}
			_ = s.current.Close()
			s.current = nil
		}
		el, ok, err := s.source.Next(ctx)
		if err != nil || !ok {
			return nil, false, err
		}
		sub, err := sequenceOf(s.index, el)
		if err != nil {
			return nil, false, err
		}
		s.index++
		s.current = sub
	}
}

func (s *flattenStream) Close() error {
	if s.current != nil {
		_ = s.current.Close()
	}
	return s.source.Close()
}

// sequenceOf views one element as its own stream of items.
func sequenceOf(index int, v any) (stream.Stream, error) {
	switch el := v.(type) {
	case stream.Stream:
		return el, nil
	case []any:
		return stream.FromSlice(el), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		boxed := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			boxed[i] = rv.Index(i).Interface()
		}
		return stream.FromSlice(boxed), nil
	}
	return nil, fmt.Errorf("ops: flatten: element %d is not a sequence, got %T", index, v)
}
