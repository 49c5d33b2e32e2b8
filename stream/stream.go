package stream

import (
	"context"
	"fmt"
)

// Stream provides pull-based sequential access to a sequence of elements.
// Streams are lazy and single-pass: no work happens until Next is called,
// and once an element has been consumed it is gone.
type Stream interface {
	// Next returns the next element. Returns (nil, false, nil) when exhausted.
	Next(ctx context.Context) (any, bool, error)
	// Close releases any resources held by the stream.
	Close() error
}

// --- Constructors ---

// FromSlice creates a stream over the elements of a slice.
func FromSlice[T any](items []T) Stream {
	boxed := make([]any, len(items))
	for i, item := range items {
		boxed[i] = item
	}
	return &sliceStream{items: boxed}
}

// Of creates a stream over the given elements.
func Of(items ...any) Stream {
	return &sliceStream{items: items}
}

// One creates a stream containing a single element.
func One(v any) Stream {
	return &sliceStream{items: []any{v}}
}

// Empty creates a stream with no elements.
func Empty() Stream {
	return &sliceStream{}
}

// FromChannel creates a stream that reads elements from a channel.
// The stream is exhausted when the channel is closed.
func FromChannel(ch <-chan any) Stream {
	return &chanStream{ch: ch}
}

// FromFunc creates a stream from a pull function.
func FromFunc(next func(ctx context.Context) (any, bool, error)) Stream {
	return &funcStream{next: next}
}

// FromFuncClose creates a stream from a pull function and a close hook.
func FromFuncClose(next func(ctx context.Context) (any, bool, error), closer func() error) Stream {
	return &funcStream{next: next, closer: closer}
}

// Generate creates an unbounded stream whose nth element is fn(n).
// The stream never exhausts on its own; bound it downstream.
func Generate(fn func(n int) (any, error)) Stream {
	return &genStream{fn: fn}
}

// Defer creates a stream whose underlying stream is built on first pull.
// Use it to keep whole-stream transforms free of work until demanded.
func Defer(open func(ctx context.Context) (Stream, error)) Stream {
	return &deferStream{open: open}
}

// --- Terminals ---

// Collect pulls all elements into a slice and closes the stream.
// On error it returns the elements pulled so far alongside the error.
func Collect(ctx context.Context, s Stream) ([]any, error) {
	defer s.Close()
	var out []any
	for {
		val, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

// CollectAs pulls all elements into a typed slice and closes the stream.
// An element of the wrong dynamic type fails with a descriptive error.
func CollectAs[T any](ctx context.Context, s Stream) ([]T, error) {
	defer s.Close()
	var out []T
	for i := 0; ; i++ {
		val, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		typed, ok := val.(T)
		if !ok {
			var want T
			return out, fmt.Errorf("stream: element %d: expected %T, got %T", i, want, val)
		}
		out = append(out, typed)
	}
}

// ForEach pulls all elements, calling fn for each, and closes the stream.
func ForEach(ctx context.Context, s Stream, fn func(context.Context, any) error) error {
	defer s.Close()
	for {
		val, ok, err := s.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

// Drain pulls all elements, discarding them, and closes the stream.
func Drain(ctx context.Context, s Stream) error {
	return ForEach(ctx, s, func(context.Context, any) error { return nil })
}

// --- Internal streams ---

type sliceStream struct {
	items []any
	index int
}

func (s *sliceStream) Next(_ context.Context) (any, bool, error) {
	if s.index >= len(s.items) {
		return nil, false, nil
	}
	val := s.items[s.index]
	s.index++
	return val, true, nil
}

func (s *sliceStream) Close() error { return nil }

type chanStream struct {
	ch     <-chan any
	closer func() error
}

func (s *chanStream) Next(ctx context.Context) (any, bool, error) {
	select {
	case val, open := <-s.ch:
		if !open {
			return nil, false, nil
		}
		return val, true, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *chanStream) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

type funcStream struct {
	next   func(ctx context.Context) (any, bool, error)
	closer func() error
}

func (s *funcStream) Next(ctx context.Context) (any, bool, error) {
	return s.next(ctx)
}

func (s *funcStream) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

type genStream struct {
	fn func(n int) (any, error)
	n  int
}

func (s *genStream) Next(_ context.Context) (any, bool, error) {
	val, err := s.fn(s.n)
	if err != nil {
		return nil, false, err
	}
	s.n++
	return val, true, nil
}

func (s *genStream) Close() error { return nil }

type deferStream struct {
	open   func(ctx context.Context) (Stream, error)
	src    Stream
	failed error
}

func (s *deferStream) Next(ctx context.Context) (any, bool, error) {
	if s.failed != nil {
		return nil, false, s.failed
	}
	if s.src == nil {
		src, err := s.open(ctx)
		if err != nil {
			s.failed = err
			return nil, false, err
		}
		s.src = src
	}
	return s.src.Next(ctx)
}

func (s *deferStream) Close() error {
	if s.src != nil {
		return s.src.Close()
	}
	return nil
}
