package ops

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/stream"
)

// Windowed groups n elements at a time, applies op to each group's
// stream, and splices the per-group results back into the output in
// order. The final group may be short.
func Windowed(n int, op flow.Operation) flow.Operation {
	return flow.OpFunc("windowed", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		if n < 1 {
			return nil, fmt.Errorf("ops: windowed: window size %d, want at least 1", n)
		}
		return &windowStream{
			source: in,
			size:   n,
			apply: func(ctx context.Context, window []any) (stream.Stream, error) {
				return op.Apply(ctx, stream.FromSlice(window))
			},
		}, nil
	})
}

// WindowReduce groups n elements at a time and folds each group to a
// single value, starting every group from a fresh seed. The final group
// may be short.
func WindowReduce[T, A any](n int, seed func() A, fold func(A, T) A) flow.Operation {
	return flow.OpFunc("window_reduce", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		if n < 1 {
			return nil, fmt.Errorf("ops: window_reduce: window size %d, want at least 1", n)
		}
		return &windowStream{
			source: in,
			size:   n,
			apply: func(_ context.Context, window []any) (stream.Stream, error) {
				acc := seed()
				for _, v := range window {
					t, err := elemAs[T]("window_reduce", v)
					if err != nil {
						return nil, err
					}
					acc = fold(acc, t)
				}
				return stream.One(acc), nil
			},
		}, nil
	})
}

type windowStream struct {
	source  stream.Stream
	size    int
	apply   func(ctx context.Context, window []any) (stream.Stream, error)
	current stream.Stream
	srcDone bool
}

func (s *windowStream) Next(ctx context.Context) (any, bool, error) {
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
		if s.srcDone {
			return nil, false, nil
		}

		window := make([]any, 0, s.size)
		for len(window) < s.size {
			v, ok, err := s.source.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				s.srcDone = true
				break
			}
			window = append(window, v)
		}
		if len(window) == 0 {
			return nil, false, nil
		}

		sub, err := s.apply(ctx, window)
		if err != nil {
			return nil, false, err
		}
		s.current = sub
	}
}

func (s *windowStream) Close() error {
	if s.current != nil {
		_ = s.current.Close()
	}
	return s.source.Close()
}
