package ops

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/stream"
)

// Batch groups consecutive elements into []any windows of n. The final
// window may be short. Lazy: each window is assembled on demand.
func Batch(n int) flow.Operation {
	return flow.OpFunc("batch", func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		if n < 1 {
			return nil, fmt.Errorf("ops: batch: window size %d, want at least 1", n)
		}
		return &batchStream{source: in, size: n}, nil
	})
}

type batchStream struct {
	source stream.Stream
	size   int
	done   bool
}

func (s *batchStream) Next(ctx context.Context) (any, bool, error) {
	if s.done {
		return nil, false, nil
	}

	window := make([]any, 0, s.size)
	for len(window) < s.size {
		v, ok, err := s.source.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.done = true
			break
		}
		window = append(window, v)
	}
	if len(window) == 0 {
		return nil, false, nil
	}
	return window, true, nil
}

func (s *batchStream) Close() error { return s.source.Close() }
