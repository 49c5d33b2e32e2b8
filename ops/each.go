package ops

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/stream"
)

// Each applies a transform to every element, one at a time, on the
// pulling goroutine. Lazy and order-preserving.
func Each(t flow.Transform) flow.Operation {
	return flow.OpFunc(t.Name(), func(_ context.Context, in stream.Stream) (stream.Stream, error) {
		return newEachStream(in, seqExec{t: t}), nil
	})
}

// Parallel applies a transform to every element on the invoke's pool of
// the given kind. Element work runs concurrently up to the pool's
// concurrency, but output order always equals input order: each result
// waits its turn in a FIFO window. An empty input submits no work.
// Pools are caller-owned and arrive via flow.Options; a missing pool
// fails at apply time with flow.ErrNoPool.
func Parallel(t flow.Transform, kind flow.PoolKind) flow.Operation {
	return &parallelOp{t: t, kind: kind}
}

type parallelOp struct {
	t    flow.Transform
	kind flow.PoolKind
}

func (p *parallelOp) Name() string { return p.t.Name() }

func (p *parallelOp) Apply(ctx context.Context, in stream.Stream) (stream.Stream, error) {
	return p.ApplyWith(ctx, in, flow.Options{})
}

func (p *parallelOp) ApplyWith(_ context.Context, in stream.Stream, o flow.Options) (stream.Stream, error) {
	exec, err := p.executor(o)
	if err != nil {
		return nil, err
	}
	return newEachStream(in, exec), nil
}

func (p *parallelOp) executor(o flow.Options) (executor, error) {
	switch p.kind {
	case flow.Workers:
		if o.Workers == nil {
			return nil, fmt.Errorf("ops: %s step %q: %w", p.kind, p.t.Name(), flow.ErrNoPool)
		}
		return workerExec{t: p.t, pool: o.Workers}, nil
	case flow.Processes:
		if o.Procs == nil {
			return nil, fmt.Errorf("ops: %s step %q: %w", p.kind, p.t.Name(), flow.ErrNoPool)
		}
		return procExec{t: p.t, pool: o.Procs}, nil
	default:
		return seqExec{t: p.t}, nil
	}
}

// future is one element's pending result.
type future struct {
	done chan struct{}
	val  any
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

// executor schedules one element's transform and reports how many may
// run at once.
type executor interface {
	concurrency() int
	submit(ctx context.Context, elem any) *future
}

// seqExec runs the transform inline on the pulling goroutine.
type seqExec struct{ t flow.Transform }

func (e seqExec) concurrency() int { return 1 }

func (e seqExec) submit(ctx context.Context, elem any) *future {
	f := newFuture()
	f.val, f.err = e.t.Execute(ctx, elem)
	close(f.done)
	return f
}

// workerExec runs the transform on the invoke's goroutine pool.
type workerExec struct {
	t    flow.Transform
	pool flow.WorkerPool
}

func (e workerExec) concurrency() int { return e.pool.Concurrency() }

func (e workerExec) submit(ctx context.Context, elem any) *future {
	f := newFuture()
	err := e.pool.Submit(func() {
		defer close(f.done)
		f.val, f.err = e.t.Execute(ctx, elem)
	})
	if err != nil {
		f.err = err
		close(f.done)
	}
	return f
}

// procExec round-trips the element through a subprocess pool worker,
// resolved there by the transform's registered name.
type procExec struct {
	t    flow.Transform
	pool flow.ProcessPool
}

func (e procExec) concurrency() int { return e.pool.Concurrency() }

func (e procExec) submit(ctx context.Context, elem any) *future {
	f := newFuture()
	go func() {
		defer close(f.done)
		f.val, f.err = e.pool.Call(ctx, e.t.Name(), elem)
	}()
	return f
}

// eachStream keeps the in-flight window full, bounded by the executor's
// concurrency, and emits completed results strictly in input order.
type eachStream struct {
	source  stream.Stream
	exec    executor
	window  int
	pending []*future
	srcDone bool
	srcErr  error
	failed  error
}

func newEachStream(source stream.Stream, exec executor) *eachStream {
	window := exec.concurrency()
	if window < 1 {
		window = 1
	}
	return &eachStream{source: source, exec: exec, window: window}
}

func (s *eachStream) Next(ctx context.Context) (any, bool, error) {
	if s.failed != nil {
		return nil, false, s.failed
	}

	for !s.srcDone && len(s.pending) < s.window {
		v, ok, err := s.source.Next(ctx)
		if err != nil {
			s.srcDone = true
			s.srcErr = err
			break
		}
		if !ok {
			s.srcDone = true
			break
		}
		s.pending = append(s.pending, s.exec.submit(ctx, v))
	}

	// Results already in flight surface before an upstream error: the
	// error happened after those elements.
	if len(s.pending) == 0 {
		if s.srcErr != nil {
			s.failed = s.srcErr
			return nil, false, s.failed
		}
		return nil, false, nil
	}

	head := s.pending[0]
	s.pending = s.pending[1:]

	select {
	case <-head.done:
	case <-ctx.Done():
		s.failed = ctx.Err()
		return nil, false, s.failed
	}
	if head.err != nil {
		s.failed = head.err
		return nil, false, s.failed
	}
	return head.val, true, nil
}

func (s *eachStream) Close() error { return s.source.Close() }
