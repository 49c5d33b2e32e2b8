package flow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/logger"
)

// ErrNoPool is returned when a step requests a pool kind that the invoke
// did not supply.
var ErrNoPool = errors.New("flow: required pool not provided")

// PoolKind selects the execution strategy of a mapped step.
type PoolKind int

const (
	// Sequential applies elements inline on the pulling goroutine.
	Sequential PoolKind = iota
	// Workers submits per-element work to the invoke's worker pool.
	Workers
	// Processes sends per-element work to the invoke's process pool.
	Processes
)

func (k PoolKind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case Workers:
		return "workers"
	case Processes:
		return "processes"
	default:
		return "unknown"
	}
}

// WorkerPool runs submitted tasks on a fixed set of goroutines.
// Implemented by work.Pool. Pools are caller-owned: the engine never
// creates, sizes, or closes them.
type WorkerPool interface {
	// Submit schedules a task. It blocks while the pool's queue is full
	// and fails once the pool is closed.
	Submit(task func()) error
	// Concurrency reports how many tasks may run at once.
	Concurrency() int
}

// ProcessPool evaluates named transforms in worker subprocesses.
// Implemented by proc.Pool.
type ProcessPool interface {
	// Call round-trips one element through a worker, resolving the
	// transform by its registered name.
	Call(ctx context.Context, op string, elem any) (any, error)
	// Concurrency reports the number of workers.
	Concurrency() int
}

// Options carries invoke-time execution resources through a pipeline.
// The engine passes them uninterpreted to every step that implements
// OptionedOperation; all other steps never see them.
type Options struct {
	// Workers serves mapped steps with PoolKind Workers.
	Workers WorkerPool
	// Procs serves mapped steps with PoolKind Processes.
	Procs ProcessPool
	// Log, when set, enables debug events at pipeline and step boundaries.
	Log *logger.Logger

	runID string
}

// RunID identifies one pipeline invocation in logs and traces.
// It is empty for options not built by Run.
func (o Options) RunID() string { return o.runID }

// Option configures a single pipeline invocation.
type Option func(*Options)

// WithWorkers supplies a goroutine worker pool for mapped steps.
func WithWorkers(p WorkerPool) Option {
	return func(o *Options) {
		o.Workers = p
	}
}

// WithProcs supplies a subprocess worker pool for mapped steps.
func WithProcs(p ProcessPool) Option {
	return func(o *Options) {
		o.Procs = p
	}
}

// WithLogger enables step-boundary debug logging for the invocation.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		o.Log = l
	}
}

// resolveOptions applies all options and stamps the invocation id.
func resolveOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	o.runID = uuid.NewString()
	return o
}
