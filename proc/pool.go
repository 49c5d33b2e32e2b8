// Package proc provides a caller-owned pool of worker subprocesses for
// mapped pipeline steps.
//
// Each worker is a child process speaking a JSON-lines protocol over
// stdin/stdout: the parent sends {"op": name, "elem": value}, the
// worker resolves the transform by its registered name and answers
// {"result": value} or {"error": message}. Elements cross the process
// boundary as JSON, so callers own serializability and decoded values
// take generic JSON shapes (numbers arrive as float64).
package proc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// ErrPoolClosed is returned by Call once the pool has been closed.
var ErrPoolClosed = errors.New("proc: pool closed")

// RemoteError is a failure reported by a worker process: the transform
// failed or the name was unknown there. The worker itself is healthy
// and stays in rotation.
type RemoteError struct {
	Op  string
	Msg string
}

func (e *RemoteError) Error() string { return e.Msg }

// Pool runs transforms in a fixed set of worker subprocesses.
// It implements the flow.ProcessPool interface. The pool is
// caller-owned: create it once, share it across pipeline runs, and
// close it when the program is done with it.
type Pool struct {
	size    int
	grace   time.Duration
	idle    chan *worker
	workers []*worker

	mu     sync.Mutex
	closed bool
}

// NewPool starts size worker processes described by cmd.
// Workers already started are shut down again if any fails to start.
func NewPool(ctx context.Context, size int, cmd Command) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("proc: pool size %d, want at least 1", size)
	}
	if cmd.Binary == "" {
		return nil, fmt.Errorf("proc: binary is required")
	}

	grace := cmd.GracePeriod
	if grace == 0 {
		grace = 5 * time.Second
	}

	p := &Pool{size: size, grace: grace, idle: make(chan *worker, size)}
	for i := 0; i < size; i++ {
		w, err := startWorker(ctx, cmd, grace)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.workers = append(p.workers, w)
		p.idle <- w
	}
	return p, nil
}

// Call leases an idle worker, round-trips one element through it, and
// releases it. One request is in flight per worker; the context bounds
// only the wait for an idle worker. A worker that reported a transform
// failure stays in rotation; a worker whose pipe broke does not.
func (p *Pool) Call(ctx context.Context, op string, elem any) (any, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	payload, err := json.Marshal(request{Op: op, Elem: elem})
	if err != nil {
		return nil, fmt.Errorf("proc: encode %q request: %w", op, err)
	}

	var w *worker
	select {
	case w = <-p.idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out, err := w.roundTrip(op, payload)
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			p.idle <- w
		}
		return nil, err
	}
	p.idle <- w
	return out, nil
}

// Concurrency reports the number of worker processes.
func (p *Pool) Concurrency() int {
	return p.size
}

// Close closes every worker's stdin, waits up to the grace period for
// it to exit, then kills stragglers. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for _, w := range p.workers {
		if err := w.stdin.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, w := range p.workers {
		if err := w.shutdown(p.grace); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// worker is one child process with its protocol pipes.
type worker struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	dec   *json.Decoder
}

func startWorker(ctx context.Context, cmd Command, grace time.Duration) (*worker, error) {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // dynamic args are the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stderr = os.Stderr

	// Use process group so we can kill the entire tree
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Don't let exec.CommandContext kill with SIGKILL immediately
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("proc: stdin pipe: %w", err)
	}
	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("proc: stdout pipe: %w", err)
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("proc: start %s: %w", cmd.Binary, err)
	}

	return &worker{cmd: c, stdin: stdin, dec: json.NewDecoder(stdout)}, nil
}

func (w *worker) roundTrip(op string, payload []byte) (any, error) {
	if _, err := w.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("proc: send %q request: %w", op, err)
	}
	var resp response
	if err := w.dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("proc: receive %q response: %w", op, err)
	}
	if resp.Error != "" {
		return nil, &RemoteError{Op: op, Msg: resp.Error}
	}
	return resp.Result, nil
}

// shutdown waits for the worker to exit after its stdin was closed,
// escalating to SIGKILL once the grace period runs out.
func (w *worker) shutdown(grace time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- w.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		_ = w.cmd.Process.Kill()
		return <-done
	}
}
