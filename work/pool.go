// Package work provides a fixed-size goroutine pool for running mapped
// pipeline steps concurrently.
//
// A Pool is caller-owned: the program creates it, shares it across any
// number of pipeline runs, and closes it when done. The pipeline engine
// never creates, resizes, or closes pools.
package work

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Submit once the pool has been closed.
var ErrPoolClosed = errors.New("work: pool closed")

// Pool runs submitted tasks on a fixed set of worker goroutines.
// It implements the flow.WorkerPool interface.
type Pool struct {
	size  int
	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// New starts a pool with size worker goroutines.
// It panics when size is less than 1.
func New(size int) *Pool {
	if size < 1 {
		panic(fmt.Sprintf("work: pool size %d, want at least 1", size))
	}

	p := &Pool{
		size:  size,
		tasks: make(chan func()),
		quit:  make(chan struct{}),
	}
	for range size {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.quit:
			return
		}
	}
}

// Submit hands task to an idle worker. It blocks while every worker is
// busy and returns ErrPoolClosed once Close has been called. A task
// accepted by Submit always runs.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.quit:
		return ErrPoolClosed
	}
}

// Concurrency reports the number of worker goroutines.
func (p *Pool) Concurrency() int {
	return p.size
}

// Close stops intake and waits for in-flight tasks to finish.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
