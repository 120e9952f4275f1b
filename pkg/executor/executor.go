// Package executor provides a bounded worker pool for blocking driver calls.
//
// The query registry and the tool handlers never call the Snowflake driver
// directly from their own goroutines: every blocking call is submitted here
// and awaited, which keeps the number of OS threads parked on network I/O
// bounded by the worker count.
package executor

import (
	"context"
	"sync"
)

// Executor runs submitted functions on a fixed set of worker goroutines.
type Executor struct {
	tasks chan task

	// mu is held for reading across the enqueue so Close cannot close the
	// task channel while a Submit is mid-send.
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type task struct {
	fn   func()
	done chan struct{}
}

// New creates an executor and starts its workers.
func New(opts ...Option) *Executor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Executor{
		tasks: make(chan task, cfg.queueSize),
	}

	e.wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for t := range e.tasks {
		t.fn()
		close(t.done)
	}
}

// Submit schedules fn and waits for it to finish. If ctx is canceled while
// the task is queued or still running, Submit returns the context error; the
// task itself is not interrupted and will still run to completion on its
// worker.
func (e *Executor) Submit(ctx context.Context, fn func()) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrExecutorClosed
	}
	t := task{fn: fn, done: make(chan struct{})}

	select {
	case e.tasks <- t:
		e.mu.RUnlock()
	case <-ctx.Done():
		e.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()

	e.wg.Wait()
}

// Run submits a value-returning function and awaits its result. A context
// cancellation while the call is in flight yields the zero value and the
// context error; the underlying call still completes on its worker.
func Run[T any](ctx context.Context, e *Executor, fn func() (T, error)) (T, error) {
	var (
		out    T
		runErr error
	)
	if err := e.Submit(ctx, func() {
		out, runErr = fn()
	}); err != nil {
		var zero T
		return zero, err
	}
	return out, runErr
}
