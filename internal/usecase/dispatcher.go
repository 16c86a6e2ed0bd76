package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Job is one pipeline run dispatched to the pool.
type Job func(ctx context.Context) error

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Dispatcher runs pipeline jobs on a fixed number of goroutines. Runs for
// different (source, article) pairs need no cross-run synchronization:
// article identity is enforced by the storage layer, not by locks here.
type Dispatcher struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	logger  *slog.Logger

	closeMu sync.Mutex
	closed  bool
}

// NewDispatcher creates a pool with the given worker count and queue
// capacity; non-positive values are defaulted.
func NewDispatcher(workers, queue int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		jobs:    make(chan Job, queue),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker goroutines; they drain jobs until the context
// is cancelled or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-d.jobs:
					if !ok {
						return
					}
					if err := job(ctx); err != nil {
						d.logger.Error("pipeline run failed", "error", err)
					}
				}
			}
		}()
	}
}

// Submit enqueues a job. Returns ErrDispatcherClosed after Close.
func (d *Dispatcher) Submit(job Job) error {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.jobs <- job
	return nil
}

// Close stops accepting jobs and waits for in-flight runs to finish.
func (d *Dispatcher) Close() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.closeMu.Unlock()
	d.wg.Wait()
}
