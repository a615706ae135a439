package engine

import (
	"context"
	"sync"
	"time"
)

// job is one unit of work on the engine. abort is called instead of run when
// the queue shuts down before the job starts.
type job struct {
	ctx   context.Context
	run   func()
	abort func(error)
}

// queue runs jobs one at a time in submission order on a single worker, so
// exactly one request talks to the engine at any moment.
type queue struct {
	jobs   chan job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func newQueue(size int) *queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &queue{
		jobs:   make(chan job, size),
		ctx:    ctx,
		cancel: cancel,
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case j := <-q.jobs:
			if err := j.ctx.Err(); err != nil {
				j.abort(err)
				continue
			}
			j.run()
		case <-q.ctx.Done():
			return
		}
	}
}

// enqueue adds a job without waiting for it to run.
func (q *queue) enqueue(ctx context.Context, j job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrEngineNotRunning
	}
	select {
	case q.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.ctx.Done():
		return ErrEngineNotRunning
	}
}

// submit runs fn on the worker and waits for its result.
func (q *queue) submit(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	err := q.enqueue(ctx, job{
		ctx:   ctx,
		run:   func() { res <- fn() },
		abort: func(err error) { res <- err },
	})
	if err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shutdown stops the worker after its current job and aborts queued jobs.
// It returns false if the worker did not finish within timeout.
func (q *queue) shutdown(timeout time.Duration) bool {
	q.cancel()
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	finished := true
	select {
	case <-done:
	case <-time.After(timeout):
		finished = false
	}

	for {
		select {
		case j := <-q.jobs:
			j.abort(ErrEngineNotRunning)
		default:
			return finished
		}
	}
}
