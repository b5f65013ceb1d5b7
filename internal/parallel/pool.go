// Package parallel provides the bounded worker pool and completion barrier
// used to fan strip-rendering work out to background goroutines.
//
// The pool owns exactly one long-lived goroutine per worker slot. Strip i is
// always dispatched to worker i, so two workers never write the same strip
// and the per-frame cost is a channel send, not goroutine creation. Workers
// optionally pin themselves to a CPU core at startup.
//
// Thread safety: Pool and Barrier are safe for concurrent use.
package parallel

import (
	"sync"
	"sync/atomic"
)

// PinFunc is invoked once by each worker goroutine before it accepts work.
// The worker index is passed so policies can vary the target core per worker.
// Pinning is best-effort; failures are ignored.
type PinFunc func(worker int)

// Pool is a fixed-size pool of worker goroutines.
//
// Each worker has its own task queue and executes tasks in submission order.
// There is no work stealing: a strip is bound to its worker for the lifetime
// of the pool, which keeps per-strip surface writes single-writer.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds one task queue per worker.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to exit.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// pin is applied by each worker at startup, may be nil.
	pin PinFunc
}

// NewPool creates a pool with exactly workers goroutines, started
// immediately. If pin is non-nil, each worker calls it once before
// accepting work. Returns nil if workers < 1.
func NewPool(workers int, pin PinFunc) *Pool {
	if workers < 1 {
		return nil
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
		pin:     pin,
	}

	// One slot of buffering per queue: a frame dispatches at most one
	// task per worker before waiting on the barrier.
	for i := range p.queues {
		p.queues[i] = make(chan func(), 1)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for one worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	if p.pin != nil {
		p.pin(id)
	}

	queue := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(queue)
			return
		case task := <-queue:
			if task != nil {
				task()
			}
		}
	}
}

// drain executes any task still queued at shutdown so that its completion
// signal is not lost.
func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			if task != nil {
				task()
			}
		default:
			return
		}
	}
}

// Dispatch submits a task to the given worker's queue.
// It reports false if the pool is closed or the worker index is out of
// range; the caller must then account for the task's completion itself.
func (p *Pool) Dispatch(worker int, task func()) bool {
	if task == nil || worker < 0 || worker >= p.workers || !p.running.Load() {
		return false
	}

	select {
	case p.queues[worker] <- task:
		return true
	case <-p.done:
		return false
	}
}

// Close stops the pool and joins every worker goroutine before returning.
// Queued tasks are drained, not discarded. Close is safe to call multiple
// times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
