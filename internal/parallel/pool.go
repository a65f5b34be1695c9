// Package parallel provides the bounded worker pool used by the parallel
// renderer.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("parallel: pool closed")

// WorkerPool runs work items on a fixed number of goroutines.
//
// Work is handed over through an unbuffered queue, so Submit returns only
// once a worker has taken the item. At most Workers() items run at any time
// and a caller that submits in order never has more than Workers() items
// started ahead of the one it is waiting for.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// queue hands work to idle workers.
	queue chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// active and peak count work items in progress.
	active atomic.Int32
	peak   atomic.Int32
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func()),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case work := <-p.queue:
			p.run(work)
		}
	}
}

func (p *WorkerPool) run(work func()) {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	work()
}

// Submit blocks until a worker accepts fn, ctx is done, or the pool is
// closed. It returns ctx.Err() or ErrPoolClosed when fn was not accepted.
func (p *WorkerPool) Submit(ctx context.Context, fn func()) error {
	if fn == nil {
		return nil
	}
	if !p.running.Load() {
		return ErrPoolClosed
	}
	select {
	case p.queue <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrPoolClosed
	}
}

// Close stops accepting work and waits for running items to finish.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// Peak returns the largest number of work items observed running at once.
func (p *WorkerPool) Peak() int {
	return int(p.peak.Load())
}
