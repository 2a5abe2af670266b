// Package batch runs independent jobs, such as one report per ledger, on a
// fixed pool of goroutines.
package batch

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a pool of workers for concurrent task execution.
type WorkerPool struct {
	workers    int
	taskQueue  chan func()
	wg         sync.WaitGroup
	running    atomic.Bool
	tasksTotal atomic.Uint64
	tasksDone  atomic.Uint64
}

// NewWorkerPool creates a pool with the given number of workers and queue
// capacity. If workers is 0, it defaults to runtime.NumCPU().
func NewWorkerPool(workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue < workers {
		queue = workers
	}
	return &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), queue),
	}
}

// Start starts the worker pool.
func (p *WorkerPool) Start() {
	if p.running.Swap(true) {
		return
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for task := range p.taskQueue {
		task()
		p.tasksDone.Add(1)
	}
}

// Submit queues a task, blocking while the queue is full.
// Returns false if the pool is not running or ctx is done first.
func (p *WorkerPool) Submit(ctx context.Context, task func()) bool {
	if !p.running.Load() {
		return false
	}
	select {
	case p.taskQueue <- task:
		p.tasksTotal.Add(1)
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop closes the queue and waits for every queued task to finish.
func (p *WorkerPool) Stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.taskQueue)
	p.wg.Wait()
}

// Stats returns pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		Running:    p.running.Load(),
		TasksTotal: p.tasksTotal.Load(),
		TasksDone:  p.tasksDone.Load(),
		QueueLen:   len(p.taskQueue),
	}
}

// PoolStats contains worker pool statistics.
type PoolStats struct {
	Workers    int
	Running    bool
	TasksTotal uint64
	TasksDone  uint64
	QueueLen   int
}

// Result pairs one job's input with its output.
type Result[T, R any] struct {
	Input T
	Value R
	Err   error
}

// Map applies fn to every item on a pool of workers. Results come back in
// the order of items regardless of completion order. Items not started
// before ctx is cancelled carry ctx.Err().
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) []Result[T, R] {
	results := make([]Result[T, R], len(items))
	if len(items) == 0 {
		return results
	}
	if workers > len(items) {
		workers = len(items)
	}

	pool := NewWorkerPool(workers, len(items))
	pool.Start()

	for i, item := range items {
		i, item := i, item
		results[i].Input = item
		ok := pool.Submit(ctx, func() {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Value, results[i].Err = fn(ctx, item)
		})
		if !ok {
			results[i].Err = ctx.Err()
		}
	}

	pool.Stop()
	return results
}
