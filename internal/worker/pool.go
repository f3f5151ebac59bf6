package worker

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool runs background tasks on goroutines, at most size at a time.
// Go never blocks the caller; queued tasks wait for a free slot.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool creates a pool. A non-positive size means one slot per CPU.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		sem: semaphore.NewWeighted(int64(size)),
	}
}

// Go schedules task. Submitted tasks are not cancelled.
func (p *Pool) Go(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			slog.Error("Unable to acquire worker slot", "err", err)
			return
		}
		defer p.sem.Release(1)

		task()
	}()
}

// Wait blocks until every scheduled task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
