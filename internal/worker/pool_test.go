package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(2)

	var count atomic.Int32
	for i := 0; i < 20; i++ {
		pool.Go(func() { count.Add(1) })
	}
	pool.Wait()

	if count.Load() != 20 {
		t.Errorf("Expected 20 tasks, got %d", count.Load())
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(3)

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 12; i++ {
		pool.Go(func() {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	pool.Wait()

	if peak > 3 {
		t.Errorf("Expected at most 3 concurrent tasks, got %d", peak)
	}
}

func TestGoDoesNotBlock(t *testing.T) {
	pool := NewPool(1)
	release := make(chan struct{})

	pool.Go(func() { <-release })

	done := make(chan struct{})
	go func() {
		pool.Go(func() {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Go blocked while the pool was full")
	}

	close(release)
	pool.Wait()
}
