package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewWorkerPool(n)
		if got, want := pool.Workers(), runtime.GOMAXPROCS(0); got != want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", n, got, want)
		}
		pool.Close()
	}
}

func TestWorkerPool_Run(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		items   int
	}{
		{"single worker", 1, 10},
		{"fewer items than workers", 8, 3},
		{"many items", 4, 1000},
		{"no items", 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Close()

			seen := make([]atomic.Int32, tt.items)
			pool.Run(tt.items, func(i int) {
				seen[i].Add(1)
			})

			for i := range seen {
				if got := seen[i].Load(); got != 1 {
					t.Errorf("item %d ran %d times, want 1", i, got)
				}
			}
		})
	}
}

func TestWorkerPool_RunSingleWorkerInOrder(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	var order []int
	pool.Run(5, func(i int) { order = append(order, i) })

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestWorkerPool_RunAfterClose(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Close()

	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}

	var count atomic.Int32
	pool.Run(16, func(int) { count.Add(1) })
	if count.Load() != 16 {
		t.Errorf("Run after Close executed %d items, want 16", count.Load())
	}
}

func TestWorkerPool_RunConcurrentWithClose(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			pool := NewWorkerPool(4)
			var count atomic.Int32
			var wg sync.WaitGroup
			wg.Go(func() { pool.Run(64, func(int) { count.Add(1) }) })
			wg.Go(pool.Close)
			wg.Wait()
			if got := count.Load(); got != 64 {
				t.Errorf("Run racing Close executed %d items, want 64", got)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("Run racing Close did not return")
	}
}

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()
}

func BenchmarkWorkerPool_Run(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	var sink atomic.Int64
	b.ReportAllocs()
	for b.Loop() {
		pool.Run(64, func(i int) { sink.Add(int64(i)) })
	}
}
