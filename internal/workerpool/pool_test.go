package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/coregc/coregc/internal/gc"
	"github.com/coregc/coregc/internal/workqueue"
)

func TestNewClampsToOneWorker(t *testing.T) {
	for _, n := range []int{0, -5} {
		p := New(n)
		if p.NumWorkers() != 1 {
			t.Errorf("New(%d).NumWorkers() = %d, want 1", n, p.NumWorkers())
		}
	}
}

func TestNewKeepsRequestedWorkerCount(t *testing.T) {
	p := New(4)
	if p.NumWorkers() != 4 {
		t.Errorf("New(4).NumWorkers() = %d, want 4", p.NumWorkers())
	}
}

func TestRunExecutesEveryJobExactlyOnce(t *testing.T) {
	p := New(3)
	const n = 10
	var count int32
	jobs := make([]func(*workqueue.GrayQueue[*gc.Object]), n)
	for i := 0; i < n; i++ {
		jobs[i] = func(local *workqueue.GrayQueue[*gc.Object]) {
			if local == nil {
				t.Error("job received a nil local gray queue")
			}
			atomic.AddInt32(&count, 1)
		}
	}
	p.Run(jobs)
	if count != n {
		t.Errorf("jobs executed %d times, want %d", count, n)
	}
}

func TestRunEachJobGetsPrivateQueue(t *testing.T) {
	p := New(2)
	var mu sync.Mutex
	seen := make(map[*workqueue.GrayQueue[*gc.Object]]bool)
	jobs := []func(*workqueue.GrayQueue[*gc.Object]){
		func(local *workqueue.GrayQueue[*gc.Object]) {
			local.Push(&gc.Object{})
			mu.Lock()
			seen[local] = true
			mu.Unlock()
		},
		func(local *workqueue.GrayQueue[*gc.Object]) {
			local.Push(&gc.Object{})
			mu.Lock()
			seen[local] = true
			mu.Unlock()
		},
	}
	p.Run(jobs)
	if len(seen) != 2 {
		t.Errorf("saw %d distinct local queues across 2 jobs, want 2 (each job gets its own)", len(seen))
	}
}

func TestRunWithNoJobsReturnsImmediately(t *testing.T) {
	p := New(1)
	p.Run(nil)
}
