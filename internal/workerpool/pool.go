// Package workerpool implements the fixed-size worker group that drives
// parallel minor/major tracing (§9 "Worker pool", external collaborator
// (g)). Each job owns a private gray queue; work is exchanged through a
// shared workqueue.DistributeQueue at section granularity for load
// balancing.
package workerpool

import (
	"sync"

	"github.com/coregc/coregc/internal/gc"
	"github.com/coregc/coregc/internal/workqueue"
)

// Pool is a fixed-size group of goroutines consuming job descriptors.
// Parallelism is opt-in per major collector (the "workers=N" config key);
// a Pool with N==1 still satisfies gc.WorkerPool and runs sequentially.
type Pool struct {
	n int
}

// New returns a worker pool with n workers. n<1 is treated as 1 (sequential
// fallback, matching a "disable parallel tracing" configuration).
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{n: n}
}

// NumWorkers reports the configured worker count.
func (p *Pool) NumWorkers() int { return p.n }

// Run starts one goroutine per job, at most p.n running at a time, and
// blocks until every job completes, satisfying gc.WorkerPool. Each job
// gets its own private gray queue to drain independently, exchanging
// surplus work isn't modeled at the Pool level (callers share a
// workqueue.DistributeQueue across the local queues passed to jobs, per
// §4.4 "Parallelism").
func (p *Pool) Run(jobs []func(local *workqueue.GrayQueue[*gc.Object])) {
	if len(jobs) == 0 {
		return
	}
	sem := make(chan struct{}, p.n)
	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			local := workqueue.NewGrayQueue[*gc.Object]()
			job(local)
		}()
	}
	wg.Wait()
}
