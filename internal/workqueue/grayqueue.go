package workqueue

import "sync"

// GrayQueue is a LIFO work list of discovered-but-not-yet-traced items.
// It is generic over the gray item type so that this package has no
// dependency on the collector's Object type. A GrayQueue is not safe for
// unsynchronized concurrent use by itself; parallel tracing instead gives
// each worker a private GrayQueue and exchanges batches through a shared
// DistributeQueue at section granularity (§4.4 "Parallelism", §9 "Worker
// pool").
type GrayQueue[T any] struct {
	stack []T
}

// NewGrayQueue returns an empty gray queue.
func NewGrayQueue[T any]() *GrayQueue[T] {
	return &GrayQueue[T]{}
}

// Push enqueues an item to be traced.
func (q *GrayQueue[T]) Push(item T) {
	q.stack = append(q.stack, item)
}

// Pop removes and returns the most recently pushed item. ok is false if the
// queue is empty.
func (q *GrayQueue[T]) Pop() (item T, ok bool) {
	if len(q.stack) == 0 {
		return item, false
	}
	n := len(q.stack) - 1
	item = q.stack[n]
	q.stack = q.stack[:n]
	return item, true
}

// Empty reports whether the queue has no pending items.
func (q *GrayQueue[T]) Empty() bool { return len(q.stack) == 0 }

// Len returns the number of pending items.
func (q *GrayQueue[T]) Len() int { return len(q.stack) }

// TakeBatch removes up to n items for handing to a worker's private queue,
// draining from the same end as Pop so a single-threaded drain is
// unaffected by whether batching was used.
func (q *GrayQueue[T]) TakeBatch(n int) []T {
	if n > len(q.stack) {
		n = len(q.stack)
	}
	start := len(q.stack) - n
	batch := append([]T(nil), q.stack[start:]...)
	q.stack = q.stack[:start]
	return batch
}

// PushBatch appends a batch of items, e.g. work handed back by a worker
// whose local queue still has items when the job pool drains.
func (q *GrayQueue[T]) PushBatch(batch []T) {
	q.stack = append(q.stack, batch...)
}

// DistributeQueue is the shared exchange worker threads use to balance
// section-granularity gray work among themselves (§4.4, §9).
type DistributeQueue[T any] struct {
	mu    sync.Mutex
	batch GrayQueue[T]
}

// NewDistributeQueue returns an empty distribute queue.
func NewDistributeQueue[T any]() *DistributeQueue[T] {
	return &DistributeQueue[T]{}
}

// Offer hands a batch of surplus gray items to the shared pool.
func (d *DistributeQueue[T]) Offer(batch []T) {
	if len(batch) == 0 {
		return
	}
	d.mu.Lock()
	d.batch.PushBatch(batch)
	d.mu.Unlock()
}

// Take removes up to n items from the shared pool for a worker whose
// private queue just ran dry (work-stealing).
func (d *DistributeQueue[T]) Take(n int) []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.batch.TakeBatch(n)
}

// Empty reports whether the shared pool currently has no work.
func (d *DistributeQueue[T]) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.batch.Empty()
}
