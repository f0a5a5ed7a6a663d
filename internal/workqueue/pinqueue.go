// Package workqueue provides the two work-list primitives consumed by the
// collector: the pin queue (§4.2) and the gray queue (§3 "Gray queue").
package workqueue

import (
	"sort"
	"sync"

	"github.com/coregc/coregc/internal/core"
)

// PinQueue gathers conservative candidate addresses (stack words, register
// words, pinned-root words), then sorts, dedupes, and partitions them by
// section so §4.2's resolution step can walk each section's slice once.
type PinQueue struct {
	mu      sync.Mutex
	staging []core.Address
	sorted  []core.Address
}

// NewPinQueue returns an empty pin queue.
func NewPinQueue() *PinQueue {
	return &PinQueue{}
}

// Push stages a conservative candidate address, pre-masked to
// core.AllocAlign. Safe for concurrent use by parallel pinning workers
// (guarded by the pin-queue mutex, §5).
func (q *PinQueue) Push(addr core.Address) {
	addr = addr.AlignDown(core.AllocAlign)
	q.mu.Lock()
	q.staging = append(q.staging, addr)
	q.mu.Unlock()
}

// Reset clears the queue for a new collection cycle.
func (q *PinQueue) Reset() {
	q.mu.Lock()
	q.staging = q.staging[:0]
	q.sorted = nil
	q.mu.Unlock()
}

// Optimize sorts and dedupes the staged candidates (§4.2 step: "Before use,
// the queue is sorted ... and uniqued"). Must be called before any
// partitioning or iteration.
func (q *PinQueue) Optimize() {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := append([]core.Address(nil), q.staging...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	out := s[:0]
	var last core.Address
	for i, a := range s {
		if i == 0 || a != last {
			out = append(out, a)
			last = a
		}
	}
	q.sorted = out
}

// Len returns the number of distinct candidates after Optimize.
func (q *PinQueue) Len() int {
	return len(q.sorted)
}

// Slice returns the sub-slice of sorted candidates that fall within
// [min, max), i.e. a single section's window (§4.2's section-partitioned
// pin-queue slice).
func (q *PinQueue) Slice(min, max core.Address) []core.Address {
	lo := sort.Search(len(q.sorted), func(i int) bool { return q.sorted[i] >= min })
	hi := sort.Search(len(q.sorted), func(i int) bool { return q.sorted[i] >= max })
	return q.sorted[lo:hi]
}

// All returns every sorted, deduped candidate.
func (q *PinQueue) All() []core.Address {
	return q.sorted
}
