package gc

import "github.com/coregc/coregc/internal/los"

// CollectMajor runs a full major collection (C8, §4.5): a trace over both
// generations, mirroring the minor's phases but with pinning expanded to
// the whole heap, a generation-spanning sweep, and the nursery always
// rebuilt as part of the cycle. World must already be stopped by the
// caller.
func (c *Collector) CollectMajor(threadRoots []ThreadRoots) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nursery.Clear()
	c.remset.PrepareForMajorCollection()
	c.fin.processStaged()

	c.major.StartMajorCollection()
	c.losMarks = make(map[*Object]bool, c.los.Len())

	// Pinning scope expands to the whole heap.
	c.collectPinCandidates(threadRoots)
	c.pinHeap()

	// Scan all roots + old-gen remset (the major re-derives liveness from
	// scratch, so every remembered slot and every root is rescanned rather
	// than relying on what a minor already settled).
	c.scanRemset(c.majorVisitSlot)
	c.scanPreciseRoots(c.majorVisitSlot)

	c.drainGray(c.majorVisitSlot)

	// Finalization / weak / ephemeron fixed-point, whole-heap scoped.
	c.runFinisher(true, c.majorVisitSlot)

	// Sweep: LOS first (every non-pinned, unmarked object is freed), then
	// the major collector's own sweep.
	c.los.Sweep(func(e *los.Entry[*Object]) bool {
		return e.Value.IsPinned() || c.losMarks[e.Value]
	})
	c.major.Sweep()

	// Rebuild nursery fragments: the nursery is collected as part of every
	// major.
	pinned := pinnedNurseryObjects(c.nursery.Objects())
	c.nursery.RebuildFragments(pinned)
	if c.nursery.IsDegraded() {
		c.degradedMode = true
	} else {
		c.degradedMode = false
	}

	c.recomputeAllowance()
	c.recomputeBounds()
	c.bytesPinnedFromFailedAlloc = 0
	c.majorCount++
}
