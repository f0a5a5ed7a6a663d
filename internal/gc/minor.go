package gc

// CollectNursery runs a minor collection (C7, §4.4). World must already be
// stopped and thread roots captured; the caller (TriggerCollection, in
// stw.go, around Collect) owns the StopWorld/RestartWorld bracket since
// Collect may fold a minor into a larger minor/major/minor sequence without
// restarting in between.
//
// Returns true if a major collection is now due, either because nursery
// evacuation hit OOM (pinning objects in place) or the allowance
// heuristic says so.
func (c *Collector) CollectNursery(threadRoots []ThreadRoots) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 1. Fragment-clear.
	c.nursery.Clear()

	// 2. Prepare remset; process staged finalize/disappearing-link
	// additions.
	c.remset.PrepareForMinorCollection()
	c.fin.processStaged()

	// 3. Pin from roots (pinned-root ranges + thread stacks/registers).
	c.collectPinCandidates(threadRoots)

	// 4. Optimize pin queue (done inside collectPinCandidates).

	// 5. Resolve + pin against the nursery section.
	c.pinNursery()
	pinnedBeforeEvac := pinnedBytes(c.nursery.Objects())

	// 6. Scan remset.
	c.scanRemset(c.minorCopySlot)

	// 7. Scan precise roots.
	c.scanPreciseRoots(c.minorCopySlot)

	// 8. Scan thread data: conservative stack/register roots were already
	// folded into the pin queue in step 3 (this collector's "precise
	// per-thread mark function" variant is not modeled; conservative
	// scanning covers both cases per §4.4 step 8's fallback).

	// 9. Drain gray queue.
	c.drainGray(c.minorCopySlot)

	// Any object pinned beyond those resolved from conservative roots was
	// pinned by the copy function's OOM fallback (evacuation to-space
	// exhausted mid-minor, §7 "Evacuation OOM").
	if pinnedAfterEvac := pinnedBytes(c.nursery.Objects()); pinnedAfterEvac > pinnedBeforeEvac {
		c.bytesPinnedFromFailedAlloc += pinnedAfterEvac - pinnedBeforeEvac
	}

	// 10. Finalization / weak / ephemeron fixed-point, nursery-scoped.
	c.runFinisher(false, c.minorCopySlot)

	// 11. Rebuild nursery fragments from pinned objects.
	pinned := pinnedNurseryObjects(c.nursery.Objects())
	c.nursery.RebuildFragments(pinned)
	degraded := c.nursery.IsDegraded()
	if degraded {
		c.degradedMode = true
	}

	// 12. Post: remset bookkeeping and the collection count.
	c.remset.FinishMinorCollection()
	c.minorCount++

	majorDue := c.bytesPinnedFromFailedAlloc > 0 || c.NeedsMajorByAllowanceLocked()
	return majorDue
}

// pinnedNurseryObjects filters the nursery's live object list down to
// those marked pinned, the input RebuildFragments expects.
func pinnedNurseryObjects(objs []*Object) []*Object {
	var out []*Object
	for _, o := range objs {
		if o.IsPinned() {
			out = append(out, o)
		}
	}
	return out
}

// pinnedBytes sums the size of every currently pinned object in objs.
func pinnedBytes(objs []*Object) int64 {
	var n int64
	for _, o := range objs {
		if o.IsPinned() {
			n += o.Size
		}
	}
	return n
}

// NeedsMajorByAllowanceLocked is NeedsMajorByAllowance without acquiring
// c.mu, for callers that already hold it (CollectNursery runs under the
// collector lock throughout).
func (c *Collector) NeedsMajorByAllowanceLocked() bool {
	return c.bytesSinceLastMajor > c.allowance
}
