package gc

// minAllowance is MIN_ALLOWANCE (§4.8's clamp floor), chosen so a freshly
// initialized collector with no collection history still allows some
// mutation before the first pressure check can trigger a major.
const minAllowance = 1 << 20 // 1MB

// allowanceState is C11's counters, embedded directly in Collector since
// every field is updated in lockstep with a major collection and read by
// the allocation-pressure check.
type allowanceState struct {
	// majorSectionsSaved / losSaved are the old-gen and LOS bytes that
	// survived the *previous* major (the heuristic's notion of "working
	// set"), used as the denominator of the allowance ratio.
	majorSectionsSavedBytes int64
	losSavedBytes           int64

	// minorSectionsAlloced / losAllocedLast are bytes allocated into the
	// old generation and LOS since the previous major.
	minorSectionsAllocedBytes int64
	losAllocedLastBytes       int64

	// bytesSinceLastMajor accumulates new major-section + LOS bytes since
	// the last major; compared against allowance by NeedsMajorByAllowance.
	bytesSinceLastMajor int64

	allowance int64
}

// RecordOldGenAlloc and RecordLOSAlloc are the allocation-pressure counters
// for callers placing old-gen/LOS objects outside AllocObject (which feeds
// the lock-held variants itself); they accumulate both the "since last major"
// trigger counter and the heuristic's next-round numerator.
func (c *Collector) RecordOldGenAlloc(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordOldGenAllocLocked(n)
}

func (c *Collector) RecordLOSAlloc(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLOSAllocLocked(n)
}

// recordOldGenAllocLocked/recordLOSAllocLocked are the lock-held variants,
// used by AllocObject which already holds c.mu for the whole allocation
// route.
func (c *Collector) recordOldGenAllocLocked(n int64) {
	c.minorSectionsAllocedBytes += n
	c.bytesSinceLastMajor += n
}

func (c *Collector) recordLOSAllocLocked(n int64) {
	c.losAllocedLastBytes += n
	c.bytesSinceLastMajor += n
}

// recomputeAllowance implements §4.8's formula verbatim, FIXME included: the
// source this was distilled from flags the save_target denominator as
// possibly wrong, but the behavior is preserved rather than "fixed" (open
// question, see design notes).
//
//	new_major = num_major_sections * section_size
//	save_target = (new_major + los_saved) / 2
//	allowance = save_target * (minor_sections_alloced*section_size + los_alloced_last)
//	            / (major_sections_saved*section_size + los_saved)
//
// Must be called with c.mu held, after a major's sweep has updated
// majorSectionsSavedBytes/losSavedBytes for the cycle just finished.
func (c *Collector) recomputeAllowance() {
	newMajor := int64(c.major.NumMajorSections()) * c.major.SectionSize()
	saveTarget := (newMajor + c.losSavedBytes) / 2

	denom := c.majorSectionsSavedBytes + c.losSavedBytes
	var allowance int64
	if denom > 0 {
		// FIXME (preserved): numerator mixes this cycle's alloc counters
		// with the *previous* cycle's saved-bytes denominator; the source
		// does not rebase denom to the just-finished major before using
		// it here.
		allowance = saveTarget * (c.minorSectionsAllocedBytes + c.losAllocedLastBytes) / denom
	}

	if allowance < minAllowance {
		allowance = minAllowance
	}
	if max := newMajor + c.los.TotalBytes(); allowance > max {
		allowance = max
	}
	ns := c.nursery.Section()
	heapSize := newMajor + c.los.TotalBytes() + ns.EndData.Sub(ns.Data)
	if heapSize+allowance > c.cfg.SoftHeapLimit {
		allowance = c.cfg.SoftHeapLimit - heapSize
		if allowance < 0 {
			allowance = 0
		}
	}

	c.allowance = allowance
	c.majorSectionsSavedBytes = newMajor
	c.losSavedBytes = c.los.TotalBytes()
	c.minorSectionsAllocedBytes = 0
	c.losAllocedLastBytes = 0
	c.bytesSinceLastMajor = 0

	if c.cfg.PrintAllowance {
		c.log.Printf("allowance: new_major=%d save_target=%d allowance=%d", newMajor, saveTarget, c.allowance)
	}
}

// NeedsMajorByAllowance reports whether bytes allocated since the last
// major now exceed the current allowance, the allocation-pressure trigger
// of §4.8's last sentence.
func (c *Collector) NeedsMajorByAllowance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesSinceLastMajor > c.allowance
}

// Allowance returns the current allowance, for introspection and I7.
func (c *Collector) Allowance() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowance
}
