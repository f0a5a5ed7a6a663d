package gc

import (
	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/los"
	"github.com/coregc/coregc/internal/remset"
	"github.com/coregc/coregc/internal/workqueue"
)

// pushGray pushes o onto the shared gray queue, guarded by grayMu since
// GrayQueue itself is not safe for concurrent use (see its doc) and
// parallel tracing jobs push discovered objects from multiple goroutines.
func (c *Collector) pushGray(o *Object) {
	c.grayMu.Lock()
	c.gray.Push(o)
	c.grayMu.Unlock()
}

// collectPinCandidates gathers every conservative candidate address from
// roots and thread state into the pin queue (§4.4 step 3 / §4.5's whole-heap
// variant). It does not itself filter by nursery-vs-heap; callers restrict
// which sections they resolve against.
func (c *Collector) collectPinCandidates(threadRoots []ThreadRoots) {
	c.pinQueue.Reset()
	c.roots.ForEachOfKind(RootPinned, func(r *Root) {
		if r.Read == nil {
			return
		}
		for _, a := range r.Read() {
			c.pinQueue.Push(a)
		}
	})
	for _, tr := range threadRoots {
		if tr.Skipped {
			continue
		}
		for _, a := range tr.StackWords {
			c.pinQueue.Push(a)
		}
		for _, a := range tr.RegisterWords {
			c.pinQueue.Push(a)
		}
	}
	c.pinQueue.Optimize()
}

// pinNursery resolves+pins every pin-queue candidate that falls in the
// nursery section (§4.4 step 5), pushing newly pinned objects onto the
// gray queue.
func (c *Collector) pinNursery() {
	s := c.nursery.Section()
	win := c.pinQueue.Slice(s.Data, s.EndData)
	objs := append([]*Object(nil), c.nursery.Objects()...)
	SortObjects(objs)
	for _, addr := range win {
		o, ok := ResolvePinCandidate(s, objs, addr)
		if !ok || o.IsPinned() {
			continue
		}
		o.SetPinned()
		c.gray.Push(o)
	}
}

// pinHeap is pinNursery's §4.5 whole-heap variant: resolves candidates
// against nursery, old generation, and LOS (an LOS object is pinned if any
// candidate lies within [data, data+size)).
func (c *Collector) pinHeap() {
	c.pinNursery()
	c.major.FindPinQueueStartEnds(c.pinQueue)
	for _, o := range c.major.PinObjects(c.pinQueue) {
		c.gray.Push(o)
	}
	candidates := c.pinQueue.All()
	c.los.ForEach(func(e *los.Entry[*Object]) {
		if e.Value.IsPinned() {
			return
		}
		for _, addr := range candidates {
			if addr >= e.Addr && addr < e.Addr.Add(e.Size) {
				e.Value.SetPinned()
				c.gray.Push(e.Value)
				return
			}
		}
	})
}

// resolveNursery finds the live nursery object containing addr.
func (c *Collector) resolveNursery(addr core.Address) (*Object, bool) {
	s := c.nursery.Section()
	if !s.Contains(addr) {
		return nil, false
	}
	objs := append([]*Object(nil), c.nursery.Objects()...)
	SortObjects(objs)
	return ResolvePinCandidate(s, objs, addr)
}

// findOldGen scans old-generation objects for one starting exactly at addr.
// The major-collector interface exposes no direct address lookup, only
// iteration, so this is the resolution path for promote and
// majorVisitSlot.
func (c *Collector) findOldGen(addr core.Address) (*Object, bool) {
	var found *Object
	c.major.IterateObjects(true, true, func(o *Object) bool {
		if o.Addr == addr {
			found = o
			return false
		}
		return true
	})
	return found, found != nil
}

// minorCopySlot is §4.4's "Copy function": applied to a single root/remset
// slot value during a minor. Non-nursery and null values pass through
// unchanged.
func (c *Collector) minorCopySlot(addr core.Address) core.Address {
	if addr == 0 || !c.nursery.Section().Contains(addr) {
		return addr
	}
	o, ok := c.resolveNursery(addr)
	if !ok {
		return addr
	}
	dst := c.major.CopyObject(o)
	if dst != o {
		dst.setGeneration(1)
	}
	c.pushGray(dst)
	return dst.Addr
}

// majorVisitSlot is the §4.5 whole-heap analogue: nursery targets evacuate
// exactly as in a minor; old-gen and LOS targets are marked live in place
// (a copying major collector still relocates them via CopyOrMarkObject).
func (c *Collector) majorVisitSlot(addr core.Address) core.Address {
	if addr == 0 {
		return addr
	}
	if c.nursery.Section().Contains(addr) {
		return c.minorCopySlot(addr)
	}
	if e, ok := c.los.Get(addr); ok {
		if !c.losMarks[e.Value] {
			c.losMarks[e.Value] = true
			c.pushGray(e.Value)
		}
		return addr
	}
	if found, ok := c.findOldGen(addr); ok {
		dst := c.major.CopyOrMarkObject(found)
		c.pushGray(dst)
		return dst.Addr
	}
	return addr
}

// scanPreciseRoots implements §4.4 step 7 / its §4.5 whole-heap counterpart:
// iterate every normal and write-barriered root, calling copy on each
// non-null slot and writing the result back via Root.Write.
func (c *Collector) scanPreciseRoots(copy func(core.Address) core.Address) {
	visit := func(r *Root) {
		if r.Read == nil {
			return
		}
		for i, a := range r.Read() {
			if a == 0 {
				continue
			}
			if na := copy(a); na != a && r.Write != nil {
				r.Write(i, na)
			}
		}
	}
	c.roots.ForEachOfKind(RootNormal, visit)
	c.roots.ForEachOfKind(RootWBarrier, visit)
}

// scanRemset implements §4.4 step 6: for each remembered slot, if its
// current value is in the nursery, copy it and update the slot. The
// card-table variant instead walks dirty-card ranges and re-scans every
// object overlapping them, per §4.3.
func (c *Collector) scanRemset(copy func(core.Address) core.Address) {
	if ct, ok := c.remset.(*remset.CardTable); ok {
		for _, rng := range ct.DirtyCardRanges() {
			c.major.IterateObjects(true, true, func(o *Object) bool {
				if o.Addr < rng.Max && o.Addr.Add(o.Size) > rng.Min {
					for i, r := range o.Refs {
						o.Refs[i] = copy(r)
					}
				}
				return true
			})
		}
		return
	}
	for _, slot := range c.remset.PendingSlots() {
		c.major.IterateObjects(true, true, func(o *Object) bool {
			if slot < o.Addr || slot >= o.Addr.Add(o.Size) {
				return true
			}
			if i := int(slot.Sub(o.Addr) / core.AllocAlign); i < len(o.Refs) && o.Refs[i] != 0 {
				o.Refs[i] = copy(o.Refs[i])
			}
			return false
		})
	}
}

// drainGray runs the gray-queue fixed point (§4.4 step 9 / §4.5's
// whole-heap equivalent): pop an object, visit its Refs with the supplied
// copy function, repeat until empty. When a parallel-capable worker pool
// and major collector are configured, rounds of the current queue contents
// are sharded across workers instead (§4.4 "Parallelism", §9 "Worker
// pool"); pool jobs push newly discovered objects back through pushGray,
// so draining continues until a round produces nothing new.
func (c *Collector) drainGray(copy func(core.Address) core.Address) {
	if c.pool == nil || c.pool.NumWorkers() <= 1 || !c.major.IsParallel() {
		for {
			o, ok := c.gray.Pop()
			if !ok {
				return
			}
			c.scanObjectRefs(o, copy)
		}
	}
	for !c.gray.Empty() {
		round := c.gray.TakeBatch(c.gray.Len())
		dist := workqueue.NewDistributeQueue[*Object]()
		dist.Offer(round)
		n := c.pool.NumWorkers()
		jobs := make([]func(local *workqueue.GrayQueue[*Object]), n)
		for i := 0; i < n; i++ {
			jobs[i] = func(local *workqueue.GrayQueue[*Object]) {
				for {
					if local.Empty() {
						batch := dist.Take(16)
						if len(batch) == 0 {
							return
						}
						local.PushBatch(batch)
					}
					o, ok := local.Pop()
					if !ok {
						continue
					}
					c.scanObjectRefs(o, copy)
				}
			}
		}
		c.pool.Run(jobs)
	}
}

// scanObjectRefs rewrites every reference-valued slot of o via copy.
// Nursery objects (still un-evacuated pinned survivors) go through the
// major collector's MinorScanObject so its section bookkeeping stays
// consistent with how it scans its own old-gen objects; promoted/old-gen
// objects are rewritten directly.
func (c *Collector) scanObjectRefs(o *Object, copy func(core.Address) core.Address) {
	if o.generation == 0 {
		c.major.MinorScanObject(o, func(_ int, ref core.Address) core.Address { return copy(ref) })
		return
	}
	for i, r := range o.Refs {
		o.Refs[i] = copy(r)
	}
}
