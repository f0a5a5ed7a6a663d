package gc

import (
	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/los"
)

// isReachable reports whether o survived the main gray-queue drain that
// precedes the finisher. heapScope selects whether old-gen/LOS objects are
// evaluated (a major) or treated as out-of-scope/reachable (a minor, per
// §4.6's "Generational note": weak-structure steps run over the nursery
// range only during a minor).
func (c *Collector) isReachable(o *Object, heapScope bool) bool {
	if o == nil || o == Tombstone {
		return false
	}
	if c.forcedStrong[o] {
		return true
	}
	switch o.generation {
	case 0:
		return o.IsForwarded() || o.IsPinned()
	case 1:
		if !heapScope {
			return true
		}
		return c.major.IsObjectLive(o)
	default:
		if !heapScope {
			return true
		}
		return c.losMarks[o]
	}
}

// promote resolves o's possibly-new location after copy has been applied
// to its address, returning the object now backing that address (a
// distinct *Object if o was evacuated, o itself otherwise).
func (c *Collector) promote(o *Object, copy func(core.Address) core.Address) *Object {
	if o == nil {
		return nil
	}
	addr := copy(o.Addr)
	if addr == o.Addr {
		return o
	}
	if dst, ok := c.resolveNursery(addr); ok {
		return dst
	}
	if dst, ok := c.findOldGen(addr); ok {
		return dst
	}
	if e, ok := c.los.Get(addr); ok {
		return e.Value
	}
	return o
}

// forceReachable treats o as a root, evacuating/marking it exactly as the
// main trace would have had a pointer to it existed, and returns the
// object now backing its (possibly new) address.
func (c *Collector) forceReachable(o *Object) *Object {
	switch o.generation {
	case 0:
		dst := c.major.CopyObject(o)
		if dst != o {
			dst.setGeneration(1)
		}
		c.pushGray(dst)
		return dst
	case 1:
		dst := c.major.CopyOrMarkObject(o)
		c.pushGray(dst)
		return dst
	default:
		c.losMarks[o] = true
		c.pushGray(o)
		return o
	}
}

// runFinisher implements C9, §4.6's nine ordered steps, executed once the
// main trace's gray queue has drained for the first time in both the minor
// and major drivers.
func (c *Collector) runFinisher(heapScope bool, copy func(core.Address) core.Address) {
	c.forcedStrong = make(map[*Object]bool)

	// 1. Reset bridge data.
	if c.bridge != nil {
		c.bridge.ResetData()
	}

	ephemeronFixedPoint := func() {
		for {
			changed := false
			for _, e := range c.fin.ephemerons {
				for i, entry := range e.Entries {
					if entry.Key == nil || entry.Key == Tombstone {
						continue
					}
					if !c.isReachable(entry.Key, heapScope) {
						continue
					}
					if entry.Value != nil && !c.isReachable(entry.Value, heapScope) {
						e.Entries[i].Value = c.promote(entry.Value, copy)
						changed = true
					}
				}
			}
			c.drainGray(copy)
			if !changed {
				return
			}
		}
	}

	// 2. Ephemeron fixed-point.
	ephemeronFixedPoint()

	// 3. Toggle-refs.
	if c.toggleCB != nil {
		for _, o := range c.fin.toggleRefs {
			if c.toggleCB(o) {
				c.forcedStrong[o] = true
				c.forceReachable(o)
			}
		}
		c.drainGray(copy)
	}

	// 4. Bridge objects: gather every object of a bridge class and hand the
	// list to the bridge processor. The call is made here, while the world
	// is still stopped; it is not deferred until after restart.
	if c.bridge != nil {
		var bridgeObjs []*Object
		collect := func(o *Object) {
			if o.Class != nil && o.Class.IsBridge {
				bridgeObjs = append(bridgeObjs, o)
			}
		}
		for _, o := range c.nursery.Objects() {
			collect(o)
		}
		c.major.IterateObjects(true, true, func(o *Object) bool { collect(o); return true })
		c.los.ForEach(func(e *los.Entry[*Object]) { collect(e.Value) })
		if len(bridgeObjs) > 0 {
			c.bridge.ProcessSubgraph(bridgeObjs)
		}
	}

	// 5. Null non-tracking weak links whose referent is unreachable.
	for _, l := range c.fin.links {
		if !l.Tracking && l.Referent != nil && !c.isReachable(l.Referent, heapScope) {
			l.Referent = nil
		}
	}

	// 6. Finalization queue: resurrect unreachable-but-finalizable objects,
	// queue them, loop until a pass finds nothing new.
	for {
		var newlyFinalizable []*Object
		for o := range c.fin.finalizable {
			if c.isReachable(o, heapScope) {
				continue
			}
			newlyFinalizable = append(newlyFinalizable, o)
		}
		if len(newlyFinalizable) == 0 {
			break
		}
		for _, o := range newlyFinalizable {
			delete(c.fin.finalizable, o)
			resurrected := c.forceReachable(o)
			if o.Class != nil && o.Class.CriticalFinalizer {
				c.fin.finalizeCriticalReady = append(c.fin.finalizeCriticalReady, resurrected)
			} else {
				c.fin.finalizeReady = append(c.fin.finalizeReady, resurrected)
			}
		}
		c.drainGray(copy)
	}

	// 7. Second ephemeron fixed-point (finalization may have resurrected
	// keys).
	ephemeronFixedPoint()

	// 8. Clear unreachable ephemerons; register remset entries for
	// promoted arrays whose surviving slots still point into the nursery.
	for _, e := range c.fin.ephemerons {
		arrayPromoted := e.Object != nil && e.Object.generation == 1
		for i, entry := range e.Entries {
			if entry.Key != nil && entry.Key != Tombstone && !c.isReachable(entry.Key, heapScope) {
				e.Entries[i] = EphemeronEntry{Key: Tombstone, Value: nil}
				continue
			}
			if arrayPromoted {
				if entry.Key != nil && entry.Key.generation == 0 {
					c.remset.Record(finisherRemsetTID, entry.Key.Addr)
				}
				if entry.Value != nil && entry.Value.generation == 0 {
					c.remset.Record(finisherRemsetTID, entry.Value.Addr)
				}
			}
		}
	}

	// 9. Null tracking weak links, after finalization; repeat drain until
	// the gray queue (and hence newly discovered finalizable objects) is
	// exhausted.
	for _, l := range c.fin.links {
		if l.Tracking && l.Referent != nil && !c.isReachable(l.Referent, heapScope) {
			l.Referent = nil
		}
	}
	c.drainGray(copy)
}

// finisherRemsetTID is the synthetic thread ID used for remset entries the
// finisher records on behalf of the collector itself, rather than a
// mutator barrier.
const finisherRemsetTID = -1
