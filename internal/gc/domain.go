package gc

import (
	"fmt"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/los"
)

// liveObjectIndex builds a one-shot address -> object map covering the
// nursery, old generation, and LOS, for the domain-unload resolution steps
// below (which need to classify a reference's *target*, not just walk
// objects in source order).
func (c *Collector) liveObjectIndex() map[core.Address]*Object {
	idx := make(map[core.Address]*Object)
	for _, o := range c.nursery.Objects() {
		idx[o.Addr] = o
	}
	c.major.IterateObjects(true, true, func(o *Object) bool {
		idx[o.Addr] = o
		return true
	})
	c.los.ForEach(func(e *los.Entry[*Object]) {
		idx[e.Addr] = e.Value
	})
	return idx
}

// UnloadDomain implements C12: it obliterates every object belonging to d,
// run with the world already stopped (the caller is expected to have
// called StopWorld; this mirrors the minor/major drivers, which take the
// same precondition rather than calling StopWorld themselves).
func (c *Collector) UnloadDomain(d *Domain) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 1. Stage-process finalize and disappearing-link queues.
	c.fin.processStaged()

	// 2. Clear nursery fragments.
	c.nursery.Clear()

	// 3. Optionally verify no cross-domain references exist.
	if c.cfg.XDomainChecks {
		c.checkNoCrossDomainRefs(d)
	}

	// 4. Iterate nursery objects; zero the payload of any in the domain.
	for _, o := range c.nursery.Objects() {
		if o.Domain == d {
			o.Refs = nil
		}
	}

	// 5. Null ephemerons and disappearing links scoped to the domain.
	for _, e := range c.fin.ephemerons {
		if e.Domain == d {
			e.Entries = nil
		}
	}
	for _, l := range c.fin.links {
		if l.Domain == d {
			l.Referent = nil
		}
	}

	// 6a. Neutralize remote-proxy pointers into the domain before freeing
	// anything, so a still-live proxy never dereferences a reclaimed
	// referent.
	idx := c.liveObjectIndex()
	neutralize := func(o *Object) {
		if o.Class == nil || !o.Class.IsRemoteProxy {
			return
		}
		for i, r := range o.Refs {
			if target, ok := idx[r]; ok && target.Domain == d {
				o.Refs[i] = 0
			}
		}
	}
	c.major.IterateObjects(true, true, func(o *Object) bool { neutralize(o); return true })
	c.los.ForEach(func(e *los.Entry[*Object]) { neutralize(e.Value) })

	// 6b. Free the objects: old generation, then LOS. Old-gen objects are
	// gathered first so freeing does not disturb the iteration.
	var doomed []*Object
	c.major.IterateObjects(true, true, func(o *Object) bool {
		if o.Domain == d {
			doomed = append(doomed, o)
		}
		return true
	})
	for _, o := range doomed {
		c.major.FreeNonPinnedObject(o)
	}
	c.los.Sweep(func(e *los.Entry[*Object]) bool {
		return e.Value.Domain != d
	})

	delete(c.domains, d.ID)
}

// checkNoCrossDomainRefs asserts no live object outside d holds a direct
// (non-proxy) reference into d (§7 "Domain-unload with cross-domain
// reference when xdomain-checks on"): log and assert; the assert here is a
// panic, matching "otherwise ignored" when the knob is off.
func (c *Collector) checkNoCrossDomainRefs(d *Domain) {
	idx := c.liveObjectIndex()
	check := func(o *Object) {
		if o.Domain == d || (o.Class != nil && o.Class.IsRemoteProxy) {
			return
		}
		for _, r := range o.Refs {
			if target, ok := idx[r]; ok && target.Domain == d {
				c.log.Printf("xdomain-checks: object %s holds direct ref into unloading domain %q", o.Addr, d.Name)
				panic(fmt.Sprintf("coregc: cross-domain reference into domain %q detected", d.Name))
			}
		}
	}
	for _, o := range c.nursery.Objects() {
		check(o)
	}
	c.major.IterateObjects(true, true, func(o *Object) bool { check(o); return true })
	c.los.ForEach(func(e *los.Entry[*Object]) { check(e.Value) })
}
