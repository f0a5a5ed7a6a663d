package gc

import (
	"fmt"

	"github.com/coregc/coregc/internal/core"
)

// MaxSmallObjSize is the small/large object threshold (§3 "Lifecycle":
// "or directly in LOS if larger than MAX_SMALL_OBJ_SIZE"). Objects at or
// under this size are born in the nursery (or old generation, in degraded
// mode); larger objects always go straight to the LOS.
const MaxSmallObjSize = 32 << 10

var nextLOSAddr core.Address = 1 << 40 // synthetic, disjoint from nursery/old-gen sections

// AllocObject is alloc_object(tid, class, desc, size): the allocation
// route a mutator thread calls into, implementing the lifecycle of §3 and
// the degraded-mode bypass of §4.4 step 11 / §7 "Zero fragment after
// minor". It is not itself a collection op: callers are expected to check
// GetUsedSize/allowance pressure and trigger a collection through Collect
// when appropriate, the same separation the major/nursery interfaces keep
// between placement and orchestration.
func (c *Collector) AllocObject(tid int, class *Class, desc *Descriptor, size int64) (*Object, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if size > MaxSmallObjSize {
		return c.allocLOSLocked(class, desc, size)
	}

	if !c.degradedMode {
		if o, ok := c.nursery.Alloc(size, class, desc); ok {
			return o, nil
		}
	}

	o, err := c.major.AllocHeap(size, 8)
	if err != nil {
		return nil, fmt.Errorf("coregc: alloc_object: old-gen fallback failed: %w", err)
	}
	o.Class, o.Desc = class, desc
	o.setGeneration(1)
	c.widenBounds(o.Addr, o.Size)
	c.recordOldGenAllocLocked(o.Size)
	return o, nil
}

// allocLOSLocked implements the LOS half of §3's lifecycle rule. Caller
// holds c.mu.
func (c *Collector) allocLOSLocked(class *Class, desc *Descriptor, size int64) (*Object, error) {
	addr := nextLOSAddr
	nextLOSAddr = nextLOSAddr.Add(size)

	o := &Object{Addr: addr, Size: size, Class: class, Desc: desc}
	o.setGeneration(2)
	c.los.Add(addr, size, o)
	c.widenBounds(addr, size)
	c.recordLOSAllocLocked(size)
	return o, nil
}
