package major

import (
	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
)

// Copying is a moving major collector: CopyObject relocates an object into
// a fresh to-space section and installs a forwarding pointer, the same
// evacuation discipline the minor collector uses for the nursery. It
// shares MarkSweep's section/pin-queue bookkeeping and only overrides the
// copy and sweep behavior, matching how the teacher's gocore models
// multiple type/quirk variants as thin overrides of shared machinery
// rather than a parallel implementation.
type Copying struct {
	*MarkSweep
	toSpace *MarkSweep
}

// NewCopying returns a copying major collector.
func NewCopying(sectionSize int64, parallel bool) *Copying {
	return &Copying{MarkSweep: NewMarkSweep(sectionSize, parallel)}
}

// StartMajorCollection opens a fresh to-space that survivors are evacuated
// into; the old from-space is discarded wholesale after sweep instead of
// being swept object-by-object.
func (c *Copying) StartMajorCollection() {
	c.toSpace = NewMarkSweep(c.sectionSize, c.parallel)
}

// CopyObject evacuates o into to-space (unless already forwarded or
// pinned, in which case it is kept at its current address) and returns the
// new object.
func (c *Copying) CopyObject(o *gc.Object) *gc.Object {
	if o.IsForwarded() {
		addr := o.Forward()
		for _, dst := range c.toSpace.objects {
			if dst.Addr == addr {
				return dst
			}
		}
	}
	if o.IsPinned() {
		c.toSpace.objects = append(c.toSpace.objects, o)
		return o
	}
	dst, err := c.toSpace.AllocHeap(o.Size, core.AllocAlign)
	if err != nil {
		// To-space exhausted: degrade to pinning in place (§7 "Evacuation
		// OOM"), consistent with the minor collector's copy function.
		o.SetPinned()
		c.toSpace.objects = append(c.toSpace.objects, o)
		return o
	}
	dst.Class, dst.Desc, dst.Domain = o.Class, o.Desc, o.Domain
	dst.Refs = append([]core.Address(nil), o.Refs...)
	o.SetForwarded(dst.Addr)
	return dst
}

// CopyOrMarkObject is identical to CopyObject: a copying collector always
// relocates (modulo pins), it never merely marks in place.
func (c *Copying) CopyOrMarkObject(o *gc.Object) *gc.Object {
	return c.CopyObject(o)
}

// Sweep retires the from-space and promotes to-space to be the live old
// generation, returning the bytes reclaimed (from-space objects that were
// never copied, i.e. were unreachable).
func (c *Copying) Sweep() int64 {
	kept := make(map[*gc.Object]bool, len(c.toSpace.objects))
	for _, o := range c.toSpace.objects {
		kept[o] = true
	}
	var freed int64
	for _, o := range c.objects {
		if !o.IsForwarded() && !kept[o] {
			freed += o.Size
		}
	}
	c.MarkSweep = c.toSpace
	c.toSpace = nil
	return freed
}

func (c *Copying) totalBytes(sections []*core.Section) int64 {
	var n int64
	for _, s := range sections {
		n += s.EndData.Sub(s.Data)
	}
	return n
}

// IterateObjects/FindPinQueueStartEnds/PinObjects/IsObjectLive are inherited
// from the embedded *MarkSweep unchanged: pre-copy iteration and pinning
// both happen over from-space, matching MajorCollector's contract.
var _ gc.MajorCollector = (*Copying)(nil)
