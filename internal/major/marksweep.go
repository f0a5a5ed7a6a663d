// Package major implements the pluggable major-collector interface
// (external collaborator (a), §6 "Major-collector interface (consumed)"):
// mark-and-sweep and copying variants over the old generation.
package major

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
	"github.com/coregc/coregc/internal/workqueue"
)

// defaultSectionSize is the size of each old-generation section this
// collector carves from mmap'd memory.
const defaultSectionSize = 4 << 20 // 4MB, matching a typical SGen major section

// MarkSweep is a non-moving major collector: old-generation objects are
// never relocated, so CopyOrMarkObject only marks; CopyObject evacuates
// nursery objects into the old generation. Satisfies gc.MajorCollector.
type MarkSweep struct {
	sectionSize int64
	sections    []*core.Section
	objects     []*gc.Object // all live old-gen objects, sorted by Addr within their section
	marks       map[core.Address]bool
	parallel    bool

	// nextSynthetic backs sections with a monotonically increasing
	// synthetic address range when mmap fails (e.g. sandboxed
	// environments); otherwise sections are backed by real anonymous
	// mappings via golang.org/x/sys/unix, kept alive in mappings.
	nextSynthetic core.Address
	mappings      [][]byte
}

// NewMarkSweep returns an empty mark-and-sweep major collector. parallel
// selects parallel tracing through the worker pool (marksweep-par /
// marksweep-fixed-par in config); Sweep and PinObjects always run on the
// calling goroutine.
func NewMarkSweep(sectionSize int64, parallel bool) *MarkSweep {
	if sectionSize <= 0 {
		sectionSize = defaultSectionSize
	}
	return &MarkSweep{
		sectionSize:   sectionSize,
		marks:         make(map[core.Address]bool),
		parallel:      parallel,
		nextSynthetic: core.Address(0x1_0000_0000),
	}
}

// mapSection backs a new section with a real anonymous mapping. This
// collector never dereferences the mapping directly (old-gen object
// payload is the Object.Refs model, not raw bytes); the mapping exists so
// that address arithmetic operates over genuine virtual memory the way a
// production allocator's would, and so mprotect-based guard pages could be
// added without changing this interface.
func (m *MarkSweep) mapSection(size int64) core.Address {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		// Sandboxed environments may deny mmap; fall back to a synthetic,
		// monotonically increasing address range.
		addr := m.nextSynthetic
		m.nextSynthetic = m.nextSynthetic.Add(size)
		return addr
	}
	m.mappings = append(m.mappings, b)
	return core.Address(uintptr(unsafe.Pointer(&b[0])))
}

func (m *MarkSweep) newSection() *core.Section {
	addr := m.mapSection(m.sectionSize)
	s := core.NewSection(addr, m.sectionSize)
	m.sections = append(m.sections, s)
	return s
}

// AllocHeap bump-allocates size bytes, aligned to align, from the current
// or a freshly mapped section.
func (m *MarkSweep) AllocHeap(size, align int64) (*gc.Object, error) {
	if size > m.sectionSize {
		return nil, fmt.Errorf("coregc/major: object size %d exceeds section size %d", size, m.sectionSize)
	}
	var s *core.Section
	if n := len(m.sections); n > 0 {
		last := m.sections[n-1]
		start := last.NextData.AlignUp(align)
		if start.Add(size) <= last.EndData {
			s = last
			s.NextData = start
		}
	}
	if s == nil {
		s = m.newSection()
		s.NextData = s.Data.AlignUp(align)
	}
	addr := s.NextData
	s.NextData = s.NextData.Add(size)
	s.SetScanStart(addr)
	obj := &gc.Object{Addr: addr, Size: size}
	m.insertObject(obj)
	return obj, nil
}

func (m *MarkSweep) insertObject(o *gc.Object) {
	m.objects = append(m.objects, o)
	gc.SortObjects(m.objects)
}

// StartMajorCollection clears the liveness marks for a fresh trace.
func (m *MarkSweep) StartMajorCollection() {
	m.marks = make(map[core.Address]bool, len(m.objects))
}

// CopyObject is the nursery-evacuation primitive (§4.4's "Copy function"):
// it promotes o out of the nursery into a freshly allocated old-generation
// object, copying Refs and installing a forwarding pointer, the same as a
// copying collector's to-space evacuation — a mark-sweep old generation is
// non-moving only with respect to objects it already holds, not the
// nursery. A pinned o stays at its current (nursery) address instead, left
// for the nursery's own survivor bookkeeping to track. Already-forwarded o
// returns the same destination it was forwarded to before.
func (m *MarkSweep) CopyObject(o *gc.Object) *gc.Object {
	if o.IsForwarded() {
		addr := o.Forward()
		for _, dst := range m.objects {
			if dst.Addr == addr {
				return dst
			}
		}
	}
	if o.IsPinned() {
		return o
	}
	dst, err := m.AllocHeap(o.Size, core.AllocAlign)
	if err != nil {
		// Old generation exhausted: degrade to pinning in place, same as
		// the copying collector's evacuation-OOM fallback.
		o.SetPinned()
		return o
	}
	dst.Class, dst.Desc, dst.Domain = o.Class, o.Desc, o.Domain
	dst.Refs = append([]core.Address(nil), o.Refs...)
	m.marks[dst.Addr] = true
	o.SetForwarded(dst.Addr)
	return dst
}

// CopyOrMarkObject marks an already-resident old-generation object live in
// place (§4.5's whole-heap trace): a mark-sweep collector never relocates
// objects it has already promoted, unlike CopyObject's nursery path.
func (m *MarkSweep) CopyOrMarkObject(o *gc.Object) *gc.Object {
	m.marks[o.Addr] = true
	return o
}

// MinorScanObject calls visit for every reference slot of o, replacing the
// slot with whatever visit returns (an evacuated nursery address, or the
// same value if visit leaves it alone).
func (m *MarkSweep) MinorScanObject(o *gc.Object, visit func(int, core.Address) core.Address) {
	for i, r := range o.Refs {
		o.Refs[i] = visit(i, r)
	}
}

// IsObjectLive reports whether o was marked during the current trace.
func (m *MarkSweep) IsObjectLive(o *gc.Object) bool {
	return m.marks[o.Addr]
}

// Sweep frees every unmarked, non-pinned object and returns the bytes
// reclaimed.
func (m *MarkSweep) Sweep() int64 {
	var freed int64
	kept := m.objects[:0]
	for _, o := range m.objects {
		if o.IsPinned() || m.marks[o.Addr] {
			kept = append(kept, o)
			continue
		}
		freed += o.Size
	}
	m.objects = kept
	for _, s := range m.sections {
		s.ResetScanStarts()
	}
	for _, o := range m.objects {
		if s := m.sectionFor(o.Addr); s != nil {
			s.SetScanStart(o.Addr)
		}
		o.ClearTags()
	}
	return freed
}

func (m *MarkSweep) sectionFor(a core.Address) *core.Section {
	for _, s := range m.sections {
		if s.Contains(a) {
			return s
		}
	}
	return nil
}

// IterateObjects calls cb for every tracked old-gen object matching the
// requested pinned/non-pinned selection.
func (m *MarkSweep) IterateObjects(nonPinned, pinned bool, cb func(*gc.Object) bool) {
	for _, o := range m.objects {
		if (o.IsPinned() && !pinned) || (!o.IsPinned() && !nonPinned) {
			continue
		}
		if !cb(o) {
			return
		}
	}
}

// NumMajorSections reports how many old-generation sections are mapped.
func (m *MarkSweep) NumMajorSections() int { return len(m.sections) }

// SectionSize returns the fixed size of each old-generation section.
func (m *MarkSweep) SectionSize() int64 { return m.sectionSize }

// FindPinQueueStartEnds partitions the (already sorted+deduped) pin queue
// by section, recording each section's window (§4.2's "partitioned by
// section").
func (m *MarkSweep) FindPinQueueStartEnds(pq *workqueue.PinQueue) {
	all := pq.All()
	for _, s := range m.sections {
		win := pq.Slice(s.Data, s.EndData)
		if len(win) == 0 {
			s.PinQueueStart, s.PinQueueNumEntries = 0, 0
			continue
		}
		start := 0
		for i, a := range all {
			if a == win[0] {
				start = i
				break
			}
		}
		s.PinQueueStart, s.PinQueueNumEntries = start, len(win)
	}
}

// PinObjects resolves every candidate in the pin queue that falls within an
// old-generation section to its containing object, marks it pinned, and
// returns the set of newly-pinned objects (§4.5's pinning scope expansion
// to the whole heap).
func (m *MarkSweep) PinObjects(pq *workqueue.PinQueue) []*gc.Object {
	var pinned []*gc.Object
	for _, s := range m.sections {
		win := pq.Slice(s.Data, s.EndData)
		objs := m.objectsIn(s)
		for _, addr := range win {
			if o, ok := gc.ResolvePinCandidate(s, objs, addr); ok {
				if !o.IsPinned() {
					o.SetPinned()
					pinned = append(pinned, o)
				}
			}
		}
	}
	return pinned
}

func (m *MarkSweep) objectsIn(s *core.Section) []*gc.Object {
	var out []*gc.Object
	for _, o := range m.objects {
		if s.Contains(o.Addr) {
			out = append(out, o)
		}
	}
	return out
}

// FreePinnedObject / FreeNonPinnedObject remove o from the old generation
// outright, used by domain-unload (§4.7) rather than ordinary sweep.
func (m *MarkSweep) FreePinnedObject(o *gc.Object)    { m.remove(o) }
func (m *MarkSweep) FreeNonPinnedObject(o *gc.Object) { m.remove(o) }

func (m *MarkSweep) remove(o *gc.Object) {
	for i, x := range m.objects {
		if x == o {
			m.objects = append(m.objects[:i], m.objects[i+1:]...)
			return
		}
	}
}

// SupportsCardTable reports that this collector can be paired with either
// remembered-set variant.
func (m *MarkSweep) SupportsCardTable() bool { return true }

// IsParallel reports whether this instance was configured for parallel
// tracing (marksweep-par / marksweep-fixed-par).
func (m *MarkSweep) IsParallel() bool { return m.parallel }
