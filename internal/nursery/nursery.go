// Package nursery implements the bump-pointer nursery allocator: TLABs
// carved from a fragment list that is rebuilt after every minor collection
// (§3 "Nursery fragment list", §4.4 step 1 and step 11).
package nursery

import (
	"sort"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
)

// Fragment is a gap between pinned objects (or section bounds) available
// for bump-pointer allocation.
type Fragment struct {
	Start, End core.Address
}

func (f *Fragment) bytes() int64 { return f.End.Sub(f.Start) }

// Nursery is the single nursery section plus its live TLAB fragment list.
// It satisfies gc.NurseryAllocator.
type Nursery struct {
	section   *core.Section
	objects   []*gc.Object // allocated-but-not-yet-collected objects, sorted by Addr
	fragments []*Fragment
	degraded  bool
}

// New returns a fresh nursery occupying [base, base+size), entirely one
// fragment (no objects yet).
func New(base core.Address, size int64) *Nursery {
	n := &Nursery{section: core.NewSection(base, size)}
	n.fragments = []*Fragment{{Start: base, End: base.Add(size)}}
	return n
}

// Section returns the nursery's backing address-space section.
func (n *Nursery) Section() *core.Section { return n.section }

// Objects returns the objects currently allocated in the nursery, sorted
// by address.
func (n *Nursery) Objects() []*gc.Object { return n.objects }

// Fragments returns the current free-space fragment list.
func (n *Nursery) Fragments() []*Fragment { return n.fragments }

// IsDegraded reports whether the last rebuild found zero usable fragment
// bytes (§4.4 step 11, §7 "Zero fragment after minor").
func (n *Nursery) IsDegraded() bool { return n.degraded }

// Alloc carves size bytes for a new object out of the first fragment with
// enough room (first-fit TLAB carving). ok is false if no fragment fits,
// i.e. evacuation/allocation pressure in the to-space sense of §7
// "Evacuation OOM".
func (n *Nursery) Alloc(size int64, class *gc.Class, desc *gc.Descriptor) (*gc.Object, bool) {
	for i, f := range n.fragments {
		if f.bytes() < size {
			continue
		}
		addr := f.Start
		f.Start = f.Start.Add(size)
		if f.Start >= f.End {
			n.fragments = append(n.fragments[:i], n.fragments[i+1:]...)
		}
		obj := &gc.Object{Addr: addr, Size: size, Class: class, Desc: desc}
		n.insertObject(obj)
		n.section.SetScanStart(addr)
		return obj, true
	}
	return nil, false
}

func (n *Nursery) insertObject(o *gc.Object) {
	i := sort.Search(len(n.objects), func(i int) bool { return n.objects[i].Addr >= o.Addr })
	n.objects = append(n.objects, nil)
	copy(n.objects[i+1:], n.objects[i:])
	n.objects[i] = o
}

// Clear discards the TLAB/fragment bump state (§4.4 step 1,
// "Fragment-clear"): the nursery is about to be fully re-scanned and
// anything not pinned will not survive, but the object list itself must
// stay intact until RebuildFragments computes the real survivor set —
// pinning and slot resolution both read Objects() during the scan that
// follows. Called before pinning begins.
func (n *Nursery) Clear() {
	n.fragments = nil
}

// RebuildFragments re-derives the fragment list from the set of objects
// that survived a collection in place (the pinned set), per §4.4 step 11.
// pinned must be sorted by Addr and lie entirely within the section.
func (n *Nursery) RebuildFragments(pinned []*gc.Object) {
	n.section.ResetScanStarts()
	n.objects = pinned
	n.fragments = nil
	cur := n.section.Data
	for _, o := range pinned {
		if o.Addr > cur {
			n.fragments = append(n.fragments, &Fragment{Start: cur, End: o.Addr})
		}
		n.section.SetScanStart(o.Addr)
		cur = o.Addr.Add(o.Size)
	}
	if cur < n.section.EndData {
		n.fragments = append(n.fragments, &Fragment{Start: cur, End: n.section.EndData})
	}
	n.degraded = n.TotalFragmentBytes() == 0
}

// TotalFragmentBytes sums the free bytes across all fragments.
func (n *Nursery) TotalFragmentBytes() int64 {
	var total int64
	for _, f := range n.fragments {
		total += f.bytes()
	}
	return total
}

// WalkTile calls fn once per tile of the section in address order: either a
// live object or a fragment-fill placeholder, covering [Data, EndData)
// exactly with no gaps or overlaps (invariant 4).
func (n *Nursery) WalkTile(fn func(addr core.Address, size int64, obj *gc.Object)) {
	objs := n.objects
	oi := 0
	cur := n.section.Data
	for cur < n.section.EndData {
		if oi < len(objs) && objs[oi].Addr == cur {
			fn(cur, objs[oi].Size, objs[oi])
			cur = cur.Add(objs[oi].Size)
			oi++
			continue
		}
		// Find the fragment covering cur.
		var next core.Address
		if oi < len(objs) {
			next = objs[oi].Addr
		} else {
			next = n.section.EndData
		}
		fn(cur, next.Sub(cur), nil) // nil obj => fragment-fill placeholder
		cur = next
	}
}
