package gc

import (
	"sort"

	"github.com/coregc/coregc/internal/core"
)

// ResolvePinCandidate implements §4.2's candidate-to-header resolution: walk
// from the nearest scan-start anchor at or before addr, forward through
// objects (which invariant 2 guarantees tile the section without overlap),
// until the object containing addr is found or the walk passes addr.
//
// objs must be sorted by Addr ascending and contain every live object in
// the section addr falls in. The tie-break at an object's exact end
// address is deliberately left to fall out of the half-open [Addr,
// Addr+Size) containment test: a candidate equal to object A's end is
// either the start of object B (if B begins exactly there) or falls in a
// gap and is ignored, per the documented concession.
func ResolvePinCandidate(section *core.Section, objs []*Object, addr core.Address) (*Object, bool) {
	anchor := section.Anchor(addr)
	i := sort.Search(len(objs), func(i int) bool { return objs[i].Addr >= anchor })
	// Anchor may itself be an object start; back up one in case addr falls
	// inside the object at the anchor exactly.
	if i > 0 && objs[i-1].Addr <= addr && addr < objs[i-1].Addr.Add(objs[i-1].Size) {
		i--
	}
	for ; i < len(objs); i++ {
		o := objs[i]
		if o.Addr > addr {
			// Walk passed addr without finding a containing object: gap.
			return nil, false
		}
		if addr < o.Addr.Add(o.Size) {
			return o, true
		}
	}
	return nil, false
}

// SortObjects sorts a slice of objects by address, the order
// ResolvePinCandidate requires.
func SortObjects(objs []*Object) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].Addr < objs[j].Addr })
}
