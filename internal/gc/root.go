package gc

import (
	"fmt"
	"sort"

	"github.com/coregc/coregc/internal/core"
)

// RootKind selects which of the three disjoint root tables (§3 "Root
// record") a Root belongs to.
type RootKind int

const (
	RootNormal RootKind = iota // precise descriptor
	RootPinned                 // no descriptor; conservatively scanned
	RootWBarrier               // precise, with mandatory write barrier
)

// Root is a single registered memory range that might hold references into
// the managed heap.
type Root struct {
	ID    int
	Start core.Address
	End   core.Address
	Desc  *Descriptor // nil for RootPinned
	Kind  RootKind

	// Read returns the current reference-valued slots within the range, in
	// the same way Object.Refs models an object's payload. The mutator
	// owns this memory; the collector calls Read only while the world is
	// stopped.
	Read func() []core.Address
	// Write is called by precise scanning to install updated (evacuated)
	// addresses back into slot i. Nil for RootPinned, which is never
	// rewritten (objects it points to are pinned instead of moved).
	Write func(i int, addr core.Address)
}

// RootTable is the typed registry of root ranges (C1). Re-registering an
// existing Start updates size/descriptor in place.
type RootTable struct {
	next    int
	byStart map[core.Address]*Root
}

// NewRootTable returns an empty root table.
func NewRootTable() *RootTable {
	return &RootTable{byStart: make(map[core.Address]*Root)}
}

// Register adds or updates a root range. Re-registering an existing start
// requires that both the old and new registration be descriptor-bearing,
// or that neither is (§6 "Root registration").
func (t *RootTable) Register(start core.Address, size int64, kind RootKind, desc *Descriptor, read func() []core.Address, write func(int, core.Address)) (int, error) {
	if existing, ok := t.byStart[start]; ok {
		if (existing.Desc == nil) != (desc == nil) {
			return 0, fmt.Errorf("coregc: re-registering root at %s changes descriptor-bearing-ness", start)
		}
		existing.End = start.Add(size)
		existing.Desc = desc
		existing.Kind = kind
		existing.Read = read
		existing.Write = write
		return existing.ID, nil
	}
	id := t.next
	t.next++
	t.byStart[start] = &Root{
		ID: id, Start: start, End: start.Add(size),
		Desc: desc, Kind: kind, Read: read, Write: write,
	}
	return id, nil
}

// Deregister removes the root starting at start, if any.
func (t *RootTable) Deregister(start core.Address) {
	delete(t.byStart, start)
}

// Size returns the number of registered roots (used by the roots_size
// round-trip law, L2).
func (t *RootTable) Size() int {
	return len(t.byStart)
}

// ForEach calls fn for every registered root in a stable (start-address)
// order.
func (t *RootTable) ForEach(fn func(*Root)) {
	starts := make([]core.Address, 0, len(t.byStart))
	for s := range t.byStart {
		starts = append(starts, s)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	for _, s := range starts {
		fn(t.byStart[s])
	}
}

// ForEachOfKind calls fn for every registered root of the given kind.
func (t *RootTable) ForEachOfKind(kind RootKind, fn func(*Root)) {
	t.ForEach(func(r *Root) {
		if r.Kind == kind {
			fn(r)
		}
	})
}
