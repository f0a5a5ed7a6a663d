// Package gc implements the generational collector core: stop-the-world
// orchestration, pinning, the gray-queue tracing loop, finalization/weak-link
// ordering, and the minor-collection-allowance heuristic. Object placement,
// sweep, remembered-set storage, and thread suspension are external
// collaborators consumed through the interfaces in api.go.
package gc

import "github.com/coregc/coregc/internal/core"

// HeaderTag is the pair of low-bit tags carried by every object header.
// Pinning and forwarding are mutually exclusive: Forwarded supersedes any
// pinning request (§3 "Object header").
type HeaderTag uint8

const (
	TagNormal HeaderTag = iota
	TagPinned
	TagForwarded
)

// DescriptorKind selects how a Descriptor's reference bitmap is encoded
// (§3 "Root record").
type DescriptorKind int

const (
	DescBitmapInline DescriptorKind = iota
	DescComplexBitmap
	DescUserMarkFunc
	DescRunLength
)

// Descriptor is the GC descriptor half of a class's vtable: it tells the
// tracer which words of an object (or root range) of this class hold
// references.
type Descriptor struct {
	Kind DescriptorKind

	// Bitmap is used when Kind == DescBitmapInline: bit i set means slot i
	// (word-sized) holds a reference.
	Bitmap uint64

	// Complex is used when Kind == DescComplexBitmap, one bit per slot
	// across possibly more than 64 slots.
	Complex []uint64

	// UserMark is the user mark function for Kind == DescUserMarkFunc:
	// given the object's slot values, it returns which slot indices are
	// references. Nothing in the collector calls it: IsRef treats every slot
	// of a DescUserMarkFunc descriptor as a reference.
	UserMark func(slots []core.Address) []int

	// RunLength is used when Kind == DescRunLength: the first RunLength
	// slots (starting at 0) are references, the rest are not.
	RunLength int
}

// IsRef reports whether slot i of an object described by d is a reference.
func (d *Descriptor) IsRef(i int) bool {
	if d == nil {
		return true // no descriptor: conservative, treat every slot as a ref
	}
	switch d.Kind {
	case DescBitmapInline:
		return i < 64 && d.Bitmap&(1<<uint(i)) != 0
	case DescComplexBitmap:
		w, b := i/64, uint(i%64)
		return w < len(d.Complex) && d.Complex[w]&(1<<b) != 0
	case DescRunLength:
		return i < d.RunLength
	default:
		return true
	}
}

// Class is the non-GC half of a vtable: class identity used to classify
// objects for finalization, bridge processing, and domain-unload.
type Class struct {
	Name              string
	HasFinalizer      bool
	CriticalFinalizer bool // distinct ordering discipline (§3 "Finalize-ready entry")
	IsBridge          bool

	// IsRemoteProxy marks a class whose instances may hold the only
	// pointer into another domain (§4.7's "remote-proxy unwrapped-server
	// pointer"); domain unload neutralizes such refs before freeing.
	IsRemoteProxy bool
}

// Domain models an isolated unit of cross-domain unload (§4.7).
type Domain struct {
	ID   int
	Name string
}

// Object is a single heap object. Its payload is modeled as a slice of
// reference-valued slots rather than raw bytes: this collector reasons
// about object graphs, not byte layouts, and every slot the Descriptor
// marks as a reference is meaningful; any other slot is opaque payload the
// collector never inspects.
type Object struct {
	Addr   core.Address
	Size   int64 // bytes, including non-reference payload
	Class  *Class
	Desc   *Descriptor
	Domain *Domain

	Refs []core.Address // one entry per reference-valued slot, in slot order

	tag     HeaderTag
	forward core.Address

	// generation is informational (0 = nursery, 1 = old, 2 = LOS); the
	// authoritative location of an object is which store holds it.
	generation int
}

// IsForwarded reports whether the object has been evacuated; Forward()
// returns where to.
func (o *Object) IsForwarded() bool { return o.tag == TagForwarded }

// IsPinned reports whether the object is pinned in place for this cycle.
func (o *Object) IsPinned() bool { return o.tag == TagPinned }

// Forward returns the forwarding address. Valid only if IsForwarded.
func (o *Object) Forward() core.Address { return o.forward }

// SetForwarded installs a forwarding pointer, overriding any pin (§3: a
// forwarded object supersedes any pinning request).
func (o *Object) SetForwarded(to core.Address) {
	o.tag = TagForwarded
	o.forward = to
}

// SetPinned marks the object pinned, unless it is already forwarded.
func (o *Object) SetPinned() {
	if o.tag == TagForwarded {
		return
	}
	o.tag = TagPinned
}

// ClearTags resets to the normal state, done when a section is rebuilt.
func (o *Object) ClearTags() {
	o.tag = TagNormal
	o.forward = 0
}

// Generation reports which generation currently holds the object:
// 0 = nursery, 1 = old generation, 2 = large-object store.
func (o *Object) Generation() int { return o.generation }

func (o *Object) setGeneration(g int) { o.generation = g }
