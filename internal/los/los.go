// Package los implements the large-object store (§3 "LOS object"):
// objects bigger than the small-object threshold, kept on an intrusive
// list, never copied, only mark-and-swept.
package los

import "github.com/coregc/coregc/internal/core"

// Entry is one large object. It is generic over the collector's object
// value type so this package has no dependency on package gc.
type Entry[T any] struct {
	Addr  core.Address
	Size  int64
	Value T
}

// Store is an intrusive list of large objects, indexed by address for O(1)
// lookup (the "intrusive list" of §3 modeled as a map since this is not a
// raw-memory simulation).
type Store[T any] struct {
	byAddr map[core.Address]*Entry[T]
	order  []core.Address // insertion order, for stable iteration
}

// NewStore returns an empty large-object store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{byAddr: make(map[core.Address]*Entry[T])}
}

// Add records a new large object.
func (s *Store[T]) Add(addr core.Address, size int64, value T) {
	if _, ok := s.byAddr[addr]; !ok {
		s.order = append(s.order, addr)
	}
	s.byAddr[addr] = &Entry[T]{Addr: addr, Size: size, Value: value}
}

// Get looks up the entry at addr, or the containing entry if addr falls
// within [Addr, Addr+Size) of a tracked object.
func (s *Store[T]) Get(addr core.Address) (*Entry[T], bool) {
	if e, ok := s.byAddr[addr]; ok {
		return e, true
	}
	for _, a := range s.order {
		e := s.byAddr[a]
		if e != nil && addr >= e.Addr && addr < e.Addr.Add(e.Size) {
			return e, true
		}
	}
	return nil, false
}

// ForEach calls fn for every tracked large object, in insertion order.
func (s *Store[T]) ForEach(fn func(*Entry[T])) {
	for _, a := range s.order {
		if e := s.byAddr[a]; e != nil {
			fn(e)
		}
	}
}

// Sweep removes every entry for which keep returns false, returning the
// total bytes freed. This is §4.5's LOS sweep: "every non-pinned object is
// freed".
func (s *Store[T]) Sweep(keep func(*Entry[T]) bool) (freedBytes int64) {
	kept := s.order[:0]
	for _, a := range s.order {
		e := s.byAddr[a]
		if e == nil {
			continue
		}
		if keep(e) {
			kept = append(kept, a)
			continue
		}
		freedBytes += e.Size
		delete(s.byAddr, a)
	}
	s.order = kept
	return freedBytes
}

// TotalBytes returns the sum of all tracked object sizes
// (last_collection_los_memory_usage, §4.5).
func (s *Store[T]) TotalBytes() int64 {
	var n int64
	for _, a := range s.order {
		n += s.byAddr[a].Size
	}
	return n
}

// Len returns the number of tracked large objects.
func (s *Store[T]) Len() int { return len(s.order) }
