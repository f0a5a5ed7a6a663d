// Package remset implements the two remembered-set variants described in
// §3 "Remembered-set buffer" / §4.3: a per-thread sequential store buffer
// (SSB) and a card table. Both satisfy the Remset interface consumed by the
// collector; which variant backs a given collector is chosen at init via
// the "wbarrier" config key.
package remset

import "github.com/coregc/coregc/internal/core"

// Remset is the interface the collector consumes (§6 "Remset interface
// (consumed)"). It is deliberately ignorant of object/root shapes: it only
// ever records or yields slot *addresses*; re-checking whether a slot still
// points into the nursery is the minor collector's job (slots may have been
// overwritten since the store that recorded them).
type Remset interface {
	// RegisterThread/CleanupThread track per-thread storage lifetime.
	RegisterThread(tid int)
	CleanupThread(tid int)

	// Record is the barrier's slow-path hook: it is called (from thread
	// tid) for a store to a non-nursery slot whose new value is in the
	// nursery.
	Record(tid int, slot core.Address)

	// PrepareForMinorCollection flushes/snapshots whatever the variant
	// needs before a minor collection scans the remembered set.
	PrepareForMinorCollection()
	// PrepareForMajorCollection is the major-collection analogue.
	PrepareForMajorCollection()

	// PendingSlots returns every slot address currently remembered. The
	// caller re-checks each slot's live contents; slots may no longer
	// point into the nursery.
	PendingSlots() []core.Address

	// FinishMinorCollection clears remembered entries that have been
	// fully processed (the remset is empty again per end-to-end scenario
	// 6, "Remset is emptied").
	FinishMinorCollection()
}

// ssbCapacity bounds a single thread's store buffer before its slow path
// flushes to the global list (§3 "Remembered-set buffer (SSB variant)").
const ssbCapacity = 1024

// SSB is the sequential-store-buffer remembered set.
type SSB struct {
	perThread map[int][]core.Address
	global    []core.Address
}

// NewSSB returns an empty SSB-backed remembered set.
func NewSSB() *SSB {
	return &SSB{perThread: make(map[int][]core.Address)}
}

func (s *SSB) RegisterThread(tid int) { s.perThread[tid] = nil }
func (s *SSB) CleanupThread(tid int) {
	s.flush(tid)
	delete(s.perThread, tid)
}

func (s *SSB) Record(tid int, slot core.Address) {
	buf := append(s.perThread[tid], slot)
	if len(buf) >= ssbCapacity {
		s.global = append(s.global, buf...)
		buf = buf[:0]
	}
	s.perThread[tid] = buf
}

func (s *SSB) flush(tid int) {
	if buf := s.perThread[tid]; len(buf) > 0 {
		s.global = append(s.global, buf...)
		s.perThread[tid] = buf[:0]
	}
}

func (s *SSB) PrepareForMinorCollection() {
	for tid := range s.perThread {
		s.flush(tid)
	}
}

func (s *SSB) PrepareForMajorCollection() { s.PrepareForMinorCollection() }

func (s *SSB) PendingSlots() []core.Address {
	return append([]core.Address(nil), s.global...)
}

func (s *SSB) FinishMinorCollection() {
	s.global = s.global[:0]
}

// cardBits determines CardSize = 1<<cardBits bytes per card.
const cardBits = 9 // 512-byte cards

// CardSize is the number of heap bytes one card table byte covers.
const CardSize = 1 << cardBits

// CardTable is the card-table remembered set: a flat byte array over the
// heap, one byte per CardSize-byte card. A nonzero byte marks a dirty card.
// Dirtying is unconditional on any non-nursery store (cheap); minor
// collection pays the cost of walking dirty cards instead.
type CardTable struct {
	base  core.Address
	cards []byte
}

// NewCardTable allocates a card table covering [base, base+heapSize).
func NewCardTable(base core.Address, heapSize int64) *CardTable {
	n := (heapSize + CardSize - 1) / CardSize
	return &CardTable{base: base, cards: make([]byte, n)}
}

func (c *CardTable) index(a core.Address) int {
	return int(a.Sub(c.base) / CardSize)
}

// Dirty marks the card containing slot as dirty. This is the barrier fast
// path for the card-table variant; it never touches per-thread state.
func (c *CardTable) Dirty(slot core.Address) {
	i := c.index(slot)
	if i >= 0 && i < len(c.cards) {
		c.cards[i] = 1
	}
}

// RegisterThread/CleanupThread are no-ops: the card table has no per-thread
// state.
func (c *CardTable) RegisterThread(tid int) {}
func (c *CardTable) CleanupThread(tid int)  {}

// Record dirties the card containing slot; tid is unused.
func (c *CardTable) Record(tid int, slot core.Address) {
	c.Dirty(slot)
}

func (c *CardTable) PrepareForMinorCollection() {}
func (c *CardTable) PrepareForMajorCollection() {}

// PendingSlots is not meaningful for a card table (it remembers cards, not
// slots); DirtyCardRanges is the card-table-specific query the minor
// collector uses instead.
func (c *CardTable) PendingSlots() []core.Address { return nil }

// DirtyCardRanges returns the byte ranges of every currently-dirty card, for
// the minor collector to walk object-by-object (§4.3 "cards ... may be
// scanned for old-to-young pointers").
func (c *CardTable) DirtyCardRanges() []core.Range {
	var ranges []core.Range
	for i, b := range c.cards {
		if b == 0 {
			continue
		}
		min := c.base.Add(int64(i) * CardSize)
		ranges = append(ranges, core.Range{Min: min, Max: min.Add(CardSize)})
	}
	return ranges
}

// FinishMinorCollection clears all dirty cards; any remaining nursery
// out-edges discovered during the minor re-dirty their cards via the normal
// barrier path on the next store.
func (c *CardTable) FinishMinorCollection() {
	for i := range c.cards {
		c.cards[i] = 0
	}
}
