package core

// ScanStartSize is the number of bytes of heap covered by one scan-start
// table entry (§3 "Sections").
const ScanStartSize = 512

// AllocAlign is the alignment every object start (and every conservative
// pin candidate, once masked) is guaranteed to respect.
const AllocAlign = 8

// Section is a contiguous byte range of heap, either the single nursery
// section or one of many old-generation sections. It owns a scan-start
// table for O(1)-amortized "what object contains this address" queries and
// an embedded pin-queue window used during §4.2 resolution.
type Section struct {
	Data, NextData, EndData Address

	// ScanStarts holds one entry per ScanStartSize bytes of [Data, EndData).
	// ScanStarts[i] is the address of the first object header beginning in
	// [Data+i*ScanStartSize, Data+(i+1)*ScanStartSize), or 0 if none does.
	ScanStarts []Address

	// PinQueueStart/PinQueueNumEntries describe this section's slice of the
	// global, sorted-and-deduped pin queue (§4.2 step 4).
	PinQueueStart      int
	PinQueueNumEntries int
}

// NewSection allocates the scan-start table for a section spanning size
// bytes starting at data.
func NewSection(data Address, size int64) *Section {
	n := (size + ScanStartSize - 1) / ScanStartSize
	return &Section{
		Data:     data,
		NextData: data,
		EndData:  data.Add(size),
		ScanStarts: make([]Address, n),
	}
}

// Contains reports whether a falls within this section's byte range.
func (s *Section) Contains(a Address) bool {
	return a >= s.Data && a < s.EndData
}

// scanStartIndex returns the scan-start table index covering a.
func (s *Section) scanStartIndex(a Address) int {
	return int(a.Sub(s.Data) / ScanStartSize)
}

// SetScanStart records that an object begins at addr, updating the
// scan-start entry for its covering chunk if addr is the first (lowest)
// object start seen for that chunk so far, per invariant 3.
func (s *Section) SetScanStart(addr Address) {
	i := s.scanStartIndex(addr)
	if s.ScanStarts[i] == 0 || addr < s.ScanStarts[i] {
		s.ScanStarts[i] = addr
	}
}

// ResetScanStarts clears the scan-start table, used when a section is
// entirely rebuilt (e.g. the nursery after every minor collection).
func (s *Section) ResetScanStarts() {
	for i := range s.ScanStarts {
		s.ScanStarts[i] = 0
	}
}

// Anchor returns the best starting point for a forward walk toward addr:
// the nearest non-null scan-start entry at or before addr, or s.Data if
// none is found (§4.2 step 2).
func (s *Section) Anchor(addr Address) Address {
	i := s.scanStartIndex(addr)
	for i >= 0 {
		if a := s.ScanStarts[i]; a != 0 && a <= addr {
			return a
		}
		i--
	}
	return s.Data
}
