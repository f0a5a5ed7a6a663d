package core

import "testing"

func TestSectionScanStart(t *testing.T) {
	s := NewSection(0x1000, 4*ScanStartSize)
	if !s.Contains(0x1000) || s.Contains(0x1000+4*ScanStartSize) {
		t.Fatalf("Contains bounds wrong")
	}

	// The lowest object start recorded in a chunk wins the scan-start slot,
	// whatever order the calls arrive in (invariant 3: lowest start in the
	// chunk).
	mid := Address(0x1000 + ScanStartSize/2)
	s.SetScanStart(mid)
	lower := Address(0x1000 + 8)
	s.SetScanStart(lower)
	if got := s.ScanStarts[0]; got != lower {
		t.Errorf("ScanStarts[0] = %#x, want lowest start %#x", got, lower)
	}

	higher := Address(0x1000 + ScanStartSize - 8)
	s.SetScanStart(higher)
	if got := s.ScanStarts[0]; got != lower {
		t.Errorf("ScanStarts[0] changed to a higher start: got %#x, want %#x", got, lower)
	}
}
