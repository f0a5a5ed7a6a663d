package los

import "testing"

func TestStoreAddGetSweep(t *testing.T) {
	s := NewStore[string]()
	s.Add(0x1000, 256, "a")
	s.Add(0x2000, 512, "b")

	if e, ok := s.Get(0x1000); !ok || e.Value != "a" {
		t.Fatalf("Get(0x1000) = %v, %v, want entry a", e, ok)
	}
	// A containing-range lookup: an address inside [0x2000, 0x2200) should
	// resolve to the entry starting at 0x2000.
	if e, ok := s.Get(0x2100); !ok || e.Value != "b" {
		t.Fatalf("Get(0x2100) = %v, %v, want entry b (containment)", e, ok)
	}
	if got := s.TotalBytes(); got != 256+512 {
		t.Errorf("TotalBytes() = %d, want %d", got, 256+512)
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}

	freed := s.Sweep(func(e *Entry[string]) bool { return e.Value != "a" })
	if freed != 256 {
		t.Errorf("Sweep freed %d bytes, want 256", freed)
	}
	if _, ok := s.Get(0x1000); ok {
		t.Errorf("Get(0x1000) found an entry after Sweep freed it")
	}
	if _, ok := s.Get(0x2000); !ok {
		t.Errorf("Sweep freed the entry it should have kept")
	}
}

func TestStoreForEachOrder(t *testing.T) {
	s := NewStore[int]()
	s.Add(0x3000, 8, 3)
	s.Add(0x1000, 8, 1)
	s.Add(0x2000, 8, 2)
	var got []int
	s.ForEach(func(e *Entry[int]) { got = append(got, e.Value) })
	want := []int{3, 1, 2} // insertion order, not address order
	if len(got) != len(want) {
		t.Fatalf("ForEach yielded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ForEach[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
