package workqueue

import (
	"testing"

	"github.com/coregc/coregc/internal/core"
)

func TestPinQueueOptimizeSortsAndDedupes(t *testing.T) {
	q := NewPinQueue()
	q.Push(0x300)
	q.Push(0x100)
	q.Push(0x200)
	q.Push(0x100) // duplicate
	q.Optimize()

	want := []core.Address{0x100, 0x200, 0x300}
	got := q.All()
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
}

func TestPinQueuePushAlignsDown(t *testing.T) {
	q := NewPinQueue()
	q.Push(core.Address(0x1003))
	q.Optimize()
	if got := q.All()[0]; got != core.Address(0x1000) {
		t.Errorf("Push did not align down to core.AllocAlign: got %#x", got)
	}
}

func TestPinQueueSliceReturnsSectionWindow(t *testing.T) {
	q := NewPinQueue()
	for _, a := range []core.Address{0x100, 0x1100, 0x2100, 0x2200} {
		q.Push(a)
	}
	q.Optimize()

	win := q.Slice(0x1000, 0x2000)
	if len(win) != 1 || win[0] != 0x1100 {
		t.Errorf("Slice(0x1000, 0x2000) = %v, want [0x1100]", win)
	}
}

func TestPinQueueResetClears(t *testing.T) {
	q := NewPinQueue()
	q.Push(0x100)
	q.Optimize()
	q.Reset()
	if q.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", q.Len())
	}
}
