package major

import (
	"testing"

	"github.com/coregc/coregc/internal/gc"
)

func TestCopyingRelocatesToToSpace(t *testing.T) {
	c := NewCopying(4096, false)
	o, err := c.AllocHeap(32, 8)
	if err != nil {
		t.Fatalf("AllocHeap: %v", err)
	}

	c.StartMajorCollection()
	dst := c.CopyObject(o)
	if dst == o {
		t.Fatal("CopyObject returned the same object; want a fresh to-space object")
	}
	if !o.IsForwarded() {
		t.Fatal("source object not marked forwarded after CopyObject")
	}
	if o.Forward() != dst.Addr {
		t.Errorf("forwarding address %#x, want destination address %#x", o.Forward(), dst.Addr)
	}
}

func TestCopyingReturnsSameDestinationOnRepeatCopy(t *testing.T) {
	c := NewCopying(4096, false)
	o, _ := c.AllocHeap(32, 8)

	c.StartMajorCollection()
	dst1 := c.CopyObject(o)
	dst2 := c.CopyObject(o)
	if dst1 != dst2 {
		t.Error("copying an already-forwarded object twice returned different destinations")
	}
}

func TestCopyingKeepsPinnedObjectsInPlace(t *testing.T) {
	c := NewCopying(4096, false)
	o, _ := c.AllocHeap(32, 8)
	o.SetPinned()

	c.StartMajorCollection()
	dst := c.CopyObject(o)
	if dst != o {
		t.Error("a pinned object must not be relocated by CopyObject")
	}
}

func TestCopyingSweepPromotesToSpaceAndReportsFreedBytes(t *testing.T) {
	c := NewCopying(4096, false)
	live, _ := c.AllocHeap(32, 8)
	_, _ = c.AllocHeap(32, 8) // never copied: garbage

	c.StartMajorCollection()
	c.CopyObject(live)
	freed := c.Sweep()
	if freed <= 0 {
		t.Errorf("Sweep() freed = %d, want > 0 (the uncopied object's from-space section)", freed)
	}

	var remaining int
	c.IterateObjects(true, true, func(*gc.Object) bool { remaining++; return true })
	if remaining != 1 {
		t.Errorf("IterateObjects after Sweep found %d objects, want 1 survivor", remaining)
	}
}

func TestCopyingCopyOrMarkObjectAlwaysRelocates(t *testing.T) {
	c := NewCopying(4096, false)
	o, _ := c.AllocHeap(32, 8)

	c.StartMajorCollection()
	dst := c.CopyOrMarkObject(o)
	if dst == o {
		t.Error("CopyOrMarkObject returned the same object; a copying collector always relocates unpinned objects")
	}
}
