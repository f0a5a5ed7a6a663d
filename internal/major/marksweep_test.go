package major

import (
	"testing"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
	"github.com/coregc/coregc/internal/workqueue"
)

func TestMarkSweepAllocAndSweepUnmarked(t *testing.T) {
	m := NewMarkSweep(4096, false)
	o1, err := m.AllocHeap(64, 8)
	if err != nil {
		t.Fatalf("AllocHeap: %v", err)
	}
	o2, err := m.AllocHeap(64, 8)
	if err != nil {
		t.Fatalf("AllocHeap: %v", err)
	}

	m.StartMajorCollection()
	m.CopyOrMarkObject(o1) // mark o1 live; o2 left unmarked

	freed := m.Sweep()
	if freed != o2.Size {
		t.Errorf("Sweep freed %d bytes, want %d (only o2)", freed, o2.Size)
	}
	if !m.IsObjectLive(o1) {
		t.Error("o1 should still be considered live after sweep marked it")
	}

	var remaining int
	m.IterateObjects(true, true, func(o *gc.Object) bool { remaining++; return true })
	if remaining != 1 {
		t.Errorf("IterateObjects found %d objects after sweep, want 1", remaining)
	}
}

func TestMarkSweepAllocSpansNewSection(t *testing.T) {
	m := NewMarkSweep(128, false)
	for i := 0; i < 4; i++ {
		if _, err := m.AllocHeap(64, 8); err != nil {
			t.Fatalf("AllocHeap %d: %v", i, err)
		}
	}
	if got := m.NumMajorSections(); got < 2 {
		t.Errorf("NumMajorSections() = %d, want at least 2 after exceeding one section's capacity", got)
	}
}

func TestMarkSweepAllocRejectsOversizeObject(t *testing.T) {
	m := NewMarkSweep(128, false)
	if _, err := m.AllocHeap(256, 8); err == nil {
		t.Error("AllocHeap with size > sectionSize should fail")
	}
}

func TestMarkSweepFreeRemovesObject(t *testing.T) {
	m := NewMarkSweep(4096, false)
	o, _ := m.AllocHeap(32, 8)
	m.FreeNonPinnedObject(o)
	var remaining int
	m.IterateObjects(true, true, func(*gc.Object) bool { remaining++; return true })
	if remaining != 0 {
		t.Errorf("object still tracked after FreeNonPinnedObject: %d remaining", remaining)
	}
}

func TestMarkSweepSweepKeepsPinnedEvenUnmarked(t *testing.T) {
	m := NewMarkSweep(4096, false)
	o, _ := m.AllocHeap(32, 8)
	o.SetPinned()

	m.StartMajorCollection()
	freed := m.Sweep()
	if freed != 0 {
		t.Errorf("Sweep freed %d bytes, want 0: pinned object must survive even unmarked", freed)
	}
	var remaining int
	m.IterateObjects(true, true, func(*gc.Object) bool { remaining++; return true })
	if remaining != 1 {
		t.Errorf("IterateObjects found %d objects after sweep, want 1 (pinned survivor)", remaining)
	}
}

func TestMarkSweepFindPinQueueStartEndsPartitionsBySection(t *testing.T) {
	m := NewMarkSweep(128, false)
	o1, _ := m.AllocHeap(32, 8)
	for i := 0; i < 4; i++ {
		if _, err := m.AllocHeap(32, 8); err != nil {
			t.Fatalf("AllocHeap %d: %v", i, err)
		}
	}
	if m.NumMajorSections() < 2 {
		t.Skip("section sizing didn't span multiple sections; partitioning not exercised")
	}

	pq := workqueue.NewPinQueue()
	pq.Push(o1.Addr)
	pq.Optimize()
	m.FindPinQueueStartEnds(pq)

	var sawEntries bool
	for _, s := range m.sections {
		if s.PinQueueNumEntries > 0 {
			sawEntries = true
		}
	}
	if !sawEntries {
		t.Error("no section recorded a non-zero PinQueueNumEntries for a pin candidate known to exist")
	}
}

func TestMarkSweepCopyObjectPromotesNurseryObject(t *testing.T) {
	m := NewMarkSweep(4096, false)
	m.StartMajorCollection()

	src := &gc.Object{Addr: 0x9000, Size: 32, Refs: []core.Address{0x1234}}
	dst := m.CopyObject(src)

	if dst == src {
		t.Fatal("CopyObject should allocate a new old-gen object, not return the source unchanged")
	}
	if !src.IsForwarded() || src.Forward() != dst.Addr {
		t.Error("source object should be forwarded to the new old-gen address")
	}
	if len(dst.Refs) != 1 || dst.Refs[0] != core.Address(0x1234) {
		t.Errorf("dst.Refs = %v, want a copy of src.Refs", dst.Refs)
	}
	if !m.IsObjectLive(dst) {
		t.Error("the promoted object should be marked live")
	}

	var found bool
	m.IterateObjects(true, true, func(o *gc.Object) bool {
		if o == dst {
			found = true
		}
		return true
	})
	if !found {
		t.Error("promoted object should be tracked by IterateObjects")
	}
}

func TestMarkSweepCopyObjectKeepsPinnedInPlace(t *testing.T) {
	m := NewMarkSweep(4096, false)
	src := &gc.Object{Addr: 0x9000, Size: 32}
	src.SetPinned()

	dst := m.CopyObject(src)
	if dst != src {
		t.Error("a pinned object must not be relocated")
	}
}

func TestMarkSweepCopyObjectReturnsSameDestinationOnRepeatCopy(t *testing.T) {
	m := NewMarkSweep(4096, false)
	src := &gc.Object{Addr: 0x9000, Size: 32}
	dst1 := m.CopyObject(src)
	dst2 := m.CopyObject(src)
	if dst1 != dst2 {
		t.Error("copying an already-forwarded object twice should return the same destination")
	}
}

func TestMarkSweepSupportsCardTableAndParallel(t *testing.T) {
	m := NewMarkSweep(4096, false)
	if !m.SupportsCardTable() {
		t.Error("SupportsCardTable() = false, want true")
	}
	if m.IsParallel() {
		t.Error("IsParallel() = true, want false for a non-parallel instance")
	}

	p := NewMarkSweep(4096, true)
	if !p.IsParallel() {
		t.Error("IsParallel() = false, want true for a parallel instance")
	}
}
