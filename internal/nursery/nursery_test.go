package nursery

import (
	"testing"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
)

func TestAllocFitsInFragment(t *testing.T) {
	n := New(0x1000, 256)
	o, ok := n.Alloc(64, nil, nil)
	if !ok {
		t.Fatal("Alloc failed in an empty nursery")
	}
	if o.Addr != 0x1000 {
		t.Errorf("first object placed at %#x, want %#x", o.Addr, 0x1000)
	}
	if got := n.TotalFragmentBytes(); got != 256-64 {
		t.Errorf("TotalFragmentBytes() = %d, want %d", got, 256-64)
	}
}

func TestAllocFailsWhenFull(t *testing.T) {
	n := New(0x1000, 64)
	if _, ok := n.Alloc(64, nil, nil); !ok {
		t.Fatal("first Alloc should have fit exactly")
	}
	if _, ok := n.Alloc(1, nil, nil); ok {
		t.Fatal("Alloc succeeded with no fragment space left")
	}
}

func TestObjectsStaySortedByAddr(t *testing.T) {
	n := New(0x1000, 1024)
	var want []core.Address
	for i := 0; i < 10; i++ {
		o, ok := n.Alloc(32, nil, nil)
		if !ok {
			t.Fatalf("Alloc %d failed", i)
		}
		want = append(want, o.Addr)
	}
	objs := n.Objects()
	if len(objs) != len(want) {
		t.Fatalf("Objects() has %d entries, want %d", len(objs), len(want))
	}
	for i := 1; i < len(objs); i++ {
		if objs[i-1].Addr >= objs[i].Addr {
			t.Fatalf("Objects() not sorted by address: %v", objs)
		}
	}
}

// TestRebuildFragmentsDegradesOnZeroSpace covers §4.4 step 11 / §7 "Zero
// fragment after minor": a rebuild whose pinned set covers the whole
// section leaves zero fragment bytes and enters degraded mode.
func TestRebuildFragmentsDegradesOnZeroSpace(t *testing.T) {
	n := New(0x1000, 128)
	pinned := []*gc.Object{{Addr: 0x1000, Size: 128}}
	n.RebuildFragments(pinned)
	if !n.IsDegraded() {
		t.Error("IsDegraded() = false, want true when pinned objects cover the whole section")
	}
	if got := n.TotalFragmentBytes(); got != 0 {
		t.Errorf("TotalFragmentBytes() = %d, want 0", got)
	}
}

func TestRebuildFragmentsLeavesGaps(t *testing.T) {
	n := New(0x1000, 256)
	pinned := []*gc.Object{
		{Addr: 0x1000, Size: 32},
		{Addr: 0x1080, Size: 32},
	}
	n.RebuildFragments(pinned)
	if n.IsDegraded() {
		t.Fatal("IsDegraded() = true, want false: there is a gap between and after the pinned objects")
	}
	want := int64(256 - 64)
	if got := n.TotalFragmentBytes(); got != want {
		t.Errorf("TotalFragmentBytes() = %d, want %d", got, want)
	}
}

// TestWalkTileCoversSectionExactly is invariant 4: tiling covers
// [Data, EndData) with no gaps or overlaps.
func TestWalkTileCoversSectionExactly(t *testing.T) {
	n := New(0x1000, 256)
	_, _ = n.Alloc(32, nil, nil)
	_, _ = n.Alloc(16, nil, nil)

	var cur core.Address = 0x1000
	n.WalkTile(func(addr core.Address, size int64, obj *gc.Object) {
		if addr != cur {
			t.Fatalf("tile at %#x, expected contiguous tiling to reach %#x", addr, cur)
		}
		cur = cur.Add(size)
	})
	if cur != 0x1000+256 {
		t.Errorf("tiling ended at %#x, want %#x", cur, 0x1000+256)
	}
}
