// Package gc_test exercises the collector core end to end, wiring real
// collaborators the way cmd/gcctl does, rather than faking MajorCollector/
// NurseryAllocator/etc. by hand.
package gc_test

import (
	"testing"

	"github.com/coregc/coregc"
	"github.com/coregc/coregc/internal/config"
	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
)

var testClass = &gc.Class{Name: "T"}
var oneRefDesc = &gc.Descriptor{Kind: gc.DescRunLength, RunLength: 1}

func TestRegisterRootPinnedSurvivesMinorCollection(t *testing.T) {
	cfg, err := config.Parse("")
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	c, err := coregc.New(cfg, nil)
	if err != nil {
		t.Fatalf("coregc.New: %v", err)
	}

	obj, err := c.AllocObject(0, testClass, nil, 32)
	if err != nil {
		t.Fatalf("AllocObject: %v", err)
	}

	if _, err := c.RegisterRoot(obj.Addr, 32, gc.RootPinned, nil,
		func() []core.Address { return []core.Address{obj.Addr} }, nil); err != nil {
		t.Fatalf("RegisterRoot: %v", err)
	}

	c.TriggerCollection(gc.GenNursery)

	if !obj.IsPinned() {
		t.Error("object registered via a pinned root should be pinned after a minor collection")
	}
	if obj.IsForwarded() {
		t.Error("a pinned object must not also be forwarded")
	}
}

func TestDeregisterRootStopsPinning(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)

	obj, err := c.AllocObject(0, testClass, nil, 32)
	if err != nil {
		t.Fatalf("AllocObject: %v", err)
	}
	if _, err := c.RegisterRoot(obj.Addr, 32, gc.RootPinned, nil,
		func() []core.Address { return []core.Address{obj.Addr} }, nil); err != nil {
		t.Fatalf("RegisterRoot: %v", err)
	}
	c.DeregisterRoot(obj.Addr)

	c.TriggerCollection(gc.GenNursery)

	if obj.IsPinned() {
		t.Error("object should not be pinned once its root was deregistered before the collection")
	}
}

func TestWriteBarrierRemsetPromotesReferencedNurseryObject(t *testing.T) {
	cfg := &gc.Config{
		Major: "marksweep", WBarrier: "remset",
		NurserySize: 64, MaxHeapSize: 1 << 20, Workers: 1, StackMark: "conservative",
	}
	c, err := coregc.New(cfg, nil)
	if err != nil {
		t.Fatalf("coregc.New: %v", err)
	}
	tid := c.RegisterThread()

	nurseryObj, err := c.AllocObject(tid, testClass, nil, 40)
	if err != nil {
		t.Fatalf("AllocObject nurseryObj: %v", err)
	}

	oldObj, err := c.AllocObject(tid, testClass, oneRefDesc, 40)
	if err != nil {
		t.Fatalf("AllocObject oldObj: %v", err)
	}
	if oldObj.Generation() != 1 {
		t.Fatalf("second 40-byte alloc into a 64-byte nursery landed in generation %d, want 1 (old gen fallback)", oldObj.Generation())
	}
	oldObj.Refs = make([]core.Address, 1)

	c.WBarrierSetField(tid, oldObj, 0, nurseryObj)
	if oldObj.Refs[0] != nurseryObj.Addr {
		t.Fatalf("WBarrierSetField did not store the referenced address")
	}

	c.TriggerCollection(gc.GenNursery)

	if oldObj.Refs[0] == 0 {
		t.Fatal("remset scan should have kept the slot pointing at the promoted object, not nulled it")
	}
	if oldObj.Refs[0] == nurseryObj.Addr {
		t.Error("referenced object should have been evacuated to a new address, slot still has the old one")
	}
}

func TestAllocObjectRoutesLargeObjectsToLOS(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)

	obj, err := c.AllocObject(0, testClass, nil, gc.MaxSmallObjSize+1)
	if err != nil {
		t.Fatalf("AllocObject: %v", err)
	}
	if obj.Generation() != 2 {
		t.Errorf("object larger than MaxSmallObjSize landed in generation %d, want 2 (LOS)", obj.Generation())
	}
}

func TestAllocObjectFallsBackToOldGenWhenNurseryFull(t *testing.T) {
	cfg := &gc.Config{
		Major: "marksweep", WBarrier: "remset",
		NurserySize: 64, MaxHeapSize: 1 << 20, Workers: 1, StackMark: "conservative",
	}
	c, _ := coregc.New(cfg, nil)

	first, err := c.AllocObject(0, testClass, nil, 40)
	if err != nil {
		t.Fatalf("AllocObject first: %v", err)
	}
	if first.Generation() != 0 {
		t.Fatalf("first small alloc landed in generation %d, want 0 (nursery)", first.Generation())
	}

	second, err := c.AllocObject(0, testClass, nil, 40)
	if err != nil {
		t.Fatalf("AllocObject second: %v", err)
	}
	if second.Generation() != 1 {
		t.Errorf("second alloc exceeding remaining nursery space landed in generation %d, want 1 (old gen)", second.Generation())
	}
}

func TestWalkHeapRejectsCallOutsideStoppedWorld(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)
	if err := c.WalkHeap(false, func(gc.Tile) {}); err == nil {
		t.Error("WalkHeap(false, ...) should fail: it must only be called inside a stopped-world event")
	}
}

func TestWalkHeapTilesCoverEveryLiveObject(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)
	o1, _ := c.AllocObject(0, testClass, nil, 16)
	o2, _ := c.AllocObject(0, testClass, nil, gc.MaxSmallObjSize+1)

	var sawObjects int
	var sawO1, sawO2 bool
	c.WithStoppedWorld(func() {
		if err := c.WalkHeap(true, func(tile gc.Tile) {
			if tile.Object != nil {
				sawObjects++
				if tile.Object.Addr == o1.Addr {
					sawO1 = true
				}
				if tile.Object.Addr == o2.Addr {
					sawO2 = true
				}
			}
		}); err != nil {
			t.Fatalf("WalkHeap: %v", err)
		}
	})
	if !sawO1 || !sawO2 {
		t.Errorf("WalkHeap did not surface both allocated objects (nursery and LOS): sawO1=%v sawO2=%v", sawO1, sawO2)
	}
}

func TestRegisterFinalizerQueuesUnreachableObject(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)

	obj, err := c.AllocObject(0, testClass, nil, 16)
	if err != nil {
		t.Fatalf("AllocObject: %v", err)
	}
	c.RegisterFinalizer(obj)

	c.TriggerCollection(gc.GenNursery)

	if got := c.GetPendingFinalizers(); got != 1 {
		t.Fatalf("GetPendingFinalizers() = %d, want 1: an unreachable finalizable object should be queued", got)
	}
	ready := c.DrainFinalizeReady()
	if len(ready) != 1 {
		t.Fatalf("DrainFinalizeReady() returned %d objects, want 1", len(ready))
	}
	if c.GetPendingFinalizers() != 0 {
		t.Error("GetPendingFinalizers() should be 0 after draining")
	}
}

func TestUnloadDomainFreesLOSObjectsInDomain(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)

	d := c.RegisterDomain("plugin")
	obj, err := c.AllocObject(0, testClass, nil, gc.MaxSmallObjSize+1)
	if err != nil {
		t.Fatalf("AllocObject: %v", err)
	}
	obj.Domain = d

	before := c.GetUsedSize()
	if before < obj.Size {
		t.Fatalf("GetUsedSize() = %d before unload, want at least %d", before, obj.Size)
	}

	c.WithStoppedWorld(func() { c.UnloadDomain(d) })

	after := c.GetUsedSize()
	if after != before-obj.Size {
		t.Errorf("GetUsedSize() after UnloadDomain = %d, want %d", after, before-obj.Size)
	}
}

func TestUnloadDomainFreesOldGenObjectsInDomain(t *testing.T) {
	cfg := &gc.Config{
		Major: "marksweep", WBarrier: "remset",
		NurserySize: 64, MaxHeapSize: 1 << 20, Workers: 1, StackMark: "conservative",
	}
	c, err := coregc.New(cfg, nil)
	if err != nil {
		t.Fatalf("coregc.New: %v", err)
	}

	d := c.RegisterDomain("plugin")

	// Fill the nursery completely so obj falls back to the old generation.
	if _, err := c.AllocObject(0, testClass, nil, 64); err != nil {
		t.Fatalf("AllocObject filler: %v", err)
	}
	obj, err := c.AllocObject(0, testClass, nil, 40)
	if err != nil {
		t.Fatalf("AllocObject obj: %v", err)
	}
	if obj.Generation() != 1 {
		t.Fatalf("obj landed in generation %d, want 1 (old gen)", obj.Generation())
	}
	obj.Domain = d

	before := c.GetUsedSize()
	c.WithStoppedWorld(func() { c.UnloadDomain(d) })
	after := c.GetUsedSize()

	if after != before-obj.Size {
		t.Errorf("GetUsedSize() after UnloadDomain = %d, want %d", after, before-obj.Size)
	}

	var stillPresent bool
	c.WithStoppedWorld(func() {
		c.WalkHeap(true, func(tile gc.Tile) {
			if tile.Object == obj {
				stillPresent = true
			}
		})
	})
	if stillPresent {
		t.Error("old-gen object belonging to an unloaded domain should have been freed")
	}
}

func TestCollectMajorSweepsUnreferencedOldGenObject(t *testing.T) {
	cfg := &gc.Config{
		Major: "marksweep", WBarrier: "remset",
		NurserySize: 64, MaxHeapSize: 1 << 20, Workers: 1, StackMark: "conservative",
	}
	c, err := coregc.New(cfg, nil)
	if err != nil {
		t.Fatalf("coregc.New: %v", err)
	}

	// Fill the nursery completely so the next allocation falls back to the
	// old generation directly.
	_, err = c.AllocObject(0, testClass, nil, 64)
	if err != nil {
		t.Fatalf("AllocObject filler: %v", err)
	}
	garbage, err := c.AllocObject(0, testClass, nil, 40)
	if err != nil {
		t.Fatalf("AllocObject garbage: %v", err)
	}
	if garbage.Generation() != 1 {
		t.Fatalf("garbage object landed in generation %d, want 1 (old gen)", garbage.Generation())
	}

	c.TriggerCollection(gc.GenMajor)

	var stillPresent bool
	c.WithStoppedWorld(func() {
		c.WalkHeap(true, func(tile gc.Tile) {
			if tile.Object == garbage {
				stillPresent = true
			}
		})
	})
	if stillPresent {
		t.Error("unreferenced old-gen object survived a major collection; it should have been swept")
	}
}

func TestCollectMajorKeepsRootPinnedOldGenObject(t *testing.T) {
	cfg := &gc.Config{
		Major: "marksweep", WBarrier: "remset",
		NurserySize: 64, MaxHeapSize: 1 << 20, Workers: 1, StackMark: "conservative",
	}
	c, err := coregc.New(cfg, nil)
	if err != nil {
		t.Fatalf("coregc.New: %v", err)
	}

	// Fill the nursery completely so obj falls back to the old generation.
	_, err = c.AllocObject(0, testClass, nil, 64)
	if err != nil {
		t.Fatalf("AllocObject filler: %v", err)
	}
	obj, err := c.AllocObject(0, testClass, nil, 40)
	if err != nil {
		t.Fatalf("AllocObject obj: %v", err)
	}
	if obj.Generation() != 1 {
		t.Fatalf("obj landed in generation %d, want 1 (old gen)", obj.Generation())
	}

	if _, err := c.RegisterRoot(obj.Addr, 40, gc.RootPinned, nil,
		func() []core.Address { return []core.Address{obj.Addr} }, nil); err != nil {
		t.Fatalf("RegisterRoot: %v", err)
	}

	c.TriggerCollection(gc.GenMajor)

	var stillPresent bool
	c.WithStoppedWorld(func() {
		c.WalkHeap(true, func(tile gc.Tile) {
			if tile.Object == obj {
				stillPresent = true
			}
		})
	})
	if !stillPresent {
		t.Error("a root-pinned old-gen object should survive a major collection")
	}
}

func TestGetUsedSizeAndHeapSizeTrackAllocations(t *testing.T) {
	cfg, _ := config.Parse("")
	c, _ := coregc.New(cfg, nil)

	if c.GetUsedSize() != 0 {
		t.Fatalf("GetUsedSize() on a fresh collector = %d, want 0", c.GetUsedSize())
	}
	if _, err := c.AllocObject(0, testClass, nil, 16); err != nil {
		t.Fatalf("AllocObject: %v", err)
	}
	if c.GetUsedSize() != 16 {
		t.Errorf("GetUsedSize() after one 16-byte alloc = %d, want 16", c.GetUsedSize())
	}
	if c.GetHeapSize() <= 0 {
		t.Error("GetHeapSize() should be positive once the nursery is mapped")
	}
}
