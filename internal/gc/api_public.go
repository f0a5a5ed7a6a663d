package gc

import (
	"fmt"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/los"
)

// RegisterRoot is register_root: registers a precise or pinned root range.
// kind selects which of the three root tables (§3 "Root record") it joins.
func (c *Collector) RegisterRoot(start core.Address, size int64, kind RootKind, desc *Descriptor, read func() []core.Address, write func(int, core.Address)) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roots.Register(start, size, kind, desc, read, write)
}

// DeregisterRoot is deregister_root.
func (c *Collector) DeregisterRoot(start core.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots.Deregister(start)
}

// Collect is collect(generation): 0 runs a minor, >=1 is clamped to major
// (§6 "Collection triggers"). threadRoots must already reflect a StopWorld
// call; Collect does not itself stop the world so a caller driving several
// collections back to back (e.g. the minor-overflow-triggers-major
// sequence in §4.5) pays the STW cost once.
func (c *Collector) Collect(gen Generation, threadRoots []ThreadRoots) {
	switch clampGeneration(gen) {
	case GenNursery:
		if c.cfg.DisableMinor {
			return
		}
		majorDue := c.CollectNursery(threadRoots)
		if majorDue && !c.cfg.DisableMajor {
			c.CollectMajor(threadRoots)
			// "a further minor is run immediately to drain any pending
			// allocation pressure" (§4.5).
			c.CollectNursery(threadRoots)
		}
	case GenMajor:
		if c.cfg.DisableMajor {
			return
		}
		c.CollectMajor(threadRoots)
	}
}

// CollectNurseryTriggered is collect_nursery().
func (c *Collector) CollectNurseryTriggered(threadRoots []ThreadRoots) {
	c.Collect(GenNursery, threadRoots)
}

// CollectMajorTriggered is collect_major(reason); reason is accepted for
// API parity with the spec's ABI but only used for logging here.
func (c *Collector) CollectMajorTriggered(reason string, threadRoots []ThreadRoots) {
	if c.cfg.PrintAllowance {
		c.log.Printf("collect_major: reason=%s", reason)
	}
	c.Collect(GenMajor, threadRoots)
}

// GetUsedSize is get_used_size: bytes currently occupied by live objects
// across nursery, old generation, and LOS.
func (c *Collector) GetUsedSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, o := range c.nursery.Objects() {
		n += o.Size
	}
	c.major.IterateObjects(true, true, func(o *Object) bool {
		n += o.Size
		return true
	})
	n += c.los.TotalBytes()
	return n
}

// GetHeapSize is get_heap_size: total mapped heap (nursery + every
// old-gen section), independent of occupancy.
func (c *Collector) GetHeapSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns := c.nursery.Section()
	return ns.EndData.Sub(ns.Data) + int64(c.major.NumMajorSections())*c.major.SectionSize()
}

// GetCollectionCount is get_collection_count(generation).
func (c *Collector) GetCollectionCount(gen Generation) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clampGeneration(gen) == GenNursery {
		return c.minorCount
	}
	return c.majorCount
}

// GetGeneration is get_generation(obj).
func (c *Collector) GetGeneration(o *Object) int {
	return o.Generation()
}

// GetMaxGeneration is get_max_generation: this collector models two
// generations proper (nursery, old) plus LOS as a parallel store, so the
// maximum ordinal generation is 1.
func (c *Collector) GetMaxGeneration() int { return 1 }

// Tile is one yield of WalkHeap: either a live object (Object != nil) or a
// fragment-fill placeholder spanning [Addr, Addr+Size).
type Tile struct {
	Addr   core.Address
	Size   int64
	Object *Object
}

// WalkHeap is walk_heap(flags, callback): iterates every section's tiling
// of objects and fragment placeholders (invariant 4). Per §6 it is
// "callable only inside a pre-start-world profiler event"; inSTW records
// the caller's assertion that the world is currently stopped.
func (c *Collector) WalkHeap(inSTW bool, cb func(Tile)) error {
	if !inSTW {
		return fmt.Errorf("coregc: walk_heap called outside a stopped-world profiler event")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.nurseryTiles() {
		cb(t)
	}
	c.major.IterateObjects(true, true, func(o *Object) bool {
		cb(Tile{Addr: o.Addr, Size: o.Size, Object: o})
		return true
	})
	c.los.ForEach(func(e *los.Entry[*Object]) {
		cb(Tile{Addr: e.Addr, Size: e.Size, Object: e.Value})
	})
	return nil
}

// nurseryTiles replicates the nursery package's WalkTile tiling using only
// the NurseryAllocator interface (Objects + Section), so this package does
// not need to import internal/nursery to expose walk_heap.
func (c *Collector) nurseryTiles() []Tile {
	s := c.nursery.Section()
	objs := append([]*Object(nil), c.nursery.Objects()...)
	SortObjects(objs)

	var tiles []Tile
	cur := s.Data
	oi := 0
	for cur < s.EndData {
		if oi < len(objs) && objs[oi].Addr == cur {
			tiles = append(tiles, Tile{Addr: cur, Size: objs[oi].Size, Object: objs[oi]})
			cur = cur.Add(objs[oi].Size)
			oi++
			continue
		}
		next := s.EndData
		if oi < len(objs) {
			next = objs[oi].Addr
		}
		tiles = append(tiles, Tile{Addr: cur, Size: next.Sub(cur)})
		cur = next
	}
	return tiles
}
