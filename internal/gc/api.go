package gc

import (
	"fmt"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/remset"
	"github.com/coregc/coregc/internal/workqueue"
)

// MajorCollector is the external collaborator (a) of §1: object placement,
// sweep, and iteration for the old generation and LOS. Implementations
// live in internal/major. The interface names mirror §6's "Major-collector
// interface (consumed)" one for one.
type MajorCollector interface {
	AllocHeap(size int64, align int64) (*Object, error)
	StartMajorCollection()
	Sweep() (freedBytes int64)
	IterateObjects(nonPinned, pinned bool, cb func(*Object) bool)
	CopyObject(o *Object) *Object
	CopyOrMarkObject(o *Object) *Object
	MinorScanObject(o *Object, visit func(slotIdx int, ref core.Address) core.Address)
	IsObjectLive(o *Object) bool
	NumMajorSections() int
	SectionSize() int64
	FindPinQueueStartEnds(pq *workqueue.PinQueue)
	PinObjects(pq *workqueue.PinQueue) []*Object
	FreePinnedObject(o *Object)
	FreeNonPinnedObject(o *Object)
	SupportsCardTable() bool
	IsParallel() bool
}

// NurseryAllocator is external collaborator (b): TLABs and the fragment
// list.
type NurseryAllocator interface {
	Alloc(size int64, class *Class, desc *Descriptor) (*Object, bool)
	Clear()
	RebuildFragments(pinned []*Object)
	TotalFragmentBytes() int64
	Objects() []*Object
	Section() *core.Section
	IsDegraded() bool
}

// WorkerPool is external collaborator (g): parallel minor/major tracing.
type WorkerPool interface {
	// Run splits jobs across workers and blocks until all complete. Each
	// job function receives a worker-local gray queue.
	Run(jobs []func(local *workqueue.GrayQueue[*Object]))
	NumWorkers() int
}

// Bridge is external collaborator (h): cross-runtime object graph
// processing (§4.6 step 4).
type Bridge interface {
	// ResetData is called first in the gray-stack finisher.
	ResetData()
	// ProcessSubgraph is handed the bridge-class objects found by the
	// gray-stack finisher. It is called during the collection, before the
	// world is restarted.
	ProcessSubgraph(objs []*Object)
}

// SuspendController is external collaborator (i): thread registration and
// the stop/restart-the-world protocol (§4.1).
type SuspendController interface {
	RegisterThread(tid int)
	CleanupThread(tid int)
	// Configure attaches a thread's root-discovery and allocator-residency
	// callbacks once its thread-local state exists (split from
	// RegisterThread so callers can register with just an ID up front).
	Configure(tid int, roots func() ThreadRoots, inAllocator func() bool)
	// StopWorld suspends every other registered thread, backing off while
	// any remain inside the managed allocator, and returns every thread's
	// published conservative roots (stack + registers).
	StopWorld() []ThreadRoots
	RestartWorld()
}

// ThreadRoots is one suspended thread's conservatively-scannable state.
type ThreadRoots struct {
	ThreadID      int
	StackWords    []core.Address // raw stack words, to be masked+tested for heap membership
	RegisterWords []core.Address
	Skipped       bool // thread died during the handshake (§7 "Thread died during STW")
}

// ToggleRefCallback is invoked on every registered toggleref object during
// the finisher (§4.6 step 3); it returns whether the object should be
// treated as strongly reachable this cycle.
type ToggleRefCallback func(o *Object) (strong bool)

// Remset re-exports the remembered-set interface so callers of this
// package don't need a second import.
type Remset = remset.Remset

// Config carries the key=value init options of §6 "Configuration".
type Config struct {
	Major            string // marksweep | marksweep-fixed | marksweep-par | marksweep-fixed-par | copying
	WBarrier         string // remset | cardtable
	MaxHeapSize      int64
	SoftHeapLimit    int64
	NurserySize      int64
	Workers          int
	StackMark        string // precise | conservative
	BridgeClass      string

	CollectBeforeAllocs  int
	CheckAtMinorCollections bool
	XDomainChecks        bool
	ClearAtGC            bool
	VerifyNurseryAtMinor bool
	DumpNurseryAtMinor   bool
	DisableMinor         bool
	DisableMajor         bool
	HeapDumpFile         string
	PrintAllowance       bool
	PrintPinning         bool
}

// Validate checks the fatal-at-init invariants of §7.
func (c *Config) Validate() error {
	if c.MaxHeapSize < 4*c.NurserySize {
		return fmt.Errorf("coregc: max-heap-size (%d) must be at least 4x nursery-size (%d)", c.MaxHeapSize, c.NurserySize)
	}
	return nil
}

// Generation selects a collection target for Collect (§6 "Collection
// triggers"): 0 = nursery, >=1 clamped to major.
type Generation int

const (
	GenNursery Generation = 0
	GenMajor   Generation = 1
)

// clampGeneration implements "≥1 clamped to major".
func clampGeneration(g Generation) Generation {
	if g >= GenMajor {
		return GenMajor
	}
	return GenNursery
}
