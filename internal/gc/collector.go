package gc

import (
	"log"
	"os"
	"sync"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/los"
	"github.com/coregc/coregc/internal/workqueue"
)

// Collector is the process-wide collector state: heap bounds, allowance
// counters, finalize lists, root tables (§9 "Global mutable state"). It is
// the orchestration layer for C1-C13; object placement, nursery TLABs,
// remembered-set storage, parallel tracing, bridge processing, and thread
// suspension are all external collaborators, injected through the
// interfaces declared in api.go.
type Collector struct {
	mu sync.Mutex // GC mutex: registration, barrier-entry metadata, finalization queues, allowance state

	cfg *Config
	log *log.Logger

	roots    *RootTable
	nursery  NurseryAllocator
	major    MajorCollector
	remset   Remset
	los      *los.Store[*Object]
	suspend  SuspendController
	pool     WorkerPool
	bridge   Bridge
	toggleCB ToggleRefCallback

	pinQueue *workqueue.PinQueue
	gray     *workqueue.GrayQueue[*Object]
	grayMu   sync.Mutex
	losMarks     map[*Object]bool // transient: LOS liveness during a major trace
	forcedStrong map[*Object]bool // transient: toggleref-forced-strong objects this cycle

	fin *finalizeState

	domains      map[int]*Domain
	nextDomainID int
	nextThreadID int

	minorCount, majorCount int

	// heap bounds (invariant 5): cover all currently allocated sections
	// and LOS objects.
	lowest, highest core.Address

	degradedMode                bool
	bytesPinnedFromFailedAlloc  int64

	allowanceState
}

// New builds a Collector from its configuration and external
// collaborators. Nursery, major collector, remset, suspend controller,
// worker pool and bridge are constructed by the caller (see the root
// package's New for the teacher-style wiring that picks concrete
// implementations from cfg) and handed in already configured.
func New(cfg *Config, nursery NurseryAllocator, major MajorCollector, remset Remset, suspend SuspendController, pool WorkerPool, bridge Bridge) *Collector {
	c := &Collector{
		cfg:      cfg,
		log:      log.New(os.Stderr, "coregc: ", log.Ltime|log.Lmicroseconds),
		roots:    NewRootTable(),
		nursery:  nursery,
		major:    major,
		remset:   remset,
		los:      los.NewStore[*Object](),
		suspend:  suspend,
		pool:     pool,
		bridge:   bridge,
		pinQueue: workqueue.NewPinQueue(),
		gray:     workqueue.NewGrayQueue[*Object](),
		fin:      newFinalizeState(),
		domains:  make(map[int]*Domain),
	}
	c.recomputeBounds()
	return c
}

// Teardown releases process-wide state, the counterpart to New's init
// (§9 "init()/teardown() discipline").
func (c *Collector) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots = NewRootTable()
	c.fin = newFinalizeState()
	c.domains = make(map[int]*Domain)
}

// SetToggleRefCallback installs the callback invoked on every registered
// toggleref object during the gray-stack finisher (§4.6 step 3).
func (c *Collector) SetToggleRefCallback(cb ToggleRefCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toggleCB = cb
}

// RegisterDomain creates a new domain for cross-domain unload tracking.
func (c *Collector) RegisterDomain(name string) *Domain {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := &Domain{ID: c.nextDomainID, Name: name}
	c.nextDomainID++
	c.domains[d.ID] = d
	return d
}

// RegisterThread registers a new mutator thread with both the remset and
// the suspend controller, returning an ID the caller uses for subsequent
// barrier/suspend calls.
func (c *Collector) RegisterThread() int {
	c.mu.Lock()
	id := c.nextThreadID
	c.nextThreadID++
	c.mu.Unlock()
	c.remset.RegisterThread(id)
	c.suspend.RegisterThread(id)
	return id
}

// CleanupThread unregisters a mutator thread.
func (c *Collector) CleanupThread(id int) {
	c.remset.CleanupThread(id)
	c.suspend.CleanupThread(id)
}

// ConfigureThread attaches a registered thread's conservative root
// discovery and allocator-residency callbacks.
func (c *Collector) ConfigureThread(id int, roots func() ThreadRoots, inAllocator func() bool) {
	c.suspend.Configure(id, roots, inAllocator)
}

// recomputeBounds resets [lowest, highest] to the nursery section, which
// every configuration has (invariant 5). The major collector does not
// expose per-section addresses, so old-gen and LOS addresses enter the
// bounds only through widenBounds, which AllocObject calls for each object
// it places outside the nursery; objects promoted by a collection do not
// widen them.
func (c *Collector) recomputeBounds() {
	s := c.nursery.Section()
	c.lowest, c.highest = s.Data, s.EndData
}

// widenBounds grows [lowest, highest] to include addr, used whenever the
// collector observes a newly allocated old-gen or LOS address.
func (c *Collector) widenBounds(addr core.Address, size int64) {
	if c.lowest == 0 || addr < c.lowest {
		c.lowest = addr
	}
	if end := addr.Add(size); end > c.highest {
		c.highest = end
	}
}

// IsDegradedMode reports whether allocations are currently bypassing the
// nursery (§3 "Lifecycle", §7 "Zero fragment after minor").
func (c *Collector) IsDegradedMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degradedMode
}
