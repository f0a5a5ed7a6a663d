// Package suspend implements the stop-the-world primitives (external
// collaborator (i), §4.1): registering mutator threads and running the
// suspend/backoff/restart handshake against them.
package suspend

import (
	"sync"
	"time"

	"github.com/coregc/coregc/internal/gc"
)

// backoffStep is the polling increment of §4.1 step 4 ("back-off sleep
// schedule (10us increments)").
const backoffStep = 10 * time.Microsecond

// maxBackoffAttempts bounds how many times a thread found inside the
// managed allocator is resumed and re-polled before being marked skip.
// §7 notes the back-off itself is unbounded in principle (bounded only by
// mutator progress); this cap exists so a thread that never leaves the
// allocator (a bug, not a GC concern) cannot hang StopWorld forever in this
// in-process model.
const maxBackoffAttempts = 1000

// Thread is a registered mutator thread's collaboration surface: how the
// controller discovers its conservative roots and whether its captured
// instruction pointer currently lies inside the managed allocator.
type Thread struct {
	ID int

	// Roots returns this thread's current stack/register words for
	// conservative scanning. Called only while the thread is suspended.
	Roots func() gc.ThreadRoots
	// InAllocator reports whether the thread's captured IP is inside the
	// managed allocator's address range (the only unsafe region, §5
	// "Suspension points for mutators").
	InAllocator func() bool

	alive bool
}

// Controller implements gc.SuspendController.
type Controller struct {
	// interruption and threadInfo model the two locks of §4.1 step 1,
	// acquired in that documented order.
	interruption sync.Mutex
	threadInfo   sync.Mutex

	threads map[int]*Thread

	// LastPause records the elapsed time of the most recent StopWorld,
	// per §4.1 step 5.
	LastPause time.Duration
}

// New returns an empty suspend controller.
func New() *Controller {
	return &Controller{threads: make(map[int]*Thread)}
}

// RegisterThread adds a thread by ID; its roots/inAllocator callbacks are
// attached afterwards with Configure.
func (c *Controller) RegisterThread(id int) {
	c.threadInfo.Lock()
	defer c.threadInfo.Unlock()
	c.threads[id] = &Thread{ID: id, alive: true}
}

// Configure attaches the roots/inAllocator callbacks for an already
// registered thread. Split from RegisterThread so callers can register
// with just an ID (matching the remset.Remset.RegisterThread shape) and
// wire the callbacks once the mutator's thread-local state exists.
func (c *Controller) Configure(id int, roots func() gc.ThreadRoots, inAllocator func() bool) {
	c.threadInfo.Lock()
	defer c.threadInfo.Unlock()
	if t, ok := c.threads[id]; ok {
		t.Roots, t.InAllocator = roots, inAllocator
	}
}

// CleanupThread removes a thread, e.g. because it died (§7 "Thread died
// during STW" is handled inside StopWorld; this handles a clean exit).
func (c *Controller) CleanupThread(id int) {
	c.threadInfo.Lock()
	defer c.threadInfo.Unlock()
	delete(c.threads, id)
}

// StopWorld implements §4.1's protocol. Re-entry (calling StopWorld again
// before RestartWorld) is forbidden, matching "Re-entry is forbidden."
func (c *Controller) StopWorld() []gc.ThreadRoots {
	start := time.Now()
	c.interruption.Lock()
	c.threadInfo.Lock()
	defer c.threadInfo.Unlock()

	var out []gc.ThreadRoots
	for _, t := range c.threads {
		if !t.alive {
			continue
		}
		skip := false
		if t.InAllocator != nil {
			attempts := 0
			for t.InAllocator() {
				attempts++
				if attempts > maxBackoffAttempts {
					skip = true
					break
				}
				time.Sleep(backoffStep)
			}
		}
		var roots gc.ThreadRoots
		if t.Roots != nil {
			roots = t.Roots()
		}
		roots.ThreadID = t.ID
		roots.Skipped = skip
		out = append(out, roots)
	}
	c.LastPause = time.Since(start)
	return out
}

// RestartWorld releases the interruption lock acquired by StopWorld,
// resuming every suspended thread.
func (c *Controller) RestartWorld() {
	c.interruption.Unlock()
}
