package gc

import "github.com/coregc/coregc/internal/core"

// Tombstone is the per-process sentinel distinguishing a vacated ephemeron
// slot from a live one (§3 "Ephemeron array"). The spec describes this as
// per-domain; a single shared sentinel is equivalent here since domain
// membership is carried on Object.Domain, not inferred from the tombstone
// value.
var Tombstone = &Object{Class: &Class{Name: "<tombstone>"}}

// DisappearingLink is a hidden pointer cleared when its referent becomes
// unreachable (§3 "Disappearing link"). The original's bitwise-negated
// encoding exists to hide the pointer from conservative scanners that
// don't know about it; this collector has no such external scanners, so
// Referent is stored directly and Tracking is an explicit bool rather than
// a low tag bit.
type DisappearingLink struct {
	Referent *Object // nil once revealed/nulled
	Tracking bool    // resurrection-aware: nulled only after finalization
	Domain   *Domain
}

// EphemeronEntry is one {key, value} slot of an EphemeronArray.
type EphemeronEntry struct {
	Key, Value *Object
}

// EphemeronArray is a managed array of weak {key, value} pairs: value is
// reachable only if key is (§3 "Ephemeron array").
type EphemeronArray struct {
	Addr    core.Address
	Object  *Object
	Domain  *Domain
	Entries []EphemeronEntry
}

// finalizeState holds C10's queues: finalize-ready lists (ordinary and
// critical), disappearing links, ephemeron arrays, and toggle-refs. It is
// embedded in Collector rather than being its own exported type because
// every operation on it needs the live object graph Collector already
// owns.
type finalizeState struct {
	// finalizable is the set of objects with a registered finalizer that
	// have not been queued yet, checked by the fixed-point loop in the
	// gray-stack finisher.
	finalizable map[*Object]bool

	finalizeReady         []*Object
	finalizeCriticalReady []*Object

	links      []*DisappearingLink
	ephemerons []*EphemeronArray
	toggleRefs []*Object

	// stagedFinalizable / stagedLinks / stagedEphemerons are additions
	// made by the mutator between collections (e.g. runtime.SetFinalizer
	// equivalents), merged in during "Process staged finalize /
	// disappearing-link additions" (§4.4 step 2).
	stagedFinalizable map[*Object]bool
	stagedLinks       []*DisappearingLink
	stagedEphemerons  []*EphemeronArray
}

func newFinalizeState() *finalizeState {
	return &finalizeState{
		finalizable:       make(map[*Object]bool),
		stagedFinalizable: make(map[*Object]bool),
	}
}

// RegisterFinalizer stages obj as having a pending finalizer. Takes effect
// at the next collection's "process staged" step.
func (c *Collector) RegisterFinalizer(obj *Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fin.stagedFinalizable[obj] = true
}

// RegisterDisappearingLink stages a new disappearing link.
func (c *Collector) RegisterDisappearingLink(l *DisappearingLink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fin.stagedLinks = append(c.fin.stagedLinks, l)
}

// RegisterEphemeronArray stages a new ephemeron array.
func (c *Collector) RegisterEphemeronArray(e *EphemeronArray) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fin.stagedEphemerons = append(c.fin.stagedEphemerons, e)
}

// RegisterToggleRef registers obj for the toggleref callback (§4.6 step 3).
func (c *Collector) RegisterToggleRef(obj *Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fin.toggleRefs = append(c.fin.toggleRefs, obj)
}

// processStaged merges staged additions into the live queues (§4.4 step 2,
// §4.7 step 1). Called with the GC mutex held, world stopped.
func (f *finalizeState) processStaged() {
	for o := range f.stagedFinalizable {
		f.finalizable[o] = true
	}
	f.stagedFinalizable = make(map[*Object]bool)
	f.links = append(f.links, f.stagedLinks...)
	f.stagedLinks = nil
	f.ephemerons = append(f.ephemerons, f.stagedEphemerons...)
	f.stagedEphemerons = nil
}

// GetPendingFinalizers reports how many objects are currently queued for
// finalization (ordinary + critical), per §6 "Introspection"-adjacent
// `get_pending_finalizers` used by end-to-end scenario 3.
func (c *Collector) GetPendingFinalizers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fin.finalizeReady) + len(c.fin.finalizeCriticalReady)
}

// DrainFinalizeReady returns and clears the ordinary fin-ready list; this
// is what the dedicated finalizer thread (§3 "Lifecycle", §5 "Scheduling
// model") consumes after world restart.
func (c *Collector) DrainFinalizeReady() []*Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.fin.finalizeReady
	c.fin.finalizeReady = nil
	return out
}

// DrainCriticalFinalizeReady is DrainFinalizeReady's critical-finalizer
// counterpart, run by the runtime with its own distinct ordering
// discipline (after ordinary finalizers, conventionally).
func (c *Collector) DrainCriticalFinalizeReady() []*Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.fin.finalizeCriticalReady
	c.fin.finalizeCriticalReady = nil
	return out
}
