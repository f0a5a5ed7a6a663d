// Package sim implements a synthetic mutator thread: a named set of object
// handles whose addresses are published as conservative stack roots. It
// stands in for the running process viewcore reads a core dump out of in
// the teacher this module grew from: gcctl has no such process to attach
// to, so it drives this small one instead, the way a unit test drives a
// program under a fuzzer.
package sim

import (
	"fmt"
	"sort"

	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
)

// Mutator is one registered thread plus the handle table that forms its
// conservatively-scanned stack (§4.1 "thread stacks/registers").
type Mutator struct {
	c       *gc.Collector
	tid     int
	handles map[string]*gc.Object
	classes map[string]*gc.Class
}

// New registers a mutator thread against c. The thread never reports
// itself as "inside the managed allocator": AllocObject in this model
// takes the collector mutex directly rather than running concurrently
// with a StopWorld poll.
func New(c *gc.Collector) *Mutator {
	m := &Mutator{
		c:       c,
		handles: make(map[string]*gc.Object),
		classes: make(map[string]*gc.Class),
	}
	m.tid = c.RegisterThread()
	c.ConfigureThread(m.tid, m.roots, func() bool { return false })
	return m
}

// Close unregisters the mutator thread.
func (m *Mutator) Close() {
	m.c.CleanupThread(m.tid)
}

func (m *Mutator) roots() gc.ThreadRoots {
	words := make([]core.Address, 0, len(m.handles))
	for _, o := range m.handles {
		words = append(words, o.Addr)
	}
	return gc.ThreadRoots{ThreadID: m.tid, StackWords: words}
}

func (m *Mutator) classOf(name string) *gc.Class {
	if cl, ok := m.classes[name]; ok {
		return cl
	}
	cl := &gc.Class{Name: name}
	m.classes[name] = cl
	return cl
}

// Alloc allocates an object of the named class with refCount
// reference-valued slots (words bytes each) and binds it to handle,
// replacing any previous binding of that name.
func (m *Mutator) Alloc(handle, class string, refCount int) (*gc.Object, error) {
	const wordSize = 8
	size := int64(refCount) * wordSize
	if size == 0 {
		size = wordSize
	}
	desc := &gc.Descriptor{Kind: gc.DescRunLength, RunLength: refCount}
	o, err := m.c.AllocObject(m.tid, m.classOf(class), desc, size)
	if err != nil {
		return nil, fmt.Errorf("sim: alloc %q: %w", handle, err)
	}
	o.Refs = make([]core.Address, refCount)
	m.handles[handle] = o
	return o, nil
}

// Link stores handle "to"'s object into handle "from"'s slot i through the
// collector's write barrier; an empty "to" clears the slot.
func (m *Mutator) Link(from string, i int, to string) error {
	fo, ok := m.handles[from]
	if !ok {
		return fmt.Errorf("sim: unknown handle %q", from)
	}
	if i < 0 || i >= len(fo.Refs) {
		return fmt.Errorf("sim: handle %q has no slot %d", from, i)
	}
	var toObj *gc.Object
	if to != "" {
		toObj, ok = m.handles[to]
		if !ok {
			return fmt.Errorf("sim: unknown handle %q", to)
		}
	}
	m.c.WBarrierSetField(m.tid, fo, i, toObj)
	return nil
}

// Drop removes handle from the root set. Its referent, and anything only
// it reached, becomes collectible on the next collection that scans its
// generation.
func (m *Mutator) Drop(handle string) {
	delete(m.handles, handle)
}

// Handles returns the currently rooted handle names, sorted.
func (m *Mutator) Handles() []string {
	names := make([]string, 0, len(m.handles))
	for n := range m.handles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Object returns the object bound to handle, if any. Handles are
// conservative roots, so the collector pins their referents in place:
// the returned pointer and its Addr stay valid across collections.
func (m *Mutator) Object(handle string) (*gc.Object, bool) {
	o, ok := m.handles[handle]
	return o, ok
}

// ThreadID returns the collector-assigned ID for this mutator's thread.
func (m *Mutator) ThreadID() int { return m.tid }
