package gc

import "github.com/coregc/coregc/internal/core"

// TriggerCollection is the full stop_world/collect/restart_world sequence
// (§4.1, §6 "Collection triggers"): the version of Collect callers
// actually invoke when they haven't already suspended the mutators
// themselves. Collect itself stays STW-agnostic so a caller orchestrating
// several collections back to back (minor overflow triggering a major)
// pays the stop-the-world cost once.
func (c *Collector) TriggerCollection(gen Generation) {
	roots := c.suspend.StopWorld()
	defer c.suspend.RestartWorld()
	c.Collect(gen, roots)
}

// WithStoppedWorld stops every registered mutator thread, runs fn, then
// restarts the world. Unlike TriggerCollection it runs no collection of
// its own: it exists for operations §6 documents as "callable only inside
// a pre-start-world profiler event" (walk_heap) where the embedding
// runtime, not the collector, owns the STW bracket.
func (c *Collector) WithStoppedWorld(fn func()) {
	c.suspend.StopWorld()
	defer c.suspend.RestartWorld()
	fn()
}

// RegisterRootWBarrier is register_root_wbarrier: a precise root whose
// writes are mandatorily barriered.
func (c *Collector) RegisterRootWBarrier(start core.Address, size int64, desc *Descriptor, read func() []core.Address, write func(int, core.Address)) (int, error) {
	return c.RegisterRoot(start, size, RootWBarrier, desc, read, write)
}
