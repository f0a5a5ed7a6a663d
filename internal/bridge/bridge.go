// Package bridge implements the cross-runtime bridge callback (external
// collaborator (h), §4.6 step 4): bridge objects are collected by the
// gray-stack finisher and handed to a processor during the collection,
// while the world is still stopped.
package bridge

import "github.com/coregc/coregc/internal/gc"

// Processor satisfies gc.Bridge. It is a thin registry: the collector
// drives ResetData/ProcessSubgraph during the gray-stack finisher; the
// embedding runtime supplies Handler to actually act on the subgraph (e.g.
// hand it to a reference-counted host object graph for cycle collection).
type Processor struct {
	Handler func(objs []*gc.Object)

	lastSubgraph []*gc.Object
}

// NewProcessor returns a bridge processor invoking handler on each
// processed subgraph. handler may be nil, in which case ProcessSubgraph
// only records the subgraph for introspection.
func NewProcessor(handler func(objs []*gc.Object)) *Processor {
	return &Processor{Handler: handler}
}

// ResetData clears any state retained from the previous collection.
func (p *Processor) ResetData() {
	p.lastSubgraph = nil
}

// ProcessSubgraph records and, if a handler is configured, forwards the
// tentatively-reachable bridge object subgraph.
func (p *Processor) ProcessSubgraph(objs []*gc.Object) {
	p.lastSubgraph = objs
	if p.Handler != nil {
		p.Handler(objs)
	}
}

// LastSubgraph returns the most recently processed subgraph, for tests and
// introspection tooling.
func (p *Processor) LastSubgraph() []*gc.Object {
	return p.lastSubgraph
}
