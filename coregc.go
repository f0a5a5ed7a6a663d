// Package coregc wires the collector's pluggable collaborators together
// from a parsed Config, the way gocore.Core(p, flags) assembles a process
// snapshot from its constituent readers in the teacher this module grew
// out of.
package coregc

import (
	"fmt"

	"github.com/coregc/coregc/internal/bridge"
	"github.com/coregc/coregc/internal/core"
	"github.com/coregc/coregc/internal/gc"
	"github.com/coregc/coregc/internal/major"
	"github.com/coregc/coregc/internal/nursery"
	"github.com/coregc/coregc/internal/remset"
	"github.com/coregc/coregc/internal/suspend"
	"github.com/coregc/coregc/internal/workerpool"
)

// nurseryBase is the synthetic address the nursery section starts at; the
// old generation's sections are mapped independently by the major
// collector (real anonymous mmap'd memory where available).
const nurseryBase = core.Address(0x100_0000)

// New assembles a *gc.Collector from cfg: picks the major-collector and
// remset variants the config keys select, sizes the nursery, and builds a
// worker pool and bridge processor. bridgeHandler may be nil.
func New(cfg *gc.Config, bridgeHandler func([]*gc.Object)) (*gc.Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nu := nursery.New(nurseryBase, cfg.NurserySize)

	maj, err := newMajorCollector(cfg)
	if err != nil {
		return nil, err
	}

	var rs gc.Remset
	switch cfg.WBarrier {
	case "cardtable":
		if !maj.SupportsCardTable() {
			return nil, fmt.Errorf("coregc: major collector %q does not support a card table", cfg.Major)
		}
		rs = remset.NewCardTable(nurseryBase, cfg.MaxHeapSize)
	case "remset", "":
		rs = remset.NewSSB()
	default:
		return nil, fmt.Errorf("coregc: unknown wbarrier %q", cfg.WBarrier)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	pool := workerpool.New(workers)
	susp := suspend.New()
	br := bridge.NewProcessor(bridgeHandler)

	return gc.New(cfg, nu, maj, rs, susp, pool, br), nil
}

func newMajorCollector(cfg *gc.Config) (gc.MajorCollector, error) {
	sectionSize := cfg.NurserySize
	switch cfg.Major {
	case "marksweep", "marksweep-fixed", "":
		return major.NewMarkSweep(sectionSize, false), nil
	case "marksweep-par", "marksweep-fixed-par":
		return major.NewMarkSweep(sectionSize, true), nil
	case "copying":
		return major.NewCopying(sectionSize, false), nil
	default:
		return nil, fmt.Errorf("coregc: unknown major collector %q", cfg.Major)
	}
}
