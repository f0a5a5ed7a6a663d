// Command gcctl drives a coregc collector interactively: allocate and link
// synthetic objects, trigger collections, and inspect the resulting heap.
// There is no core file to attach to the way viewcore attaches to one;
// gcctl grows its own small mutator (internal/sim) and lets the operator
// drive it one command at a time, by flag or from the "shell" REPL.
//
// Run "gcctl help" for the command tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coregc/coregc"
	"github.com/coregc/coregc/internal/config"
	"github.com/coregc/coregc/internal/gc"
	"github.com/coregc/coregc/internal/sim"
)

// session bundles a running collector and its single mutator thread; every
// subcommand operates against the one held by the root command.
type session struct {
	c *gc.Collector
	m *sim.Mutator
}

func newSession(cfgStr string) (*session, error) {
	cfg, err := config.Parse(cfgStr)
	if err != nil {
		return nil, err
	}
	c, err := coregc.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	return &session{c: c, m: sim.New(c)}, nil
}

func main() {
	var cfgStr string

	root := &cobra.Command{
		Use:   "gcctl",
		Short: "Drive a coregc collector by hand",
		Long: `gcctl builds a coregc collector from a key=value config string and a
single synthetic mutator thread, then lets you allocate objects, link them
together, trigger minor/major collections, and walk the resulting heap.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgStr, "config", "", "comma-separated key=value collector config (see internal/config)")

	var sess *session
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cfgStr)
		if err != nil {
			return fmt.Errorf("gcctl: %w", err)
		}
		sess = s
		return nil
	}

	root.AddCommand(
		newAllocCmd(&sess),
		newLinkCmd(&sess),
		newDropCmd(&sess),
		newHandlesCmd(&sess),
		newCollectCmd(&sess),
		newStatsCmd(&sess),
		newWalkCmd(&sess),
		newObjgraphCmd(&sess),
		newShellCmd(&sess, &cfgStr),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
