package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregc/coregc/internal/gc"
)

func newCollectCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:       "collect minor|major",
		Short:     "Stop the world and run a minor or major collection",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"minor", "major"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var gen gc.Generation
			switch args[0] {
			case "minor":
				gen = gc.GenNursery
			case "major":
				gen = gc.GenMajor
			default:
				return fmt.Errorf("collect: unknown generation %q, want minor or major", args[0])
			}
			(*sess).c.TriggerCollection(gen)
			fmt.Fprintf(cmd.OutOrStdout(), "minor collections: %d, major collections: %d\n",
				(*sess).c.GetCollectionCount(gc.GenNursery), (*sess).c.GetCollectionCount(gc.GenMajor))
			return nil
		},
	}
}
