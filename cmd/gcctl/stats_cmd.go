package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coregc/coregc/internal/gc"
)

func newStatsCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print used/heap size, collection counts and allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := (*sess).c
			t := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', 0)
			fmt.Fprintf(t, "used\t%d\n", c.GetUsedSize())
			fmt.Fprintf(t, "heap\t%d\n", c.GetHeapSize())
			fmt.Fprintf(t, "allowance\t%d\n", c.Allowance())
			fmt.Fprintf(t, "minor collections\t%d\n", c.GetCollectionCount(gc.GenNursery))
			fmt.Fprintf(t, "major collections\t%d\n", c.GetCollectionCount(gc.GenMajor))
			fmt.Fprintf(t, "degraded mode\t%v\n", c.IsDegradedMode())
			return t.Flush()
		},
	}
}
