package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coregc/coregc/internal/gc"
)

func newWalkCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "walk",
		Short: "Stop the world and list every tile (object or fragment) across the heap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := (*sess).c
			var walkErr error
			c.WithStoppedWorld(func() {
				walkErr = c.WalkHeap(true, func(t gc.Tile) {
					if t.Object == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tfragment\t%d\n", t.Addr, t.Size)
						return
					}
					name := "unk"
					if t.Object.Class != nil {
						name = t.Object.Class.Name
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\tgen %d\n", t.Addr, name, t.Size, t.Object.Generation())
				})
			})
			return walkErr
		},
	}
}
