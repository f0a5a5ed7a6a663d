package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coregc/coregc/internal/gc"
)

// newObjgraphCmd mirrors viewcore's objgraph command: dump the live object
// graph as a dot file, one node per object plus one hexagon per rooted
// handle, for exploring it with graphviz.
func newObjgraphCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "objgraph <file.dot>",
		Short: "Dump the live object graph to a dot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, m := (*sess).c, (*sess).m
			w, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Fprintln(w, "digraph {")
			for _, h := range m.Handles() {
				o, _ := m.Object(h)
				fmt.Fprintf(w, "r_%s [label=%q,shape=hexagon]\n", h, h)
				fmt.Fprintf(w, "r_%s -> o%x\n", h, uintptr(o.Addr))
			}

			var walkErr error
			c.WithStoppedWorld(func() {
				walkErr = c.WalkHeap(true, func(t gc.Tile) {
					if t.Object == nil {
						return
					}
					name := "unk"
					if t.Object.Class != nil {
						name = t.Object.Class.Name
					}
					fmt.Fprintf(w, "o%x [label=\"%s\\n%d\"]\n", uintptr(t.Addr), name, t.Size)
					for i, ref := range t.Object.Refs {
						if ref == 0 {
							continue
						}
						fmt.Fprintf(w, "o%x -> o%x [label=\"[%d]\"]\n", uintptr(t.Addr), uintptr(ref), i)
					}
				})
			})
			if walkErr != nil {
				return walkErr
			}
			fmt.Fprintln(w, "}")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
}
