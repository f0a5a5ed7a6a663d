package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newLinkCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "link <from> <slot> [to]",
		Short: "Store handle [to] (or nil, if omitted) into from's slot through the write barrier",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("slot: %w", err)
			}
			to := ""
			if len(args) == 3 {
				to = args[2]
			}
			return (*sess).m.Link(args[0], slot, to)
		},
	}
}

func newDropCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <handle>",
		Short: "Remove handle from the root set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			(*sess).m.Drop(args[0])
			return nil
		},
	}
}

func newHandlesCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "handles",
		Short: "List currently rooted handles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, h := range (*sess).m.Handles() {
				o, _ := (*sess).m.Object(h)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tgen %d\n", h, o.Addr, o.Generation())
			}
			return nil
		},
	}
}
