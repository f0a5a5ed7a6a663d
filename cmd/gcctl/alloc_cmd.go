package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAllocCmd(sess **session) *cobra.Command {
	return &cobra.Command{
		Use:   "alloc <handle> <class> <refcount>",
		Short: "Allocate an object and bind it to a handle",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			refCount, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("refcount: %w", err)
			}
			o, err := (*sess).m.Alloc(args[0], args[1], refCount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s, %d bytes, gen %d)\n", args[0], o.Addr, args[1], o.Size, o.Generation())
			return nil
		},
	}
}
