package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// newShellCmd starts an interactive REPL over the same subcommands
// registered on the root command, so "alloc a Node 2" at the shell prompt
// and "gcctl alloc a Node 2" on the command line run identically against
// one long-lived session.
func newShellCmd(sess **session, cfgStr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive prompt for repeated alloc/link/collect/stats commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(*cfgStr)
			if err != nil {
				return err
			}
			*sess = s

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "gcctl> ",
				HistoryFile:     "",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("gcctl: shell: %w", err)
			}
			defer rl.Close()

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				runShellLine(cmd, *sess, line)
			}
		},
	}
}

// runShellLine dispatches one REPL line to a fresh root command sharing
// this shell's session, the way the top-level gcctl dispatches os.Args.
func runShellLine(parent *cobra.Command, sess *session, line string) {
	held := sess
	sc := &session{c: held.c, m: held.m}
	root := newShellRoot(&sc)
	root.SetArgs(strings.Fields(line))
	root.SetOut(parent.OutOrStdout())
	root.SetErr(parent.ErrOrStderr())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(parent.ErrOrStderr(), err)
	}
}

// newShellRoot builds a bare command tree (no persistent "--config"/
// PersistentPreRunE) reusing the same subcommand constructors as main,
// bound to the shell's already-running session.
func newShellRoot(sess **session) *cobra.Command {
	root := &cobra.Command{Use: "gcctl", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		newAllocCmd(sess),
		newLinkCmd(sess),
		newDropCmd(sess),
		newHandlesCmd(sess),
		newCollectCmd(sess),
		newStatsCmd(sess),
		newWalkCmd(sess),
		newObjgraphCmd(sess),
	)
	return root
}
