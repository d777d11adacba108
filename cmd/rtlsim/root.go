// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	lvl := slog.LevelInfo
	if o.verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "rtlsim",
		Short: "Cycle accurate RTL simulator",
		Long: `rtlsim builds one of its example designs as a register transfer level
graph, optionally optimizes it, and simulates it cycle by cycle.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug information to stderr")
	root.AddCommand(newListCmd(), newRunCmd(opts))
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in designs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(designs))
			for n := range designs {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", n, designs[n].desc); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
