// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/db47h/rtlsim"
	"github.com/db47h/rtlsim/opt"
	"github.com/db47h/rtlsim/sim"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type runOptions struct {
	*rootOptions
	cycles   int
	optimize bool
	format   string
	base     int
	workers  int
	seed     int64
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run design",
		Short: "Simulate a built-in design",
		Long: `Run builds the named design, optionally optimizes it, simulates it for the
requested number of cycles and prints the trace of its named signals.

With --format dot, the graph is written in Graphviz format instead and
nothing is simulated.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			var names []string
			for n := range designs {
				if strings.HasPrefix(n, toComplete) {
					names = append(names, n)
				}
			}
			sort.Strings(names)
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.cycles, "cycles", "n", 16, "number of cycles to simulate")
	f.BoolVarP(&opts.optimize, "optimize", "O", false, "optimize the graph before simulation")
	f.StringVarP(&opts.format, "format", "f", "table", "output format: table, compact, vcd or dot")
	f.IntVarP(&opts.base, "base", "b", 10, "numeric base of printed values: 2, 8, 10 or 16")
	f.IntVarP(&opts.workers, "workers", "w", 1, "number of goroutines evaluating the circuit")
	f.Int64Var(&opts.seed, "seed", 1, "seed of the random input generator")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, name string) error {
	d, ok := designs[name]
	if !ok {
		return errors.Errorf("unknown design %q", name)
	}
	switch o.format {
	case "table", "compact", "vcd", "dot":
	default:
		return errors.Errorf("unknown output format %q", o.format)
	}
	if o.cycles < 1 && o.format != "dot" {
		return errors.New("need to simulate at least one cycle")
	}
	log := o.logger(cmd)

	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	d.build(b)
	if err := b.Err(); err != nil {
		return errors.Wrapf(err, "build %s", name)
	}
	if err := g.Validate(); err != nil {
		return errors.Wrapf(err, "build %s", name)
	}
	log.Debug("design built", slog.String("design", name), slog.Int("signals", g.NumSignals()), slog.Int("ops", g.NumOps()))

	if o.optimize {
		cs, err := opt.Optimize(g, opt.WithLogger(log))
		if err != nil {
			return errors.Wrap(err, "optimize")
		}
		log.Info("optimized",
			slog.Int("removed_ops", len(cs.RemovedOps)),
			slog.Int("removed_signals", len(cs.RemovedSignals)),
			slog.Int("ops", g.NumOps()))
	}

	out := cmd.OutOrStdout()
	if o.format == "dot" {
		return g.Dot(out)
	}

	s, err := sim.New(g, sim.Options{Workers: o.workers, Logger: log})
	if err != nil {
		return err
	}
	r := rand.New(rand.NewSource(o.seed))
	start := time.Now()
	for c := 0; c < o.cycles; c++ {
		if _, err = s.StepNamed(d.stimulus(c, r)); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	log.Info("simulation done",
		slog.String("design", name),
		slog.Int("cycles", s.Cycle()),
		slog.Duration("elapsed", elapsed))

	if o.format == "vcd" {
		return s.Trace().WriteVCD(out)
	}
	return s.Trace().Print(out, sim.PrintOptions{Base: o.base, Compact: o.format == "compact"})
}
