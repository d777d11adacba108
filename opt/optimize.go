// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package opt

import (
	"io"
	"log/slog"

	"github.com/db47h/rtlsim"
	"github.com/pkg/errors"
)

// DefaultPasses returns the default optimization pipeline.
//
func DefaultPasses() []Pass {
	return []Pass{ConstProp{}, WireElim{}, CSE{}, DeadNodes{}}
}

type config struct {
	passes []Pass
	log    *slog.Logger
}

// An Option configures Optimize.
//
type Option func(c *config)

// WithPasses replaces the default pipeline.
//
func WithPasses(ps ...Pass) Option {
	return func(c *config) { c.passes = ps }
}

// WithLogger sets the logger used to report per pass statistics at debug
// level.
//
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

func newConfig(opts []Option) *config {
	c := &config{passes: DefaultPasses()}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Optimize validates g then rewrites it in place with the configured passes
// until none of them changes anything. It returns the accumulated changes.
//
// Optimizing an already optimized graph returns an empty ChangeSet.
//
func Optimize(g *rtlsim.Graph, opts ...Option) (ChangeSet, error) {
	if err := g.Validate(); err != nil {
		return ChangeSet{}, err
	}
	c := newConfig(opts)
	return run(g, c.log, c.passes)
}

// Optimized returns an optimized copy of g. g is left untouched.
//
func Optimized(g *rtlsim.Graph, opts ...Option) (*rtlsim.Graph, ChangeSet, error) {
	c := g.Clone()
	cs, err := Optimize(c, opts...)
	if err != nil {
		return nil, cs, err
	}
	return c, cs, nil
}

// Run runs passes over g until none of them changes anything. Unlike
// Optimize, it does not validate g first.
//
func Run(g *rtlsim.Graph, passes ...Pass) (ChangeSet, error) {
	return run(g, newConfig(nil).log, passes)
}

func run(g *rtlsim.Graph, log *slog.Logger, passes []Pass) (ChangeSet, error) {
	var total ChangeSet
	for round := 1; ; round++ {
		changed := false
		for _, p := range passes {
			cs, err := p.Run(g)
			total.Merge(cs)
			if err != nil {
				return total, errors.Wrapf(err, "pass %s", p.Name())
			}
			if cs.Empty() {
				continue
			}
			changed = true
			log.Debug("optimizer pass",
				slog.Int("round", round),
				slog.String("pass", p.Name()),
				slog.Int("removed_ops", len(cs.RemovedOps)),
				slog.Int("removed_signals", len(cs.RemovedSignals)),
				slog.Int("added_signals", len(cs.AddedSignals)),
				slog.Int("rewritten", cs.Rewritten))
		}
		if !changed {
			log.Debug("optimizer done",
				slog.Int("rounds", round),
				slog.Int("ops", g.NumOps()),
				slog.Int("signals", g.NumSignals()))
			return total, nil
		}
	}
}
