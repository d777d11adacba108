// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package opt provides semantics preserving graph rewrites.
//
// Each pass rewrites a validated rtlsim.Graph in place and reports what it
// changed. Passes never change the value of an output or the next value of a
// register in any cycle, for any input sequence.
//
package opt

import (
	"github.com/db47h/rtlsim"
)

// A Pass is a graph rewrite.
//
type Pass interface {
	Name() string
	Run(g *rtlsim.Graph) (ChangeSet, error)
}

// ChangeSet describes the changes made by one or more passes.
//
type ChangeSet struct {
	RemovedSignals []rtlsim.SignalID
	RemovedOps     []rtlsim.OpID
	AddedSignals   []rtlsim.SignalID
	AddedOps       []rtlsim.OpID
	// Rewritten counts operation arguments redirected to another signal.
	Rewritten int
}

// Empty returns true if c records no change.
//
func (c *ChangeSet) Empty() bool {
	return len(c.RemovedSignals) == 0 && len(c.RemovedOps) == 0 &&
		len(c.AddedSignals) == 0 && len(c.AddedOps) == 0 && c.Rewritten == 0
}

// Merge appends the changes in o to c.
//
func (c *ChangeSet) Merge(o ChangeSet) {
	c.RemovedSignals = append(c.RemovedSignals, o.RemovedSignals...)
	c.RemovedOps = append(c.RemovedOps, o.RemovedOps...)
	c.AddedSignals = append(c.AddedSignals, o.AddedSignals...)
	c.AddedOps = append(c.AddedOps, o.AddedOps...)
	c.Rewritten += o.Rewritten
}

func (c *ChangeSet) removeOp(g *rtlsim.Graph, id rtlsim.OpID) error {
	if err := g.RemoveOp(id); err != nil {
		return err
	}
	c.RemovedOps = append(c.RemovedOps, id)
	return nil
}

func (c *ChangeSet) removeSignal(g *rtlsim.Graph, id rtlsim.SignalID) error {
	if err := g.RemoveSignal(id); err != nil {
		return err
	}
	c.RemovedSignals = append(c.RemovedSignals, id)
	return nil
}

// plainWire reports whether s is a live wire, as opposed to an interface
// signal or a register.
func plainWire(g *rtlsim.Graph, s rtlsim.SignalID) bool {
	sig, ok := g.Signal(s)
	return ok && sig.Kind == rtlsim.KindWire
}
