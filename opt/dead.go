// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package opt

import (
	"github.com/db47h/rtlsim"
)

// DeadNodes removes operations and signals that cannot affect an output, a
// register or a memory.
//
// Liveness flows backward from outputs, registers, memory write ports and the
// reset signal. Inputs, outputs and registers are always kept.
//
type DeadNodes struct{}

// Name implements Pass.
//
func (DeadNodes) Name() string { return "dead" }

// Run implements Pass.
//
func (DeadNodes) Run(g *rtlsim.Graph) (ChangeSet, error) {
	var cs ChangeSet
	liveSig := make(map[rtlsim.SignalID]bool)
	liveOp := make(map[rtlsim.OpID]bool)

	var stack []rtlsim.SignalID
	mark := func(s rtlsim.SignalID) {
		if s != rtlsim.NoSignal && !liveSig[s] {
			liveSig[s] = true
			stack = append(stack, s)
		}
	}
	markOp := func(op rtlsim.Op) {
		liveOp[op.ID] = true
		for _, a := range op.Args {
			mark(a)
		}
	}

	for _, s := range g.Signals() {
		if s.Kind == rtlsim.KindInput || s.Kind == rtlsim.KindOutput || s.Kind == rtlsim.KindRegister {
			mark(s.ID)
		}
	}
	mark(g.Reset())
	for _, m := range g.Memories() {
		for _, w := range m.WritePorts {
			op, _ := g.Op(w)
			markOp(op)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p := g.Producer(s)
		if p == rtlsim.NoOp || liveOp[p] {
			continue
		}
		op, _ := g.Op(p)
		markOp(op)
	}

	for _, op := range g.Ops() {
		if !liveOp[op.ID] {
			if err := cs.removeOp(g, op.ID); err != nil {
				return cs, err
			}
		}
	}
	for _, s := range g.Signals() {
		if !liveSig[s.ID] {
			if err := cs.removeSignal(g, s.ID); err != nil {
				return cs, err
			}
		}
	}
	return cs, nil
}
