// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package opt

import (
	"github.com/db47h/rtlsim"
	"github.com/pkg/errors"
)

// WireElim bypasses plain assignments to wires: readers of the assigned wire
// read its source instead, and the wire is removed. Assignments to outputs are
// kept.
//
type WireElim struct{}

// Name implements Pass.
//
func (WireElim) Name() string { return "wire" }

// Run implements Pass.
//
func (WireElim) Run(g *rtlsim.Graph) (ChangeSet, error) {
	var cs ChangeSet
	subst := make(map[rtlsim.SignalID]rtlsim.SignalID)
	var bypassed []rtlsim.Op
	for _, op := range g.Ops() {
		if op.Kind == rtlsim.OpWire && plainWire(g, op.Dest) {
			subst[op.Dest] = op.Args[0]
			bypassed = append(bypassed, op)
		}
	}
	if len(bypassed) == 0 {
		return cs, nil
	}
	var err error
	if cs.Rewritten, err = g.ReplaceUses(subst); err != nil {
		return cs, errors.Wrap(err, "wire elimination")
	}
	for _, op := range bypassed {
		if err = cs.removeOp(g, op.ID); err != nil {
			return cs, err
		}
	}
	for _, op := range bypassed {
		if err = cs.removeSignal(g, op.Dest); err != nil {
			return cs, err
		}
	}
	return cs, nil
}
