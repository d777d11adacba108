// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package opt

import (
	"github.com/db47h/rtlsim"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ConstProp folds operations whose arguments are all constants.
//
// The destination of a folded operation becomes a constant if it is a plain
// wire. Outputs are driven by a wire from a new constant instead, since the
// circuit interface must not change. Folding repeats until no operation with
// only constant arguments is left.
//
// Register next values, memory reads and memory writes are never folded.
//
type ConstProp struct{}

// Name implements Pass.
//
func (ConstProp) Name() string { return "constprop" }

type constKey struct {
	width int
	v     uint256.Int
}

// Run implements Pass.
//
func (ConstProp) Run(g *rtlsim.Graph) (ChangeSet, error) {
	var cs ChangeSet
	consts := make(map[constKey]rtlsim.SignalID)
	var (
		args   []*uint256.Int
		widths []int
	)
	for changed := true; changed; {
		changed = false
		for _, op := range g.Ops() {
			if !op.Kind.IsCombinational() || !allConst(g, op.Args) {
				continue
			}
			dest, _ := g.Signal(op.Dest)
			if op.Kind == rtlsim.OpWire && dest.Kind == rtlsim.KindOutput {
				// already folded
				continue
			}
			args, widths = args[:0], widths[:0]
			for _, a := range op.Args {
				v, _ := g.ConstValue(a)
				args = append(args, &v)
				widths = append(widths, g.Width(a))
			}
			var v uint256.Int
			rtlsim.Apply(&v, op.Kind, op.Bits, args, widths, dest.Width)

			if err := cs.removeOp(g, op.ID); err != nil {
				return cs, err
			}
			changed = true
			if dest.Kind == rtlsim.KindWire {
				if err := g.MakeConst(dest.ID, &v); err != nil {
					return cs, errors.Wrapf(err, "fold %v", op.ID)
				}
				continue
			}
			k := constKey{dest.Width, v}
			c, ok := consts[k]
			if !ok {
				var err error
				if c, err = g.AddConstValue(dest.Width, &v, ""); err != nil {
					return cs, errors.Wrapf(err, "fold %v", op.ID)
				}
				consts[k] = c
				cs.AddedSignals = append(cs.AddedSignals, c)
			}
			id, err := g.AddOperation(rtlsim.OpWire, []rtlsim.SignalID{c}, dest.ID, rtlsim.Param{})
			if err != nil {
				return cs, errors.Wrapf(err, "fold %v", op.ID)
			}
			cs.AddedOps = append(cs.AddedOps, id)
		}
	}
	return cs, nil
}

func allConst(g *rtlsim.Graph, args []rtlsim.SignalID) bool {
	for _, a := range args {
		if !g.IsConst(a) {
			return false
		}
	}
	return true
}
