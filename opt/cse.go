// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package opt

import (
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/rtlsim"
	"github.com/pkg/errors"
)

// CSE merges structurally identical operations.
//
// Two operations are identical if they have the same kind, parameters and
// arguments. Constant arguments compare by width and value. Arguments of
// commutative operations are compared regardless of their order. Only
// operations driving plain wires are merged away; readers of the dropped wire
// are redirected to the surviving one.
//
// Register updates and memory writes are never merged.
//
type CSE struct{}

// Name implements Pass.
//
func (CSE) Name() string { return "cse" }

func commutative(k rtlsim.OpKind) bool {
	switch k {
	case rtlsim.OpAnd, rtlsim.OpOr, rtlsim.OpXor, rtlsim.OpNand, rtlsim.OpAdd, rtlsim.OpMul, rtlsim.OpEq:
		return true
	}
	return false
}

// Run implements Pass.
//
func (CSE) Run(g *rtlsim.Graph) (ChangeSet, error) {
	var cs ChangeSet
	order, err := g.CombinationalOrder()
	if err != nil {
		return cs, err
	}
	seen := make(map[string]rtlsim.SignalID)
	subst := make(map[rtlsim.SignalID]rtlsim.SignalID)
	var merged []rtlsim.Op
	resolve := func(s rtlsim.SignalID) rtlsim.SignalID {
		if r, ok := subst[s]; ok {
			return r
		}
		return s
	}

	for _, id := range order {
		op, _ := g.Op(id)
		k := opKey(g, op, resolve)
		rep, ok := seen[k]
		if !ok {
			seen[k] = op.Dest
			continue
		}
		if plainWire(g, op.Dest) && g.Width(rep) == g.Width(op.Dest) {
			subst[op.Dest] = rep
			merged = append(merged, op)
		}
	}
	if len(merged) == 0 {
		return cs, nil
	}
	if cs.Rewritten, err = g.ReplaceUses(subst); err != nil {
		return cs, errors.Wrap(err, "cse")
	}
	for _, op := range merged {
		if err = cs.removeOp(g, op.ID); err != nil {
			return cs, err
		}
		if err = cs.removeSignal(g, op.Dest); err != nil {
			return cs, err
		}
	}
	return cs, nil
}

func opKey(g *rtlsim.Graph, op rtlsim.Op, resolve func(rtlsim.SignalID) rtlsim.SignalID) string {
	args := make([]string, len(op.Args))
	for i, a := range op.Args {
		a = resolve(a)
		if v, ok := g.ConstValue(a); ok {
			args[i] = "c" + strconv.Itoa(g.Width(a)) + ":" + v.Hex()
		} else {
			args[i] = a.String()
		}
	}
	if commutative(op.Kind) {
		sort.Strings(args)
	}
	var sb strings.Builder
	sb.WriteString(op.Kind.String())
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(g.Width(op.Dest)))
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(a)
	}
	if op.Kind == rtlsim.OpSelect {
		for _, b := range op.Bits {
			sb.WriteString(" b")
			sb.WriteString(strconv.Itoa(b))
		}
	}
	if op.Kind == rtlsim.OpMemRead {
		sb.WriteString(" ")
		sb.WriteString(op.Mem.String())
	}
	return sb.String()
}
