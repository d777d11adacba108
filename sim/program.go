// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sim provides a cycle based simulator for rtlsim graphs.
//
// A graph is first compiled into a Program: a dense, immutable evaluation
// plan. Any number of Simulations can then be created from a Program, each
// with its own register and memory state:
//
//	p, err := sim.Compile(g)
//	if err != nil {
//		// handle error
//	}
//	s, err := p.New(sim.Options{})
//	if err != nil {
//		// handle error
//	}
//	r, err := s.StepNamed(map[string]uint64{"a": 1, "b": 0})
//
// Each cycle binds the inputs, evaluates combinational logic in dependency
// order and then commits registers and memory writes. Combinational logic
// never observes state written during the same cycle.
//
package sim

import (
	"github.com/db47h/rtlsim"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// opDesc is an operation with its operands resolved to value slots.
type opDesc struct {
	op     rtlsim.Op
	args   []int
	widths []int
	dest   int
	width  int
	mem    int // index in Program.mems
}

type regDesc struct {
	id    rtlsim.SignalID
	slot  int
	next  int
	reset *uint256.Int
}

type writeDesc struct {
	mem            int
	addr, data, en int
}

type memDesc struct {
	rtlsim.Memory
	writes []int // writeDesc indexes in port order
}

// Program is a compiled graph. It is immutable and safe to share between
// simulations.
//
type Program struct {
	sigs  []rtlsim.Signal // by slot
	slots map[rtlsim.SignalID]int
	names map[string]rtlsim.SignalID

	consts []int         // const slots
	cvals  []uint256.Int // const values
	order  []opDesc      // combinational ops in evaluation order
	levels [][]int       // indexes in order, by dependency depth

	regs   []regDesc
	writes []writeDesc
	mems   []memDesc
	inputs []int
	reset  int
	policy rtlsim.RegisterPolicy
	trace  []rtlsim.SignalID
}

// Compile validates g and compiles it into a Program. A combinational loop is
// reported as a *SimulationError of kind CombinationalCycle wrapping the
// *rtlsim.StructuralError.
//
// The Program does not reference g after Compile returns.
//
func Compile(g *rtlsim.Graph) (*Program, error) {
	if err := g.Validate(); err != nil {
		if rtlsim.IsKind(err, rtlsim.CombinationalCycle) {
			return nil, errors.WithStack(&SimulationError{
				Kind:   CombinationalCycle,
				Signal: rtlsim.NoSignal,
				Err:    err,
			})
		}
		return nil, err
	}
	order, err := g.CombinationalOrder()
	if err != nil {
		return nil, err
	}

	p := &Program{
		slots:  make(map[rtlsim.SignalID]int),
		reset:  -1,
		policy: g.Policy(),
		names:  make(map[string]rtlsim.SignalID),
	}
	for _, s := range g.Signals() {
		slot := len(p.sigs)
		p.slots[s.ID] = slot
		p.sigs = append(p.sigs, s)
		p.names[s.Name] = s.ID
		switch s.Kind {
		case rtlsim.KindConst:
			v, _ := g.ConstValue(s.ID)
			p.consts = append(p.consts, slot)
			p.cvals = append(p.cvals, v)
		case rtlsim.KindInput:
			p.inputs = append(p.inputs, slot)
		case rtlsim.KindRegister:
			r := regDesc{id: s.ID, slot: slot}
			if v, ok := g.RegisterReset(s.ID); ok {
				r.reset = &v
			}
			p.regs = append(p.regs, r)
		}
		if !s.Temp && s.Kind != rtlsim.KindConst {
			p.trace = append(p.trace, s.ID)
		}
	}
	if r := g.Reset(); r != rtlsim.NoSignal {
		p.reset = p.slots[r]
	}

	memIdx := make(map[rtlsim.MemID]int)
	for _, m := range g.Memories() {
		memIdx[m.ID] = len(p.mems)
		p.mems = append(p.mems, memDesc{Memory: m})
	}

	// registers and write ports
	regIdx := make(map[rtlsim.SignalID]int, len(p.regs))
	for i := range p.regs {
		regIdx[p.regs[i].id] = i
	}
	for _, op := range g.Ops() {
		switch op.Kind {
		case rtlsim.OpReg:
			p.regs[regIdx[op.Dest]].next = p.slots[op.Args[0]]
		case rtlsim.OpMemWrite:
			m := memIdx[op.Mem]
			p.mems[m].writes = append(p.mems[m].writes, len(p.writes))
			p.writes = append(p.writes, writeDesc{
				mem:  m,
				addr: p.slots[op.Args[0]],
				data: p.slots[op.Args[1]],
				en:   p.slots[op.Args[2]],
			})
		}
	}

	// combinational ops and their dependency depth
	pos := make(map[rtlsim.OpID]int, len(order))
	depth := make([]int, len(order))
	for i, id := range order {
		op, _ := g.Op(id)
		d := opDesc{op: op, dest: p.slots[op.Dest], width: g.Width(op.Dest), mem: -1}
		for _, a := range op.Args {
			d.args = append(d.args, p.slots[a])
			d.widths = append(d.widths, g.Width(a))
		}
		if op.Kind == rtlsim.OpMemRead {
			d.mem = memIdx[op.Mem]
		}
		for _, dep := range g.CombinationalDeps(id) {
			if depth[pos[dep]]+1 > depth[i] {
				depth[i] = depth[pos[dep]] + 1
			}
		}
		pos[id] = i
		if depth[i] == len(p.levels) {
			p.levels = append(p.levels, nil)
		}
		p.levels[depth[i]] = append(p.levels[depth[i]], i)
		p.order = append(p.order, d)
	}
	return p, nil
}

// Signals returns the signals of the compiled graph.
//
func (p *Program) Signals() []rtlsim.Signal { return p.sigs }

// Lookup returns the signal with the given name.
//
func (p *Program) Lookup(name string) (rtlsim.Signal, bool) {
	id, ok := p.names[name]
	if !ok {
		return rtlsim.Signal{}, false
	}
	return p.sigs[p.slots[id]], true
}

// NumLevels returns the depth of the combinational logic.
//
func (p *Program) NumLevels() int { return len(p.levels) }

func (p *Program) signal(id rtlsim.SignalID) (rtlsim.Signal, int, bool) {
	slot, ok := p.slots[id]
	if !ok {
		return rtlsim.Signal{}, -1, false
	}
	return p.sigs[slot], slot, true
}
