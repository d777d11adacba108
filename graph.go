// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"strconv"

	"github.com/holiman/uint256"
)

type signal struct {
	Signal
	removed  bool
	producer OpID
	value    uint256.Int  // constants
	reset    *uint256.Int // registers
}

type node struct {
	Op
	removed bool
}

// RegisterPolicy selects the power-on value of registers that have neither a
// reset value nor an explicit initial value at simulation time.
//
type RegisterPolicy int

// Register policies.
//
const (
	// RegisterZero initializes registers to zero.
	RegisterZero RegisterPolicy = iota
	// RegisterMustInit makes simulation fail with an UninitializedRegister
	// error.
	RegisterMustInit
)

// An Option configures a Graph.
//
type Option func(g *Graph)

// WithRegisterPolicy sets the default register initialization policy.
//
func WithRegisterPolicy(p RegisterPolicy) Option {
	return func(g *Graph) { g.policy = p }
}

// Graph is a circuit graph. It owns all signals, operation nodes and memories
// of a design.
//
// Signals and operation nodes live in arenas indexed by SignalID and OpID.
// Removed entries leave a tombstone so that identifiers held by user code
// remain valid (or reliably invalid) across optimization passes.
//
// A Graph is not safe for concurrent mutation.
//
type Graph struct {
	sigs   []signal
	ops    []node
	mems   []*Memory
	names  map[string]SignalID
	policy RegisterPolicy
	reset  SignalID
}

// NewGraph returns a new empty graph.
//
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		names: make(map[string]SignalID),
		reset: NoSignal,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Policy returns the register initialization policy.
//
func (g *Graph) Policy() RegisterPolicy { return g.policy }

func (g *Graph) live(id SignalID) bool {
	return id >= 0 && int(id) < len(g.sigs) && !g.sigs[id].removed
}

func (g *Graph) liveOp(id OpID) bool {
	return id >= 0 && int(id) < len(g.ops) && !g.ops[id].removed
}

func (g *Graph) newName(id SignalID) string {
	n := "tmp" + strconv.Itoa(int(id))
	for {
		if _, ok := g.names[n]; !ok {
			return n
		}
		n += "_"
	}
}

// AddSignal adds a new signal of the given width and kind. If name is empty,
// a unique temporary name is generated. A temporary signal whose name is later
// requested by the user is renamed. Constants must be created with AddConst
// or AddConstValue.
//
func (g *Graph) AddSignal(width int, kind SignalKind, name string) (SignalID, error) {
	if width < 1 || width > MaxWidth {
		return NoSignal, structErr(InvalidWidth, NoOp, NoSignal, "signal %q: width %d out of range [1, %d]", name, width, MaxWidth)
	}
	if kind > KindConst {
		return NoSignal, structErr(InvalidKind, NoOp, NoSignal, "signal %q: unknown kind %v", name, kind)
	}
	if kind == KindConst {
		return NoSignal, structErr(InvalidKind, NoOp, NoSignal, "signal %q: constants need a value", name)
	}
	return g.addSignal(width, kind, name)
}

func (g *Graph) addSignal(width int, kind SignalKind, name string) (SignalID, error) {
	id := SignalID(len(g.sigs))
	temp := false
	if name == "" {
		name = g.newName(id)
		temp = true
	} else if old, ok := g.names[name]; ok {
		if !g.sigs[old].Temp {
			return NoSignal, structErr(DuplicateName, NoOp, NoSignal, "signal name %q already in use", name)
		}
		// automatic names yield to user names
		n := g.newName(old)
		g.sigs[old].Name = n
		g.names[n] = old
	}
	g.sigs = append(g.sigs, signal{
		Signal:   Signal{ID: id, Name: name, Width: width, Kind: kind, Temp: temp},
		producer: NoOp,
	})
	g.names[name] = id
	return id, nil
}

// AddConst adds a constant signal.
//
func (g *Graph) AddConst(width int, v uint64, name string) (SignalID, error) {
	return g.AddConstValue(width, uint256.NewInt(v), name)
}

// AddConstValue adds a constant signal with a wide value.
//
func (g *Graph) AddConstValue(width int, v *uint256.Int, name string) (SignalID, error) {
	if width < 1 || width > MaxWidth {
		return NoSignal, structErr(InvalidWidth, NoOp, NoSignal, "constant %q: width %d out of range [1, %d]", name, width, MaxWidth)
	}
	if !Fits(v, width) {
		return NoSignal, structErr(TypeMismatch, NoOp, NoSignal, "constant %s does not fit in %d bits", v.Hex(), width)
	}
	id, err := g.addSignal(width, KindConst, name)
	if err != nil {
		return NoSignal, err
	}
	g.sigs[id].value = *v
	return id, nil
}

// AddOperation adds an operation node driving dest from args. Bitwidth rules
// are checked for the given kind and a *StructuralError of kind TypeMismatch
// is returned on mismatch.
//
// Memory write ports have no destination and must pass NoSignal as dest.
//
func (g *Graph) AddOperation(kind OpKind, args []SignalID, dest SignalID, p Param) (OpID, error) {
	if kind >= opCount {
		return NoOp, structErr(InvalidKind, NoOp, dest, "unknown operation kind %d", int(kind))
	}
	for _, a := range args {
		if !g.live(a) {
			return NoOp, structErr(DanglingReference, NoOp, a, "%v: argument %v does not exist", kind, a)
		}
	}
	if kind == OpMemWrite {
		if dest != NoSignal {
			return NoOp, structErr(InvalidDriver, NoOp, dest, "memory write ports have no destination")
		}
	} else {
		if !g.live(dest) {
			return NoOp, structErr(DanglingReference, NoOp, dest, "%v: destination %v does not exist", kind, dest)
		}
		d := &g.sigs[dest]
		if !d.Kind.driven() {
			return NoOp, structErr(InvalidDriver, NoOp, dest, "%v: cannot drive %v %q", kind, d.Kind, d.Name)
		}
		if (d.Kind == KindRegister) != (kind == OpReg) {
			return NoOp, structErr(InvalidDriver, NoOp, dest, "%v: cannot drive %v %q", kind, d.Kind, d.Name)
		}
		if d.producer != NoOp {
			return NoOp, structErr(DuplicateDriver, d.producer, dest, "%q is already driven by %v", d.Name, d.producer)
		}
	}
	var mem *Memory
	if kind == OpMemRead || kind == OpMemWrite {
		m, ok := g.mem(p.Mem)
		if !ok {
			return NoOp, structErr(DanglingReference, NoOp, dest, "%v: memory %v does not exist", kind, p.Mem)
		}
		mem = m
	}
	if err := g.checkWidths(kind, args, dest, p, mem); err != nil {
		return NoOp, err
	}

	id := OpID(len(g.ops))
	o := Op{ID: id, Kind: kind, Args: append([]SignalID(nil), args...), Dest: dest, Mem: NoMem}
	if kind == OpSelect {
		o.Bits = append([]int(nil), p.Bits...)
	}
	switch kind {
	case OpMemRead:
		o.Mem = p.Mem
		mem.ReadPorts = append(mem.ReadPorts, id)
	case OpMemWrite:
		o.Mem = p.Mem
		mem.WritePorts = append(mem.WritePorts, id)
	}
	g.ops = append(g.ops, node{Op: o})
	if dest != NoSignal {
		g.sigs[dest].producer = id
	}
	return id, nil
}

// Signal returns the signal with the given id. It returns false if the id is
// invalid or if the signal has been removed.
//
func (g *Graph) Signal(id SignalID) (Signal, bool) {
	if !g.live(id) {
		return Signal{}, false
	}
	return g.sigs[id].Signal, true
}

// Op returns the operation node with the given id.
//
func (g *Graph) Op(id OpID) (Op, bool) {
	if !g.liveOp(id) {
		return Op{}, false
	}
	return g.ops[id].copy(), true
}

func (n *node) copy() Op {
	o := n.Op
	o.Args = append([]SignalID(nil), o.Args...)
	if o.Bits != nil {
		o.Bits = append([]int(nil), o.Bits...)
	}
	return o
}

// Width returns the width of signal id, or 0 if it does not exist.
//
func (g *Graph) Width(id SignalID) int {
	if !g.live(id) {
		return 0
	}
	return g.sigs[id].Width
}

// ByName returns the signal with the given name.
//
func (g *Graph) ByName(name string) (SignalID, bool) {
	id, ok := g.names[name]
	return id, ok
}

// Signals returns all live signals in creation order.
//
func (g *Graph) Signals() []Signal {
	r := make([]Signal, 0, len(g.sigs))
	for i := range g.sigs {
		if !g.sigs[i].removed {
			r = append(r, g.sigs[i].Signal)
		}
	}
	return r
}

// Ops returns all live operation nodes in creation order.
//
func (g *Graph) Ops() []Op {
	r := make([]Op, 0, len(g.ops))
	for i := range g.ops {
		if !g.ops[i].removed {
			r = append(r, g.ops[i].copy())
		}
	}
	return r
}

func (g *Graph) ofKind(k SignalKind) []SignalID {
	var r []SignalID
	for i := range g.sigs {
		if s := &g.sigs[i]; !s.removed && s.Kind == k {
			r = append(r, s.ID)
		}
	}
	return r
}

// Inputs returns the circuit inputs in creation order.
//
func (g *Graph) Inputs() []SignalID { return g.ofKind(KindInput) }

// Outputs returns the circuit outputs in creation order.
//
func (g *Graph) Outputs() []SignalID { return g.ofKind(KindOutput) }

// Registers returns the register signals in creation order.
//
func (g *Graph) Registers() []SignalID { return g.ofKind(KindRegister) }

// NumSignals returns the number of live signals.
//
func (g *Graph) NumSignals() int {
	n := 0
	for i := range g.sigs {
		if !g.sigs[i].removed {
			n++
		}
	}
	return n
}

// NumOps returns the number of live operation nodes.
//
func (g *Graph) NumOps() int {
	n := 0
	for i := range g.ops {
		if !g.ops[i].removed {
			n++
		}
	}
	return n
}

// Producer returns the operation driving id, or NoOp.
//
func (g *Graph) Producer(id SignalID) OpID {
	if !g.live(id) {
		return NoOp
	}
	return g.sigs[id].producer
}

// Consumers returns the live operations reading id, in creation order.
//
func (g *Graph) Consumers(id SignalID) []OpID {
	var r []OpID
	for i := range g.ops {
		n := &g.ops[i]
		if n.removed {
			continue
		}
		for _, a := range n.Args {
			if a == id {
				r = append(r, n.ID)
				break
			}
		}
	}
	return r
}

// ConstValue returns the value of a constant signal.
//
func (g *Graph) ConstValue(id SignalID) (uint256.Int, bool) {
	if !g.live(id) || g.sigs[id].Kind != KindConst {
		return uint256.Int{}, false
	}
	return g.sigs[id].value, true
}

// IsConst returns true if id is a live constant.
//
func (g *Graph) IsConst(id SignalID) bool {
	return g.live(id) && g.sigs[id].Kind == KindConst
}

// SetRegisterReset sets the reset value of register r.
//
func (g *Graph) SetRegisterReset(r SignalID, v uint64) error {
	return g.SetRegisterResetValue(r, uint256.NewInt(v))
}

// SetRegisterResetValue sets a wide reset value for register r. The reset
// value is loaded at power-on and whenever the graph's reset signal is set.
//
func (g *Graph) SetRegisterResetValue(r SignalID, v *uint256.Int) error {
	if !g.live(r) || g.sigs[r].Kind != KindRegister {
		return structErr(InvalidKind, NoOp, r, "%v is not a register", r)
	}
	if !Fits(v, g.sigs[r].Width) {
		return structErr(TypeMismatch, NoOp, r, "reset value %s does not fit in %d bits", v.Hex(), g.sigs[r].Width)
	}
	rv := *v
	g.sigs[r].reset = &rv
	return nil
}

// RegisterReset returns the reset value of register r, if any.
//
func (g *Graph) RegisterReset(r SignalID) (uint256.Int, bool) {
	if !g.live(r) || g.sigs[r].reset == nil {
		return uint256.Int{}, false
	}
	return *g.sigs[r].reset, true
}

// SetReset designates a 1 bit input as the synchronous reset of the design.
// While it is set, registers with a reset value load that value instead of
// their next value.
//
func (g *Graph) SetReset(in SignalID) error {
	if !g.live(in) || g.sigs[in].Kind != KindInput {
		return structErr(InvalidKind, NoOp, in, "reset %v is not an input", in)
	}
	if g.sigs[in].Width != 1 {
		return structErr(TypeMismatch, NoOp, in, "reset %q must be 1 bit wide", g.sigs[in].Name)
	}
	g.reset = in
	return nil
}

// Reset returns the reset signal or NoSignal.
//
func (g *Graph) Reset() SignalID { return g.reset }

// RemoveOp removes an operation node. Its destination becomes undriven.
//
func (g *Graph) RemoveOp(id OpID) error {
	if !g.liveOp(id) {
		return structErr(DanglingReference, id, NoSignal, "%v does not exist", id)
	}
	n := &g.ops[id]
	n.removed = true
	if n.Dest != NoSignal {
		g.sigs[n.Dest].producer = NoOp
	}
	if n.Kind == OpMemRead || n.Kind == OpMemWrite {
		g.mems[n.Mem].removePort(id)
	}
	return nil
}

// RemoveSignal removes a signal that has neither producer nor consumers.
// Inputs, outputs and registers make up the circuit interface and state and
// cannot be removed.
//
func (g *Graph) RemoveSignal(id SignalID) error {
	if !g.live(id) {
		return structErr(DanglingReference, NoOp, id, "%v does not exist", id)
	}
	s := &g.sigs[id]
	if s.Kind != KindWire && s.Kind != KindConst {
		return structErr(InvalidKind, NoOp, id, "cannot remove %v %q", s.Kind, s.Name)
	}
	if s.producer != NoOp {
		return structErr(InUse, s.producer, id, "%q is driven by %v", s.Name, s.producer)
	}
	if cs := g.Consumers(id); len(cs) > 0 {
		return structErr(InUse, cs[0], id, "%q is read by %v", s.Name, cs[0])
	}
	s.removed = true
	delete(g.names, s.Name)
	return nil
}

// ReplaceUses rewrites the arguments of every live operation according to
// subst: every read of a key signal becomes a read of its value. Chains are
// followed. Replacement signals must have the same width as the signal they
// replace. ReplaceUses returns the number of rewritten arguments.
//
func (g *Graph) ReplaceUses(subst map[SignalID]SignalID) (int, error) {
	for from, to := range subst {
		if !g.live(from) {
			return 0, structErr(DanglingReference, NoOp, from, "%v does not exist", from)
		}
		if !g.live(to) {
			return 0, structErr(DanglingReference, NoOp, to, "%v does not exist", to)
		}
		if g.sigs[from].Width != g.sigs[to].Width {
			return 0, structErr(TypeMismatch, NoOp, from, "cannot replace %q (%d bits) with %q (%d bits)",
				g.sigs[from].Name, g.sigs[from].Width, g.sigs[to].Name, g.sigs[to].Width)
		}
	}
	resolve := func(s SignalID) SignalID {
		for i := 0; i <= len(subst); i++ {
			t, ok := subst[s]
			if !ok || t == s {
				return s
			}
			s = t
		}
		panic("ReplaceUses: substitution loop")
	}
	n := 0
	for i := range g.ops {
		o := &g.ops[i]
		if o.removed {
			continue
		}
		for j, a := range o.Args {
			if r := resolve(a); r != a {
				o.Args[j] = r
				n++
			}
		}
	}
	return n, nil
}

// MakeConst turns an undriven wire into a constant with value v.
//
func (g *Graph) MakeConst(id SignalID, v *uint256.Int) error {
	if !g.live(id) {
		return structErr(DanglingReference, NoOp, id, "%v does not exist", id)
	}
	s := &g.sigs[id]
	if s.Kind != KindWire {
		return structErr(InvalidKind, NoOp, id, "cannot turn %v %q into a constant", s.Kind, s.Name)
	}
	if s.producer != NoOp {
		return structErr(InUse, s.producer, id, "%q is driven by %v", s.Name, s.producer)
	}
	if !Fits(v, s.Width) {
		return structErr(TypeMismatch, NoOp, id, "constant %s does not fit in %d bits", v.Hex(), s.Width)
	}
	s.Kind = KindConst
	s.value = *v
	return nil
}

// Clone returns a deep copy of g. Identifiers are preserved.
//
func (g *Graph) Clone() *Graph {
	c := &Graph{
		sigs:   make([]signal, len(g.sigs)),
		ops:    make([]node, len(g.ops)),
		mems:   make([]*Memory, len(g.mems)),
		names:  make(map[string]SignalID, len(g.names)),
		policy: g.policy,
		reset:  g.reset,
	}
	copy(c.sigs, g.sigs)
	for i := range c.sigs {
		if r := c.sigs[i].reset; r != nil {
			rv := *r
			c.sigs[i].reset = &rv
		}
	}
	for i := range g.ops {
		c.ops[i] = node{Op: g.ops[i].copy(), removed: g.ops[i].removed}
	}
	for i, m := range g.mems {
		mc := m.copy()
		c.mems[i] = &mc
	}
	for k, v := range g.names {
		c.names[k] = v
	}
	return c
}
