// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"github.com/db47h/rtlsim/internal/lit"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// A Builder provides a compact API to build graphs. Errors are sticky: after
// the first failure, all methods are no-ops returning NoSignal, and Err
// returns the first error.
//
// An Xor gate could be built like this:
//
//	g := rtlsim.NewGraph()
//	b := rtlsim.NewBuilder(g)
//	a, c := b.Input(1, "a"), b.Input(1, "b")
//	b.Output("out", b.Or(b.And(a, b.Not(c)), b.And(b.Not(a), c)))
//	if err := b.Err(); err != nil {
//		// handle error
//	}
//
type Builder struct {
	g   *Graph
	err error
}

// NewBuilder returns a new Builder for g.
//
func NewBuilder(g *Graph) *Builder {
	return &Builder{g: g}
}

// Graph returns the graph being built.
//
func (b *Builder) Graph() *Graph { return b.g }

// Err returns the first error encountered by b.
//
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error, context string) {
	if b.err == nil {
		b.err = errors.Wrap(err, context)
	}
}

// Width returns the width of s or 0 if s is invalid.
//
func (b *Builder) Width(s SignalID) int { return b.g.Width(s) }

func (b *Builder) signal(width int, kind SignalKind, name string) SignalID {
	if b.err != nil {
		return NoSignal
	}
	id, err := b.g.AddSignal(width, kind, name)
	if err != nil {
		b.fail(err, "new "+kind.String())
	}
	return id
}

// Input declares a circuit input.
//
func (b *Builder) Input(width int, name string) SignalID {
	return b.signal(width, KindInput, name)
}

// Wire declares an undriven wire, to be driven later with Assign.
//
func (b *Builder) Wire(width int, name string) SignalID {
	return b.signal(width, KindWire, name)
}

// Register declares a register. Its next value is set with SetNext.
//
func (b *Builder) Register(width int, name string) SignalID {
	return b.signal(width, KindRegister, name)
}

// RegisterReset declares a register with a reset value.
//
func (b *Builder) RegisterReset(width int, name string, reset uint64) SignalID {
	r := b.signal(width, KindRegister, name)
	if b.err == nil {
		if err := b.g.SetRegisterReset(r, reset); err != nil {
			b.fail(err, "register "+name)
			return NoSignal
		}
	}
	return r
}

// Const returns a new constant.
//
func (b *Builder) Const(width int, v uint64) SignalID {
	if b.err != nil {
		return NoSignal
	}
	id, err := b.g.AddConst(width, v, "")
	if err != nil {
		b.fail(err, "const")
	}
	return id
}

// ConstValue returns a new wide constant.
//
func (b *Builder) ConstValue(width int, v *uint256.Int) SignalID {
	if b.err != nil {
		return NoSignal
	}
	id, err := b.g.AddConstValue(width, v, "")
	if err != nil {
		b.fail(err, "const")
	}
	return id
}

// Lit returns a constant from a Verilog style literal like "8'hff", "3'b101"
// or "42". Literals without an explicit width get the minimum width that holds
// their value.
//
func (b *Builder) Lit(s string) SignalID {
	if b.err != nil {
		return NoSignal
	}
	v, w, err := lit.Parse(s)
	if err != nil {
		b.fail(err, "literal")
		return NoSignal
	}
	return b.ConstValue(w, &v)
}

func (b *Builder) op(kind OpKind, width int, p Param, args ...SignalID) SignalID {
	if b.err != nil {
		return NoSignal
	}
	d, err := b.g.AddSignal(width, KindWire, "")
	if err != nil {
		b.fail(err, kind.String())
		return NoSignal
	}
	if _, err = b.g.AddOperation(kind, args, d, p); err != nil {
		// d has neither producer nor consumers yet.
		_ = b.g.RemoveSignal(d)
		b.fail(err, kind.String())
		return NoSignal
	}
	return d
}

// Assign drives dst (a wire or output) with src.
//
func (b *Builder) Assign(dst, src SignalID) {
	if b.err != nil {
		return
	}
	if _, err := b.g.AddOperation(OpWire, []SignalID{src}, dst, Param{}); err != nil {
		b.fail(err, "assign")
	}
}

// Output declares an output driven by src.
//
func (b *Builder) Output(name string, src SignalID) SignalID {
	o := b.signal(b.Width(src), KindOutput, name)
	b.Assign(o, src)
	if b.err != nil {
		return NoSignal
	}
	return o
}

// SetNext sets the value that register r takes on the next cycle.
//
func (b *Builder) SetNext(r, next SignalID) {
	if b.err != nil {
		return
	}
	if _, err := b.g.AddOperation(OpReg, []SignalID{next}, r, Param{}); err != nil {
		b.fail(err, "register next")
	}
}

// Not returns ^x.
//
func (b *Builder) Not(x SignalID) SignalID { return b.op(OpNot, b.Width(x), Param{}, x) }

// And returns x & y.
//
func (b *Builder) And(x, y SignalID) SignalID { return b.op(OpAnd, b.Width(x), Param{}, x, y) }

// Or returns x | y.
//
func (b *Builder) Or(x, y SignalID) SignalID { return b.op(OpOr, b.Width(x), Param{}, x, y) }

// Xor returns x ^ y.
//
func (b *Builder) Xor(x, y SignalID) SignalID { return b.op(OpXor, b.Width(x), Param{}, x, y) }

// Nand returns ^(x & y).
//
func (b *Builder) Nand(x, y SignalID) SignalID { return b.op(OpNand, b.Width(x), Param{}, x, y) }

// Add returns (x + y) mod 2^width.
//
func (b *Builder) Add(x, y SignalID, width int) SignalID {
	return b.op(OpAdd, width, Param{}, x, y)
}

// Sub returns (x - y) mod 2^width.
//
func (b *Builder) Sub(x, y SignalID, width int) SignalID {
	return b.op(OpSub, width, Param{}, x, y)
}

// Mul returns (x * y) mod 2^width.
//
func (b *Builder) Mul(x, y SignalID, width int) SignalID {
	return b.op(OpMul, width, Param{}, x, y)
}

// Eq returns x == y as a 1 bit signal.
//
func (b *Builder) Eq(x, y SignalID) SignalID { return b.op(OpEq, 1, Param{}, x, y) }

// Lt returns x < y as a 1 bit signal.
//
func (b *Builder) Lt(x, y SignalID) SignalID { return b.op(OpLt, 1, Param{}, x, y) }

// Gt returns x > y as a 1 bit signal.
//
func (b *Builder) Gt(x, y SignalID) SignalID { return b.op(OpGt, 1, Param{}, x, y) }

// Concat concatenates xs, xs[0] being the most significant part.
//
func (b *Builder) Concat(xs ...SignalID) SignalID {
	w := 0
	for _, x := range xs {
		w += b.Width(x)
	}
	return b.op(OpConcat, w, Param{}, xs...)
}

// Select returns a signal whose bit i is bit bits[i] of x.
//
func (b *Builder) Select(x SignalID, bits ...int) SignalID {
	return b.op(OpSelect, len(bits), Param{Bits: bits}, x)
}

// Bit returns bit n of x.
//
func (b *Builder) Bit(x SignalID, n int) SignalID { return b.Select(x, n) }

// Slice returns bits [lo, hi) of x.
//
func (b *Builder) Slice(x SignalID, lo, hi int) SignalID {
	if b.err != nil {
		return NoSignal
	}
	if hi < lo {
		b.fail(structErr(TypeMismatch, NoOp, x, "bad slice [%d, %d)", lo, hi), "slice")
		return NoSignal
	}
	bits := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		bits = append(bits, i)
	}
	return b.Select(x, bits...)
}

// ZeroExtend widens x to width bits. It returns x unchanged if it is already
// width bits wide.
//
func (b *Builder) ZeroExtend(x SignalID, width int) SignalID {
	w := b.Width(x)
	if b.err != nil || w == width {
		return x
	}
	if w > width {
		b.fail(structErr(TypeMismatch, NoOp, x, "cannot zero-extend %d bits to %d", w, width), "zero extend")
		return NoSignal
	}
	return b.Concat(b.Const(width-w, 0), x)
}

// Truncate keeps the width least significant bits of x.
//
func (b *Builder) Truncate(x SignalID, width int) SignalID {
	if b.err == nil && b.Width(x) == width {
		return x
	}
	return b.Slice(x, 0, width)
}

// Mux returns a when sel is 0, c otherwise.
//
func (b *Builder) Mux(sel, a, c SignalID) SignalID {
	return b.op(OpMux, b.Width(a), Param{}, sel, a, c)
}

// Memory adds a memory block.
//
func (b *Builder) Memory(spec MemSpec) MemID {
	if b.err != nil {
		return NoMem
	}
	m, err := b.g.AddMemory(spec)
	if err != nil {
		b.fail(err, "memory")
	}
	return m
}

// ROM adds a read-only memory holding data. Reading past the end of data
// halts the simulation; use Memory with PadWithZeros set to read zeros instead.
//
func (b *Builder) ROM(name string, width, addrWidth int, data ...uint64) MemID {
	rom := make([]uint256.Int, len(data))
	for i, v := range data {
		rom[i].SetUint64(v)
	}
	return b.Memory(MemSpec{Name: name, Width: width, AddrWidth: addrWidth, ROM: rom})
}

// Read adds a read port on memory m.
//
func (b *Builder) Read(m MemID, addr SignalID) SignalID {
	if b.err != nil {
		return NoSignal
	}
	mem, ok := b.g.mem(m)
	if !ok {
		b.fail(structErr(DanglingReference, NoOp, NoSignal, "memory %v does not exist", m), "read")
		return NoSignal
	}
	return b.op(OpMemRead, mem.Width, Param{Mem: m}, addr)
}

// Write adds a write port on memory m. The write happens at the end of the
// cycle if enable is 1.
//
func (b *Builder) Write(m MemID, addr, data, enable SignalID) {
	if b.err != nil {
		return
	}
	if _, err := b.g.AddOperation(OpMemWrite, []SignalID{addr, data, enable}, NoSignal, Param{Mem: m}); err != nil {
		b.fail(err, "write")
	}
}
