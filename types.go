// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

// arity of each operation kind. -1 means at least one argument.
var arity = [...]int{
	OpWire:     1,
	OpNot:      1,
	OpAnd:      2,
	OpOr:       2,
	OpXor:      2,
	OpNand:     2,
	OpAdd:      2,
	OpSub:      2,
	OpMul:      2,
	OpEq:       2,
	OpLt:       2,
	OpGt:       2,
	OpConcat:   -1,
	OpSelect:   1,
	OpMux:      3,
	OpReg:      1,
	OpMemRead:  1,
	OpMemWrite: 3,
}

func (g *Graph) checkWidths(kind OpKind, args []SignalID, dest SignalID, p Param, mem *Memory) error {
	switch n := arity[kind]; {
	case n < 0 && len(args) == 0:
		return structErr(TypeMismatch, NoOp, dest, "%v needs at least one argument", kind)
	case n >= 0 && len(args) != n:
		return structErr(TypeMismatch, NoOp, dest, "%v takes %d arguments, got %d", kind, n, len(args))
	}
	w := func(i int) int { return g.sigs[args[i]].Width }
	dw := 0
	if dest != NoSignal {
		dw = g.sigs[dest].Width
	}
	mismatch := func(format string, a ...interface{}) error {
		return structErr(TypeMismatch, NoOp, dest, kind.String()+": "+format, a...)
	}

	switch kind {
	case OpWire, OpNot, OpReg:
		if w(0) != dw {
			return mismatch("argument width %d != destination width %d", w(0), dw)
		}
	case OpAnd, OpOr, OpXor, OpNand:
		if w(0) != w(1) {
			return mismatch("operand widths differ: %d and %d", w(0), w(1))
		}
		if w(0) != dw {
			return mismatch("operand width %d != destination width %d", w(0), dw)
		}
	case OpAdd, OpSub, OpMul:
		// the destination width is the caller's choice; results wrap.
		if w(0) != w(1) {
			return mismatch("operand widths differ: %d and %d", w(0), w(1))
		}
	case OpEq, OpLt, OpGt:
		if w(0) != w(1) {
			return mismatch("operand widths differ: %d and %d", w(0), w(1))
		}
		if dw != 1 {
			return mismatch("destination must be 1 bit wide, got %d", dw)
		}
	case OpConcat:
		sum := 0
		for i := range args {
			sum += w(i)
		}
		if sum != dw {
			return mismatch("sum of argument widths %d != destination width %d", sum, dw)
		}
	case OpSelect:
		if len(p.Bits) != dw {
			return mismatch("%d bits selected for a %d bits destination", len(p.Bits), dw)
		}
		for _, b := range p.Bits {
			if b < 0 || b >= w(0) {
				return mismatch("bit index %d out of range [0, %d)", b, w(0))
			}
		}
	case OpMux:
		if w(0) != 1 {
			return mismatch("selector must be 1 bit wide, got %d", w(0))
		}
		if w(1) != w(2) {
			return mismatch("data widths differ: %d and %d", w(1), w(2))
		}
		if w(1) != dw {
			return mismatch("data width %d != destination width %d", w(1), dw)
		}
	case OpMemRead:
		if w(0) != mem.AddrWidth {
			return mismatch("memory %q: address width %d != %d", mem.Name, w(0), mem.AddrWidth)
		}
		if dw != mem.Width {
			return mismatch("memory %q: destination width %d != %d", mem.Name, dw, mem.Width)
		}
		if mem.MaxReadPorts > 0 && len(mem.ReadPorts) >= mem.MaxReadPorts {
			return structErr(PortLimit, NoOp, dest, "memory %q: maximum number of read ports (%d) exceeded", mem.Name, mem.MaxReadPorts)
		}
	case OpMemWrite:
		if mem.IsROM() {
			return structErr(ReadOnly, NoOp, NoSignal, "memory %q is read-only", mem.Name)
		}
		if w(0) != mem.AddrWidth {
			return mismatch("memory %q: address width %d != %d", mem.Name, w(0), mem.AddrWidth)
		}
		if w(1) != mem.Width {
			return mismatch("memory %q: data width %d != %d", mem.Name, w(1), mem.Width)
		}
		if w(2) != 1 {
			return mismatch("memory %q: enable must be 1 bit wide, got %d", mem.Name, w(2))
		}
		if mem.MaxWritePorts > 0 && len(mem.WritePorts) >= mem.MaxWritePorts {
			return structErr(PortLimit, NoOp, NoSignal, "memory %q: maximum number of write ports (%d) exceeded", mem.Name, mem.MaxWritePorts)
		}
	}
	return nil
}
