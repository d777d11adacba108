// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package rtllib provides a library of reusable parts for rtlsim.
//
// Parts are plain functions that add operations to a graph through an
// rtlsim.Builder and return the resulting signals. Like the Builder methods,
// they do nothing once the Builder has failed.
//
// All gates are bitwise and accept buses of any width; both operands must have
// the same width.
//
package rtllib

import (
	"github.com/db47h/rtlsim"
)

// Nor returns a NOR gate.
//
//	Function: out = ^(a | b)
//
func Nor(b *rtlsim.Builder, x, y rtlsim.SignalID) rtlsim.SignalID {
	return b.Not(b.Or(x, y))
}

// Xnor returns a XNOR gate.
//
//	Function: out = ^(a ^ b)
//
func Xnor(b *rtlsim.Builder, x, y rtlsim.SignalID) rtlsim.SignalID {
	return b.Not(b.Xor(x, y))
}

// NandNot returns a NOT gate built from a single NAND.
//
//	Function: out = ^in
//
func NandNot(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	return b.Nand(x, x)
}

// NandAnd returns an AND gate built from NAND gates.
//
func NandAnd(b *rtlsim.Builder, x, y rtlsim.SignalID) rtlsim.SignalID {
	return NandNot(b, b.Nand(x, y))
}

// NandOr returns an OR gate built from NAND gates.
//
func NandOr(b *rtlsim.Builder, x, y rtlsim.SignalID) rtlsim.SignalID {
	return b.Nand(NandNot(b, x), NandNot(b, y))
}

// NandXor returns a XOR gate built from NAND gates.
//
func NandXor(b *rtlsim.Builder, x, y rtlsim.SignalID) rtlsim.SignalID {
	n := b.Nand(x, y)
	return b.Nand(b.Nand(x, n), b.Nand(y, n))
}

// reduce folds xs with op as a balanced tree.
func reduce(b *rtlsim.Builder, op func(x, y rtlsim.SignalID) rtlsim.SignalID, xs []rtlsim.SignalID) rtlsim.SignalID {
	switch len(xs) {
	case 0:
		return rtlsim.NoSignal
	case 1:
		return xs[0]
	}
	m := len(xs) / 2
	return op(reduce(b, op, xs[:m]), reduce(b, op, xs[m:]))
}

// AndNWay returns a N-Way AND gate.
//
//	Function: out = in[0] & in[1] & ... & in[n-1]
//
func AndNWay(b *rtlsim.Builder, xs ...rtlsim.SignalID) rtlsim.SignalID {
	return reduce(b, b.And, xs)
}

// OrNWay returns a N-Way OR gate.
//
//	Function: out = in[0] | in[1] | ... | in[n-1]
//
func OrNWay(b *rtlsim.Builder, xs ...rtlsim.SignalID) rtlsim.SignalID {
	return reduce(b, b.Or, xs)
}

// XorNWay returns a N-Way XOR gate.
//
func XorNWay(b *rtlsim.Builder, xs ...rtlsim.SignalID) rtlsim.SignalID {
	return reduce(b, b.Xor, xs)
}

// AndReduce returns 1 if all bits of x are set.
//
func AndReduce(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	return AndNWay(b, Bits(b, x)...)
}

// OrReduce returns 1 if any bit of x is set.
//
func OrReduce(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	return OrNWay(b, Bits(b, x)...)
}

// Parity returns the XOR of all bits of x.
//
func Parity(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	return XorNWay(b, Bits(b, x)...)
}
