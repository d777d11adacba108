// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"github.com/holiman/uint256"
)

// MaxWidth is the widest signal a graph can hold.
//
const MaxWidth = 256

// MaxAddrWidth is the widest memory address.
//
const MaxAddrWidth = 64

var masks [MaxWidth + 1]uint256.Int

func init() {
	for w := 1; w <= MaxWidth; w++ {
		masks[w].SetAllOne()
		masks[w].Rsh(&masks[w], uint(MaxWidth-w))
	}
}

// Mask returns 2^width - 1.
//
func Mask(width int) *uint256.Int {
	return &masks[width]
}

// Fits returns true if v can be represented in width bits.
//
func Fits(v *uint256.Int, width int) bool {
	return v.BitLen() <= width
}

// Truncate clears all bits of v above width and returns v.
//
func Truncate(v *uint256.Int, width int) *uint256.Int {
	return v.And(v, &masks[width])
}

// bit returns bit n of v.
func bit(v *uint256.Int, n int) uint64 {
	return (v[n/64] >> uint(n%64)) & 1
}

func setBit(v *uint256.Int, n int) {
	v[n/64] |= 1 << uint(n%64)
}

func bool2val(dst *uint256.Int, b bool) {
	if b {
		dst.SetOne()
	} else {
		dst.Clear()
	}
}

// Apply computes the combinational operation kind over args and stores the
// result, truncated to width bits, in dst. widths holds the declared width of
// each argument and bits the Select indices.
//
// Apply is the only definition of operator semantics: the optimizer folds
// constants with it and the simulator evaluates nodes with it.
//
// Apply panics if kind is a delay operation (Reg, MemWrite) or MemRead.
//
func Apply(dst *uint256.Int, kind OpKind, bits []int, args []*uint256.Int, widths []int, width int) {
	var r uint256.Int
	switch kind {
	case OpWire:
		r.Set(args[0])
	case OpNot:
		r.Not(args[0])
	case OpAnd:
		r.And(args[0], args[1])
	case OpOr:
		r.Or(args[0], args[1])
	case OpXor:
		r.Xor(args[0], args[1])
	case OpNand:
		r.And(args[0], args[1])
		r.Not(&r)
	case OpAdd:
		r.Add(args[0], args[1])
	case OpSub:
		r.Sub(args[0], args[1])
	case OpMul:
		r.Mul(args[0], args[1])
	case OpEq:
		bool2val(&r, args[0].Eq(args[1]))
	case OpLt:
		bool2val(&r, args[0].Lt(args[1]))
	case OpGt:
		bool2val(&r, args[0].Gt(args[1]))
	case OpConcat:
		for i, a := range args {
			if widths[i] < MaxWidth {
				r.Lsh(&r, uint(widths[i]))
			} else {
				r.Clear()
			}
			r.Or(&r, a)
		}
	case OpSelect:
		for i, b := range bits {
			if bit(args[0], b) != 0 {
				setBit(&r, i)
			}
		}
	case OpMux:
		if args[0].IsZero() {
			r.Set(args[1])
		} else {
			r.Set(args[2])
		}
	default:
		panic("Apply: not a combinational operation: " + kind.String())
	}
	dst.And(&r, &masks[width])
}
