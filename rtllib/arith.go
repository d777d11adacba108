// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtllib

import (
	"github.com/db47h/rtlsim"
)

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(b *rtlsim.Builder, x, y rtlsim.SignalID) (s, c rtlsim.SignalID) {
	return b.Xor(x, y), b.And(x, y)
}

// FullAdder returns a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(b *rtlsim.Builder, x, y, cin rtlsim.SignalID) (s, cout rtlsim.SignalID) {
	s0, c0 := HalfAdder(b, x, y)
	s, c1 := HalfAdder(b, s0, cin)
	return s, b.Or(c0, c1)
}

// AdderN returns a ripple carry adder built from full adders. x and y must
// have the same width. If cin is rtlsim.NoSignal, the carry in is 0.
//
//	Inputs: a[bits], b[bits], cin
//	Outputs: out[bits], c
//
func AdderN(b *rtlsim.Builder, x, y, cin rtlsim.SignalID) (sum, cout rtlsim.SignalID) {
	// width check
	b.Xor(x, y)
	if b.Err() != nil {
		return rtlsim.NoSignal, rtlsim.NoSignal
	}
	xs, ys := Bits(b, x), Bits(b, y)
	c := cin
	if c == rtlsim.NoSignal {
		c = b.Const(1, 0)
	}
	out := make([]rtlsim.SignalID, len(xs))
	for i := range xs {
		out[i], c = FullAdder(b, xs[i], ys[i], c)
	}
	return Bus(b, out...), c
}

// Inc returns x + 1, truncated to the width of x.
//
func Inc(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	return b.Add(x, b.Const(b.Width(x), 1), b.Width(x))
}

// Negate returns the two's complement of x.
//
func Negate(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	return Inc(b, b.Not(x))
}
