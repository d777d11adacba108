// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtllib

import (
	"github.com/db47h/rtlsim"
)

// Bits splits x into 1 bit signals. Bit 0 is lsb.
//
func Bits(b *rtlsim.Builder, x rtlsim.SignalID) []rtlsim.SignalID {
	w := b.Width(x)
	if w <= 0 {
		return nil
	}
	if w == 1 {
		return []rtlsim.SignalID{x}
	}
	bits := make([]rtlsim.SignalID, w)
	for i := range bits {
		bits[i] = b.Bit(x, i)
	}
	return bits
}

// Bus concatenates 1 bit signals into a bus. bits[0] is lsb.
//
func Bus(b *rtlsim.Builder, bits ...rtlsim.SignalID) rtlsim.SignalID {
	if len(bits) == 1 {
		return bits[0]
	}
	msbFirst := make([]rtlsim.SignalID, len(bits))
	for i, s := range bits {
		msbFirst[len(bits)-1-i] = s
	}
	return b.Concat(msbFirst...)
}

// Replicate returns a bus made of n copies of the 1 bit signal bit.
//
func Replicate(b *rtlsim.Builder, bit rtlsim.SignalID, n int) rtlsim.SignalID {
	bits := make([]int, n)
	return b.Select(bit, bits...)
}

// Reverse returns x with its bits in reverse order.
//
func Reverse(b *rtlsim.Builder, x rtlsim.SignalID) rtlsim.SignalID {
	w := b.Width(x)
	bits := make([]int, w)
	for i := range bits {
		bits[i] = w - 1 - i
	}
	return b.Select(x, bits...)
}

// Uint64 returns the value of bits taken from a cycle result, bits[0] being
// lsb.
//
func Uint64(r interface {
	Uint64(rtlsim.SignalID) uint64
}, bits []rtlsim.SignalID) uint64 {
	var out uint64
	for i, s := range bits {
		out |= (r.Uint64(s) & 1) << uint(i)
	}
	return out
}
