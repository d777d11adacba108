// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtllib

import (
	"github.com/db47h/rtlsim"
)

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(b *rtlsim.Builder, in, sel rtlsim.SignalID) (x, y rtlsim.SignalID) {
	zero := b.Const(b.Width(in), 0)
	return b.Mux(sel, in, zero), b.Mux(sel, zero, in)
}

// MuxN returns a multiplexer with len(xs) inputs. Selector values past the
// last input select the last input. Inputs that the selector cannot address
// are ignored.
//
//	Inputs: in[n][bits], sel[k]
//	Outputs: out[bits]
//	Function: out = in[sel]
//
func MuxN(b *rtlsim.Builder, sel rtlsim.SignalID, xs ...rtlsim.SignalID) rtlsim.SignalID {
	sb := Bits(b, sel)
	if b.Err() != nil {
		return rtlsim.NoSignal
	}
	if len(sb) > maxSelBits && len(xs) > 0 {
		high := OrNWay(b, sb[maxSelBits:]...)
		return b.Mux(high, muxTree(b, sb[:maxSelBits], xs), xs[len(xs)-1])
	}
	return muxTree(b, sb, xs)
}

const maxSelBits = 16

func muxTree(b *rtlsim.Builder, sel []rtlsim.SignalID, xs []rtlsim.SignalID) rtlsim.SignalID {
	if len(xs) == 1 {
		return xs[0]
	}
	if len(sel) == 0 {
		return xs[0]
	}
	msb := sel[len(sel)-1]
	half := 1 << uint(len(sel)-1)
	if len(xs) <= half {
		return b.Mux(msb, muxTree(b, sel[:len(sel)-1], xs), xs[len(xs)-1])
	}
	return b.Mux(msb, muxTree(b, sel[:len(sel)-1], xs[:half]), muxTree(b, sel[:len(sel)-1], xs[half:]))
}

// DMuxN returns a demultiplexer with 1<<width(sel) outputs. sel must be at
// most 16 bits wide.
//
//	Inputs: in[bits], sel[k]
//	Outputs: out[1<<k][bits]
//	Function: out[sel] = in, other outputs are 0
//
func DMuxN(b *rtlsim.Builder, in, sel rtlsim.SignalID) []rtlsim.SignalID {
	w := b.Width(sel)
	if b.Err() != nil || w <= 0 || w > maxSelBits {
		return nil
	}
	zero := b.Const(b.Width(in), 0)
	outs := make([]rtlsim.SignalID, 1<<uint(w))
	for i := range outs {
		hit := b.Eq(sel, b.Const(w, uint64(i)))
		outs[i] = b.Mux(hit, zero, in)
	}
	return outs
}

// Decoder returns a one-hot bus with bit sel set.
//
func Decoder(b *rtlsim.Builder, sel rtlsim.SignalID) rtlsim.SignalID {
	return Bus(b, DMuxN(b, b.Const(1, 1), sel)...)
}
