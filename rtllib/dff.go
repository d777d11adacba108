// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtllib

import "github.com/db47h/rtlsim"

// DFF returns a clocked data flip flop.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(b *rtlsim.Builder, in rtlsim.SignalID, name string) rtlsim.SignalID {
	r := b.Register(b.Width(in), name)
	b.SetNext(r, in)
	return r
}

// LoadRegister returns a register that loads in when load is 1 and keeps its
// value otherwise.
//
//	Inputs: in[bits], load
//	Outputs: out[bits]
//	Function: if load(t-1) then out(t) = in(t-1) else out(t) = out(t-1)
//
func LoadRegister(b *rtlsim.Builder, in, load rtlsim.SignalID, name string) rtlsim.SignalID {
	r := b.Register(b.Width(in), name)
	b.SetNext(r, b.Mux(load, r, in))
	return r
}

// CounterSpec describes the control signals of a Counter. Unused controls are
// rtlsim.NoSignal. Priority is Reset, then Load, then Inc.
//
type CounterSpec struct {
	Name  string
	Width int
	Inc   rtlsim.SignalID // increment by one
	Load  rtlsim.SignalID // load In
	In    rtlsim.SignalID
	Reset rtlsim.SignalID // back to 0
}

// Counter returns a program counter.
//
//	Inputs: in[bits], inc, load, reset
//	Outputs: out[bits]
//	Function: if reset(t-1) out(t) = 0
//	          else if load(t-1) out(t) = in(t-1)
//	          else if inc(t-1) out(t) = out(t-1) + 1
//	          else out(t) = out(t-1)
//
// A counter without Inc always increments.
//
func Counter(b *rtlsim.Builder, spec CounterSpec) rtlsim.SignalID {
	r := b.Register(spec.Width, spec.Name)
	next := Inc(b, r)
	if spec.Inc != rtlsim.NoSignal {
		next = b.Mux(spec.Inc, r, next)
	}
	if spec.Load != rtlsim.NoSignal {
		next = b.Mux(spec.Load, next, spec.In)
	}
	if spec.Reset != rtlsim.NoSignal {
		next = b.Mux(spec.Reset, next, b.Const(spec.Width, 0))
	}
	b.SetNext(r, next)
	return r
}

// ShiftRegister returns a serial in, parallel out shift register of the given
// width. Bits enter at the lsb.
//
func ShiftRegister(b *rtlsim.Builder, in rtlsim.SignalID, width int, name string) rtlsim.SignalID {
	r := b.Register(width, name)
	if width == 1 {
		b.SetNext(r, in)
		return r
	}
	b.SetNext(r, b.Concat(b.Slice(r, 0, width-1), in))
	return r
}
