// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"math/rand"

	"github.com/db47h/rtlsim"
	"github.com/db47h/rtlsim/rtllib"
)

// A design builds a circuit and drives its inputs.
type design struct {
	desc  string
	build func(b *rtlsim.Builder)
	// stimulus returns the input values for the given cycle.
	stimulus func(cycle int, r *rand.Rand) map[string]uint64
}

func noInputs(int, *rand.Rand) map[string]uint64 { return nil }

var designs = map[string]design{
	"and": {
		desc: "1 bit AND gate over all input combinations",
		build: func(b *rtlsim.Builder) {
			b.Output("o", b.And(b.Input(1, "a"), b.Input(1, "b")))
		},
		stimulus: func(c int, _ *rand.Rand) map[string]uint64 {
			c = 3 - c%4
			return map[string]uint64{"a": uint64(c >> 1 & 1), "b": uint64(c & 1)}
		},
	},
	"counter": {
		desc: "8 bit free running counter",
		build: func(b *rtlsim.Builder) {
			r := b.Register(8, "r")
			b.SetNext(r, rtllib.Inc(b, r))
			b.Output("o", r)
		},
		stimulus: noInputs,
	},
	"const": {
		desc: "output driven by an AND of two constants",
		build: func(b *rtlsim.Builder) {
			b.Output("o", b.And(b.Lit("1'b1"), b.Lit("1'b1")))
		},
		stimulus: noInputs,
	},
	"adder": {
		desc: "8 bit ripple carry adder with random inputs",
		build: func(b *rtlsim.Builder) {
			s, c := rtllib.AdderN(b, b.Input(8, "a"), b.Input(8, "b"), rtlsim.NoSignal)
			b.Output("sum", s)
			b.Output("carry", c)
		},
		stimulus: func(_ int, r *rand.Rand) map[string]uint64 {
			return map[string]uint64{"a": uint64(r.Intn(256)), "b": uint64(r.Intn(256))}
		},
	},
	"memory": {
		desc: "8x8 memory with one read and one write port, random accesses",
		build: func(b *rtlsim.Builder) {
			m := b.Memory(rtlsim.MemSpec{Name: "mem", Width: 8, AddrWidth: 3})
			b.Output("q", b.Read(m, b.Input(3, "raddr")))
			b.Write(m, b.Input(3, "waddr"), b.Input(8, "wdata"), b.Input(1, "we"))
		},
		stimulus: func(_ int, r *rand.Rand) map[string]uint64 {
			return map[string]uint64{
				"raddr": uint64(r.Intn(8)),
				"waddr": uint64(r.Intn(8)),
				"wdata": uint64(r.Intn(256)),
				"we":    uint64(r.Intn(2)),
			}
		},
	},
	"pc": {
		desc: "16 bit program counter with random controls",
		build: func(b *rtlsim.Builder) {
			b.Output("pc", rtllib.Counter(b, rtllib.CounterSpec{
				Name:  "count",
				Width: 16,
				Inc:   b.Input(1, "inc"),
				Load:  b.Input(1, "load"),
				In:    b.Input(16, "in"),
				Reset: b.Input(1, "reset"),
			}))
		},
		stimulus: func(_ int, r *rand.Rand) map[string]uint64 {
			ctl := r.Intn(16)
			return map[string]uint64{
				"inc":   uint64(ctl & 1),
				"load":  uint64(ctl >> 1 & ctl >> 2 & 1),
				"in":    uint64(r.Intn(1 << 16)),
				"reset": uint64(ctl >> 3 & ctl >> 2 & ctl >> 1 & 1),
			}
		},
	},
}
