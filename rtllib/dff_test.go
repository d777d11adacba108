// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtllib_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/rtlsim"
	rl "github.com/db47h/rtlsim/rtllib"
	"github.com/db47h/rtlsim/rtltest"
	"github.com/db47h/rtlsim/sim"
)

func TestDFF(t *testing.T) {
	g := chip(t, func(b *rtlsim.Builder) {
		b.Output("out", rl.DFF(b, b.Input(4, "in"), "dff"))
	})
	s, err := sim.New(g, sim.Options{})
	if err != nil {
		t.Fatal(err)
	}
	out, _ := g.ByName("out")
	var prev uint64
	for i := 15; i >= 0; i-- {
		r, err := s.StepNamed(map[string]uint64{"in": uint64(i)})
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Uint64(out); got != prev {
			t.Fatalf("bad output for input %d: expected out = %d, got %d", i, prev, got)
		}
		prev = uint64(i)
	}

	// four 1 bit flip flops behave like a 4 bits one
	dff4 := chip(t, func(b *rtlsim.Builder) {
		in := rl.Bits(b, b.Input(4, "in"))
		outs := make([]rtlsim.SignalID, len(in))
		for i := range in {
			outs[i] = rl.DFF(b, in[i], "")
		}
		b.Output("out", rl.Bus(b, outs...))
	})
	rtltest.CompareGraphs(t, g, dff4, 100)
}

func Test_bit_register(t *testing.T) {
	g := chip(t, func(b *rtlsim.Builder) {
		b.Output("out", rl.LoadRegister(b, b.Input(8, "in"), b.Input(1, "load"), "r"))
	})
	s, err := sim.New(g, sim.Options{})
	if err != nil {
		t.Fatal(err)
	}
	out, _ := g.ByName("out")
	rnd := rand.New(rand.NewSource(7))
	var state uint64
	for i := 0; i < 200; i++ {
		in, load := uint64(rnd.Intn(256)), uint64(rnd.Intn(2))
		r, err := s.StepNamed(map[string]uint64{"in": in, "load": load})
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Uint64(out); got != state {
			t.Fatalf("cycle %d: expected out = %d, got %d", i, state, got)
		}
		if load == 1 {
			state = in
		}
	}
}

func TestCounter(t *testing.T) {
	g := chip(t, func(b *rtlsim.Builder) {
		b.Output("out", rl.Counter(b, rl.CounterSpec{
			Name:  "pc",
			Width: 16,
			Inc:   b.Input(1, "inc"),
			Load:  b.Input(1, "load"),
			In:    b.Input(16, "in"),
			Reset: b.Input(1, "reset"),
		}))
	})
	s, err := sim.New(g, sim.Options{})
	if err != nil {
		t.Fatal(err)
	}
	out, _ := g.ByName("out")
	td := []struct {
		in, inc, load, reset uint64
		out                  uint64
	}{
		{0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 1, 0, 0, 1},
		{1234, 1, 1, 0, 2},
		{0, 1, 0, 0, 1234},
		{0, 0, 0, 0, 1235},
		{0, 1, 1, 1, 1235},
		{0xffff, 0, 1, 0, 0},
		{0, 1, 0, 0, 0xffff},
		{0, 0, 0, 0, 0},
	}
	for i, d := range td {
		r, err := s.StepNamed(map[string]uint64{"in": d.in, "inc": d.inc, "load": d.load, "reset": d.reset})
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Uint64(out); got != d.out {
			t.Fatalf("cycle %d: expected out = %d, got %d", i, d.out, got)
		}
	}
}

func TestCounter_free(t *testing.T) {
	g := chip(t, func(b *rtlsim.Builder) {
		b.Output("out", rl.Counter(b, rl.CounterSpec{
			Name:  "c",
			Width: 8,
			Inc:   rtlsim.NoSignal,
			Load:  rtlsim.NoSignal,
			Reset: rtlsim.NoSignal,
		}))
	})
	s, err := sim.New(g, sim.Options{})
	if err != nil {
		t.Fatal(err)
	}
	c, _ := g.ByName("c")
	for i := 0; i < 300; i++ {
		if _, err = s.Step(nil); err != nil {
			t.Fatal(err)
		}
	}
	if v, _ := s.RegisterValue(c); v.Uint64() != 44 {
		t.Fatalf("expected 44, got %d", v.Uint64())
	}
}

func TestShiftRegister(t *testing.T) {
	g := chip(t, func(b *rtlsim.Builder) {
		b.Output("out", rl.ShiftRegister(b, b.Input(1, "in"), 8, "sr"))
	})
	s, err := sim.New(g, sim.Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []uint64{1, 0, 1, 1, 0, 0, 0, 1} {
		if _, err = s.StepNamed(map[string]uint64{"in": v}); err != nil {
			t.Fatal(err)
		}
	}
	sr, _ := g.ByName("sr")
	if v, _ := s.RegisterValue(sr); v.Uint64() != 0xb1 {
		t.Fatalf("expected 0xb1, got %#x", v.Uint64())
	}
}
