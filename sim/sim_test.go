// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim_test

import (
	"math/rand"
	"strings"
	"testing"
	"testing/quick"

	"github.com/db47h/rtlsim"
	"github.com/db47h/rtlsim/sim"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// build returns a new graph built by f.
func build(t *testing.T, f func(b *rtlsim.Builder), opts ...rtlsim.Option) *rtlsim.Graph {
	t.Helper()
	g := rtlsim.NewGraph(opts...)
	b := rtlsim.NewBuilder(g)
	f(b)
	if err := b.Err(); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return g
}

func newSim(t *testing.T, g *rtlsim.Graph, opts sim.Options) *sim.Simulation {
	t.Helper()
	s, err := sim.New(g, opts)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return s
}

func id(t *testing.T, g *rtlsim.Graph, name string) rtlsim.SignalID {
	t.Helper()
	s, ok := g.ByName(name)
	if !ok {
		t.Fatalf("no signal named %q", name)
	}
	return s
}

func printTrace(t *testing.T, s *sim.Simulation, opts sim.PrintOptions) string {
	t.Helper()
	var sb strings.Builder
	if err := s.Trace().Print(&sb, opts); err != nil {
		t.Fatal(err)
	}
	return sb.String()
}

func TestSim_and(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		b.Output("o", b.And(b.Input(1, "a"), b.Input(1, "b")))
	})
	s := newSim(t, g, sim.Options{})
	o := id(t, g, "o")
	td := []struct{ a, b, o uint64 }{{1, 1, 1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 0}}
	for i, d := range td {
		r, err := s.StepNamed(map[string]uint64{"a": d.a, "b": d.b})
		if err != nil {
			t.Fatal(err)
		}
		if r.Cycle != i {
			t.Fatalf("cycle %d reported as %d", i, r.Cycle)
		}
		if got := r.Uint64(o); got != d.o {
			t.Errorf("%d & %d = %d, expected %d", d.a, d.b, got, d.o)
		}
	}
	if got := s.Trace().Uint64s(o); len(got) != 4 || got[0] != 1 || got[1]|got[2]|got[3] != 0 {
		t.Fatalf("bad trace: %v", got)
	}
}

func counter(b *rtlsim.Builder) {
	r := b.Register(8, "r")
	b.SetNext(r, b.Add(r, b.Const(8, 1), 8))
	b.Output("o", r)
}

func TestSim_counter(t *testing.T) {
	g := build(t, counter)
	s := newSim(t, g, sim.Options{})
	r := id(t, g, "r")
	o := id(t, g, "o")
	for i := 0; i < 300; i++ {
		res, err := s.Step(nil)
		if err != nil {
			t.Fatal(err)
		}
		// the register value seen during cycle i is the one committed at the
		// end of cycle i-1.
		if got := res.Uint64(o); got != uint64(i%256) {
			t.Fatalf("cycle %d: o = %d, expected %d", i, got, i%256)
		}
	}
	if v, _ := s.RegisterValue(r); v.Uint64() != 44 {
		t.Fatalf("register value after 300 cycles: %d, expected 44", v.Uint64())
	}
	if s.Cycle() != 300 {
		t.Fatalf("Cycle() = %d", s.Cycle())
	}
}

func TestSim_deterministic(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		x := b.Input(8, "x")
		acc := b.Register(8, "acc")
		b.SetNext(acc, b.Xor(b.Mul(acc, x, 8), b.Add(x, b.Const(8, 3), 8)))
		b.Output("o", acc)
	})
	run := func() string {
		s := newSim(t, g, sim.Options{})
		rnd := rand.New(rand.NewSource(42))
		for i := 0; i < 50; i++ {
			if _, err := s.StepNamed(map[string]uint64{"x": uint64(rnd.Intn(256))}); err != nil {
				t.Fatal(err)
			}
		}
		return printTrace(t, s, sim.PrintOptions{Base: 16})
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("traces differ:\n%s\n%s", a, b)
	}
}

func TestSim_widthInvariant(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		a, c := b.Input(8, "a"), b.Input(8, "c")
		b.Output("sum", b.Add(a, c, 8))
		b.Output("wsum", b.Add(a, c, 9))
		b.Output("prod", b.Mul(a, c, 8))
		b.Output("diff", b.Sub(a, c, 8))
		b.Output("neg", b.Not(a))
		b.Output("cat", b.Concat(b.Slice(a, 4, 8), c))
		b.Output("lt", b.Lt(a, c))
	})
	p, err := sim.Compile(g)
	if err != nil {
		t.Fatal(err)
	}
	sigs := make([]rtlsim.SignalID, 0)
	for _, s := range g.Signals() {
		sigs = append(sigs, s.ID)
	}
	f := func(a, c uint8) bool {
		s, err := p.New(sim.Options{Trace: sigs})
		if err != nil {
			t.Fatal(err)
		}
		if _, err = s.StepNamed(map[string]uint64{"a": uint64(a), "c": uint64(c)}); err != nil {
			t.Fatal(err)
		}
		for _, sig := range s.Trace().Signals() {
			for _, v := range s.Trace().Values(sig.ID) {
				if !rtlsim.Fits(&v, sig.Width) {
					t.Logf("%s = %s does not fit in %d bits", sig.Name, v.Hex(), sig.Width)
					return false
				}
			}
		}
		o, _ := s.Inspect(id(t, g, "wsum"))
		return o.Uint64() == uint64(a)+uint64(c)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSim_basicOps(t *testing.T) {
	td := []struct {
		name string
		next func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID
		out  string
	}{
		{"not", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID { return b.Not(r) }, "o 07070707\n"},
		{"and", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID { return b.And(b.Not(r), b.Const(3, 6)) }, "o 06060606\n"},
		{"nand", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID { return b.Nand(r, b.Const(3, 6)) }, "o 07171717\n"},
		{"or", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID { return b.Or(r, b.Const(3, 4)) }, "o 04444444\n"},
		{"xor", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID { return b.Xor(r, b.Const(3, 4)) }, "o 04040404\n"},
		{"plus", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID { return b.Add(r, b.Const(3, 2), 3) }, "o 02460246\n"},
		{"equals", func(b *rtlsim.Builder, r rtlsim.SignalID) rtlsim.SignalID {
			return b.ZeroExtend(b.Eq(b.Slice(r, 0, 2), b.Const(2, 0)), 3)
		}, "o 01010101\n"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			g := build(t, func(b *rtlsim.Builder) {
				r := b.Register(3, "r")
				b.SetNext(r, d.next(b, r))
				b.Output("o", r)
			})
			s := newSim(t, g, sim.Options{Trace: g.Outputs()})
			for i := 0; i < 8; i++ {
				if _, err := s.Step(nil); err != nil {
					t.Fatal(err)
				}
			}
			if got := printTrace(t, s, sim.PrintOptions{Compact: true}); got != d.out {
				t.Fatalf("got %q, expected %q", got, d.out)
			}
		})
	}
}

func TestSim_mux(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		a, c, sel := b.Input(3, ""), b.Input(3, ""), b.Input(1, "")
		b.Output("muxout", b.Mux(sel, a, c))
	})
	ins := g.Inputs()
	s := newSim(t, g, sim.Options{})
	for _, v := range [][3]uint64{{0, 1, 1}, {0, 2, 1}, {0, 0, 1}, {1, 1, 0}, {2, 1, 0}, {0, 1, 0}} {
		if _, err := s.Step(map[rtlsim.SignalID]uint64{ins[0]: v[0], ins[1]: v[1], ins[2]: v[2]}); err != nil {
			t.Fatal(err)
		}
	}
	if got := printTrace(t, s, sim.PrintOptions{Compact: true}); got != "muxout 120120\n" {
		t.Fatalf("got %q", got)
	}
}

func TestSim_errors(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		b.Output("o", b.Add(b.Input(2, "i"), b.Input(2, "j"), 3))
	})
	i, j, o := id(t, g, "i"), id(t, g, "j"), id(t, g, "o")

	td := []struct {
		name string
		in   map[rtlsim.SignalID]uint64
		kind sim.ErrorKind
		sig  rtlsim.SignalID
	}{
		{"missing", map[rtlsim.SignalID]uint64{i: 1}, sim.MissingInput, j},
		{"width", map[rtlsim.SignalID]uint64{i: 5, j: 0}, sim.WidthMismatch, i},
		{"output", map[rtlsim.SignalID]uint64{i: 1, j: 1, o: 1}, sim.NotAnInput, o},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			s := newSim(t, g, sim.Options{})
			for c := 0; c < 4; c++ {
				if _, err := s.Step(map[rtlsim.SignalID]uint64{i: uint64(c), j: 1}); err != nil {
					t.Fatal(err)
				}
			}
			_, err := s.Step(d.in)
			var se *sim.SimulationError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SimulationError, got %v", err)
			}
			if se.Kind != d.kind || se.Cycle != 4 || se.Signal != d.sig {
				t.Fatalf("got %v (cycle %d, signal %v), expected %v at cycle 4 on %v", se.Kind, se.Cycle, se.Signal, d.kind, d.sig)
			}
			_, err = s.Step(map[rtlsim.SignalID]uint64{i: 0, j: 0})
			if !sim.IsKind(err, sim.Halted) {
				t.Fatalf("expected halted simulation, got %v", err)
			}
			if !sim.IsKind(s.Err(), d.kind) {
				t.Fatalf("Err() = %v", s.Err())
			}
			if s.Trace().Len() != 4 {
				t.Fatalf("trace has %d cycles, expected 4", s.Trace().Len())
			}
			if got := s.Trace().Uint64s(o); got[3] != 4 {
				t.Fatalf("bad trace after error: %v", got)
			}
		})
	}

	s := newSim(t, g, sim.Options{})
	_, err := s.StepNamed(map[string]uint64{"i": 1, "j": 1, "nope": 0})
	if !sim.IsKind(err, sim.NotAnInput) {
		t.Fatalf("expected NotAnInput, got %v", err)
	}
}

func TestSim_cycle(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	w := b.Wire(1, "w")
	b.Assign(w, b.Not(w))
	b.Output("o", w)
	if err := b.Err(); err != nil {
		t.Fatal(err)
	}
	_, err := sim.Compile(g)
	if !sim.IsKind(err, sim.CombinationalCycle) {
		t.Fatalf("expected combinational cycle, got %v", err)
	}
	if !rtlsim.IsKind(err, rtlsim.CombinationalCycle) {
		t.Fatalf("simulation error does not wrap the structural error: %v", err)
	}
}

func TestSim_registerInit(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		for _, n := range []string{"a", "b", "c"} {
			r := b.RegisterReset(4, n, 5)
			b.SetNext(r, r)
			b.Output("o"+n, r)
		}
		d := b.Register(4, "d")
		b.SetNext(d, d)
		b.Output("od", d)
	})
	def := uint64(3)
	s := newSim(t, g, sim.Options{
		RegisterValues: map[rtlsim.SignalID]uint64{id(t, g, "a"): 9},
		DefaultValue:   &def,
	})
	r, err := s.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	for n, v := range map[string]uint64{"oa": 9, "ob": 5, "oc": 5, "od": 3} {
		if got := r.Uint64(id(t, g, n)); got != v {
			t.Errorf("%s = %d, expected %d", n, got, v)
		}
	}

	s = newSim(t, g, sim.Options{})
	if v, _ := s.Inspect(id(t, g, "d")); !v.IsZero() {
		t.Fatalf("zero policy: d = %d", v.Uint64())
	}

	_, err = sim.New(g, sim.Options{RegisterValues: map[rtlsim.SignalID]uint64{id(t, g, "a"): 16}})
	if !sim.IsKind(err, sim.InvalidInitial) {
		t.Fatalf("expected InvalidInitial, got %v", err)
	}
	_, err = sim.New(g, sim.Options{RegisterValues: map[rtlsim.SignalID]uint64{id(t, g, "oa"): 1}})
	if !sim.IsKind(err, sim.InvalidInitial) {
		t.Fatalf("expected InvalidInitial, got %v", err)
	}

	g = build(t, counter, rtlsim.WithRegisterPolicy(rtlsim.RegisterMustInit))
	_, err = sim.New(g, sim.Options{})
	var se *sim.SimulationError
	if !errors.As(err, &se) || se.Kind != sim.UninitializedRegister || se.Cycle != 0 || se.Signal != id(t, g, "r") {
		t.Fatalf("expected UninitializedRegister on r, got %v", err)
	}
	newSim(t, g, sim.Options{DefaultValue: &def})
}

func TestSim_reset(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		rst := b.Input(1, "rst")
		r := b.RegisterReset(4, "r", 5)
		b.SetNext(r, b.Add(r, b.Const(4, 1), 4))
		b.Output("o", r)
		if err := b.Graph().SetReset(rst); err != nil {
			t.Fatal(err)
		}
	})
	s := newSim(t, g, sim.Options{})
	o := id(t, g, "o")
	rst := []uint64{0, 0, 0, 1, 0, 0}
	want := []uint64{5, 6, 7, 8, 5, 6}
	for i := range rst {
		r, err := s.StepNamed(map[string]uint64{"rst": rst[i]})
		if err != nil {
			t.Fatal(err)
		}
		if got := r.Uint64(o); got != want[i] {
			t.Fatalf("cycle %d: o = %d, expected %d", i, got, want[i])
		}
	}
}

func TestSim_memory(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		m := b.Memory(rtlsim.MemSpec{Name: "mem1", Width: 3, AddrWidth: 3})
		b.Memory(rtlsim.MemSpec{Name: "mem2", Width: 3, AddrWidth: 3})
		ra1, ra2 := b.Input(3, "ra1"), b.Input(3, "ra2")
		wa, wd := b.Input(3, "wa"), b.Input(3, "wd")
		b.Output("o1", b.Read(m, ra1))
		b.Output("o2", b.Read(m, ra2))
		b.Write(m, wa, wd, b.Const(1, 1))
	})
	s := newSim(t, g, sim.Options{Trace: g.Outputs()})
	for _, v := range [][4]uint64{{0, 1, 4, 5}, {4, 1, 0, 5}, {0, 4, 1, 6}, {1, 1, 0, 0}, {6, 0, 6, 7}} {
		if _, err := s.StepNamed(map[string]uint64{"ra1": v[0], "ra2": v[1], "wa": v[2], "wd": v[3]}); err != nil {
			t.Fatal(err)
		}
	}
	if got := printTrace(t, s, sim.PrintOptions{Compact: true}); got != "o1 05560\no2 00560\n" {
		t.Fatalf("got %q", got)
	}
	mem, ok := s.InspectMem(0)
	if !ok {
		t.Fatal("InspectMem failed")
	}
	for a, v := range map[uint64]uint64{0: 0, 1: 6, 4: 5, 6: 7} {
		if x := mem[a]; x.Uint64() != v {
			t.Errorf("mem[%d] = %d, expected %d", a, x.Uint64(), v)
		}
	}
}

func TestSim_memoryForward(t *testing.T) {
	for _, fwd := range []bool{false, true} {
		g := build(t, func(b *rtlsim.Builder) {
			m := b.Memory(rtlsim.MemSpec{Name: "m", Width: 8, AddrWidth: 2, Forward: fwd})
			a, d, we := b.Input(2, "a"), b.Input(8, "d"), b.Input(1, "we")
			b.Output("q", b.Read(m, a))
			b.Write(m, a, d, we)
		})
		s := newSim(t, g, sim.Options{MemoryValues: map[rtlsim.MemID]map[uint64]uint64{0: {1: 42}}})
		q := id(t, g, "q")
		r, err := s.StepNamed(map[string]uint64{"a": 1, "d": 7, "we": 1})
		if err != nil {
			t.Fatal(err)
		}
		want := uint64(42)
		if fwd {
			want = 7
		}
		if got := r.Uint64(q); got != want {
			t.Fatalf("forward=%v: q = %d, expected %d", fwd, got, want)
		}
		if r, _ = s.StepNamed(map[string]uint64{"a": 1, "d": 9, "we": 0}); r.Uint64(q) != 7 {
			t.Fatalf("forward=%v: write not committed: q = %d", fwd, r.Uint64(q))
		}
	}
}

func TestSim_rom(t *testing.T) {
	romOut := func(pad bool) *rtlsim.Graph {
		return build(t, func(b *rtlsim.Builder) {
			data := []uint256.Int{*uint256.NewInt(3), *uint256.NewInt(1), *uint256.NewInt(4), *uint256.NewInt(1), *uint256.NewInt(5)}
			rom := b.Memory(rtlsim.MemSpec{Name: "rom", Width: 4, AddrWidth: 3, ROM: data, PadWithZeros: pad})
			b.Output("q", b.Read(rom, b.Input(3, "a")))
		})
	}

	g := romOut(true)
	s := newSim(t, g, sim.Options{})
	var got []uint64
	for a := uint64(0); a < 8; a++ {
		r, err := s.StepNamed(map[string]uint64{"a": a})
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, r.Uint64(id(t, g, "q")))
	}
	want := []uint64{3, 1, 4, 1, 5, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, expected %v", got, want)
		}
	}
	_, err := sim.New(g, sim.Options{MemoryValues: map[rtlsim.MemID]map[uint64]uint64{0: {0: 1}}})
	if !sim.IsKind(err, sim.InvalidInitial) {
		t.Fatalf("expected InvalidInitial for ROM initialization, got %v", err)
	}

	g = romOut(false)
	s = newSim(t, g, sim.Options{})
	for a := uint64(0); a < 5; a++ {
		if _, err = s.StepNamed(map[string]uint64{"a": a}); err != nil {
			t.Fatal(err)
		}
	}
	_, err = s.StepNamed(map[string]uint64{"a": 7})
	var se *sim.SimulationError
	if !errors.As(err, &se) || se.Kind != sim.ROMOutOfRange {
		t.Fatalf("expected ROMOutOfRange, got %v", err)
	}
	if se.Cycle != 5 || se.Addr != 7 || se.Signal == rtlsim.NoSignal {
		t.Fatalf("bad error details: %+v", se)
	}
	if _, err = s.StepNamed(map[string]uint64{"a": 0}); !sim.IsKind(err, sim.Halted) {
		t.Fatalf("expected Halted, got %v", err)
	}
	if s.Trace().Len() != 5 {
		t.Fatalf("%d cycles traced, expected 5", s.Trace().Len())
	}

	// same behavior with parallel evaluation
	s = newSim(t, g, sim.Options{Workers: 4})
	if _, err = s.StepNamed(map[string]uint64{"a": 5}); !sim.IsKind(err, sim.ROMOutOfRange) {
		t.Fatalf("expected ROMOutOfRange, got %v", err)
	}
}

func TestSim_romFunc(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		sq := b.Memory(rtlsim.MemSpec{Name: "sq", Width: 8, AddrWidth: 4, ROMFunc: func(a uint64) uint64 { return a * a }})
		b.Output("q", b.Read(sq, b.Input(4, "a")))
	})
	s := newSim(t, g, sim.Options{})
	q := id(t, g, "q")
	for a := uint64(0); a < 16; a++ {
		r, err := s.StepNamed(map[string]uint64{"a": a})
		if err != nil {
			t.Fatal(err)
		}
		if r.Uint64(q) != a*a {
			t.Fatalf("sq[%d] = %d", a, r.Uint64(q))
		}
	}

	g = build(t, func(b *rtlsim.Builder) {
		bad := b.Memory(rtlsim.MemSpec{Name: "bad", Width: 2, AddrWidth: 2, ROMFunc: func(a uint64) uint64 { return a + 1 }})
		b.Output("q", b.Read(bad, b.Input(2, "a")))
	})
	s = newSim(t, g, sim.Options{})
	if _, err := s.StepNamed(map[string]uint64{"a": 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StepNamed(map[string]uint64{"a": 3}); !sim.IsKind(err, sim.WidthMismatch) {
		t.Fatalf("expected WidthMismatch, got %v", err)
	}
}

func TestSim_parallel(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		x, y := b.Input(16, "x"), b.Input(16, "y")
		acc := b.Register(16, "acc")
		sum := acc
		for i := 0; i < 200; i++ {
			v := b.Add(b.Xor(x, b.Const(16, uint64(i*7919%65536))), b.Mul(y, b.Const(16, uint64(i+1)), 16), 16)
			sum = b.Xor(sum, v)
		}
		b.SetNext(acc, sum)
		b.Output("o", sum)
	})
	run := func(workers int) *uint256.Int {
		s := newSim(t, g, sim.Options{Workers: workers})
		rnd := rand.New(rand.NewSource(1))
		for i := 0; i < 20; i++ {
			if _, err := s.StepNamed(map[string]uint64{"x": uint64(rnd.Intn(1 << 16)), "y": uint64(rnd.Intn(1 << 16))}); err != nil {
				t.Fatal(err)
			}
		}
		v, _ := s.RegisterValue(id(t, g, "acc"))
		return &v
	}
	seq, par := run(1), run(4)
	if !seq.Eq(par) {
		t.Fatalf("parallel evaluation differs: %s vs %s", seq.Hex(), par.Hex())
	}
}

func TestSim_wide(t *testing.T) {
	g := build(t, func(b *rtlsim.Builder) {
		a := b.Input(200, "a")
		b.Output("o", b.Add(a, b.Const(200, 1), 200))
	})
	s := newSim(t, g, sim.Options{})
	var in uint256.Int
	in.Set(rtlsim.Mask(200))
	r, err := s.StepWide(map[rtlsim.SignalID]uint256.Int{id(t, g, "a"): in})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := r.Value(id(t, g, "o")); !v.IsZero() {
		t.Fatalf("2^200-1 + 1 = %s in 200 bits, expected 0", v.Hex())
	}
	in.Lsh(&in, 1)
	_, err = s.StepWide(map[rtlsim.SignalID]uint256.Int{id(t, g, "a"): in})
	if !sim.IsKind(err, sim.WidthMismatch) {
		t.Fatalf("expected WidthMismatch, got %v", err)
	}
}
