// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim_test

import (
	"strings"
	"testing"

	"github.com/db47h/rtlsim"
)

func TestValidate_cycle(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	x := b.Input(1, "x")
	w1 := b.Wire(1, "w1")
	w2 := b.Wire(1, "w2")
	b.Assign(w1, b.And(x, w2))
	b.Assign(w2, b.Not(w1))
	b.Output("o", w2)
	if err := b.Err(); err != nil {
		t.Fatal(err)
	}
	err := g.Validate()
	expectKind(t, err, rtlsim.CombinationalCycle)
	msg := err.Error()
	if !strings.Contains(msg, "w1") || !strings.Contains(msg, "w2") {
		t.Fatalf("cycle error does not name the loop: %v", msg)
	}
	if _, err := g.CombinationalOrder(); !rtlsim.IsKind(err, rtlsim.CombinationalCycle) {
		t.Fatalf("CombinationalOrder: expected cycle error, got %v", err)
	}
}

func TestValidate_registerLoop(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	r := b.Register(4, "r")
	b.SetNext(r, b.Add(r, b.Const(4, 1), 4))
	b.Output("o", r)
	if err := b.Err(); err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

func TestValidate_undriven(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	w := b.Wire(2, "w")
	b.Output("o", b.Not(w))
	if err := b.Err(); err != nil {
		t.Fatal(err)
	}
	expectKind(t, g.Validate(), rtlsim.Undriven)

	g = rtlsim.NewGraph()
	b = rtlsim.NewBuilder(g)
	b.Register(2, "r")
	expectKind(t, g.Validate(), rtlsim.Undriven)
}

func TestCombinationalOrder(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	a := b.Input(4, "a")
	c := b.Input(4, "c")
	late := b.Wire(4, "late")
	x := b.And(late, c) // op0 depends on op2
	b.Output("x", x)    // op1
	b.Assign(late, b.Or(a, c))
	if err := b.Err(); err != nil {
		t.Fatal(err)
	}
	order, err := g.CombinationalOrder()
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[rtlsim.OpID]int)
	for i, id := range order {
		pos[id] = i
	}
	if len(order) != g.NumOps() {
		t.Fatalf("order has %d ops, graph %d", len(order), g.NumOps())
	}
	for _, op := range g.Ops() {
		for _, d := range g.CombinationalDeps(op.ID) {
			if pos[d] > pos[op.ID] {
				t.Fatalf("%v scheduled before its dependency %v: %v", op.ID, d, order)
			}
		}
	}
	again, _ := g.CombinationalOrder()
	for i := range order {
		if order[i] != again[i] {
			t.Fatalf("order not deterministic: %v vs %v", order, again)
		}
	}
}

func TestCombinationalDeps_forward(t *testing.T) {
	for _, fwd := range []bool{false, true} {
		g := rtlsim.NewGraph()
		b := rtlsim.NewBuilder(g)
		m := b.Memory(rtlsim.MemSpec{Name: "m", Width: 4, AddrWidth: 2, Forward: fwd})
		addr := b.Input(2, "addr")
		d := b.Not(b.Input(4, "d"))
		q := b.Read(m, addr)
		b.Write(m, addr, d, b.Const(1, 1))
		b.Output("q", q)
		if err := b.Err(); err != nil {
			t.Fatal(err)
		}
		deps := g.CombinationalDeps(g.Producer(q))
		want := 0
		if fwd {
			want = 1
		}
		if len(deps) != want || (fwd && deps[0] != g.Producer(d)) {
			t.Fatalf("forward=%v: deps = %v", fwd, deps)
		}
	}
}

func TestBuilder_sticky(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	a := b.Input(4, "a")
	c := b.Input(2, "c")
	n := g.NumSignals()
	x := b.And(a, c)
	if x != rtlsim.NoSignal {
		t.Fatal("failed operation returned a valid signal")
	}
	if g.NumSignals() != n {
		t.Fatalf("failed operation left %d signals behind", g.NumSignals()-n)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("graph invalid after a failed operation: %v", err)
	}
	err := b.Err()
	expectKind(t, err, rtlsim.TypeMismatch)
	if y := b.Not(a); y != rtlsim.NoSignal {
		t.Fatal("builder not sticky")
	}
	if b.Err() != err {
		t.Fatal("first error was replaced")
	}
}

func TestBuilder_helpers(t *testing.T) {
	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	a := b.Input(4, "a")
	if w := b.Width(b.ZeroExtend(a, 8)); w != 8 {
		t.Fatalf("ZeroExtend width %d", w)
	}
	if w := b.Width(b.Truncate(a, 2)); w != 2 {
		t.Fatalf("Truncate width %d", w)
	}
	if s := b.ZeroExtend(a, 4); s != a {
		t.Fatal("ZeroExtend to the same width must return its argument")
	}
	if w := b.Width(b.Concat(a, a, b.Bit(a, 3))); w != 9 {
		t.Fatalf("Concat width %d", w)
	}
	l := b.Lit("6'h2a")
	if v, ok := g.ConstValue(l); !ok || v.Uint64() != 42 || b.Width(l) != 6 {
		t.Fatalf("Lit: %v/%d", v.Uint64(), b.Width(l))
	}
	rom := b.ROM("rom", 4, 2, 1, 2, 3)
	if b.Width(b.Read(rom, b.Slice(a, 0, 2))) != 4 {
		t.Fatal("ROM read width")
	}
	if err := b.Err(); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	b.ZeroExtend(a, 2)
	expectKind(t, b.Err(), rtlsim.TypeMismatch)

	b = rtlsim.NewBuilder(rtlsim.NewGraph())
	b.Lit("4'hff")
	if b.Err() == nil {
		t.Fatal("expected literal error")
	}

	b = rtlsim.NewBuilder(rtlsim.NewGraph())
	if s := b.Slice(b.Input(8, "x"), 5, 2); s != rtlsim.NoSignal {
		t.Fatal("reversed slice returned a valid signal")
	}
	expectKind(t, b.Err(), rtlsim.TypeMismatch)
}
