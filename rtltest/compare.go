// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package rtltest provides utility functions for testing circuits.
//
package rtltest

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/db47h/rtlsim"
	"github.com/db47h/rtlsim/sim"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// A Difference reports an output, register or memory word that differs
// between two circuits.
//
// For outputs, Cycle is the failing cycle and Inputs the input values during
// that cycle. For registers and memories, State is "register" or "memory",
// Cycle is the number of simulated cycles, and Addr the memory address.
//
type Difference struct {
	Cycle  int
	Output string // output, register or memory name
	State  string
	Addr   uint64
	Inputs map[string]uint256.Int
	Got    [2]uint256.Int
}

func (d *Difference) Error() string {
	switch d.State {
	case "register":
		return fmt.Sprintf("after %d cycles: register %s=%s, got %s", d.Cycle, d.Output, d.Got[0].Dec(), d.Got[1].Dec())
	case "memory":
		return fmt.Sprintf("after %d cycles: memory %s[%d]=%s, got %s", d.Cycle, d.Output, d.Addr, d.Got[0].Dec(), d.Got[1].Dec())
	}
	var b strings.Builder
	for _, n := range sortedNames(d.Inputs) {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		v := d.Inputs[n]
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(v.Dec())
	}
	return fmt.Sprintf("cycle %d: %s => %s=%s, got %s", d.Cycle, b.String(), d.Output, d.Got[0].Dec(), d.Got[1].Dec())
}

func sortedNames(m map[string]uint256.Int) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type port struct {
	name  string
	width int
	ids   [2]rtlsim.SignalID
}

// interfaces checks that g1 and g2 have the same inputs and outputs, by name
// and width. It returns them sorted by name.
func interfaces(g1, g2 *rtlsim.Graph) (in, out []port, err error) {
	match := func(kind string, l1, l2 []rtlsim.SignalID) ([]port, error) {
		if len(l1) != len(l2) {
			return nil, errors.Errorf("%s count mismatch: %d != %d", kind, len(l1), len(l2))
		}
		ps := make([]port, 0, len(l1))
		for _, id := range l1 {
			s, _ := g1.Signal(id)
			id2, ok := g2.ByName(s.Name)
			if !ok {
				return nil, errors.Errorf("%s %q missing from second circuit", kind, s.Name)
			}
			s2, _ := g2.Signal(id2)
			if s2.Kind != s.Kind || s2.Width != s.Width {
				return nil, errors.Errorf("%s %q: %v/%d != %v/%d", kind, s.Name, s.Kind, s.Width, s2.Kind, s2.Width)
			}
			ps = append(ps, port{s.Name, s.Width, [2]rtlsim.SignalID{id, id2}})
		}
		sort.Slice(ps, func(i, j int) bool { return ps[i].name < ps[j].name })
		return ps, nil
	}
	if in, err = match("input", g1.Inputs(), g2.Inputs()); err != nil {
		return nil, nil, err
	}
	if out, err = match("output", g1.Outputs(), g2.Outputs()); err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

// randValue returns a random value of the given width.
func randValue(r *rand.Rand, width int) uint256.Int {
	var v uint256.Int
	for i := range v {
		v[i] = r.Uint64()
	}
	return *rtlsim.Truncate(&v, width)
}

// Equivalent simulates g1 and g2 side by side and compares their outputs,
// cycle by cycle. Both circuits must have the same inputs and outputs. The
// first cycle drives all inputs to 0, the second one to all ones and the
// remaining ones to random values drawn from a source seeded with seed.
//
// After the last cycle, the committed value of every register and the
// contents of every writable memory that exist under the same name and width
// in both circuits are compared too. Registers or memories found in only one
// circuit are implementation details and are not compared.
//
// Registers without an initial value start at 0. If outputs or state differ,
// the returned error is a *Difference.
//
func Equivalent(g1, g2 *rtlsim.Graph, cycles int, seed int64) error {
	in, out, err := interfaces(g1, g2)
	if err != nil {
		return err
	}
	var zero uint64
	var sims [2]*sim.Simulation
	for i, g := range [2]*rtlsim.Graph{g1, g2} {
		if sims[i], err = sim.New(g, sim.Options{DefaultValue: &zero, Trace: []rtlsim.SignalID{}}); err != nil {
			return errors.Wrapf(err, "circuit %d", i+1)
		}
	}

	r := rand.New(rand.NewSource(seed))
	vals := make(map[string]uint256.Int, len(in))
	var ins [2]map[rtlsim.SignalID]uint256.Int
	for c := 0; c < cycles; c++ {
		ins[0] = make(map[rtlsim.SignalID]uint256.Int, len(in))
		ins[1] = make(map[rtlsim.SignalID]uint256.Int, len(in))
		for _, p := range in {
			var v uint256.Int
			switch c {
			case 0:
			case 1:
				v = *rtlsim.Mask(p.width)
			default:
				v = randValue(r, p.width)
			}
			vals[p.name] = v
			ins[0][p.ids[0]] = v
			ins[1][p.ids[1]] = v
		}
		var res [2]sim.CycleResult
		for i := range sims {
			if res[i], err = sims[i].StepWide(ins[i]); err != nil {
				return errors.Wrapf(err, "circuit %d", i+1)
			}
		}
		for _, p := range out {
			v1, _ := res[0].Value(p.ids[0])
			v2, _ := res[1].Value(p.ids[1])
			if !v1.Eq(&v2) {
				d := &Difference{Cycle: c, Output: p.name, Inputs: make(map[string]uint256.Int, len(vals)), Got: [2]uint256.Int{v1, v2}}
				for k, v := range vals {
					d.Inputs[k] = v
				}
				return d
			}
		}
	}
	return compareState(g1, g2, sims, cycles)
}

func compareState(g1, g2 *rtlsim.Graph, sims [2]*sim.Simulation, cycles int) error {
	for _, id := range g1.Registers() {
		s, _ := g1.Signal(id)
		id2, ok := g2.ByName(s.Name)
		if !ok {
			continue
		}
		if s2, _ := g2.Signal(id2); s2.Kind != rtlsim.KindRegister || s2.Width != s.Width {
			continue
		}
		v1, _ := sims[0].RegisterValue(id)
		v2, _ := sims[1].RegisterValue(id2)
		if !v1.Eq(&v2) {
			return &Difference{Cycle: cycles, Output: s.Name, State: "register", Got: [2]uint256.Int{v1, v2}}
		}
	}
	mems2 := make(map[string]rtlsim.Memory)
	for _, m := range g2.Memories() {
		mems2[m.Name] = m
	}
	for _, m1 := range g1.Memories() {
		m2, ok := mems2[m1.Name]
		if !ok || m1.IsROM() || m2.IsROM() || m1.Width != m2.Width || m1.AddrWidth != m2.AddrWidth {
			continue
		}
		c1, _ := sims[0].InspectMem(m1.ID)
		c2, _ := sims[1].InspectMem(m2.ID)
		addrs := make([]uint64, 0, len(c1)+len(c2))
		for a := range c1 {
			addrs = append(addrs, a)
		}
		for a := range c2 {
			if _, ok := c1[a]; !ok {
				addrs = append(addrs, a)
			}
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
		for _, a := range addrs {
			// missing locations read as 0
			v1, v2 := c1[a], c2[a]
			if !v1.Eq(&v2) {
				return &Difference{Cycle: cycles, Output: m1.Name, State: "memory", Addr: a, Got: [2]uint256.Int{v1, v2}}
			}
		}
	}
	return nil
}

// CompareGraphs takes two circuits and compares their outputs given the same
// inputs over the given number of cycles, then their final register and
// memory state as done by Equivalent. Both circuits must have the same input
// and output interface.
//
func CompareGraphs(t testing.TB, g1, g2 *rtlsim.Graph, cycles int) {
	t.Helper()
	seed := time.Now().UnixNano()
	start := time.Now()
	if err := Equivalent(g1, g2, cycles, seed); err != nil {
		t.Fatalf("seed %d: %v", seed, err)
	}
	elapsed := time.Since(start)
	t.Logf("%d/%d ops. %d cycles in %v => %.2f Hz", g1.NumOps(), g2.NumOps(), cycles, elapsed, float64(cycles)/(float64(elapsed)/float64(time.Second)))
}

// Exhaustive runs every combination of input values through g, one per cycle,
// and checks its outputs against the values returned by f. Inputs must be at
// most 20 bits wide in total. f receives input values by name and returns the
// expected output values by name. Outputs not returned by f are not checked.
//
// g should be combinational; registers keep evolving across cycles.
//
func Exhaustive(t testing.TB, g *rtlsim.Graph, f func(in map[string]uint64) map[string]uint64) {
	t.Helper()
	ins := g.Inputs()
	total := 0
	widths := make([]int, len(ins))
	names := make([]string, len(ins))
	for i, id := range ins {
		s, _ := g.Signal(id)
		widths[i], names[i] = s.Width, s.Name
		total += s.Width
	}
	if total > 20 {
		t.Fatalf("%d input bits is too many for exhaustive testing", total)
	}
	var zero uint64
	s, err := sim.New(g, sim.Options{DefaultValue: &zero, Trace: []rtlsim.SignalID{}})
	if err != nil {
		t.Fatal(err)
	}
	in := make(map[string]uint64, len(ins))
	for n := uint64(0); n < 1<<uint(total); n++ {
		x := n
		for i := range ins {
			in[names[i]] = x & (1<<uint(widths[i]) - 1)
			x >>= uint(widths[i])
		}
		r, err := s.StepNamed(in)
		if err != nil {
			t.Fatal(err)
		}
		for name, want := range f(in) {
			id, ok := g.ByName(name)
			if !ok {
				t.Fatalf("no output named %q", name)
			}
			if got := r.Uint64(id); got != want {
				t.Fatalf("%v => %s=%d, got %d", in, name, want, got)
			}
		}
	}
}
