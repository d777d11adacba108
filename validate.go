// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"container/heap"
	"strings"
)

// Validate checks the structural invariants of g: every wire, output and
// register is driven, every reference points to a live signal, and the
// combinational subgraph is acyclic. It must be run before simulation.
//
func (g *Graph) Validate() error {
	for i := range g.sigs {
		s := &g.sigs[i]
		if s.removed || !s.Kind.driven() {
			continue
		}
		if s.producer == NoOp {
			return structErr(Undriven, NoOp, s.ID, "%v %q has no driver", s.Kind, s.Name)
		}
	}
	for i := range g.ops {
		n := &g.ops[i]
		if n.removed {
			continue
		}
		for _, a := range n.Args {
			if !g.live(a) {
				return structErr(DanglingReference, n.ID, a, "%v reads removed signal %v", n.ID, a)
			}
		}
		if n.Dest != NoSignal && !g.live(n.Dest) {
			return structErr(DanglingReference, n.ID, n.Dest, "%v drives removed signal %v", n.ID, n.Dest)
		}
	}
	if g.reset != NoSignal && !g.live(g.reset) {
		return structErr(DanglingReference, NoOp, g.reset, "reset signal %v was removed", g.reset)
	}
	_, err := g.CombinationalOrder()
	return err
}

// CombinationalDeps returns the non-delay operations that must be evaluated
// before op id within a cycle, in ascending order without duplicates. Reads
// from a forwarding memory depend on the operands of every write port of that
// memory.
//
func (g *Graph) CombinationalDeps(id OpID) []OpID {
	if !g.liveOp(id) {
		return nil
	}
	var deps []OpID
	seen := make(map[OpID]bool)
	add := func(s SignalID) {
		if !g.live(s) {
			return
		}
		p := g.sigs[s].producer
		if p == NoOp || g.ops[p].Kind.IsDelay() || seen[p] {
			return
		}
		seen[p] = true
		deps = append(deps, p)
	}
	n := &g.ops[id]
	for _, a := range n.Args {
		add(a)
	}
	if n.Kind == OpMemRead && g.mems[n.Mem].Forward {
		for _, w := range g.mems[n.Mem].WritePorts {
			for _, a := range g.ops[w].Args {
				add(a)
			}
		}
	}
	sortOps(deps)
	return deps
}

func sortOps(ops []OpID) {
	// insertion sort, dependency lists are short
	for i := 1; i < len(ops); i++ {
		for j := i; j > 0 && ops[j] < ops[j-1]; j-- {
			ops[j], ops[j-1] = ops[j-1], ops[j]
		}
	}
}

type opHeap []OpID

func (h opHeap) Len() int            { return len(h) }
func (h opHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h opHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *opHeap) Push(x interface{}) { *h = append(*h, x.(OpID)) }
func (h *opHeap) Pop() interface{} {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// CombinationalOrder returns every live non-delay operation in an order where
// each operation comes after all of its combinational dependencies. Among
// operations that are ready at the same time, the one created first comes
// first, so the order is stable run to run.
//
// It returns a CombinationalCycle error if the non-delay edges form a loop.
//
func (g *Graph) CombinationalOrder() ([]OpID, error) {
	indeg := make(map[OpID]int)
	users := make(map[OpID][]OpID)
	var ready opHeap
	for i := range g.ops {
		n := &g.ops[i]
		if n.removed || n.Kind.IsDelay() {
			continue
		}
		deps := g.CombinationalDeps(n.ID)
		indeg[n.ID] = len(deps)
		for _, d := range deps {
			users[d] = append(users[d], n.ID)
		}
		if len(deps) == 0 {
			ready = append(ready, n.ID)
		}
	}
	heap.Init(&ready)
	order := make([]OpID, 0, len(indeg))
	for ready.Len() > 0 {
		id := heap.Pop(&ready).(OpID)
		order = append(order, id)
		for _, u := range users[id] {
			indeg[u]--
			if indeg[u] == 0 {
				heap.Push(&ready, u)
			}
		}
	}
	if len(order) != len(indeg) {
		return nil, g.cycleError(indeg)
	}
	return order, nil
}

// cycleError walks the unresolved operations left over by CombinationalOrder
// until it finds a loop and reports it.
func (g *Graph) cycleError(indeg map[OpID]int) error {
	start := NoOp
	for id, d := range indeg {
		if d > 0 && (start == NoOp || id < start) {
			start = id
		}
	}
	var path []OpID
	pos := make(map[OpID]int)
	cur := start
	for {
		if i, ok := pos[cur]; ok {
			path = path[i:]
			break
		}
		pos[cur] = len(path)
		path = append(path, cur)
		next := NoOp
		for _, d := range g.CombinationalDeps(cur) {
			if indeg[d] > 0 {
				next = d
				break
			}
		}
		if next == NoOp {
			break
		}
		cur = next
	}
	names := make([]string, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		n := &g.ops[path[i]]
		if n.Dest != NoSignal {
			names = append(names, g.sigs[n.Dest].Name)
		} else {
			names = append(names, n.ID.String())
		}
	}
	first := &g.ops[path[0]]
	return structErr(CombinationalCycle, first.ID, first.Dest, "loop through %s", strings.Join(names, " -> "))
}
