// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"fmt"
	"io"
)

type dotWriter struct {
	w   io.Writer
	err error
}

func (d *dotWriter) printf(format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

// Dot writes a graphviz representation of g to w. Signals are drawn as plain
// text nodes and operations as boxes. Inputs share the top rank and outputs
// the bottom one.
//
func (g *Graph) Dot(w io.Writer) error {
	d := &dotWriter{w: w}
	d.printf("digraph circuit\n{\n")
	d.printf("  overlap=scale;\n")
	d.printf("  node\t[fontname=\"Helvetica\"];\n")
	d.printf("  {\n    node [shape=plaintext];\n")
	for i := range g.sigs {
		s := &g.sigs[i]
		if s.removed {
			continue
		}
		label := s.Name
		if s.Kind == KindConst {
			label = s.value.Dec()
		}
		d.printf("    %v\t[label=\"%s/%d\"];\n", s.ID, label, s.Width)
	}
	d.printf("  }\n")

	d.printf("  {\n    node [shape=box];\n")
	for i := range g.ops {
		n := &g.ops[i]
		if n.removed {
			continue
		}
		label := opSymbols[n.Kind]
		if n.Mem != NoMem {
			label += " " + g.mems[n.Mem].Name
		}
		d.printf("    %v\t[label=\"%s\"];\n", n.ID, label)
	}
	d.printf("  }\n")

	rank := func(ids []SignalID) {
		if len(ids) == 0 {
			return
		}
		d.printf("  {  rank=same")
		for _, id := range ids {
			d.printf("; %v", id)
		}
		d.printf(";}\n")
	}
	rank(g.Inputs())
	rank(g.Outputs())

	for i := range g.ops {
		n := &g.ops[i]
		if n.removed {
			continue
		}
		for _, a := range n.Args {
			d.printf("  %v -> %v;\n", a, n.ID)
		}
		if n.Dest != NoSignal {
			d.printf("  %v -> %v;\n", n.ID, n.Dest)
		}
	}
	d.printf("}\n")
	return d.err
}
