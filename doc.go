/*
Package rtlsim provides an intermediate representation of synchronous digital
circuits at the register transfer level, together with the tools to build,
validate and transform it.

A design is a Graph of signals (named, fixed width bit vectors) connected by
operations. Combinational operations (logic, arithmetic, comparisons, bit
selection, concatenation and multiplexers) compute their destination from their
arguments within a clock cycle. Registers and memories hold state across clock
edges.

Graphs are usually built with a Builder, which allocates temporaries, checks
widths as it goes and records the first error:

	g := rtlsim.NewGraph()
	b := rtlsim.NewBuilder(g)
	r := b.Register(8, "count")
	b.SetNext(r, b.Add(r, b.Const(8, 1), 8))
	b.Output("out", r)
	if err := b.Err(); err != nil {
		// handle error
	}

Graph.Validate checks the structural invariants of a graph (widths, single
drivers, no combinational loops). Sub packages operate on validated graphs:
package opt rewrites them into equivalent smaller graphs and package sim runs
cycle accurate simulations and records traces. Package rtllib contains a
library of reusable components built on top of the Builder.
*/
package rtlsim
