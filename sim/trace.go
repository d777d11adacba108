// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/rtlsim"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Trace records the values of a set of signals at each cycle.
//
type Trace struct {
	sigs  []rtlsim.Signal
	index map[rtlsim.SignalID]int
	vals  [][]uint256.Int // by signal, then cycle
	n     int
}

func newTrace(sigs []rtlsim.Signal) *Trace {
	t := &Trace{
		sigs:  sigs,
		index: make(map[rtlsim.SignalID]int, len(sigs)),
		vals:  make([][]uint256.Int, len(sigs)),
	}
	for i, s := range sigs {
		t.index[s.ID] = i
	}
	return t
}

func (t *Trace) record(p *Program, vals []uint256.Int) {
	for i := range t.sigs {
		t.vals[i] = append(t.vals[i], vals[p.slots[t.sigs[i].ID]])
	}
	t.n++
}

// Len returns the number of recorded cycles.
//
func (t *Trace) Len() int { return t.n }

// Signals returns the traced signals.
//
func (t *Trace) Signals() []rtlsim.Signal { return t.sigs }

// Values returns the values of signal id, one per cycle.
//
func (t *Trace) Values(id rtlsim.SignalID) []uint256.Int {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	return t.vals[i]
}

// Uint64s returns the low 64 bits of the values of signal id, one per cycle.
//
func (t *Trace) Uint64s(id rtlsim.SignalID) []uint64 {
	vs := t.Values(id)
	if vs == nil {
		return nil
	}
	r := make([]uint64, len(vs))
	for i := range vs {
		r[i] = vs[i].Uint64()
	}
	return r
}

// PrintOptions configures Trace.Print.
//
type PrintOptions struct {
	// Base is the numeric base of printed values: 2, 8, 10 or 16. Defaults to
	// 10.
	Base int
	// Compact prints values without separators and right aligns names.
	Compact bool
}

// sorted returns signal indexes sorted by name.
func (t *Trace) sorted() []int {
	idx := make([]int, len(t.sigs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return t.sigs[idx[i]].Name < t.sigs[idx[j]].Name })
	return idx
}

// Print writes a table of the traced values, one row per signal sorted by
// name, one column per cycle.
//
// In the default layout, a header line gives the base, names are left aligned
// and values are right aligned in columns of equal width:
//
//	      --- Values in base 10 ---
//	in1       0 1 2 3 4
//	in1_probe 0 1 2 3 4
//
// In compact layout, there is no header, names are right aligned and values
// are concatenated.
//
func (t *Trace) Print(w io.Writer, opts PrintOptions) error {
	base := opts.Base
	if base == 0 {
		base = 10
	}
	switch base {
	case 2, 8, 10, 16:
	default:
		return errors.Errorf("unsupported base %d", base)
	}
	if t.n == 0 || len(t.sigs) == 0 {
		return errors.New("cannot print an empty trace")
	}

	idx := t.sorted()
	maxName := 0
	for _, i := range idx {
		if l := len(t.sigs[i].Name); l > maxName {
			maxName = l
		}
	}
	strs := make([][]string, len(t.sigs))
	maxVal := 0
	for _, i := range idx {
		strs[i] = make([]string, t.n)
		for c := range t.vals[i] {
			s := t.vals[i][c].ToBig().Text(base)
			strs[i][c] = s
			if len(s) > maxVal {
				maxVal = len(s)
			}
		}
	}

	bw := bufio.NewWriter(w)
	if !opts.Compact {
		if pad := maxName - 3; pad > 0 {
			bw.WriteString(strings.Repeat(" ", pad))
		}
		bw.WriteString("--- Values in base ")
		bw.WriteString(strconv.Itoa(base))
		bw.WriteString(" ---\n")
	}
	for _, i := range idx {
		name := t.sigs[i].Name
		pad := strings.Repeat(" ", maxName-len(name))
		if opts.Compact {
			bw.WriteString(pad)
			bw.WriteString(name)
			bw.WriteByte(' ')
			bw.WriteString(strings.Join(strs[i], ""))
		} else {
			bw.WriteString(name)
			bw.WriteString(pad)
			for _, s := range strs[i] {
				bw.WriteByte(' ')
				bw.WriteString(strings.Repeat(" ", maxVal-len(s)))
				bw.WriteString(s)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
