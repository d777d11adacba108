// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"bufio"
	"io"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// WriteVCD writes the trace in Value Change Dump format. Each cycle lasts 10
// time units. Signals are sorted by name and identified by their name. One bit
// signals are dumped as scalars, wider ones as binary vectors.
//
func (t *Trace) WriteVCD(w io.Writer) error {
	if t.n == 0 || len(t.sigs) == 0 {
		return errors.New("cannot write an empty trace")
	}
	idx := t.sorted()
	bw := bufio.NewWriter(w)
	bw.WriteString("$timescale 1ns $end\n")
	bw.WriteString("$scope module logic $end\n")
	for _, i := range idx {
		s := &t.sigs[i]
		bw.WriteString("$var wire " + strconv.Itoa(s.Width) + " " + s.Name + " " + s.Name + " $end\n")
	}
	bw.WriteString("$upscope $end\n")
	bw.WriteString("$enddefinitions $end\n")

	var zero uint256.Int
	bw.WriteString("$dumpvars\n")
	for _, i := range idx {
		t.vcdValue(bw, i, &zero)
	}
	bw.WriteString("$end\n")

	for c := 0; c < t.n; c++ {
		bw.WriteString("#" + strconv.Itoa(c*10) + "\n")
		for _, i := range idx {
			t.vcdValue(bw, i, &t.vals[i][c])
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("#" + strconv.Itoa(t.n*10) + "\n")
	return bw.Flush()
}

func (t *Trace) vcdValue(w *bufio.Writer, i int, v *uint256.Int) {
	s := &t.sigs[i]
	if s.Width == 1 {
		w.WriteString(strconv.FormatUint(v.Uint64(), 2) + s.Name + "\n")
		return
	}
	w.WriteString("b" + v.ToBig().Text(2) + " " + s.Name + "\n")
}
