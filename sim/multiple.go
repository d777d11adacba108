// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"fmt"
	"io"
	"sort"

	"github.com/db47h/rtlsim"
	"github.com/db47h/rtlsim/internal/lit"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// DontCare is the expected value that matches anything.
//
const DontCare = "?"

// StepMultipleOptions configures StepMultiple.
//
type StepMultipleOptions struct {
	// NSteps is the number of cycles to run. If 0, it defaults to the number
	// of values supplied for each input.
	NSteps int
	// Report, if not nil, receives a table of unexpected output values.
	Report io.Writer
	// StopAfterFirstError stops the simulation after the first cycle with an
	// unexpected output value.
	StopAfterFirstError bool
}

// A Mismatch is an unexpected output value.
//
type Mismatch struct {
	Step     int // relative to the first cycle run by StepMultiple
	Name     string
	Expected string
	Actual   uint256.Int
}

// StepMultiple runs several cycles. inputs gives the values of each input by
// name, one per cycle. expected optionally gives the expected values of
// signals, as literals like "42", "8'hff" or DontCare, one per cycle.
//
// Mismatching values are returned and, if opts.Report is set, written as a
// table to opts.Report once the run completes.
//
func (s *Simulation) StepMultiple(inputs map[string][]uint64, expected map[string][]string, opts StepMultipleOptions) ([]Mismatch, error) {
	nsteps := opts.NSteps
	if nsteps == 0 && len(inputs) == 0 {
		return nil, simErr(BadStep, s.cycle, rtlsim.NoSignal, "need to supply either input values or a number of steps to simulate")
	}
	if len(inputs) > 0 {
		longest := 0
		for _, vs := range inputs {
			if len(vs) > longest {
				longest = len(vs)
			}
		}
		if nsteps == 0 {
			nsteps = longest
		} else if nsteps > longest {
			return nil, simErr(BadStep, s.cycle, rtlsim.NoSignal, "nsteps is specified but is greater than the number of values supplied for each input")
		}
	}
	if nsteps < 1 {
		return nil, simErr(BadStep, s.cycle, rtlsim.NoSignal, "must simulate at least one step")
	}
	for _, vs := range inputs {
		if len(vs) < nsteps {
			return nil, simErr(BadStep, s.cycle, rtlsim.NoSignal, "must supply a value for each provided wire for each step of simulation")
		}
	}
	for _, vs := range expected {
		if len(vs) < nsteps {
			return nil, simErr(BadStep, s.cycle, rtlsim.NoSignal, "any expected outputs must have a supplied value each step of simulation")
		}
	}

	type check struct {
		name string
		id   rtlsim.SignalID
		want []*uint256.Int // nil for DontCare
	}
	checks := make([]check, 0, len(expected))
	for name, vs := range expected {
		sig, ok := s.p.Lookup(name)
		if !ok {
			return nil, simErr(BadStep, s.cycle, rtlsim.NoSignal, "no signal named %q", name)
		}
		c := check{name: name, id: sig.ID, want: make([]*uint256.Int, nsteps)}
		for i, v := range vs[:nsteps] {
			if v == DontCare {
				continue
			}
			x, _, err := lit.Parse(v)
			if err != nil {
				return nil, errors.WithStack(&SimulationError{Kind: BadStep, Cycle: s.cycle, Signal: sig.ID, Msg: "expected value for " + name, Err: err})
			}
			c.want[i] = &x
		}
		checks = append(checks, c)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].name < checks[j].name })

	var mismatches []Mismatch
	in := make(map[string]uint64, len(inputs))
	for i := 0; i < nsteps; i++ {
		for name, vs := range inputs {
			in[name] = vs[i]
		}
		r, err := s.StepNamed(in)
		if err != nil {
			return mismatches, err
		}
		failed := false
		for _, c := range checks {
			if c.want[i] == nil {
				continue
			}
			got, _ := r.Value(c.id)
			if !got.Eq(c.want[i]) {
				failed = true
				mismatches = append(mismatches, Mismatch{Step: i, Name: c.name, Expected: expected[c.name][i], Actual: got})
			}
		}
		if failed && opts.StopAfterFirstError {
			break
		}
	}

	if len(mismatches) > 0 && opts.Report != nil {
		if err := writeReport(opts.Report, mismatches, opts.StopAfterFirstError); err != nil {
			return mismatches, err
		}
	}
	return mismatches, nil
}

func writeReport(w io.Writer, ms []Mismatch, stopped bool) error {
	header := "Unexpected output on one or more steps:\n"
	if stopped {
		header = "Unexpected output (stopped after step with first error):\n"
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%5s %10s %8s %8s\n", "step", "name", "expected", "actual"); err != nil {
		return err
	}
	for _, m := range ms {
		if _, err := fmt.Fprintf(w, "%5d %10s %8s %8s\n", m.Step, m.Name, m.Expected, m.Actual.Dec()); err != nil {
			return err
		}
	}
	return nil
}
