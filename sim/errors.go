// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"fmt"
	"strconv"

	"github.com/db47h/rtlsim"
	"github.com/pkg/errors"
)

// ErrorKind classifies simulation errors.
//
type ErrorKind int

// Simulation error kinds.
//
const (
	// MissingInput: a circuit input has no value for the current cycle.
	MissingInput ErrorKind = iota
	// WidthMismatch: an input value does not fit the input width, or a ROM
	// function returned a value wider than the memory.
	WidthMismatch
	// NotAnInput: a value was supplied for a signal that is not an input.
	NotAnInput
	// UninitializedRegister: a register has no initial value and the graph
	// requires one.
	UninitializedRegister
	// CombinationalCycle: the graph has a combinational loop.
	CombinationalCycle
	// InvalidInitial: an initial register or memory value is invalid.
	InvalidInitial
	// Halted: the simulation was stopped by an earlier error.
	Halted
	// BadStep: invalid arguments to StepMultiple.
	BadStep
	// ROMOutOfRange: a ROM was read past the end of its data.
	ROMOutOfRange
)

var kindNames = [...]string{
	MissingInput:          "missing input",
	WidthMismatch:         "width mismatch",
	NotAnInput:            "not an input",
	UninitializedRegister: "uninitialized register",
	CombinationalCycle:    "combinational cycle",
	InvalidInitial:        "invalid initial state",
	Halted:                "simulation halted",
	BadStep:               "bad step",
	ROMOutOfRange:         "ROM read out of range",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// SimulationError reports a failed cycle. Cycle is the zero based index of the
// failing cycle and Signal the offending signal, or rtlsim.NoSignal.
//
type SimulationError struct {
	Kind   ErrorKind
	Cycle  int
	Signal rtlsim.SignalID
	// Addr is the offending memory address of ROMOutOfRange errors.
	Addr uint64
	Msg  string
	// Err is the underlying error, if any.
	Err error
}

func (e *SimulationError) Error() string {
	s := e.Kind.String() + " at cycle " + strconv.Itoa(e.Cycle)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying error.
//
func (e *SimulationError) Unwrap() error { return e.Err }

func simErr(kind ErrorKind, cycle int, s rtlsim.SignalID, format string, args ...interface{}) error {
	return errors.WithStack(&SimulationError{
		Kind:   kind,
		Cycle:  cycle,
		Signal: s,
		Msg:    fmt.Sprintf(format, args...),
	})
}

// IsKind reports whether err is a *SimulationError of the given kind.
//
func IsKind(err error, kind ErrorKind) bool {
	var se *SimulationError
	return errors.As(err, &se) && se.Kind == kind
}
