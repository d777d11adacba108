// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies structural errors.
//
type ErrorKind int

// Structural error kinds.
//
const (
	TypeMismatch ErrorKind = iota
	CombinationalCycle
	DanglingReference
	InvalidWidth
	InvalidKind
	DuplicateDriver
	InvalidDriver
	DuplicateName
	Undriven
	PortLimit
	ReadOnly
	InUse
)

var kindNames = [...]string{
	TypeMismatch:       "type mismatch",
	CombinationalCycle: "combinational cycle",
	DanglingReference:  "dangling reference",
	InvalidWidth:       "invalid width",
	InvalidKind:        "invalid kind",
	DuplicateDriver:    "duplicate driver",
	InvalidDriver:      "invalid driver",
	DuplicateName:      "duplicate name",
	Undriven:           "undriven signal",
	PortLimit:          "port limit exceeded",
	ReadOnly:           "read-only memory",
	InUse:              "signal in use",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// StructuralError reports an ill-formed graph. Op and Signal identify the
// offending node when known and are set to NoOp and NoSignal otherwise.
//
type StructuralError struct {
	Kind   ErrorKind
	Op     OpID
	Signal SignalID
	Msg    string
}

func (e *StructuralError) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

func structErr(kind ErrorKind, op OpID, s SignalID, format string, args ...interface{}) error {
	return errors.WithStack(&StructuralError{
		Kind:   kind,
		Op:     op,
		Signal: s,
		Msg:    fmt.Sprintf(format, args...),
	})
}

// IsKind reports whether err is a *StructuralError of the given kind.
//
func IsKind(err error, kind ErrorKind) bool {
	var se *StructuralError
	return errors.As(err, &se) && se.Kind == kind
}
