// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import "strconv"

// SignalID identifies a signal in a Graph. IDs are never reused, even after
// the signal has been removed by an optimization pass.
//
type SignalID int32

// NoSignal is the null SignalID.
//
const NoSignal SignalID = -1

func (id SignalID) String() string {
	if id == NoSignal {
		return "<none>"
	}
	return "s" + strconv.Itoa(int(id))
}

// SignalKind is the semantic kind of a signal.
//
type SignalKind uint8

// Signal kinds.
//
const (
	KindWire SignalKind = iota
	KindInput
	KindOutput
	KindRegister
	KindConst
)

var signalKinds = [...]string{
	KindWire:     "wire",
	KindInput:    "input",
	KindOutput:   "output",
	KindRegister: "register",
	KindConst:    "const",
}

func (k SignalKind) String() string {
	if int(k) >= len(signalKinds) {
		return "SignalKind(" + strconv.Itoa(int(k)) + ")"
	}
	return signalKinds[k]
}

// Signal is a read-only view of a fixed-width signal.
//
type Signal struct {
	ID    SignalID
	Name  string
	Width int
	Kind  SignalKind
	// Temp is set when the name was generated by the graph.
	Temp bool
}

// driven reports whether signals of kind k need a producer.
func (k SignalKind) driven() bool {
	return k == KindWire || k == KindOutput || k == KindRegister
}
