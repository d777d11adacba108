// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import "strconv"

// OpID identifies an operation node in a Graph.
//
type OpID int32

// NoOp is the null OpID.
//
const NoOp OpID = -1

func (id OpID) String() string {
	if id == NoOp {
		return "<none>"
	}
	return "op" + strconv.Itoa(int(id))
}

// OpKind is the operation performed by a node.
//
type OpKind uint8

// Operation kinds.
//
const (
	OpWire OpKind = iota
	OpNot
	OpAnd
	OpOr
	OpXor
	OpNand
	OpAdd
	OpSub
	OpMul
	OpEq
	OpLt
	OpGt
	OpConcat
	OpSelect
	OpMux
	OpReg
	OpMemRead
	OpMemWrite
	opCount
)

var opNames = [...]string{
	OpWire:     "wire",
	OpNot:      "not",
	OpAnd:      "and",
	OpOr:       "or",
	OpXor:      "xor",
	OpNand:     "nand",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpEq:       "eq",
	OpLt:       "lt",
	OpGt:       "gt",
	OpConcat:   "concat",
	OpSelect:   "select",
	OpMux:      "mux",
	OpReg:      "reg",
	OpMemRead:  "memread",
	OpMemWrite: "memwrite",
}

// symbols used in DOT output
var opSymbols = [...]string{
	OpWire:     "w",
	OpNot:      "~",
	OpAnd:      "&",
	OpOr:       "|",
	OpXor:      "^",
	OpNand:     "n",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpEq:       "=",
	OpLt:       "<",
	OpGt:       ">",
	OpConcat:   "c",
	OpSelect:   "s",
	OpMux:      "x",
	OpReg:      "r",
	OpMemRead:  "m",
	OpMemWrite: "@",
}

func (k OpKind) String() string {
	if k >= opCount {
		return "OpKind(" + strconv.Itoa(int(k)) + ")"
	}
	return opNames[k]
}

// IsDelay returns true for operations whose effect is only visible on the
// next cycle. Edges through delay operations may close loops.
//
func (k OpKind) IsDelay() bool {
	return k == OpReg || k == OpMemWrite
}

// IsCombinational returns true for operations that Apply can evaluate.
//
func (k OpKind) IsCombinational() bool {
	return k < OpReg
}

// Param holds the kind specific parameters of an operation.
//
type Param struct {
	Bits []int // OpSelect: source bit index for each destination bit
	Mem  MemID // OpMemRead, OpMemWrite
}

// Op is a read-only view of an operation node.
//
type Op struct {
	ID   OpID
	Kind OpKind
	Args []SignalID
	// Dest is NoSignal for memory write ports.
	Dest SignalID
	Bits []int
	Mem  MemID
}
