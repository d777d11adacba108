// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package rtlsim

import (
	"strconv"

	"github.com/holiman/uint256"
)

// MemID identifies a memory in a Graph.
//
type MemID int32

// NoMem is the null MemID.
//
const NoMem MemID = -1

func (id MemID) String() string {
	if id == NoMem {
		return "<none>"
	}
	return "mem" + strconv.Itoa(int(id))
}

// MemSpec describes a memory block.
//
// Reads are combinational and see the contents as of the start of the cycle.
// Writes are committed at the end of the cycle. If Forward is set, a read from
// an address written during the same cycle returns the new data instead.
//
// A memory with ROM data or a ROMFunc is read-only: write ports are rejected
// and it cannot be initialized at simulation time. Reading a ROM past the end
// of its data halts the simulation unless PadWithZeros is set, in which case
// the read returns 0. ROMFunc values must fit the memory width.
//
type MemSpec struct {
	Name          string
	Width         int
	AddrWidth     int
	MaxReadPorts  int // 0 means unlimited
	MaxWritePorts int // 0 means unlimited
	Forward       bool
	ROM           []uint256.Int
	ROMFunc       func(addr uint64) uint64
	PadWithZeros  bool
}

// Memory is a view of a memory block. Views returned by a Graph are copies.
//
type Memory struct {
	MemSpec
	ID         MemID
	ReadPorts  []OpID
	WritePorts []OpID
}

// IsROM returns true for read-only memories.
//
func (m Memory) IsROM() bool { return m.ROM != nil || m.ROMFunc != nil }

// Size returns the number of addressable words. It saturates at the maximum
// uint64 for 64 bits addresses.
//
func (m Memory) Size() uint64 {
	if m.AddrWidth >= 64 {
		return ^uint64(0)
	}
	return 1 << uint(m.AddrWidth)
}

// AddMemory adds a memory block to g.
//
func (g *Graph) AddMemory(spec MemSpec) (MemID, error) {
	if spec.Width < 1 || spec.Width > MaxWidth {
		return NoMem, structErr(InvalidWidth, NoOp, NoSignal, "memory %q: width %d out of range [1, %d]", spec.Name, spec.Width, MaxWidth)
	}
	if spec.AddrWidth < 1 || spec.AddrWidth > MaxAddrWidth {
		return NoMem, structErr(InvalidWidth, NoOp, NoSignal, "memory %q: address width %d out of range [1, %d]", spec.Name, spec.AddrWidth, MaxAddrWidth)
	}
	id := MemID(len(g.mems))
	if spec.Name == "" {
		spec.Name = "mem" + strconv.Itoa(int(id))
	}
	for _, m := range g.mems {
		if m.Name == spec.Name {
			return NoMem, structErr(DuplicateName, NoOp, NoSignal, "memory name %q already in use", spec.Name)
		}
	}
	if spec.ROM != nil && spec.ROMFunc != nil {
		return NoMem, structErr(InvalidKind, NoOp, NoSignal, "ROM %q: both data and function given", spec.Name)
	}
	if spec.ROM != nil {
		if uint64(len(spec.ROM)) > (Memory{MemSpec: spec}).Size() {
			return NoMem, structErr(InvalidWidth, NoOp, NoSignal, "ROM %q: %d words do not fit in a %d bits address space", spec.Name, len(spec.ROM), spec.AddrWidth)
		}
		rom := make([]uint256.Int, len(spec.ROM))
		for i := range spec.ROM {
			if !Fits(&spec.ROM[i], spec.Width) {
				return NoMem, structErr(TypeMismatch, NoOp, NoSignal, "ROM %q: value %s at address %d does not fit in %d bits", spec.Name, spec.ROM[i].Hex(), i, spec.Width)
			}
			rom[i] = spec.ROM[i]
		}
		spec.ROM = rom
	}
	g.mems = append(g.mems, &Memory{MemSpec: spec, ID: id})
	return id, nil
}

func (g *Graph) mem(id MemID) (*Memory, bool) {
	if id < 0 || int(id) >= len(g.mems) {
		return nil, false
	}
	return g.mems[id], true
}

// Memory returns a copy of the memory with the given id.
//
func (g *Graph) Memory(id MemID) (Memory, bool) {
	m, ok := g.mem(id)
	if !ok {
		return Memory{}, false
	}
	return m.copy(), true
}

// Memories returns a copy of all memories in creation order.
//
func (g *Graph) Memories() []Memory {
	r := make([]Memory, len(g.mems))
	for i, m := range g.mems {
		r[i] = m.copy()
	}
	return r
}

func (m *Memory) copy() Memory {
	c := *m
	c.ReadPorts = append([]OpID(nil), m.ReadPorts...)
	c.WritePorts = append([]OpID(nil), m.WritePorts...)
	if m.ROM != nil {
		c.ROM = append([]uint256.Int(nil), m.ROM...)
	}
	return c
}

func (m *Memory) removePort(id OpID) {
	del := func(ps []OpID) []OpID {
		for i, p := range ps {
			if p == id {
				return append(ps[:i:i], ps[i+1:]...)
			}
		}
		return ps
	}
	m.ReadPorts = del(m.ReadPorts)
	m.WritePorts = del(m.WritePorts)
}
