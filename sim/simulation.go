// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sim

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/db47h/rtlsim"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// levels narrower than this are always evaluated sequentially.
const minParallel = 64

// Options configures a Simulation.
//
type Options struct {
	// RegisterValues sets the initial value of registers. It takes precedence
	// over register reset values.
	RegisterValues map[rtlsim.SignalID]uint64
	// MemoryValues sets the initial contents of writable memories. Locations
	// not listed read as 0.
	MemoryValues map[rtlsim.MemID]map[uint64]uint64
	// DefaultValue, if not nil, is the initial value of registers that have
	// neither an explicit initial value nor a reset value. If nil, the graph
	// register policy applies.
	DefaultValue *uint64
	// Trace lists the signals to record each cycle. If nil, every non
	// constant signal with a user given name is recorded.
	Trace []rtlsim.SignalID
	// Workers is the number of goroutines used to evaluate independent
	// operations. Values less than 2 select sequential evaluation.
	Workers int
	// Logger receives debug information. If nil, nothing is logged.
	Logger *slog.Logger
}

// Simulation is a running simulation of a Program. Each Simulation owns its
// register and memory state. A Simulation is not safe for concurrent use.
//
type Simulation struct {
	p       *Program
	vals    []uint256.Int // by slot
	regs    []uint256.Int // committed register state
	mems    []map[uint64]uint256.Int
	eval    []func() error // same order as p.order
	cycle   int
	trace   *Trace
	err     error
	workers int
	log     *slog.Logger
}

// CycleResult holds the value of every signal during one cycle.
//
type CycleResult struct {
	Cycle int
	p     *Program
	vals  []uint256.Int
}

// Value returns the value of signal id during the cycle.
//
func (r CycleResult) Value(id rtlsim.SignalID) (uint256.Int, bool) {
	if r.p == nil {
		return uint256.Int{}, false
	}
	_, slot, ok := r.p.signal(id)
	if !ok {
		return uint256.Int{}, false
	}
	return r.vals[slot], true
}

// Uint64 returns the low 64 bits of the value of signal id during the cycle.
//
func (r CycleResult) Uint64(id rtlsim.SignalID) uint64 {
	v, _ := r.Value(id)
	return v.Uint64()
}

// New compiles g and returns a new Simulation.
//
func New(g *rtlsim.Graph, opts Options) (*Simulation, error) {
	p, err := Compile(g)
	if err != nil {
		return nil, err
	}
	return p.New(opts)
}

// New returns a new Simulation of p.
//
// Registers are initialized from, in order of precedence: opts.RegisterValues,
// their reset value, opts.DefaultValue and the graph register policy. With the
// RegisterMustInit policy, New fails with an UninitializedRegister error if a
// register gets no value.
//
func (p *Program) New(opts Options) (*Simulation, error) {
	s := &Simulation{
		p:       p,
		vals:    make([]uint256.Int, len(p.sigs)),
		regs:    make([]uint256.Int, len(p.regs)),
		mems:    make([]map[uint64]uint256.Int, len(p.mems)),
		workers: opts.Workers,
		log:     opts.Logger,
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for i, slot := range p.consts {
		s.vals[slot] = p.cvals[i]
	}
	if err := s.initRegisters(&opts); err != nil {
		return nil, err
	}
	if err := s.initMemories(&opts); err != nil {
		return nil, err
	}

	tr := opts.Trace
	if tr == nil {
		tr = p.trace
	}
	sigs := make([]rtlsim.Signal, 0, len(tr))
	for _, id := range tr {
		sig, _, ok := p.signal(id)
		if !ok {
			return nil, simErr(InvalidInitial, 0, id, "cannot trace unknown signal %v", id)
		}
		sigs = append(sigs, sig)
	}
	s.trace = newTrace(sigs)

	s.eval = make([]func() error, len(p.order))
	for i := range p.order {
		s.eval[i] = s.component(&p.order[i])
	}
	s.log.Debug("simulation ready",
		slog.Int("signals", len(p.sigs)),
		slog.Int("ops", len(p.order)),
		slog.Int("levels", len(p.levels)),
		slog.Int("registers", len(p.regs)),
		slog.Int("memories", len(p.mems)),
		slog.Int("workers", s.workers))
	return s, nil
}

func (s *Simulation) initRegisters(opts *Options) error {
	p := s.p
	for id, v := range opts.RegisterValues {
		sig, _, ok := p.signal(id)
		if !ok || sig.Kind != rtlsim.KindRegister {
			return simErr(InvalidInitial, 0, id, "%v is not a register", id)
		}
		if !rtlsim.Fits(uint256.NewInt(v), sig.Width) {
			return simErr(InvalidInitial, 0, id, "initial value %d does not fit register %q (%d bits)", v, sig.Name, sig.Width)
		}
	}
	for i := range p.regs {
		r := &p.regs[i]
		sig := p.sigs[r.slot]
		if v, ok := opts.RegisterValues[r.id]; ok {
			s.regs[i].SetUint64(v)
		} else if r.reset != nil {
			s.regs[i] = *r.reset
		} else if opts.DefaultValue != nil {
			if !rtlsim.Fits(uint256.NewInt(*opts.DefaultValue), sig.Width) {
				return simErr(InvalidInitial, 0, r.id, "default value %d does not fit register %q (%d bits)", *opts.DefaultValue, sig.Name, sig.Width)
			}
			s.regs[i].SetUint64(*opts.DefaultValue)
		} else if p.policy == rtlsim.RegisterMustInit {
			return simErr(UninitializedRegister, 0, r.id, "register %q has no initial value", sig.Name)
		}
		s.vals[r.slot] = s.regs[i]
	}
	return nil
}

func (s *Simulation) initMemories(opts *Options) error {
	p := s.p
	for id := range opts.MemoryValues {
		if id < 0 || int(id) >= len(p.mems) {
			return simErr(InvalidInitial, 0, rtlsim.NoSignal, "memory %v does not exist", id)
		}
		if p.mems[id].IsROM() {
			return simErr(InvalidInitial, 0, rtlsim.NoSignal, "memory %q is read-only", p.mems[id].Name)
		}
	}
	for i := range p.mems {
		m := &p.mems[i]
		if m.IsROM() {
			continue
		}
		store := make(map[uint64]uint256.Int)
		for a, v := range opts.MemoryValues[m.ID] {
			if m.AddrWidth < 64 && a >= m.Size() {
				return simErr(InvalidInitial, 0, rtlsim.NoSignal, "memory %q: address %d out of range", m.Name, a)
			}
			var x uint256.Int
			x.SetUint64(v)
			if !rtlsim.Fits(&x, m.Width) {
				return simErr(InvalidInitial, 0, rtlsim.NoSignal, "memory %q: value %d at address %d does not fit in %d bits", m.Name, v, a, m.Width)
			}
			store[a] = x
		}
		s.mems[i] = store
	}
	return nil
}

// component returns a closure that evaluates d and stores the result in its
// destination slot.
func (s *Simulation) component(d *opDesc) func() error {
	dst := &s.vals[d.dest]
	if d.op.Kind != rtlsim.OpMemRead {
		args := make([]*uint256.Int, len(d.args))
		for i, a := range d.args {
			args[i] = &s.vals[a]
		}
		kind, bits, widths, width := d.op.Kind, d.op.Bits, d.widths, d.width
		return func() error {
			rtlsim.Apply(dst, kind, bits, args, widths, width)
			return nil
		}
	}

	m := &s.p.mems[d.mem]
	addr := &s.vals[d.args[0]]
	dest := d.op.Dest
	switch {
	case m.ROMFunc != nil:
		f, name, width := m.ROMFunc, m.Name, m.Width
		return func() error {
			a := addr.Uint64()
			dst.SetUint64(f(a))
			if !rtlsim.Fits(dst, width) {
				return simErr(WidthMismatch, s.cycle, dest, "ROM %q: value %s at address %d does not fit in %d bits", name, dst.Dec(), a, width)
			}
			return nil
		}
	case m.IsROM():
		rom, name, pad := m.ROM, m.Name, m.PadWithZeros
		return func() error {
			a := addr.Uint64()
			if a < uint64(len(rom)) {
				dst.Set(&rom[a])
				return nil
			}
			if pad {
				dst.Clear()
				return nil
			}
			return errors.WithStack(&SimulationError{
				Kind:   ROMOutOfRange,
				Cycle:  s.cycle,
				Signal: dest,
				Addr:   a,
				Msg:    fmt.Sprintf("ROM %q: address %d past the end of its %d words of data", name, a, len(rom)),
			})
		}
	}
	store := s.mems[d.mem]
	if !m.Forward {
		return func() error {
			v := store[addr.Uint64()]
			dst.Set(&v)
			return nil
		}
	}
	type port struct{ addr, data, en *uint256.Int }
	ports := make([]port, len(m.writes))
	for i, w := range m.writes {
		wd := &s.p.writes[w]
		ports[i] = port{&s.vals[wd.addr], &s.vals[wd.data], &s.vals[wd.en]}
	}
	return func() error {
		a := addr.Uint64()
		v := store[a]
		for i := range ports {
			if !ports[i].en.IsZero() && ports[i].addr.Uint64() == a {
				v = *ports[i].data
			}
		}
		dst.Set(&v)
		return nil
	}
}

// Cycle returns the number of completed cycles.
//
func (s *Simulation) Cycle() int { return s.cycle }

// Trace returns the trace of completed cycles.
//
func (s *Simulation) Trace() *Trace { return s.trace }

// Err returns the error that halted the simulation, if any.
//
func (s *Simulation) Err() error { return s.err }

// Step runs one cycle with the given input values.
//
func (s *Simulation) Step(in map[rtlsim.SignalID]uint64) (CycleResult, error) {
	w := make(map[rtlsim.SignalID]uint256.Int, len(in))
	for id, v := range in {
		w[id] = *uint256.NewInt(v)
	}
	return s.StepWide(w)
}

// StepNamed runs one cycle with input values given by signal name.
//
func (s *Simulation) StepNamed(in map[string]uint64) (CycleResult, error) {
	if s.err != nil {
		return CycleResult{}, s.halted()
	}
	w := make(map[rtlsim.SignalID]uint256.Int, len(in))
	names := make([]string, 0, len(in))
	for n := range in {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		id, ok := s.p.names[n]
		if !ok {
			return CycleResult{}, s.fail(simErr(NotAnInput, s.cycle, rtlsim.NoSignal, "no signal named %q", n))
		}
		w[id] = *uint256.NewInt(in[n])
	}
	return s.StepWide(w)
}

// StepWide runs one cycle: it binds inputs, evaluates combinational logic and
// commits registers and memory writes.
//
// Any error halts the simulation: subsequent calls return a Halted error
// wrapping the first one. The trace of completed cycles remains available.
//
func (s *Simulation) StepWide(in map[rtlsim.SignalID]uint256.Int) (CycleResult, error) {
	if s.err != nil {
		return CycleResult{}, s.halted()
	}
	if err := s.bind(in); err != nil {
		return CycleResult{}, s.fail(err)
	}
	p := s.p
	for i := range p.regs {
		s.vals[p.regs[i].slot] = s.regs[i]
	}
	if err := s.evaluate(); err != nil {
		return CycleResult{}, s.fail(err)
	}
	s.trace.record(s.p, s.vals)
	s.commit()

	r := CycleResult{Cycle: s.cycle, p: p, vals: append([]uint256.Int(nil), s.vals...)}
	s.cycle++
	return r, nil
}

func (s *Simulation) fail(err error) error {
	s.err = err
	s.log.Debug("simulation halted", slog.Int("cycle", s.cycle), slog.String("error", err.Error()))
	return err
}

func (s *Simulation) halted() error {
	return errors.WithStack(&SimulationError{
		Kind:   Halted,
		Cycle:  s.cycle,
		Signal: rtlsim.NoSignal,
		Err:    s.err,
	})
}

func (s *Simulation) bind(in map[rtlsim.SignalID]uint256.Int) error {
	p := s.p
	ids := make([]rtlsim.SignalID, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		sig, _, ok := p.signal(id)
		if !ok || sig.Kind != rtlsim.KindInput {
			return simErr(NotAnInput, s.cycle, id, "%v is not an input", id)
		}
		v := in[id]
		if !rtlsim.Fits(&v, sig.Width) {
			return simErr(WidthMismatch, s.cycle, id, "value %s does not fit input %q (%d bits)", v.Dec(), sig.Name, sig.Width)
		}
	}
	for _, slot := range p.inputs {
		sig := &p.sigs[slot]
		v, ok := in[sig.ID]
		if !ok {
			return simErr(MissingInput, s.cycle, sig.ID, "no value for input %q", sig.Name)
		}
		s.vals[slot] = v
	}
	return nil
}

func (s *Simulation) evaluate() error {
	if s.workers < 2 {
		for _, f := range s.eval {
			if err := f(); err != nil {
				return err
			}
		}
		return nil
	}
	for _, lvl := range s.p.levels {
		if len(lvl) < minParallel {
			for _, i := range lvl {
				if err := s.eval[i](); err != nil {
					return err
				}
			}
			continue
		}
		var g errgroup.Group
		g.SetLimit(s.workers)
		size := (len(lvl) + s.workers - 1) / s.workers
		for lo := 0; lo < len(lvl); lo += size {
			chunk := lvl[lo:min(lo+size, len(lvl))]
			g.Go(func() error {
				for _, i := range chunk {
					if err := s.eval[i](); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) commit() {
	p := s.p
	resetting := p.reset >= 0 && !s.vals[p.reset].IsZero()
	for i := range p.regs {
		r := &p.regs[i]
		if resetting && r.reset != nil {
			s.regs[i] = *r.reset
		} else {
			s.regs[i] = s.vals[r.next]
		}
	}
	for i := range p.writes {
		w := &p.writes[i]
		if s.vals[w.en].IsZero() {
			continue
		}
		s.mems[w.mem][s.vals[w.addr].Uint64()] = s.vals[w.data]
	}
}

// Inspect returns the value of signal id during the last completed cycle.
// Before the first cycle, registers hold their initial value and other
// signals read as 0.
//
func (s *Simulation) Inspect(id rtlsim.SignalID) (uint256.Int, bool) {
	_, slot, ok := s.p.signal(id)
	if !ok {
		return uint256.Int{}, false
	}
	return s.vals[slot], true
}

// RegisterValue returns the committed value of register id, that is the value
// it will hold during the next cycle.
//
func (s *Simulation) RegisterValue(id rtlsim.SignalID) (uint256.Int, bool) {
	for i := range s.p.regs {
		if s.p.regs[i].id == id {
			return s.regs[i], true
		}
	}
	return uint256.Int{}, false
}

// InspectMem returns a copy of the contents of memory id. Locations never
// written are omitted. For read-only memories, the ROM data is returned; the
// map is empty for ROMs defined by a function.
//
func (s *Simulation) InspectMem(id rtlsim.MemID) (map[uint64]uint256.Int, bool) {
	if id < 0 || int(id) >= len(s.p.mems) {
		return nil, false
	}
	r := make(map[uint64]uint256.Int)
	if m := &s.p.mems[id]; m.IsROM() {
		for a := range m.ROM {
			r[uint64(a)] = m.ROM[a]
		}
		return r, true
	}
	for a, v := range s.mems[id] {
		r[a] = v
	}
	return r, true
}
