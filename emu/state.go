package emu

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/smt"
)

// Status is the lifecycle state of a path.
type Status uint8

// Path statuses.
const (
	StatusRunning Status = iota
	StatusAborted
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusAborted:
		return "aborted"
	case StatusFinished:
		return "finished"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// State is the machine state of one symbolic path. A state is owned by a
// single path; forking clones it.
type State struct {
	ID     uint64
	Regs   *RegFile
	Mem    *Memory
	Solver smt.Solver

	// Cycles is the estimated cycle count so far.
	Cycles uint64
	// Steps is the number of instructions executed.
	Steps uint64

	Status      Status
	AbortReason string
	// AbortPC is the address of the instruction that aborted the path.
	AbortPC uint32

	itConds   []insts.Cond
	locals    map[string]*smt.BV
	pcWritten bool
}

// StateOption configures a new state.
type StateOption func(*State)

// WithSolver sets the path's solver.
func WithSolver(s smt.Solver) StateOption {
	return func(st *State) {
		st.Solver = s
	}
}

// WithStackPointer sets the initial SP.
func WithStackPointer(sp uint32) StateOption {
	return func(st *State) {
		st.Regs.WriteReg32(insts.SP, sp)
	}
}

// NewState creates a state at entry over image. Registers start at zero.
func NewState(image Image, entry uint32, opts ...StateOption) *State {
	st := &State{
		Regs:   NewRegFile(),
		Mem:    NewMemory(image),
		locals: make(map[string]*smt.BV),
	}
	st.Regs.WriteReg32(insts.PC, entry&^1)
	for _, opt := range opts {
		opt(st)
	}
	if st.Solver == nil {
		st.Solver = smt.NewSolver()
	}
	return st
}

// Clone duplicates the state, including its path constraints.
func (s *State) Clone() *State {
	c := &State{
		ID:          s.ID,
		Regs:        s.Regs.Clone(),
		Mem:         s.Mem.Clone(),
		Solver:      s.Solver.Clone(),
		Cycles:      s.Cycles,
		Steps:       s.Steps,
		Status:      s.Status,
		AbortReason: s.AbortReason,
		AbortPC:     s.AbortPC,
		itConds:     append([]insts.Cond(nil), s.itConds...),
		locals:      make(map[string]*smt.BV, len(s.locals)),
		pcWritten:   s.pcWritten,
	}
	for k, v := range s.locals {
		c.locals[k] = v
	}
	return c
}

// PC returns the current instruction address when it is concrete.
func (s *State) PC() (uint32, bool) {
	v, ok := s.Regs.ReadReg(insts.PC).Value()
	return uint32(v), ok
}

// MakeSymbolic replaces a register with a fresh symbol.
func (s *State) MakeSymbolic(r insts.Register, name string) *smt.BV {
	sym := smt.BVSymbol(name, 32)
	s.Regs.WriteReg(r, sym)
	return sym
}

// Constrain adds a path constraint.
func (s *State) Constrain(c *smt.BV) {
	s.Solver.Assert(c)
}

// InITBlock reports whether the next instruction is IT-gated.
func (s *State) InITBlock() bool {
	return len(s.itConds) > 0
}

// ITConditions returns the pending IT conditions.
func (s *State) ITConditions() []insts.Cond {
	return append([]insts.Cond(nil), s.itConds...)
}

// Abort terminates the path.
func (s *State) Abort(reason string) {
	s.Status = StatusAborted
	s.AbortReason = reason
	if pc, ok := s.PC(); ok {
		s.AbortPC = pc
	}
}

// Local returns an instruction-scoped value left by the last execution.
func (s *State) Local(name string) (*smt.BV, bool) {
	v, ok := s.locals[name]
	return v, ok
}

func (s *State) clearLocals() {
	s.locals = make(map[string]*smt.BV)
}
