package emu

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/semantics"
	"github.com/sarchlab/cortexsym/smt"
)

// ErrMaxForks is returned when one instruction forks more paths than the
// executor allows.
var ErrMaxForks = errors.New("emu: fork limit exceeded")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Inst is the executed instruction.
	Inst insts.Instruction

	// States are the paths that continue after the instruction. A fork
	// yields more than one.
	States []*State

	// Terminated are the paths that aborted during the instruction.
	Terminated []*State

	// Err is set if the instruction could not be executed.
	Err error
}

// CostModel estimates the cycles an instruction takes. pc is the address
// the instruction was fetched from; branched is set when it wrote PC.
type CostModel interface {
	Cycles(pc uint32, inst insts.Instruction, branched bool) uint64
}

type unitCost struct{}

func (unitCost) Cycles(uint32, insts.Instruction, bool) uint64 { return 1 }

// Executor runs instructions symbolically, forking paths where the
// outcome depends on symbolic values.
type Executor struct {
	disasm    insts.Disassembler
	semantics *semantics.Decoder
	logger    *logrus.Logger
	cost      CostModel

	maxForks      int
	solutionLimit int
	nextID        uint64
}

// ExecutorOption is a functional option for configuring the Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger for per-step and fork events.
func WithLogger(l *logrus.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithCostModel sets the cycle cost model.
func WithCostModel(c CostModel) ExecutorOption {
	return func(e *Executor) {
		e.cost = c
	}
}

// WithMaxForks limits the paths a single instruction may produce.
// A value of 0 means no limit.
func WithMaxForks(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxForks = n
	}
}

// WithAddressSolutionLimit bounds how many concrete values a symbolic
// address or branch target is enumerated into.
func WithAddressSolutionLimit(n int) ExecutorOption {
	return func(e *Executor) {
		e.solutionLimit = n
	}
}

// NewExecutor creates an executor fetching instructions from disasm.
func NewExecutor(disasm insts.Disassembler, opts ...ExecutorOption) *Executor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := &Executor{
		disasm:        disasm,
		semantics:     semantics.NewDecoder(),
		logger:        logger,
		cost:          unitCost{},
		maxForks:      64,
		solutionLimit: 16,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step executes the instruction at the state's PC. The state passed in is
// consumed: it is either continued, forked or terminated.
func (e *Executor) Step(st *State) StepResult {
	if st.Status != StatusRunning {
		return StepResult{Err: fmt.Errorf("emu: step of %s path", st.Status)}
	}
	pc, ok := st.PC()
	if !ok {
		return StepResult{Err: fmt.Errorf("emu: symbolic PC")}
	}

	inst, size, err := e.disasm.DecodeAt(pc)
	if err != nil {
		return StepResult{Err: fmt.Errorf("emu: decode at %#08x: %w", pc, err)}
	}

	inIT := st.InITBlock()
	cond := insts.CondAL
	if inIT {
		cond = st.itConds[0]
		st.itConds = st.itConds[1:]
	}
	ops := semantics.Gate(cond, e.semantics.Decode(inst, inIT))

	e.logger.WithFields(logrus.Fields{
		"path": st.ID,
		"pc":   fmt.Sprintf("%#08x", pc),
		"inst": inst.String(),
		"cond": cond.String(),
	}).Debug("step")
	if e.logger.IsLevelEnabled(logrus.TraceLevel) {
		e.logger.WithField("path", st.ID).Trace("ir:\n" + ir.Format(ops))
	}

	states, err := e.Execute(st, ops)
	result := StepResult{Inst: inst, Err: err}
	if err != nil {
		return result
	}

	for _, s := range states {
		if s.Status == StatusAborted {
			s.AbortPC = pc
			e.logger.WithFields(logrus.Fields{
				"path":   s.ID,
				"pc":     fmt.Sprintf("%#08x", pc),
				"reason": s.AbortReason,
			}).Debug("abort")
			result.Terminated = append(result.Terminated, s)
			continue
		}

		s.Steps++
		s.Cycles += e.cost.Cycles(pc, inst, s.pcWritten)
		if !s.pcWritten {
			s.Regs.WriteReg32(insts.PC, pc+size)
			result.States = append(result.States, s)
			continue
		}
		result.States = append(result.States, e.concretizePC(s)...)
	}
	return result
}

// concretizePC forks a path whose PC is symbolic once per feasible
// target.
func (e *Executor) concretizePC(s *State) []*State {
	target := s.Regs.ReadReg(insts.PC)
	if _, ok := target.Value(); ok {
		return []*State{s}
	}

	vals, err := s.Solver.Solutions(target, e.solutionLimit)
	if err != nil {
		e.logger.WithError(err).WithField("path", s.ID).Warn("branch target unresolved")
		s.Abort(fmt.Sprintf("unresolved branch target: %v", err))
		return []*State{s}
	}

	out := make([]*State, 0, len(vals))
	for i, v := range vals {
		fork := s
		if i < len(vals)-1 {
			fork = s.Clone()
			fork.ID = e.newID()
		}
		fork.Constrain(target.Eq(smt.BVConst(v, 32)))
		fork.Regs.WriteReg32(insts.PC, uint32(v))
		out = append(out, fork)
	}
	return out
}

func (e *Executor) newID() uint64 {
	e.nextID++
	return e.nextID
}

// Adopt gives a state a fresh path identifier.
func (e *Executor) Adopt(st *State) {
	st.ID = e.newID()
}

// Execute runs one instruction's operations against st and returns every
// resulting path, aborted ones included. Locals are reset first. PC is
// not advanced.
func (e *Executor) Execute(st *State, ops []ir.Operation) ([]*State, error) {
	pc, _ := st.PC()
	st.clearLocals()
	st.pcWritten = false

	run := &execution{e: e, pc: pc}
	return run.run(st, [][]ir.Operation{ops})
}

// execution runs one instruction across all of its paths.
type execution struct {
	e     *Executor
	pc    uint32
	paths int
}

func (r *execution) fork(st *State) (*State, error) {
	r.paths++
	if r.e.maxForks > 0 && r.paths >= r.e.maxForks {
		return nil, fmt.Errorf("%w: %d paths at %#08x", ErrMaxForks, r.paths+1, r.pc)
	}
	c := st.Clone()
	c.ID = r.e.newID()
	r.e.logger.WithFields(logrus.Fields{
		"path": st.ID,
		"fork": c.ID,
		"pc":   fmt.Sprintf("%#08x", r.pc),
	}).Debug("fork")
	return c, nil
}

// run executes the operation stack. The top frame runs first; Ite pushes
// the chosen branch as a new frame.
func (r *execution) run(st *State, stack [][]ir.Operation) ([]*State, error) {
	var out []*State

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if len(top) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		op := top[0]
		stack[len(stack)-1] = top[1:]

		switch o := op.(type) {
		case ir.Abort:
			st.Abort(o.Reason)
			return append(out, st), nil
		case ir.Ite:
			x := &step{st: st, pc: r.pc}
			cond := x.read(o.Cond).Bit(0)
			if x.pend != nil {
				stack[len(stack)-1] = top
				return r.resolve(out, st, stack, x.pend)
			}
			forks, err := r.branch(st, stack, cond, o.Then, o.Else)
			if err != nil {
				return nil, err
			}
			if forks.taken == nil {
				return append(out, forks.others...), nil
			}
			out = append(out, forks.others...)
			stack = forks.taken
		case ir.ConditionalJump:
			x := &step{st: st, pc: r.pc}
			target := x.read(o.Target)
			if x.pend != nil {
				stack[len(stack)-1] = top
				return r.resolve(out, st, stack, x.pend)
			}
			jump := []ir.Operation{ir.Move{Dst: ir.Reg(insts.PC), Src: ir.Imm(0, 32)}}
			if v, ok := target.Value(); ok {
				jump[0] = ir.Move{Dst: ir.Reg(insts.PC), Src: ir.Imm(v, 32)}
			} else {
				st.locals["jump.target"] = target
				jump[0] = ir.Move{Dst: ir.Reg(insts.PC), Src: ir.Local("jump.target")}
			}
			forks, err := r.branch(st, stack, CheckCondition(st.Regs, o.Cond), jump, nil)
			if err != nil {
				return nil, err
			}
			if forks.taken == nil {
				return append(out, forks.others...), nil
			}
			out = append(out, forks.others...)
			stack = forks.taken
		default:
			x := &step{st: st, pc: r.pc}
			x.apply(op)
			if x.pend != nil {
				stack[len(stack)-1] = top
				return r.resolve(out, st, stack, x.pend)
			}
		}
	}
	return append(out, st), nil
}

type branchOutcome struct {
	// taken is the stack st continues with, nil when st is infeasible.
	taken [][]ir.Operation
	// others are the finished paths of a fork.
	others []*State
}

// branch decides cond. A provable outcome continues st down one side; an
// undecided one forks, and the else side runs to completion first.
func (r *execution) branch(
	st *State,
	stack [][]ir.Operation,
	cond *smt.BV,
	then, els []ir.Operation,
) (branchOutcome, error) {
	push := func(s [][]ir.Operation, ops []ir.Operation) [][]ir.Operation {
		out := make([][]ir.Operation, len(s), len(s)+1)
		copy(out, s)
		return append(out, ops)
	}

	if v, ok := cond.Value(); ok {
		if v == 1 {
			return branchOutcome{taken: push(stack, then)}, nil
		}
		return branchOutcome{taken: push(stack, els)}, nil
	}

	thenSat := r.feasible(st, cond)
	elseSat := r.feasible(st, cond.Not())
	switch {
	case thenSat && !elseSat:
		return branchOutcome{taken: push(stack, then)}, nil
	case elseSat && !thenSat:
		return branchOutcome{taken: push(stack, els)}, nil
	case !thenSat && !elseSat:
		return branchOutcome{}, nil
	}

	other, err := r.fork(st)
	if err != nil {
		return branchOutcome{}, err
	}
	other.Constrain(cond.Not())
	st.Constrain(cond)

	others, err := r.run(other, push(stack, els))
	if err != nil {
		return branchOutcome{}, err
	}
	return branchOutcome{taken: push(stack, then), others: others}, nil
}

// feasible treats an unknown answer as satisfiable.
func (r *execution) feasible(st *State, cond *smt.BV) bool {
	ok, err := st.Solver.IsSat(cond)
	if errors.Is(err, smt.ErrUnknown) {
		r.e.logger.WithFields(logrus.Fields{
			"path": st.ID,
			"pc":   fmt.Sprintf("%#08x", r.pc),
		}).Warn("solver unknown, keeping both sides")
		return true
	}
	return ok
}

// resolve enumerates a pending value and retries the interrupted
// operation on one path per solution.
func (r *execution) resolve(out []*State, st *State, stack [][]ir.Operation, p *pending) ([]*State, error) {
	vals, err := st.Solver.Solutions(p.value, r.e.solutionLimit)
	if err != nil {
		r.e.logger.WithError(err).WithField("path", st.ID).Warn("cannot concretize " + p.what)
		st.Abort(fmt.Sprintf("cannot concretize %s: %v", p.what, err))
		return append(out, st), nil
	}
	if len(vals) == r.e.solutionLimit {
		r.e.logger.WithFields(logrus.Fields{
			"path":  st.ID,
			"what":  p.what,
			"limit": r.e.solutionLimit,
		}).Warn("solution limit reached, remaining values dropped")
	}

	for i, v := range vals {
		path := st
		if i < len(vals)-1 {
			var err error
			if path, err = r.fork(st); err != nil {
				return nil, err
			}
		}
		path.Constrain(p.value.Eq(smt.BVConst(v, p.value.Width())))
		p.bind(path, v)

		frames := make([][]ir.Operation, len(stack))
		copy(frames, stack)
		res, err := r.run(path, frames)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}
