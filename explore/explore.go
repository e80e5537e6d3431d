// Package explore schedules symbolic paths depth first.
package explore

import (
	"errors"
	"fmt"
	"io"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cortexsym/emu"
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/smt"
)

// Result collects the paths of one exploration.
type Result struct {
	// Finished paths reached a stop address.
	Finished []*emu.State
	// Aborted paths hit an Abort, or an instruction that could not be
	// fetched.
	Aborted []*emu.State
	// Exhausted paths ran out of step budget.
	Exhausted []*emu.State

	// Steps is the number of instructions executed across all paths.
	Steps uint64
}

// Paths returns every path in the result.
func (r *Result) Paths() []*emu.State {
	out := make([]*emu.State, 0, len(r.Finished)+len(r.Aborted)+len(r.Exhausted))
	out = append(out, r.Finished...)
	out = append(out, r.Aborted...)
	return append(out, r.Exhausted...)
}

// Explorer runs paths one at a time from a depth-first worklist.
type Explorer struct {
	ex     *emu.Executor
	logger *logrus.Logger

	stepBudget uint64
	maxPaths   int
	stops      map[uint32]bool
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithStepBudget limits the instructions a single path may execute.
func WithStepBudget(n uint64) Option {
	return func(x *Explorer) {
		x.stepBudget = n
	}
}

// WithMaxPaths limits the paths kept alive at once. 0 means no limit.
func WithMaxPaths(n int) Option {
	return func(x *Explorer) {
		x.maxPaths = n
	}
}

// WithStopAddresses finishes a path when it reaches any of addrs.
func WithStopAddresses(addrs ...uint32) Option {
	return func(x *Explorer) {
		for _, a := range addrs {
			x.stops[a&^1] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(x *Explorer) {
		x.logger = l
	}
}

// ErrTooManyPaths is returned when the worklist outgrows WithMaxPaths.
var ErrTooManyPaths = errors.New("explore: too many live paths")

// New creates an explorer driving ex.
func New(ex *emu.Executor, opts ...Option) *Explorer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	x := &Explorer{
		ex:         ex,
		logger:     logger,
		stepBudget: 10000,
		stops:      make(map[uint32]bool),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Run explores every path reachable from initial.
func (x *Explorer) Run(initial *emu.State) (*Result, error) {
	res := &Result{}
	work := arraystack.New()
	work.Push(initial)

	for !work.Empty() {
		v, _ := work.Pop()
		st := v.(*emu.State)

		pc, _ := st.PC()
		if x.stops[pc] {
			st.Status = emu.StatusFinished
			res.Finished = append(res.Finished, st)
			x.logger.WithFields(logrus.Fields{
				"path": st.ID,
				"pc":   fmt.Sprintf("%#08x", pc),
			}).Info("path finished")
			continue
		}
		if st.Steps >= x.stepBudget {
			res.Exhausted = append(res.Exhausted, st)
			x.logger.WithField("path", st.ID).Warn("step budget exhausted")
			continue
		}

		step := x.ex.Step(st)
		res.Steps++
		if step.Err != nil {
			if errors.Is(step.Err, emu.ErrMaxForks) {
				return res, step.Err
			}
			st.Abort(step.Err.Error())
			res.Aborted = append(res.Aborted, st)
			continue
		}
		for _, t := range step.Terminated {
			x.logger.WithFields(logrus.Fields{
				"path":   t.ID,
				"pc":     fmt.Sprintf("%#08x", t.AbortPC),
				"reason": t.AbortReason,
			}).Info("path aborted")
		}
		res.Aborted = append(res.Aborted, step.Terminated...)

		// Push in reverse so the first successor runs next.
		for i := len(step.States) - 1; i >= 0; i-- {
			work.Push(step.States[i])
		}
		if x.maxPaths > 0 && work.Size() > x.maxPaths {
			return res, fmt.Errorf("%w: %d", ErrTooManyPaths, work.Size())
		}
	}
	return res, nil
}

// Query reports whether reg can equal value on any path finished at addr,
// returning the first such path.
func (r *Result) Query(addr uint32, reg insts.Register, value uint32) (*emu.State, error) {
	for _, st := range r.Finished {
		if pc, _ := st.PC(); pc != addr&^1 {
			continue
		}
		ok, err := st.Solver.IsSat(st.Regs.ReadReg(reg).Eq(smt.BVConst(uint64(value), 32)))
		if err != nil {
			return nil, fmt.Errorf("query on path %d: %w", st.ID, err)
		}
		if ok {
			return st, nil
		}
	}
	return nil, nil
}

// Model returns concrete values for exprs under an assignment satisfying
// the path constraints and assume.
func Model(st *emu.State, exprs map[string]*smt.BV, assume ...*smt.BV) (map[string]uint64, error) {
	ok, err := st.Solver.IsSat(assume...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("path %d is infeasible", st.ID)
	}
	out := make(map[string]uint64, len(exprs))
	for name, e := range exprs {
		out[name] = st.Solver.Eval(e)
	}
	return out, nil
}
