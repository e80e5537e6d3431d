package smt

import (
	"errors"
	"fmt"

	"github.com/crillab/gophersat/solver"
)

// ErrUnknown is returned when the solver runs out of budget before it can
// either find a model or prove that none exists.
var ErrUnknown = errors.New("smt: unknown")

// Solver holds a conjunction of width-1 constraints.
type Solver interface {
	// Assert adds a constraint to the conjunction.
	Assert(c *BV)
	// Constraints returns the asserted constraints.
	Constraints() []*BV
	// IsSat reports whether the constraints together with extra can hold.
	IsSat(extra ...*BV) (bool, error)
	// Solutions returns up to n distinct values e can take.
	Solutions(e *BV, n int) ([]uint64, error)
	// Eval evaluates e under the most recent model.
	Eval(e *BV) uint64
	// Clone returns an independent copy.
	Clone() Solver
}

// SolverOption configures the reference solver.
type SolverOption func(*satSolver)

// WithRefinementBudget sets how many SAT rounds a query may spend tying
// float operations to their real results before giving up with
// ErrUnknown.
func WithRefinementBudget(n int) SolverOption {
	return func(s *satSolver) {
		if n > 0 {
			s.budget = n
		}
	}
}

// satSolver propagates equalities with constants, folds, and bit-blasts
// whatever remains to CNF for a complete SAT solver. Integer operations
// are encoded exactly. Float arithmetic is left uninterpreted and refined
// against the software float implementation until a model checks out.
type satSolver struct {
	constraints []*BV
	model       map[string]uint64
	budget      int
}

// NewSolver returns the reference solver.
func NewSolver(opts ...SolverOption) Solver {
	s := &satSolver{
		model:  map[string]uint64{},
		budget: 64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *satSolver) Assert(c *BV) {
	if c.width != 1 {
		panic("smt: constraint must have width 1")
	}
	if v, ok := c.Value(); ok && v == 1 {
		return
	}
	s.constraints = append(s.constraints, c)
}

func (s *satSolver) Constraints() []*BV {
	out := make([]*BV, len(s.constraints))
	copy(out, s.constraints)
	return out
}

func (s *satSolver) Clone() Solver {
	c := &satSolver{
		constraints: make([]*BV, len(s.constraints)),
		model:       make(map[string]uint64, len(s.model)),
		budget:      s.budget,
	}
	copy(c.constraints, s.constraints)
	for k, v := range s.model {
		c.model[k] = v
	}
	return c
}

func (s *satSolver) Eval(e *BV) uint64 {
	return newEvaluator(s.model).bv(e)
}

func (s *satSolver) IsSat(extra ...*BV) (bool, error) {
	all := make([]*BV, 0, len(s.constraints)+len(extra))
	all = append(all, s.constraints...)
	all = append(all, extra...)
	model, err := s.check(all)
	if err != nil {
		return false, err
	}
	if model == nil {
		return false, nil
	}
	s.model = model
	return true, nil
}

func (s *satSolver) Solutions(e *BV, n int) ([]uint64, error) {
	if v, ok := e.Value(); ok {
		return []uint64{v}, nil
	}
	var out []uint64
	extra := []*BV{}
	for len(out) < n {
		ok, err := s.IsSat(extra...)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, err
		}
		if !ok {
			break
		}
		v := s.Eval(e)
		out = append(out, v)
		extra = append(extra, e.Ne(BVConst(v, e.width)))
	}
	return out, nil
}

// check returns a satisfying model, nil when the constraints are
// unsatisfiable, or ErrUnknown when float refinement runs out of budget.
func (s *satSolver) check(constraints []*BV) (map[string]uint64, error) {
	fixed, pending, ok := propagate(constraints)
	if !ok {
		return nil, nil
	}
	model := map[string]uint64{}
	for k, v := range fixed {
		model[k] = v
	}
	if len(pending) == 0 {
		return model, nil
	}

	b := newBlaster()
	for _, c := range pending {
		b.clause(b.bits(c)[0])
	}
	for round := 0; round < s.budget; round++ {
		pb := solver.ParseSlice(b.clauses)
		sat := solver.New(pb)
		if sat.Solve() != solver.Sat {
			return nil, nil
		}
		bits := sat.Model()
		if b.refine(bits) {
			continue
		}
		for name, vec := range b.symbols {
			model[name] = valueOf(bits, vec)
		}
		ev := newEvaluator(model)
		for _, c := range pending {
			if ev.bv(c) == 0 {
				return nil, fmt.Errorf("%w: model fails %s", ErrUnknown, c)
			}
		}
		return model, nil
	}
	return nil, ErrUnknown
}

// propagate pins symbols compared against constants and folds them
// through the rest. ok is false when a constraint folds to false.
func propagate(constraints []*BV) (map[string]uint64, []*BV, bool) {
	fixed := map[string]uint64{}
	pending := flatten(constraints)
	for {
		changed := false
		for _, c := range pending {
			if name, v, ok := pinned(c); ok {
				if old, seen := fixed[name]; seen && old != v {
					return nil, nil, false
				}
				if _, seen := fixed[name]; !seen {
					fixed[name] = v
					changed = true
				}
			}
		}
		next := pending[:0:0]
		for _, c := range pending {
			c = substitute(c, fixed, map[*BV]*BV{}, map[*FP]*FP{})
			if v, ok := c.Value(); ok {
				if v == 0 {
					return nil, nil, false
				}
				continue
			}
			next = append(next, flatten([]*BV{c})...)
		}
		pending = next
		if !changed {
			return fixed, pending, true
		}
	}
}

// flatten splits width-1 conjunctions into their parts.
func flatten(cs []*BV) []*BV {
	var out []*BV
	for _, c := range cs {
		if c.op == bvAnd && c.width == 1 {
			out = append(out, flatten(c.args)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// pinned recognises "symbol == constant" and bare boolean symbols.
func pinned(c *BV) (string, uint64, bool) {
	if c.op == bvSymbol {
		return c.name, 1, true
	}
	if c.op == bvNot && c.args[0].op == bvSymbol && c.args[0].width == 1 {
		return c.args[0].name, 0, true
	}
	if c.op != bvEq {
		return "", 0, false
	}
	a, b := c.args[0], c.args[1]
	if a.op == bvSymbol && b.op == bvConst {
		return a.name, b.value, true
	}
	if b.op == bvSymbol && a.op == bvConst {
		return b.name, a.value, true
	}
	return "", 0, false
}

func substitute(e *BV, fixed map[string]uint64, memo map[*BV]*BV, fmemo map[*FP]*FP) *BV {
	if r, ok := memo[e]; ok {
		return r
	}
	var r *BV
	switch e.op {
	case bvConst:
		r = e
	case bvSymbol:
		if v, ok := fixed[e.name]; ok {
			r = BVConst(v, e.width)
		} else {
			r = e
		}
	default:
		n := *e
		n.args = make([]*BV, len(e.args))
		changed := false
		for i, a := range e.args {
			n.args[i] = substitute(a, fixed, memo, fmemo)
			changed = changed || n.args[i] != a
		}
		n.fargs = make([]*FP, len(e.fargs))
		for i, a := range e.fargs {
			n.fargs[i] = substituteFP(a, fixed, memo, fmemo)
			changed = changed || n.fargs[i] != a
		}
		switch {
		case !changed:
			r = e
		case n.op == bvIte:
			r = Ite(n.args[0], n.args[1], n.args[2])
		default:
			r = fold(&n)
		}
	}
	memo[e] = r
	return r
}

func substituteFP(e *FP, fixed map[string]uint64, memo map[*BV]*BV, fmemo map[*FP]*FP) *FP {
	if r, ok := fmemo[e]; ok {
		return r
	}
	if e.op == fpConst {
		return e
	}
	n := *e
	n.args = make([]*FP, len(e.args))
	changed := false
	for i, a := range e.args {
		n.args[i] = substituteFP(a, fixed, memo, fmemo)
		changed = changed || n.args[i] != a
	}
	n.bvargs = make([]*BV, len(e.bvargs))
	for i, a := range e.bvargs {
		n.bvargs[i] = substitute(a, fixed, memo, fmemo)
		changed = changed || n.bvargs[i] != a
	}
	r := e
	if changed {
		r = foldFP(&n)
	}
	fmemo[e] = r
	return r
}

type evaluator struct {
	assign map[string]uint64
	memo   map[*BV]uint64
	fmemo  map[*FP]uint64
}

func newEvaluator(assign map[string]uint64) *evaluator {
	return &evaluator{assign: assign, memo: map[*BV]uint64{}, fmemo: map[*FP]uint64{}}
}

func (ev *evaluator) bv(e *BV) uint64 {
	switch e.op {
	case bvConst:
		return e.value
	case bvSymbol:
		return ev.assign[e.name] & mask(e.width)
	}
	if v, ok := ev.memo[e]; ok {
		return v
	}
	var v uint64
	if e.op == bvIte {
		if ev.bv(e.args[0]) != 0 {
			v = ev.bv(e.args[1])
		} else {
			v = ev.bv(e.args[2])
		}
	} else {
		vals := make([]uint64, len(e.args))
		for i, a := range e.args {
			vals[i] = ev.bv(a)
		}
		fvals := make([]uint64, len(e.fargs))
		for i, a := range e.fargs {
			fvals[i] = ev.fp(a)
		}
		v = e.compute(vals, fvals) & mask(e.width)
	}
	ev.memo[e] = v
	return v
}

func (ev *evaluator) fp(e *FP) uint64 {
	if e.op == fpConst {
		return e.bits
	}
	if v, ok := ev.fmemo[e]; ok {
		return v
	}
	vals := make([]uint64, len(e.args))
	for i, a := range e.args {
		vals[i] = ev.fp(a)
	}
	bvals := make([]uint64, len(e.bvargs))
	for i, a := range e.bvargs {
		bvals[i] = ev.bv(a)
	}
	v := e.compute(vals, bvals) & mask(e.sort.Width())
	ev.fmemo[e] = v
	return v
}
