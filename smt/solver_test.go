package smt_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/smt"
)

var _ = Describe("Solver", func() {
	var (
		solver smt.Solver
		x      *smt.BV
	)

	BeforeEach(func() {
		solver = smt.NewSolver()
		x = smt.BVSymbol("x", 32)
	})

	It("should find both sides of a branch on a fresh symbol", func() {
		zero := smt.BVConst(0, 32)

		ok, err := solver.IsSat(x.Eq(zero))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = solver.IsSat(x.Ne(zero))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("should report contradictory equalities as unsatisfiable", func() {
		solver.Assert(x.Eq(smt.BVConst(0, 32)))
		ok, err := solver.IsSat(x.Eq(smt.BVConst(1, 32)))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should produce a model that satisfies arithmetic constraints", func() {
		solver.Assert(x.Add(smt.BVConst(5, 32)).Eq(smt.BVConst(12, 32)))
		ok, err := solver.IsSat()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(solver.Eval(x)).To(Equal(uint64(7)))
	})

	It("should enumerate small domains exhaustively", func() {
		b := smt.BVSymbol("b", 8)
		solver.Assert(b.Ult(smt.BVConst(3, 8)))
		vals, err := solver.Solutions(b, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(ConsistOf(uint64(0), uint64(1), uint64(2)))
	})

	It("should return a constant directly", func() {
		vals, err := solver.Solutions(smt.BVConst(0x20000000, 32), 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]uint64{0x20000000}))
	})

	It("should keep clones independent", func() {
		clone := solver.Clone()
		clone.Assert(x.Eq(smt.BVConst(3, 32)))
		Expect(solver.Constraints()).To(BeEmpty())
		Expect(clone.Constraints()).To(HaveLen(1))
	})

	It("should give up with ErrUnknown when float refinement runs out", func() {
		s := smt.NewSolver(smt.WithRefinementBudget(1))
		f := smt.FPFromBits(x, smt.Float32)
		s.Assert(f.Mul(f, smt.RoundNearestEven).Eq(smt.FPFromFloat64(2, smt.Float32)))
		_, err := s.IsSat()
		Expect(err).To(MatchError(smt.ErrUnknown))
	})

	It("should solve for a multiplier", func() {
		ok, err := solver.IsSat(x.Mul(smt.BVConst(3, 32)).Eq(smt.BVConst(300, 32)),
			x.Ult(smt.BVConst(0x100, 32)))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(solver.Eval(x)).To(Equal(uint64(100)))
	})

	It("should prove disjoint ranges unsatisfiable", func() {
		solver.Assert(x.Ugt(smt.BVConst(3, 32)))
		ok, err := solver.IsSat(x.Ult(smt.BVConst(2, 32)))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should agree with constant folding on every integer operator", func() {
		y := smt.BVSymbol("y", 32)
		ops := map[string]func(a, b *smt.BV) *smt.BV{
			"mul":  (*smt.BV).Mul,
			"udiv": (*smt.BV).UDiv,
			"urem": (*smt.BV).URem,
			"sdiv": (*smt.BV).SDiv,
			"srem": (*smt.BV).SRem,
			"shl":  (*smt.BV).Shl,
			"lshr": (*smt.BV).LShr,
			"ashr": (*smt.BV).AShr,
			"rotr": (*smt.BV).RotR,
			"slt": func(a, b *smt.BV) *smt.BV {
				return a.Slt(b).ZeroExt(32)
			},
			"sle": func(a, b *smt.BV) *smt.BV {
				return a.Sle(b).ZeroExt(32)
			},
			"clz": func(a, _ *smt.BV) *smt.BV { return a.Clz() },
		}
		pairs := [][2]uint64{
			{0x80000000, 0xFFFFFFFF},
			{0xFFFFFFF9, 2},
			{7, 0},
			{0x12345678, 36},
			{0x00F00000, 4},
			{0xC0000000, 33},
		}
		// Hide the values behind a xor so the equality front end cannot
		// pin them and the bit-level encoding does the work.
		key := smt.BVConst(0x5A5A5A5A, 32)
		for name, op := range ops {
			for _, p := range pairs {
				a, b := smt.BVConst(p[0], 32), smt.BVConst(p[1], 32)
				want := op(a, b)
				s := smt.NewSolver()
				s.Assert(x.Xor(key).Eq(a.Xor(key)))
				s.Assert(y.Xor(key).Eq(b.Xor(key)))

				ok, err := s.IsSat(op(x, y).Eq(want))
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue(), "%s %#x %#x", name, p[0], p[1])

				ok, err = s.IsSat(op(x, y).Ne(want))
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse(), "%s %#x %#x", name, p[0], p[1])
			}
		}
	})

	It("should find a float that compares below a bound", func() {
		f := smt.FPFromBits(x, smt.Float32)
		one := smt.FPFromFloat64(1, smt.Float32)
		solver.Assert(f.Lt(one))
		ok, err := solver.IsSat(f.Gt(smt.FPFromFloat64(0.5, smt.Float32)))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		v := math.Float32frombits(uint32(solver.Eval(x)))
		Expect(v).To(BeNumerically(">", 0.5))
		Expect(v).To(BeNumerically("<", 1))

		ok, err = solver.IsSat(f.Gt(smt.FPFromFloat64(2, smt.Float32)))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("should refine float arithmetic to an exact model", func() {
		f := smt.FPFromBits(x, smt.Float32)
		sum := f.Add(smt.FPFromFloat64(1, smt.Float32), smt.RoundNearestEven)
		ok, err := solver.IsSat(sum.Eq(smt.FPFromFloat64(3, smt.Float32)),
			x.Xor(smt.BVConst(0x5A5A5A5A, 32)).Eq(smt.BVConst(0x40000000^0x5A5A5A5A, 32)))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(solver.Eval(x)).To(Equal(uint64(0x40000000)))
	})

	It("should reason through floating-point predicates", func() {
		f := smt.FPFromBits(x, smt.Float32)
		ok, err := solver.IsSat(f.IsNaN())
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(solver.Eval(x) & 0x7F800000).To(Equal(uint64(0x7F800000)))
	})
})
