package smt_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/smt"
)

func constOf(b *smt.BV) uint64 {
	v, ok := b.Value()
	Expect(ok).To(BeTrue(), "expected constant, got %s", b)
	return v
}

var _ = Describe("Bit-vectors", func() {
	Describe("constant folding", func() {
		It("should wrap addition at the vector width", func() {
			sum := smt.BVConst(0xFFFFFFFF, 32).Add(smt.BVConst(2, 32))
			Expect(constOf(sum)).To(Equal(uint64(1)))
		})

		It("should sign-extend from the source width", func() {
			v := smt.BVConst(0x80, 8).SignExt(32)
			Expect(constOf(v)).To(Equal(uint64(0xFFFFFF80)))
		})

		It("should extract and concatenate", func() {
			v := smt.BVConst(0x12345678, 32)
			hi := v.Extract(31, 16)
			lo := v.Extract(15, 0)
			Expect(constOf(hi)).To(Equal(uint64(0x1234)))
			Expect(constOf(lo.Concat(hi))).To(Equal(uint64(0x56781234)))
		})

		It("should see through concatenation when extracting", func() {
			sym := smt.BVSymbol("x", 32)
			v := sym.Extract(31, 24).Concat(smt.BVConst(2, 2)).Concat(sym.Extract(21, 0))
			Expect(constOf(v.Extract(23, 22))).To(Equal(uint64(2)))
			Expect(v.Extract(31, 24).IsConst()).To(BeFalse())
			Expect(constOf(sym.ZeroExt(40).Extract(39, 32))).To(Equal(uint64(0)))
		})

		It("should shift arithmetically with sign fill", func() {
			v := smt.BVConst(0x80000000, 32).AShr(smt.BVConst(4, 32))
			Expect(constOf(v)).To(Equal(uint64(0xF8000000)))
			Expect(constOf(smt.BVConst(0x80000000, 32).AShr(smt.BVConst(40, 32)))).To(Equal(uint64(0xFFFFFFFF)))
		})

		It("should rotate right", func() {
			v := smt.BVConst(0x000000F1, 32).RotR(smt.BVConst(4, 32))
			Expect(constOf(v)).To(Equal(uint64(0x1000000F)))
		})

		It("should count leading zeros at the vector width", func() {
			Expect(constOf(smt.BVConst(1, 32).Clz())).To(Equal(uint64(31)))
			Expect(constOf(smt.BVConst(0, 32).Clz())).To(Equal(uint64(32)))
		})

		It("should compare signed and unsigned", func() {
			a := smt.BVConst(0xFFFFFFFF, 32)
			b := smt.BVConst(1, 32)
			Expect(constOf(a.Ult(b))).To(Equal(uint64(0)))
			Expect(constOf(a.Slt(b))).To(Equal(uint64(1)))
		})

		It("should divide with signed truncation", func() {
			a := smt.BVConst(uint64(0xFFFFFFF9), 32) // -7
			b := smt.BVConst(2, 32)
			Expect(constOf(a.SDiv(b))).To(Equal(uint64(0xFFFFFFFD))) // -3
		})
	})

	Describe("symbolic expressions", func() {
		It("should keep symbols symbolic", func() {
			x := smt.BVSymbol("x", 32)
			Expect(x.Add(smt.BVConst(1, 32)).IsConst()).To(BeFalse())
		})

		It("should simplify identities around constants", func() {
			x := smt.BVSymbol("x", 1)
			Expect(x.And(smt.False()).IsConst()).To(BeTrue())
			Expect(x.Or(smt.False())).To(BeIdenticalTo(x))
		})

		It("should resolve ite on a constant condition", func() {
			a := smt.BVSymbol("a", 8)
			b := smt.BVSymbol("b", 8)
			Expect(smt.Ite(smt.True(), a, b)).To(BeIdenticalTo(a))
		})

		It("should panic on width mismatch", func() {
			Expect(func() {
				smt.BVConst(1, 8).Add(smt.BVConst(1, 16))
			}).To(Panic())
		})
	})
})
