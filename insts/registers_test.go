package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/insts"
)

var _ = Describe("Registers", func() {
	It("should parse register names", func() {
		for name, want := range map[string]insts.Register{
			"r0": insts.R0, "R12": insts.R12, "sp": insts.SP, "LR": insts.LR,
			"r13": insts.SP, "pc": insts.PC,
		} {
			r, err := insts.ParseRegister(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(Equal(want), name)
		}
	})

	It("should reject unknown names", func() {
		for _, name := range []string{"r16", "x0", "r", ""} {
			_, err := insts.ParseRegister(name)
			Expect(err).To(HaveOccurred(), name)
		}
	})

	It("should expand IT masks", func() {
		// ITTE EQ
		Expect(insts.ITConditions(insts.CondEQ, 0b0110)).To(Equal([]insts.Cond{
			insts.CondEQ, insts.CondEQ, insts.CondNE,
		}))
	})
})
