package explore_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/emu"
	"github.com/sarchlab/cortexsym/explore"
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/smt"
)

type code map[uint32]byte

func (c code) ByteAt(addr uint32) (byte, bool) {
	b, ok := c[addr]
	return b, ok
}

func assemble(base uint32, halfwords ...uint16) code {
	c := code{}
	for i, hw := range halfwords {
		c[base+uint32(2*i)] = byte(hw)
		c[base+uint32(2*i)+1] = byte(hw >> 8)
	}
	return c
}

var _ = Describe("Explorer", func() {
	const base = uint32(0x100)

	var (
		image code
		ex    *emu.Executor
	)

	newExplorer := func(opts ...explore.Option) *explore.Explorer {
		ex = emu.NewExecutor(insts.NewThumbDecoder(image))
		return explore.New(ex, opts...)
	}

	Context("with a diamond on a symbolic register", func() {
		BeforeEach(func() {
			image = assemble(base,
				0x2800, // cmp r0, #0
				0xD001, // beq 0x108
				0x2101, // movs r1, #1
				0xE000, // b 0x10a
				0x2102, // movs r1, #2
				0xBF00, // nop
			)
		})

		It("should finish both paths at the stop address", func() {
			st := emu.NewState(image, base)
			r0 := st.MakeSymbolic(insts.R0, "r0")

			res, err := newExplorer(explore.WithStopAddresses(base + 10)).Run(st)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Finished).To(HaveLen(2))
			Expect(res.Aborted).To(BeEmpty())
			Expect(res.Paths()).To(HaveLen(2))

			witness, err := res.Query(base+10, insts.R1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(witness).NotTo(BeNil())
			model, err := explore.Model(witness, map[string]*smt.BV{"r0": r0})
			Expect(err).NotTo(HaveOccurred())
			Expect(model["r0"]).To(BeZero())

			none, err := res.Query(base+10, insts.R1, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeNil())
		})

		It("should exhaust paths that exceed the step budget", func() {
			st := emu.NewState(image, base)
			st.MakeSymbolic(insts.R0, "r0")

			res, err := newExplorer(explore.WithStepBudget(2)).Run(st)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Exhausted).To(HaveLen(2))
			Expect(res.Finished).To(BeEmpty())
		})

		It("should fail when the live paths exceed the limit", func() {
			st := emu.NewState(image, base)
			st.MakeSymbolic(insts.R0, "r0")

			_, err := newExplorer(explore.WithMaxPaths(1)).Run(st)

			Expect(err).To(MatchError(explore.ErrTooManyPaths))
		})
	})

	It("should record aborts and running off the code", func() {
		image = assemble(base,
			0x2800, // cmp r0, #0
			0xD000, // beq 0x106
			0xDE00, // udf #0
			0x2001, // movs r0, #1
		)
		st := emu.NewState(image, base)
		st.MakeSymbolic(insts.R0, "r0")

		res, err := newExplorer().Run(st)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Aborted).To(HaveLen(2))
		reasons := []string{}
		for _, a := range res.Aborted {
			Expect(a.Status).To(Equal(emu.StatusAborted))
			reasons = append(reasons, a.AbortReason)
		}
		Expect(reasons).To(ContainElement("Undefined instruction"))
		Expect(reasons).To(ContainElement(ContainSubstring("no code")))
	})
})
