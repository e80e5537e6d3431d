package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/emu"
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/timing/cache"
	"github.com/sarchlab/cortexsym/timing/latency"
)

var _ = Describe("FetchCost", func() {
	const base = uint32(0x08000000)

	var (
		memory flash
		cost   *cache.FetchCost
		nop    insts.Instruction
	)

	BeforeEach(func() {
		memory = flash{}
		icache := cache.New(cache.DefaultFlashConfig(), cache.NewCodeBacking(memory))
		cost = cache.NewFetchCost(latency.NewTable(), icache, base, 0x100000)
		nop = insts.NewInstruction(insts.OpNOP)
	})

	It("should charge wait states on the first fetch of a line", func() {
		memory.putWord(base, 0xBF00BF00)

		Expect(cost.Cycles(base, nop, false)).To(Equal(uint64(1 + 5)))
		Expect(cost.Cycles(base+2, nop, false)).To(Equal(uint64(1)))
		Expect(cost.Cache().Stats().Misses).To(Equal(uint64(1)))
	})

	It("should not cache fetches from outside flash", func() {
		Expect(cost.Cycles(0x20000000, nop, false)).To(Equal(uint64(1)))
		Expect(cost.Cache().Stats().Reads).To(Equal(uint64(0)))
	})

	It("should fill both lines for a straddling 32-bit fetch", func() {
		// first halfword of a 32-bit encoding at the end of a line
		memory.putWord(base+0xC, 0xF0000000)

		inst := insts.NewInstruction(insts.OpBL)
		Expect(cost.Cycles(base+0xE, inst, true)).To(Equal(uint64(1 + 2 + 5 + 5)))
	})

	It("should drive executor cycle counts", func() {
		memory.putWord(base, 0xBF00BF00)
		ex := emu.NewExecutor(insts.NewThumbDecoder(memory), emu.WithCostModel(cost))
		st := emu.NewState(memory, base)

		res := ex.Step(st)
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(res.States).To(HaveLen(1))
		res = ex.Step(res.States[0])
		Expect(res.States).To(HaveLen(1))
		Expect(res.States[0].Cycles).To(Equal(uint64(1 + 5 + 1)))
	})
})
