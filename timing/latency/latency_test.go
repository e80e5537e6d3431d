package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/timing/latency"
)

var _ = Describe("Latency", func() {
	var (
		table   *latency.Table
		decoder *insts.ThumbDecoder
	)

	decode := func(hw1, hw2 uint16) insts.Instruction {
		inst, _, err := decoder.Decode(hw1, hw2)
		Expect(err).NotTo(HaveOccurred())
		return inst
	}

	BeforeEach(func() {
		table = latency.NewTable()
		decoder = insts.NewThumbDecoder(nil)
	})

	Describe("Default Timing Values", func() {
		It("should have correct ALU latency", func() {
			Expect(table.Config().ALULatency).To(Equal(uint64(1)))
		})

		It("should have correct load latency", func() {
			Expect(table.Config().LoadLatency).To(Equal(uint64(2)))
		})

		It("should have correct branch refill penalty", func() {
			Expect(table.Config().BranchTakenPenalty).To(Equal(uint64(2)))
		})
	})

	Describe("Classify", func() {
		It("should group opcodes", func() {
			Expect(latency.Classify(insts.OpADDReg)).To(Equal(latency.ClassALU))
			Expect(latency.Classify(insts.OpMLA)).To(Equal(latency.ClassMultiplyAccumulate))
			Expect(latency.Classify(insts.OpUDIV)).To(Equal(latency.ClassDivide))
			Expect(latency.Classify(insts.OpPOP)).To(Equal(latency.ClassLoadMultiple))
			Expect(latency.Classify(insts.OpCBZ)).To(Equal(latency.ClassBranch))
			Expect(latency.Classify(insts.OpDMB)).To(Equal(latency.ClassSystem))
			Expect(latency.Classify(insts.OpVADD)).To(Equal(latency.ClassFP))
			Expect(latency.Classify(insts.OpVFMA)).To(Equal(latency.ClassFPMultiplyAccumulate))
			Expect(latency.Classify(insts.OpVPUSH)).To(Equal(latency.ClassFPStore))
		})

		It("should name classes", func() {
			Expect(latency.ClassFPSqrt.String()).To(Equal("fp-sqrt"))
		})
	})

	Describe("Integer Instruction Latencies", func() {
		It("should return 1 cycle for ADDS register", func() {
			// ADDS r0, r1, r2
			Expect(table.GetLatency(decode(0x1888, 0))).To(Equal(uint64(1)))
		})

		It("should return MultiplyLatency for MULS", func() {
			// MULS r0, r1, r0
			Expect(table.GetLatency(decode(0x4348, 0))).To(Equal(uint64(1)))
		})

		It("should report the divide latency range", func() {
			// SDIV r0, r1, r2
			inst := decode(0xFB91, 0xF0F2)
			Expect(table.GetMinLatency(inst)).To(Equal(uint64(2)))
			Expect(table.GetMaxLatency(inst)).To(Equal(uint64(12)))
			Expect(table.GetLatency(inst)).To(Equal(uint64(12)))
		})
	})

	Describe("Memory Instruction Latencies", func() {
		It("should return 2 cycles for LDR", func() {
			// LDR r0, [r1]
			Expect(table.GetLatency(decode(0x6808, 0))).To(Equal(uint64(2)))
		})

		It("should return 1 cycle for STR", func() {
			// STR r0, [r1]
			Expect(table.GetLatency(decode(0x6008, 0))).To(Equal(uint64(1)))
		})

		It("should charge per register for PUSH", func() {
			// PUSH {r4, r5, lr}
			Expect(table.GetLatency(decode(0xB530, 0))).To(Equal(uint64(4)))
		})

		It("should charge per word for VPUSH of doubles", func() {
			inst := insts.NewInstruction(insts.OpVPUSH)
			inst.Count = 2
			inst.Double = true
			Expect(table.GetLatency(inst)).To(Equal(uint64(1 + 3)))
		})

		It("should charge a single word VLDR as a load", func() {
			Expect(table.GetLatency(insts.NewInstruction(insts.OpVLDR))).To(Equal(uint64(2)))
		})
	})

	Describe("Floating-Point Latencies", func() {
		It("should use the divide and multiply-accumulate costs", func() {
			Expect(table.GetLatency(insts.NewInstruction(insts.OpVDIV))).To(Equal(uint64(14)))
			Expect(table.GetLatency(insts.NewInstruction(insts.OpVMLA))).To(Equal(uint64(3)))
			Expect(table.GetLatency(insts.NewInstruction(insts.OpVNEG))).To(Equal(uint64(1)))
		})
	})

	Describe("Cycles", func() {
		It("should add the refill penalty to taken branches", func() {
			// BEQ +2
			inst := decode(0xD001, 0)
			Expect(table.Cycles(0x08000000, inst, false)).To(Equal(uint64(1)))
			Expect(table.Cycles(0x08000000, inst, true)).To(Equal(uint64(3)))
		})

		It("should charge POP of PC as a load plus refill", func() {
			// POP {r4, pc}
			Expect(table.Cycles(0x08000000, decode(0xBD10, 0), true)).To(Equal(uint64(2 + 2 + 2)))
		})
	})

	Describe("Instruction Type Detection", func() {
		It("should detect memory operations", func() {
			Expect(table.IsMemoryOp(decode(0x6808, 0))).To(BeTrue())
			Expect(table.IsMemoryOp(decode(0x1888, 0))).To(BeFalse())
		})

		It("should detect load and store operations", func() {
			Expect(table.IsLoadOp(decode(0x6808, 0))).To(BeTrue())
			Expect(table.IsStoreOp(decode(0x6808, 0))).To(BeFalse())
			Expect(table.IsStoreOp(decode(0x6008, 0))).To(BeTrue())
		})

		It("should detect branch operations", func() {
			// BX lr
			Expect(table.IsBranchOp(decode(0x4770, 0))).To(BeTrue())
			Expect(table.IsBranchOp(decode(0xBF00, 0))).To(BeFalse())
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := latency.DefaultTimingConfig()
			config.LoadLatency = 3
			config.BranchTakenPenalty = 1
			table = latency.NewTableWithConfig(config)

			Expect(table.GetLatency(decode(0x6808, 0))).To(Equal(uint64(3)))
			Expect(table.Cycles(0x08000000, decode(0xE000, 0), true)).To(Equal(uint64(2)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Validation", func() {
		It("should accept the default config", func() {
			Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
		})

		It("should reject zero ALU latency", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 0
			Expect(config.Validate()).To(MatchError(ContainSubstring("alu_latency")))
		})

		It("should reject zero FP divide latency", func() {
			config := latency.DefaultTimingConfig()
			config.FPDivideLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject inverted divide latency range", func() {
			config := latency.DefaultTimingConfig()
			config.DivideLatencyMin = 13
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should allow zero flash wait states", func() {
			config := latency.DefaultTimingConfig()
			config.FlashWaitStates = 0
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()
			clone.ALULatency = 99
			Expect(original.ALULatency).To(Equal(uint64(1)))
		})
	})

	Describe("File Operations", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should save and load config", func() {
			path := filepath.Join(dir, "timing.json")
			config := latency.DefaultTimingConfig()
			config.FlashWaitStates = 3
			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"load_latency": 4}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.LoadLatency).To(Equal(uint64(4)))
			Expect(loaded.StoreLatency).To(Equal(uint64(1)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())
			_, err := latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
