package ir_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

var _ = Describe("Operand", func() {
	It("should render each operand kind", func() {
		Expect(ir.Reg(insts.R3).String()).To(Equal("R3"))
		Expect(ir.AlignedPC().String()).To(Equal("Align(PC)"))
		Expect(ir.FlagOf(ir.FlagC).String()).To(Equal("APSR.C"))
		Expect(ir.Local("addr").String()).To(Equal("%addr"))
		Expect(ir.AddressInLocal("addr", 16).String()).To(Equal("[%addr]:16"))
		Expect(ir.Imm32(0x2A).String()).To(Equal("#0x2a:32"))
		Expect(ir.FPSCR().String()).To(Equal("FPSCR"))
	})

	It("should recognise the program counter", func() {
		Expect(ir.Reg(insts.PC).IsPC()).To(BeTrue())
		Expect(ir.AlignedPC().IsPC()).To(BeTrue())
		Expect(ir.Reg(insts.LR).IsPC()).To(BeFalse())
		Expect(ir.Local("pc").IsPC()).To(BeFalse())
	})

	It("should build bits", func() {
		Expect(ir.Bit(true)).To(Equal(ir.Imm(1, 1)))
		Expect(ir.Bit(false)).To(Equal(ir.Imm(0, 1)))
	})

	It("should index GE flags by lane", func() {
		Expect(ir.GEFlag(0)).To(Equal(ir.FlagGE0))
		Expect(ir.GEFlag(3)).To(Equal(ir.FlagGE3))
		Expect(ir.GEFlag(3).String()).To(Equal("APSR.GE3"))
	})
})

var _ = Describe("FPOperand", func() {
	It("should pick the register bank by width", func() {
		Expect(ir.FPReg(ir.Binary32, 5).String()).To(Equal("S5:f32"))
		Expect(ir.FPReg(ir.Binary64, 2).String()).To(Equal("D2:f64"))
		Expect(ir.FPReg(ir.Integral(32, true), 1).String()).To(Equal("S1:s32"))
	})

	It("should report widths and kinds", func() {
		Expect(ir.FPImm(ir.Binary16, 0x3C00).Width()).To(Equal(uint32(16)))
		Expect(ir.Binary64.IsBinary()).To(BeTrue())
		Expect(ir.Integral(16, false).IsBinary()).To(BeFalse())
		Expect(ir.BinaryOf(true)).To(Equal(ir.Binary64))
		Expect(ir.BinaryOf(false)).To(Equal(ir.Binary32))
	})

	It("should map decoded rounding selections", func() {
		Expect(ir.RoundingOf(insts.FPRoundFPSCR)).To(Equal(ir.RoundFPSCR))
		Expect(ir.RoundingOf(insts.FPRoundExact)).To(Equal(ir.RoundFPSCR))
		Expect(ir.RoundingOf(insts.FPRoundZero)).To(Equal(ir.RoundTowardZero))
		Expect(ir.RoundingOf(insts.FPRoundAway)).To(Equal(ir.RoundNearestAway))
		Expect(ir.RoundingOf(insts.FPRoundMinusInf)).To(Equal(ir.RoundTowardNegative))
	})
})

var _ = Describe("Format", func() {
	It("should render one operation per line", func() {
		ops := []ir.Operation{
			ir.Add{Dst: ir.Reg(insts.R0), A: ir.Reg(insts.R1), B: ir.Imm32(1)},
			ir.SetZFlag{Src: ir.Reg(insts.R0)},
		}
		Expect(ir.Format(ops)).To(Equal("R0 = R1 + #0x1:32\nZ = zero(R0)\n"))
	})

	It("should indent both branches of an ite", func() {
		ops := []ir.Operation{
			ir.CheckCondition{Dst: ir.Local("c"), Cond: insts.CondEQ},
			ir.Ite{
				Cond: ir.Local("c"),
				Then: []ir.Operation{ir.Move{Dst: ir.Reg(insts.R0), Src: ir.Imm32(0)}},
				Else: []ir.Operation{ir.Nop{}},
			},
		}
		Expect(ir.Format(ops)).To(Equal(
			"%c = cond(EQ)\n" +
				"if %c {\n" +
				"  R0 = #0x0:32\n" +
				"} else {\n" +
				"  nop\n" +
				"}\n"))
	})

	It("should render aborts with their reason", func() {
		Expect(ir.String(ir.Abort{Reason: "Undefined instruction"})).
			To(Equal(`abort "Undefined instruction"`))
	})

	It("should render FP operations with their rounding", func() {
		op := ir.FPAdd{
			Dst:      ir.FPReg(ir.Binary32, 0),
			A:        ir.FPReg(ir.Binary32, 1),
			B:        ir.FPReg(ir.Binary32, 2),
			Rounding: ir.RoundFPSCR,
		}
		Expect(ir.String(op)).To(Equal("S0:f32 = S1:f32 + S2:f32 [fpscr]"))
	})
})
