package semantics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/semantics"
)

var _ = Describe("VFP expansions", func() {
	var d *semantics.Decoder

	BeforeEach(func() {
		d = semantics.NewDecoder()
	})

	vfp := func(op insts.Op, vd, vn, vm uint8) insts.Instruction {
		inst := insts.NewInstruction(op)
		inst.Vd, inst.Vn, inst.Vm = vd, vn, vm
		return inst
	}

	s := func(i uint8) ir.FPOperand { return ir.FPReg(ir.Binary32, i) }

	It("should round the product and the sum separately for VMLA", func() {
		ops := d.Decode(vfp(insts.OpVMLA, 0, 1, 2), false)

		Expect(ops).To(Equal([]ir.Operation{
			ir.FPMul{Dst: ir.FPLocal(ir.Binary32, "product"), A: s(1), B: s(2)},
			ir.FPAdd{Dst: s(0), A: s(0), B: ir.FPLocal(ir.Binary32, "product")},
		}))
	})

	It("should negate the accumulator for VNMLA", func() {
		ops := d.Decode(vfp(insts.OpVNMLA, 0, 1, 2), false)

		Expect(ops).To(HaveLen(3))
		Expect(ops[1]).To(Equal(ir.FPNeg{Dst: ir.FPLocal(ir.Binary32, "acc"), Src: s(0)}))
		Expect(ops[2]).To(BeAssignableToTypeOf(ir.FPSub{}))
	})

	It("should fuse VFMA into a single operation", func() {
		ops := d.Decode(vfp(insts.OpVFMA, 0, 1, 2), false)

		Expect(ops).To(Equal([]ir.Operation{
			ir.FPFusedMulAdd{Dst: s(0), A: s(1), B: s(2), C: s(0)},
		}))
	})

	It("should produce the compare flags from independent tests", func() {
		ops := d.Decode(vfp(insts.OpVCMP, 0, 0, 1), false)

		Expect(ops).NotTo(ContainElement(BeAssignableToTypeOf(ir.Ite{})))
		Expect(ops).To(ContainElement(ir.FPCompare{Dst: ir.Local("lt"), A: s(0), B: s(1), Mode: ir.FPLess}))
		Expect(ops).To(ContainElement(ir.FPCompare{Dst: ir.Local("gt"), A: s(0), B: s(1), Mode: ir.FPGreater}))
		Expect(ops).To(ContainElement(ir.Move{Dst: ir.FlagOf(ir.FPFlagV), Src: ir.Local("unordered")}))
	})

	It("should trap unordered operands of VCMPE", func() {
		inst := vfp(insts.OpVCMPE, 0, 0, 1)
		inst.WithZero = true

		ops := d.Decode(inst, false)

		Expect(ops).To(ContainElement(ir.Ite{
			Cond: ir.Local("unordered"),
			Then: []ir.Operation{ir.Abort{Reason: semantics.ReasonInvalidFP}},
		}))
		Expect(ops).To(ContainElement(ir.FPIsNaN{Dst: ir.Local("b.nan"), Src: ir.FPImm(ir.Binary32, 0)}))
	})

	It("should place a double immediate in the upper word", func() {
		inst := vfp(insts.OpVMOVImm, 3, 0, 0)
		inst.Double = true
		inst.Imm = 0x3FF00000

		Expect(d.Decode(inst, false)).To(Equal([]ir.Operation{
			ir.FPCopy{Dst: ir.FPReg(ir.Binary64, 3), Src: ir.FPImm(ir.Binary64, 0x3FF0000000000000)},
		}))
	})

	It("should keep the bottom half when VCVTT writes the top half", func() {
		inst := vfp(insts.OpVCVTT, 4, 0, 5)
		inst.Top, inst.ToHalf = true, true

		ops := d.Decode(inst, false)

		Expect(ops).To(ContainElement(ir.And{Dst: ir.Local("word"), A: ir.Local("word"), B: ir.Imm32(0x0000FFFF)}))
		Expect(ops[len(ops)-1]).To(Equal(ir.FPCopy{
			Dst: ir.FPReg(ir.Integral(32, false), 4),
			Src: ir.FPLocal(ir.Integral(32, false), "word"),
		}))
	})

	It("should scale by 2^fbits when converting to fixed point", func() {
		inst := vfp(insts.OpVCVTToFixed, 2, 0, 2)
		inst.Signed, inst.FixedSize, inst.FBits = true, 16, 4

		ops := d.Decode(inst, false)

		Expect(ops[0]).To(Equal(ir.FPMul{
			Dst:      ir.FPLocal(ir.Binary32, "scaled"),
			A:        s(2),
			B:        ir.FPImm(ir.Binary32, 131<<23),
			Rounding: ir.RoundFPSCR,
		}))
		Expect(ops).To(ContainElement(ir.SignExtend{
			Dst: ir.Local("fixed"), Src: ir.Local("fixed"), Bits: 16, Width: 32,
		}))
	})

	It("should copy the FPSCR flags for VMRS APSR_nzcv", func() {
		inst := insts.NewInstruction(insts.OpVMRS)
		inst.Rt = insts.PC

		ops := d.Decode(inst, false)

		Expect(ops).To(HaveLen(4))
		Expect(ops[0]).To(Equal(ir.Move{Dst: ir.FlagOf(ir.FlagN), Src: ir.FlagOf(ir.FPFlagN)}))
	})

	It("should move D registers through the scalar halves", func() {
		inst := insts.NewInstruction(insts.OpVMOVCoreToScalar)
		inst.Vd, inst.Top, inst.Rt = 3, true, insts.R1

		Expect(d.Decode(inst, false)).To(Equal([]ir.Operation{
			ir.FPCopy{Dst: ir.FPReg(ir.Integral(32, false), 7), Src: ir.FPCore(ir.Integral(32, false), ir.Reg(insts.R1))},
		}))
	})

	It("should step eight bytes per double in VPUSH", func() {
		inst := insts.NewInstruction(insts.OpVPUSH)
		inst.Rn, inst.Vd, inst.Count = insts.SP, 8, 2
		inst.Double, inst.Index, inst.WriteBack = true, true, true

		ops := d.Decode(inst, false)

		Expect(ops[0]).To(Equal(ir.Sub{Dst: ir.Local("addr"), A: ir.Reg(insts.SP), B: ir.Imm32(16)}))
		Expect(ops).To(ContainElement(ir.Add{Dst: ir.Local("addr"), A: ir.Local("addr"), B: ir.Imm32(8)}))
		Expect(ops[len(ops)-1]).To(Equal(ir.Move{Dst: ir.Reg(insts.SP), Src: ir.Local("wback")}))
	})
})
