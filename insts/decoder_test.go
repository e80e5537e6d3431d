package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/insts"
)

type byteMap map[uint32]byte

func (m byteMap) ByteAt(addr uint32) (byte, bool) {
	b, ok := m[addr]
	return b, ok
}

func (m byteMap) putHalf(addr uint32, hw uint16) {
	m[addr] = byte(hw)
	m[addr+1] = byte(hw >> 8)
}

var _ = Describe("ThumbDecoder", func() {
	var decoder *insts.ThumbDecoder

	BeforeEach(func() {
		decoder = insts.NewThumbDecoder(byteMap{})
	})

	decode16 := func(hw uint16) insts.Instruction {
		inst, size, err := decoder.Decode(hw, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(uint32(2)))
		return inst
	}

	decode32 := func(hw1, hw2 uint16) insts.Instruction {
		inst, size, err := decoder.Decode(hw1, hw2)
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(uint32(4)))
		return inst
	}

	Describe("16-bit data processing", func() {
		// MOVS R0, #1 -> 0x2001
		It("should decode MOVS R0, #1", func() {
			inst := decode16(0x2001)

			Expect(inst.Op).To(Equal(insts.OpMOVImm))
			Expect(inst.Rd).To(Equal(insts.R0))
			Expect(inst.Imm).To(Equal(uint32(1)))
			Expect(inst.SetFlags).To(BeNil())
		})

		// ADDS R1, R2, R3 -> 0x18D1
		It("should decode ADDS R1, R2, R3", func() {
			inst := decode16(0x18D1)

			Expect(inst.Op).To(Equal(insts.OpADDReg))
			Expect(inst.Rd).To(Equal(insts.R1))
			Expect(inst.Rn).To(Equal(insts.R2))
			Expect(inst.Rm).To(Equal(insts.R3))
		})

		// ANDS R0, R1 -> 0x4008
		It("should leave the destination of two-operand forms implicit", func() {
			inst := decode16(0x4008)

			Expect(inst.Op).To(Equal(insts.OpANDReg))
			Expect(inst.Rd).To(Equal(insts.NoRegister))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Rm).To(Equal(insts.R1))
		})

		// ADD R0, R1 -> 0x4408
		It("should decode the high register ADD without flag update", func() {
			inst := decode16(0x4408)

			Expect(inst.Op).To(Equal(insts.OpADDReg))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Rm).To(Equal(insts.R1))
			Expect(inst.SetFlags).NotTo(BeNil())
			Expect(*inst.SetFlags).To(BeFalse())
		})

		// LSLS R1, R2, #3 -> 0x00D1
		It("should decode LSLS R1, R2, #3", func() {
			inst := decode16(0x00D1)

			Expect(inst.Op).To(Equal(insts.OpLSLImm))
			Expect(inst.Rd).To(Equal(insts.R1))
			Expect(inst.Rm).To(Equal(insts.R2))
			Expect(inst.Shift).To(Equal(insts.Shift{Type: insts.ShiftLSL, Amount: 3}))
		})

		// LSRS R0, R1, #32 -> 0x0808
		It("should decode an encoded shift of zero as 32", func() {
			inst := decode16(0x0808)

			Expect(inst.Op).To(Equal(insts.OpLSRImm))
			Expect(inst.Shift.Amount).To(Equal(uint8(32)))
		})

		// MOVS R0, R1 -> 0x0008
		It("should decode MOVS R0, R1 as always setting flags", func() {
			inst := decode16(0x0008)

			Expect(inst.Op).To(Equal(insts.OpMOVReg))
			Expect(inst.FlagsSet(true)).To(BeTrue())
		})

		// RSBS R0, R1, #0 -> 0x4248
		It("should decode NEGS as RSB with zero", func() {
			inst := decode16(0x4248)

			Expect(inst.Op).To(Equal(insts.OpRSBImm))
			Expect(inst.Rd).To(Equal(insts.R0))
			Expect(inst.Rn).To(Equal(insts.R1))
			Expect(inst.Imm).To(BeZero())
		})

		// MULS R0, R1, R0 -> 0x4348
		It("should decode MULS", func() {
			inst := decode16(0x4348)

			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(inst.Rd).To(Equal(insts.NoRegister))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Rm).To(Equal(insts.R1))
		})
	})

	Describe("16-bit loads and stores", func() {
		// LDR R0, [PC, #4] -> 0x4801
		It("should decode a literal load", func() {
			inst := decode16(0x4801)

			Expect(inst.Op).To(Equal(insts.OpLDRLit))
			Expect(inst.Rt).To(Equal(insts.R0))
			Expect(inst.Imm).To(Equal(uint32(4)))
			Expect(inst.Add).To(BeTrue())
		})

		// STR R1, [R0, #4] -> 0x6041
		It("should scale the word offset", func() {
			inst := decode16(0x6041)

			Expect(inst.Op).To(Equal(insts.OpSTRImm))
			Expect(inst.Rt).To(Equal(insts.R1))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Imm).To(Equal(uint32(4)))
			Expect(inst.Index).To(BeTrue())
			Expect(inst.WriteBack).To(BeFalse())
		})

		// LDRB R2, [R3, R4] -> 0x5D1A
		It("should decode register offsets", func() {
			inst := decode16(0x5D1A)

			Expect(inst.Op).To(Equal(insts.OpLDRBReg))
			Expect(inst.Rt).To(Equal(insts.R2))
			Expect(inst.Rn).To(Equal(insts.R3))
			Expect(inst.Rm).To(Equal(insts.R4))
		})

		// PUSH {R4, LR} -> 0xB510, POP {R4, PC} -> 0xBD10
		It("should decode PUSH and POP register lists", func() {
			push := decode16(0xB510)
			Expect(push.Op).To(Equal(insts.OpPUSH))
			Expect(push.Registers).To(Equal([]insts.Register{insts.R4, insts.LR}))

			pop := decode16(0xBD10)
			Expect(pop.Op).To(Equal(insts.OpPOP))
			Expect(pop.Registers).To(Equal([]insts.Register{insts.R4, insts.PC}))
		})

		// SUB SP, #8 -> 0xB082
		It("should decode SP adjustment", func() {
			inst := decode16(0xB082)

			Expect(inst.Op).To(Equal(insts.OpSUBImm))
			Expect(inst.Rd).To(Equal(insts.SP))
			Expect(inst.Rn).To(Equal(insts.SP))
			Expect(inst.Imm).To(Equal(uint32(8)))
		})
	})

	Describe("16-bit control flow", func() {
		// BX LR -> 0x4770
		It("should decode BX LR", func() {
			inst := decode16(0x4770)

			Expect(inst.Op).To(Equal(insts.OpBX))
			Expect(inst.Rm).To(Equal(insts.LR))
		})

		// BNE . -> 0xD1FE
		It("should sign-extend conditional branch offsets", func() {
			inst := decode16(0xD1FE)

			Expect(inst.Op).To(Equal(insts.OpBCond))
			Expect(inst.Cond).To(Equal(insts.CondNE))
			Expect(int32(inst.Imm)).To(Equal(int32(-4)))
		})

		// B . -> 0xE7FE
		It("should decode unconditional branches", func() {
			inst := decode16(0xE7FE)

			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(int32(inst.Imm)).To(Equal(int32(-4)))
		})

		// CBZ R0, +4 -> 0xB110
		It("should decode CBZ", func() {
			inst := decode16(0xB110)

			Expect(inst.Op).To(Equal(insts.OpCBZ))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Imm).To(Equal(uint32(4)))
		})

		It("should decode UDF, SVC and hints", func() {
			Expect(decode16(0xDE00).Op).To(Equal(insts.OpUDF))
			Expect(decode16(0xDF01).Op).To(Equal(insts.OpSVC))
			Expect(decode16(0xBF00).Op).To(Equal(insts.OpNOP))
			Expect(decode16(0xBF30).Op).To(Equal(insts.OpWFI))
		})

		// ITE EQ -> 0xBF0C
		It("should decode IT blocks", func() {
			inst := decode16(0xBF0C)

			Expect(inst.Op).To(Equal(insts.OpIT))
			Expect(inst.Cond).To(Equal(insts.CondEQ))
			Expect(insts.ITConditions(inst.Cond, inst.Mask)).
				To(Equal([]insts.Cond{insts.CondEQ, insts.CondNE}))
		})
	})

	Describe("16-bit extend and reverse", func() {
		It("should decode UXTB R0, R1 and REV R0, R1", func() {
			uxtb := decode16(0xB2C8)
			Expect(uxtb.Op).To(Equal(insts.OpUXTB))
			Expect(uxtb.Rd).To(Equal(insts.R0))
			Expect(uxtb.Rm).To(Equal(insts.R1))

			Expect(decode16(0xBA08).Op).To(Equal(insts.OpREV))
		})
	})

	Describe("32-bit branches", func() {
		// BL +0x100 -> 0xF000 0xF880
		It("should decode BL with a forward offset", func() {
			inst := decode32(0xF000, 0xF880)

			Expect(inst.Op).To(Equal(insts.OpBL))
			Expect(inst.Imm).To(Equal(uint32(0x100)))
		})

		// BL . -> 0xF7FF 0xFFFE
		It("should decode BL with a backward offset", func() {
			inst := decode32(0xF7FF, 0xFFFE)

			Expect(inst.Op).To(Equal(insts.OpBL))
			Expect(int32(inst.Imm)).To(Equal(int32(-4)))
		})

		// TBB [R0, R1] -> 0xE8D0 0xF001
		It("should decode TBB", func() {
			inst := decode32(0xE8D0, 0xF001)

			Expect(inst.Op).To(Equal(insts.OpTBB))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Rm).To(Equal(insts.R1))
		})
	})

	Describe("32-bit data processing", func() {
		// MOVW R0, #0x1234 -> 0xF241 0x2034
		It("should decode MOVW", func() {
			inst := decode32(0xF241, 0x2034)

			Expect(inst.Op).To(Equal(insts.OpMOVImm))
			Expect(inst.Rd).To(Equal(insts.R0))
			Expect(inst.Imm).To(Equal(uint32(0x1234)))
			Expect(inst.FlagsSet(false)).To(BeFalse())
		})

		// MOVT R0, #0x2000 -> 0xF2C2 0x0000
		It("should decode MOVT", func() {
			inst := decode32(0xF2C2, 0x0000)

			Expect(inst.Op).To(Equal(insts.OpMOVT))
			Expect(inst.Imm).To(Equal(uint32(0x2000)))
		})

		// ADD.W R0, R1, #0xFF00FF00 -> 0xF101 0x20FF
		It("should expand replicated modified immediates", func() {
			inst := decode32(0xF101, 0x20FF)

			Expect(inst.Op).To(Equal(insts.OpADDImm))
			Expect(inst.Rd).To(Equal(insts.R0))
			Expect(inst.Rn).To(Equal(insts.R1))
			Expect(inst.Imm).To(Equal(uint32(0xFF00FF00)))
			Expect(inst.ImmRotated).To(BeFalse())
		})

		// MOVS.W R0, #0x80000000 -> 0xF05F 0x4000
		It("should expand rotated modified immediates", func() {
			inst := decode32(0xF05F, 0x4000)

			Expect(inst.Op).To(Equal(insts.OpMOVImm))
			Expect(inst.Rn).To(Equal(insts.NoRegister))
			Expect(inst.Imm).To(Equal(uint32(0x80000000)))
			Expect(inst.ImmRotated).To(BeTrue())
			Expect(inst.FlagsSet(true)).To(BeTrue())
		})

		// UBFX R0, R1, #4, #8 -> 0xF3C1 0x1007
		It("should decode bit field extracts", func() {
			inst := decode32(0xF3C1, 0x1007)

			Expect(inst.Op).To(Equal(insts.OpUBFX))
			Expect(inst.Lsb).To(Equal(uint8(4)))
			Expect(inst.Width).To(Equal(uint8(8)))
		})

		// UQADD8 R0, R1, R2 -> 0xFA81 0xF052
		It("should decode parallel saturating arithmetic", func() {
			inst := decode32(0xFA81, 0xF052)

			Expect(inst.Op).To(Equal(insts.OpUQADD8))
			Expect(inst.Rd).To(Equal(insts.R0))
			Expect(inst.Rn).To(Equal(insts.R1))
			Expect(inst.Rm).To(Equal(insts.R2))
		})

		// CLZ R0, R1 -> 0xFAB1 0xF081
		It("should decode CLZ", func() {
			inst := decode32(0xFAB1, 0xF081)

			Expect(inst.Op).To(Equal(insts.OpCLZ))
			Expect(inst.Rm).To(Equal(insts.R1))
		})

		// SDIV R0, R1, R2 -> 0xFB91 0xF0F2
		It("should decode SDIV", func() {
			inst := decode32(0xFB91, 0xF0F2)

			Expect(inst.Op).To(Equal(insts.OpSDIV))
			Expect(inst.Rd).To(Equal(insts.R0))
			Expect(inst.Rn).To(Equal(insts.R1))
			Expect(inst.Rm).To(Equal(insts.R2))
		})

		// UMULL R0, R1, R2, R3 -> 0xFBA2 0x0103
		It("should decode UMULL", func() {
			inst := decode32(0xFBA2, 0x0103)

			Expect(inst.Op).To(Equal(insts.OpUMULL))
			Expect(inst.RdLo).To(Equal(insts.R0))
			Expect(inst.RdHi).To(Equal(insts.R1))
		})
	})

	Describe("32-bit loads and stores", func() {
		// LDR.W R0, [R1, #0x100] -> 0xF8D1 0x0100
		It("should decode imm12 loads", func() {
			inst := decode32(0xF8D1, 0x0100)

			Expect(inst.Op).To(Equal(insts.OpLDRImm))
			Expect(inst.Rn).To(Equal(insts.R1))
			Expect(inst.Imm).To(Equal(uint32(0x100)))
		})

		// LDR R0, [R1], #4 -> 0xF851 0x0B04
		It("should decode post-indexed loads", func() {
			inst := decode32(0xF851, 0x0B04)

			Expect(inst.Op).To(Equal(insts.OpLDRImm))
			Expect(inst.Index).To(BeFalse())
			Expect(inst.Add).To(BeTrue())
			Expect(inst.WriteBack).To(BeTrue())
		})

		// STR R0, [SP, #-4]! -> 0xF84D 0x0D04
		It("should decode pre-indexed stores with writeback", func() {
			inst := decode32(0xF84D, 0x0D04)

			Expect(inst.Op).To(Equal(insts.OpSTRImm))
			Expect(inst.Rn).To(Equal(insts.SP))
			Expect(inst.Index).To(BeTrue())
			Expect(inst.Add).To(BeFalse())
			Expect(inst.WriteBack).To(BeTrue())
		})

		// PUSH.W {R4-R11, LR} -> 0xE92D 0x4FF0
		It("should decode the wide PUSH", func() {
			inst := decode32(0xE92D, 0x4FF0)

			Expect(inst.Op).To(Equal(insts.OpPUSH))
			Expect(inst.Registers).To(HaveLen(9))
			Expect(inst.Registers[8]).To(Equal(insts.LR))
		})
	})

	Describe("VFP", func() {
		// VADD.F32 S0, S1, S2 -> 0xEE30 0x0A81
		It("should decode VADD.F32", func() {
			inst := decode32(0xEE30, 0x0A81)

			Expect(inst.Op).To(Equal(insts.OpVADD))
			Expect(inst.Double).To(BeFalse())
			Expect(inst.Vd).To(Equal(uint8(0)))
			Expect(inst.Vn).To(Equal(uint8(1)))
			Expect(inst.Vm).To(Equal(uint8(2)))
		})

		// VMOV S0, R1 -> 0xEE00 0x1A10, VMOV R0, S0 -> 0xEE10 0x0A10
		It("should decode core register transfers", func() {
			to := decode32(0xEE00, 0x1A10)
			Expect(to.Op).To(Equal(insts.OpVMOVCoreToSingle))
			Expect(to.Rt).To(Equal(insts.R1))
			Expect(to.Vn).To(Equal(uint8(0)))

			from := decode32(0xEE10, 0x0A10)
			Expect(from.Op).To(Equal(insts.OpVMOVSingleToCore))
			Expect(from.Rt).To(Equal(insts.R0))
		})

		// VCMP.F32 S0, #0.0 -> 0xEEB5 0x0A40
		It("should decode compares against zero", func() {
			inst := decode32(0xEEB5, 0x0A40)

			Expect(inst.Op).To(Equal(insts.OpVCMP))
			Expect(inst.WithZero).To(BeTrue())
		})

		// VCVT.S32.F32 S0, S0 -> 0xEEBD 0x0AC0
		It("should decode float to integer conversion", func() {
			inst := decode32(0xEEBD, 0x0AC0)

			Expect(inst.Op).To(Equal(insts.OpVCVTFloatToInt))
			Expect(inst.Signed).To(BeTrue())
			Expect(inst.Rounding).To(Equal(insts.FPRoundZero))
		})

		// VLDR S0, [R0, #4] -> 0xED90 0x0A01
		It("should decode VLDR", func() {
			inst := decode32(0xED90, 0x0A01)

			Expect(inst.Op).To(Equal(insts.OpVLDR))
			Expect(inst.Rn).To(Equal(insts.R0))
			Expect(inst.Imm).To(Equal(uint32(4)))
			Expect(inst.Add).To(BeTrue())
		})

		// VPUSH {D8} -> 0xED2D 0x8B02
		It("should decode VPUSH of doubles", func() {
			inst := decode32(0xED2D, 0x8B02)

			Expect(inst.Op).To(Equal(insts.OpVPUSH))
			Expect(inst.Double).To(BeTrue())
			Expect(inst.Vd).To(Equal(uint8(8)))
			Expect(inst.Count).To(Equal(uint8(1)))
		})
	})

	Describe("DecodeAt", func() {
		It("should fetch 16 and 32-bit encodings from the image", func() {
			code := byteMap{}
			code.putHalf(0x100, 0x2001)
			code.putHalf(0x102, 0xF241)
			code.putHalf(0x104, 0x2034)
			decoder = insts.NewThumbDecoder(code)

			inst, size, err := decoder.DecodeAt(0x100)
			Expect(err).NotTo(HaveOccurred())
			Expect(size).To(Equal(uint32(2)))
			Expect(inst.Op).To(Equal(insts.OpMOVImm))

			inst, size, err = decoder.DecodeAt(0x102)
			Expect(err).NotTo(HaveOccurred())
			Expect(size).To(Equal(uint32(4)))
			Expect(inst.Imm).To(Equal(uint32(0x1234)))
		})

		It("should report missing code", func() {
			_, _, err := decoder.DecodeAt(0x2000)
			Expect(err).To(MatchError(insts.ErrNoCode))
		})

		It("should report unsupported encodings", func() {
			code := byteMap{}
			// PKHBT is not modelled.
			code.putHalf(0, 0xEAC1)
			code.putHalf(2, 0x0002)
			decoder = insts.NewThumbDecoder(code)

			_, _, err := decoder.DecodeAt(0)
			Expect(err).To(MatchError(insts.ErrUnsupportedEncoding))
		})
	})
})
