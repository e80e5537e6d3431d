package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

func fpExpanders() map[insts.Op]expander {
	return map[insts.Op]expander{
		insts.OpVADD:  fpBinary(fpAdd),
		insts.OpVSUB:  fpBinary(fpSub),
		insts.OpVMUL:  fpBinary(fpMul),
		insts.OpVDIV:  fpBinary(fpDiv),
		insts.OpVNMUL: expandVNMUL,
		insts.OpVMLA:  fpMultiplyAccumulate(false, false),
		insts.OpVMLS:  fpMultiplyAccumulate(false, true),
		insts.OpVNMLA: fpMultiplyAccumulate(true, true),
		insts.OpVNMLS: fpMultiplyAccumulate(true, false),
		insts.OpVFMA:  fpFused(false, false),
		insts.OpVFMS:  fpFused(true, false),
		insts.OpVFNMA: fpFused(true, true),
		insts.OpVFNMS: fpFused(false, true),
		insts.OpVABS:  expandVABS,
		insts.OpVNEG:  expandVNEG,
		insts.OpVSQRT: expandVSQRT,

		insts.OpVMOVReg: expandVMOVReg,
		insts.OpVMOVImm: expandVMOVImm,
		insts.OpVCMP:    fpCompare(false),
		insts.OpVCMPE:   fpCompare(true),
		insts.OpVSEL:    expandVSEL,
		insts.OpVMAXNM:  fpMinMax(true),
		insts.OpVMINNM:  fpMinMax(false),
		insts.OpVRINT:   expandVRINT,

		insts.OpVCVTFloatToInt: expandVCVTFloatToInt,
		insts.OpVCVTIntToFloat: expandVCVTIntToFloat,
		insts.OpVCVTPrecision:  expandVCVTPrecision,
		insts.OpVCVTB:          expandVCVTHalf,
		insts.OpVCVTT:          expandVCVTHalf,
		insts.OpVCVTToFixed:    expandVCVTToFixed,
		insts.OpVCVTFromFixed:  expandVCVTFromFixed,

		insts.OpVMRS:                 expandVMRS,
		insts.OpVMSR:                 expandVMSR,
		insts.OpVMOVCoreToSingle:     expandVMOVCoreToSingle,
		insts.OpVMOVSingleToCore:     expandVMOVSingleToCore,
		insts.OpVMOVCoreToScalar:     expandVMOVCoreToScalar,
		insts.OpVMOVScalarToCore:     expandVMOVScalarToCore,
		insts.OpVMOVCoreToDouble:     expandVMOVCoreToDouble,
		insts.OpVMOVDoubleToCore:     expandVMOVDoubleToCore,
		insts.OpVMOVCoreToSinglePair: expandVMOVCoreToSinglePair,
		insts.OpVMOVSinglePairToCore: expandVMOVSinglePairToCore,

		insts.OpVLDR:  expandVLDR,
		insts.OpVSTR:  expandVSTR,
		insts.OpVLDM:  fpLoadMultiple,
		insts.OpVPOP:  fpLoadMultiple,
		insts.OpVSTM:  fpStoreMultiple,
		insts.OpVPUSH: fpStoreMultiple,
	}
}

var (
	word   = ir.Integral(32, false)
	dword  = ir.Integral(64, false)
	fpscrR = ir.RoundFPSCR
)

func fpType(inst insts.Instruction) ir.FPType { return ir.BinaryOf(inst.Double) }

func vd(inst insts.Instruction) ir.FPOperand { return ir.FPReg(fpType(inst), inst.Vd) }
func vn(inst insts.Instruction) ir.FPOperand { return ir.FPReg(fpType(inst), inst.Vn) }
func vm(inst insts.Instruction) ir.FPOperand { return ir.FPReg(fpType(inst), inst.Vm) }

// rawOf returns the bit pattern type as wide as t.
func rawOf(t ir.FPType) ir.FPType {
	if t.Size == 64 {
		return dword
	}
	return ir.Integral(t.Size, false)
}

type fpArith uint8

const (
	fpAdd fpArith = iota
	fpSub
	fpMul
	fpDiv
)

func fpOp(kind fpArith, dst, a, b ir.FPOperand) ir.Operation {
	switch kind {
	case fpSub:
		return ir.FPSub{Dst: dst, A: a, B: b, Rounding: fpscrR}
	case fpMul:
		return ir.FPMul{Dst: dst, A: a, B: b, Rounding: fpscrR}
	case fpDiv:
		return ir.FPDiv{Dst: dst, A: a, B: b, Rounding: fpscrR}
	}
	return ir.FPAdd{Dst: dst, A: a, B: b, Rounding: fpscrR}
}

func fpBinary(kind fpArith) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		return []ir.Operation{fpOp(kind, vd(inst), vn(inst), vm(inst))}
	}
}

func expandVNMUL(inst insts.Instruction, _ bool) []ir.Operation {
	product := ir.FPLocal(fpType(inst), "product")
	return []ir.Operation{
		ir.FPMul{Dst: product, A: vn(inst), B: vm(inst), Rounding: fpscrR},
		ir.FPNeg{Dst: vd(inst), Src: product},
	}
}

// fpMultiplyAccumulate expands VMLA, VMLS, VNMLA and VNMLS. The product is
// rounded before it is accumulated.
func fpMultiplyAccumulate(negateAcc, subtract bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		t := fpType(inst)
		product := ir.FPLocal(t, "product")
		acc := vd(inst)
		ops := []ir.Operation{
			ir.FPMul{Dst: product, A: vn(inst), B: vm(inst), Rounding: fpscrR},
		}
		if negateAcc {
			ops = append(ops, ir.FPNeg{Dst: ir.FPLocal(t, "acc"), Src: acc})
			acc = ir.FPLocal(t, "acc")
		}
		kind := fpAdd
		if subtract {
			kind = fpSub
		}
		return append(ops, fpOp(kind, vd(inst), acc, product))
	}
}

// fpFused expands VFMA, VFMS, VFNMA and VFNMS as a single rounding of
// (+-Vn) * Vm + (+-Vd).
func fpFused(negateProduct, negateAcc bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		t := fpType(inst)
		n, acc := vn(inst), vd(inst)
		var ops []ir.Operation
		if negateProduct {
			ops = append(ops, ir.FPNeg{Dst: ir.FPLocal(t, "n"), Src: n})
			n = ir.FPLocal(t, "n")
		}
		if negateAcc {
			ops = append(ops, ir.FPNeg{Dst: ir.FPLocal(t, "acc"), Src: acc})
			acc = ir.FPLocal(t, "acc")
		}
		return append(ops, ir.FPFusedMulAdd{Dst: vd(inst), A: n, B: vm(inst), C: acc, Rounding: fpscrR})
	}
}

func expandVABS(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPAbs{Dst: vd(inst), Src: vm(inst)}}
}

func expandVNEG(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPNeg{Dst: vd(inst), Src: vm(inst)}}
}

func expandVSQRT(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPSqrt{Dst: vd(inst), Src: vm(inst), Rounding: fpscrR}}
}

func expandVMOVReg(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPCopy{Dst: vd(inst), Src: vm(inst)}}
}

// VMOV immediate doubles carry only the upper word.
func expandVMOVImm(inst insts.Instruction, _ bool) []ir.Operation {
	bits := uint64(inst.Imm)
	if inst.Double {
		bits <<= 32
	}
	return []ir.Operation{ir.FPCopy{Dst: vd(inst), Src: ir.FPImm(fpType(inst), bits)}}
}

// fpCompare expands VCMP, and VCMPE when signaling is set. Equality, less
// than and greater than are computed independently; all three are false
// when the operands are unordered.
func fpCompare(signaling bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		a, b := vd(inst), vm(inst)
		if inst.WithZero {
			b = ir.FPImm(fpType(inst), 0)
		}

		unordered := local("unordered")
		ops := []ir.Operation{
			ir.FPIsNaN{Dst: local("a.nan"), Src: a},
			ir.FPIsNaN{Dst: local("b.nan"), Src: b},
			ir.Or{Dst: unordered, A: local("a.nan"), B: local("b.nan")},
		}
		if signaling {
			ops = append(ops, ir.Ite{Cond: unordered, Then: abort(ReasonInvalidFP)})
		}

		eq, lt, gt := local("eq"), local("lt"), local("gt")
		return append(ops,
			ir.FPCompare{Dst: eq, A: a, B: b, Mode: ir.FPEqual},
			ir.FPCompare{Dst: lt, A: a, B: b, Mode: ir.FPLess},
			ir.FPCompare{Dst: gt, A: a, B: b, Mode: ir.FPGreater},
			ir.Move{Dst: flagOf(ir.FPFlagN), Src: lt},
			ir.Move{Dst: flagOf(ir.FPFlagZ), Src: eq},
			ir.Or{Dst: local("c"), A: eq, B: gt},
			ir.Or{Dst: local("c"), A: local("c"), B: unordered},
			ir.Move{Dst: flagOf(ir.FPFlagC), Src: local("c")},
			ir.Move{Dst: flagOf(ir.FPFlagV), Src: unordered},
		)
	}
}

// VSEL picks between the bit patterns of Vn and Vm on the APSR condition.
func expandVSEL(inst insts.Instruction, _ bool) []ir.Operation {
	raw := rawOf(fpType(inst))
	return []ir.Operation{
		ir.CheckCondition{Dst: local("sel"), Cond: inst.Cond},
		ir.FPCopy{Dst: ir.FPLocal(raw, "n"), Src: ir.FPReg(raw, inst.Vn)},
		ir.FPCopy{Dst: ir.FPLocal(raw, "m"), Src: ir.FPReg(raw, inst.Vm)},
		ir.Select{Dst: local("result"), Cond: local("sel"), A: local("n"), B: local("m")},
		ir.FPCopy{Dst: ir.FPReg(raw, inst.Vd), Src: ir.FPLocal(raw, "result")},
	}
}

// fpMinMax expands VMAXNM and VMINNM. A signaling NaN operand wins and is
// quieted, Vn before Vm. Otherwise a single quiet NaN yields the other
// operand and two quiet NaNs yield Vn. Between zeros of opposite sign the
// maximum is +0 and the minimum -0.
func fpMinMax(isMax bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		t := fpType(inst)
		raw := rawOf(t)
		quiet, zero := ir.Imm(1<<22, 32), ir.Imm(0, 32)
		if inst.Double {
			quiet, zero = ir.Imm(1<<51, 64), ir.Imm(0, 64)
		}

		mode := ir.FPLess
		tie := ir.Operation(ir.Or{Dst: local("tie"), A: local("n"), B: local("m")})
		if isMax {
			mode = ir.FPGreater
			tie = ir.And{Dst: local("tie"), A: local("n"), B: local("m")}
		}

		result := local("result")
		ops := []ir.Operation{
			ir.FPCopy{Dst: ir.FPLocal(raw, "n"), Src: ir.FPReg(raw, inst.Vn)},
			ir.FPCopy{Dst: ir.FPLocal(raw, "m"), Src: ir.FPReg(raw, inst.Vm)},
			ir.FPIsNaN{Dst: local("n.nan"), Src: vn(inst)},
			ir.FPIsNaN{Dst: local("m.nan"), Src: vm(inst)},
			ir.FPCompare{Dst: local("pick"), A: vn(inst), B: vm(inst), Mode: mode},
			ir.FPCompare{Dst: local("eq"), A: vn(inst), B: vm(inst), Mode: ir.FPEqual},
			ir.Select{Dst: result, Cond: local("pick"), A: local("n"), B: local("m")},
			tie,
			ir.Select{Dst: result, Cond: local("eq"), A: local("tie"), B: result},
			ir.Select{Dst: result, Cond: local("m.nan"), A: local("n"), B: result},
			ir.Select{Dst: result, Cond: local("n.nan"), A: local("m"), B: result},
			ir.And{Dst: local("both.nan"), A: local("n.nan"), B: local("m.nan")},
			ir.Or{Dst: local("n.quieted"), A: local("n"), B: quiet},
			ir.Select{Dst: result, Cond: local("both.nan"), A: local("n.quieted"), B: result},
		}
		// m first so that a signaling Vn takes precedence.
		for _, x := range []string{"m", "n"} {
			ops = append(ops,
				ir.And{Dst: local(x + ".qbit"), A: local(x), B: quiet},
				ir.Compare{Dst: local(x + ".signaling"), A: local(x + ".qbit"), B: zero, Op: ir.Eq},
				ir.And{Dst: local(x + ".snan"), A: local(x + ".nan"), B: local(x + ".signaling")},
				ir.Or{Dst: local(x + ".quieted"), A: local(x), B: quiet},
				ir.Select{Dst: result, Cond: local(x + ".snan"), A: local(x + ".quieted"), B: result},
			)
		}
		return append(ops, ir.FPCopy{Dst: ir.FPReg(raw, inst.Vd), Src: ir.FPLocal(raw, "result")})
	}
}

func expandVRINT(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPRoundToInt{Dst: vd(inst), Src: vm(inst), Rounding: ir.RoundingOf(inst.Rounding)}}
}

// The integer side of VCVT is always an S register.
func expandVCVTFloatToInt(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPConvert{
		Dst:      ir.FPReg(ir.Integral(32, inst.Signed), inst.Vd),
		Src:      vm(inst),
		Rounding: ir.RoundingOf(inst.Rounding),
	}}
}

func expandVCVTIntToFloat(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPConvert{
		Dst:      vd(inst),
		Src:      ir.FPReg(ir.Integral(32, inst.Signed), inst.Vm),
		Rounding: fpscrR,
	}}
}

func expandVCVTPrecision(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPConvert{
		Dst:      ir.FPReg(ir.BinaryOf(!inst.Double), inst.Vd),
		Src:      vm(inst),
		Rounding: fpscrR,
	}}
}

// expandVCVTHalf expands VCVTB and VCVTT. The half-precision value sits in
// the bottom or top half of an S register; the other half is preserved.
func expandVCVTHalf(inst insts.Instruction, _ bool) []ir.Operation {
	half := ir.FPLocal(ir.Binary16, "half")
	pos := uint32(0)
	keep := uint32(0xFFFF0000)
	if inst.Top {
		pos = 16
		keep = 0x0000FFFF
	}

	if !inst.ToHalf {
		return []ir.Operation{
			ir.FPCopy{Dst: ir.FPLocal(word, "word"), Src: ir.FPReg(word, inst.Vm)},
			ir.Shift{Dst: local("word"), Src: local("word"), Amount: imm32(pos), Kind: ir.LSR},
			ir.Resize{Dst: local("half"), Src: local("word"), Width: 16},
			ir.FPConvert{Dst: vd(inst), Src: half, Rounding: fpscrR},
		}
	}

	return []ir.Operation{
		ir.FPConvert{Dst: half, Src: vm(inst), Rounding: fpscrR},
		ir.FPCopy{Dst: ir.FPLocal(word, "word"), Src: ir.FPReg(word, inst.Vd)},
		ir.And{Dst: local("word"), A: local("word"), B: imm32(keep)},
		ir.ZeroExtend{Dst: local("packed"), Src: local("half"), Bits: 16, Width: 32},
		ir.Shift{Dst: local("packed"), Src: local("packed"), Amount: imm32(pos), Kind: ir.LSL},
		ir.Or{Dst: local("word"), A: local("word"), B: local("packed")},
		ir.FPCopy{Dst: ir.FPReg(word, inst.Vd), Src: ir.FPLocal(word, "word")},
	}
}

// powerOfTwo returns 2^n as a constant of type t.
func powerOfTwo(t ir.FPType, n uint8) ir.FPOperand {
	if t.Size == 64 {
		return ir.FPImm(t, uint64(1023+uint64(n))<<52)
	}
	return ir.FPImm(t, uint64(127+uint64(n))<<23)
}

// expandVCVTToFixed scales by 2^fbits and rounds to a FixedSize-bit
// integer in the FPSCR rounding mode, extended to fill the register.
func expandVCVTToFixed(inst insts.Instruction, _ bool) []ir.Operation {
	t := fpType(inst)
	width := t.Size
	fixed := local("fixed")
	ops := []ir.Operation{
		ir.FPMul{Dst: ir.FPLocal(t, "scaled"), A: vd(inst), B: powerOfTwo(t, inst.FBits), Rounding: fpscrR},
		ir.FPConvert{
			Dst:      ir.FPLocal(ir.Integral(uint32(inst.FixedSize), inst.Signed), "fixed"),
			Src:      ir.FPLocal(t, "scaled"),
			Rounding: fpscrR,
		},
	}
	if inst.Signed {
		ops = append(ops, ir.SignExtend{Dst: fixed, Src: fixed, Bits: uint32(inst.FixedSize), Width: width})
	} else {
		ops = append(ops, ir.ZeroExtend{Dst: fixed, Src: fixed, Bits: uint32(inst.FixedSize), Width: width})
	}
	raw := rawOf(t)
	return append(ops, ir.FPCopy{Dst: ir.FPReg(raw, inst.Vd), Src: ir.FPLocal(raw, "fixed")})
}

// expandVCVTFromFixed reads the low FixedSize bits as an integer, converts
// it and divides by 2^fbits.
func expandVCVTFromFixed(inst insts.Instruction, _ bool) []ir.Operation {
	t := fpType(inst)
	raw := rawOf(t)
	value := ir.FPLocal(t, "value")
	return []ir.Operation{
		ir.FPCopy{Dst: ir.FPLocal(raw, "raw"), Src: ir.FPReg(raw, inst.Vd)},
		ir.Resize{Dst: local("fixed"), Src: local("raw"), Width: uint32(inst.FixedSize)},
		ir.FPConvert{
			Dst:      value,
			Src:      ir.FPLocal(ir.Integral(uint32(inst.FixedSize), inst.Signed), "fixed"),
			Rounding: fpscrR,
		},
		ir.FPDiv{Dst: vd(inst), A: value, B: powerOfTwo(t, inst.FBits), Rounding: fpscrR},
	}
}

// VMRS to PC copies the FPSCR flags into APSR.
func expandVMRS(inst insts.Instruction, _ bool) []ir.Operation {
	if inst.Rt != insts.PC {
		return []ir.Operation{ir.Move{Dst: reg(inst.Rt), Src: ir.FPSCR()}}
	}
	return []ir.Operation{
		ir.Move{Dst: flagOf(ir.FlagN), Src: flagOf(ir.FPFlagN)},
		ir.Move{Dst: flagOf(ir.FlagZ), Src: flagOf(ir.FPFlagZ)},
		ir.Move{Dst: flagOf(ir.FlagC), Src: flagOf(ir.FPFlagC)},
		ir.Move{Dst: flagOf(ir.FlagV), Src: flagOf(ir.FPFlagV)},
	}
}

func expandVMSR(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.Move{Dst: ir.FPSCR(), Src: reg(inst.Rt)}}
}

func expandVMOVCoreToSingle(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPCopy{Dst: ir.FPReg(word, inst.Vn), Src: ir.FPCore(word, reg(inst.Rt))}}
}

func expandVMOVSingleToCore(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPCopy{Dst: ir.FPCore(word, reg(inst.Rt)), Src: ir.FPReg(word, inst.Vn)}}
}

// scalarIndex names the S register holding one word of D<vd>.
func scalarIndex(inst insts.Instruction) uint8 {
	if inst.Top {
		return 2*inst.Vd + 1
	}
	return 2 * inst.Vd
}

func expandVMOVCoreToScalar(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPCopy{Dst: ir.FPReg(word, scalarIndex(inst)), Src: ir.FPCore(word, reg(inst.Rt))}}
}

func expandVMOVScalarToCore(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.FPCopy{Dst: ir.FPCore(word, reg(inst.Rt)), Src: ir.FPReg(word, scalarIndex(inst))}}
}

// D<m> takes Rt2:Rt.
func expandVMOVCoreToDouble(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.Concat{Dst: local("pair"), Hi: reg(inst.Rt2), Lo: reg(inst.Rt)},
		ir.FPCopy{Dst: ir.FPReg(dword, inst.Vm), Src: ir.FPLocal(dword, "pair")},
	}
}

func expandVMOVDoubleToCore(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.FPCopy{Dst: ir.FPLocal(dword, "pair"), Src: ir.FPReg(dword, inst.Vm)},
		ir.Resize{Dst: reg(inst.Rt), Src: local("pair"), Width: 32},
		ir.Shift{Dst: local("pair"), Src: local("pair"), Amount: ir.Imm(32, 64), Kind: ir.LSR},
		ir.Resize{Dst: reg(inst.Rt2), Src: local("pair"), Width: 32},
	}
}

func expandVMOVCoreToSinglePair(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.FPCopy{Dst: ir.FPReg(word, inst.Vm), Src: ir.FPCore(word, reg(inst.Rt))},
		ir.FPCopy{Dst: ir.FPReg(word, inst.Vm+1), Src: ir.FPCore(word, reg(inst.Rt2))},
	}
}

func expandVMOVSinglePairToCore(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.FPCopy{Dst: ir.FPCore(word, reg(inst.Rt)), Src: ir.FPReg(word, inst.Vm)},
		ir.FPCopy{Dst: ir.FPCore(word, reg(inst.Rt2)), Src: ir.FPReg(word, inst.Vm+1)},
	}
}

func expandVLDR(inst insts.Instruction, _ bool) []ir.Operation {
	raw := rawOf(fpType(inst))
	ops := address(inst, addrImmediate)
	return append(ops,
		ir.Move{Dst: local("data"), Src: ir.AddressInLocal("addr", raw.Size)},
		ir.FPCopy{Dst: ir.FPReg(raw, inst.Vd), Src: ir.FPLocal(raw, "data")},
	)
}

func expandVSTR(inst insts.Instruction, _ bool) []ir.Operation {
	raw := rawOf(fpType(inst))
	ops := address(inst, addrImmediate)
	return append(ops,
		ir.FPCopy{Dst: ir.FPLocal(raw, "data"), Src: ir.FPReg(raw, inst.Vd)},
		ir.Move{Dst: ir.AddressInLocal("addr", raw.Size), Src: local("data")},
	)
}

// fpMultipleBase sets addr to the lowest address of a VLDM/VSTM transfer
// and wback to the updated base.
func fpMultipleBase(inst insts.Instruction) ([]ir.Operation, ir.FPType) {
	raw := rawOf(fpType(inst))
	size := imm32(uint32(inst.Count) * raw.Size / 8)
	if inst.Index {
		return []ir.Operation{
			ir.Sub{Dst: local("addr"), A: reg(inst.Rn), B: size},
			ir.Move{Dst: local("wback"), Src: local("addr")},
		}, raw
	}
	return []ir.Operation{
		ir.Move{Dst: local("addr"), Src: reg(inst.Rn)},
		ir.Add{Dst: local("wback"), A: reg(inst.Rn), B: size},
	}, raw
}

func fpLoadMultiple(inst insts.Instruction, _ bool) []ir.Operation {
	ops, raw := fpMultipleBase(inst)
	for i := uint8(0); i < inst.Count; i++ {
		ops = append(ops,
			ir.Move{Dst: local("data"), Src: ir.AddressInLocal("addr", raw.Size)},
			ir.FPCopy{Dst: ir.FPReg(raw, inst.Vd+i), Src: ir.FPLocal(raw, "data")},
			ir.Add{Dst: local("addr"), A: local("addr"), B: imm32(raw.Size / 8)},
		)
	}
	if inst.WriteBack {
		ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: local("wback")})
	}
	return ops
}

func fpStoreMultiple(inst insts.Instruction, _ bool) []ir.Operation {
	ops, raw := fpMultipleBase(inst)
	for i := uint8(0); i < inst.Count; i++ {
		ops = append(ops,
			ir.FPCopy{Dst: ir.FPLocal(raw, "data"), Src: ir.FPReg(raw, inst.Vd+i)},
			ir.Move{Dst: ir.AddressInLocal("addr", raw.Size), Src: local("data")},
			ir.Add{Dst: local("addr"), A: local("addr"), B: imm32(raw.Size / 8)},
		)
	}
	if inst.WriteBack {
		ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: local("wback")})
	}
	return ops
}
