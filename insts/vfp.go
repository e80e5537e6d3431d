package insts

// NumSingleRegisters and NumDoubleRegisters size the FPv4/FPv5-D16
// extension register file. D<n> aliases S<2n+1>:S<2n>.
const (
	NumSingleRegisters = 32
	NumDoubleRegisters = 16
)

// vreg assembles a VFP register number from its 4-bit field and the extra
// D/N/M bit. Single registers put the extra bit at the bottom, doubles at
// the top.
func vreg(v4, extra uint32, double bool) uint8 {
	if double {
		return uint8(extra<<4 | v4)
	}
	return uint8(v4<<1 | extra)
}

// decodeVFP decodes the coprocessor 10/11 space.
func decodeVFP(a, b uint32) (Instruction, error) {
	if bit(a, 12) {
		return decodeVFPv8(a, b)
	}

	switch {
	case (a>>8)&0xF == 0b1110 && !bit(b, 4):
		return decodeVFPDataProcessing(a, b)
	case (a>>8)&0xF == 0b1110:
		return decodeVFPTransfer(a, b)
	case (a>>5)&0x7F == 0b1100010:
		return decodeVFPTransfer64(a, b)
	case (a>>9)&0x7 == 0b110:
		return decodeVFPLoadStore(a, b)
	}
	return unsupported(a<<16 | b)
}

type vfpFields struct {
	d, n, m    uint32
	vd, vn, vm uint32
	double     bool
}

func vfpOperands(a, b uint32) vfpFields {
	return vfpFields{
		d:      (a >> 6) & 1,
		n:      (b >> 7) & 1,
		m:      (b >> 5) & 1,
		vd:     (b >> 12) & 0xF,
		vn:     a & 0xF,
		vm:     b & 0xF,
		double: bit(b, 8),
	}
}

func (f vfpFields) fill(inst *Instruction) {
	inst.Double = f.double
	inst.Vd = vreg(f.vd, f.d, f.double)
	inst.Vn = vreg(f.vn, f.n, f.double)
	inst.Vm = vreg(f.vm, f.m, f.double)
}

// validVFP rejects double registers beyond D15.
func (i Instruction) validVFP() bool {
	if !i.Double {
		return true
	}
	return i.Vd < NumDoubleRegisters && i.Vn < NumDoubleRegisters && i.Vm < NumDoubleRegisters
}

var vfpThreeRegOps = map[uint32][2]Op{
	0b0000: {OpVMLA, OpVMLS},
	0b0001: {OpVNMLS, OpVNMLA},
	0b0010: {OpVMUL, OpVNMUL},
	0b0011: {OpVADD, OpVSUB},
	0b1000: {OpVDIV, OpUnknown},
	0b1001: {OpVFNMS, OpVFNMA},
	0b1010: {OpVFMA, OpVFMS},
}

// decodeVFPDataProcessing handles the floating-point data processing
// space.
// Format: 11101110 | opc1(4) | opc2(4) || Vd | 101 | sz | opc3(2) | M | 0 | opc4(4)
func decodeVFPDataProcessing(a, b uint32) (Instruction, error) {
	opc1 := (a>>4)&0x8 | (a>>4)&0x3
	opc2 := a & 0xF
	opc3 := (b >> 6) & 0x3
	f := vfpOperands(a, b)

	inst := NewInstruction(OpUnknown)
	f.fill(&inst)

	if ops, ok := vfpThreeRegOps[opc1]; ok {
		inst.Op = ops[opc3&1]
		if inst.Op == OpUnknown || !inst.validVFP() {
			return unsupported(a<<16 | b)
		}
		return inst, nil
	}
	if opc1 != 0b1011 {
		return unsupported(a<<16 | b)
	}

	if opc3&1 == 0 {
		inst.Op = OpVMOVImm
		inst.Vn, inst.Vm = 0, 0
		inst.Imm = vfpExpandImm(opc2<<4|b&0xF, f.double)
		return inst, validOrUnsupported(inst, a, b)
	}

	top := opc3>>1 == 1
	switch opc2 {
	case 0b0000:
		inst.Op = OpVMOVReg
		if top {
			inst.Op = OpVABS
		}
	case 0b0001:
		inst.Op = OpVNEG
		if top {
			inst.Op = OpVSQRT
		}
	case 0b0010, 0b0011:
		// The half-precision side is always a single register.
		inst.Op = OpVCVTB
		if top {
			inst.Op = OpVCVTT
		}
		inst.Top = top
		inst.ToHalf = opc2 == 0b0011
		if inst.ToHalf {
			inst.Vd = vreg(f.vd, f.d, false)
		} else {
			inst.Vm = vreg(f.vm, f.m, false)
		}
	case 0b0100, 0b0101:
		inst.Op = OpVCMP
		if top {
			inst.Op = OpVCMPE
		}
		inst.WithZero = opc2 == 0b0101
	case 0b0110:
		inst.Op = OpVRINT
		inst.Rounding = FPRoundFPSCR
		if top {
			inst.Rounding = FPRoundZero
		}
	case 0b0111:
		if !top {
			inst.Op = OpVRINT
			inst.Rounding = FPRoundExact
			break
		}
		// Double marks the source precision; the destination is the
		// other one.
		inst.Op = OpVCVTPrecision
		inst.Vd = vreg(f.vd, f.d, !f.double)
	case 0b1000:
		inst.Op = OpVCVTIntToFloat
		inst.Signed = top
		inst.Vm = vreg(f.vm, f.m, false)
	case 0b1010, 0b1011, 0b1110, 0b1111:
		inst.Op = OpVCVTFromFixed
		if opc2&0b0100 != 0 {
			inst.Op = OpVCVTToFixed
		}
		inst.Signed = opc2&1 == 0
		inst.FixedSize = 16
		if top {
			inst.FixedSize = 32
		}
		imm5 := (b&0xF)<<1 | (b>>5)&1
		if uint32(inst.FixedSize) < imm5 {
			return unsupported(a<<16 | b)
		}
		inst.FBits = inst.FixedSize - uint8(imm5)
		inst.Vm = inst.Vd
	case 0b1100, 0b1101:
		inst.Op = OpVCVTFloatToInt
		inst.Signed = opc2&1 == 1
		inst.Rounding = FPRoundFPSCR
		if top {
			inst.Rounding = FPRoundZero
		}
		inst.Vd = vreg(f.vd, f.d, false)
	default:
		return unsupported(a<<16 | b)
	}
	return inst, validOrUnsupported(inst, a, b)
}

func validOrUnsupported(inst Instruction, a, b uint32) error {
	if inst.validVFPMixed() {
		return nil
	}
	_, err := unsupported(a<<16 | b)
	return err
}

// validVFPMixed checks register ranges for ops whose operands may differ
// in precision.
func (i Instruction) validVFPMixed() bool {
	switch i.Op {
	case OpVCVTB, OpVCVTT:
		if !i.Double {
			return true
		}
		if i.ToHalf {
			return i.Vm < NumDoubleRegisters
		}
		return i.Vd < NumDoubleRegisters
	case OpVCVTIntToFloat:
		return !i.Double || i.Vd < NumDoubleRegisters
	case OpVCVTFloatToInt:
		return !i.Double || i.Vm < NumDoubleRegisters
	case OpVCVTPrecision:
		if i.Double {
			return i.Vm < NumDoubleRegisters
		}
		return i.Vd < NumDoubleRegisters
	}
	return i.validVFP()
}

// vfpExpandImm implements VFPExpandImm. For doubles only the upper word is
// returned; the lower word is always zero.
func vfpExpandImm(imm8 uint32, double bool) uint32 {
	sign := (imm8 >> 7) & 1
	b6 := (imm8 >> 6) & 1
	if double {
		rep := uint32(0)
		if b6 == 1 {
			rep = 0xFF
		}
		return sign<<31 | (b6^1)<<30 | rep<<22 | (imm8>>4)&0x3<<20 | (imm8&0xF)<<16
	}
	rep := uint32(0)
	if b6 == 1 {
		rep = 0x1F
	}
	return sign<<31 | (b6^1)<<30 | rep<<25 | (imm8>>4)&0x3<<23 | (imm8&0xF)<<19
}

// decodeVFPTransfer handles 8, 16 and 32-bit transfers between core and
// extension registers, and VMRS/VMSR.
// Format: 11101110 | A(3) | L | Vn || Rt | 101 | C | N | B(2) | 1 | 0000
func decodeVFPTransfer(a, b uint32) (Instruction, error) {
	l := bit(a, 4)
	c := bit(b, 8)
	A := (a >> 5) & 0x7
	rt := reg(b, 12, 4)

	inst := NewInstruction(OpUnknown)
	inst.Rt = rt

	switch {
	case !c && A == 0b000:
		inst.Op = OpVMOVCoreToSingle
		if l {
			inst.Op = OpVMOVSingleToCore
		}
		inst.Vn = vreg(a&0xF, (b>>7)&1, false)
	case !c && A == 0b111:
		inst.Op = OpVMSR
		if l {
			inst.Op = OpVMRS
		}
		inst.SysReg = uint8(a & 0xF)
		if inst.SysReg != 0b0001 {
			return unsupported(a<<16 | b)
		}
	case c && A&0b110 == 0 && (b>>5)&0x3 == 0:
		inst.Op = OpVMOVCoreToScalar
		if l {
			inst.Op = OpVMOVScalarToCore
		}
		inst.Double = true
		inst.Vd = vreg(a&0xF, (b>>7)&1, true)
		inst.Top = bit(a, 5)
		if inst.Vd >= NumDoubleRegisters {
			return unsupported(a<<16 | b)
		}
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

// decodeVFPTransfer64 handles transfers between two core registers and a
// double or a pair of singles.
// Format: 11101100010 | op | Rt2 || Rt | 101 | C | 00 | M | 1 | Vm
func decodeVFPTransfer64(a, b uint32) (Instruction, error) {
	toCore := bit(a, 4)
	double := bit(b, 8)

	inst := NewInstruction(OpUnknown)
	inst.Rt = reg(b, 12, 4)
	inst.Rt2 = reg(a, 0, 4)
	inst.Double = double
	inst.Vm = vreg(b&0xF, (b>>5)&1, double)

	switch {
	case double && toCore:
		inst.Op = OpVMOVDoubleToCore
	case double:
		inst.Op = OpVMOVCoreToDouble
	case toCore:
		inst.Op = OpVMOVSinglePairToCore
	default:
		inst.Op = OpVMOVCoreToSinglePair
	}
	if (double && inst.Vm >= NumDoubleRegisters) || (!double && inst.Vm == NumSingleRegisters-1) {
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

// decodeVFPLoadStore handles VLDR, VSTR, VLDM, VSTM, VPUSH and VPOP.
// Format: 1110110 | P | U | D | W | L | Rn || Vd | 101 | sz | imm8
func decodeVFPLoadStore(a, b uint32) (Instruction, error) {
	p := bit(a, 8)
	u := bit(a, 7)
	w := bit(a, 5)
	l := bit(a, 4)
	rn := reg(a, 0, 4)
	double := bit(b, 8)
	imm8 := b & 0xFF

	inst := NewInstruction(OpUnknown)
	inst.Rn = rn
	inst.Double = double
	inst.Vd = vreg((b>>12)&0xF, (a>>6)&1, double)

	count := imm8
	if double {
		count = imm8 / 2
	}

	switch {
	case p && !w:
		inst.Op = OpVSTR
		if l {
			inst.Op = OpVLDR
		}
		inst.Imm = imm8 << 2
		inst.Add = u
		inst.Index = true
		return inst, nil
	case !p && u:
		inst.Op = OpVSTM
		if l {
			inst.Op = OpVLDM
			if w && rn == SP {
				inst.Op = OpVPOP
			}
		}
		inst.Add = true
		inst.WriteBack = w
	case p && !u && w:
		inst.Op = OpVSTM
		if !l && rn == SP {
			inst.Op = OpVPUSH
		} else if l {
			inst.Op = OpVLDM
		}
		inst.Index = true
		inst.WriteBack = true
	default:
		return unsupported(a<<16 | b)
	}

	limit := uint32(NumSingleRegisters)
	if double {
		limit = NumDoubleRegisters
	}
	if count == 0 || uint32(inst.Vd)+count > limit {
		return unsupported(a<<16 | b)
	}
	inst.Count = uint8(count)
	return inst, nil
}

var (
	vselConds     = [4]Cond{CondEQ, CondVS, CondGE, CondGT}
	directedModes = [4]FPRounding{FPRoundAway, FPRoundNearest, FPRoundPlusInf, FPRoundMinusInf}
)

// decodeVFPv8 handles the FPv5 additions: VSEL, VMAXNM/VMINNM, VRINT{A,N,P,M}
// and VCVT{A,N,P,M}.
// Format: 11111110 | opc(4) | opc2(4) || Vd | 101 | sz | N | op | M | 0 | Vm
func decodeVFPv8(a, b uint32) (Instruction, error) {
	if (a>>8)&0xF != 0b1110 || bit(b, 4) {
		return unsupported(a<<16 | b)
	}
	f := vfpOperands(a, b)
	inst := NewInstruction(OpUnknown)
	f.fill(&inst)

	switch {
	case !bit(a, 7):
		inst.Op = OpVSEL
		inst.Cond = vselConds[(a>>4)&0x3]
	case (a>>4)&0x3 == 0b00:
		inst.Op = OpVMAXNM
		if bit(b, 6) {
			inst.Op = OpVMINNM
		}
	case (a>>4)&0x3 == 0b11 && (a>>2)&0x3 == 0b10 && bit(b, 6):
		inst.Op = OpVRINT
		inst.Rounding = directedModes[a&0x3]
	case (a>>4)&0x3 == 0b11 && (a>>2)&0x3 == 0b11 && bit(b, 6):
		inst.Op = OpVCVTFloatToInt
		inst.Rounding = directedModes[a&0x3]
		inst.Signed = bit(b, 7)
		inst.Vd = vreg(f.vd, f.d, false)
		return inst, validOrUnsupported(inst, a, b)
	default:
		return unsupported(a<<16 | b)
	}
	return inst, validOrUnsupported(inst, a, b)
}
