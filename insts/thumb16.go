package insts

// decode16 decodes a 16-bit Thumb encoding. Opcode classes follow
// bits [15:10].
func decode16(w uint32) (Instruction, error) {
	switch {
	case w>>14 == 0b00:
		return decodeShiftAddSubMovCmp(w)
	case w>>10 == 0b010000:
		return decodeDataProcessing16(w)
	case w>>10 == 0b010001:
		return decodeSpecialDataBranch(w)
	case w>>11 == 0b01001:
		inst := NewInstruction(OpLDRLit)
		inst.Rt = reg(w, 8, 3)
		inst.Imm = (w & 0xFF) << 2
		inst.Add = true
		return inst, nil
	case w>>12 == 0b0101, w>>13 == 0b011, w>>13 == 0b100:
		return decodeLoadStore16(w)
	case w>>11 == 0b10100:
		inst := NewInstruction(OpADR)
		inst.Rd = reg(w, 8, 3)
		inst.Imm = (w & 0xFF) << 2
		inst.Add = true
		return inst, nil
	case w>>11 == 0b10101:
		inst := NewInstruction(OpADDImm)
		inst.Rd = reg(w, 8, 3)
		inst.Rn = SP
		inst.Imm = (w & 0xFF) << 2
		inst.SetFlags = Bool(false)
		return inst, nil
	case w>>12 == 0b1011:
		return decodeMisc16(w)
	case w>>11 == 0b11000:
		inst := NewInstruction(OpSTM)
		inst.Rn = reg(w, 8, 3)
		inst.Registers = regList(w & 0xFF)
		inst.WriteBack = true
		return inst, nil
	case w>>11 == 0b11001:
		inst := NewInstruction(OpLDM)
		inst.Rn = reg(w, 8, 3)
		inst.Registers = regList(w & 0xFF)
		inst.WriteBack = !containsRegister(inst.Registers, inst.Rn)
		return inst, nil
	case w>>12 == 0b1101:
		return decodeCondBranch16(w)
	case w>>11 == 0b11100:
		inst := NewInstruction(OpB)
		inst.Imm = signExtend((w&0x7FF)<<1, 12)
		return inst, nil
	}
	return unsupported(w)
}

// decodeShiftAddSubMovCmp handles opcode 00xxxx.
// Format: 00 | opcode(5) | operands
func decodeShiftAddSubMovCmp(w uint32) (Instruction, error) {
	op := (w >> 9) & 0x1F
	imm5 := (w >> 6) & 0x1F

	switch {
	case op>>2 == 0b000:
		if imm5 == 0 {
			// MOVS Rd, Rm always sets flags.
			inst := NewInstruction(OpMOVReg)
			inst.Rd = reg(w, 0, 3)
			inst.Rm = reg(w, 3, 3)
			inst.SetFlags = Bool(true)
			return inst, nil
		}
		return shiftImm16(OpLSLImm, w, decodeImmShift(0b00, imm5)), nil
	case op>>2 == 0b001:
		return shiftImm16(OpLSRImm, w, decodeImmShift(0b01, imm5)), nil
	case op>>2 == 0b010:
		return shiftImm16(OpASRImm, w, decodeImmShift(0b10, imm5)), nil
	case op == 0b01100, op == 0b01101:
		inst := NewInstruction(OpADDReg)
		if op == 0b01101 {
			inst.Op = OpSUBReg
		}
		inst.Rd = reg(w, 0, 3)
		inst.Rn = reg(w, 3, 3)
		inst.Rm = reg(w, 6, 3)
		return inst, nil
	case op == 0b01110, op == 0b01111:
		inst := NewInstruction(OpADDImm)
		if op == 0b01111 {
			inst.Op = OpSUBImm
		}
		inst.Rd = reg(w, 0, 3)
		inst.Rn = reg(w, 3, 3)
		inst.Imm = (w >> 6) & 0x7
		return inst, nil
	}

	inst := NewInstruction(OpUnknown)
	inst.Imm = w & 0xFF
	switch op >> 2 {
	case 0b100:
		inst.Op = OpMOVImm
		inst.Rd = reg(w, 8, 3)
	case 0b101:
		inst.Op = OpCMPImm
		inst.Rn = reg(w, 8, 3)
	case 0b110:
		inst.Op = OpADDImm
		inst.Rn = reg(w, 8, 3)
	default:
		inst.Op = OpSUBImm
		inst.Rn = reg(w, 8, 3)
	}
	return inst, nil
}

func shiftImm16(op Op, w uint32, shift Shift) Instruction {
	inst := NewInstruction(op)
	inst.Rd = reg(w, 0, 3)
	inst.Rm = reg(w, 3, 3)
	inst.Shift = shift
	return inst
}

var dataProcessing16Ops = [16]Op{
	OpANDReg, OpEORReg, OpLSLReg, OpLSRReg, OpASRReg, OpADCReg, OpSBCReg, OpRORReg,
	OpTSTReg, OpRSBImm, OpCMPReg, OpCMNReg, OpORRReg, OpMUL, OpBICReg, OpMVNReg,
}

// decodeDataProcessing16 handles opcode 010000.
// Format: 010000 | opcode(4) | Rm | Rdn
func decodeDataProcessing16(w uint32) (Instruction, error) {
	op := dataProcessing16Ops[(w>>6)&0xF]
	inst := NewInstruction(op)
	rdn := reg(w, 0, 3)
	rm := reg(w, 3, 3)

	switch op {
	case OpTSTReg, OpCMPReg, OpCMNReg:
		inst.Rn = rdn
		inst.Rm = rm
	case OpRSBImm:
		inst.Rd = rdn
		inst.Rn = rm
	case OpMVNReg:
		inst.Rd = rdn
		inst.Rm = rm
	default:
		// Two-operand form: the destination is the first source.
		inst.Rn = rdn
		inst.Rm = rm
	}
	return inst, nil
}

// decodeSpecialDataBranch handles opcode 010001: high register ADD, CMP,
// MOV and the register branches.
func decodeSpecialDataBranch(w uint32) (Instruction, error) {
	op := (w >> 6) & 0xF
	rdn := Register((w>>4)&0x8 | w&0x7)
	rm := reg(w, 3, 4)

	switch {
	case op>>2 == 0b00:
		inst := NewInstruction(OpADDReg)
		inst.Rn = rdn
		inst.Rm = rm
		inst.SetFlags = Bool(false)
		return inst, nil
	case op>>2 == 0b01:
		inst := NewInstruction(OpCMPReg)
		inst.Rn = rdn
		inst.Rm = rm
		return inst, nil
	case op>>2 == 0b10:
		inst := NewInstruction(OpMOVReg)
		inst.Rd = rdn
		inst.Rm = rm
		inst.SetFlags = Bool(false)
		return inst, nil
	case op>>1 == 0b110:
		inst := NewInstruction(OpBX)
		inst.Rm = rm
		return inst, nil
	default:
		inst := NewInstruction(OpBLX)
		inst.Rm = rm
		return inst, nil
	}
}

var (
	loadStoreReg16Ops = [8]Op{
		OpSTRReg, OpSTRHReg, OpSTRBReg, OpLDRSBReg,
		OpLDRReg, OpLDRHReg, OpLDRBReg, OpLDRSHReg,
	}
	loadStoreImm16Ops = [4]Op{OpSTRImm, OpLDRImm, OpSTRBImm, OpLDRBImm}
)

// decodeLoadStore16 handles the single data item loads and stores.
func decodeLoadStore16(w uint32) (Instruction, error) {
	inst := NewInstruction(OpUnknown)
	inst.Index = true
	inst.Add = true

	switch {
	case w>>12 == 0b0101:
		inst.Op = loadStoreReg16Ops[(w>>9)&0x7]
		inst.Rt = reg(w, 0, 3)
		inst.Rn = reg(w, 3, 3)
		inst.Rm = reg(w, 6, 3)
	case w>>13 == 0b011:
		inst.Op = loadStoreImm16Ops[(w>>11)&0x3]
		inst.Rt = reg(w, 0, 3)
		inst.Rn = reg(w, 3, 3)
		inst.Imm = (w >> 6) & 0x1F
		if !bit(w, 12) {
			inst.Imm <<= 2
		}
	case w>>12 == 0b1000:
		inst.Op = OpSTRHImm
		if bit(w, 11) {
			inst.Op = OpLDRHImm
		}
		inst.Rt = reg(w, 0, 3)
		inst.Rn = reg(w, 3, 3)
		inst.Imm = ((w >> 6) & 0x1F) << 1
	default:
		inst.Op = OpSTRImm
		if bit(w, 11) {
			inst.Op = OpLDRImm
		}
		inst.Rt = reg(w, 8, 3)
		inst.Rn = SP
		inst.Imm = (w & 0xFF) << 2
	}
	return inst, nil
}

var extend16Ops = [4]Op{OpSXTH, OpSXTB, OpUXTH, OpUXTB}

// decodeMisc16 handles opcode 1011xx.
// Format: 1011 | opcode(7) | operands
func decodeMisc16(w uint32) (Instruction, error) {
	op := (w >> 5) & 0x7F

	switch {
	case op>>2 == 0b00000, op>>2 == 0b00001:
		inst := NewInstruction(OpADDImm)
		if op>>2 == 0b00001 {
			inst.Op = OpSUBImm
		}
		inst.Rd = SP
		inst.Rn = SP
		inst.Imm = (w & 0x7F) << 2
		inst.SetFlags = Bool(false)
		return inst, nil
	case !bit(w, 10) && bit(w, 8):
		inst := NewInstruction(OpCBZ)
		if bit(w, 11) {
			inst.Op = OpCBNZ
		}
		inst.Rn = reg(w, 0, 3)
		inst.Imm = (w>>9)&1<<6 | (w>>3)&0x1F<<1
		return inst, nil
	case op>>3 == 0b0010:
		inst := NewInstruction(extend16Ops[(w>>6)&0x3])
		inst.Rd = reg(w, 0, 3)
		inst.Rm = reg(w, 3, 3)
		return inst, nil
	case op>>4 == 0b010:
		inst := NewInstruction(OpPUSH)
		inst.Rn = SP
		inst.Registers = regList((w>>8)&1<<14 | w&0xFF)
		return inst, nil
	case op == 0b0110011:
		inst := NewInstruction(OpCPS)
		inst.Imm = (w >> 4) & 1
		return inst, nil
	case op>>1 == 0b101000, op>>1 == 0b101001, op>>1 == 0b101011:
		inst := NewInstruction(OpREV)
		switch op >> 1 {
		case 0b101001:
			inst.Op = OpREV16
		case 0b101011:
			inst.Op = OpREVSH
		}
		inst.Rd = reg(w, 0, 3)
		inst.Rm = reg(w, 3, 3)
		return inst, nil
	case op>>4 == 0b110:
		inst := NewInstruction(OpPOP)
		inst.Rn = SP
		inst.Registers = regList((w>>8)&1<<15 | w&0xFF)
		return inst, nil
	case op>>3 == 0b1110:
		inst := NewInstruction(OpBKPT)
		inst.Imm = w & 0xFF
		return inst, nil
	case op>>3 == 0b1111:
		return decodeITHint16(w)
	}
	return unsupported(w)
}

var hintOps = [5]Op{OpNOP, OpYIELD, OpWFE, OpWFI, OpSEV}

func decodeITHint16(w uint32) (Instruction, error) {
	mask := uint8(w & 0xF)
	if mask != 0 {
		inst := NewInstruction(OpIT)
		inst.Cond = Cond((w >> 4) & 0xF)
		inst.Mask = mask
		return inst, nil
	}

	opA := (w >> 4) & 0xF
	if int(opA) < len(hintOps) {
		return NewInstruction(hintOps[opA]), nil
	}
	// Unallocated hints execute as NOP.
	return NewInstruction(OpNOP), nil
}

// decodeCondBranch16 handles opcode 1101xx: B<c>, UDF and SVC.
func decodeCondBranch16(w uint32) (Instruction, error) {
	cond := Cond((w >> 8) & 0xF)
	switch cond {
	case 0b1110:
		inst := NewInstruction(OpUDF)
		inst.Imm = w & 0xFF
		return inst, nil
	case 0b1111:
		inst := NewInstruction(OpSVC)
		inst.Imm = w & 0xFF
		return inst, nil
	}
	inst := NewInstruction(OpBCond)
	inst.Cond = cond
	inst.Imm = signExtend((w&0xFF)<<1, 9)
	return inst, nil
}
