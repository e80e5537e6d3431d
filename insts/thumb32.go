package insts

import "math/bits"

// decode32 decodes a 32-bit Thumb-2 encoding. a is the first halfword,
// b the second.
func decode32(a, b uint32) (Instruction, error) {
	op1 := (a >> 11) & 0x3
	op2 := (a >> 4) & 0x7F
	op := (b >> 15) & 0x1

	switch op1 {
	case 0b01:
		switch {
		case op2&0b1100100 == 0b0000000:
			return decodeLoadStoreMultiple(a, b)
		case op2&0b1100100 == 0b0000100:
			return decodeLoadStoreDual(a, b)
		case op2&0b1100000 == 0b0100000:
			return decodeDataProcessingShiftedReg(a, b)
		default:
			return decodeCoprocessor(a, b)
		}
	case 0b10:
		if op == 1 {
			return decodeBranchMisc(a, b)
		}
		if op2&0b0100000 == 0 {
			return decodeModifiedImm(a, b)
		}
		return decodePlainImm(a, b)
	case 0b11:
		switch {
		case op2&0b1110001 == 0b0000000:
			return decodeStoreSingle(a, b)
		case op2&0b1100111 == 0b0000001:
			return decodeLoad32(a, b, 0)
		case op2&0b1100111 == 0b0000011:
			return decodeLoad32(a, b, 1)
		case op2&0b1100111 == 0b0000101:
			return decodeLoad32(a, b, 2)
		case op2&0b1110000 == 0b0100000:
			return decodeDataProcessingReg(a, b)
		case op2&0b1111000 == 0b0110000:
			return decodeMultiply(a, b)
		case op2&0b1111000 == 0b0111000:
			return decodeLongMultiply(a, b)
		case op2&0b1000000 == 0b1000000:
			return decodeCoprocessor(a, b)
		}
	}
	return unsupported(a<<16 | b)
}

// decodeLoadStoreMultiple handles LDM/STM and the wide PUSH/POP.
// Format: 1110100 | op(2) | 0 | W | L | Rn || register_list
func decodeLoadStoreMultiple(a, b uint32) (Instruction, error) {
	op := (a >> 7) & 0x3
	load := bit(a, 4)
	wback := bit(a, 5)
	rn := reg(a, 0, 4)

	inst := NewInstruction(OpUnknown)
	inst.Rn = rn
	inst.Registers = regList(b & 0xDFFF)
	inst.WriteBack = wback

	switch {
	case op == 0b01 && !load:
		inst.Op = OpSTM
	case op == 0b01 && load && wback && rn == SP:
		inst.Op = OpPOP
	case op == 0b01 && load:
		inst.Op = OpLDM
	case op == 0b10 && !load && wback && rn == SP:
		inst.Op = OpPUSH
	case op == 0b10 && !load:
		inst.Op = OpSTMDB
	case op == 0b10 && load:
		inst.Op = OpLDMDB
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

// decodeLoadStoreDual handles LDRD/STRD, exclusive access and table
// branches.
// Format: 1110100 | op1(2) | 1 | op2(2) | Rn || Rt | Rt2/Rd | op3(4) | ...
func decodeLoadStoreDual(a, b uint32) (Instruction, error) {
	op1 := (a >> 7) & 0x3
	op2 := (a >> 4) & 0x3
	op3 := (b >> 4) & 0xF
	rn := reg(a, 0, 4)
	rt := reg(b, 12, 4)

	inst := NewInstruction(OpUnknown)
	inst.Rn = rn

	switch {
	case op1 == 0b00 && op2 == 0b00:
		inst.Op = OpSTREX
		inst.Rd = reg(b, 8, 4)
		inst.Rt = rt
		inst.Imm = (b & 0xFF) << 2
	case op1 == 0b00 && op2 == 0b01:
		inst.Op = OpLDREX
		inst.Rt = rt
		inst.Imm = (b & 0xFF) << 2
	case op1&0b10 == 0 && op2 == 0b10, op1&0b10 != 0 && op2&0b01 == 0:
		inst.Op = OpSTRD
		fillDual(&inst, a, b)
	case op1&0b10 == 0 && op2 == 0b11, op1&0b10 != 0 && op2&0b01 != 0:
		inst.Op = OpLDRD
		fillDual(&inst, a, b)
	case op1 == 0b01 && op2 == 0b00 && (op3 == 0b0100 || op3 == 0b0101):
		inst.Op = OpSTREXB
		if op3 == 0b0101 {
			inst.Op = OpSTREXH
		}
		inst.Rd = reg(b, 0, 4)
		inst.Rt = rt
	case op1 == 0b01 && op2 == 0b01 && (op3 == 0b0000 || op3 == 0b0001):
		inst.Op = OpTBB
		if op3 == 0b0001 {
			inst.Op = OpTBH
		}
		inst.Rm = reg(b, 0, 4)
	case op1 == 0b01 && op2 == 0b01 && (op3 == 0b0100 || op3 == 0b0101):
		inst.Op = OpLDREXB
		if op3 == 0b0101 {
			inst.Op = OpLDREXH
		}
		inst.Rt = rt
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

func fillDual(inst *Instruction, a, b uint32) {
	inst.Rt = reg(b, 12, 4)
	inst.Rt2 = reg(b, 8, 4)
	inst.Imm = (b & 0xFF) << 2
	inst.Index = bit(a, 8)
	inst.Add = bit(a, 7)
	inst.WriteBack = bit(a, 5)
}

// Data processing op field shared by the shifted-register and
// modified-immediate encodings.
const (
	dpAND = 0b0000
	dpBIC = 0b0001
	dpORR = 0b0010
	dpORN = 0b0011
	dpEOR = 0b0100
	dpADD = 0b1000
	dpADC = 0b1010
	dpSBC = 0b1011
	dpSUB = 0b1101
	dpRSB = 0b1110
)

type dpForms struct {
	reg, imm Op
	// alt is used when Rd is PC with S set (test forms) or Rn is PC
	// (move forms).
	altReg, altImm Op
}

var dataProcessingOps = map[uint32]dpForms{
	dpAND: {OpANDReg, OpANDImm, OpTSTReg, OpTSTImm},
	dpBIC: {OpBICReg, OpBICImm, OpUnknown, OpUnknown},
	dpORR: {OpORRReg, OpORRImm, OpMOVReg, OpMOVImm},
	dpORN: {OpORNReg, OpORNImm, OpMVNReg, OpMVNImm},
	dpEOR: {OpEORReg, OpEORImm, OpTEQReg, OpTEQImm},
	dpADD: {OpADDReg, OpADDImm, OpCMNReg, OpCMNImm},
	dpADC: {OpADCReg, OpADCImm, OpUnknown, OpUnknown},
	dpSBC: {OpSBCReg, OpSBCImm, OpUnknown, OpUnknown},
	dpSUB: {OpSUBReg, OpSUBImm, OpCMPReg, OpCMPImm},
	dpRSB: {OpRSBReg, OpRSBImm, OpUnknown, OpUnknown},
}

// dpAlternate reports whether the Rd/Rn fields select the test or move
// alias of a data processing op.
func dpAlternate(op uint32, rd, rn Register, s bool) bool {
	switch op {
	case dpORR, dpORN:
		return rn == PC
	case dpAND, dpEOR, dpADD, dpSUB:
		return rd == PC && s
	}
	return false
}

// decodeDataProcessingShiftedReg handles the 32-bit register forms.
// Format: 1110101 | op(4) | S | Rn || 0 | imm3 | Rd | imm2 | type | Rm
func decodeDataProcessingShiftedReg(a, b uint32) (Instruction, error) {
	op := (a >> 5) & 0xF
	s := bit(a, 4)
	rn := reg(a, 0, 4)
	rd := reg(b, 8, 4)
	imm5 := (b>>12)&0x7<<2 | (b>>6)&0x3
	typ := (b >> 4) & 0x3

	forms, ok := dataProcessingOps[op]
	if !ok {
		return unsupported(a<<16 | b)
	}

	inst := NewInstruction(forms.reg)
	inst.Rd = rd
	inst.Rn = rn
	inst.Rm = reg(b, 0, 4)
	inst.Shift = decodeImmShift(typ, imm5)
	inst.SetFlags = Bool(s)

	if !dpAlternate(op, rd, rn, s) {
		return inst, nil
	}

	inst.Op = forms.altReg
	switch inst.Op {
	case OpTSTReg, OpTEQReg, OpCMNReg, OpCMPReg:
		inst.Rd = NoRegister
	case OpMOVReg:
		inst.Rn = NoRegister
		inst.Op = shiftedMoveOp(typ, imm5)
	case OpMVNReg:
		inst.Rn = NoRegister
	}
	return inst, nil
}

// shiftedMoveOp picks the MOV/shift alias of ORR with Rn == PC.
func shiftedMoveOp(typ, imm5 uint32) Op {
	switch typ {
	case 0b00:
		if imm5 == 0 {
			return OpMOVReg
		}
		return OpLSLImm
	case 0b01:
		return OpLSRImm
	case 0b10:
		return OpASRImm
	default:
		if imm5 == 0 {
			return OpRRX
		}
		return OpRORImm
	}
}

// thumbExpandImm implements ThumbExpandImm. The flag reports whether the
// value was produced by rotation, in which case bit 31 is the carry-out.
func thumbExpandImm(imm12 uint32) (uint32, bool) {
	if imm12>>10 == 0 {
		imm8 := imm12 & 0xFF
		switch (imm12 >> 8) & 0x3 {
		case 0b00:
			return imm8, false
		case 0b01:
			return imm8<<16 | imm8, false
		case 0b10:
			return imm8<<24 | imm8<<8, false
		default:
			return imm8 * 0x01010101, false
		}
	}
	unrotated := 0x80 | imm12&0x7F
	return bits.RotateLeft32(unrotated, -int((imm12>>7)&0x1F)), true
}

// decodeModifiedImm handles data processing with a modified immediate.
// Format: 11110 | i | 0 | op(4) | S | Rn || 0 | imm3 | Rd | imm8
func decodeModifiedImm(a, b uint32) (Instruction, error) {
	op := (a >> 5) & 0xF
	s := bit(a, 4)
	rn := reg(a, 0, 4)
	rd := reg(b, 8, 4)
	imm12 := (a>>10)&1<<11 | (b>>12)&0x7<<8 | b&0xFF

	forms, ok := dataProcessingOps[op]
	if !ok {
		return unsupported(a<<16 | b)
	}

	inst := NewInstruction(forms.imm)
	inst.Rd = rd
	inst.Rn = rn
	inst.Imm, inst.ImmRotated = thumbExpandImm(imm12)
	inst.SetFlags = Bool(s)

	if dpAlternate(op, rd, rn, s) {
		inst.Op = forms.altImm
		switch inst.Op {
		case OpMOVImm, OpMVNImm:
			inst.Rn = NoRegister
		default:
			inst.Rd = NoRegister
		}
	}
	return inst, nil
}

// decodePlainImm handles data processing with a plain binary immediate.
// Format: 11110 | i | 1 | op(5) | Rn || 0 | imm3 | Rd | imm2 | 0 | imm5
func decodePlainImm(a, b uint32) (Instruction, error) {
	op := (a >> 4) & 0x1F
	rn := reg(a, 0, 4)
	rd := reg(b, 8, 4)
	imm12 := (a>>10)&1<<11 | (b>>12)&0x7<<8 | b&0xFF
	imm5 := (b>>12)&0x7<<2 | (b>>6)&0x3

	inst := NewInstruction(OpUnknown)
	inst.Rd = rd
	inst.Rn = rn

	switch op {
	case 0b00000, 0b01010:
		inst.Imm = imm12
		inst.SetFlags = Bool(false)
		switch {
		case rn == PC:
			inst.Op = OpADR
			inst.Rn = NoRegister
			inst.Add = op == 0b00000
		case op == 0b00000:
			inst.Op = OpADDImm
		default:
			inst.Op = OpSUBImm
		}
	case 0b00100, 0b01100:
		inst.Op = OpMOVImm
		if op == 0b01100 {
			inst.Op = OpMOVT
		}
		inst.Rn = NoRegister
		inst.Imm = (a&0xF)<<12 | imm12
		inst.SetFlags = Bool(false)
	case 0b10000, 0b10010, 0b11000, 0b11010:
		return decodeSaturate(inst, op, a, b, imm5)
	case 0b10100, 0b11100:
		inst.Op = OpSBFX
		if op == 0b11100 {
			inst.Op = OpUBFX
		}
		inst.Lsb = uint8(imm5)
		inst.Width = uint8(b&0x1F) + 1
	case 0b10110:
		msb := b & 0x1F
		if msb < imm5 {
			return unsupported(a<<16 | b)
		}
		inst.Op = OpBFI
		if rn == PC {
			inst.Op = OpBFC
			inst.Rn = NoRegister
		}
		inst.Lsb = uint8(imm5)
		inst.Width = uint8(msb-imm5) + 1
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

func decodeSaturate(inst Instruction, op, a, b, imm5 uint32) (Instruction, error) {
	unsigned := op&0b01000 != 0
	sh := bit(a, 5)

	if sh && imm5 == 0 {
		inst.Op = OpSSAT16
		inst.SatImm = uint8(b&0xF) + 1
		if unsigned {
			inst.Op = OpUSAT16
			inst.SatImm = uint8(b & 0xF)
		}
		return inst, nil
	}

	inst.Op = OpSSAT
	inst.SatImm = uint8(b&0x1F) + 1
	if unsigned {
		inst.Op = OpUSAT
		inst.SatImm = uint8(b & 0x1F)
	}
	if sh {
		inst.Shift = decodeImmShift(0b10, imm5)
	} else {
		inst.Shift = decodeImmShift(0b00, imm5)
	}
	return inst, nil
}

var miscControlOps = map[uint32]Op{
	0b0010: OpCLREX,
	0b0100: OpDSB,
	0b0101: OpDMB,
	0b0110: OpISB,
}

// decodeBranchMisc handles branches and miscellaneous control.
// Format: 11110 | op(7) | imm4 || 1 | op1(3) | imm12
func decodeBranchMisc(a, b uint32) (Instruction, error) {
	op := (a >> 4) & 0x7F
	op1 := (b >> 12) & 0x7

	switch {
	case op1&0b101 == 0b000 && op&0b0111000 != 0b0111000:
		return decodeCondBranch32(a, b), nil
	case op1&0b101 == 0b000 && op>>1 == 0b011100:
		inst := NewInstruction(OpMSR)
		inst.Rn = reg(a, 0, 4)
		inst.SysReg = uint8(b & 0xFF)
		inst.Mask = uint8((b >> 10) & 0x3)
		return inst, nil
	case op1&0b101 == 0b000 && op == 0b0111010:
		hint := b & 0xFF
		if hint < uint32(len(hintOps)) {
			return NewInstruction(hintOps[hint]), nil
		}
		return NewInstruction(OpNOP), nil
	case op1&0b101 == 0b000 && op == 0b0111011:
		if o, ok := miscControlOps[(b>>4)&0xF]; ok {
			return NewInstruction(o), nil
		}
	case op1&0b101 == 0b000 && op>>1 == 0b011111:
		inst := NewInstruction(OpMRS)
		inst.Rd = reg(b, 8, 4)
		inst.SysReg = uint8(b & 0xFF)
		return inst, nil
	case op1 == 0b010 && op == 0b1111111:
		inst := NewInstruction(OpUDF)
		inst.Imm = (a&0xF)<<12 | b&0xFFF
		return inst, nil
	case op1&0b101 == 0b001:
		inst := NewInstruction(OpB)
		inst.Imm = branchOffset24(a, b)
		return inst, nil
	case op1&0b101 == 0b101:
		inst := NewInstruction(OpBL)
		inst.Imm = branchOffset24(a, b)
		return inst, nil
	}
	return unsupported(a<<16 | b)
}

// decodeCondBranch32 decodes B<c>.W.
// Offset: SignExtend(S:J2:J1:imm6:imm11:'0', 21)
func decodeCondBranch32(a, b uint32) Instruction {
	s := (a >> 10) & 1
	j1 := (b >> 13) & 1
	j2 := (b >> 11) & 1
	imm6 := a & 0x3F
	imm11 := b & 0x7FF

	inst := NewInstruction(OpBCond)
	inst.Cond = Cond((a >> 6) & 0xF)
	inst.Imm = signExtend(s<<20|j2<<19|j1<<18|imm6<<12|imm11<<1, 21)
	return inst
}

// branchOffset24 decodes the B.W/BL offset.
// Offset: SignExtend(S:I1:I2:imm10:imm11:'0', 25), I = NOT(J XOR S)
func branchOffset24(a, b uint32) uint32 {
	s := (a >> 10) & 1
	j1 := (b >> 13) & 1
	j2 := (b >> 11) & 1
	i1 := ^(j1 ^ s) & 1
	i2 := ^(j2 ^ s) & 1
	imm10 := a & 0x3FF
	imm11 := b & 0x7FF
	return signExtend(s<<24|i1<<23|i2<<22|imm10<<12|imm11<<1, 25)
}

type loadForms struct {
	imm, reg, lit Op
}

var storeForms = [3]loadForms{
	{OpSTRBImm, OpSTRBReg, OpUnknown},
	{OpSTRHImm, OpSTRHReg, OpUnknown},
	{OpSTRImm, OpSTRReg, OpUnknown},
}

// fillSingleAddressing decodes the imm12, imm8 (P/U/W) and register
// addressing forms shared by single loads and stores.
func fillSingleAddressing(inst *Instruction, forms loadForms, a, b uint32) bool {
	switch {
	case bit(a, 7):
		inst.Op = forms.imm
		inst.Imm = b & 0xFFF
		inst.Index = true
		inst.Add = true
	case bit(b, 11):
		inst.Op = forms.imm
		inst.Imm = b & 0xFF
		inst.Index = bit(b, 10)
		inst.Add = bit(b, 9)
		inst.WriteBack = bit(b, 8)
		if !inst.Index && !inst.WriteBack {
			return false
		}
	case (b>>6)&0x3F == 0:
		inst.Op = forms.reg
		inst.Rm = reg(b, 0, 4)
		inst.Shift = Shift{Type: ShiftLSL, Amount: uint8((b >> 4) & 0x3)}
		inst.Index = true
		inst.Add = true
	default:
		return false
	}
	return true
}

// decodeStoreSingle handles STR, STRB and STRH.
// Format: 11111000 | op1(3) | 0 | Rn || Rt | op2(6) | ...
func decodeStoreSingle(a, b uint32) (Instruction, error) {
	size := (a >> 5) & 0x3
	rn := reg(a, 0, 4)
	if size == 0b11 || rn == PC {
		return unsupported(a<<16 | b)
	}

	inst := NewInstruction(OpUnknown)
	inst.Rn = rn
	inst.Rt = reg(b, 12, 4)
	if !fillSingleAddressing(&inst, storeForms[size], a, b) {
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

var loadFormsBySize = [3][2]loadForms{
	{
		{OpLDRBImm, OpLDRBReg, OpLDRBLit},
		{OpLDRSBImm, OpLDRSBReg, OpLDRSBLit},
	},
	{
		{OpLDRHImm, OpLDRHReg, OpLDRHLit},
		{OpLDRSHImm, OpLDRSHReg, OpLDRSHLit},
	},
	{
		{OpLDRImm, OpLDRReg, OpLDRLit},
		{OpUnknown, OpUnknown, OpUnknown},
	},
}

// decodeLoad32 handles LDR, LDRB, LDRH, LDRSB, LDRSH and the preload
// hints. size is 0 for bytes, 1 for halfwords and 2 for words.
// Format: 1111100 | S | U | size(2) | 1 | Rn || Rt | ...
func decodeLoad32(a, b uint32, size int) (Instruction, error) {
	signed := 0
	if bit(a, 8) {
		signed = 1
	}
	forms := loadFormsBySize[size][signed]
	if forms.imm == OpUnknown {
		return unsupported(a<<16 | b)
	}

	rn := reg(a, 0, 4)
	rt := reg(b, 12, 4)

	inst := NewInstruction(OpUnknown)
	inst.Rn = rn
	inst.Rt = rt

	if rn == PC {
		inst.Op = forms.lit
		inst.Rn = NoRegister
		inst.Imm = b & 0xFFF
		inst.Add = bit(a, 7)
	} else if !fillSingleAddressing(&inst, forms, a, b) {
		return unsupported(a<<16 | b)
	}

	if rt == PC && size < 2 {
		// Loads to PC of bytes and halfwords are memory hints.
		hint := NewInstruction(OpNOP)
		if size == 0 {
			hint.Op = OpPLD
			if signed == 1 {
				hint.Op = OpPLI
			}
		}
		return hint, nil
	}
	return inst, nil
}

var (
	registerShiftOps = [4]Op{OpLSLReg, OpLSRReg, OpASRReg, OpRORReg}
	extendOps        = map[uint32][2]Op{
		0b0000: {OpSXTH, OpSXTAH},
		0b0001: {OpUXTH, OpUXTAH},
		0b0100: {OpSXTB, OpSXTAB},
		0b0101: {OpUXTB, OpUXTAB},
	}
	// Indexed by unsigned*3+prefix, then ADD8, ADD16, SUB8, SUB16.
	parallelOps = [6][4]Op{
		{OpSADD8, OpSADD16, OpSSUB8, OpSSUB16},
		{OpQADD8, OpQADD16, OpQSUB8, OpQSUB16},
		{OpSHADD8, OpSHADD16, OpSHSUB8, OpSHSUB16},
		{OpUADD8, OpUADD16, OpUSUB8, OpUSUB16},
		{OpUQADD8, OpUQADD16, OpUQSUB8, OpUQSUB16},
		{OpUHADD8, OpUHADD16, OpUHSUB8, OpUHSUB16},
	}
	parallelKinds = map[uint32]int{0b000: 0, 0b001: 1, 0b100: 2, 0b101: 3}
	miscOps       = map[uint32]Op{
		0b0000: OpQADD, 0b0001: OpQDADD, 0b0010: OpQSUB, 0b0011: OpQDSUB,
		0b0100: OpREV, 0b0101: OpREV16, 0b0110: OpRBIT, 0b0111: OpREVSH,
		0b1000: OpSEL, 0b1100: OpCLZ,
	}
)

// decodeDataProcessingReg handles register shifts, extends, parallel
// arithmetic and the miscellaneous operations.
// Format: 11111010 | op1(4) | Rn || 1111 | Rd | op2(4) | Rm
func decodeDataProcessingReg(a, b uint32) (Instruction, error) {
	if (b>>12)&0xF != 0xF {
		return unsupported(a<<16 | b)
	}
	op1 := (a >> 4) & 0xF
	op2 := (b >> 4) & 0xF
	rn := reg(a, 0, 4)

	inst := NewInstruction(OpUnknown)
	inst.Rd = reg(b, 8, 4)
	inst.Rn = rn
	inst.Rm = reg(b, 0, 4)

	switch {
	case op1&0b1000 == 0 && op2 == 0:
		inst.Op = registerShiftOps[op1>>1]
		inst.SetFlags = Bool(bit(a, 4))
	case op1&0b1000 == 0 && op2&0b1100 == 0b1000:
		forms, ok := extendOps[op1]
		if !ok {
			return unsupported(a<<16 | b)
		}
		inst.Op = forms[1]
		if rn == PC {
			inst.Op = forms[0]
			inst.Rn = NoRegister
		}
		inst.Shift = Shift{Type: ShiftROR, Amount: uint8(op2&0x3) * 8}
	case op1&0b1000 != 0 && op2&0b1000 == 0:
		kind, ok := parallelKinds[op1&0x7]
		prefix := op2 & 0x3
		if !ok || prefix == 0b11 {
			return unsupported(a<<16 | b)
		}
		row := prefix
		if op2&0b0100 != 0 {
			row += 3
		}
		inst.Op = parallelOps[row][kind]
	case op1&0b1100 == 0b1000 && op2&0b1100 == 0b1000:
		o, ok := miscOps[(op1&0x3)<<2|op2&0x3]
		if !ok {
			return unsupported(a<<16 | b)
		}
		inst.Op = o
		switch o {
		case OpREV, OpREV16, OpRBIT, OpREVSH, OpCLZ:
			inst.Rn = NoRegister
		}
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

// decodeMultiply handles MUL, MLA, MLS, USAD8 and USADA8.
// Format: 111110110 | op1(3) | Rn || Ra | Rd | 00 | op2(2) | Rm
func decodeMultiply(a, b uint32) (Instruction, error) {
	op1 := (a >> 4) & 0x7
	op2 := (b >> 4) & 0x3
	ra := reg(b, 12, 4)

	inst := NewInstruction(OpUnknown)
	inst.Rd = reg(b, 8, 4)
	inst.Rn = reg(a, 0, 4)
	inst.Rm = reg(b, 0, 4)
	inst.Ra = ra

	switch {
	case op1 == 0b000 && op2 == 0b00 && ra == PC:
		inst.Op = OpMUL
		inst.Ra = NoRegister
		inst.SetFlags = Bool(false)
	case op1 == 0b000 && op2 == 0b00:
		inst.Op = OpMLA
	case op1 == 0b000 && op2 == 0b01:
		inst.Op = OpMLS
	case op1 == 0b111 && op2 == 0b00 && ra == PC:
		inst.Op = OpUSAD8
		inst.Ra = NoRegister
	case op1 == 0b111 && op2 == 0b00:
		inst.Op = OpUSADA8
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}

// decodeLongMultiply handles the 64-bit multiplies and the divides.
// Format: 111110111 | op1(3) | Rn || RdLo | RdHi | op2(4) | Rm
func decodeLongMultiply(a, b uint32) (Instruction, error) {
	op1 := (a >> 4) & 0x7
	op2 := (b >> 4) & 0xF

	inst := NewInstruction(OpUnknown)
	inst.Rn = reg(a, 0, 4)
	inst.Rm = reg(b, 0, 4)

	switch {
	case op1 == 0b001 && op2 == 0b1111, op1 == 0b011 && op2 == 0b1111:
		inst.Op = OpSDIV
		if op1 == 0b011 {
			inst.Op = OpUDIV
		}
		inst.Rd = reg(b, 8, 4)
		return inst, nil
	case op2 != 0b0000:
		return unsupported(a<<16 | b)
	}

	switch op1 {
	case 0b000:
		inst.Op = OpSMULL
	case 0b010:
		inst.Op = OpUMULL
	case 0b100:
		inst.Op = OpSMLAL
	case 0b110:
		inst.Op = OpUMLAL
	default:
		return unsupported(a<<16 | b)
	}
	inst.RdLo = reg(b, 12, 4)
	inst.RdHi = reg(b, 8, 4)
	return inst, nil
}

// decodeCoprocessor routes coprocessors 10 and 11 to the VFP decoder and
// classifies the rest.
// Format: 111 | T | 11 | op1(6) | Rn || ... | coproc(4) | ... | op | ...
func decodeCoprocessor(a, b uint32) (Instruction, error) {
	if (b>>9)&0x7 == 0b101 {
		return decodeVFP(a, b)
	}

	op1 := (a >> 4) & 0x3F
	inst := NewInstruction(OpUnknown)
	inst.Imm = (b >> 8) & 0xF

	switch {
	case op1 == 0b000100:
		inst.Op = OpMCRR
	case op1 == 0b000101:
		inst.Op = OpMRRC
	case op1&0b100000 == 0 && op1&0b111010 != 0:
		inst.Op = OpSTC
		if op1&1 == 1 {
			inst.Op = OpLDC
		}
	case op1&0b110000 == 0b100000 && !bit(b, 4):
		inst.Op = OpCDP
	case op1&0b110000 == 0b100000:
		inst.Op = OpMCR
		if op1&1 == 1 {
			inst.Op = OpMRC
		}
	default:
		return unsupported(a<<16 | b)
	}
	return inst, nil
}
