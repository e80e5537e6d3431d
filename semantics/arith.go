package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

// operand2 returns the flexible second operand. Register forms are shifted
// into a local; with updateCarry the shifter carry-out, or the carry of a
// rotated modified immediate, is written to C before the operand is used.
func operand2(ops []ir.Operation, inst insts.Instruction, immediate, updateCarry bool) ([]ir.Operation, ir.Operand) {
	if immediate {
		if updateCarry && inst.ImmRotated {
			ops = append(ops, ir.Move{Dst: flagOf(ir.FlagC), Src: ir.Bit(inst.Imm>>31 == 1)})
		}
		return ops, imm32(inst.Imm)
	}
	if inst.Shift.IsNone() {
		return ops, reg(inst.Rm)
	}

	kind := ir.ShiftKindOf(inst.Shift.Type)
	amount := imm32(uint32(inst.Shift.Amount))
	ops = append(ops, ir.Shift{Dst: local("shifted"), Src: reg(inst.Rm), Amount: amount, Kind: kind})
	if updateCarry {
		ops = append(ops, ir.SetCFlagShift{Src: reg(inst.Rm), Amount: amount, Kind: kind})
	}
	return ops, local("shifted")
}

type arithKind uint8

const (
	arithAdd arithKind = iota
	arithAdc
	arithSub
	arithSbc
	arithRsb
)

var arithFamilies = [...]ir.FlagFamily{
	arithAdd: ir.FamilyAdd,
	arithAdc: ir.FamilyAdc,
	arithSub: ir.FamilySub,
	arithSbc: ir.FamilySbc,
	arithRsb: ir.FamilyRsb,
}

// arithmetic expands ADD, ADC, SUB, SBC, RSB and, with writeBack unset,
// the flag-only CMN and CMP.
func arithmetic(kind arithKind, immediate, writeBack bool) expander {
	return func(inst insts.Instruction, inITBlock bool) []ir.Operation {
		ops, op2 := operand2(nil, inst, immediate, false)
		rn := reg(inst.Rn)
		result := local("result")
		carry := ir.Bit(false)

		switch kind {
		case arithAdd:
			ops = append(ops, ir.Add{Dst: result, A: rn, B: op2})
		case arithAdc:
			carry = local("carry")
			ops = append(ops,
				ir.Move{Dst: carry, Src: flagOf(ir.FlagC)},
				ir.Adc{Dst: result, A: rn, B: op2, Carry: carry},
			)
		case arithSub:
			ops = append(ops, ir.Sub{Dst: result, A: rn, B: op2})
		case arithSbc:
			carry = local("carry")
			ops = append(ops,
				ir.Move{Dst: carry, Src: flagOf(ir.FlagC)},
				ir.Not{Dst: local("inverted"), Src: op2},
				ir.Adc{Dst: result, A: rn, B: local("inverted"), Carry: carry},
			)
		case arithRsb:
			ops = append(ops, ir.Sub{Dst: result, A: op2, B: rn})
		}

		if !writeBack || inst.FlagsSet(inITBlock) {
			family := arithFamilies[kind]
			ops = setNZ(ops, result)
			ops = append(ops,
				ir.SetCFlag{A: rn, B: op2, Carry: carry, Family: family},
				ir.SetVFlag{A: rn, B: op2, Carry: carry, Family: family},
			)
		}
		if writeBack {
			ops = writeReg(ops, inst.Rd.Or(inst.Rn), result)
		}
		return ops
	}
}

type logicKind uint8

const (
	logicAnd logicKind = iota
	logicOrr
	logicEor
	logicBic
	logicOrn
	logicMov
	logicMvn
)

// logical expands the bitwise operations and moves. With writeBack unset
// it expands TST and TEQ.
func logical(kind logicKind, immediate, writeBack bool) expander {
	return func(inst insts.Instruction, inITBlock bool) []ir.Operation {
		setFlags := !writeBack || inst.FlagsSet(inITBlock)
		ops, op2 := operand2(nil, inst, immediate, setFlags)
		rn := reg(inst.Rn)
		result := local("result")

		switch kind {
		case logicAnd:
			ops = append(ops, ir.And{Dst: result, A: rn, B: op2})
		case logicOrr:
			ops = append(ops, ir.Or{Dst: result, A: rn, B: op2})
		case logicEor:
			ops = append(ops, ir.Xor{Dst: result, A: rn, B: op2})
		case logicBic:
			ops = append(ops,
				ir.Not{Dst: local("inverted"), Src: op2},
				ir.And{Dst: result, A: rn, B: local("inverted")},
			)
		case logicOrn:
			ops = append(ops,
				ir.Not{Dst: local("inverted"), Src: op2},
				ir.Or{Dst: result, A: rn, B: local("inverted")},
			)
		case logicMov:
			ops = append(ops, ir.Move{Dst: result, Src: op2})
		case logicMvn:
			ops = append(ops, ir.Not{Dst: result, Src: op2})
		}

		if setFlags {
			ops = setNZ(ops, result)
		}
		if writeBack {
			ops = writeReg(ops, inst.Rd.Or(inst.Rn), result)
		}
		return ops
	}
}

// registerShift expands LSL, LSR, ASR and ROR by register. Only the bottom
// byte of Rm is used.
func registerShift(kind ir.ShiftKind) expander {
	return func(inst insts.Instruction, inITBlock bool) []ir.Operation {
		amount := local("amount")
		result := local("result")
		ops := []ir.Operation{
			ir.And{Dst: amount, A: reg(inst.Rm), B: imm32(0xFF)},
			ir.Shift{Dst: result, Src: reg(inst.Rn), Amount: amount, Kind: kind},
		}
		if inst.FlagsSet(inITBlock) {
			ops = append(ops, ir.SetCFlagShift{Src: reg(inst.Rn), Amount: amount, Kind: kind})
			ops = setNZ(ops, result)
		}
		return writeReg(ops, inst.Rd.Or(inst.Rn), result)
	}
}

func expandADR(inst insts.Instruction, _ bool) []ir.Operation {
	var ops []ir.Operation
	if inst.Add {
		ops = append(ops, ir.Add{Dst: local("result"), A: ir.AlignedPC(), B: imm32(inst.Imm)})
	} else {
		ops = append(ops, ir.Sub{Dst: local("result"), A: ir.AlignedPC(), B: imm32(inst.Imm)})
	}
	return writeReg(ops, inst.Rd, local("result"))
}

func expandMOVT(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.And{Dst: local("low"), A: reg(inst.Rd), B: imm32(0xFFFF)},
		ir.Or{Dst: reg(inst.Rd), A: local("low"), B: imm32(inst.Imm << 16)},
	}
}

func expandMUL(inst insts.Instruction, inITBlock bool) []ir.Operation {
	result := local("result")
	ops := []ir.Operation{ir.Mul{Dst: result, A: reg(inst.Rn), B: reg(inst.Rm)}}
	if inst.FlagsSet(inITBlock) {
		ops = setNZ(ops, result)
	}
	return append(ops, ir.Move{Dst: reg(inst.Rd.Or(inst.Rn)), Src: result})
}

// multiplyAccumulate expands MLA, and MLS when subtract is set.
func multiplyAccumulate(subtract bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		product := local("product")
		ops := []ir.Operation{ir.Mul{Dst: product, A: reg(inst.Rn), B: reg(inst.Rm)}}
		if subtract {
			return append(ops, ir.Sub{Dst: reg(inst.Rd), A: reg(inst.Ra), B: product})
		}
		return append(ops, ir.Add{Dst: reg(inst.Rd), A: product, B: reg(inst.Ra)})
	}
}

// longMultiply expands SMULL, UMULL, SMLAL and UMLAL.
func longMultiply(signed, accumulate bool) expander {
	widen := func(name string, r insts.Register) ir.Operation {
		if signed {
			return ir.SignExtend{Dst: local(name), Src: reg(r), Bits: 32, Width: 64}
		}
		return ir.ZeroExtend{Dst: local(name), Src: reg(r), Bits: 32, Width: 64}
	}

	return func(inst insts.Instruction, _ bool) []ir.Operation {
		product := local("product")
		ops := []ir.Operation{
			widen("a", inst.Rn),
			widen("b", inst.Rm),
			ir.Mul{Dst: product, A: local("a"), B: local("b")},
		}
		if accumulate {
			ops = append(ops,
				ir.Concat{Dst: local("acc"), Hi: reg(inst.RdHi), Lo: reg(inst.RdLo)},
				ir.Add{Dst: product, A: product, B: local("acc")},
			)
		}
		return append(ops,
			ir.Shift{Dst: local("high"), Src: product, Amount: ir.Imm(32, 64), Kind: ir.LSR},
			ir.Resize{Dst: reg(inst.RdLo), Src: product, Width: 32},
			ir.Resize{Dst: reg(inst.RdHi), Src: local("high"), Width: 32},
		)
	}
}

func expandSDIV(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.SDiv{Dst: reg(inst.Rd), A: reg(inst.Rn), B: reg(inst.Rm)}}
}

func expandUDIV(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.UDiv{Dst: reg(inst.Rd), A: reg(inst.Rn), B: reg(inst.Rm)}}
}
