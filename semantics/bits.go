package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

func fieldMask(lsb, width uint8) uint32 {
	return uint32((uint64(1)<<width - 1) << lsb)
}

func expandBFC(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.And{Dst: reg(inst.Rd), A: reg(inst.Rd), B: imm32(^fieldMask(inst.Lsb, inst.Width))},
	}
}

func expandBFI(inst insts.Instruction, _ bool) []ir.Operation {
	field := local("field")
	return []ir.Operation{
		ir.BitFieldExtract{Dst: field, Src: reg(inst.Rn), Lsb: 0, Width: uint32(inst.Width)},
		ir.Shift{Dst: field, Src: field, Amount: imm32(uint32(inst.Lsb)), Kind: ir.LSL},
		ir.And{Dst: local("cleared"), A: reg(inst.Rd), B: imm32(^fieldMask(inst.Lsb, inst.Width))},
		ir.Or{Dst: reg(inst.Rd), A: local("cleared"), B: field},
	}
}

func expandSBFX(inst insts.Instruction, _ bool) []ir.Operation {
	field := local("field")
	return []ir.Operation{
		ir.BitFieldExtract{Dst: field, Src: reg(inst.Rn), Lsb: uint32(inst.Lsb), Width: uint32(inst.Width)},
		ir.SignExtend{Dst: reg(inst.Rd), Src: field, Bits: uint32(inst.Width), Width: 32},
	}
}

func expandUBFX(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.BitFieldExtract{Dst: reg(inst.Rd), Src: reg(inst.Rn), Lsb: uint32(inst.Lsb), Width: uint32(inst.Width)},
	}
}

// extend expands SXTB, SXTH, UXTB, UXTH and, with accumulate, the
// SXTA/UXTA forms that add the extended value to Rn.
func extend(signed bool, bits uint32, accumulate bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		var ops []ir.Operation
		src := reg(inst.Rm)
		if inst.Shift.Amount != 0 {
			ops = append(ops, ir.Shift{
				Dst: local("rotated"), Src: src,
				Amount: imm32(uint32(inst.Shift.Amount)), Kind: ir.ROR,
			})
			src = local("rotated")
		}

		dst := reg(inst.Rd)
		if accumulate {
			dst = local("extended")
		}
		if signed {
			ops = append(ops, ir.SignExtend{Dst: dst, Src: src, Bits: bits, Width: 32})
		} else {
			ops = append(ops, ir.ZeroExtend{Dst: dst, Src: src, Bits: bits, Width: 32})
		}
		if accumulate {
			ops = append(ops, ir.Add{Dst: reg(inst.Rd), A: reg(inst.Rn), B: dst})
		}
		return ops
	}
}

func expandCLZ(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.CountLeadingZeroes{Dst: reg(inst.Rd), Src: reg(inst.Rm)}}
}

type swapRound struct {
	shift uint32
	mask  uint32
}

var (
	bitReverseRounds = []swapRound{
		{1, 0x55555555}, {2, 0x33333333}, {4, 0x0F0F0F0F}, {8, 0x00FF00FF}, {16, 0x0000FFFF},
	}
	byteReverseRounds     = []swapRound{{8, 0x00FF00FF}, {16, 0x0000FFFF}}
	halfwordReverseRounds = []swapRound{{8, 0x00FF00FF}}
)

// swapBits applies x = ((x >> k) & m) | ((x & m) << k) for each round.
func swapBits(ops []ir.Operation, x ir.Operand, rounds []swapRound) []ir.Operation {
	hi, lo := local("swap.hi"), local("swap.lo")
	for _, r := range rounds {
		ops = append(ops,
			ir.Shift{Dst: hi, Src: x, Amount: imm32(r.shift), Kind: ir.LSR},
			ir.And{Dst: hi, A: hi, B: imm32(r.mask)},
			ir.And{Dst: lo, A: x, B: imm32(r.mask)},
			ir.Shift{Dst: lo, Src: lo, Amount: imm32(r.shift), Kind: ir.LSL},
			ir.Or{Dst: x, A: hi, B: lo},
		)
	}
	return ops
}

func reverse(rounds []swapRound, signExtendHalf bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		x := local("value")
		ops := []ir.Operation{ir.Move{Dst: x, Src: reg(inst.Rm)}}
		ops = swapBits(ops, x, rounds)
		if signExtendHalf {
			return append(ops, ir.SignExtend{Dst: reg(inst.Rd), Src: x, Bits: 16, Width: 32})
		}
		return append(ops, ir.Move{Dst: reg(inst.Rd), Src: x})
	}
}
