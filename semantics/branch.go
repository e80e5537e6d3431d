package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

// branchTarget computes PC + offset. PC reads as the instruction address
// plus 4.
func branchTarget(offset uint32) ir.Operation {
	return ir.Add{Dst: local("target"), A: reg(insts.PC), B: imm32(offset)}
}

func expandB(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		branchTarget(inst.Imm),
		ir.Move{Dst: reg(insts.PC), Src: local("target")},
	}
}

func expandBCond(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		branchTarget(inst.Imm),
		ir.ConditionalJump{Target: local("target"), Cond: inst.Cond},
	}
}

// BL is always 32 bits wide, so the return address is the PC read value.
func expandBL(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		branchTarget(inst.Imm),
		ir.Or{Dst: reg(insts.LR), A: reg(insts.PC), B: imm32(1)},
		ir.Move{Dst: reg(insts.PC), Src: local("target")},
	}
}

func expandBX(inst insts.Instruction, _ bool) []ir.Operation {
	return writeReg(nil, insts.PC, reg(inst.Rm))
}

// BLX reads Rm before LR is written, so BLX LR branches to the old LR.
func expandBLX(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{
		ir.And{Dst: local("target"), A: reg(inst.Rm), B: imm32(^uint32(1))},
		ir.Sub{Dst: local("return"), A: reg(insts.PC), B: imm32(2)},
		ir.Or{Dst: reg(insts.LR), A: local("return"), B: imm32(1)},
		ir.Move{Dst: reg(insts.PC), Src: local("target")},
	}
}

// compareBranch expands CBZ, and CBNZ when nonZero is set.
func compareBranch(nonZero bool) expander {
	op := ir.Eq
	if nonZero {
		op = ir.Ne
	}
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		return []ir.Operation{
			branchTarget(inst.Imm),
			ir.Compare{Dst: local("taken"), A: reg(inst.Rn), B: imm32(0), Op: op},
			ir.Ite{
				Cond: local("taken"),
				Then: []ir.Operation{ir.Move{Dst: reg(insts.PC), Src: local("target")}},
			},
		}
	}
}

// tableBranch expands TBB, and TBH when halfword is set. The table entry
// is a forward offset in halfwords from the PC read value.
func tableBranch(halfword bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		index := reg(inst.Rm)
		width := uint32(8)
		var ops []ir.Operation
		if halfword {
			width = 16
			ops = append(ops, ir.Shift{Dst: local("index"), Src: index, Amount: imm32(1), Kind: ir.LSL})
			index = local("index")
		}
		return append(ops,
			ir.Add{Dst: local("addr"), A: reg(inst.Rn), B: index},
			ir.Move{Dst: local("entry"), Src: ir.AddressInLocal("addr", width)},
			ir.ZeroExtend{Dst: local("offset"), Src: local("entry"), Bits: width, Width: 32},
			ir.Shift{Dst: local("offset"), Src: local("offset"), Amount: imm32(1), Kind: ir.LSL},
			ir.Add{Dst: local("target"), A: reg(insts.PC), B: local("offset")},
			ir.Move{Dst: reg(insts.PC), Src: local("target")},
		)
	}
}

func expandIT(inst insts.Instruction, _ bool) []ir.Operation {
	return []ir.Operation{ir.ConditionalExecution{Conds: insts.ITConditions(inst.Cond, inst.Mask)}}
}
