package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

type addressing uint8

const (
	addrImmediate addressing = iota
	addrRegister
	addrLiteral
)

// address leaves the access address in the local addr and, for writeback
// forms, the updated base in wback.
func address(inst insts.Instruction, mode addressing) []ir.Operation {
	var offset ir.Operand
	var ops []ir.Operation
	base := reg(inst.Rn)

	switch mode {
	case addrImmediate:
		offset = imm32(inst.Imm)
	case addrRegister:
		offset = reg(inst.Rm)
		if inst.Shift.Amount != 0 {
			ops = append(ops, ir.Shift{
				Dst: local("offset"), Src: offset,
				Amount: imm32(uint32(inst.Shift.Amount)), Kind: ir.LSL,
			})
			offset = local("offset")
		}
	case addrLiteral:
		base = ir.AlignedPC()
		offset = imm32(inst.Imm)
		inst.Index = true
		inst.WriteBack = false
	}
	if inst.Rn == insts.PC {
		base = ir.AlignedPC()
	}

	offsetAddr := local("wback")
	if inst.Add {
		ops = append(ops, ir.Add{Dst: offsetAddr, A: base, B: offset})
	} else {
		ops = append(ops, ir.Sub{Dst: offsetAddr, A: base, B: offset})
	}
	if inst.Index {
		return append(ops, ir.Move{Dst: local("addr"), Src: offsetAddr})
	}
	return append(ops, ir.Move{Dst: local("addr"), Src: base})
}

// load expands the single loads. The base is written back before Rt, and a
// load to PC is a branch.
func load(mode addressing, bits uint32, signed bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		ops := address(inst, mode)
		data := local("data")
		ops = append(ops, ir.Move{Dst: data, Src: ir.AddressInLocal("addr", bits)})
		if bits < 32 {
			if signed {
				ops = append(ops, ir.SignExtend{Dst: data, Src: data, Bits: bits, Width: 32})
			} else {
				ops = append(ops, ir.ZeroExtend{Dst: data, Src: data, Bits: bits, Width: 32})
			}
		}
		if inst.WriteBack && mode != addrLiteral {
			ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: local("wback")})
		}
		return writeReg(ops, inst.Rt, data)
	}
}

// store expands the single stores. Only the low bits of Rt are written.
func store(mode addressing, bits uint32) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		ops := address(inst, mode)
		ops = append(ops, ir.Move{Dst: ir.AddressInLocal("addr", bits), Src: reg(inst.Rt)})
		if inst.WriteBack {
			ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: local("wback")})
		}
		return ops
	}
}

func expandLDRD(inst insts.Instruction, _ bool) []ir.Operation {
	ops := address(inst, addrImmediate)
	ops = append(ops,
		ir.Move{Dst: local("low"), Src: ir.AddressInLocal("addr", 32)},
		ir.Add{Dst: local("addr"), A: local("addr"), B: imm32(4)},
		ir.Move{Dst: local("high"), Src: ir.AddressInLocal("addr", 32)},
	)
	if inst.WriteBack {
		ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: local("wback")})
	}
	return append(ops,
		ir.Move{Dst: reg(inst.Rt), Src: local("low")},
		ir.Move{Dst: reg(inst.Rt2), Src: local("high")},
	)
}

func expandSTRD(inst insts.Instruction, _ bool) []ir.Operation {
	ops := address(inst, addrImmediate)
	ops = append(ops,
		ir.Move{Dst: ir.AddressInLocal("addr", 32), Src: reg(inst.Rt)},
		ir.Add{Dst: local("addr"), A: local("addr"), B: imm32(4)},
		ir.Move{Dst: ir.AddressInLocal("addr", 32), Src: reg(inst.Rt2)},
	)
	if inst.WriteBack {
		ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: local("wback")})
	}
	return ops
}

// loadMultiple expands LDM, LDMDB and POP. Registers load in ascending
// order from ascending addresses; PC, if listed, is loaded last and
// branches.
func loadMultiple(decrementBefore bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		ops, end := multipleBase(inst, decrementBefore)
		for _, r := range inst.Registers {
			if r == insts.PC {
				ops = append(ops, ir.Move{Dst: local("newpc"), Src: ir.AddressInLocal("addr", 32)})
			} else {
				ops = append(ops, ir.Move{Dst: reg(r), Src: ir.AddressInLocal("addr", 32)})
			}
			ops = append(ops, ir.Add{Dst: local("addr"), A: local("addr"), B: imm32(4)})
		}
		if inst.WriteBack {
			ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: end})
		}
		for _, r := range inst.Registers {
			if r == insts.PC {
				ops = writeReg(ops, insts.PC, local("newpc"))
			}
		}
		return ops
	}
}

// storeMultiple expands STM, STMDB and PUSH.
func storeMultiple(decrementBefore bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		ops, end := multipleBase(inst, decrementBefore)
		for _, r := range inst.Registers {
			ops = append(ops,
				ir.Move{Dst: ir.AddressInLocal("addr", 32), Src: reg(r)},
				ir.Add{Dst: local("addr"), A: local("addr"), B: imm32(4)},
			)
		}
		if inst.WriteBack || inst.Op == insts.OpPUSH {
			ops = append(ops, ir.Move{Dst: reg(inst.Rn), Src: end})
		}
		return ops
	}
}

// multipleBase sets addr to the lowest address accessed and returns the
// writeback value.
func multipleBase(inst insts.Instruction, decrementBefore bool) ([]ir.Operation, ir.Operand) {
	size := imm32(4 * uint32(len(inst.Registers)))
	if decrementBefore {
		return []ir.Operation{
			ir.Sub{Dst: local("addr"), A: reg(inst.Rn), B: size},
			ir.Move{Dst: local("wback"), Src: local("addr")},
		}, local("wback")
	}
	return []ir.Operation{
		ir.Move{Dst: local("addr"), Src: reg(inst.Rn)},
		ir.Add{Dst: local("wback"), A: reg(inst.Rn), B: size},
	}, local("wback")
}

func expandPOP(inst insts.Instruction, inITBlock bool) []ir.Operation {
	inst.WriteBack = true
	return loadMultiple(false)(inst, inITBlock)
}
