// Package semantics expands decoded Thumb and VFP instructions into
// primitive ir operations.
//
// Each opcode has one expansion function registered in a dispatch table.
// An expansion is a pure function of the instruction and whether it sits
// inside an IT block; the IT condition itself is applied by Gate.
package semantics

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

// expander produces the operations of one instruction.
type expander func(inst insts.Instruction, inITBlock bool) []ir.Operation

// Decoder maps instructions to their primitive operations.
type Decoder struct {
	table map[insts.Op]expander
}

// NewDecoder returns a decoder covering the integer and VFP instruction
// sets.
func NewDecoder() *Decoder {
	d := &Decoder{table: make(map[insts.Op]expander)}
	d.register(integerExpanders())
	d.register(fpExpanders())
	return d
}

func (d *Decoder) register(entries map[insts.Op]expander) {
	for op, fn := range entries {
		if _, dup := d.table[op]; dup {
			panic(fmt.Sprintf("semantics: %s registered twice", op))
		}
		d.table[op] = fn
	}
}

// Supports reports whether op has an expansion.
func (d *Decoder) Supports(op insts.Op) bool {
	_, ok := d.table[op]
	return ok
}

// Decode returns the operations reproducing inst. Opcodes without an
// expansion are an implementation gap and panic.
func (d *Decoder) Decode(inst insts.Instruction, inITBlock bool) []ir.Operation {
	fn, ok := d.table[inst.Op]
	if !ok {
		panic(fmt.Sprintf("semantics: no expansion for %s (op %d)", inst.Op, uint16(inst.Op)))
	}
	return fn(inst, inITBlock)
}

const gateLocal = "it.cond"

// Gate makes ops conditional on cond. AL returns ops unchanged.
func Gate(cond insts.Cond, ops []ir.Operation) []ir.Operation {
	if cond == insts.CondAL {
		return ops
	}
	return []ir.Operation{
		ir.CheckCondition{Dst: ir.Local(gateLocal), Cond: cond},
		ir.Ite{Cond: ir.Local(gateLocal), Then: ops},
	}
}

// Operand shorthands.
var (
	reg    = ir.Reg
	local  = ir.Local
	imm32  = ir.Imm32
	flagOf = ir.FlagOf
)

func abort(reason string) []ir.Operation {
	return []ir.Operation{ir.Abort{Reason: reason}}
}

func none(insts.Instruction, bool) []ir.Operation {
	return nil
}

func aborting(reason string) expander {
	return func(insts.Instruction, bool) []ir.Operation {
		return abort(reason)
	}
}

// writeReg writes src to r. Writing PC branches to src with bit 0 cleared.
func writeReg(ops []ir.Operation, r insts.Register, src ir.Operand) []ir.Operation {
	if r != insts.PC {
		return append(ops, ir.Move{Dst: reg(r), Src: src})
	}
	return append(ops,
		ir.And{Dst: local("target"), A: src, B: imm32(^uint32(1))},
		ir.Move{Dst: reg(insts.PC), Src: local("target")},
	)
}

// setNZ updates N and Z from a result.
func setNZ(ops []ir.Operation, result ir.Operand) []ir.Operation {
	return append(ops, ir.SetNFlag{Src: result}, ir.SetZFlag{Src: result})
}
