package semantics

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

// Abort reasons.
const (
	ReasonUndefined      = "Undefined instruction"
	ReasonSupervisorCall = "Supervisor call"
	ReasonBreakpoint     = "Breakpoint"
	ReasonCoprocessor    = "Coprocessor instructions are not modelled"
	ReasonExclusive      = "Exclusive memory access is not modelled"
	ReasonInvalidFP      = "Invalid Operation exception"
)

// apsrBits lists the APSR flags with their bit positions.
var apsrBits = []struct {
	flag ir.Flag
	bit  uint32
}{
	{ir.FlagN, 31}, {ir.FlagZ, 30}, {ir.FlagC, 29}, {ir.FlagV, 28}, {ir.FlagQ, 27},
	{ir.FlagGE0, 16}, {ir.FlagGE1, 17}, {ir.FlagGE2, 18}, {ir.FlagGE3, 19},
}

func isAPSRView(sysReg uint8) bool {
	return sysReg <= insts.SysXPSR
}

// MRS reads the APSR views as the flags with IPSR and EPSR zero, since
// execution is always in thread mode.
func expandMRS(inst insts.Instruction, _ bool) []ir.Operation {
	switch {
	case inst.SysReg == insts.SysIPSR:
		return []ir.Operation{ir.Move{Dst: reg(inst.Rd), Src: imm32(0)}}
	case !isAPSRView(inst.SysReg):
		return abort(fmt.Sprintf("MRS from special register %d is not modelled", inst.SysReg))
	}

	acc := local("psr")
	ops := []ir.Operation{ir.Move{Dst: acc, Src: imm32(0)}}
	for _, b := range apsrBits {
		ops = append(ops,
			ir.ZeroExtend{Dst: local("bit"), Src: flagOf(b.flag), Bits: 1, Width: 32},
			ir.Shift{Dst: local("bit"), Src: local("bit"), Amount: imm32(b.bit), Kind: ir.LSL},
			ir.Or{Dst: acc, A: acc, B: local("bit")},
		)
	}
	return append(ops, ir.Move{Dst: reg(inst.Rd), Src: acc})
}

// MSR writes NZCVQ when mask bit 1 is set and GE when mask bit 0 is set.
func expandMSR(inst insts.Instruction, _ bool) []ir.Operation {
	if !isAPSRView(inst.SysReg) {
		return abort(fmt.Sprintf("MSR to special register %d is not modelled", inst.SysReg))
	}

	var ops []ir.Operation
	for _, b := range apsrBits {
		isGE := b.bit < 27
		if (isGE && inst.Mask&0b01 == 0) || (!isGE && inst.Mask&0b10 == 0) {
			continue
		}
		ops = append(ops,
			ir.BitFieldExtract{Dst: local("bit"), Src: reg(inst.Rn), Lsb: b.bit, Width: 1},
			ir.Move{Dst: flagOf(b.flag), Src: local("bit")},
		)
	}
	return ops
}
