// Package insts provides ARMv7-M Thumb and VFP instruction definitions and
// decoding.
//
// This package implements decoding of Thumb machine code into structured
// instruction representations. It supports:
//   - The complete 16-bit Thumb encoding space
//   - 32-bit Thumb-2 data processing, loads/stores, multiplies and branches
//   - FPv4/FPv5 VFP data processing, transfers and conversions
//
// Usage:
//
//	decoder := insts.NewThumbDecoder(image)
//	inst, size, err := decoder.DecodeAt(0x08000100)
//	fmt.Printf("Op: %v, Rd: %v, Rn: %v, Imm: %d (%d bytes)\n",
//		inst.Op, inst.Rd, inst.Rn, inst.Imm, size)
package insts

import (
	"fmt"
	"strings"
)

// Instruction represents a decoded Thumb or VFP instruction. Operands are
// kept as encoded; fields an op does not use are left at their zero value,
// except register fields, which hold NoRegister.
type Instruction struct {
	Op   Op
	Cond Cond // Branch condition, or firstcond for IT

	// Core registers
	Rd   Register
	Rn   Register
	Rm   Register
	Ra   Register // Accumulator for MLA/MLS/USADA8
	Rt   Register
	Rt2  Register
	RdLo Register
	RdHi Register

	// Immediate operand. Branch offsets are stored sign-extended.
	Imm uint32
	// ImmRotated is set when a modified immediate was produced by rotation,
	// in which case its bit 31 is the shifter carry-out.
	ImmRotated bool

	Shift Shift // Shift applied to Rm, or rotation for extends

	// SetFlags is nil when the encoding follows the implicit Thumb rule:
	// flags are set outside an IT block and preserved inside one.
	SetFlags *bool

	Registers []Register // LDM/STM/PUSH/POP

	// Addressing mode
	Index     bool // Pre-indexed
	Add       bool // Offset is added
	WriteBack bool

	Lsb    uint8 // Bit field and saturation
	Width  uint8
	SatImm uint8

	Mask   uint8 // IT mask
	SysReg uint8 // MRS/MSR SYSm

	// VFP fields. Register numbers index S or D registers per Double.
	Vd, Vn, Vm uint8
	Double     bool
	Signed     bool
	Rounding   FPRounding
	Top        bool // VCVTT, or the upper word for scalar moves
	ToHalf     bool
	WithZero   bool // VCMP against +0.0
	FBits      uint8
	FixedSize  uint8
	Count      uint8 // VLDM/VSTM register count
}

// Bool returns a pointer to b, for SetFlags.
func Bool(b bool) *bool {
	return &b
}

// NewInstruction returns an instruction with all register fields absent.
func NewInstruction(op Op) Instruction {
	return Instruction{
		Op:   op,
		Cond: CondAL,
		Rd:   NoRegister,
		Rn:   NoRegister,
		Rm:   NoRegister,
		Ra:   NoRegister,
		Rt:   NoRegister,
		Rt2:  NoRegister,
		RdLo: NoRegister,
		RdHi: NoRegister,
	}
}

// FlagsSet resolves the S suffix: an explicit encoding wins, otherwise the
// flags are set only outside an IT block.
func (i Instruction) FlagsSet(inITBlock bool) bool {
	if i.SetFlags != nil {
		return *i.SetFlags
	}
	return !inITBlock
}

// String renders the instruction in a compact assembler-like form.
func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.Op.Mnemonic())
	if i.SetFlags != nil && *i.SetFlags {
		b.WriteString("S")
	}
	if i.Op == OpBCond || i.Op == OpIT {
		b.WriteString(i.Cond.String())
	}
	if i.Op.IsFP() {
		if i.Double {
			b.WriteString(".F64")
		} else {
			b.WriteString(".F32")
		}
	}

	var args []string
	for _, r := range []Register{i.Rd, i.RdLo, i.RdHi, i.Rt, i.Rt2, i.Rn, i.Rm, i.Ra} {
		if r != NoRegister {
			args = append(args, r.String())
		}
	}
	if i.Op.IsFP() {
		prefix := "S"
		if i.Double {
			prefix = "D"
		}
		args = append(args, fmt.Sprintf("%s%d", prefix, i.Vd))
	}
	if len(i.Registers) > 0 {
		regs := make([]string, len(i.Registers))
		for k, r := range i.Registers {
			regs[k] = r.String()
		}
		args = append(args, "{"+strings.Join(regs, ",")+"}")
	}
	if i.Imm != 0 {
		args = append(args, fmt.Sprintf("#%#x", i.Imm))
	}
	if !i.Shift.IsNone() {
		args = append(args, fmt.Sprintf("%s #%d", i.Shift.Type, i.Shift.Amount))
	}
	if len(args) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(args, ", "))
	}
	return b.String()
}
