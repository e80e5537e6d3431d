// Package ir defines the primitive operations that Thumb and VFP
// instructions expand into, and the operands those operations read and
// write.
//
// An instruction's expansion is an ordered []Operation. Operations are
// executed strictly in order against one path's machine state; Ite nests
// two sub-lists of which exactly one runs.
package ir

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
)

// OperandKind tags the variant held by an Operand.
type OperandKind uint8

// Operand kinds.
const (
	KindRegister OperandKind = iota
	KindFlag
	KindLocal
	KindAddressInLocal
	KindImmediate
	KindFPSCR
)

// Flag identifies a single-bit status flag.
type Flag uint8

// Status flags.
const (
	FlagN   Flag = iota // APSR.N
	FlagZ               // APSR.Z
	FlagC               // APSR.C
	FlagV               // APSR.V
	FlagQ               // APSR.Q, sticky saturation
	FlagGE0             // APSR.GE[0]
	FlagGE1
	FlagGE2
	FlagGE3
	FPFlagN // FPSCR.N
	FPFlagZ // FPSCR.Z
	FPFlagC // FPSCR.C
	FPFlagV // FPSCR.V

	NumFlags
)

var flagNames = [...]string{
	"APSR.N", "APSR.Z", "APSR.C", "APSR.V", "APSR.Q",
	"APSR.GE0", "APSR.GE1", "APSR.GE2", "APSR.GE3",
	"FPSCR.N", "FPSCR.Z", "FPSCR.C", "FPSCR.V",
}

func (f Flag) String() string {
	if int(f) < len(flagNames) {
		return flagNames[f]
	}
	return fmt.Sprintf("Flag(%d)", uint8(f))
}

// GEFlag returns the GE flag for lane i.
func GEFlag(i int) Flag {
	return FlagGE0 + Flag(i)
}

// Operand says where a value lives.
type Operand struct {
	Kind OperandKind

	Reg insts.Register
	// Aligned reads the register word-aligned, as literal addressing
	// reads PC.
	Aligned bool

	Flag Flag

	// Name of a Local, or of the local holding the address for
	// AddressInLocal.
	Name string

	// Width in bits of an Immediate or of the memory access of an
	// AddressInLocal.
	Width uint32
	Value uint64
}

// Reg returns a core register operand. PC reads as the instruction address
// plus 4.
func Reg(r insts.Register) Operand {
	return Operand{Kind: KindRegister, Reg: r}
}

// AlignedPC returns Align(PC, 4), the base of literal addressing.
func AlignedPC() Operand {
	return Operand{Kind: KindRegister, Reg: insts.PC, Aligned: true}
}

// FlagOf returns a status flag operand.
func FlagOf(f Flag) Operand {
	return Operand{Kind: KindFlag, Flag: f}
}

// Local returns a scratch value scoped to one instruction's expansion.
func Local(name string) Operand {
	return Operand{Kind: KindLocal, Name: name}
}

// AddressInLocal dereferences the address held in a local, accessing
// width bits of memory.
func AddressInLocal(name string, width uint32) Operand {
	return Operand{Kind: KindAddressInLocal, Name: name, Width: width}
}

// Imm returns a width-bit constant.
func Imm(v uint64, width uint32) Operand {
	return Operand{Kind: KindImmediate, Value: v, Width: width}
}

// Imm32 returns a 32-bit constant.
func Imm32(v uint32) Operand {
	return Imm(uint64(v), 32)
}

// Bit returns a 1-bit constant.
func Bit(b bool) Operand {
	if b {
		return Imm(1, 1)
	}
	return Imm(0, 1)
}

// FPSCR returns the floating-point status and control register. Its NZCV
// bits are the FPSCR flags.
func FPSCR() Operand {
	return Operand{Kind: KindFPSCR}
}

// IsPC reports whether the operand is the program counter.
func (o Operand) IsPC() bool {
	return o.Kind == KindRegister && o.Reg == insts.PC
}

func (o Operand) String() string {
	switch o.Kind {
	case KindRegister:
		if o.Aligned {
			return fmt.Sprintf("Align(%s)", o.Reg)
		}
		return o.Reg.String()
	case KindFlag:
		return o.Flag.String()
	case KindLocal:
		return "%" + o.Name
	case KindAddressInLocal:
		return fmt.Sprintf("[%%%s]:%d", o.Name, o.Width)
	case KindImmediate:
		return fmt.Sprintf("#%#x:%d", o.Value, o.Width)
	case KindFPSCR:
		return "FPSCR"
	}
	return fmt.Sprintf("Operand(%d)", uint8(o.Kind))
}
