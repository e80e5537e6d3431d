package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// Register identifies an ARMv7-M core register.
type Register uint8

// Core registers.
const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC

	// NoRegister marks an operand the encoding leaves implicit.
	NoRegister Register = 0xFF
)

// NumRegisters is the size of the core register file.
const NumRegisters = 16

func (r Register) String() string {
	switch r {
	case SP:
		return "SP"
	case LR:
		return "LR"
	case PC:
		return "PC"
	case NoRegister:
		return "-"
	}
	if r < SP {
		return fmt.Sprintf("R%d", uint8(r))
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// ParseRegister parses a core register name such as "r3", "SP" or "r15".
func ParseRegister(name string) (Register, error) {
	switch strings.ToLower(name) {
	case "sp":
		return SP, nil
	case "lr":
		return LR, nil
	case "pc":
		return PC, nil
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "r") {
		n, err := strconv.ParseUint(lower[1:], 10, 8)
		if err == nil && n < NumRegisters {
			return Register(n), nil
		}
	}
	return NoRegister, fmt.Errorf("unknown register %q", name)
}

// Or returns r, or def when r is NoRegister.
func (r Register) Or(def Register) Register {
	if r == NoRegister {
		return def
	}
	return r
}

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
)

var condNames = [...]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return fmt.Sprintf("Cond(%d)", uint8(c))
}

// Invert returns the opposite condition. AL has no inverse and is returned
// unchanged.
func (c Cond) Invert() Cond {
	if c >= CondAL {
		return c
	}
	return c ^ 1
}

// ITConditions expands an IT instruction's firstcond and mask into the
// condition of each instruction in the block.
func ITConditions(first Cond, mask uint8) []Cond {
	mask &= 0xF
	if mask == 0 {
		return nil
	}
	n := 4
	for mask&(1<<(4-n)) == 0 {
		n--
	}
	conds := []Cond{first}
	base := first & 1
	for i := 1; i < n; i++ {
		bit := (mask >> (4 - i)) & 1
		if first == CondAL {
			conds = append(conds, CondAL)
			continue
		}
		if Cond(bit) == base {
			conds = append(conds, first)
		} else {
			conds = append(conds, first.Invert())
		}
	}
	return conds
}

// ShiftType is the kind of barrel shift applied to a register operand.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right
	ShiftRRX ShiftType = 0b100
)

var shiftNames = [...]string{"LSL", "LSR", "ASR", "ROR", "RRX"}

func (s ShiftType) String() string {
	if int(s) < len(shiftNames) {
		return shiftNames[s]
	}
	return fmt.Sprintf("ShiftType(%d)", uint8(s))
}

// Shift is a decoded immediate shift. Amount is already adjusted, so an
// encoded LSR #0 arrives as LSR #32.
type Shift struct {
	Type   ShiftType
	Amount uint8
}

// IsNone reports whether the shift leaves the operand unchanged.
func (s Shift) IsNone() bool {
	return s.Type == ShiftLSL && s.Amount == 0
}

// decodeImmShift implements the architectural DecodeImmShift.
func decodeImmShift(typ, imm5 uint32) Shift {
	switch ShiftType(typ) {
	case ShiftLSL:
		return Shift{Type: ShiftLSL, Amount: uint8(imm5)}
	case ShiftLSR, ShiftASR:
		if imm5 == 0 {
			imm5 = 32
		}
		return Shift{Type: ShiftType(typ), Amount: uint8(imm5)}
	default:
		if imm5 == 0 {
			return Shift{Type: ShiftRRX, Amount: 1}
		}
		return Shift{Type: ShiftROR, Amount: uint8(imm5)}
	}
}

// FPRounding selects how a VFP conversion or VRINT rounds.
type FPRounding uint8

// VFP rounding selections. FPRoundFPSCR reads the mode at run time.
const (
	FPRoundFPSCR FPRounding = iota
	FPRoundZero
	FPRoundNearest
	FPRoundAway
	FPRoundPlusInf
	FPRoundMinusInf
	FPRoundExact
)

var fpRoundingNames = [...]string{"R", "Z", "N", "A", "P", "M", "X"}

func (r FPRounding) String() string {
	if int(r) < len(fpRoundingNames) {
		return fpRoundingNames[r]
	}
	return fmt.Sprintf("FPRounding(%d)", uint8(r))
}

// Special register numbers (SYSm) accepted by MRS and MSR.
const (
	SysAPSR    uint8 = 0
	SysIAPSR   uint8 = 1
	SysEAPSR   uint8 = 2
	SysXPSR    uint8 = 3
	SysIPSR    uint8 = 5
	SysMSP     uint8 = 8
	SysPSP     uint8 = 9
	SysPRIMASK uint8 = 16
	SysBASEPRI uint8 = 17
	SysFAULT   uint8 = 19
	SysCONTROL uint8 = 20
)
