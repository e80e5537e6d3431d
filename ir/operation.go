package ir

import "github.com/sarchlab/cortexsym/insts"

// Operation is one primitive step of an instruction's expansion. The set of
// operations is closed; executors switch over the concrete types.
type Operation interface {
	isOperation()
}

// ShiftKind selects a barrel shift. Amounts follow the architectural
// register-shift rules: LSL and LSR by 32 or more give 0, ASR by 32 or more
// fills with the sign bit, ROR uses the amount modulo the width and RRX
// shifts in the carry flag by one.
type ShiftKind uint8

// Shift kinds.
const (
	LSL ShiftKind = iota
	LSR
	ASR
	ROR
	RRX
)

var shiftKindNames = [...]string{"lsl", "lsr", "asr", "ror", "rrx"}

func (k ShiftKind) String() string {
	if int(k) < len(shiftKindNames) {
		return shiftKindNames[k]
	}
	return "shift?"
}

// ShiftKindOf maps a decoded shift type.
func ShiftKindOf(t insts.ShiftType) ShiftKind {
	switch t {
	case insts.ShiftLSR:
		return LSR
	case insts.ShiftASR:
		return ASR
	case insts.ShiftROR:
		return ROR
	case insts.ShiftRRX:
		return RRX
	}
	return LSL
}

// CompareOp is an integer comparison producing a 1-bit result.
type CompareOp uint8

// Integer comparisons.
const (
	Eq CompareOp = iota
	Ne
	ULt
	ULe
	UGt
	UGe
	SLt
	SLe
	SGt
	SGe
)

var compareNames = [...]string{"eq", "ne", "ult", "ule", "ugt", "uge", "slt", "sle", "sgt", "sge"}

func (c CompareOp) String() string {
	if int(c) < len(compareNames) {
		return compareNames[c]
	}
	return "cmp?"
}

// FlagFamily selects the arithmetic whose carry or overflow a flag
// operation derives.
type FlagFamily uint8

// Flag families. Adc and Sbc take the incoming carry from the operation's
// Carry operand; Rsb is Sub with the operands exchanged.
const (
	FamilyAdd FlagFamily = iota
	FamilyAdc
	FamilySub
	FamilySbc
	FamilyRsb
)

var familyNames = [...]string{"add", "adc", "sub", "sbc", "rsb"}

func (f FlagFamily) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "family?"
}

// Move copies Src to Dst. A wider source written to a flag keeps bit 0.
// Writing PC is a jump.
type Move struct {
	Dst, Src Operand
}

// Add writes A + B.
type Add struct {
	Dst, A, B Operand
}

// Adc writes A + B + Carry.
type Adc struct {
	Dst, A, B, Carry Operand
}

// Sub writes A - B.
type Sub struct {
	Dst, A, B Operand
}

// Mul writes the low bits of A * B, at the width of the operands.
type Mul struct {
	Dst, A, B Operand
}

// SDiv writes the signed quotient rounded toward zero. Division by zero
// yields zero.
type SDiv struct {
	Dst, A, B Operand
}

// UDiv writes the unsigned quotient. Division by zero yields zero.
type UDiv struct {
	Dst, A, B Operand
}

// And writes A & B.
type And struct {
	Dst, A, B Operand
}

// Or writes A | B.
type Or struct {
	Dst, A, B Operand
}

// Xor writes A ^ B.
type Xor struct {
	Dst, A, B Operand
}

// Not writes ^Src.
type Not struct {
	Dst, Src Operand
}

// Shift writes Src shifted by Amount. Amount is read at the width of Src;
// RRX ignores it.
type Shift struct {
	Dst, Src, Amount Operand
	Kind             ShiftKind
}

// Compare writes 1 when A op B holds, 0 otherwise.
type Compare struct {
	Dst, A, B Operand
	Op        CompareOp
}

// CheckCondition writes 1 when the condition code holds on the current
// APSR flags.
type CheckCondition struct {
	Dst  Operand
	Cond insts.Cond
}

// Ite runs Then when the 1-bit Cond is set and Else otherwise. A symbolic
// condition forks the path.
type Ite struct {
	Cond       Operand
	Then, Else []Operation
}

// Select writes A when the 1-bit Cond is set and B otherwise. Unlike Ite
// it never forks: a symbolic condition yields a symbolic value.
type Select struct {
	Dst, Cond, A, B Operand
}

// ConditionalJump transfers control to Target when Cond holds on the
// APSR flags.
type ConditionalJump struct {
	Target Operand
	Cond   insts.Cond
}

// ConditionalExecution opens an IT block: each following instruction is
// gated by the next condition in Conds.
type ConditionalExecution struct {
	Conds []insts.Cond
}

// SetNFlag sets N from the sign bit of Src.
type SetNFlag struct {
	Src Operand
}

// SetZFlag sets Z when Src is zero.
type SetZFlag struct {
	Src Operand
}

// SetCFlag sets C to the carry out of the family's arithmetic on A and B.
// For subtraction the carry is NOT borrow.
type SetCFlag struct {
	A, B, Carry Operand
	Family      FlagFamily
}

// SetCFlagShift sets C to the last bit shifted out of Src. A zero amount
// leaves C unchanged.
type SetCFlagShift struct {
	Src, Amount Operand
	Kind        ShiftKind
}

// SetVFlag sets V to the signed overflow of the family's arithmetic on A
// and B.
type SetVFlag struct {
	A, B, Carry Operand
	Family      FlagFamily
}

// CountLeadingZeroes writes the number of leading zero bits of Src.
type CountLeadingZeroes struct {
	Dst, Src Operand
}

// BitFieldExtract writes Width bits of Src starting at Lsb, zero extended
// to the width of Src.
type BitFieldExtract struct {
	Dst, Src   Operand
	Lsb, Width uint32
}

// SignExtend writes the low Bits of Src sign extended to Width bits.
type SignExtend struct {
	Dst, Src    Operand
	Bits, Width uint32
}

// ZeroExtend writes the low Bits of Src zero extended to Width bits.
type ZeroExtend struct {
	Dst, Src    Operand
	Bits, Width uint32
}

// Resize truncates or zero extends Src to Width bits.
type Resize struct {
	Dst, Src Operand
	Width    uint32
}

// Concat writes Hi:Lo.
type Concat struct {
	Dst, Hi, Lo Operand
}

// Abort terminates the path with a reason.
type Abort struct {
	Reason string
}

// Nop does nothing.
type Nop struct{}

func (Move) isOperation()                 {}
func (Add) isOperation()                  {}
func (Adc) isOperation()                  {}
func (Sub) isOperation()                  {}
func (Mul) isOperation()                  {}
func (SDiv) isOperation()                 {}
func (UDiv) isOperation()                 {}
func (And) isOperation()                  {}
func (Or) isOperation()                   {}
func (Xor) isOperation()                  {}
func (Not) isOperation()                  {}
func (Shift) isOperation()                {}
func (Compare) isOperation()              {}
func (CheckCondition) isOperation()       {}
func (Ite) isOperation()                  {}
func (Select) isOperation()               {}
func (ConditionalJump) isOperation()      {}
func (ConditionalExecution) isOperation() {}
func (SetNFlag) isOperation()             {}
func (SetZFlag) isOperation()             {}
func (SetCFlag) isOperation()             {}
func (SetCFlagShift) isOperation()        {}
func (SetVFlag) isOperation()             {}
func (CountLeadingZeroes) isOperation()   {}
func (BitFieldExtract) isOperation()      {}
func (SignExtend) isOperation()           {}
func (ZeroExtend) isOperation()           {}
func (Resize) isOperation()               {}
func (Concat) isOperation()               {}
func (Abort) isOperation()                {}
func (Nop) isOperation()                  {}
