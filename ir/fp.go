package ir

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
)

// FPKind tags an FPType.
type FPKind uint8

// FP value kinds.
const (
	KindBinary FPKind = iota
	KindIntegral
)

// FPType is the interpretation of an FP operand's bits: an IEEE-754
// binary format or a fixed-width integer.
type FPType struct {
	Kind   FPKind
	Size   uint32
	Signed bool
}

// IEEE-754 formats.
var (
	Binary16 = FPType{Kind: KindBinary, Size: 16}
	Binary32 = FPType{Kind: KindBinary, Size: 32}
	Binary64 = FPType{Kind: KindBinary, Size: 64}
)

// Integral returns an integer type of size bits.
func Integral(size uint32, signed bool) FPType {
	return FPType{Kind: KindIntegral, Size: size, Signed: signed}
}

// BinaryOf returns Binary64 for doubles and Binary32 otherwise.
func BinaryOf(double bool) FPType {
	if double {
		return Binary64
	}
	return Binary32
}

// IsBinary reports whether the type is a floating-point format.
func (t FPType) IsBinary() bool { return t.Kind == KindBinary }

func (t FPType) String() string {
	if t.Kind == KindBinary {
		return fmt.Sprintf("f%d", t.Size)
	}
	if t.Signed {
		return fmt.Sprintf("s%d", t.Size)
	}
	return fmt.Sprintf("u%d", t.Size)
}

// FPStorageKind tags where an FP operand lives.
type FPStorageKind uint8

// FP storage kinds.
const (
	// StorageRegister is an extension register: a D register for 64-bit
	// types, otherwise the low bits of an S register.
	StorageRegister FPStorageKind = iota
	StorageLocal
	// StorageCore reinterprets a core operand's bits.
	StorageCore
	StorageImmediate
)

// FPStorage locates an FP operand's bits.
type FPStorage struct {
	Kind  FPStorageKind
	Index uint8
	Name  string
	Core  Operand
	Bits  uint64
}

// FPOperand is a typed floating-point or integral value.
type FPOperand struct {
	Type    FPType
	Storage FPStorage
}

// FPReg returns S<index> or D<index>, by the width of t.
func FPReg(t FPType, index uint8) FPOperand {
	return FPOperand{Type: t, Storage: FPStorage{Kind: StorageRegister, Index: index}}
}

// FPLocal returns a typed local.
func FPLocal(t FPType, name string) FPOperand {
	return FPOperand{Type: t, Storage: FPStorage{Kind: StorageLocal, Name: name}}
}

// FPCore reinterprets the bits of a core operand.
func FPCore(t FPType, o Operand) FPOperand {
	return FPOperand{Type: t, Storage: FPStorage{Kind: StorageCore, Core: o}}
}

// FPImm returns a constant given by its bit pattern.
func FPImm(t FPType, bits uint64) FPOperand {
	return FPOperand{Type: t, Storage: FPStorage{Kind: StorageImmediate, Bits: bits}}
}

// Width returns the operand's width in bits.
func (o FPOperand) Width() uint32 { return o.Type.Size }

func (o FPOperand) String() string {
	var loc string
	switch o.Storage.Kind {
	case StorageRegister:
		prefix := "S"
		if o.Type.Size == 64 {
			prefix = "D"
		}
		loc = fmt.Sprintf("%s%d", prefix, o.Storage.Index)
	case StorageLocal:
		loc = "%" + o.Storage.Name
	case StorageCore:
		loc = o.Storage.Core.String()
	default:
		loc = fmt.Sprintf("#%#x", o.Storage.Bits)
	}
	return fmt.Sprintf("%s:%s", loc, o.Type)
}

// RoundingMode selects the rounding of an FP operation. The zero value
// reads the mode from FPSCR.RMode when the operation executes.
type RoundingMode uint8

// Rounding modes.
const (
	RoundFPSCR RoundingMode = iota
	RoundNearestEven
	RoundNearestAway
	RoundTowardPositive
	RoundTowardNegative
	RoundTowardZero
)

var roundingNames = [...]string{"fpscr", "rne", "rna", "rtp", "rtn", "rtz"}

func (r RoundingMode) String() string {
	if int(r) < len(roundingNames) {
		return roundingNames[r]
	}
	return "rm?"
}

// RoundingOf maps a decoded rounding selection. FPRoundExact behaves as
// the FPSCR mode.
func RoundingOf(r insts.FPRounding) RoundingMode {
	switch r {
	case insts.FPRoundZero:
		return RoundTowardZero
	case insts.FPRoundNearest:
		return RoundNearestEven
	case insts.FPRoundAway:
		return RoundNearestAway
	case insts.FPRoundPlusInf:
		return RoundTowardPositive
	case insts.FPRoundMinusInf:
		return RoundTowardNegative
	}
	return RoundFPSCR
}

// ComparisonMode is an IEEE-754 ordered comparison. Every mode except
// NotEqual is false when either side is NaN.
type ComparisonMode uint8

// Comparison modes.
const (
	FPEqual ComparisonMode = iota
	FPNotEqual
	FPLess
	FPLessOrEqual
	FPGreater
	FPGreaterOrEqual
)

var comparisonNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge"}

func (m ComparisonMode) String() string {
	if int(m) < len(comparisonNames) {
		return comparisonNames[m]
	}
	return "fcmp?"
}

// FPAdd writes A + B.
type FPAdd struct {
	Dst, A, B FPOperand
	Rounding  RoundingMode
}

// FPSub writes A - B.
type FPSub struct {
	Dst, A, B FPOperand
	Rounding  RoundingMode
}

// FPMul writes A * B.
type FPMul struct {
	Dst, A, B FPOperand
	Rounding  RoundingMode
}

// FPDiv writes A / B.
type FPDiv struct {
	Dst, A, B FPOperand
	Rounding  RoundingMode
}

// FPFusedMulAdd writes A * B + C with a single rounding.
type FPFusedMulAdd struct {
	Dst, A, B, C FPOperand
	Rounding     RoundingMode
}

// FPSqrt writes the square root of Src.
type FPSqrt struct {
	Dst, Src FPOperand
	Rounding RoundingMode
}

// FPAbs clears the sign bit.
type FPAbs struct {
	Dst, Src FPOperand
}

// FPNeg flips the sign bit.
type FPNeg struct {
	Dst, Src FPOperand
}

// FPCompare writes 1 to the core Dst when A mode B holds.
type FPCompare struct {
	Dst  Operand
	A, B FPOperand
	Mode ComparisonMode
}

// FPConvert converts between the types of Src and Dst: format to format,
// float to integral (saturating, NaN to 0) or integral to float.
type FPConvert struct {
	Dst, Src FPOperand
	Rounding RoundingMode
}

// FPRoundToInt rounds Src to an integral value in the same format.
type FPRoundToInt struct {
	Dst, Src FPOperand
	Rounding RoundingMode
}

// FPIsNaN writes 1 to the core Dst when Src is a NaN.
type FPIsNaN struct {
	Dst Operand
	Src FPOperand
}

// FPIsZero writes 1 to the core Dst when Src is a zero of either sign.
type FPIsZero struct {
	Dst Operand
	Src FPOperand
}

// FPIsInfinite writes 1 to the core Dst when Src is an infinity.
type FPIsInfinite struct {
	Dst Operand
	Src FPOperand
}

// FPCopy copies bits between FP storages without conversion. The types
// must have equal widths.
type FPCopy struct {
	Dst, Src FPOperand
}

func (FPAdd) isOperation()         {}
func (FPSub) isOperation()         {}
func (FPMul) isOperation()         {}
func (FPDiv) isOperation()         {}
func (FPFusedMulAdd) isOperation() {}
func (FPSqrt) isOperation()        {}
func (FPAbs) isOperation()         {}
func (FPNeg) isOperation()         {}
func (FPCompare) isOperation()     {}
func (FPConvert) isOperation()     {}
func (FPRoundToInt) isOperation()  {}
func (FPIsNaN) isOperation()       {}
func (FPIsZero) isOperation()      {}
func (FPIsInfinite) isOperation()  {}
func (FPCopy) isOperation()        {}
