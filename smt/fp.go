package smt

import (
	"fmt"
	"math"
)

// FPSort describes an IEEE-754 binary interchange format. Sig counts the
// hidden bit.
type FPSort struct {
	Exp uint32
	Sig uint32
}

// IEEE-754 binary formats.
var (
	Float16 = FPSort{Exp: 5, Sig: 11}
	Float32 = FPSort{Exp: 8, Sig: 24}
	Float64 = FPSort{Exp: 11, Sig: 53}
)

// Width returns the storage width of the format.
func (s FPSort) Width() uint32 { return s.Exp + s.Sig }

func (s FPSort) String() string {
	return fmt.Sprintf("fp%d", s.Width())
}

// RoundingMode selects an IEEE-754 rounding direction.
type RoundingMode uint8

// Rounding modes.
const (
	RoundNearestEven RoundingMode = iota
	RoundNearestAway
	RoundTowardPositive
	RoundTowardNegative
	RoundTowardZero
)

var roundingNames = [...]string{"RNE", "RNA", "RTP", "RTN", "RTZ"}

func (r RoundingMode) String() string {
	if int(r) < len(roundingNames) {
		return roundingNames[r]
	}
	return fmt.Sprintf("RoundingMode(%d)", uint8(r))
}

type fpOp uint8

const (
	fpConst fpOp = iota
	fpFromBits
	fpAdd
	fpSub
	fpMul
	fpDiv
	fpSqrt
	fpFMA
	fpAbs
	fpNeg
	fpConvert
	fpFromInt
	fpRoundIntegral
	fpIte
)

var fpOpNames = map[fpOp]string{
	fpFromBits: "fp.from_bits", fpAdd: "fp.add", fpSub: "fp.sub",
	fpMul: "fp.mul", fpDiv: "fp.div", fpSqrt: "fp.sqrt", fpFMA: "fp.fma",
	fpAbs: "fp.abs", fpNeg: "fp.neg", fpConvert: "to_fp",
	fpFromInt: "to_fp_int", fpRoundIntegral: "fp.roundToIntegral", fpIte: "ite",
}

type fpPredicate uint8

const (
	predEq fpPredicate = iota
	predLt
	predLe
	predGt
	predGe
	predUnordered
)

type fpClass uint8

const (
	classNaN fpClass = iota
	classZero
	classInf
	classNegative
)

// FP is an immutable floating-point expression. Values are carried as
// bit patterns, so NaN payloads and signed zeros are exact.
type FP struct {
	op     fpOp
	sort   FPSort
	bits   uint64
	args   []*FP
	bvargs []*BV
	rm     RoundingMode
	signed bool
}

// FPConst returns a float constant from its bit pattern.
func FPConst(bits uint64, sort FPSort) *FP {
	return &FP{op: fpConst, sort: sort, bits: bits & mask(sort.Width())}
}

// FPFromFloat64 returns the constant nearest to f in the given format.
func FPFromFloat64(f float64, sort FPSort) *FP {
	return FPConst(math.Float64bits(f), Float64).Convert(sort, RoundNearestEven)
}

// FPFromBits reinterprets a bit-vector as a float of the given format.
func FPFromBits(b *BV, sort FPSort) *FP {
	if b.width != sort.Width() {
		panic(fmt.Sprintf("smt: %d-bit vector cannot hold %s", b.width, sort))
	}
	if v, ok := b.Value(); ok {
		return FPConst(v, sort)
	}
	if b.op == bvFromFP && b.fargs[0].sort == sort {
		return b.fargs[0]
	}
	return &FP{op: fpFromBits, sort: sort, bvargs: []*BV{b}}
}

// FPFromInt converts a signed or unsigned integer to a float.
func FPFromInt(b *BV, signed bool, sort FPSort, rm RoundingMode) *FP {
	return foldFP(&FP{op: fpFromInt, sort: sort, bvargs: []*BV{b}, signed: signed, rm: rm})
}

// Sort returns the float format.
func (f *FP) Sort() FPSort { return f.sort }

// IsConst reports whether the expression is a constant.
func (f *FP) IsConst() bool { return f.op == fpConst }

// Bits returns the constant bit pattern, if constant.
func (f *FP) Bits() (uint64, bool) {
	if f.op != fpConst {
		return 0, false
	}
	return f.bits, true
}

func (f *FP) sameSort(op string, o *FP) {
	if f.sort != o.sort {
		panic(fmt.Sprintf("smt: %s sort mismatch %s != %s", op, f.sort, o.sort))
	}
}

func (f *FP) binary(op fpOp, o *FP, rm RoundingMode) *FP {
	f.sameSort(fpOpNames[op], o)
	return foldFP(&FP{op: op, sort: f.sort, args: []*FP{f, o}, rm: rm})
}

// Add returns f + o rounded with rm.
func (f *FP) Add(o *FP, rm RoundingMode) *FP { return f.binary(fpAdd, o, rm) }

// Sub returns f - o rounded with rm.
func (f *FP) Sub(o *FP, rm RoundingMode) *FP { return f.binary(fpSub, o, rm) }

// Mul returns f * o rounded with rm.
func (f *FP) Mul(o *FP, rm RoundingMode) *FP { return f.binary(fpMul, o, rm) }

// Div returns f / o rounded with rm.
func (f *FP) Div(o *FP, rm RoundingMode) *FP { return f.binary(fpDiv, o, rm) }

// Sqrt returns the square root rounded with rm.
func (f *FP) Sqrt(rm RoundingMode) *FP {
	return foldFP(&FP{op: fpSqrt, sort: f.sort, args: []*FP{f}, rm: rm})
}

// FMA returns f*m + a with a single rounding.
func (f *FP) FMA(m, a *FP, rm RoundingMode) *FP {
	f.sameSort("fp.fma", m)
	f.sameSort("fp.fma", a)
	return foldFP(&FP{op: fpFMA, sort: f.sort, args: []*FP{f, m, a}, rm: rm})
}

// Abs clears the sign bit.
func (f *FP) Abs() *FP { return foldFP(&FP{op: fpAbs, sort: f.sort, args: []*FP{f}}) }

// Neg flips the sign bit.
func (f *FP) Neg() *FP { return foldFP(&FP{op: fpNeg, sort: f.sort, args: []*FP{f}}) }

// Convert rounds f into another format.
func (f *FP) Convert(sort FPSort, rm RoundingMode) *FP {
	if sort == f.sort {
		return f
	}
	return foldFP(&FP{op: fpConvert, sort: sort, args: []*FP{f}, rm: rm})
}

// RoundToIntegral rounds to an integral value in the same format.
func (f *FP) RoundToIntegral(rm RoundingMode) *FP {
	return foldFP(&FP{op: fpRoundIntegral, sort: f.sort, args: []*FP{f}, rm: rm})
}

// ToBits returns the bit pattern as a bit-vector.
func (f *FP) ToBits() *BV {
	if f.op == fpFromBits {
		return f.bvargs[0]
	}
	return fold(&BV{op: bvFromFP, width: f.sort.Width(), fargs: []*FP{f}})
}

// ToInt converts to a width-bit integer, rounding with rm. Out-of-range
// values saturate and NaN converts to zero.
func (f *FP) ToInt(width uint32, signed bool, rm RoundingMode) *BV {
	checkWidth(width)
	var aux uint8
	if signed {
		aux = 1
	}
	return fold(&BV{op: bvFPToInt, width: width, fargs: []*FP{f}, aux: aux, rm: rm})
}

func (f *FP) predicate(p fpPredicate, o *FP) *BV {
	f.sameSort("fp.cmp", o)
	return fold(&BV{op: bvFPCompare, width: 1, fargs: []*FP{f, o}, aux: uint8(p)})
}

// Eq is IEEE equality: false when either side is NaN, -0 == +0.
func (f *FP) Eq(o *FP) *BV { return f.predicate(predEq, o) }

// Lt is IEEE less-than.
func (f *FP) Lt(o *FP) *BV { return f.predicate(predLt, o) }

// Le is IEEE less-or-equal.
func (f *FP) Le(o *FP) *BV { return f.predicate(predLe, o) }

// Gt is IEEE greater-than.
func (f *FP) Gt(o *FP) *BV { return f.predicate(predGt, o) }

// Ge is IEEE greater-or-equal.
func (f *FP) Ge(o *FP) *BV { return f.predicate(predGe, o) }

// Unordered is set when either side is NaN.
func (f *FP) Unordered(o *FP) *BV { return f.predicate(predUnordered, o) }

func (f *FP) classify(c fpClass) *BV {
	return fold(&BV{op: bvFPClass, width: 1, fargs: []*FP{f}, aux: uint8(c)})
}

// IsNaN tests for any NaN.
func (f *FP) IsNaN() *BV { return f.classify(classNaN) }

// IsZero tests for either signed zero.
func (f *FP) IsZero() *BV { return f.classify(classZero) }

// IsInf tests for either infinity.
func (f *FP) IsInf() *BV { return f.classify(classInf) }

// IsNegative tests the sign bit of a non-NaN value.
func (f *FP) IsNegative() *BV { return f.classify(classNegative) }

// FPIte selects a when cond is set, otherwise b.
func FPIte(cond *BV, a, b *FP) *FP {
	a.sameSort("ite", b)
	if v, ok := cond.Value(); ok {
		if v == 1 {
			return a
		}
		return b
	}
	return &FP{op: fpIte, sort: a.sort, args: []*FP{a, b}, bvargs: []*BV{cond}}
}

func foldFP(n *FP) *FP {
	for _, a := range n.args {
		if a.op != fpConst {
			return n
		}
	}
	for _, a := range n.bvargs {
		if a.op != bvConst {
			return n
		}
	}
	vals := make([]uint64, len(n.args))
	for i, a := range n.args {
		vals[i] = a.bits
	}
	bvals := make([]uint64, len(n.bvargs))
	for i, a := range n.bvargs {
		bvals[i] = a.value
	}
	return FPConst(n.compute(vals, bvals), n.sort)
}

func (f *FP) compute(v []uint64, b []uint64) uint64 {
	s := f.sort
	switch f.op {
	case fpConst:
		return f.bits
	case fpFromBits:
		return b[0]
	case fpAdd:
		return fpAddBits(v[0], v[1], s, f.rm)
	case fpSub:
		return fpAddBits(v[0], v[1]^signBit(s.Width()), s, f.rm)
	case fpMul:
		return fpMulBits(v[0], v[1], s, f.rm)
	case fpDiv:
		return fpDivBits(v[0], v[1], s, f.rm)
	case fpSqrt:
		return fpSqrtBits(v[0], s, f.rm)
	case fpFMA:
		return fpFMABits(v[0], v[1], v[2], s, f.rm)
	case fpAbs:
		return v[0] &^ signBit(s.Width())
	case fpNeg:
		return v[0] ^ signBit(s.Width())
	case fpConvert:
		return fpConvertBits(v[0], f.args[0].sort, s, f.rm)
	case fpFromInt:
		return fpFromIntBits(b[0], f.bvargs[0].width, f.signed, s, f.rm)
	case fpRoundIntegral:
		return fpRoundIntegralBits(v[0], s, f.rm)
	case fpIte:
		if b[0] != 0 {
			return v[0]
		}
		return v[1]
	}
	panic(fmt.Sprintf("smt: unknown float op %d", f.op))
}

// String renders the expression as an s-expression.
func (f *FP) String() string {
	switch f.op {
	case fpConst:
		return fmt.Sprintf("(%s #x%x)", f.sort, f.bits)
	}
	s := "(" + fpOpNames[f.op]
	for _, a := range f.bvargs {
		s += " " + a.String()
	}
	for _, a := range f.args {
		s += " " + a.String()
	}
	return s + ")"
}
