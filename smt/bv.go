// Package smt provides the symbolic expression layer used by the execution
// engine.
//
// Expressions are immutable trees of bit-vector (*BV) and IEEE-754 (*FP)
// nodes. Every builder folds constant operands immediately, so concrete
// execution never grows a tree. Satisfiability questions go through the
// Solver interface; NewSolver returns a pure-Go reference solver.
//
// Usage:
//
//	x := smt.BVSymbol("r0", 32)
//	cond := x.Eq(smt.BVConst(0, 32))
//	s := smt.NewSolver()
//	ok, err := s.IsSat(cond)
package smt

import (
	"fmt"
	"math/bits"
)

// MaxWidth is the widest bit-vector the package supports.
const MaxWidth = 64

type bvOp uint8

const (
	bvConst bvOp = iota
	bvSymbol
	bvAdd
	bvSub
	bvMul
	bvUDiv
	bvSDiv
	bvURem
	bvSRem
	bvAnd
	bvOr
	bvXor
	bvNot
	bvNeg
	bvShl
	bvLShr
	bvAShr
	bvRotR
	bvExtract
	bvConcat
	bvZExt
	bvSExt
	bvIte
	bvEq
	bvUlt
	bvUle
	bvSlt
	bvSle
	bvClz
	bvFromFP    // bit pattern of a float
	bvFPToInt   // rounded, saturating conversion
	bvFPCompare // float predicate, width 1
	bvFPClass   // float classification, width 1
)

var bvOpNames = map[bvOp]string{
	bvAdd: "bvadd", bvSub: "bvsub", bvMul: "bvmul", bvUDiv: "bvudiv",
	bvSDiv: "bvsdiv", bvURem: "bvurem", bvSRem: "bvsrem", bvAnd: "bvand",
	bvOr: "bvor", bvXor: "bvxor", bvNot: "bvnot", bvNeg: "bvneg",
	bvShl: "bvshl", bvLShr: "bvlshr", bvAShr: "bvashr", bvRotR: "rotr",
	bvExtract: "extract", bvConcat: "concat", bvZExt: "zext", bvSExt: "sext",
	bvIte: "ite", bvEq: "=", bvUlt: "bvult", bvUle: "bvule", bvSlt: "bvslt",
	bvSle: "bvsle", bvClz: "clz", bvFromFP: "fp.to_bits",
	bvFPToInt: "fp.to_int", bvFPCompare: "fp.cmp", bvFPClass: "fp.class",
}

// BV is an immutable bit-vector expression of 1 to 64 bits. Width-1
// vectors double as booleans.
type BV struct {
	op     bvOp
	width  uint32
	value  uint64
	name   string
	args   []*BV
	fargs  []*FP
	hi, lo uint32
	aux    uint8
	rm     RoundingMode
}

func mask(width uint32) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

func signBit(width uint32) uint64 {
	return uint64(1) << (width - 1)
}

func checkWidth(width uint32) {
	if width == 0 || width > MaxWidth {
		panic(fmt.Sprintf("smt: unsupported bit-vector width %d", width))
	}
}

// BVConst returns a constant bit-vector. Bits above width are dropped.
func BVConst(value uint64, width uint32) *BV {
	checkWidth(width)
	return &BV{op: bvConst, width: width, value: value & mask(width)}
}

// BVSymbol returns an unconstrained bit-vector variable.
func BVSymbol(name string, width uint32) *BV {
	checkWidth(width)
	return &BV{op: bvSymbol, width: width, name: name}
}

// Bool returns a width-1 constant.
func Bool(b bool) *BV {
	if b {
		return BVConst(1, 1)
	}
	return BVConst(0, 1)
}

// True returns the width-1 constant 1.
func True() *BV { return Bool(true) }

// False returns the width-1 constant 0.
func False() *BV { return Bool(false) }

// Width returns the number of bits in the vector.
func (b *BV) Width() uint32 { return b.width }

// IsConst reports whether the expression is a constant.
func (b *BV) IsConst() bool { return b.op == bvConst }

// Value returns the constant value, if the expression is constant.
func (b *BV) Value() (uint64, bool) {
	if b.op != bvConst {
		return 0, false
	}
	return b.value, true
}

// SymbolName returns the variable name for symbol nodes.
func (b *BV) SymbolName() (string, bool) {
	if b.op != bvSymbol {
		return "", false
	}
	return b.name, true
}

func sameWidth(op string, a, b *BV) {
	if a.width != b.width {
		panic(fmt.Sprintf("smt: %s width mismatch %d != %d", op, a.width, b.width))
	}
}

func (b *BV) binary(op bvOp, o *BV, width uint32) *BV {
	sameWidth(bvOpNames[op], b, o)
	return fold(&BV{op: op, width: width, args: []*BV{b, o}})
}

// Add returns b + o modulo 2^width.
func (b *BV) Add(o *BV) *BV { return b.binary(bvAdd, o, b.width) }

// Sub returns b - o modulo 2^width.
func (b *BV) Sub(o *BV) *BV { return b.binary(bvSub, o, b.width) }

// Mul returns b * o modulo 2^width.
func (b *BV) Mul(o *BV) *BV { return b.binary(bvMul, o, b.width) }

// UDiv returns the unsigned quotient; division by zero yields all ones.
func (b *BV) UDiv(o *BV) *BV { return b.binary(bvUDiv, o, b.width) }

// SDiv returns the signed quotient truncated toward zero.
func (b *BV) SDiv(o *BV) *BV { return b.binary(bvSDiv, o, b.width) }

// URem returns the unsigned remainder; remainder by zero yields b.
func (b *BV) URem(o *BV) *BV { return b.binary(bvURem, o, b.width) }

// SRem returns the signed remainder with the sign of the dividend.
func (b *BV) SRem(o *BV) *BV { return b.binary(bvSRem, o, b.width) }

// And returns the bitwise AND.
func (b *BV) And(o *BV) *BV { return b.binary(bvAnd, o, b.width) }

// Or returns the bitwise OR.
func (b *BV) Or(o *BV) *BV { return b.binary(bvOr, o, b.width) }

// Xor returns the bitwise exclusive OR.
func (b *BV) Xor(o *BV) *BV { return b.binary(bvXor, o, b.width) }

// Shl shifts left; amounts >= width yield zero.
func (b *BV) Shl(o *BV) *BV { return b.binary(bvShl, o, b.width) }

// LShr shifts right filling with zeros.
func (b *BV) LShr(o *BV) *BV { return b.binary(bvLShr, o, b.width) }

// AShr shifts right filling with the sign bit.
func (b *BV) AShr(o *BV) *BV { return b.binary(bvAShr, o, b.width) }

// RotR rotates right by o modulo width.
func (b *BV) RotR(o *BV) *BV { return b.binary(bvRotR, o, b.width) }

// Eq returns the width-1 equality predicate.
func (b *BV) Eq(o *BV) *BV { return b.binary(bvEq, o, 1) }

// Ne returns the width-1 inequality predicate.
func (b *BV) Ne(o *BV) *BV { return b.Eq(o).Not() }

// Ult is unsigned less-than.
func (b *BV) Ult(o *BV) *BV { return b.binary(bvUlt, o, 1) }

// Ule is unsigned less-or-equal.
func (b *BV) Ule(o *BV) *BV { return b.binary(bvUle, o, 1) }

// Ugt is unsigned greater-than.
func (b *BV) Ugt(o *BV) *BV { return o.Ult(b) }

// Uge is unsigned greater-or-equal.
func (b *BV) Uge(o *BV) *BV { return o.Ule(b) }

// Slt is signed less-than.
func (b *BV) Slt(o *BV) *BV { return b.binary(bvSlt, o, 1) }

// Sle is signed less-or-equal.
func (b *BV) Sle(o *BV) *BV { return b.binary(bvSle, o, 1) }

// Sgt is signed greater-than.
func (b *BV) Sgt(o *BV) *BV { return o.Slt(b) }

// Sge is signed greater-or-equal.
func (b *BV) Sge(o *BV) *BV { return o.Sle(b) }

// Not returns the bitwise complement.
func (b *BV) Not() *BV { return fold(&BV{op: bvNot, width: b.width, args: []*BV{b}}) }

// Neg returns the two's complement negation.
func (b *BV) Neg() *BV { return fold(&BV{op: bvNeg, width: b.width, args: []*BV{b}}) }

// Clz counts leading zero bits.
func (b *BV) Clz() *BV { return fold(&BV{op: bvClz, width: b.width, args: []*BV{b}}) }

// Extract returns bits hi..lo inclusive.
func (b *BV) Extract(hi, lo uint32) *BV {
	if hi < lo || hi >= b.width {
		panic(fmt.Sprintf("smt: extract [%d:%d] out of range for width %d", hi, lo, b.width))
	}
	if lo == 0 && hi == b.width-1 {
		return b
	}
	switch b.op {
	case bvConcat:
		high, low := b.args[0], b.args[1]
		if hi < low.width {
			return low.Extract(hi, lo)
		}
		if lo >= low.width {
			return high.Extract(hi-low.width, lo-low.width)
		}
	case bvExtract:
		return b.args[0].Extract(hi+b.lo, lo+b.lo)
	case bvZExt:
		inner := b.args[0]
		if hi < inner.width {
			return inner.Extract(hi, lo)
		}
		if lo >= inner.width {
			return BVConst(0, hi-lo+1)
		}
	}
	return fold(&BV{op: bvExtract, width: hi - lo + 1, args: []*BV{b}, hi: hi, lo: lo})
}

// Concat places b above o.
func (b *BV) Concat(o *BV) *BV {
	checkWidth(b.width + o.width)
	return fold(&BV{op: bvConcat, width: b.width + o.width, args: []*BV{b, o}})
}

// ZeroExt widens or narrows to width, zero filling.
func (b *BV) ZeroExt(width uint32) *BV {
	checkWidth(width)
	switch {
	case width == b.width:
		return b
	case width < b.width:
		return b.Extract(width-1, 0)
	}
	return fold(&BV{op: bvZExt, width: width, args: []*BV{b}})
}

// SignExt widens or narrows to width, replicating the sign bit.
func (b *BV) SignExt(width uint32) *BV {
	checkWidth(width)
	switch {
	case width == b.width:
		return b
	case width < b.width:
		return b.Extract(width-1, 0)
	}
	return fold(&BV{op: bvSExt, width: width, args: []*BV{b}})
}

// Bit returns bit i as a width-1 vector.
func (b *BV) Bit(i uint32) *BV { return b.Extract(i, i) }

// Ite selects a when cond (width 1) is set, otherwise b.
func Ite(cond, a, b *BV) *BV {
	if cond.width != 1 {
		panic("smt: ite condition must have width 1")
	}
	sameWidth("ite", a, b)
	if v, ok := cond.Value(); ok {
		if v == 1 {
			return a
		}
		return b
	}
	if a == b {
		return a
	}
	return &BV{op: bvIte, width: a.width, args: []*BV{cond, a, b}}
}

// AndAll folds a list of width-1 predicates with AND.
func AndAll(preds ...*BV) *BV {
	out := True()
	for _, p := range preds {
		out = out.And(p)
	}
	return out
}

func fold(n *BV) *BV {
	for _, a := range n.args {
		if a.op != bvConst {
			return simplify(n)
		}
	}
	for _, a := range n.fargs {
		if a.op != fpConst {
			return n
		}
	}
	vals := make([]uint64, len(n.args))
	for i, a := range n.args {
		vals[i] = a.value
	}
	fvals := make([]uint64, len(n.fargs))
	for i, a := range n.fargs {
		fvals[i] = a.bits
	}
	return &BV{op: bvConst, width: n.width, value: n.compute(vals, fvals) & mask(n.width)}
}

// simplify applies identities that keep flag logic small when only one
// side of a boolean operator is known.
func simplify(n *BV) *BV {
	if len(n.args) != 2 {
		return n
	}
	a, b := n.args[0], n.args[1]
	av, aConst := a.Value()
	bv, bConst := b.Value()
	full := mask(n.width)
	switch n.op {
	case bvAnd:
		if (aConst && av == 0) || (bConst && bv == 0) {
			return BVConst(0, n.width)
		}
		if aConst && av == full {
			return b
		}
		if bConst && bv == full {
			return a
		}
	case bvOr:
		if (aConst && av == full) || (bConst && bv == full) {
			return BVConst(full, n.width)
		}
		if aConst && av == 0 {
			return b
		}
		if bConst && bv == 0 {
			return a
		}
	case bvXor, bvAdd, bvSub, bvShl, bvLShr, bvAShr, bvRotR:
		if bConst && bv == 0 {
			return a
		}
		if n.op == bvAdd && aConst && av == 0 {
			return b
		}
	case bvEq:
		if a == b {
			return True()
		}
	}
	return n
}

func (b *BV) compute(v []uint64, f []uint64) uint64 {
	w := b.width
	switch b.op {
	case bvSymbol:
		panic("smt: compute on symbol")
	case bvConst:
		return b.value
	case bvAdd:
		return v[0] + v[1]
	case bvSub:
		return v[0] - v[1]
	case bvMul:
		return v[0] * v[1]
	case bvUDiv:
		if v[1] == 0 {
			return mask(w)
		}
		return v[0] / v[1]
	case bvURem:
		if v[1] == 0 {
			return v[0]
		}
		return v[0] % v[1]
	case bvSDiv:
		x, y := toSigned(v[0], w), toSigned(v[1], w)
		if y == 0 {
			if x < 0 {
				return 1
			}
			return mask(w)
		}
		if y == -1 {
			return uint64(-x)
		}
		return uint64(x / y)
	case bvSRem:
		x, y := toSigned(v[0], w), toSigned(v[1], w)
		if y == 0 {
			return v[0]
		}
		if y == -1 {
			return 0
		}
		return uint64(x % y)
	case bvAnd:
		return v[0] & v[1]
	case bvOr:
		return v[0] | v[1]
	case bvXor:
		return v[0] ^ v[1]
	case bvNot:
		return ^v[0]
	case bvNeg:
		return -v[0]
	case bvShl:
		if v[1] >= uint64(w) {
			return 0
		}
		return v[0] << v[1]
	case bvLShr:
		if v[1] >= uint64(w) {
			return 0
		}
		return v[0] >> v[1]
	case bvAShr:
		x := toSigned(v[0], w)
		if v[1] >= uint64(w) {
			if x < 0 {
				return mask(w)
			}
			return 0
		}
		return uint64(x >> v[1])
	case bvRotR:
		r := v[1] % uint64(w)
		if r == 0 {
			return v[0]
		}
		return (v[0] >> r) | (v[0] << (uint64(w) - r))
	case bvExtract:
		return v[0] >> b.lo
	case bvConcat:
		return v[0]<<b.args[1].width | v[1]
	case bvZExt:
		return v[0]
	case bvSExt:
		return uint64(toSigned(v[0], b.args[0].width))
	case bvIte:
		if v[0] != 0 {
			return v[1]
		}
		return v[2]
	case bvEq:
		return boolBit(v[0] == v[1])
	case bvUlt:
		return boolBit(v[0] < v[1])
	case bvUle:
		return boolBit(v[0] <= v[1])
	case bvSlt:
		aw := b.args[0].width
		return boolBit(toSigned(v[0], aw) < toSigned(v[1], aw))
	case bvSle:
		aw := b.args[0].width
		return boolBit(toSigned(v[0], aw) <= toSigned(v[1], aw))
	case bvClz:
		return uint64(bits.LeadingZeros64(v[0]) - (64 - int(w)))
	case bvFromFP:
		return f[0]
	case bvFPToInt:
		return fpToInt(f[0], b.fargs[0].sort, w, b.aux == 1, b.rm)
	case bvFPCompare:
		return boolBit(fpCompare(f[0], f[1], b.fargs[0].sort, fpPredicate(b.aux)))
	case bvFPClass:
		return boolBit(fpClassify(f[0], b.fargs[0].sort, fpClass(b.aux)))
	}
	panic(fmt.Sprintf("smt: unknown bit-vector op %d", b.op))
}

func toSigned(v uint64, width uint32) int64 {
	if width >= 64 {
		return int64(v)
	}
	if v&signBit(width) != 0 {
		return int64(v | ^mask(width))
	}
	return int64(v & mask(width))
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// String renders the expression as an s-expression.
func (b *BV) String() string {
	switch b.op {
	case bvConst:
		return fmt.Sprintf("#x%0*x[%d]", (b.width+3)/4, b.value, b.width)
	case bvSymbol:
		return b.name
	case bvExtract:
		return fmt.Sprintf("(extract %d %d %s)", b.hi, b.lo, b.args[0])
	case bvZExt, bvSExt:
		return fmt.Sprintf("(%s %d %s)", bvOpNames[b.op], b.width, b.args[0])
	}
	s := "(" + bvOpNames[b.op]
	for _, a := range b.args {
		s += " " + a.String()
	}
	for _, a := range b.fargs {
		s += " " + a.String()
	}
	return s + ")"
}
