package emu

import (
	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/smt"
)

// unify zero extends the narrower of a and b to the wider width.
func unify(a, b *smt.BV) (*smt.BV, *smt.BV) {
	switch {
	case a.Width() < b.Width():
		return a.ZeroExt(b.Width()), b
	case b.Width() < a.Width():
		return a, b.ZeroExt(a.Width())
	}
	return a, b
}

// resize truncates or zero extends v to width.
func resize(v *smt.BV, width uint32) *smt.BV {
	return v.ZeroExt(width)
}

// addWithCarry returns a + b + carry and the carry out of the top bit.
func addWithCarry(a, b, carry *smt.BV) (*smt.BV, *smt.BV) {
	w := a.Width()
	c := carry.Bit(0)
	sum := a.ZeroExt(w + 1).Add(b.ZeroExt(w + 1)).Add(c.ZeroExt(w + 1))
	return sum.Extract(w-1, 0), sum.Bit(w)
}

// addOverflow is the signed overflow of result = a + b (+ carry).
func addOverflow(a, b, result *smt.BV) *smt.BV {
	w := a.Width()
	return a.Xor(result).And(b.Xor(result)).Bit(w - 1)
}

// carryFlag derives C for a flag family. Subtraction carry is NOT borrow.
func carryFlag(family ir.FlagFamily, a, b, carry *smt.BV) *smt.BV {
	a, b = unify(a, b)
	zero := smt.False()

	switch family {
	case ir.FamilyAdc:
		_, c := addWithCarry(a, b, carry)
		return c
	case ir.FamilySub:
		return a.Uge(b)
	case ir.FamilySbc:
		_, c := addWithCarry(a, b.Not(), carry)
		return c
	case ir.FamilyRsb:
		return b.Uge(a)
	}
	_, c := addWithCarry(a, b, zero)
	return c
}

// overflowFlag derives V for a flag family.
func overflowFlag(family ir.FlagFamily, a, b, carry *smt.BV) *smt.BV {
	a, b = unify(a, b)

	switch family {
	case ir.FamilyAdc:
		r, _ := addWithCarry(a, b, carry)
		return addOverflow(a, b, r)
	case ir.FamilySub:
		r, _ := addWithCarry(a, b.Not(), smt.True())
		return addOverflow(a, b.Not(), r)
	case ir.FamilySbc:
		r, _ := addWithCarry(a, b.Not(), carry)
		return addOverflow(a, b.Not(), r)
	case ir.FamilyRsb:
		r, _ := addWithCarry(b, a.Not(), smt.True())
		return addOverflow(b, a.Not(), r)
	}
	r, _ := addWithCarry(a, b, smt.False())
	return addOverflow(a, b, r)
}

// shiftValue applies a barrel shift. carry feeds RRX.
func shiftValue(kind ir.ShiftKind, src, amount, carry *smt.BV) *smt.BV {
	w := src.Width()
	amt := resize(amount, w)

	switch kind {
	case ir.LSR:
		return src.LShr(amt)
	case ir.ASR:
		return src.AShr(amt)
	case ir.ROR:
		return src.RotR(amt)
	case ir.RRX:
		if w == 1 {
			return carry.Bit(0)
		}
		return carry.Bit(0).Concat(src.Extract(w-1, 1))
	}
	return src.Shl(amt)
}

// shiftCarry returns the last bit shifted out, or oldC for a zero amount.
func shiftCarry(kind ir.ShiftKind, src, amount, oldC *smt.BV) *smt.BV {
	w := src.Width()
	wide := src.ZeroExt(64)
	amt := amount.ZeroExt(64)

	var out *smt.BV
	switch kind {
	case ir.LSL:
		out = wide.Shl(amt).Bit(w)
	case ir.LSR:
		out = wide.Shl(smt.BVConst(1, 64)).LShr(amt).Bit(0)
	case ir.ASR:
		out = src.SignExt(64).Shl(smt.BVConst(1, 64)).AShr(amt).Bit(0)
	case ir.ROR:
		out = src.RotR(resize(amount, w)).Bit(w - 1)
	case ir.RRX:
		return src.Bit(0)
	}
	isZero := amt.Eq(smt.BVConst(0, 64))
	return smt.Ite(isZero, oldC.Bit(0), out)
}

// compare evaluates an integer comparison as a 1-bit vector.
func compare(op ir.CompareOp, a, b *smt.BV) *smt.BV {
	a, b = unify(a, b)
	switch op {
	case ir.Ne:
		return a.Ne(b)
	case ir.ULt:
		return a.Ult(b)
	case ir.ULe:
		return a.Ule(b)
	case ir.UGt:
		return a.Ugt(b)
	case ir.UGe:
		return a.Uge(b)
	case ir.SLt:
		return a.Slt(b)
	case ir.SLe:
		return a.Sle(b)
	case ir.SGt:
		return a.Sgt(b)
	case ir.SGe:
		return a.Sge(b)
	}
	return a.Eq(b)
}

// divide implements SDiv and UDiv with a zero quotient for a zero divisor.
func divide(signed bool, a, b *smt.BV) *smt.BV {
	a, b = unify(a, b)
	zero := smt.BVConst(0, a.Width())
	q := a.UDiv(b)
	if signed {
		q = a.SDiv(b)
	}
	return smt.Ite(b.Eq(zero), zero, q)
}
