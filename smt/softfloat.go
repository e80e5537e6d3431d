package smt

import (
	"math/big"
)

// Software IEEE-754 arithmetic on bit patterns. Operations compute the
// exact (or sticky-truncated) result with math/big and round once into
// the target format, so all five rounding modes and subnormals are exact.

const workPrec = 4096

type fpKind uint8

const (
	kindZero fpKind = iota
	kindFinite
	kindInf
	kindNaN
)

type unpacked struct {
	kind fpKind
	neg  bool
	mag  *big.Float // magnitude of a finite value
}

func (s FPSort) bias() int { return (1 << (s.Exp - 1)) - 1 }

func (s FPSort) expMask() uint64 { return mask(s.Exp) }

func (s FPSort) fracBits() uint32 { return s.Sig - 1 }

func defaultNaN(s FPSort) uint64 {
	return s.expMask()<<s.fracBits() | uint64(1)<<(s.fracBits()-1)
}

func infBits(s FPSort, neg bool) uint64 {
	v := s.expMask() << s.fracBits()
	if neg {
		v |= signBit(s.Width())
	}
	return v
}

func zeroBits(s FPSort, neg bool) uint64 {
	if neg {
		return signBit(s.Width())
	}
	return 0
}

func maxFiniteBits(s FPSort, neg bool) uint64 {
	v := (s.expMask()-1)<<s.fracBits() | mask(s.fracBits())
	if neg {
		v |= signBit(s.Width())
	}
	return v
}

func unpack(bits uint64, s FPSort) unpacked {
	neg := bits&signBit(s.Width()) != 0
	exp := (bits >> s.fracBits()) & s.expMask()
	frac := bits & mask(s.fracBits())
	switch {
	case exp == s.expMask() && frac != 0:
		return unpacked{kind: kindNaN, neg: neg}
	case exp == s.expMask():
		return unpacked{kind: kindInf, neg: neg}
	case exp == 0 && frac == 0:
		return unpacked{kind: kindZero, neg: neg}
	}
	sig := frac
	e := int(exp)
	if exp == 0 {
		e = 1
	} else {
		sig |= uint64(1) << s.fracBits()
	}
	m := new(big.Float).SetPrec(64).SetUint64(sig)
	m.SetMantExp(m, e-s.bias()-int(s.fracBits()))
	return unpacked{kind: kindFinite, neg: neg, mag: m}
}

var half = big.NewFloat(0.5)

// roundInteger rounds a non-negative magnitude to an integer. sticky marks
// x as a truncation of a slightly larger true value.
func roundInteger(x *big.Float, sticky, neg bool, rm RoundingMode) *big.Int {
	ip, _ := x.Int(nil)
	ipf := new(big.Float).SetPrec(uint(ip.BitLen()) + 1).SetInt(ip)
	frac := new(big.Float).SetPrec(x.Prec()+64).Sub(x, ipf)
	cmp := frac.Cmp(half)
	if cmp == 0 && sticky {
		cmp = 1
	}
	inexact := frac.Sign() != 0 || sticky
	up := false
	switch rm {
	case RoundNearestEven:
		up = cmp > 0 || (cmp == 0 && ip.Bit(0) == 1)
	case RoundNearestAway:
		up = cmp >= 0
	case RoundTowardPositive:
		up = inexact && !neg
	case RoundTowardNegative:
		up = inexact && neg
	case RoundTowardZero:
	}
	if up {
		ip.Add(ip, big.NewInt(1))
	}
	return ip
}

func overflowBits(s FPSort, neg bool, rm RoundingMode) uint64 {
	switch {
	case rm == RoundTowardZero,
		rm == RoundTowardPositive && neg,
		rm == RoundTowardNegative && !neg:
		return maxFiniteBits(s, neg)
	}
	return infBits(s, neg)
}

// roundPack rounds a positive magnitude into the format.
func roundPack(neg bool, x *big.Float, sticky bool, s FPSort, rm RoundingMode) uint64 {
	if x.Sign() == 0 {
		return zeroBits(s, neg)
	}
	p := int(s.Sig)
	emin := 1 - s.bias()
	e := x.MantExp(nil)
	lsb := e - p
	if lsb < emin-p+1 {
		lsb = emin - p + 1
	}
	m := new(big.Float).SetPrec(x.Prec()).SetMantExp(x, -lsb)
	q := roundInteger(m, sticky, neg, rm)
	if q.BitLen() > p {
		q.Rsh(q, 1)
		lsb++
	}
	if q.Sign() == 0 {
		return zeroBits(s, neg)
	}
	var biased int
	frac := new(big.Int).Set(q)
	if q.BitLen() == p {
		biased = lsb + p - 1 + s.bias()
		frac.SetBit(frac, p-1, 0)
	}
	if biased >= int(s.expMask()) {
		return overflowBits(s, neg, rm)
	}
	v := uint64(biased)<<s.fracBits() | frac.Uint64()
	if neg {
		v |= signBit(s.Width())
	}
	return v
}

func exactZeroSign(rm RoundingMode) bool { return rm == RoundTowardNegative }

func signed(u unpacked) *big.Float {
	f := new(big.Float).SetPrec(workPrec).Set(u.mag)
	if u.neg {
		f.Neg(f)
	}
	return f
}

func packSigned(x *big.Float, sticky bool, s FPSort, rm RoundingMode) uint64 {
	neg := x.Sign() < 0
	return roundPack(neg, new(big.Float).SetPrec(x.Prec()).Abs(x), sticky, s, rm)
}

func fpAddBits(a, b uint64, s FPSort, rm RoundingMode) uint64 {
	x, y := unpack(a, s), unpack(b, s)
	switch {
	case x.kind == kindNaN || y.kind == kindNaN:
		return defaultNaN(s)
	case x.kind == kindInf && y.kind == kindInf:
		if x.neg != y.neg {
			return defaultNaN(s)
		}
		return infBits(s, x.neg)
	case x.kind == kindInf:
		return infBits(s, x.neg)
	case y.kind == kindInf:
		return infBits(s, y.neg)
	case x.kind == kindZero && y.kind == kindZero:
		if x.neg == y.neg {
			return zeroBits(s, x.neg)
		}
		return zeroBits(s, exactZeroSign(rm))
	case x.kind == kindZero:
		return b
	case y.kind == kindZero:
		return a
	}
	sum := new(big.Float).SetPrec(workPrec).Add(signed(x), signed(y))
	if sum.Sign() == 0 {
		return zeroBits(s, exactZeroSign(rm))
	}
	return packSigned(sum, false, s, rm)
}

func fpMulBits(a, b uint64, s FPSort, rm RoundingMode) uint64 {
	x, y := unpack(a, s), unpack(b, s)
	neg := x.neg != y.neg
	switch {
	case x.kind == kindNaN || y.kind == kindNaN:
		return defaultNaN(s)
	case (x.kind == kindInf && y.kind == kindZero) || (x.kind == kindZero && y.kind == kindInf):
		return defaultNaN(s)
	case x.kind == kindInf || y.kind == kindInf:
		return infBits(s, neg)
	case x.kind == kindZero || y.kind == kindZero:
		return zeroBits(s, neg)
	}
	prod := new(big.Float).SetPrec(workPrec).Mul(x.mag, y.mag)
	return roundPack(neg, prod, false, s, rm)
}

func fpDivBits(a, b uint64, s FPSort, rm RoundingMode) uint64 {
	x, y := unpack(a, s), unpack(b, s)
	neg := x.neg != y.neg
	switch {
	case x.kind == kindNaN || y.kind == kindNaN:
		return defaultNaN(s)
	case x.kind == kindInf && y.kind == kindInf, x.kind == kindZero && y.kind == kindZero:
		return defaultNaN(s)
	case x.kind == kindInf || y.kind == kindZero:
		return infBits(s, neg)
	case x.kind == kindZero || y.kind == kindInf:
		return zeroBits(s, neg)
	}
	q := new(big.Float).SetPrec(workPrec).SetMode(big.ToZero)
	q.Quo(x.mag, y.mag)
	return roundPack(neg, q, q.Acc() != big.Exact, s, rm)
}

func fpSqrtBits(a uint64, s FPSort, rm RoundingMode) uint64 {
	x := unpack(a, s)
	switch {
	case x.kind == kindNaN:
		return defaultNaN(s)
	case x.kind == kindZero:
		return a
	case x.neg:
		return defaultNaN(s)
	case x.kind == kindInf:
		return a
	}
	r := new(big.Float).SetPrec(workPrec).SetMode(big.ToZero)
	r.Sqrt(x.mag)
	sq := new(big.Float).SetPrec(2*workPrec).Mul(r, r)
	return roundPack(false, r, sq.Cmp(x.mag) != 0, s, rm)
}

func fpFMABits(a, b, c uint64, s FPSort, rm RoundingMode) uint64 {
	x, y, z := unpack(a, s), unpack(b, s), unpack(c, s)
	pneg := x.neg != y.neg
	switch {
	case x.kind == kindNaN || y.kind == kindNaN || z.kind == kindNaN:
		return defaultNaN(s)
	case (x.kind == kindInf && y.kind == kindZero) || (x.kind == kindZero && y.kind == kindInf):
		return defaultNaN(s)
	case x.kind == kindInf || y.kind == kindInf:
		if z.kind == kindInf && z.neg != pneg {
			return defaultNaN(s)
		}
		return infBits(s, pneg)
	case z.kind == kindInf:
		return c
	case x.kind == kindZero || y.kind == kindZero:
		if z.kind == kindZero {
			if z.neg == pneg {
				return zeroBits(s, pneg)
			}
			return zeroBits(s, exactZeroSign(rm))
		}
		return c
	}
	prod := new(big.Float).SetPrec(workPrec).Mul(x.mag, y.mag)
	if pneg {
		prod.Neg(prod)
	}
	if z.kind == kindZero {
		return packSigned(prod, false, s, rm)
	}
	sum := new(big.Float).SetPrec(workPrec).Add(prod, signed(z))
	if sum.Sign() == 0 {
		return zeroBits(s, exactZeroSign(rm))
	}
	return packSigned(sum, false, s, rm)
}

func fpConvertBits(a uint64, from, to FPSort, rm RoundingMode) uint64 {
	x := unpack(a, from)
	switch x.kind {
	case kindNaN:
		return defaultNaN(to)
	case kindInf:
		return infBits(to, x.neg)
	case kindZero:
		return zeroBits(to, x.neg)
	}
	return roundPack(x.neg, x.mag, false, to, rm)
}

func fpFromIntBits(v uint64, width uint32, isSigned bool, s FPSort, rm RoundingMode) uint64 {
	neg := false
	mag := v & mask(width)
	if isSigned && mag&signBit(width) != 0 {
		neg = true
		mag = (-mag) & mask(width)
	}
	if mag == 0 {
		return zeroBits(s, false)
	}
	x := new(big.Float).SetPrec(64).SetUint64(mag)
	return roundPack(neg, x, false, s, rm)
}

func fpRoundIntegralBits(a uint64, s FPSort, rm RoundingMode) uint64 {
	x := unpack(a, s)
	switch x.kind {
	case kindNaN:
		return defaultNaN(s)
	case kindInf, kindZero:
		return a
	}
	q := roundInteger(x.mag, false, x.neg, rm)
	if q.Sign() == 0 {
		return zeroBits(s, x.neg)
	}
	f := new(big.Float).SetPrec(uint(q.BitLen()) + 1).SetInt(q)
	return roundPack(x.neg, f, false, s, RoundNearestEven)
}

func fpToInt(a uint64, s FPSort, width uint32, isSigned bool, rm RoundingMode) uint64 {
	x := unpack(a, s)
	lo, hi := new(big.Int), new(big.Int).SetUint64(mask(width))
	if isSigned {
		lo.SetInt64(toSigned(signBit(width), width))
		hi.SetUint64(signBit(width) - 1)
	}
	var q *big.Int
	switch x.kind {
	case kindNaN, kindZero:
		return 0
	case kindInf:
		if x.neg {
			q = lo
		} else {
			q = hi
		}
	default:
		q = roundInteger(x.mag, false, x.neg, rm)
		if x.neg {
			q.Neg(q)
		}
	}
	if q.Cmp(lo) < 0 {
		q = lo
	}
	if q.Cmp(hi) > 0 {
		q = hi
	}
	if q.Sign() < 0 {
		return uint64(q.Int64()) & mask(width)
	}
	return q.Uint64() & mask(width)
}

func fpCompare(a, b uint64, s FPSort, p fpPredicate) bool {
	x, y := unpack(a, s), unpack(b, s)
	if x.kind == kindNaN || y.kind == kindNaN {
		return p == predUnordered
	}
	if p == predUnordered {
		return false
	}
	c := compareUnpacked(x, y)
	switch p {
	case predEq:
		return c == 0
	case predLt:
		return c < 0
	case predLe:
		return c <= 0
	case predGt:
		return c > 0
	case predGe:
		return c >= 0
	}
	return false
}

func compareUnpacked(x, y unpacked) int {
	value := func(u unpacked) *big.Float {
		switch u.kind {
		case kindZero:
			return new(big.Float)
		case kindInf:
			f := new(big.Float).SetInf(u.neg)
			return f
		}
		return signed(u)
	}
	return value(x).Cmp(value(y))
}

func fpClassify(a uint64, s FPSort, c fpClass) bool {
	x := unpack(a, s)
	switch c {
	case classNaN:
		return x.kind == kindNaN
	case classZero:
		return x.kind == kindZero
	case classInf:
		return x.kind == kindInf
	case classNegative:
		return x.kind != kindNaN && x.neg
	}
	return false
}
