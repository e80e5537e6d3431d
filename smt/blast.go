package smt

// Bit-blasting of expressions into CNF. Literals follow the DIMACS
// convention: a positive int is a variable, a negative int its negation.
// Variable 1 is pinned true so constants fold through every gate.

const (
	litTrue  = 1
	litFalse = -1
)

func litOf(b bool) int {
	if b {
		return litTrue
	}
	return litFalse
}

// cnf is a Tseitin encoder with constant folding and structural hashing.
type cnf struct {
	clauses [][]int
	vars    int
	ands    map[[2]int]int
	xors    map[[2]int]int
}

func newCNF() *cnf {
	return &cnf{
		clauses: [][]int{{litTrue}},
		vars:    1,
		ands:    map[[2]int]int{},
		xors:    map[[2]int]int{},
	}
}

func (c *cnf) fresh() int {
	c.vars++
	return c.vars
}

func (c *cnf) clause(lits ...int) {
	c.clauses = append(c.clauses, lits)
}

func (c *cnf) and(a, b int) int {
	switch {
	case a == litFalse || b == litFalse || a == -b:
		return litFalse
	case a == litTrue || a == b:
		return b
	case b == litTrue:
		return a
	}
	if a > b {
		a, b = b, a
	}
	key := [2]int{a, b}
	if v, ok := c.ands[key]; ok {
		return v
	}
	v := c.fresh()
	c.clause(-v, a)
	c.clause(-v, b)
	c.clause(v, -a, -b)
	c.ands[key] = v
	return v
}

func (c *cnf) or(a, b int) int { return -c.and(-a, -b) }

func (c *cnf) xor(a, b int) int {
	switch {
	case a == litFalse:
		return b
	case a == litTrue:
		return -b
	case b == litFalse:
		return a
	case b == litTrue:
		return -a
	case a == b:
		return litFalse
	case a == -b:
		return litTrue
	}
	neg := false
	if a < 0 {
		a, neg = -a, !neg
	}
	if b < 0 {
		b, neg = -b, !neg
	}
	if a > b {
		a, b = b, a
	}
	key := [2]int{a, b}
	v, ok := c.xors[key]
	if !ok {
		v = c.fresh()
		c.clause(-v, a, b)
		c.clause(-v, -a, -b)
		c.clause(v, -a, b)
		c.clause(v, a, -b)
		c.xors[key] = v
	}
	if neg {
		return -v
	}
	return v
}

func (c *cnf) mux(s, t, e int) int {
	switch {
	case s == litTrue || t == e:
		return t
	case s == litFalse:
		return e
	}
	return c.or(c.and(s, t), c.and(-s, e))
}

func (c *cnf) allOf(ls []int) int {
	out := litTrue
	for _, l := range ls {
		out = c.and(out, l)
	}
	return out
}

func (c *cnf) anyOf(ls []int) int {
	out := litFalse
	for _, l := range ls {
		out = c.or(out, l)
	}
	return out
}

// Vectors are little-endian: index 0 is the least significant bit.

func constBits(v uint64, w uint32) []int {
	out := make([]int, w)
	for i := range out {
		out[i] = litOf(v>>uint(i)&1 == 1)
	}
	return out
}

func (c *cnf) freshBits(w uint32) []int {
	out := make([]int, w)
	for i := range out {
		out[i] = c.fresh()
	}
	return out
}

func invert(a []int) []int {
	out := make([]int, len(a))
	for i, l := range a {
		out[i] = -l
	}
	return out
}

func fill(l int, w int) []int {
	out := make([]int, w)
	for i := range out {
		out[i] = l
	}
	return out
}

func (c *cnf) muxBits(s int, t, e []int) []int {
	out := make([]int, len(t))
	for i := range out {
		out[i] = c.mux(s, t[i], e[i])
	}
	return out
}

func (c *cnf) bitwise(a, b []int, gate func(x, y int) int) []int {
	out := make([]int, len(a))
	for i := range out {
		out[i] = gate(a[i], b[i])
	}
	return out
}

// add returns a + b + cin and the carry out.
func (c *cnf) add(a, b []int, cin int) ([]int, int) {
	sum := make([]int, len(a))
	carry := cin
	for i := range a {
		t := c.xor(a[i], b[i])
		sum[i] = c.xor(t, carry)
		carry = c.or(c.and(a[i], b[i]), c.and(t, carry))
	}
	return sum, carry
}

// sub returns a - b and a literal that holds when a >= b unsigned.
func (c *cnf) sub(a, b []int) ([]int, int) {
	return c.add(a, invert(b), litTrue)
}

func (c *cnf) neg(a []int) []int {
	out, _ := c.add(invert(a), fill(litFalse, len(a)), litTrue)
	return out
}

func (c *cnf) mul(a, b []int) []int {
	w := len(a)
	acc := fill(litFalse, w)
	for i := 0; i < w; i++ {
		if b[i] == litFalse {
			continue
		}
		partial := make([]int, w)
		for j := range partial {
			if j < i {
				partial[j] = litFalse
			} else {
				partial[j] = c.and(a[j-i], b[i])
			}
		}
		acc, _ = c.add(acc, partial, litFalse)
	}
	return acc
}

// divmod is restoring division. A zero divisor gives an all-ones
// quotient and leaves the dividend as the remainder.
func (c *cnf) divmod(a, d []int) ([]int, []int) {
	w := len(a)
	r := fill(litFalse, w+1)
	divisor := append(append([]int{}, d...), litFalse)
	q := make([]int, w)
	for i := w - 1; i >= 0; i-- {
		shifted := append([]int{a[i]}, r[:w]...)
		diff, ge := c.sub(shifted, divisor)
		q[i] = ge
		r = c.muxBits(ge, diff, shifted)
	}
	return q, r[:w]
}

func (c *cnf) sdivmod(a, b []int) ([]int, []int) {
	w := len(a)
	sa, sb := a[w-1], b[w-1]
	absA := c.muxBits(sa, c.neg(a), a)
	absB := c.muxBits(sb, c.neg(b), b)
	q, r := c.divmod(absA, absB)
	return c.muxBits(c.xor(sa, sb), c.neg(q), q), c.muxBits(sa, c.neg(r), r)
}

func (c *cnf) eq(a, b []int) int {
	out := litTrue
	for i := range a {
		out = c.and(out, -c.xor(a[i], b[i]))
	}
	return out
}

func (c *cnf) ult(a, b []int) int {
	_, ge := c.sub(a, b)
	return -ge
}

func (c *cnf) slt(a, b []int) int {
	w := len(a)
	fa := append(append([]int{}, a[:w-1]...), -a[w-1])
	fb := append(append([]int{}, b[:w-1]...), -b[w-1])
	return c.ult(fa, fb)
}

type shiftKind uint8

const (
	shiftLeft shiftKind = iota
	shiftLogical
	shiftArith
)

// shift is a barrel shifter. Amounts of width or more saturate.
func (c *cnf) shift(a, amt []int, kind shiftKind) []int {
	w := len(a)
	out := a
	for k := 0; k < len(amt) && 1<<uint(k) < w; k++ {
		s := 1 << uint(k)
		moved := make([]int, w)
		for i := range moved {
			switch kind {
			case shiftLeft:
				if i-s >= 0 {
					moved[i] = out[i-s]
				} else {
					moved[i] = litFalse
				}
			case shiftLogical:
				if i+s < w {
					moved[i] = out[i+s]
				} else {
					moved[i] = litFalse
				}
			default:
				if i+s < w {
					moved[i] = out[i+s]
				} else {
					moved[i] = out[w-1]
				}
			}
		}
		out = c.muxBits(amt[k], moved, out)
	}
	over := -c.ult(amt, constBits(uint64(w), uint32(len(amt))))
	saturated := litFalse
	if kind == shiftArith {
		saturated = a[w-1]
	}
	return c.muxBits(over, fill(saturated, w), out)
}

func (c *cnf) rotr(a, amt []int) []int {
	w := len(a)
	if w&(w-1) != 0 {
		_, amt = c.divmod(amt, constBits(uint64(w), uint32(len(amt))))
	}
	out := a
	for k := 0; k < len(amt) && 1<<uint(k) < w; k++ {
		s := 1 << uint(k)
		moved := make([]int, w)
		for i := range moved {
			moved[i] = out[(i+s)%w]
		}
		out = c.muxBits(amt[k], moved, out)
	}
	return out
}

func (c *cnf) clz(a []int) []int {
	w := uint32(len(a))
	out := constBits(uint64(w), w)
	for i := uint32(0); i < w; i++ {
		out = c.muxBits(a[i], constBits(uint64(w-1-i), w), out)
	}
	return out
}

// abstraction is a float operation left uninterpreted in the circuit. Its
// output bits are tied to the real result lazily, one input point at a
// time.
type abstraction struct {
	bv  *BV
	fp  *FP
	in  [][]int
	out []int
}

type blaster struct {
	*cnf
	symbols  map[string][]int
	memo     map[*BV][]int
	fmemo    map[*FP][]int
	abstract []*abstraction
}

func newBlaster() *blaster {
	return &blaster{
		cnf:     newCNF(),
		symbols: map[string][]int{},
		memo:    map[*BV][]int{},
		fmemo:   map[*FP][]int{},
	}
}

func (b *blaster) symbol(name string, w uint32) []int {
	if bits, ok := b.symbols[name]; ok {
		return bits
	}
	bits := b.freshBits(w)
	b.symbols[name] = bits
	return bits
}

func (b *blaster) bits(e *BV) []int {
	switch e.op {
	case bvConst:
		return constBits(e.value, e.width)
	case bvSymbol:
		return b.symbol(e.name, e.width)
	}
	if out, ok := b.memo[e]; ok {
		return out
	}
	out := b.gate(e)
	b.memo[e] = out
	return out
}

func (b *blaster) gate(e *BV) []int {
	if e.op == bvFPToInt {
		return b.abstractBV(e)
	}
	args := make([][]int, len(e.args))
	for i, a := range e.args {
		args[i] = b.bits(a)
	}
	switch e.op {
	case bvAdd:
		out, _ := b.add(args[0], args[1], litFalse)
		return out
	case bvSub:
		out, _ := b.sub(args[0], args[1])
		return out
	case bvMul:
		return b.mul(args[0], args[1])
	case bvUDiv:
		q, _ := b.divmod(args[0], args[1])
		return q
	case bvURem:
		_, r := b.divmod(args[0], args[1])
		return r
	case bvSDiv:
		q, _ := b.sdivmod(args[0], args[1])
		return q
	case bvSRem:
		_, r := b.sdivmod(args[0], args[1])
		return r
	case bvAnd:
		return b.bitwise(args[0], args[1], b.and)
	case bvOr:
		return b.bitwise(args[0], args[1], b.or)
	case bvXor:
		return b.bitwise(args[0], args[1], b.xor)
	case bvNot:
		return invert(args[0])
	case bvNeg:
		return b.neg(args[0])
	case bvShl:
		return b.shift(args[0], args[1], shiftLeft)
	case bvLShr:
		return b.shift(args[0], args[1], shiftLogical)
	case bvAShr:
		return b.shift(args[0], args[1], shiftArith)
	case bvRotR:
		return b.rotr(args[0], args[1])
	case bvExtract:
		return args[0][e.lo : e.hi+1]
	case bvConcat:
		return append(append([]int{}, args[1]...), args[0]...)
	case bvZExt:
		return append(append([]int{}, args[0]...), fill(litFalse, int(e.width)-len(args[0]))...)
	case bvSExt:
		a := args[0]
		return append(append([]int{}, a...), fill(a[len(a)-1], int(e.width)-len(a))...)
	case bvIte:
		return b.muxBits(args[0][0], args[1], args[2])
	case bvEq:
		return []int{b.eq(args[0], args[1])}
	case bvUlt:
		return []int{b.ult(args[0], args[1])}
	case bvUle:
		return []int{-b.ult(args[1], args[0])}
	case bvSlt:
		return []int{b.slt(args[0], args[1])}
	case bvSle:
		return []int{-b.slt(args[1], args[0])}
	case bvClz:
		return b.clz(args[0])
	case bvFromFP:
		return b.fpBits(e.fargs[0])
	case bvFPCompare:
		return []int{b.fpCompare(e.fargs[0], e.fargs[1], fpPredicate(e.aux))}
	case bvFPClass:
		return []int{b.fpClass(e.fargs[0], fpClass(e.aux))}
	}
	panic("smt: cannot bit-blast " + bvOpNames[e.op])
}

func (b *blaster) fpBits(f *FP) []int {
	if f.op == fpConst {
		return constBits(f.bits, f.sort.Width())
	}
	if out, ok := b.fmemo[f]; ok {
		return out
	}
	var out []int
	switch f.op {
	case fpFromBits:
		out = b.bits(f.bvargs[0])
	case fpAbs, fpNeg:
		in := b.fpBits(f.args[0])
		out = append([]int{}, in...)
		top := len(out) - 1
		if f.op == fpAbs {
			out[top] = litFalse
		} else {
			out[top] = -in[top]
		}
	case fpIte:
		out = b.muxBits(b.bits(f.bvargs[0])[0], b.fpBits(f.args[0]), b.fpBits(f.args[1]))
	default:
		out = b.abstractFP(f)
	}
	b.fmemo[f] = out
	return out
}

func (b *blaster) abstractFP(f *FP) []int {
	a := &abstraction{fp: f, out: b.freshBits(f.sort.Width())}
	for _, x := range f.args {
		a.in = append(a.in, b.fpBits(x))
	}
	for _, x := range f.bvargs {
		a.in = append(a.in, b.bits(x))
	}
	b.abstract = append(b.abstract, a)
	return a.out
}

func (b *blaster) abstractBV(e *BV) []int {
	a := &abstraction{bv: e, out: b.freshBits(e.width)}
	for _, x := range e.fargs {
		a.in = append(a.in, b.fpBits(x))
	}
	b.abstract = append(b.abstract, a)
	return a.out
}

// fpFields splits a float into sign, all-ones exponent, zero exponent and
// non-zero fraction literals.
func (b *blaster) fpFields(f *FP) (sign, expOnes, expZero, frac int) {
	bits := b.fpBits(f)
	fb := f.sort.fracBits()
	exp := bits[fb : len(bits)-1]
	return bits[len(bits)-1], b.allOf(exp), -b.anyOf(exp), b.anyOf(bits[:fb])
}

func (b *blaster) fpClass(f *FP, class fpClass) int {
	sign, expOnes, expZero, frac := b.fpFields(f)
	nan := b.and(expOnes, frac)
	switch class {
	case classNaN:
		return nan
	case classZero:
		return b.and(expZero, -frac)
	case classInf:
		return b.and(expOnes, -frac)
	case classNegative:
		return b.and(sign, -nan)
	}
	return litFalse
}

func (b *blaster) fpCompare(x, y *FP, p fpPredicate) int {
	unordered := b.or(b.fpClass(x, classNaN), b.fpClass(y, classNaN))
	if p == predUnordered {
		return unordered
	}
	xb, yb := b.fpBits(x), b.fpBits(y)
	top := len(xb) - 1
	bothZero := b.and(b.fpClass(x, classZero), b.fpClass(y, classZero))
	equal := b.or(b.eq(xb, yb), bothZero)
	less := func(l, r []int) int {
		sl, sr := l[top], r[top]
		ml, mr := l[:top], r[:top]
		bySign := b.mux(b.xor(sl, sr), sl, b.mux(sl, b.ult(mr, ml), b.ult(ml, mr)))
		return b.and(-bothZero, bySign)
	}
	var out int
	switch p {
	case predEq:
		out = equal
	case predLt:
		out = less(xb, yb)
	case predLe:
		out = b.or(less(xb, yb), equal)
	case predGt:
		out = less(yb, xb)
	case predGe:
		out = b.or(less(yb, xb), equal)
	}
	return b.and(-unordered, out)
}

// valueOf reads a vector out of a SAT model. Variables the solver never
// saw read as false.
func valueOf(model []bool, bits []int) uint64 {
	var v uint64
	for i, l := range bits {
		if litValue(model, l) {
			v |= 1 << uint(i)
		}
	}
	return v
}

func litValue(model []bool, l int) bool {
	v := l
	if v < 0 {
		v = -v
	}
	set := v-1 < len(model) && model[v-1]
	if v == litTrue {
		set = true
	}
	return set == (l > 0)
}

// refine ties every abstraction whose model output disagrees with the
// real operation to the real result at that input point. It reports
// whether any lemma was added.
func (b *blaster) refine(model []bool) bool {
	added := false
	for _, a := range b.abstract {
		ins := make([]uint64, len(a.in))
		for i, bits := range a.in {
			ins[i] = valueOf(model, bits)
		}
		var want uint64
		if a.fp != nil {
			nf := len(a.fp.args)
			want = a.fp.compute(ins[:nf], ins[nf:]) & mask(a.fp.sort.Width())
		} else {
			want = a.bv.compute(nil, ins) & mask(a.bv.width)
		}
		if valueOf(model, a.out) == want {
			continue
		}
		at := litTrue
		for i, bits := range a.in {
			at = b.and(at, b.eq(bits, constBits(ins[i], uint32(len(bits)))))
		}
		for i, l := range a.out {
			if want>>uint(i)&1 == 1 {
				b.clause(-at, l)
			} else {
				b.clause(-at, -l)
			}
		}
		added = true
	}
	return added
}
