package emu

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/smt"
)

// CheckCondition evaluates a condition code against the APSR flags. The
// result is a 1-bit vector, symbolic when the flags are.
func CheckCondition(r *RegFile, cond insts.Cond) *smt.BV {
	n := r.ReadFlag(ir.FlagN)
	z := r.ReadFlag(ir.FlagZ)
	c := r.ReadFlag(ir.FlagC)
	v := r.ReadFlag(ir.FlagV)

	switch cond {
	case insts.CondEQ:
		// Equal: Z == 1
		return z
	case insts.CondNE:
		// Not Equal: Z == 0
		return z.Not()
	case insts.CondCS:
		// Carry Set / Unsigned higher or same: C == 1
		return c
	case insts.CondCC:
		// Carry Clear / Unsigned lower: C == 0
		return c.Not()
	case insts.CondMI:
		// Minus / Negative: N == 1
		return n
	case insts.CondPL:
		// Plus / Positive or zero: N == 0
		return n.Not()
	case insts.CondVS:
		// Overflow: V == 1
		return v
	case insts.CondVC:
		// No overflow: V == 0
		return v.Not()
	case insts.CondHI:
		// Unsigned higher: C == 1 && Z == 0
		return c.And(z.Not())
	case insts.CondLS:
		// Unsigned lower or same: C == 0 || Z == 1
		return c.Not().Or(z)
	case insts.CondGE:
		// Signed greater than or equal: N == V
		return n.Eq(v)
	case insts.CondLT:
		// Signed less than: N != V
		return n.Ne(v)
	case insts.CondGT:
		// Signed greater than: Z == 0 && N == V
		return z.Not().And(n.Eq(v))
	case insts.CondLE:
		// Signed less than or equal: Z == 1 || N != V
		return z.Or(n.Ne(v))
	default:
		// Always (unconditional)
		return smt.True()
	}
}
