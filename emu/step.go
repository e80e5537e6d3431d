package emu

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/smt"
)

// step applies single operations of one instruction to one path.
type step struct {
	st *State
	// pc is the address of the executing instruction.
	pc uint32
	// pend is set when an operation needs a symbolic value made concrete.
	// Writes are suppressed once it is set.
	pend *pending
}

func (x *step) read(o ir.Operand) *smt.BV {
	switch o.Kind {
	case ir.KindRegister:
		if o.Reg == insts.PC {
			pc := x.pc + 4
			if o.Aligned {
				pc &^= 3
			}
			return smt.BVConst(uint64(pc), 32)
		}
		return x.st.Regs.ReadReg(o.Reg)
	case ir.KindFlag:
		return x.st.Regs.ReadFlag(o.Flag)
	case ir.KindLocal:
		return x.local(o.Name)
	case ir.KindAddressInLocal:
		return x.load(o.Name, o.Width)
	case ir.KindImmediate:
		return smt.BVConst(o.Value, o.Width)
	case ir.KindFPSCR:
		return x.st.Regs.FPSCR
	}
	panic(fmt.Sprintf("emu: read of %s", o))
}

func (x *step) write(o ir.Operand, v *smt.BV) {
	if x.pend != nil {
		return
	}
	switch o.Kind {
	case ir.KindRegister:
		x.st.Regs.WriteReg(o.Reg, resize(v, 32))
		if o.Reg == insts.PC {
			x.st.pcWritten = true
		}
	case ir.KindFlag:
		x.st.Regs.WriteFlag(o.Flag, v.Bit(0))
	case ir.KindLocal:
		x.st.locals[o.Name] = v
	case ir.KindAddressInLocal:
		x.store(o.Name, o.Width, v)
	case ir.KindFPSCR:
		x.st.Regs.FPSCR = resize(v, 32)
	default:
		panic(fmt.Sprintf("emu: write to %s", o))
	}
}

func (x *step) pair(a, b ir.Operand) (*smt.BV, *smt.BV) {
	return unify(x.read(a), x.read(b))
}

// apply runs every operation except Ite, ConditionalJump and Abort, which
// change control flow and are handled by the executor.
func (x *step) apply(op ir.Operation) {
	switch o := op.(type) {
	case ir.Nop:
	case ir.Move:
		x.write(o.Dst, x.read(o.Src))
	case ir.Add:
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, a.Add(b))
	case ir.Adc:
		a, b := x.pair(o.A, o.B)
		sum, _ := addWithCarry(a, b, x.read(o.Carry))
		x.write(o.Dst, sum)
	case ir.Sub:
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, a.Sub(b))
	case ir.Mul:
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, a.Mul(b))
	case ir.SDiv:
		x.write(o.Dst, divide(true, x.read(o.A), x.read(o.B)))
	case ir.UDiv:
		x.write(o.Dst, divide(false, x.read(o.A), x.read(o.B)))
	case ir.And:
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, a.And(b))
	case ir.Or:
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, a.Or(b))
	case ir.Xor:
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, a.Xor(b))
	case ir.Not:
		x.write(o.Dst, x.read(o.Src).Not())
	case ir.Shift:
		src := x.read(o.Src)
		amount := smt.BVConst(0, src.Width())
		if o.Kind != ir.RRX {
			amount = x.read(o.Amount)
		}
		x.write(o.Dst, shiftValue(o.Kind, src, amount, x.st.Regs.ReadFlag(ir.FlagC)))
	case ir.Compare:
		x.write(o.Dst, compare(o.Op, x.read(o.A), x.read(o.B)))
	case ir.CheckCondition:
		x.write(o.Dst, CheckCondition(x.st.Regs, o.Cond))
	case ir.Select:
		cond := x.read(o.Cond).Bit(0)
		a, b := x.pair(o.A, o.B)
		x.write(o.Dst, smt.Ite(cond, a, b))
	case ir.ConditionalExecution:
		if x.pend == nil {
			x.st.itConds = append([]insts.Cond(nil), o.Conds...)
		}
	case ir.SetNFlag:
		v := x.read(o.Src)
		x.write(ir.FlagOf(ir.FlagN), v.Bit(v.Width()-1))
	case ir.SetZFlag:
		v := x.read(o.Src)
		x.write(ir.FlagOf(ir.FlagZ), v.Eq(smt.BVConst(0, v.Width())))
	case ir.SetCFlag:
		c := carryFlag(o.Family, x.read(o.A), x.read(o.B), x.read(o.Carry))
		x.write(ir.FlagOf(ir.FlagC), c)
	case ir.SetVFlag:
		v := overflowFlag(o.Family, x.read(o.A), x.read(o.B), x.read(o.Carry))
		x.write(ir.FlagOf(ir.FlagV), v)
	case ir.SetCFlagShift:
		src := x.read(o.Src)
		amount := smt.BVConst(1, 32)
		if o.Kind != ir.RRX {
			amount = x.read(o.Amount)
		}
		c := shiftCarry(o.Kind, src, amount, x.st.Regs.ReadFlag(ir.FlagC))
		x.write(ir.FlagOf(ir.FlagC), c)
	case ir.CountLeadingZeroes:
		x.write(o.Dst, x.read(o.Src).Clz())
	case ir.BitFieldExtract:
		src := x.read(o.Src)
		field := src.Extract(o.Lsb+o.Width-1, o.Lsb)
		x.write(o.Dst, field.ZeroExt(src.Width()))
	case ir.SignExtend:
		x.write(o.Dst, x.read(o.Src).ZeroExt(o.Bits).SignExt(o.Width))
	case ir.ZeroExtend:
		x.write(o.Dst, x.read(o.Src).ZeroExt(o.Bits).ZeroExt(o.Width))
	case ir.Resize:
		x.write(o.Dst, resize(x.read(o.Src), o.Width))
	case ir.Concat:
		x.write(o.Dst, x.read(o.Hi).Concat(x.read(o.Lo)))
	default:
		if !x.applyFP(op) {
			panic(fmt.Sprintf("emu: unsupported operation %T", op))
		}
	}
}
