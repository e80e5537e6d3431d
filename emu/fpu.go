package emu

import (
	"fmt"

	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/smt"
)

// fpscrRoundings maps FPSCR.RMode to a rounding direction.
var fpscrRoundings = [4]smt.RoundingMode{
	smt.RoundNearestEven,
	smt.RoundTowardPositive,
	smt.RoundTowardNegative,
	smt.RoundTowardZero,
}

func sortOf(t ir.FPType) smt.FPSort {
	switch t.Size {
	case 16:
		return smt.Float16
	case 32:
		return smt.Float32
	case 64:
		return smt.Float64
	}
	panic(fmt.Sprintf("emu: no floating-point format of %d bits", t.Size))
}

// rounding resolves an operation's rounding mode. FPSCR-relative modes
// need RMode concrete; a symbolic RMode is recorded as pending.
func (x *step) rounding(rm ir.RoundingMode) smt.RoundingMode {
	switch rm {
	case ir.RoundNearestEven:
		return smt.RoundNearestEven
	case ir.RoundNearestAway:
		return smt.RoundNearestAway
	case ir.RoundTowardPositive:
		return smt.RoundTowardPositive
	case ir.RoundTowardNegative:
		return smt.RoundTowardNegative
	case ir.RoundTowardZero:
		return smt.RoundTowardZero
	}

	mode := x.st.Regs.RoundingMode()
	if v, ok := mode.Value(); ok {
		return fpscrRoundings[v]
	}
	if x.pend == nil {
		x.pend = &pending{
			what:  "FPSCR.RMode",
			value: mode,
			bind: func(st *State, v uint64) {
				st.Regs.FPSCR = st.Regs.WithRoundingMode(v)
			},
		}
	}
	return smt.RoundNearestEven
}

// readFP returns the bits of an FP operand at its type's width.
func (x *step) readFP(o ir.FPOperand) *smt.BV {
	w := o.Width()
	switch o.Storage.Kind {
	case ir.StorageRegister:
		if w == 64 {
			return x.st.Regs.ReadD(o.Storage.Index)
		}
		return resize(x.st.Regs.ReadS(o.Storage.Index), w)
	case ir.StorageLocal:
		return resize(x.local(o.Storage.Name), w)
	case ir.StorageCore:
		return resize(x.read(o.Storage.Core), w)
	}
	return smt.BVConst(o.Storage.Bits, w)
}

func (x *step) writeFP(o ir.FPOperand, bits *smt.BV) {
	if x.pend != nil {
		return
	}
	bits = resize(bits, o.Width())
	switch o.Storage.Kind {
	case ir.StorageRegister:
		if o.Width() == 64 {
			x.st.Regs.WriteD(o.Storage.Index, bits)
			return
		}
		x.st.Regs.WriteS(o.Storage.Index, bits)
	case ir.StorageLocal:
		x.st.locals[o.Storage.Name] = bits
	case ir.StorageCore:
		x.write(o.Storage.Core, bits)
	default:
		panic(fmt.Sprintf("emu: write to FP constant %s", o))
	}
}

// value reads a binary FP operand as a float expression.
func (x *step) value(o ir.FPOperand) *smt.FP {
	if !o.Type.IsBinary() {
		panic(fmt.Sprintf("emu: %s is not a floating-point operand", o))
	}
	return smt.FPFromBits(x.readFP(o), sortOf(o.Type))
}

func (x *step) setFP(o ir.FPOperand, f *smt.FP) {
	x.writeFP(o, f.ToBits())
}

// convert implements FPConvert between any pair of binary and integral
// types.
func (x *step) convert(dst, src ir.FPOperand, rm smt.RoundingMode) *smt.BV {
	switch {
	case src.Type.IsBinary() && dst.Type.IsBinary():
		return x.value(src).Convert(sortOf(dst.Type), rm).ToBits()
	case src.Type.IsBinary():
		return x.value(src).ToInt(dst.Type.Size, dst.Type.Signed, rm)
	case dst.Type.IsBinary():
		return smt.FPFromInt(x.readFP(src), src.Type.Signed, sortOf(dst.Type), rm).ToBits()
	}
	if src.Type.Signed {
		return x.readFP(src).SignExt(dst.Type.Size)
	}
	return x.readFP(src).ZeroExt(dst.Type.Size)
}

func fpCompare(mode ir.ComparisonMode, a, b *smt.FP) *smt.BV {
	switch mode {
	case ir.FPNotEqual:
		return a.Eq(b).Not()
	case ir.FPLess:
		return a.Lt(b)
	case ir.FPLessOrEqual:
		return a.Le(b)
	case ir.FPGreater:
		return a.Gt(b)
	case ir.FPGreaterOrEqual:
		return a.Ge(b)
	}
	return a.Eq(b)
}

// applyFP runs the floating-point operations. It reports false for any
// other operation.
func (x *step) applyFP(op ir.Operation) bool {
	switch o := op.(type) {
	case ir.FPAdd:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.A).Add(x.value(o.B), rm))
	case ir.FPSub:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.A).Sub(x.value(o.B), rm))
	case ir.FPMul:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.A).Mul(x.value(o.B), rm))
	case ir.FPDiv:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.A).Div(x.value(o.B), rm))
	case ir.FPFusedMulAdd:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.A).FMA(x.value(o.B), x.value(o.C), rm))
	case ir.FPSqrt:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.Src).Sqrt(rm))
	case ir.FPAbs:
		x.setFP(o.Dst, x.value(o.Src).Abs())
	case ir.FPNeg:
		x.setFP(o.Dst, x.value(o.Src).Neg())
	case ir.FPCompare:
		x.write(o.Dst, fpCompare(o.Mode, x.value(o.A), x.value(o.B)))
	case ir.FPConvert:
		rm := x.rounding(o.Rounding)
		x.writeFP(o.Dst, x.convert(o.Dst, o.Src, rm))
	case ir.FPRoundToInt:
		rm := x.rounding(o.Rounding)
		x.setFP(o.Dst, x.value(o.Src).RoundToIntegral(rm))
	case ir.FPIsNaN:
		x.write(o.Dst, x.value(o.Src).IsNaN())
	case ir.FPIsZero:
		x.write(o.Dst, x.value(o.Src).IsZero())
	case ir.FPIsInfinite:
		x.write(o.Dst, x.value(o.Src).IsInf())
	case ir.FPCopy:
		x.writeFP(o.Dst, x.readFP(o.Src))
	default:
		return false
	}
	return true
}
