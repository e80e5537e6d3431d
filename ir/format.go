package ir

import (
	"fmt"
	"strings"
)

// Format renders an operation list one operation per line, indenting the
// branches of Ite.
func Format(ops []Operation) string {
	var b strings.Builder
	format(&b, ops, 0)
	return b.String()
}

func format(b *strings.Builder, ops []Operation, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, op := range ops {
		if ite, ok := op.(Ite); ok {
			fmt.Fprintf(b, "%sif %s {\n", indent, ite.Cond)
			format(b, ite.Then, depth+1)
			if len(ite.Else) > 0 {
				fmt.Fprintf(b, "%s} else {\n", indent)
				format(b, ite.Else, depth+1)
			}
			fmt.Fprintf(b, "%s}\n", indent)
			continue
		}
		fmt.Fprintf(b, "%s%s\n", indent, String(op))
	}
}

// String renders a single operation. Ite bodies are elided.
func String(op Operation) string {
	switch o := op.(type) {
	case Move:
		return fmt.Sprintf("%s = %s", o.Dst, o.Src)
	case Add:
		return binary(o.Dst, "+", o.A, o.B)
	case Adc:
		return fmt.Sprintf("%s = %s + %s + %s", o.Dst, o.A, o.B, o.Carry)
	case Sub:
		return binary(o.Dst, "-", o.A, o.B)
	case Mul:
		return binary(o.Dst, "*", o.A, o.B)
	case SDiv:
		return binary(o.Dst, "sdiv", o.A, o.B)
	case UDiv:
		return binary(o.Dst, "udiv", o.A, o.B)
	case And:
		return binary(o.Dst, "&", o.A, o.B)
	case Or:
		return binary(o.Dst, "|", o.A, o.B)
	case Xor:
		return binary(o.Dst, "^", o.A, o.B)
	case Not:
		return fmt.Sprintf("%s = ~%s", o.Dst, o.Src)
	case Shift:
		return binary(o.Dst, o.Kind.String(), o.Src, o.Amount)
	case Compare:
		return binary(o.Dst, o.Op.String(), o.A, o.B)
	case CheckCondition:
		return fmt.Sprintf("%s = cond(%s)", o.Dst, o.Cond)
	case Ite:
		return fmt.Sprintf("if %s {...}", o.Cond)
	case Select:
		return fmt.Sprintf("%s = %s ? %s : %s", o.Dst, o.Cond, o.A, o.B)
	case ConditionalJump:
		return fmt.Sprintf("jump %s if %s", o.Target, o.Cond)
	case ConditionalExecution:
		return fmt.Sprintf("it %v", o.Conds)
	case SetNFlag:
		return fmt.Sprintf("N = sign(%s)", o.Src)
	case SetZFlag:
		return fmt.Sprintf("Z = zero(%s)", o.Src)
	case SetCFlag:
		return fmt.Sprintf("C = carry.%s(%s, %s, %s)", o.Family, o.A, o.B, o.Carry)
	case SetCFlagShift:
		return fmt.Sprintf("C = carry.%s(%s, %s)", o.Kind, o.Src, o.Amount)
	case SetVFlag:
		return fmt.Sprintf("V = overflow.%s(%s, %s, %s)", o.Family, o.A, o.B, o.Carry)
	case CountLeadingZeroes:
		return fmt.Sprintf("%s = clz(%s)", o.Dst, o.Src)
	case BitFieldExtract:
		return fmt.Sprintf("%s = %s[%d+:%d]", o.Dst, o.Src, o.Lsb, o.Width)
	case SignExtend:
		return fmt.Sprintf("%s = sext(%s:%d, %d)", o.Dst, o.Src, o.Bits, o.Width)
	case ZeroExtend:
		return fmt.Sprintf("%s = zext(%s:%d, %d)", o.Dst, o.Src, o.Bits, o.Width)
	case Resize:
		return fmt.Sprintf("%s = resize(%s, %d)", o.Dst, o.Src, o.Width)
	case Concat:
		return fmt.Sprintf("%s = %s:%s", o.Dst, o.Hi, o.Lo)
	case Abort:
		return fmt.Sprintf("abort %q", o.Reason)
	case Nop:
		return "nop"
	case FPAdd:
		return fpBinary(o.Dst, "+", o.A, o.B, o.Rounding)
	case FPSub:
		return fpBinary(o.Dst, "-", o.A, o.B, o.Rounding)
	case FPMul:
		return fpBinary(o.Dst, "*", o.A, o.B, o.Rounding)
	case FPDiv:
		return fpBinary(o.Dst, "/", o.A, o.B, o.Rounding)
	case FPFusedMulAdd:
		return fmt.Sprintf("%s = fma(%s, %s, %s) [%s]", o.Dst, o.A, o.B, o.C, o.Rounding)
	case FPSqrt:
		return fmt.Sprintf("%s = sqrt(%s) [%s]", o.Dst, o.Src, o.Rounding)
	case FPAbs:
		return fmt.Sprintf("%s = abs(%s)", o.Dst, o.Src)
	case FPNeg:
		return fmt.Sprintf("%s = -%s", o.Dst, o.Src)
	case FPCompare:
		return fmt.Sprintf("%s = %s f%s %s", o.Dst, o.A, o.Mode, o.B)
	case FPConvert:
		return fmt.Sprintf("%s = convert(%s) [%s]", o.Dst, o.Src, o.Rounding)
	case FPRoundToInt:
		return fmt.Sprintf("%s = rint(%s) [%s]", o.Dst, o.Src, o.Rounding)
	case FPIsNaN:
		return fmt.Sprintf("%s = isnan(%s)", o.Dst, o.Src)
	case FPIsZero:
		return fmt.Sprintf("%s = iszero(%s)", o.Dst, o.Src)
	case FPIsInfinite:
		return fmt.Sprintf("%s = isinf(%s)", o.Dst, o.Src)
	case FPCopy:
		return fmt.Sprintf("%s = %s", o.Dst, o.Src)
	}
	return fmt.Sprintf("%T", op)
}

func binary(dst Operand, op string, a, b Operand) string {
	return fmt.Sprintf("%s = %s %s %s", dst, a, op, b)
}

func fpBinary(dst FPOperand, op string, a, b FPOperand, rm RoundingMode) string {
	return fmt.Sprintf("%s = %s %s %s [%s]", dst, a, op, b, rm)
}
