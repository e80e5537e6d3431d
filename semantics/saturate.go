package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

func widthMask(width uint32) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}

// signedImm returns v as a width-bit two's complement constant.
func signedImm(v int64, width uint32) ir.Operand {
	return ir.Imm(uint64(v)&widthMask(width), width)
}

// clamp limits the signed width-bit value x to [lo, hi]. The clamped value
// is left in name and name.sat is set when clamping happened.
func clamp(ops []ir.Operation, x ir.Operand, width uint32, lo, hi int64, name string) ([]ir.Operation, ir.Operand, ir.Operand) {
	over, under := local(name+".over"), local(name+".under")
	out, sat := local(name), local(name+".sat")
	return append(ops,
		ir.Compare{Dst: over, A: x, B: signedImm(hi, width), Op: ir.SGt},
		ir.Compare{Dst: under, A: x, B: signedImm(lo, width), Op: ir.SLt},
		ir.Select{Dst: out, Cond: over, A: signedImm(hi, width), B: x},
		ir.Select{Dst: out, Cond: under, A: signedImm(lo, width), B: out},
		ir.Or{Dst: sat, A: over, B: under},
	), out, sat
}

func signedRange(bits uint32) (int64, int64) {
	return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
}

func unsignedRange(bits uint32) (int64, int64) {
	return 0, int64(1)<<bits - 1
}

func stickyQ(ops []ir.Operation, sat ir.Operand) []ir.Operation {
	return append(ops, ir.Or{Dst: flagOf(ir.FlagQ), A: flagOf(ir.FlagQ), B: sat})
}

// saturateWord expands SSAT and USAT.
func saturateWord(unsigned bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		var ops []ir.Operation
		src := reg(inst.Rn)
		if !inst.Shift.IsNone() {
			ops = append(ops, ir.Shift{
				Dst: local("shifted"), Src: src,
				Amount: imm32(uint32(inst.Shift.Amount)), Kind: ir.ShiftKindOf(inst.Shift.Type),
			})
			src = local("shifted")
		}

		lo, hi := signedRange(uint32(inst.SatImm))
		if unsigned {
			lo, hi = unsignedRange(uint32(inst.SatImm))
		}
		ops, out, sat := clamp(ops, src, 32, lo, hi, "sat")
		ops = append(ops, ir.Move{Dst: reg(inst.Rd), Src: out})
		return stickyQ(ops, sat)
	}
}

// saturateHalves expands SSAT16 and USAT16.
func saturateHalves(unsigned bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		lo, hi := signedRange(uint32(inst.SatImm))
		if unsigned {
			lo, hi = unsignedRange(uint32(inst.SatImm))
		}

		acc := local("acc")
		ops := []ir.Operation{ir.Move{Dst: acc, Src: imm32(0)}}
		for lane := uint32(0); lane < 2; lane++ {
			var v, out, sat ir.Operand
			ops, v = laneValue(ops, reg(inst.Rn), lane, 16, true, "a")
			ops, out, sat = clamp(ops, v, 32, lo, hi, "sat")
			ops = packLane(ops, acc, out, lane, 16)
			ops = stickyQ(ops, sat)
		}
		return append(ops, ir.Move{Dst: reg(inst.Rd), Src: acc})
	}
}

// saturatingArith expands QADD, QSUB, QDADD and QDSUB. The first operand
// is Rm; the doubling forms saturate 2*Rn before the add or subtract.
func saturatingArith(subtract, double bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		lo, hi := signedRange(32)
		ops := []ir.Operation{
			ir.SignExtend{Dst: local("m"), Src: reg(inst.Rm), Bits: 32, Width: 64},
			ir.SignExtend{Dst: local("n"), Src: reg(inst.Rn), Bits: 32, Width: 64},
		}
		n := local("n")
		if double {
			var doubled, sat ir.Operand
			ops = append(ops, ir.Add{Dst: local("twice"), A: n, B: n})
			ops, doubled, sat = clamp(ops, local("twice"), 64, lo, hi, "doubled")
			ops = stickyQ(ops, sat)
			n = doubled
		}

		if subtract {
			ops = append(ops, ir.Sub{Dst: local("wide"), A: local("m"), B: n})
		} else {
			ops = append(ops, ir.Add{Dst: local("wide"), A: local("m"), B: n})
		}
		ops, out, sat := clamp(ops, local("wide"), 64, lo, hi, "sat")
		ops = append(ops, ir.Resize{Dst: reg(inst.Rd), Src: out, Width: 32})
		return stickyQ(ops, sat)
	}
}

// laneValue extracts lane number lane of size bits from src into a 32-bit
// local, sign or zero extended.
func laneValue(ops []ir.Operation, src ir.Operand, lane, size uint32, signed bool, name string) ([]ir.Operation, ir.Operand) {
	v := local(name)
	ops = append(ops, ir.BitFieldExtract{Dst: v, Src: src, Lsb: lane * size, Width: size})
	if signed {
		ops = append(ops, ir.SignExtend{Dst: v, Src: v, Bits: size, Width: 32})
	}
	return ops, v
}

// packLane ORs the low size bits of v into lane number lane of acc.
func packLane(ops []ir.Operation, acc, v ir.Operand, lane, size uint32) []ir.Operation {
	t := local("pack")
	return append(ops,
		ir.And{Dst: t, A: v, B: imm32(uint32(widthMask(size)))},
		ir.Shift{Dst: t, Src: t, Amount: imm32(lane * size), Kind: ir.LSL},
		ir.Or{Dst: acc, A: acc, B: t},
	)
}

type laneMode uint8

const (
	// laneModular wraps and writes the GE flags.
	laneModular laneMode = iota
	laneSaturating
	laneHalving
)

// parallel expands the SIMD-in-register add and subtract family.
func parallel(signed bool, mode laneMode, size uint32, subtract bool) expander {
	lanes := 32 / size
	geWidth := size / 8

	return func(inst insts.Instruction, _ bool) []ir.Operation {
		acc := local("acc")
		r := local("lane")
		ops := []ir.Operation{ir.Move{Dst: acc, Src: imm32(0)}}

		for lane := uint32(0); lane < lanes; lane++ {
			var a, b ir.Operand
			ops, a = laneValue(ops, reg(inst.Rn), lane, size, signed, "a")
			ops, b = laneValue(ops, reg(inst.Rm), lane, size, signed, "b")
			if subtract {
				ops = append(ops, ir.Sub{Dst: r, A: a, B: b})
			} else {
				ops = append(ops, ir.Add{Dst: r, A: a, B: b})
			}

			switch mode {
			case laneModular:
				// Unsigned sums set GE on carry out of the lane; everything
				// else sets it on a non-negative result.
				threshold := imm32(0)
				if !signed && !subtract {
					threshold = imm32(1 << size)
				}
				ops = append(ops, ir.Compare{Dst: local("ge"), A: r, B: threshold, Op: ir.SGe})
				for k := uint32(0); k < geWidth; k++ {
					ops = append(ops, ir.Move{Dst: flagOf(ir.GEFlag(int(lane*geWidth + k))), Src: local("ge")})
				}
			case laneSaturating:
				lo, hi := unsignedRange(size)
				if signed {
					lo, hi = signedRange(size)
				}
				var out ir.Operand
				ops, out, _ = clamp(ops, r, 32, lo, hi, "sat")
				ops = append(ops, ir.Move{Dst: r, Src: out})
			case laneHalving:
				ops = append(ops, ir.Shift{Dst: r, Src: r, Amount: imm32(1), Kind: ir.ASR})
			}
			ops = packLane(ops, acc, r, lane, size)
		}
		return append(ops, ir.Move{Dst: reg(inst.Rd), Src: acc})
	}
}

func expandSEL(inst insts.Instruction, _ bool) []ir.Operation {
	acc := local("acc")
	ops := []ir.Operation{ir.Move{Dst: acc, Src: imm32(0)}}
	for lane := uint32(0); lane < 4; lane++ {
		var a, b ir.Operand
		ops, a = laneValue(ops, reg(inst.Rn), lane, 8, false, "a")
		ops, b = laneValue(ops, reg(inst.Rm), lane, 8, false, "b")
		ops = append(ops, ir.Select{Dst: local("lane"), Cond: flagOf(ir.GEFlag(int(lane))), A: a, B: b})
		ops = packLane(ops, acc, local("lane"), lane, 8)
	}
	return append(ops, ir.Move{Dst: reg(inst.Rd), Src: acc})
}

// sumAbsoluteDifferences expands USAD8, and USADA8 with accumulate.
func sumAbsoluteDifferences(accumulate bool) expander {
	return func(inst insts.Instruction, _ bool) []ir.Operation {
		acc := local("acc")
		start := imm32(0)
		if accumulate {
			start = reg(inst.Ra)
		}
		ops := []ir.Operation{ir.Move{Dst: acc, Src: start}}
		diff, negated := local("diff"), local("negated")
		for lane := uint32(0); lane < 4; lane++ {
			var a, b ir.Operand
			ops, a = laneValue(ops, reg(inst.Rn), lane, 8, false, "a")
			ops, b = laneValue(ops, reg(inst.Rm), lane, 8, false, "b")
			ops = append(ops,
				ir.Sub{Dst: diff, A: a, B: b},
				ir.Compare{Dst: local("negative"), A: diff, B: imm32(0), Op: ir.SLt},
				ir.Sub{Dst: negated, A: imm32(0), B: diff},
				ir.Select{Dst: diff, Cond: local("negative"), A: negated, B: diff},
				ir.Add{Dst: acc, A: acc, B: diff},
			)
		}
		return append(ops, ir.Move{Dst: reg(inst.Rd), Src: acc})
	}
}
