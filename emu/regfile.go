// Package emu provides symbolic execution of ARMv7-M Thumb and VFP code.
package emu

import (
	"fmt"

	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
	"github.com/sarchlab/cortexsym/smt"
)

// FPSCR fields.
const (
	fpscrNZCVShift  = 28
	fpscrRModeShift = 22
)

// RegFile represents the Cortex-M register file.
// It contains the core registers R0-R15, the APSR flags, the 32 single
// precision extension registers and FPSCR. Every value is a bit-vector
// expression; concrete values are constant expressions.
type RegFile struct {
	// R holds R0-R15. R[15] is the address of the current instruction.
	R [insts.NumRegisters]*smt.BV

	// APSR holds N, Z, C, V, Q and GE[3:0] as 1-bit vectors.
	APSR [ir.FPFlagN]*smt.BV

	// S holds S0-S31. D<n> is S<2n+1>:S<2n>.
	S [insts.NumSingleRegisters]*smt.BV

	// FPSCR is 32 bits; its top nibble holds the FP comparison flags.
	FPSCR *smt.BV
}

// NewRegFile returns a register file with every value zero.
func NewRegFile() *RegFile {
	r := &RegFile{FPSCR: smt.BVConst(0, 32)}
	for i := range r.R {
		r.R[i] = smt.BVConst(0, 32)
	}
	for i := range r.APSR {
		r.APSR[i] = smt.False()
	}
	for i := range r.S {
		r.S[i] = smt.BVConst(0, 32)
	}
	return r
}

// Clone returns an independent copy. Expressions are immutable and are
// shared.
func (r *RegFile) Clone() *RegFile {
	c := *r
	return &c
}

// ReadReg reads a core register.
func (r *RegFile) ReadReg(reg insts.Register) *smt.BV {
	if int(reg) >= len(r.R) {
		panic(fmt.Sprintf("emu: read of register %d", reg))
	}
	return r.R[reg]
}

// WriteReg writes the low 32 bits of value to a core register.
func (r *RegFile) WriteReg(reg insts.Register, value *smt.BV) {
	if int(reg) >= len(r.R) {
		panic(fmt.Sprintf("emu: write of register %d", reg))
	}
	r.R[reg] = value.ZeroExt(32)
}

// WriteReg32 writes a concrete value to a core register.
func (r *RegFile) WriteReg32(reg insts.Register, value uint32) {
	r.WriteReg(reg, smt.BVConst(uint64(value), 32))
}

// ReadFlag reads an APSR or FPSCR flag as a 1-bit vector.
func (r *RegFile) ReadFlag(f ir.Flag) *smt.BV {
	if f >= ir.FPFlagN {
		return r.FPSCR.Bit(fpscrBit(f))
	}
	return r.APSR[f]
}

// WriteFlag writes bit 0 of value to a flag.
func (r *RegFile) WriteFlag(f ir.Flag, value *smt.BV) {
	bit := value.Bit(0)
	if f < ir.FPFlagN {
		r.APSR[f] = bit
		return
	}

	pos := fpscrBit(f)
	parts := []*smt.BV{}
	if pos < 31 {
		parts = append(parts, r.FPSCR.Extract(31, pos+1))
	}
	parts = append(parts, bit)
	if pos > 0 {
		parts = append(parts, r.FPSCR.Extract(pos-1, 0))
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out = out.Concat(p)
	}
	r.FPSCR = out
}

// fpscrBit maps FPFlagN..FPFlagV to bits 31..28.
func fpscrBit(f ir.Flag) uint32 {
	return fpscrNZCVShift + uint32(ir.FPFlagV-f)
}

// SetFlags writes concrete N, Z, C and V.
func (r *RegFile) SetFlags(n, z, c, v bool) {
	r.APSR[ir.FlagN] = smt.Bool(n)
	r.APSR[ir.FlagZ] = smt.Bool(z)
	r.APSR[ir.FlagC] = smt.Bool(c)
	r.APSR[ir.FlagV] = smt.Bool(v)
}

// ReadS reads a single precision register's bits.
func (r *RegFile) ReadS(i uint8) *smt.BV {
	return r.S[i]
}

// WriteS writes a single precision register's bits.
func (r *RegFile) WriteS(i uint8, value *smt.BV) {
	r.S[i] = value.ZeroExt(32)
}

// ReadD reads a double precision register as the concatenation of its two
// single halves.
func (r *RegFile) ReadD(i uint8) *smt.BV {
	return r.S[2*i+1].Concat(r.S[2*i])
}

// WriteD splits a 64-bit value across S<2i> and S<2i+1>.
func (r *RegFile) WriteD(i uint8, value *smt.BV) {
	value = value.ZeroExt(64)
	r.S[2*i] = value.Extract(31, 0)
	r.S[2*i+1] = value.Extract(63, 32)
}

// RoundingMode returns FPSCR.RMode as a 2-bit vector.
func (r *RegFile) RoundingMode() *smt.BV {
	return r.FPSCR.Extract(fpscrRModeShift+1, fpscrRModeShift)
}

// WithRoundingMode returns FPSCR with RMode replaced by mode.
func (r *RegFile) WithRoundingMode(mode uint64) *smt.BV {
	return r.FPSCR.Extract(31, fpscrRModeShift+2).
		Concat(smt.BVConst(mode, 2)).
		Concat(r.FPSCR.Extract(fpscrRModeShift-1, 0))
}
