package cache

import (
	"github.com/sarchlab/cortexsym/emu"
	"github.com/sarchlab/cortexsym/insts"
)

// FetchCost adds flash cache timing to an instruction cost model.
// Fetches outside [base, base+size) are not cached and add nothing.
//
// The cache is shared by every path the executor runs, so the estimate
// depends on the order paths are explored in.
type FetchCost struct {
	inner  emu.CostModel
	icache *Cache
	base   uint32
	size   uint32
}

// NewFetchCost wraps inner with fetches through icache for the flash
// region starting at base.
func NewFetchCost(inner emu.CostModel, icache *Cache, base, size uint32) *FetchCost {
	return &FetchCost{
		inner:  inner,
		icache: icache,
		base:   base,
		size:   size,
	}
}

// Cache returns the flash cache.
func (f *FetchCost) Cache() *Cache {
	return f.icache
}

// Cycles implements emu.CostModel.
func (f *FetchCost) Cycles(pc uint32, inst insts.Instruction, branched bool) uint64 {
	cycles := f.inner.Cycles(pc, inst, branched)
	if pc-f.base >= f.size {
		return cycles
	}

	first := f.icache.Read(uint64(pc), 2)
	cycles += first.Latency

	// A 32-bit encoding may straddle two lines.
	next := pc + 2
	if insts.IsThumb32(uint16(first.Data)) && next%uint32(f.icache.config.BlockSize) == 0 {
		cycles += f.icache.Read(uint64(next), 2).Latency
	}
	return cycles
}
