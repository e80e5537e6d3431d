package emu

import (
	"fmt"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"

	"github.com/sarchlab/cortexsym/smt"
)

// Image is the read-only program image memory falls back to.
type Image interface {
	ByteAt(addr uint32) (byte, bool)
}

// Memory is a byte-addressed symbolic store. Written bytes are kept in an
// ordered tree; unwritten bytes come from the image, and bytes outside the
// image read as a symbol named after their address.
type Memory struct {
	image Image
	bytes *redblacktree.Tree
}

// NewMemory creates a memory over image, which may be nil.
func NewMemory(image Image) *Memory {
	return &Memory{
		image: image,
		bytes: redblacktree.NewWith(utils.UInt32Comparator),
	}
}

// Clone returns an independent copy sharing the image.
func (m *Memory) Clone() *Memory {
	c := NewMemory(m.image)
	it := m.bytes.Iterator()
	for it.Next() {
		c.bytes.Put(it.Key(), it.Value())
	}
	return c
}

// SymbolName returns the name of the symbol an unwritten byte outside the
// image reads as.
func SymbolName(addr uint32) string {
	return fmt.Sprintf("mem_%08x", addr)
}

// Read8 returns the byte at addr.
func (m *Memory) Read8(addr uint32) *smt.BV {
	if v, ok := m.bytes.Get(addr); ok {
		return v.(*smt.BV)
	}
	if m.image != nil {
		if b, ok := m.image.ByteAt(addr); ok {
			return smt.BVConst(uint64(b), 8)
		}
	}
	return smt.BVSymbol(SymbolName(addr), 8)
}

// Read returns width bits starting at addr, little endian. width must be a
// multiple of 8.
func (m *Memory) Read(addr uint32, width uint32) *smt.BV {
	if width == 0 || width%8 != 0 {
		panic(fmt.Sprintf("emu: memory access of %d bits", width))
	}
	n := width / 8
	out := m.Read8(addr + n - 1)
	for i := int(n) - 2; i >= 0; i-- {
		out = out.Concat(m.Read8(addr + uint32(i)))
	}
	return out
}

// Write stores value little endian at addr.
func (m *Memory) Write(addr uint32, value *smt.BV) {
	width := value.Width()
	if width%8 != 0 {
		panic(fmt.Sprintf("emu: memory access of %d bits", width))
	}
	for i := uint32(0); i < width/8; i++ {
		m.bytes.Put(addr+i, value.Extract(8*i+7, 8*i))
	}
}

// Write32 stores a concrete word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write(addr, smt.BVConst(uint64(value), 32))
}

// WriteBytes stores concrete bytes.
func (m *Memory) WriteBytes(addr uint32, data []byte) {
	for i, b := range data {
		m.bytes.Put(addr+uint32(i), smt.BVConst(uint64(b), 8))
	}
}

// Written returns the written addresses in ascending order.
func (m *Memory) Written() []uint32 {
	keys := m.bytes.Keys()
	out := make([]uint32, len(keys))
	for i, k := range keys {
		out[i] = k.(uint32)
	}
	return out
}
