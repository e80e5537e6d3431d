// Package loader provides ELF image loading for ARM Cortex-M executables.
package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the initial SP used when the image has no vector
// table: the top of a 128 KiB SRAM at 0x20000000.
const DefaultStackTop = 0x20020000

// Segment represents a loadable segment from an ELF image.
type Segment struct {
	// Addr is the address where this segment is loaded.
	Addr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

func (s *Segment) contains(addr uint32) bool {
	return addr >= s.Addr && addr-s.Addr < s.MemSize
}

// Program represents a loaded image ready for execution.
type Program struct {
	// Entry is the address where execution should begin, with the Thumb
	// bit cleared.
	Entry uint32
	// Segments contains all loadable segments in file order.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
	// VectorTable is set when InitialSP was read from a vector table.
	VectorTable bool

	segments *redblacktree.Tree // start address -> *Segment
	symbols  map[string]uint32
	funcs    *redblacktree.Tree // start address -> name
}

func newProgram(entry uint32) *Program {
	return &Program{
		Entry:     entry &^ 1,
		InitialSP: DefaultStackTop,
		segments:  redblacktree.NewWith(utils.UInt32Comparator),
		symbols:   make(map[string]uint32),
		funcs:     redblacktree.NewWith(utils.UInt32Comparator),
	}
}

// Load parses an ARM ELF32 executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return fromELF(f)
}

// Parse reads an ARM ELF32 executable from r.
func Parse(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	return fromELF(f)
}

// FromBytes builds a single executable segment holding code at base.
func FromBytes(base uint32, code []byte) *Program {
	prog := newProgram(base)
	prog.addSegment(Segment{
		Addr:    base,
		Data:    code,
		MemSize: uint32(len(code)),
		Flags:   SegmentFlagRead | SegmentFlagExecute,
	})
	return prog
}

func fromELF(f *elf.File) (*Program, error) {
	// Validate ELF class (must be 32-bit)
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	// Validate machine type (must be ARM)
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("not an ARM ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	prog := newProgram(uint32(f.Entry))

	// Load all PT_LOAD segments
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.addSegment(Segment{
			Addr:    uint32(phdr.Vaddr),
			Data:    data,
			MemSize: uint32(phdr.Memsz),
			Flags:   flags,
		})
	}

	if err := prog.readSymbols(f); err != nil {
		return nil, err
	}
	prog.findVectorTable()

	return prog, nil
}

func (p *Program) addSegment(seg Segment) {
	p.Segments = append(p.Segments, seg)
	// Appending may have moved the backing array.
	p.segments.Clear()
	for i := range p.Segments {
		p.segments.Put(p.Segments[i].Addr, &p.Segments[i])
	}
}

func (p *Program) readSymbols(f *elf.File) error {
	syms, err := f.Symbols()
	if err == elf.ErrNoSymbols {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read symbols: %w", err)
	}

	for _, s := range syms {
		if s.Name == "" || s.Section == elf.SHN_UNDEF {
			continue
		}
		addr := uint32(s.Value)
		if elf.ST_TYPE(s.Info) == elf.STT_FUNC {
			addr &^= 1
			p.funcs.Put(addr, s.Name)
		}
		p.symbols[s.Name] = addr
	}
	return nil
}

// findVectorTable takes the initial SP from the first word of the segment
// whose second word is the reset vector pointing at the entry point.
func (p *Program) findVectorTable() {
	for _, seg := range p.Segments {
		if len(seg.Data) < 8 {
			continue
		}
		reset := binary.LittleEndian.Uint32(seg.Data[4:8])
		if reset&1 == 1 && reset&^1 == p.Entry {
			p.InitialSP = binary.LittleEndian.Uint32(seg.Data[0:4])
			p.VectorTable = true
			return
		}
	}
}

// segmentAt returns the segment containing addr.
func (p *Program) segmentAt(addr uint32) (*Segment, bool) {
	node, found := p.segments.Floor(addr)
	if !found {
		return nil, false
	}
	seg := node.Value.(*Segment)
	if !seg.contains(addr) {
		return nil, false
	}
	return seg, true
}

// ByteAt returns the image byte at addr. BSS bytes read as zero.
func (p *Program) ByteAt(addr uint32) (byte, bool) {
	seg, ok := p.segmentAt(addr)
	if !ok {
		return 0, false
	}
	off := addr - seg.Addr
	if off < uint32(len(seg.Data)) {
		return seg.Data[off], true
	}
	return 0, true
}

// Symbol looks up a symbol's address. Function addresses have the Thumb bit
// cleared.
func (p *Program) Symbol(name string) (uint32, bool) {
	addr, ok := p.symbols[name]
	return addr, ok
}

// Describe names addr relative to the closest preceding function symbol.
func (p *Program) Describe(addr uint32) string {
	node, found := p.funcs.Floor(addr)
	if !found {
		return fmt.Sprintf("%#08x", addr)
	}
	start := node.Key.(uint32)
	if addr == start {
		return node.Value.(string)
	}
	return fmt.Sprintf("%s+%#x", node.Value.(string), addr-start)
}

// CodeRange returns the span covering every executable segment. size is
// zero when the image has none.
func (p *Program) CodeRange() (base, size uint32) {
	var end uint32
	found := false
	for _, seg := range p.Segments {
		if seg.Flags&SegmentFlagExecute == 0 {
			continue
		}
		if !found || seg.Addr < base {
			base = seg.Addr
		}
		if !found || seg.Addr+seg.MemSize > end {
			end = seg.Addr + seg.MemSize
		}
		found = true
	}
	return base, end - base
}
