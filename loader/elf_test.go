package loader_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/loader"
)

type testSegment struct {
	addr    uint32
	data    []byte
	memSize uint32
	flags   uint32
}

type testSymbol struct {
	name  string
	value uint32
	info  byte
}

const (
	sttObject = 1
	sttFunc   = 2
	stbGlobal = 1 << 4
)

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	write := func(name string, image []byte) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, image, 0644)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		Context("with a Cortex-M firmware image", func() {
			var prog *loader.Program

			BeforeEach(func() {
				vectors := make([]byte, 8)
				binary.LittleEndian.PutUint32(vectors[0:], 0x20004000)
				binary.LittleEndian.PutUint32(vectors[4:], 0x08000009)
				flash := append(vectors, 0x2A, 0x20, 0x70, 0x47) // movs r0, #42; bx lr

				path := write("fw.elf", buildARMELF(40, 0x08000009, []testSegment{
					{addr: 0x08000000, data: flash, memSize: uint32(len(flash)), flags: 0x5},
					{addr: 0x20000000, data: []byte{1, 2}, memSize: 16, flags: 0x6},
				}, []testSymbol{
					{name: "Reset_Handler", value: 0x08000009, info: stbGlobal | sttFunc},
					{name: "counter", value: 0x20000000, info: stbGlobal | sttObject},
				}))

				var err error
				prog, err = loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should clear the Thumb bit of the entry point", func() {
				Expect(prog.Entry).To(Equal(uint32(0x08000008)))
			})

			It("should take the initial SP from the vector table", func() {
				Expect(prog.VectorTable).To(BeTrue())
				Expect(prog.InitialSP).To(Equal(uint32(0x20004000)))
			})

			It("should load every PT_LOAD segment", func() {
				Expect(prog.Segments).To(HaveLen(2))
				Expect(prog.Segments[0].Flags).To(Equal(loader.SegmentFlagRead | loader.SegmentFlagExecute))
				Expect(prog.Segments[1].Flags).To(Equal(loader.SegmentFlagRead | loader.SegmentFlagWrite))
			})

			It("should serve bytes, zero filling BSS", func() {
				b, ok := prog.ByteAt(0x08000008)
				Expect(ok).To(BeTrue())
				Expect(b).To(Equal(byte(0x2A)))

				b, ok = prog.ByteAt(0x20000001)
				Expect(ok).To(BeTrue())
				Expect(b).To(Equal(byte(2)))

				b, ok = prog.ByteAt(0x2000000F)
				Expect(ok).To(BeTrue())
				Expect(b).To(BeZero())

				_, ok = prog.ByteAt(0x20000010)
				Expect(ok).To(BeFalse())
				_, ok = prog.ByteAt(0x07FFFFFF)
				Expect(ok).To(BeFalse())
			})

			It("should look up symbols", func() {
				addr, ok := prog.Symbol("Reset_Handler")
				Expect(ok).To(BeTrue())
				Expect(addr).To(Equal(uint32(0x08000008)))

				addr, ok = prog.Symbol("counter")
				Expect(ok).To(BeTrue())
				Expect(addr).To(Equal(uint32(0x20000000)))

				_, ok = prog.Symbol("missing")
				Expect(ok).To(BeFalse())
			})

			It("should span the executable segments", func() {
				base, size := prog.CodeRange()
				Expect(base).To(Equal(uint32(0x08000000)))
				Expect(size).To(Equal(uint32(12)))
			})

			It("should describe addresses relative to functions", func() {
				Expect(prog.Describe(0x08000008)).To(Equal("Reset_Handler"))
				Expect(prog.Describe(0x0800000A)).To(Equal("Reset_Handler+0x2"))
				Expect(prog.Describe(0x08000000)).To(Equal("0x08000000"))
			})
		})

		It("should fall back to the default stack without a vector table", func() {
			path := write("plain.elf", buildARMELF(40, 0x1000, []testSegment{
				{addr: 0x1000, data: []byte{0x00, 0xBF}, memSize: 2, flags: 0x5},
			}, nil))

			prog, err := loader.Load(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.VectorTable).To(BeFalse())
			Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
		})

		It("should parse from a reader", func() {
			image := buildARMELF(40, 0x1000, []testSegment{
				{addr: 0x1000, data: []byte{0x00, 0xBF}, memSize: 2, flags: 0x5},
			}, nil)

			prog, err := loader.Parse(bytes.NewReader(image))

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Entry).To(Equal(uint32(0x1000)))
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				_, err := loader.Load(write("not-elf.bin", []byte("not an elf file")))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				_, err := loader.Load(write("empty.elf", []byte{}))
				Expect(err).To(HaveOccurred())
			})

			It("should reject other machines", func() {
				_, err := loader.Load(write("x86.elf", buildARMELF(3, 0x1000, nil, nil)))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not an ARM"))
			})

			It("should reject 64-bit files", func() {
				_, err := loader.Load(write("elf64.elf", createMinimal64BitELF()))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
			})
		})
	})

	Describe("FromBytes", func() {
		It("should map raw code at the base address", func() {
			prog := loader.FromBytes(0x100, []byte{0x01, 0x20})

			Expect(prog.Entry).To(Equal(uint32(0x100)))
			b, ok := prog.ByteAt(0x101)
			Expect(ok).To(BeTrue())
			Expect(b).To(Equal(byte(0x20)))
			_, ok = prog.ByteAt(0x102)
			Expect(ok).To(BeFalse())
		})
	})
})

// buildARMELF assembles a little-endian ELF32 executable with the given
// PT_LOAD segments and, when syms is not empty, a symbol table.
func buildARMELF(machine uint16, entry uint32, segs []testSegment, syms []testSymbol) []byte {
	const (
		ehSize = 52
		phSize = 32
		shSize = 40
	)
	le := binary.LittleEndian

	var body bytes.Buffer
	dataOff := uint32(ehSize + phSize*len(segs))
	offsets := make([]uint32, len(segs))
	for i, s := range segs {
		offsets[i] = dataOff + uint32(body.Len())
		body.Write(s.data)
	}

	var sections [][]byte
	var shstrndx uint16
	if len(syms) > 0 {
		strtab := []byte{0}
		symtab := make([]byte, 16) // null symbol
		for _, s := range syms {
			entry := make([]byte, 16)
			le.PutUint32(entry[0:], uint32(len(strtab)))
			le.PutUint32(entry[4:], s.value)
			entry[12] = s.info
			le.PutUint16(entry[14:], 1) // any defined section
			symtab = append(symtab, entry...)
			strtab = append(append(strtab, s.name...), 0)
		}
		shstrtab := []byte("\x00.symtab\x00.strtab\x00.shstrtab\x00")

		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
		symOff := dataOff + uint32(body.Len())
		body.Write(symtab)
		strOff := dataOff + uint32(body.Len())
		body.Write(strtab)
		shstrOff := dataOff + uint32(body.Len())
		body.Write(shstrtab)

		section := func(name, typ, off, size, link, info, align, entsize uint32) []byte {
			sh := make([]byte, shSize)
			for i, v := range []uint32{name, typ, 0, 0, off, size, link, info, align, entsize} {
				le.PutUint32(sh[4*i:], v)
			}
			return sh
		}
		sections = [][]byte{
			make([]byte, shSize),
			section(1, 2, symOff, uint32(len(symtab)), 2, 1, 4, 16),     // .symtab
			section(9, 3, strOff, uint32(len(strtab)), 0, 0, 1, 0),      // .strtab
			section(17, 3, shstrOff, uint32(len(shstrtab)), 0, 0, 1, 0), // .shstrtab
		}
		shstrndx = 3
		for body.Len()%4 != 0 {
			body.WriteByte(0)
		}
	}
	shOff := uint32(0)
	if len(sections) > 0 {
		shOff = dataOff + uint32(body.Len())
	}

	header := make([]byte, ehSize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1                // 32-bit
	header[5] = 1                // little endian
	header[6] = 1                // version
	le.PutUint16(header[16:], 2) // executable
	le.PutUint16(header[18:], machine)
	le.PutUint32(header[20:], 1)
	le.PutUint32(header[24:], entry)
	if len(segs) > 0 {
		le.PutUint32(header[28:], ehSize)
	}
	le.PutUint32(header[32:], shOff)
	le.PutUint32(header[36:], 0x05000400) // EABI5, hard float
	le.PutUint16(header[40:], ehSize)
	le.PutUint16(header[42:], phSize)
	le.PutUint16(header[44:], uint16(len(segs)))
	le.PutUint16(header[46:], shSize)
	le.PutUint16(header[48:], uint16(len(sections)))
	le.PutUint16(header[50:], shstrndx)

	var out bytes.Buffer
	out.Write(header)
	for i, s := range segs {
		ph := make([]byte, phSize)
		le.PutUint32(ph[0:], 1) // PT_LOAD
		le.PutUint32(ph[4:], offsets[i])
		le.PutUint32(ph[8:], s.addr)
		le.PutUint32(ph[12:], s.addr)
		le.PutUint32(ph[16:], uint32(len(s.data)))
		le.PutUint32(ph[20:], s.memSize)
		le.PutUint32(ph[24:], s.flags)
		le.PutUint32(ph[28:], 4)
		out.Write(ph)
	}
	out.Write(body.Bytes())
	for _, sh := range sections {
		out.Write(sh)
	}
	return out.Bytes()
}

// createMinimal64BitELF returns an ELF64 header to test rejection.
func createMinimal64BitELF() []byte {
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                                     // 64-bit
	elfHeader[5] = 1                                     // little endian
	elfHeader[6] = 1                                     // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)   // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], 183) // AArch64
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)   // version
	binary.LittleEndian.PutUint16(elfHeader[52:54], 64)  // ehsize
	binary.LittleEndian.PutUint16(elfHeader[54:56], 56)  // phentsize
	return elfHeader
}
