package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("cortexsym", func() {
	var (
		opts options
		out  *bytes.Buffer
	)

	writeBinary := func(halfwords ...uint16) string {
		code := make([]byte, 2*len(halfwords))
		for i, hw := range halfwords {
			binary.LittleEndian.PutUint16(code[2*i:], hw)
		}
		path := filepath.Join(GinkgoT().TempDir(), "fw.bin")
		Expect(os.WriteFile(path, code, 0644)).To(Succeed())
		return path
	}

	runCLI := func() error {
		return run(opts, newLogger(opts, GinkgoWriter), out)
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		opts = options{
			Base:     "0x08000000",
			Steps:    100,
			MaxPaths: 10,
			MaxForks: 64,
			Rounds:   64,
		}
		opts.Args.Program = writeBinary(
			0x2800, // cmp r0, #0
			0xD001, // beq 0x08000008
			0x2101, // movs r1, #1
			0xE000, // b 0x0800000a
			0x2102, // movs r1, #2
			0x4770, // bx lr
		)
		opts.Symbolic = []string{"r0"}
	})

	It("should report both sides of a branch on a symbolic input", func() {
		Expect(runCLI()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("2 paths"))
		Expect(out.String()).To(ContainSubstring("return"))
		Expect(out.String()).To(ContainSubstring("r0=0x0"))
	})

	It("should answer a reachability query", func() {
		opts.Query = "0xFFFFFFFE:r1=2"
		Expect(runCLI()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("R1 can be 0x2"))
		Expect(out.String()).To(ContainSubstring("r0:0"))
	})

	It("should report values a register cannot hold", func() {
		opts.Query = "0xFFFFFFFE:r1=3"
		Expect(runCLI()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("R1 cannot be 0x3"))
	})

	It("should stop at requested addresses", func() {
		opts.Stop = []string{"0x08000008"}
		Expect(runCLI()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("8000008"))
	})

	It("should dump final registers", func() {
		opts.Dump = true
		Expect(runCLI()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("(len=16)"))
	})

	It("should charge flash wait states when asked", func() {
		opts.FlashCache = true
		Expect(runCLI()).To(Succeed())
	})

	It("should reject malformed input", func() {
		opts.Query = "r1=2"
		Expect(runCLI()).To(MatchError(ContainSubstring("invalid query")))

		opts.Query = ""
		opts.Symbolic = []string{"q7"}
		Expect(runCLI()).To(MatchError(ContainSubstring("unknown register")))

		opts.Symbolic = nil
		opts.Entry = "main"
		Expect(runCLI()).To(MatchError(ContainSubstring("unknown symbol")))
	})

	It("should fail on a missing ELF file", func() {
		opts.Base = ""
		opts.Args.Program = filepath.Join(GinkgoT().TempDir(), "missing.elf")
		Expect(runCLI()).To(HaveOccurred())
	})
})
