package insts

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEncoding is returned for encodings the decoder does not
// model, including architecturally undefined ones.
var ErrUnsupportedEncoding = errors.New("insts: unsupported encoding")

// ErrNoCode is returned when the address holds no readable code.
var ErrNoCode = errors.New("insts: no code at address")

// ByteSource provides the bytes of a program image.
type ByteSource interface {
	ByteAt(addr uint32) (byte, bool)
}

// Disassembler fetches and decodes the instruction at an address,
// returning it together with its size in bytes.
type Disassembler interface {
	DecodeAt(addr uint32) (Instruction, uint32, error)
}

// ThumbDecoder decodes Thumb and Thumb-2 machine code, including the VFP
// coprocessor space.
type ThumbDecoder struct {
	code ByteSource
}

// NewThumbDecoder creates a decoder reading from code.
func NewThumbDecoder(code ByteSource) *ThumbDecoder {
	return &ThumbDecoder{code: code}
}

// DecodeAt implements Disassembler.
func (d *ThumbDecoder) DecodeAt(addr uint32) (Instruction, uint32, error) {
	hw1, err := d.halfword(addr)
	if err != nil {
		return Instruction{}, 0, err
	}

	var hw2 uint16
	if IsThumb32(hw1) {
		hw2, err = d.halfword(addr + 2)
		if err != nil {
			return Instruction{}, 0, err
		}
	}

	inst, size, err := d.Decode(hw1, hw2)
	if err != nil {
		return inst, size, fmt.Errorf("decoding %#08x: %w", addr, err)
	}
	return inst, size, nil
}

func (d *ThumbDecoder) halfword(addr uint32) (uint16, error) {
	lo, ok1 := d.code.ByteAt(addr)
	hi, ok2 := d.code.ByteAt(addr + 1)
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("%w: %#08x", ErrNoCode, addr)
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

// IsThumb32 reports whether hw1 is the first halfword of a 32-bit
// encoding (bits [15:11] are 0b11101, 0b11110 or 0b11111).
func IsThumb32(hw1 uint16) bool {
	return hw1>>11 >= 0b11101
}

// Decode decodes one instruction from its halfwords. hw2 is ignored for
// 16-bit encodings. The returned size is 2 or 4.
func (d *ThumbDecoder) Decode(hw1, hw2 uint16) (Instruction, uint32, error) {
	if IsThumb32(hw1) {
		inst, err := decode32(uint32(hw1), uint32(hw2))
		return inst, 4, err
	}
	inst, err := decode16(uint32(hw1))
	return inst, 2, err
}

func unsupported(hw uint32) (Instruction, error) {
	return NewInstruction(OpUnknown), fmt.Errorf("%w: %#x", ErrUnsupportedEncoding, hw)
}

// reg extracts a register field of width bits starting at lo.
func reg(w uint32, lo, width uint) Register {
	return Register((w >> lo) & (1<<width - 1))
}

func bit(w uint32, n uint) bool {
	return (w>>n)&1 == 1
}

// signExtend sign-extends the low n bits of v.
func signExtend(v uint32, n uint) uint32 {
	shift := 32 - n
	return uint32(int32(v<<shift) >> shift)
}

func regList(bits uint32) []Register {
	var regs []Register
	for r := R0; r <= PC; r++ {
		if bits&(1<<r) != 0 {
			regs = append(regs, r)
		}
	}
	return regs
}

func containsRegister(regs []Register, r Register) bool {
	for _, x := range regs {
		if x == r {
			return true
		}
	}
	return false
}
