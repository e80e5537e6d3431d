package cache

import (
	"github.com/sarchlab/cortexsym/insts"
)

// CodeBacking wraps the program image as a BackingStore. Bytes outside the
// image read as zero.
type CodeBacking struct {
	code insts.ByteSource
}

// NewCodeBacking creates a new CodeBacking adapter.
func NewCodeBacking(code insts.ByteSource) *CodeBacking {
	return &CodeBacking{code: code}
}

// Read fetches data from the image.
func (m *CodeBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i], _ = m.code.ByteAt(uint32(addr) + uint32(i))
	}
	return data
}
