package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cortexsym/timing/cache"
)

type flash map[uint32]byte

func (f flash) ByteAt(addr uint32) (byte, bool) {
	b, ok := f[addr]
	return b, ok
}

func (f flash) putWord(addr, v uint32) {
	for i := uint32(0); i < 4; i++ {
		f[addr+i] = byte(v >> (8 * i))
	}
}

var _ = Describe("Cache", func() {
	var (
		c      *cache.Cache
		memory flash
	)

	BeforeEach(func() {
		memory = flash{}
		// 256B, 4-way, 16B lines: 4 sets
		config := cache.Config{
			Size:          256,
			Associativity: 4,
			BlockSize:     16,
			HitLatency:    0,
			MissLatency:   5,
		}
		c = cache.New(config, cache.NewCodeBacking(memory))
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			memory.putWord(0x1000, 0xDEADBEEF)

			result := c.Read(0x1000, 4)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(5)))
			Expect(result.Data).To(Equal(uint64(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			memory.putWord(0x1000, 0xCAFEBABE)

			c.Read(0x1000, 4)
			result := c.Read(0x1000, 4)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(0)))
			Expect(result.Data).To(Equal(uint64(0xCAFEBABE)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should hit on different addresses in same line", func() {
			memory.putWord(0x1008, 0x12345678)

			c.Read(0x1000, 2)
			result := c.Read(0x1008, 4)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint64(0x12345678)))
		})

		It("should read bytes outside the image as zero", func() {
			Expect(c.Read(0x4000, 4).Data).To(Equal(uint64(0)))
		})
	})

	Describe("Eviction", func() {
		It("should replace the least recently used line", func() {
			// 0x000, 0x040, 0x080, 0x0C0 and 0x100 all map to set 0
			c.Read(0x000, 2)
			c.Read(0x040, 2)
			c.Read(0x080, 2)
			c.Read(0x0C0, 2)
			c.Read(0x000, 2)

			result := c.Read(0x100, 2)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint64(0x040)))

			Expect(c.Contains(0x000)).To(BeTrue())
			Expect(c.Contains(0x040)).To(BeFalse())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})
	})

	Describe("Invalidate and Reset", func() {
		It("should drop a single line", func() {
			c.Read(0x200, 2)
			c.Invalidate(0x204)
			Expect(c.Read(0x200, 2).Hit).To(BeFalse())
		})

		It("should drop every line and the statistics", func() {
			c.Read(0x200, 2)
			c.Read(0x300, 2)
			c.Reset()

			Expect(c.Contains(0x200)).To(BeFalse())
			Expect(c.Contains(0x300)).To(BeFalse())
			Expect(c.Stats()).To(Equal(cache.Statistics{}))
		})
	})

	Describe("Default configurations", func() {
		It("should create the flash accelerator config", func() {
			config := cache.DefaultFlashConfig()
			Expect(config.Size).To(Equal(1024))
			Expect(config.BlockSize).To(Equal(16))
			Expect(config.MissLatency).To(Equal(uint64(5)))
		})
	})
})
