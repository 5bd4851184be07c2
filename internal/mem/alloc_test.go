package mem

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAligned(t *testing.T) {
	sizes := []int{1, 10, 511, 512, 513, 4096, 65536}
	aligns := []int{64, 512, 4096}

	for _, align := range aligns {
		for _, size := range sizes {
			buf := AllocAligned(size, align)
			assert.Len(t, buf, size)
			assert.Equal(t, size, cap(buf), "capacity must not leak into the padding")
			assert.True(t, IsAligned(buf, align), "size %d should be aligned to %d", size, align)
		}
	}

	assert.Nil(t, AllocAligned(0, 512))
	assert.Nil(t, AllocAligned(-1, 512))
}

func TestAllocAlignedRejectsBadAlignment(t *testing.T) {
	assert.Panics(t, func() { AllocAligned(16, 3) })
	assert.Panics(t, func() { AllocAligned(16, 0) })
}

func TestRoundDown(t *testing.T) {
	assert.Equal(t, int64(0), RoundDown(4095, 4096))
	assert.Equal(t, int64(1<<20), RoundDown(1<<20+100, 512))
	assert.Equal(t, int64(4096), RoundDown(8191, 4096))
}

func TestMapAnonymous(t *testing.T) {
	pageSize := os.Getpagesize()

	buf, err := MapAnonymous(4 * pageSize)
	require.NoError(t, err)
	defer func() { require.NoError(t, Unmap(buf)) }()

	assert.Len(t, buf, 4*pageSize)
	assert.True(t, IsAligned(buf, pageSize))

	buf[0], buf[len(buf)-1] = 1, 2
	assert.Equal(t, byte(1), buf[0])
}

func BenchmarkAllocAligned(b *testing.B) {
	sizes := []int{512, 4096, 65536}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = AllocAligned(size, 4096)
			}
		})
	}
}
