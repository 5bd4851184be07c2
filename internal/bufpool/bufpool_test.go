package bufpool

import (
	"testing"

	"github.com/limkeunhak/FlashX/internal/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntriesPerWorker(t *testing.T) {
	tests := []struct {
		total, workers, nodes, want int
	}{
		{40960 * 4, 4, 1, 40960},
		{40960 * 4, 4, 2, 20480},
		{10, 4, 1, 2},
		{1, 8, 4, 1},
		{100, 0, 0, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EntriesPerWorker(tt.total, tt.workers, tt.nodes))
	}
}

func TestPool_GetPut(t *testing.T) {
	p, err := New(4, 4096, 512)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Close()) }()

	assert.Equal(t, 4, p.Cap())
	assert.Equal(t, int64(4*4096), p.Bytes())

	bufs := make([][]byte, 0, 4)
	for i := 0; i < 4; i++ {
		b, ok := p.Get()
		require.True(t, ok)
		assert.Len(t, b, 4096)
		assert.True(t, mem.IsAligned(b, 512))
		bufs = append(bufs, b)
	}
	assert.Equal(t, 0, p.Available())
	assert.Equal(t, 4, p.InUse())

	_, ok := p.Get()
	assert.False(t, ok, "exhausted pool must report false")

	for _, b := range bufs {
		p.Put(b)
	}
	assert.Equal(t, 4, p.Available())
	assert.Equal(t, 0, p.InUse())
}

func TestPool_CircularOrder(t *testing.T) {
	p, err := New(3, 512, 512)
	require.NoError(t, err)
	defer p.Close()

	a, _ := p.Get()
	p.Put(a)

	b, _ := p.Get()
	assert.NotEqual(t, mem.Addr(a), mem.Addr(b), "released entry goes to the back of the ring")
	p.Put(b)
}

func TestPool_PutPrefix(t *testing.T) {
	p, err := New(2, 4096, 512)
	require.NoError(t, err)
	defer p.Close()

	b, _ := p.Get()
	p.Put(b[:512])
	assert.Equal(t, 0, p.InUse())
}

func TestPool_Misuse(t *testing.T) {
	p, err := New(2, 4096, 512)
	require.NoError(t, err)

	b, _ := p.Get()
	p.Put(b)
	assert.Panics(t, func() { p.Put(b) }, "double release")
	assert.Panics(t, func() { p.Put(make([]byte, 4096)) }, "foreign buffer")

	c, _ := p.Get()
	assert.Panics(t, func() { p.Put(c[512:]) }, "interior pointer")

	assert.Error(t, p.Close(), "close with entries in use")
	p.Put(c)
	require.NoError(t, p.Close())
}

func TestNew_InvalidArgs(t *testing.T) {
	_, err := New(0, 4096, 512)
	assert.Error(t, err)
	_, err = New(1, 1000, 512)
	assert.Error(t, err)
	_, err = New(1, 4096, 3)
	assert.Error(t, err)
}

func BenchmarkPool_GetPut(b *testing.B) {
	p, err := New(64, 4096, 4096)
	require.NoError(b, err)
	defer p.Close()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf, _ := p.Get()
		p.Put(buf)
	}
}
