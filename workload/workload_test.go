package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(g Generator) []Item {
	var out []Item
	for g.HasNext() {
		out = append(out, g.Next())
	}
	return out
}

func TestAppendPages(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want []Item
	}{
		{"inside", Item{Offset: 100, Size: 200}, []Item{{Offset: 100, Size: 200}}},
		{"exact", Item{Offset: 4096, Size: 4096, Read: true}, []Item{{Offset: 4096, Size: 4096, Read: true}}},
		{"straddle", Item{Offset: 4000, Size: 200}, []Item{
			{Offset: 4000, Size: 96},
			{Offset: 4096, Size: 104},
		}},
		{"three pages", Item{Offset: 2048, Size: 8192, Read: true}, []Item{
			{Offset: 2048, Size: 2048, Read: true},
			{Offset: 4096, Size: 4096, Read: true},
			{Offset: 8192, Size: 2048, Read: true},
		}},
		{"empty", Item{Offset: 10}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendPages(nil, tt.item, 4096)
			assert.Equal(t, tt.want, got)

			var total int
			for _, p := range got {
				total += p.Size
				assert.Equal(t, p.Offset/4096, (p.End()-1)/4096, "piece crosses a page")
			}
			assert.Equal(t, tt.item.Size, total)
		})
	}
}

func TestSequential(t *testing.T) {
	items := drain(NewSequential(0, 10000, 4096, WriteOnly))
	require.Len(t, items, 3)
	assert.Equal(t, Item{Offset: 8192, Size: 10000 - 8192}, items[2])
	for _, it := range items {
		assert.False(t, it.Read)
	}

	assert.False(t, NewSequential(0, 100, 0, ReadOnly).HasNext())
}

func TestStride(t *testing.T) {
	items := drain(NewStride(512, 1<<20, 8192, 512, 4, ReadOnly))
	require.Len(t, items, 4)
	for i, it := range items {
		assert.Equal(t, int64(512+i*8192), it.Offset)
		assert.True(t, it.Read)
	}
}

func TestStride_StopsAtEnd(t *testing.T) {
	items := drain(NewStride(0, 5*4096, 4096, 4096, 1000, WriteOnly))
	require.Len(t, items, 5)
	assert.Equal(t, int64(5*4096), items[4].End())

	// A partial last item is not generated.
	assert.Len(t, drain(NewStride(0, 4096+100, 4096, 4096, 10, WriteOnly)), 1)
	assert.False(t, NewStride(8192, 4096, 4096, 4096, 10, WriteOnly).HasNext())
}

func TestRandom(t *testing.T) {
	a := drain(NewRandom(42, 4096, 1<<20, 4096, 100, ReadOnly))
	b := drain(NewRandom(42, 4096, 1<<20, 4096, 100, ReadOnly))
	require.Len(t, a, 100)
	assert.Equal(t, a, b, "same seed, same sequence")

	for _, it := range a {
		assert.GreaterOrEqual(t, it.Offset, int64(4096))
		assert.LessOrEqual(t, it.End(), int64(1<<20))
		assert.Zero(t, (it.Offset-4096)%4096)
	}

	assert.False(t, NewRandom(1, 0, 100, 4096, 10, ReadOnly).HasNext())
}

func TestPermutation(t *testing.T) {
	items := drain(NewPermutation(7, 0, 64*4096, 4096, ReadOnly))
	require.Len(t, items, 64)

	seen := map[int64]bool{}
	for _, it := range items {
		assert.False(t, seen[it.Offset], "offset %d visited twice", it.Offset)
		seen[it.Offset] = true
	}
	assert.Len(t, seen, 64)
}

func TestPermutation_VisitsEverySlotOnce(t *testing.T) {
	for _, slots := range []int{1, 2, 3, 7, 100, 4097} {
		items := drain(NewPermutation(int64(slots), 4096, 4096+int64(slots)*512, 512, ReadOnly))
		require.Len(t, items, slots)

		seen := make(map[int64]bool, slots)
		for _, it := range items {
			assert.GreaterOrEqual(t, it.Offset, int64(4096))
			assert.Less(t, it.Offset, 4096+int64(slots)*512)
			seen[it.Offset] = true
		}
		assert.Len(t, seen, slots, "slots=%d", slots)
	}

	a := drain(NewPermutation(3, 0, 100*4096, 4096, ReadOnly))
	b := drain(NewPermutation(3, 0, 100*4096, 4096, ReadOnly))
	assert.Equal(t, a, b, "same seed, same order")
	assert.NotEqual(t, a, drain(NewPermutation(4, 0, 100*4096, 4096, ReadOnly)))
}

func TestPermutation_LargeRange(t *testing.T) {
	// 2^28 slots: the generator must not materialize the order.
	g := NewPermutation(11, 0, 1<<40, 4096, ReadOnly)
	seen := map[int64]bool{}
	for i := 0; i < 10000; i++ {
		require.True(t, g.HasNext())
		it := g.Next()
		assert.Less(t, it.Offset, int64(1<<40))
		assert.Zero(t, it.Offset%4096)
		seen[it.Offset] = true
	}
	assert.Len(t, seen, 10000)
}

func TestSlice(t *testing.T) {
	in := []Item{{Offset: 0, Size: 512}, {Offset: 512, Size: 512, Read: true}}
	assert.Equal(t, in, drain(NewSlice(in)))
	assert.Zero(t, Count(NewSlice(nil)))
}

func TestMix(t *testing.T) {
	g := NewSequential(0, 10000*512, 512, Mix{ReadRatio: 0.3, Seed: 1})
	var reads int
	items := drain(g)
	for _, it := range items {
		if it.Read {
			reads++
		}
	}
	ratio := float64(reads) / float64(len(items))
	assert.InDelta(t, 0.3, ratio, 0.05)
}

func TestConfig_ForWorker(t *testing.T) {
	t.Run("sequential covers the range once", func(t *testing.T) {
		cfg := Config{Kind: KindSequential, Start: 0, End: 10 * 4096, Size: 4096}
		require.NoError(t, cfg.Validate())

		covered := map[int64]int{}
		for w := 0; w < 3; w++ {
			for _, it := range drain(cfg.ForWorker(w, 3)) {
				covered[it.Offset]++
			}
		}
		assert.Len(t, covered, 10)
		for off, n := range covered {
			assert.Equal(t, 1, n, "offset %d", off)
		}
	})

	t.Run("stride interleaves", func(t *testing.T) {
		cfg := Config{Kind: KindStride, Start: 0, End: 1 << 20, Size: 4096, Count: 8}
		w0 := drain(cfg.ForWorker(0, 2))
		w1 := drain(cfg.ForWorker(1, 2))
		require.Len(t, w0, 4)
		require.Len(t, w1, 4)
		assert.Equal(t, int64(0), w0[0].Offset)
		assert.Equal(t, int64(8192), w0[1].Offset)
		assert.Equal(t, int64(4096), w1[0].Offset)
	})

	t.Run("stride count is bounded by the range", func(t *testing.T) {
		cfg := Config{Kind: KindStride, Start: 0, End: 512 << 10, Size: 4096, Count: 1000}
		require.NoError(t, cfg.Validate())

		var total int64
		for w := 0; w < 2; w++ {
			for _, it := range drain(cfg.ForWorker(w, 2)) {
				assert.LessOrEqual(t, it.End(), cfg.End)
				total += int64(it.Size)
			}
		}
		assert.Equal(t, cfg.End, total)
	})

	t.Run("random splits the count", func(t *testing.T) {
		cfg := Config{Kind: KindRandom, Start: 0, End: 1 << 20, Size: 4096, Count: 7}
		assert.Equal(t, 4, Count(cfg.ForWorker(0, 2)))
		assert.Equal(t, 3, Count(cfg.ForWorker(1, 2)))
	})

	t.Run("permutation", func(t *testing.T) {
		cfg := Config{Kind: KindPermutation, Start: 0, End: 8 * 4096, Size: 4096}
		assert.Equal(t, 4, Count(cfg.ForWorker(0, 2)))
		assert.Equal(t, 4, Count(cfg.ForWorker(1, 2)))
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []Config{
		{Size: 0, End: 1},
		{Size: 1, Start: 5, End: 5},
		{Size: 1, End: 1, ReadRatio: 2},
		{Size: 1, End: 1, Kind: "zigzag"},
		{Size: 1, End: 1, Kind: KindRandom, Count: -1},
		{Size: 4096, Start: -8192, End: 8192},
		{Size: 4096, End: 8192, Kind: KindStride, Stride: -4096, Count: 1},
	}
	for _, cfg := range tests {
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, "%+v", cfg)
	}
}

func BenchmarkAppendPages(b *testing.B) {
	dst := make([]Item, 0, 16)
	it := Item{Offset: 1000, Size: 5 * 4096}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dst = AppendPages(dst[:0], it, 4096)
	}
}
