package workload

import (
	"math/bits"
	"math/rand"
)

// Sequential walks [start, end) in steps of size.
type Sequential struct {
	next, end int64
	size      int
	dir       direction
}

// NewSequential returns a generator over [start, end) in steps of size. The
// last item is truncated at end.
func NewSequential(start, end int64, size int, mix Mix) *Sequential {
	return &Sequential{next: start, end: end, size: size, dir: mix.direction()}
}

func (g *Sequential) HasNext() bool { return g.size > 0 && g.next < g.end }

func (g *Sequential) Next() Item {
	size := int(min(int64(g.size), g.end-g.next))
	it := Item{Offset: g.next, Size: size, Read: g.dir.read()}
	g.next += int64(size)
	return it
}

// Stride yields up to count items of size bytes, stride bytes apart. It
// stops early at the first item that would cross end.
type Stride struct {
	next   int64
	end    int64
	stride int64
	size   int
	left   int
	dir    direction
}

// NewStride returns a strided generator over [start, end).
func NewStride(start, end, stride int64, size, count int, mix Mix) *Stride {
	return &Stride{next: start, end: end, stride: stride, size: size, left: count, dir: mix.direction()}
}

func (g *Stride) HasNext() bool { return g.left > 0 && g.next+int64(g.size) <= g.end }

func (g *Stride) Next() Item {
	it := Item{Offset: g.next, Size: g.size, Read: g.dir.read()}
	g.next += g.stride
	g.left--
	return it
}

// Random yields count items at uniformly random size-aligned offsets in
// [start, end).
type Random struct {
	start int64
	slots int64
	size  int
	left  int
	rng   *rand.Rand
	dir   direction
}

// NewRandom returns a seeded random generator.
func NewRandom(seed, start, end int64, size, count int, mix Mix) *Random {
	slots := int64(0)
	if size > 0 && end > start {
		slots = (end - start) / int64(size)
	}
	if slots == 0 {
		count = 0
	}
	return &Random{
		start: start,
		slots: slots,
		size:  size,
		left:  count,
		rng:   rand.New(rand.NewSource(seed)),
		dir:   mix.direction(),
	}
}

func (g *Random) HasNext() bool { return g.left > 0 }

func (g *Random) Next() Item {
	g.left--
	off := g.start + g.rng.Int63n(g.slots)*int64(g.size)
	return Item{Offset: off, Size: g.size, Read: g.dir.read()}
}

// Permutation visits every size-aligned slot of [start, end) exactly once in
// a seeded pseudo-random order, in constant memory.
//
// The order comes from a full-period linear congruential walk over the
// smallest power of two covering the slot count, scrambled by a bijective
// xorshift-multiply. Values outside [0, slots) are skipped, so at most two
// steps are taken per item on average.
type Permutation struct {
	start int64
	size  int
	slots uint64
	left  uint64

	mask, shift uint64
	mul, inc    uint64
	scramble    uint64
	x           uint64

	dir direction
}

// NewPermutation returns a seeded permutation generator.
func NewPermutation(seed, start, end int64, size int, mix Mix) *Permutation {
	var slots uint64
	if size > 0 && end > start {
		slots = uint64((end - start) / int64(size))
	}
	var width uint64
	if slots > 1 {
		width = uint64(bits.Len64(slots - 1))
	}
	rng := rand.New(rand.NewSource(seed))
	mask := uint64(1)<<width - 1
	return &Permutation{
		start: start,
		size:  size,
		slots: slots,
		left:  slots,
		mask:  mask,
		shift: width/2 + 1,
		// Hull-Dobell: an odd increment and mul = 1 mod 4 give a full period
		// modulo any power of two.
		mul:      rng.Uint64()<<2 | 1,
		inc:      rng.Uint64() | 1,
		scramble: rng.Uint64() | 1,
		x:        rng.Uint64() & mask,
		dir:      mix.direction(),
	}
}

func (g *Permutation) HasNext() bool { return g.left > 0 }

func (g *Permutation) Next() Item {
	g.left--
	slot := g.step()
	for slot >= g.slots {
		slot = g.step()
	}
	return Item{Offset: g.start + int64(slot)*int64(g.size), Size: g.size, Read: g.dir.read()}
}

func (g *Permutation) step() uint64 {
	g.x = (g.x*g.mul + g.inc) & g.mask
	y := g.x ^ g.x>>g.shift
	return y * g.scramble & g.mask
}

// Slice yields a fixed list of items in order.
type Slice struct {
	items []Item
}

// NewSlice returns a generator over items. The slice is not copied.
func NewSlice(items []Item) *Slice { return &Slice{items: items} }

func (g *Slice) HasNext() bool { return len(g.items) > 0 }

func (g *Slice) Next() Item {
	it := g.items[0]
	g.items = g.items[1:]
	return it
}
