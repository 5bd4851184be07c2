// Package bufpool provides the per-worker pool of block-aligned I/O buffers.
//
// All entries are carved out of one arena. Entries are handed out in
// circular (FIFO) order so a just-released buffer is the last to be reused,
// and a bitset tracks which entries are currently owned.
package bufpool

import (
	"fmt"
	"os"

	"github.com/bits-and-blooms/bitset"
	"github.com/limkeunhak/FlashX/internal/mem"
)

// EntriesPerWorker returns how many page-sized entries each worker receives
// out of a total page budget shared by all workers on all NUMA nodes.
// Every worker gets at least one entry.
func EntriesPerWorker(totalPages, workers, numaNodes int) int {
	if workers <= 0 {
		workers = 1
	}
	if numaNodes <= 0 {
		numaNodes = 1
	}
	return max(totalPages/workers/numaNodes, 1)
}

// Pool is a fixed set of equally sized, aligned buffers.
// A Pool is not safe for concurrent use; each worker owns its own.
type Pool struct {
	arena     []byte
	base      uintptr
	entrySize int
	mapped    bool

	// ring of free entry indices
	free []int32
	head int
	n    int

	owned *bitset.BitSet
}

// New creates a pool of entries buffers of entrySize bytes, each aligned to
// align. entrySize must be a multiple of align.
func New(entries, entrySize, align int) (*Pool, error) {
	if entries <= 0 {
		return nil, fmt.Errorf("bufpool: entries must be positive, got %d", entries)
	}
	if !mem.IsPowerOfTwo(align) || entrySize <= 0 || entrySize%align != 0 {
		return nil, fmt.Errorf("bufpool: entry size %d is not a multiple of alignment %d", entrySize, align)
	}

	size := entries * entrySize
	p := &Pool{
		entrySize: entrySize,
		free:      make([]int32, entries),
		n:         entries,
		owned:     bitset.New(uint(entries)),
	}

	// Page-aligned mappings keep large arenas off the GC heap.
	if align <= os.Getpagesize() {
		if arena, err := mem.MapAnonymous(size); err == nil {
			p.arena = arena
			p.mapped = true
		}
	}
	if p.arena == nil {
		p.arena = mem.AllocAligned(size, align)
	}
	p.base = mem.Addr(p.arena)

	for i := range p.free {
		p.free[i] = int32(i)
	}
	return p, nil
}

// Get returns the next free entry, sized to EntrySize. It returns false if
// every entry is currently owned.
func (p *Pool) Get() ([]byte, bool) {
	if p.n == 0 {
		return nil, false
	}
	idx := int(p.free[p.head])
	p.head = (p.head + 1) % len(p.free)
	p.n--
	p.owned.Set(uint(idx))

	off := idx * p.entrySize
	return p.arena[off : off+p.entrySize : off+p.entrySize], true
}

// Put returns an entry to the pool. buf may be any prefix of an entry
// obtained from Get. Releasing a foreign buffer or releasing an entry twice
// is a programming error and panics.
func (p *Pool) Put(buf []byte) {
	idx := p.index(buf)
	if !p.owned.Test(uint(idx)) {
		panic(fmt.Sprintf("bufpool: entry %d released twice", idx))
	}
	p.owned.Clear(uint(idx))

	tail := (p.head + p.n) % len(p.free)
	p.free[tail] = int32(idx)
	p.n++
}

func (p *Pool) index(buf []byte) int {
	addr := mem.Addr(buf)
	if addr < p.base || addr >= p.base+uintptr(len(p.arena)) {
		panic("bufpool: buffer does not belong to this pool")
	}
	rel := int(addr - p.base)
	if rel%p.entrySize != 0 {
		panic("bufpool: buffer does not start at an entry boundary")
	}
	return rel / p.entrySize
}

// EntrySize returns the size of each entry in bytes.
func (p *Pool) EntrySize() int { return p.entrySize }

// Cap returns the total number of entries.
func (p *Pool) Cap() int { return len(p.free) }

// Available returns the number of entries that can be obtained without
// releasing any.
func (p *Pool) Available() int { return p.n }

// InUse returns the number of entries currently owned by callers.
func (p *Pool) InUse() int { return int(p.owned.Count()) }

// Bytes returns the arena size in bytes.
func (p *Pool) Bytes() int64 { return int64(len(p.arena)) }

// Close releases the arena. Entries must not be used afterwards.
func (p *Pool) Close() error {
	if p.InUse() > 0 {
		return fmt.Errorf("bufpool: %d entries still in use", p.InUse())
	}
	var err error
	if p.mapped {
		err = mem.Unmap(p.arena)
	}
	p.arena = nil
	p.n = 0
	return err
}
