package aio

import (
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// slot is the bookkeeping record of one in-flight request.
type slot struct {
	buf       []byte
	offset    int64
	method    Method
	initiator IO
	priv      any
	submitted time.Time
}

// slotPool is a fixed arena of slots with a LIFO free list. Borrowed slots
// are tracked in a bitset so a double release is caught immediately.
type slotPool struct {
	slots    []slot
	free     []int32
	borrowed *bitset.BitSet
}

func newSlotPool(n int) *slotPool {
	p := &slotPool{
		slots:    make([]slot, n),
		free:     make([]int32, n),
		borrowed: bitset.New(uint(n)),
	}
	// Hand out low indices first.
	for i := range p.free {
		p.free[i] = int32(n - 1 - i)
	}
	return p
}

// acquire pops a free slot.
func (p *slotPool) acquire() (int32, error) {
	n := len(p.free)
	if n == 0 {
		return -1, ErrPoolExhausted
	}
	id := p.free[n-1]
	p.free = p.free[:n-1]
	p.borrowed.Set(uint(id))
	return id, nil
}

// get returns the record of a borrowed slot.
func (p *slotPool) get(id int32) *slot {
	return &p.slots[id]
}

// release clears the record and returns the slot to the free list.
func (p *slotPool) release(id int32) {
	if id < 0 || int(id) >= len(p.slots) {
		panic(fmt.Sprintf("aio: release of unknown slot %d", id))
	}
	if !p.borrowed.Test(uint(id)) {
		panic(fmt.Sprintf("aio: double release of slot %d", id))
	}
	p.borrowed.Clear(uint(id))
	p.slots[id] = slot{}
	p.free = append(p.free, id)
}

// Cap returns the number of slots.
func (p *slotPool) Cap() int { return len(p.slots) }

// Free returns the number of slots available.
func (p *slotPool) Free() int { return len(p.free) }

// InUse returns the number of borrowed slots.
func (p *slotPool) InUse() int { return int(p.borrowed.Count()) }
