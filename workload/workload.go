// Package workload produces the logical access streams workers execute.
//
// A Generator yields Items lazily; it cannot be restarted. Items describe
// byte ranges that may span several pages; AppendPages splits them into
// page-bounded pieces before they are turned into I/O requests.
package workload

import (
	"fmt"
	"math/rand"
)

// Item is one logical access.
type Item struct {
	Offset int64
	Size   int
	Read   bool
}

// End returns the offset one past the last byte of the item.
func (it Item) End() int64 { return it.Offset + int64(it.Size) }

func (it Item) String() string {
	dir := "write"
	if it.Read {
		dir = "read"
	}
	return fmt.Sprintf("%s[%d,+%d)", dir, it.Offset, it.Size)
}

// Generator yields the items of a workload.
type Generator interface {
	HasNext() bool
	Next() Item
}

// Mix decides the direction of generated items.
type Mix struct {
	// ReadRatio is the fraction of reads, from 0 (writes only) to 1 (reads
	// only).
	ReadRatio float64

	// Seed seeds the direction choice when 0 < ReadRatio < 1.
	Seed int64
}

var (
	// ReadOnly generates reads only.
	ReadOnly = Mix{ReadRatio: 1}
	// WriteOnly generates writes only.
	WriteOnly = Mix{ReadRatio: 0}
)

type direction struct {
	ratio float64
	rng   *rand.Rand
}

func (m Mix) direction() direction {
	d := direction{ratio: m.ReadRatio}
	if m.ReadRatio > 0 && m.ReadRatio < 1 {
		d.rng = rand.New(rand.NewSource(m.Seed))
	}
	return d
}

func (d direction) read() bool {
	switch {
	case d.ratio >= 1:
		return true
	case d.ratio <= 0:
		return false
	default:
		return d.rng.Float64() < d.ratio
	}
}

// AppendPages splits it at pageSize boundaries and appends the pieces to
// dst. An item inside a single page is appended unchanged.
func AppendPages(dst []Item, it Item, pageSize int64) []Item {
	off, end := it.Offset, it.End()
	for off < end {
		next := min((off/pageSize+1)*pageSize, end)
		dst = append(dst, Item{Offset: off, Size: int(next - off), Read: it.Read})
		off = next
	}
	return dst
}

// Count drains g and returns the number of items it yielded.
func Count(g Generator) int {
	n := 0
	for g.HasNext() {
		g.Next()
		n++
	}
	return n
}
