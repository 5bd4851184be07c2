// Package pattern generates and checks offset-derived file content.
//
// Every 8-byte little-endian word at absolute byte position p (p a multiple
// of 8) holds p/8. Content at any offset is therefore known without an oracle
// file, and a read that lands on the wrong offset or returns stale bytes is
// detected.
package pattern

import (
	"encoding/binary"
	"fmt"
)

// WordSize is the width of one pattern cell in bytes.
const WordSize = 8

// Mismatch describes the first byte that differs from the expected pattern.
type Mismatch struct {
	Offset   int64 // absolute byte position
	Expected byte
	Actual   byte
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("pattern mismatch at offset %d: expected 0x%02x, got 0x%02x", m.Offset, m.Expected, m.Actual)
}

// ByteAt returns the pattern byte stored at absolute position pos.
func ByteAt(pos int64) byte {
	word := uint64(pos / WordSize)
	return byte(word >> (8 * uint(pos%WordSize)))
}

// Fill writes the pattern for [off, off+len(buf)) into buf.
func Fill(buf []byte, off int64) {
	i := 0
	// Leading partial word.
	for ; i < len(buf) && (off+int64(i))%WordSize != 0; i++ {
		buf[i] = ByteAt(off + int64(i))
	}
	word := uint64((off + int64(i)) / WordSize)
	for ; i+WordSize <= len(buf); i += WordSize {
		binary.LittleEndian.PutUint64(buf[i:], word)
		word++
	}
	for ; i < len(buf); i++ {
		buf[i] = ByteAt(off + int64(i))
	}
}

// Verify checks buf against the pattern for [off, off+len(buf)). It returns
// a *Mismatch for the first differing byte, or nil.
func Verify(buf []byte, off int64) error {
	i := 0
	for ; i < len(buf) && (off+int64(i))%WordSize != 0; i++ {
		if err := checkByte(buf[i], off+int64(i)); err != nil {
			return err
		}
	}
	word := uint64((off + int64(i)) / WordSize)
	for ; i+WordSize <= len(buf); i += WordSize {
		if binary.LittleEndian.Uint64(buf[i:]) != word {
			// Locate the exact byte for the report.
			for j := 0; j < WordSize; j++ {
				if err := checkByte(buf[i+j], off+int64(i+j)); err != nil {
					return err
				}
			}
		}
		word++
	}
	for ; i < len(buf); i++ {
		if err := checkByte(buf[i], off+int64(i)); err != nil {
			return err
		}
	}
	return nil
}

func checkByte(actual byte, pos int64) error {
	if expected := ByteAt(pos); actual != expected {
		return &Mismatch{Offset: pos, Expected: expected, Actual: actual}
	}
	return nil
}
