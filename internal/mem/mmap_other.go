//go:build !unix

package mem

import "os"

// MapAnonymous falls back to an aligned heap allocation on platforms without mmap.
func MapAnonymous(size int) ([]byte, error) {
	return AllocAligned(size, os.Getpagesize()), nil
}

// Unmap is a no-op for heap-backed arenas.
func Unmap([]byte) error { return nil }
