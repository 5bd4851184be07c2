//go:build unix

package mem

import "golang.org/x/sys/unix"

// MapAnonymous maps size bytes of private anonymous memory. The mapping is
// page aligned and lives outside the Go heap, so the GC never scans it.
// Release it with Unmap.
func MapAnonymous(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Unmap releases memory obtained from MapAnonymous.
func Unmap(b []byte) error {
	return unix.Munmap(b)
}
