package mem

import (
	"fmt"
	"unsafe"
)

// DefaultAlignment is the smallest block granularity accepted by direct I/O
// on common Linux block devices.
const DefaultAlignment = 512

// AllocAligned allocates a byte slice of the given size whose first byte sits
// at an address divisible by align. align must be a power of two.
//
// Note: This function allocates align-1 bytes more than requested to ensure
// alignment. The underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if !IsPowerOfTwo(align) {
		panic(fmt.Sprintf("mem: alignment %d is not a power of two", align))
	}

	buf := make([]byte, size+align-1)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := (uintptr(align) - (addr & uintptr(align-1))) & uintptr(align-1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// Addr returns the address of the first byte of b, or 0 for an empty slice.
func Addr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b))) //nolint:gosec // address inspection only
}

// IsAligned reports whether the first byte of b sits on an align boundary.
func IsAligned(b []byte, align int) bool {
	return Addr(b)%uintptr(align) == 0
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// RoundDown rounds n down to a multiple of align.
func RoundDown(n, align int64) int64 {
	return n / align * align
}
