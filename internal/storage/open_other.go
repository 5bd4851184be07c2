//go:build !linux

package storage

import "github.com/limkeunhak/FlashX/internal/fs"

// Direct I/O is only wired up on Linux.
const directFlag = 0

func preallocate(f fs.File, size int64) error {
	return f.Truncate(size)
}
