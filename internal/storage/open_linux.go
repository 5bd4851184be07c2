//go:build linux

package storage

import (
	"errors"

	"github.com/limkeunhak/FlashX/internal/fs"
	"golang.org/x/sys/unix"
)

const directFlag = unix.O_DIRECT

// preallocate reserves size bytes for f, falling back to a sparse truncate
// where fallocate is unsupported.
func preallocate(f fs.File, size int64) error {
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
		return f.Truncate(size)
	}
	return err
}
