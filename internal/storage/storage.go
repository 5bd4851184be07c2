// Package storage opens the backing files of a run and maps the engine's
// global byte offsets onto them.
//
// Files are striped RAID-0 style: the global address space is cut into
// stripe units handed to the files round-robin. A request must fit inside a
// single stripe unit when more than one file is open.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/limkeunhak/FlashX/internal/fs"
)

// DefaultStripeSize is the stripe unit used when Config.StripeSize is zero.
const DefaultStripeSize = 64 << 10

// ErrNoFiles is returned when a FileSet is opened without paths.
var ErrNoFiles = errors.New("storage: no backing files")

// Config describes the backing files.
type Config struct {
	// Paths of the files or block devices.
	Paths []string

	// Direct opens the files with O_DIRECT. File systems without direct I/O
	// support (tmpfs) reject the flag.
	Direct bool

	// Create creates missing files and sizes each one to FileSize.
	Create bool

	// FileSize is the size of each file when Create is set.
	FileSize int64

	// StripeSize is the stripe unit in bytes. Defaults to DefaultStripeSize.
	StripeSize int64

	// FS is the file system used to open files. Defaults to fs.Default.
	FS fs.FileSystem
}

// FileSet is an open set of striped backing files.
type FileSet struct {
	files    []fs.File
	fds      []int32
	stripe   int64
	fileSize int64
}

// Open opens every path in cfg. On failure the files opened so far are closed.
func Open(cfg Config) (*FileSet, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoFiles
	}
	if cfg.StripeSize == 0 {
		cfg.StripeSize = DefaultStripeSize
	}
	if cfg.StripeSize < 0 {
		return nil, fmt.Errorf("storage: invalid stripe size %d", cfg.StripeSize)
	}
	if cfg.FS == nil {
		cfg.FS = fs.Default
	}

	flag := os.O_RDWR
	if cfg.Direct {
		flag |= directFlag
	}
	if cfg.Create {
		flag |= os.O_CREATE
	}

	s := &FileSet{stripe: cfg.StripeSize, fileSize: -1}
	for _, path := range cfg.Paths {
		if cfg.Create {
			if err := cfg.FS.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				s.Close()
				return nil, fmt.Errorf("storage: create %s: %w", path, err)
			}
		}
		f, err := cfg.FS.OpenFile(path, flag, 0o644)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("storage: open %s: %w", path, err)
		}
		s.files = append(s.files, f)
		s.fds = append(s.fds, int32(f.Fd()))

		if cfg.Create && cfg.FileSize > 0 {
			if err := preallocate(f, cfg.FileSize); err != nil {
				s.Close()
				return nil, fmt.Errorf("storage: preallocate %s: %w", path, err)
			}
		}

		size, err := fileSize(f)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("storage: stat %s: %w", path, err)
		}
		if s.fileSize < 0 || size < s.fileSize {
			s.fileSize = size
		}
	}
	return s, nil
}

func fileSize(f fs.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Len returns the number of files.
func (s *FileSet) Len() int { return len(s.files) }

// StripeSize returns the stripe unit in bytes.
func (s *FileSet) StripeSize() int64 { return s.stripe }

// Capacity returns the addressable size of the set: the smallest file,
// rounded down to whole stripe units, times the number of files.
func (s *FileSet) Capacity() int64 {
	if len(s.files) == 1 {
		return s.fileSize
	}
	return s.fileSize / s.stripe * s.stripe * int64(len(s.files))
}

// Locate maps a global offset to a file index and the offset inside that
// file. ok is false when [off, off+size) crosses a stripe unit of a
// multi-file set.
func (s *FileSet) Locate(off int64, size int) (idx int, local int64, ok bool) {
	n := int64(len(s.files))
	if n == 1 {
		return 0, off, true
	}
	unit := off / s.stripe
	within := off % s.stripe
	idx = int(unit % n)
	local = unit/n*s.stripe + within
	return idx, local, within+int64(size) <= s.stripe
}

// FD returns the descriptor of file idx.
func (s *FileSet) FD(idx int) int32 { return s.fds[idx] }

// File returns file idx.
func (s *FileSet) File(idx int) fs.File { return s.files[idx] }

// ReadAt reads len(p) bytes from file idx at its local offset off.
func (s *FileSet) ReadAt(idx int, p []byte, off int64) (int, error) {
	return s.files[idx].ReadAt(p, off)
}

// WriteAt writes p to file idx at its local offset off.
func (s *FileSet) WriteAt(idx int, p []byte, off int64) (int, error) {
	return s.files[idx].WriteAt(p, off)
}

// Sync flushes every file.
func (s *FileSet) Sync() error {
	var errs []error
	for _, f := range s.files {
		if err := f.Sync(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every file.
func (s *FileSet) Close() error {
	var errs []error
	for _, f := range s.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.files, s.fds = nil, nil
	return errors.Join(errs...)
}
