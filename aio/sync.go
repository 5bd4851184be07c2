package aio

import (
	"io"
	"time"

	"github.com/limkeunhak/FlashX/metrics"
)

// SyncIO performs blocking transfers only. It is used when asynchronous I/O
// is disabled.
type SyncIO struct {
	target   Target
	block    int
	cb       Callback
	observer metrics.Observer
}

var _ IO = (*SyncIO)(nil)

// NewSync creates a SyncIO over target. blockSize defaults to
// DefaultBlockSize.
func NewSync(target Target, blockSize int, opts ...Option) (*SyncIO, error) {
	if target == nil || target.Len() == 0 {
		return nil, invalidf("sync io needs a target with at least one file")
	}
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	if blockSize < 0 || blockSize&(blockSize-1) != 0 {
		return nil, invalidf("block size must be a power of two, got %d", blockSize)
	}
	o := buildOptions(opts)
	return &SyncIO{target: target, block: blockSize, cb: o.callback, observer: o.observer}, nil
}

func (s *SyncIO) Init() error      { return nil }
func (s *SyncIO) Cleanup() error   { return nil }
func (s *SyncIO) SupportAIO() bool { return false }

func (s *SyncIO) SetCallback(cb Callback) { s.cb = cb }
func (s *SyncIO) Callback() Callback      { return s.cb }

// Access is not supported.
func (s *SyncIO) Access([]Request) (int64, error) { return 0, ErrNotSupported }

// WaitForCompletions returns immediately: nothing is ever outstanding.
func (s *SyncIO) WaitForCompletions(int) (int, error) { return 0, nil }

// AccessSync transfers buf to or from [off, off+len(buf)). A transfer that
// comes up short returns a *CompletionError.
//
// A misaligned request panics with *AlignmentError.
func (s *SyncIO) AccessSync(buf []byte, off int64, method Method) (int, error) {
	checkAligned(buf, off, s.block)
	idx, local, ok := s.target.Locate(off, len(buf))
	if !ok {
		panic(&AlignmentError{
			Offset:    off,
			Size:      len(buf),
			BlockSize: s.block,
			Reason:    "request crosses a stripe boundary",
		})
	}

	start := time.Now()
	var (
		n   int
		err error
	)
	if method == Write {
		n, err = s.target.WriteAt(idx, buf, local)
	} else {
		n, err = s.target.ReadAt(idx, buf, local)
	}
	if n != len(buf) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		err = &CompletionError{Method: method, Offset: off, Size: len(buf), Result: int64(n), cause: err}
	} else {
		// ReaderAt may report io.EOF alongside a full read at end of file.
		err = nil
	}
	if s.observer != nil {
		s.observer.OnComplete(method.String(), int64(n), time.Since(start), err)
	}
	return n, err
}
