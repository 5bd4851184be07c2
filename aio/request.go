package aio

import (
	"fmt"

	"github.com/limkeunhak/FlashX/internal/kaio"
	"github.com/limkeunhak/FlashX/internal/mem"
)

// DefaultBlockSize is the alignment unit required of buffers, offsets and
// sizes when Config.BlockSize is zero.
const DefaultBlockSize = 512

// Method is the direction of a request.
type Method uint8

const (
	Read Method = iota
	Write
)

func (m Method) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

func (m Method) op() kaio.Op {
	if m == Write {
		return kaio.OpWrite
	}
	return kaio.OpRead
}

// Request describes one transfer between Buf and the byte range
// [Offset, Offset+len(Buf)) of the engine's target.
type Request struct {
	Buf    []byte
	Offset int64
	Method Method

	// Initiator is the IO that issued the request. When it carries a
	// callback, that callback runs instead of the engine's own.
	Initiator IO

	// Priv is opaque caller data handed back to the callback.
	Priv any
}

// Size returns the transfer size in bytes.
func (r *Request) Size() int { return len(r.Buf) }

// Callback is invoked once per completed request. err is a
// *CompletionError when the transfer failed or came up short. A non-nil
// return value is fatal: the engine stops accepting work and reports it.
type Callback interface {
	Invoke(req *Request, err error) error
}

// CallbackFunc adapts a function to Callback.
type CallbackFunc func(req *Request, err error) error

// Invoke calls f(req, err).
func (f CallbackFunc) Invoke(req *Request, err error) error { return f(req, err) }

// IO is the interface shared by the asynchronous Engine and SyncIO.
type IO interface {
	// Init prepares per-goroutine state. It is idempotent.
	Init() error

	// Cleanup waits for every outstanding request to complete.
	Cleanup() error

	// SupportAIO reports whether Access and WaitForCompletions are usable.
	SupportAIO() bool

	SetCallback(cb Callback)
	Callback() Callback

	// Access submits reqs and returns the number of bytes submitted.
	Access(reqs []Request) (int64, error)

	// AccessSync performs one blocking transfer.
	AccessSync(buf []byte, off int64, method Method) (int, error)

	// WaitForCompletions blocks until at least minCompletions requests have
	// completed and returns the free queue capacity.
	WaitForCompletions(minCompletions int) (int, error)
}

// checkAligned panics with *AlignmentError when buf or off break the
// block alignment contract.
func checkAligned(buf []byte, off int64, block int) {
	reason := ""
	switch {
	case len(buf) < block:
		reason = "size smaller than block"
	case len(buf)%block != 0:
		reason = "size not a block multiple"
	case off%int64(block) != 0:
		reason = "offset not block aligned"
	case !mem.IsAligned(buf, block):
		reason = "buffer not block aligned"
	default:
		return
	}
	panic(&AlignmentError{
		Offset:    off,
		Size:      len(buf),
		Addr:      mem.Addr(buf),
		BlockSize: block,
		Reason:    reason,
	})
}
