package kaio

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrNotSupported is returned when a backend is not available on this platform.
var ErrNotSupported = errors.New("kaio: backend not supported on this platform")

// ErrQueueFull is returned by Submit when the batch exceeds the free capacity.
var ErrQueueFull = errors.New("kaio: queue full")

// Op is the direction of a request.
type Op uint8

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Request provides inputs to an asynchronous I/O operation. The caller must
// keep Buf valid and untouched until the matching Completion is returned.
type Request struct {
	ID  uint64 // copied to Completion.ID
	Op  Op
	FD  int32
	Off int64
	Buf []byte
}

// Completion is the result of a Request.
type Completion struct {
	ID uint64
	// Result is the number of bytes transferred, or a negated errno.
	Result int64
}

// Err returns the error carried by a negative Result, or nil.
func (c Completion) Err() error {
	if c.Result >= 0 {
		return nil
	}
	return syscall.Errno(-c.Result)
}

// Queue is a bounded kernel I/O queue.
type Queue interface {
	// Cap returns the maximum number of requests in flight.
	Cap() int

	// Submit hands reqs to the kernel and returns how many were accepted.
	// Preconditions: len(reqs) <= Cap() minus the requests in flight.
	Submit(reqs []Request) (int, error)

	// Wait blocks until at least minCompletions requests have completed (or
	// every in-flight request, if fewer), appends their completions to cs
	// and returns the extended slice.
	Wait(cs []Completion, minCompletions int) ([]Completion, error)

	// Destroy releases the queue. Requests still in flight are abandoned, so
	// callers drain first.
	Destroy() error
}

// Backend selects a Queue implementation.
type Backend string

const (
	// BackendAuto uses native AIO when available and falls back to goroutines.
	BackendAuto Backend = "auto"
	// BackendNative requires Linux native AIO.
	BackendNative Backend = "native"
	// BackendGo services requests with blocking syscalls on goroutines.
	BackendGo Backend = "go"
)

// New creates a queue of the given depth on the selected backend.
func New(backend Backend, depth int) (Queue, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("kaio: depth must be positive, got %d", depth)
	}
	switch backend {
	case BackendNative:
		q, err := NewNativeQueue(depth)
		if err != nil {
			return nil, err
		}
		return q, nil
	case BackendGo:
		return NewGoQueue(depth), nil
	case BackendAuto, "":
		q, err := NewNativeQueue(depth)
		if err == nil {
			return q, nil
		}
		return NewGoQueue(depth), nil
	default:
		return nil, fmt.Errorf("kaio: unknown backend %q", backend)
	}
}
