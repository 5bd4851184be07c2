package aio

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when an engine is used after Close.
	ErrClosed = errors.New("aio: engine closed")

	// ErrNotSupported is returned by the asynchronous operations of SyncIO.
	ErrNotSupported = errors.New("aio: asynchronous access not supported")

	// ErrPoolExhausted is returned when no callback slot is free.
	ErrPoolExhausted = errors.New("aio: callback slot pool exhausted")

	// ErrInvalidConfig is returned for an unusable engine configuration.
	ErrInvalidConfig = errors.New("aio: invalid config")
)

// AlignmentError describes a request that violates the alignment contract.
// Engines panic with it: a misaligned request is a caller bug.
type AlignmentError struct {
	Offset    int64
	Size      int
	Addr      uintptr
	BlockSize int
	Reason    string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("aio: misaligned request (off=%d size=%d addr=%#x block=%d): %s",
		e.Offset, e.Size, e.Addr, e.BlockSize, e.Reason)
}

// SubmitError reports a batch the kernel refused in full or in part.
type SubmitError struct {
	Requested int
	Accepted  int
	cause     error
}

func (e *SubmitError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("aio: submit accepted %d of %d requests: %v", e.Accepted, e.Requested, e.cause)
	}
	return fmt.Sprintf("aio: submit accepted %d of %d requests", e.Accepted, e.Requested)
}

func (e *SubmitError) Unwrap() error { return e.cause }

// CompletionError reports a request that completed with an error status or
// transferred fewer bytes than requested.
type CompletionError struct {
	Method Method
	Offset int64
	Size   int
	// Result is the kernel result: bytes transferred or a negated errno.
	Result int64
	cause  error
}

func (e *CompletionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("aio: %s at %d (%d bytes) failed: %v", e.Method, e.Offset, e.Size, e.cause)
	}
	return fmt.Sprintf("aio: short %s at %d: %d of %d bytes", e.Method, e.Offset, e.Result, e.Size)
}

func (e *CompletionError) Unwrap() error { return e.cause }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
