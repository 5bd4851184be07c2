//go:build !(linux && (amd64 || arm64 || riscv64 || loong64 || ppc64le))

package kaio

import "errors"

// NativeQueue is unavailable on this platform.
type NativeQueue struct{}

// NewNativeQueue always fails with ErrNotSupported on this platform.
func NewNativeQueue(int) (*NativeQueue, error) {
	return nil, ErrNotSupported
}

func (*NativeQueue) Cap() int                                          { return 0 }
func (*NativeQueue) Submit([]Request) (int, error)                     { return 0, ErrNotSupported }
func (*NativeQueue) Wait(cs []Completion, _ int) ([]Completion, error) { return cs, ErrNotSupported }
func (*NativeQueue) Destroy() error                                    { return nil }

// IsNotSupported reports whether err means native AIO is unavailable.
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}
