//go:build linux && (amd64 || arm64 || riscv64 || loong64 || ppc64le)

package kaio

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	iocbCmdPread  = 0
	iocbCmdPwrite = 1
)

// iocb mirrors struct iocb from <linux/aio_abi.h> on 64-bit little-endian
// targets.
type iocb struct {
	data      uint64
	key       uint32
	rwFlags   uint32
	opcode    uint16
	reqPrio   int16
	fd        uint32
	buf       uint64
	nbytes    uint64
	offset    int64
	reserved2 uint64
	flags     uint32
	resfd     uint32
}

// ioEvent mirrors struct io_event.
type ioEvent struct {
	data uint64
	obj  uint64
	res  int64
	res2 int64
}

// NativeQueue is a Linux native AIO context.
type NativeQueue struct {
	ctx    uintptr
	depth  int
	iocbs  []iocb
	ptrs   []*iocb
	events []ioEvent

	// Buffers stay reachable while the kernel owns them.
	live map[uint64][]byte
}

// NewNativeQueue calls io_setup for a context of the given depth.
func NewNativeQueue(depth int) (*NativeQueue, error) {
	var ctx uintptr
	if _, _, errno := unix.Syscall(unix.SYS_IO_SETUP, uintptr(depth), uintptr(unsafe.Pointer(&ctx)), 0); errno != 0 {
		if errno == unix.ENOSYS || errno == unix.EPERM {
			return nil, fmt.Errorf("%w: io_setup: %v", ErrNotSupported, errno)
		}
		return nil, fmt.Errorf("kaio: io_setup: %w", errno)
	}

	q := &NativeQueue{
		ctx:    ctx,
		depth:  depth,
		iocbs:  make([]iocb, depth),
		ptrs:   make([]*iocb, depth),
		events: make([]ioEvent, depth),
		live:   make(map[uint64][]byte, depth),
	}
	for i := range q.iocbs {
		q.ptrs[i] = &q.iocbs[i]
	}
	return q, nil
}

// Cap implements Queue.Cap.
func (q *NativeQueue) Cap() int { return q.depth }

// Submit implements Queue.Submit. A partial submission returns the number of
// requests the kernel accepted together with a nil error.
func (q *NativeQueue) Submit(reqs []Request) (int, error) {
	if len(reqs) == 0 {
		return 0, nil
	}
	if len(q.live)+len(reqs) > q.depth {
		return 0, ErrQueueFull
	}

	for i, r := range reqs {
		cb := &q.iocbs[i]
		*cb = iocb{
			data:   r.ID,
			fd:     uint32(r.FD),
			buf:    uint64(uintptr(unsafe.Pointer(unsafe.SliceData(r.Buf)))),
			nbytes: uint64(len(r.Buf)),
			offset: r.Off,
		}
		switch r.Op {
		case OpRead:
			cb.opcode = iocbCmdPread
		case OpWrite:
			cb.opcode = iocbCmdPwrite
		default:
			return 0, fmt.Errorf("kaio: unknown op %v", r.Op)
		}
	}

	var (
		n     uintptr
		errno unix.Errno
	)
	for {
		n, _, errno = unix.Syscall(unix.SYS_IO_SUBMIT, q.ctx, uintptr(len(reqs)), uintptr(unsafe.Pointer(&q.ptrs[0])))
		if errno != unix.EINTR {
			break
		}
	}
	runtime.KeepAlive(reqs)
	if errno != 0 {
		return 0, fmt.Errorf("kaio: io_submit: %w", errno)
	}

	for _, r := range reqs[:n] {
		q.live[r.ID] = r.Buf
	}
	return int(n), nil
}

// Wait implements Queue.Wait.
func (q *NativeQueue) Wait(cs []Completion, minCompletions int) ([]Completion, error) {
	if len(q.live) == 0 {
		return cs, nil
	}
	minCompletions = min(minCompletions, len(q.live))

	var (
		n     uintptr
		errno unix.Errno
	)
	for {
		// A nil timeout blocks until minCompletions events are available.
		n, _, errno = unix.Syscall6(unix.SYS_IO_GETEVENTS, q.ctx, uintptr(minCompletions),
			uintptr(len(q.events)), uintptr(unsafe.Pointer(&q.events[0])), 0, 0)
		if errno != unix.EINTR {
			break
		}
	}
	if errno != 0 {
		return cs, fmt.Errorf("kaio: io_getevents: %w", errno)
	}

	for _, ev := range q.events[:n] {
		delete(q.live, ev.data)
		cs = append(cs, Completion{ID: ev.data, Result: ev.res})
	}
	return cs, nil
}

// Destroy implements Queue.Destroy.
func (q *NativeQueue) Destroy() error {
	if q.ctx == 0 {
		return nil
	}
	_, _, errno := unix.Syscall(unix.SYS_IO_DESTROY, q.ctx, 0, 0)
	q.ctx = 0
	clear(q.live)
	if errno != 0 {
		return fmt.Errorf("kaio: io_destroy: %w", errno)
	}
	return nil
}

// IsNotSupported reports whether err means native AIO is unavailable.
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}
