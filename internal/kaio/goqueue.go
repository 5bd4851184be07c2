//go:build unix

package kaio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// GoQueue services each request with pread/pwrite on a dedicated goroutine.
type GoQueue struct {
	done     chan Completion
	inflight int
}

// NewGoQueue returns a GoQueue that holds at most cap requests in flight.
func NewGoQueue(cap int) *GoQueue {
	return &GoQueue{done: make(chan Completion, cap)}
}

// Cap implements Queue.Cap.
func (q *GoQueue) Cap() int { return cap(q.done) }

// Submit implements Queue.Submit.
func (q *GoQueue) Submit(reqs []Request) (int, error) {
	if q.inflight+len(reqs) > cap(q.done) {
		return 0, ErrQueueFull
	}
	for _, r := range reqs {
		q.inflight++
		go q.perform(r)
	}
	return len(reqs), nil
}

func (q *GoQueue) perform(r Request) {
	var (
		n   int
		err error
	)
	switch r.Op {
	case OpRead:
		n, err = unix.Pread(int(r.FD), r.Buf, r.Off)
	case OpWrite:
		n, err = unix.Pwrite(int(r.FD), r.Buf, r.Off)
	default:
		err = unix.EINVAL
	}

	res := int64(n)
	if err != nil {
		var errno unix.Errno
		if !errors.As(err, &errno) {
			errno = unix.EIO
		}
		res = -int64(errno)
	}
	q.done <- Completion{ID: r.ID, Result: res}
}

// Wait implements Queue.Wait.
func (q *GoQueue) Wait(cs []Completion, minCompletions int) ([]Completion, error) {
	minCompletions = min(minCompletions, q.inflight)
	for i := 0; i < minCompletions; i++ {
		cs = append(cs, <-q.done)
		q.inflight--
	}
	for {
		select {
		case c := <-q.done:
			cs = append(cs, c)
			q.inflight--
		default:
			return cs, nil
		}
	}
}

// Destroy implements Queue.Destroy.
func (q *GoQueue) Destroy() error { return nil }
