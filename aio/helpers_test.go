package aio

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/limkeunhak/FlashX/internal/kaio"
	"github.com/limkeunhak/FlashX/internal/mem"
	"github.com/limkeunhak/FlashX/internal/storage"
	"github.com/stretchr/testify/require"
)

// memTarget is an in-memory striped Target.
type memTarget struct {
	mu     sync.Mutex
	files  [][]byte
	stripe int64
}

func newMemTarget(files int, size int64, stripe int64) *memTarget {
	t := &memTarget{stripe: stripe}
	for i := 0; i < files; i++ {
		t.files = append(t.files, make([]byte, size))
	}
	return t
}

func (t *memTarget) Len() int { return len(t.files) }

func (t *memTarget) Locate(off int64, size int) (int, int64, bool) {
	n := int64(len(t.files))
	unit, within := off/t.stripe, off%t.stripe
	return int(unit % n), unit/n*t.stripe + within, n == 1 || within+int64(size) <= t.stripe
}

func (t *memTarget) FD(idx int) int32 { return int32(100 + idx) }

func (t *memTarget) ReadAt(idx int, p []byte, off int64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copy(p, t.files[idx][off:]), nil
}

func (t *memTarget) WriteAt(idx int, p []byte, off int64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copy(t.files[idx][off:], p), nil
}

// fakeQueue completes requests only when waited on, in FIFO order (or LIFO
// when reverse is set), and returns exactly the requested minimum.
type fakeQueue struct {
	depth    int
	inflight []kaio.Request
	// accept caps how many requests one Submit takes; zero means all.
	accept int
	// result overrides the completion result of a request.
	result  func(r kaio.Request) int64
	reverse bool

	submits   int
	destroyed bool
}

func (q *fakeQueue) Cap() int { return q.depth }

func (q *fakeQueue) Submit(reqs []kaio.Request) (int, error) {
	if len(q.inflight)+len(reqs) > q.depth {
		return 0, kaio.ErrQueueFull
	}
	n := len(reqs)
	if q.accept > 0 {
		n = min(n, q.accept)
	}
	q.submits++
	q.inflight = append(q.inflight, reqs[:n]...)
	return n, nil
}

func (q *fakeQueue) Wait(cs []kaio.Completion, minCompletions int) ([]kaio.Completion, error) {
	n := min(minCompletions, len(q.inflight))
	for i := 0; i < n; i++ {
		var r kaio.Request
		if q.reverse {
			r = q.inflight[len(q.inflight)-1]
			q.inflight = q.inflight[:len(q.inflight)-1]
		} else {
			r = q.inflight[0]
			q.inflight = q.inflight[1:]
		}
		res := int64(len(r.Buf))
		if q.result != nil {
			res = q.result(r)
		}
		cs = append(cs, kaio.Completion{ID: r.ID, Result: res})
	}
	return cs, nil
}

func (q *fakeQueue) Destroy() error {
	q.destroyed = true
	return nil
}

func withQueue(q kaio.Queue) Option {
	return func(o *options) {
		o.newQueue = func(Backend, int) (kaio.Queue, error) { return q, nil }
	}
}

// openFiles creates n sparse backing files of size bytes each.
func openFiles(t *testing.T, n int, size int64) *storage.FileSet {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("file-%d", i))
	}
	s, err := storage.Open(storage.Config{Paths: paths, Create: true, FileSize: size})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func alignedBufs(n, size int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = mem.AllocAligned(size, 4096)
	}
	return out
}

func recoverAlignment(t *testing.T, fn func()) (ae *AlignmentError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		var ok bool
		ae, ok = r.(*AlignmentError)
		require.True(t, ok, "panic value %T is not *AlignmentError", r)
	}()
	fn()
	return nil
}
