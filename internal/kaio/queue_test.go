//go:build unix

package kaio

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chunkSize = 4096
	dataLen   = 256 * chunkSize
)

func tempFile(t *testing.T, data []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "kaio")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	if data != nil {
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	return f
}

func testRead(t *testing.T, q Queue) {
	data := make([]byte, dataLen)
	_, _ = rand.Read(data)
	f := tempFile(t, data)

	buf := make([]byte, dataLen)
	fd := int32(f.Fd())
	qavail := q.Cap()
	added, done := 0, 0
	var cs []Completion
	for done < dataLen {
		batch := make([]Request, 0, qavail)
		for qavail > 0 && added < dataLen {
			batch = append(batch, Request{ID: uint64(added), Op: OpRead, FD: fd, Off: int64(added), Buf: buf[added : added+chunkSize]})
			qavail--
			added += chunkSize
		}
		n, err := q.Submit(batch)
		require.NoError(t, err)
		require.Equal(t, len(batch), n)

		cs, err = q.Wait(cs[:0], 1)
		require.NoError(t, err)
		for _, c := range cs {
			require.NoError(t, c.Err())
			require.Equal(t, int64(chunkSize), c.Result)
			qavail++
			done += chunkSize
		}
	}
	assert.True(t, bytes.Equal(data, buf), "bytes differ")
}

func testWrite(t *testing.T, q Queue) {
	data := make([]byte, dataLen)
	_, _ = rand.Read(data)
	f := tempFile(t, nil)

	fd := int32(f.Fd())
	qavail := q.Cap()
	added, done := 0, 0
	var cs []Completion
	for done < dataLen {
		batch := make([]Request, 0, qavail)
		for qavail > 0 && added < dataLen {
			batch = append(batch, Request{ID: uint64(added), Op: OpWrite, FD: fd, Off: int64(added), Buf: data[added : added+chunkSize]})
			qavail--
			added += chunkSize
		}
		n, err := q.Submit(batch)
		require.NoError(t, err)
		require.Equal(t, len(batch), n)

		cs, err = q.Wait(cs[:0], 1)
		require.NoError(t, err)
		for _, c := range cs {
			require.NoError(t, c.Err())
			qavail++
			done += chunkSize
		}
	}

	buf := make([]byte, dataLen)
	_, err := io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, buf), "bytes differ")
}

func testErrorCompletion(t *testing.T, q Queue) {
	f := tempFile(t, nil)
	ro, err := os.Open(f.Name())
	require.NoError(t, err)
	defer ro.Close()

	// Writing through a read-only descriptor fails with EBADF.
	n, err := q.Submit([]Request{{ID: 7, Op: OpWrite, FD: int32(ro.Fd()), Buf: make([]byte, chunkSize)}})
	if err != nil {
		// Some kernels reject the request at submission time.
		return
	}
	require.Equal(t, 1, n)

	cs, err := q.Wait(nil, 1)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, uint64(7), cs[0].ID)
	assert.Error(t, cs[0].Err())
}

func testQueueFull(t *testing.T, q Queue) {
	f := tempFile(t, make([]byte, chunkSize))
	reqs := make([]Request, q.Cap()+1)
	for i := range reqs {
		reqs[i] = Request{ID: uint64(i), Op: OpRead, FD: int32(f.Fd()), Buf: make([]byte, chunkSize)}
	}
	_, err := q.Submit(reqs)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func testQueue(t *testing.T, newQueue func(depth int) (Queue, error)) {
	cases := map[string]func(*testing.T, Queue){
		"Read":            testRead,
		"Write":           testWrite,
		"ErrorCompletion": testErrorCompletion,
		"QueueFull":       testQueueFull,
	}
	for name, fn := range cases {
		fn := fn
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			q, err := newQueue(8)
			if err != nil {
				t.Skipf("backend unavailable: %v", err)
			}
			defer q.Destroy()
			fn(t, q)
		})
	}
}

func TestGoQueue(t *testing.T) {
	testQueue(t, func(depth int) (Queue, error) {
		return NewGoQueue(depth), nil
	})
}

func TestNativeQueue(t *testing.T) {
	testQueue(t, func(depth int) (Queue, error) {
		return New(BackendNative, depth)
	})
}

func TestNew(t *testing.T) {
	_, err := New(BackendGo, 0)
	assert.Error(t, err)

	_, err = New("bogus", 8)
	assert.Error(t, err)

	q, err := New(BackendAuto, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Cap())
	require.NoError(t, q.Destroy())
}

func TestCompletionErr(t *testing.T) {
	assert.NoError(t, Completion{Result: 0}.Err())
	assert.NoError(t, Completion{Result: 4096}.Err())
	assert.Error(t, Completion{Result: -5}.Err())
}
