package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/limkeunhak/FlashX/aio"
	"github.com/limkeunhak/FlashX/internal/fs"
	"github.com/limkeunhak/FlashX/internal/pattern"
	"github.com/limkeunhak/FlashX/internal/resource"
	"github.com/limkeunhak/FlashX/internal/storage"
	"github.com/limkeunhak/FlashX/metrics"
	"github.com/limkeunhak/FlashX/testutil"
	"github.com/limkeunhak/FlashX/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileSize = 1 << 20

func newEngine(t *testing.T, files *storage.FileSet, depth int) *aio.Engine {
	t.Helper()
	e, err := aio.New(files, aio.Config{Depth: depth, BlockSize: 512, Backend: aio.BackendGo})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func run(t *testing.T, cfg Config, io aio.IO, gen workload.Generator, opts ...Option) (Stats, error) {
	t.Helper()
	w, err := New(cfg, io, gen, opts...)
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	stats, err := w.Run(context.Background())
	assert.Zero(t, w.Pool().InUse(), "buffers leaked")
	return stats, err
}

func TestWorker_AsyncRoundTrip(t *testing.T) {
	files := testutil.OpenFileSet(t, 3, fileSize, false)
	capacity := files.Capacity()
	obs := &metrics.Basic{}

	// Fewer buffers than queue depth forces the worker to wait for buffers.
	cfg := Config{Index: 0, Buffers: 16, BatchSize: 64, Verify: true}
	e := newEngine(t, files, 32)

	stats, err := run(t, cfg, e, workload.NewSequential(0, capacity, 4096, workload.WriteOnly), WithObserver(obs))
	require.NoError(t, err)
	assert.Equal(t, capacity, stats.WriteBytes)
	assert.Equal(t, capacity, stats.SubmittedBytes)
	assert.Equal(t, uint64(capacity/4096), stats.DistinctPages)
	assert.Positive(t, obs.Backpressure.Load())

	e = newEngine(t, files, 32)
	stats, err = run(t, cfg, e, workload.NewPermutation(3, 0, capacity, 4096, workload.ReadOnly), WithObserver(obs))
	require.NoError(t, err)
	assert.Equal(t, capacity, stats.ReadBytes)
	assert.Equal(t, capacity, stats.VerifiedBytes)
	assert.Equal(t, capacity/4096, stats.Reads)
	assert.False(t, stats.End.Before(stats.Start))
	assert.Zero(t, obs.VerifyErrors.Load())
	assert.Equal(t, int64(2), obs.WorkersDone.Load())
}

func TestWorker_PageSplit(t *testing.T) {
	files := testutil.OpenFileSet(t, 1, fileSize, true)
	items := []workload.Item{
		{Offset: 2048, Size: 8192, Read: true},
		{Offset: 65536 - 512, Size: 1024, Read: true},
		{Offset: 512, Size: 512, Read: true},
	}

	for _, async := range []bool{true, false} {
		var io aio.IO
		if async {
			io = newEngine(t, files, 4)
		} else {
			s, err := aio.NewSync(files, 512)
			require.NoError(t, err)
			io = s
		}

		stats, err := run(t, Config{Buffers: 2, Verify: true}, io, workload.NewSlice(items))
		require.NoError(t, err)
		// 3 + 2 + 1 pieces.
		assert.Equal(t, int64(6), stats.Reads, "async=%v", async)
		assert.Equal(t, int64(8192+1024+512), stats.VerifiedBytes)
		// Pages 0, 1, 2, 15 and 16.
		assert.Equal(t, uint64(5), stats.DistinctPages)
	}
}

func TestWorker_SyncRoundTrip(t *testing.T) {
	files := testutil.OpenFileSet(t, 2, fileSize, false)
	s, err := aio.NewSync(files, 512)
	require.NoError(t, err)

	gen := workload.NewStride(0, files.Capacity(), 8192, 4096, 64, workload.WriteOnly)
	stats, err := run(t, Config{Buffers: 1, Verify: true, PinCPU: true}, s, gen)
	require.NoError(t, err)
	assert.Equal(t, int64(64*4096), stats.WriteBytes)

	gen = workload.NewStride(0, files.Capacity(), 8192, 4096, 64, workload.ReadOnly)
	stats, err = run(t, Config{Buffers: 1, Verify: true}, s, gen)
	require.NoError(t, err)
	assert.Equal(t, int64(64*4096), stats.VerifiedBytes)
}

func TestWorker_AsyncCorruption(t *testing.T) {
	files := testutil.OpenFileSet(t, 2, fileSize, true)
	testutil.Corrupt(t, files, 300000)

	e := newEngine(t, files, 16)
	obs := &metrics.Basic{}
	_, err := run(t, Config{Buffers: 32, Verify: true}, e,
		workload.NewSequential(0, files.Capacity(), 4096, workload.ReadOnly), WithObserver(obs))

	var m *pattern.Mismatch
	require.ErrorAs(t, err, &m)
	assert.Equal(t, int64(300000), m.Offset)
	assert.Equal(t, int64(1), obs.VerifyErrors.Load())
	assert.Equal(t, int64(1), obs.WorkerErrors.Load())
	assert.Zero(t, e.Outstanding())
}

func TestWorker_SyncCorruption(t *testing.T) {
	paths := testutil.TempPaths(t, 1)
	seed, err := storage.Open(storage.Config{Paths: paths, Create: true, FileSize: fileSize})
	require.NoError(t, err)
	testutil.FillPattern(t, seed)
	require.NoError(t, seed.Close())

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("data-0", fs.Fault{FailAfterBytes: -1, CorruptReads: true})
	files, err := storage.Open(storage.Config{Paths: paths, FS: faulty})
	require.NoError(t, err)
	defer files.Close()

	s, err := aio.NewSync(files, 512)
	require.NoError(t, err)
	_, err = run(t, Config{Buffers: 1, Verify: true}, s, workload.NewSequential(4096, 8192, 4096, workload.ReadOnly))

	var m *pattern.Mismatch
	require.ErrorAs(t, err, &m)
	assert.Equal(t, int64(4096), m.Offset)
}

func TestWorker_CompletionErrorIsFatal(t *testing.T) {
	files := testutil.OpenFileSet(t, 1, 64<<10, true)
	e := newEngine(t, files, 8)

	// Reading past the end of the file comes back short.
	_, err := run(t, Config{Buffers: 8, Verify: true}, e,
		workload.NewSequential(0, 128<<10, 4096, workload.ReadOnly))

	var ce *aio.CompletionError
	require.ErrorAs(t, err, &ce)
	assert.GreaterOrEqual(t, ce.Offset, int64(64<<10))
}

func TestWorker_Canceled(t *testing.T) {
	files := testutil.OpenFileSet(t, 1, fileSize, false)
	w, err := New(Config{Buffers: 4}, newEngine(t, files, 4),
		workload.NewSequential(0, fileSize, 4096, workload.WriteOnly))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Bytes())
}

func TestWorker_MemoryLimit(t *testing.T) {
	files := testutil.OpenFileSet(t, 1, fileSize, false)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8 * 4096})

	w, err := New(Config{Buffers: 8}, newEngine(t, files, 4), workload.NewSlice(nil), WithResourceController(rc))
	require.NoError(t, err)
	assert.Equal(t, int64(8*4096), rc.MemoryUsage())

	_, err = New(Config{Buffers: 1}, newEngine(t, files, 4), workload.NewSlice(nil), WithResourceController(rc))
	assert.True(t, errors.Is(err, resource.ErrMemoryLimitExceeded))

	require.NoError(t, w.Close())
	assert.Zero(t, rc.MemoryUsage())

	_, err = New(Config{}, newEngine(t, files, 4), workload.NewSlice(nil))
	assert.Error(t, err)
}

type reasons struct {
	metrics.Noop
	seen map[string]int
}

func (r *reasons) OnBackpressure(reason string) { r.seen[reason]++ }

func TestWorker_RateLimited(t *testing.T) {
	files := testutil.OpenFileSet(t, 1, fileSize, false)
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30, IOBurstBytes: 64 << 10})
	obs := &reasons{seen: map[string]int{}}

	// Batches of 64 pages exceed the 64 KiB burst and have to wait.
	stats, err := run(t, Config{Buffers: 64}, newEngine(t, files, 16),
		workload.NewSequential(0, 512<<10, 4096, workload.WriteOnly), WithResourceController(rc), WithObserver(obs))
	require.NoError(t, err)
	assert.Equal(t, int64(512<<10), stats.WriteBytes)
	assert.Positive(t, obs.seen["io_throttled"])

	// Without a rate limit nothing is throttled.
	obs = &reasons{seen: map[string]int{}}
	_, err = run(t, Config{Buffers: 64}, newEngine(t, files, 16),
		workload.NewSequential(0, 512<<10, 4096, workload.ReadOnly), WithObserver(obs))
	require.NoError(t, err)
	assert.Zero(t, obs.seen["io_throttled"])
}

func BenchmarkWorker_AsyncWrite(b *testing.B) {
	files := testutil.OpenFileSet(b, 1, 4<<20, false)
	b.ReportAllocs()
	b.SetBytes(4 << 20)
	for i := 0; i < b.N; i++ {
		e, err := aio.New(files, aio.Config{Depth: 32, Backend: aio.BackendGo})
		require.NoError(b, err)
		w, err := New(Config{Buffers: 64}, e, workload.NewSequential(0, 4<<20, 4096, workload.WriteOnly))
		require.NoError(b, err)
		_, err = w.Run(context.Background())
		require.NoError(b, err)
		require.NoError(b, w.Close())
		require.NoError(b, e.Close())
	}
}
