package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/limkeunhak/FlashX/aio"
	"github.com/limkeunhak/FlashX/internal/bufpool"
	"github.com/limkeunhak/FlashX/internal/pattern"
	"github.com/limkeunhak/FlashX/internal/resource"
	"github.com/limkeunhak/FlashX/metrics"
	"github.com/limkeunhak/FlashX/workload"
)

// Defaults for Config.
const (
	DefaultPageSize  = 4096
	DefaultBatchSize = 1000
)

// ErrNoBuffers is returned when every buffer is held and nothing is in
// flight to free one.
var ErrNoBuffers = errors.New("worker: buffer pool exhausted with nothing in flight")

// Config configures a Worker.
type Config struct {
	// Index identifies the worker. It also selects the CPU when pinning.
	Index int

	// PageSize is the split unit and buffer size. Defaults to DefaultPageSize.
	PageSize int

	// BatchSize is the number of workload items per Access call. Defaults to
	// DefaultBatchSize.
	BatchSize int

	// Buffers is the number of page buffers in the worker's pool.
	Buffers int

	// Verify compares every read against the deterministic pattern.
	Verify bool

	// PinCPU binds the worker's thread to CPU Index mod NumCPU.
	PinCPU bool
}

// Stats summarizes a finished run.
type Stats struct {
	Index          int       `json:"index" yaml:"index"`
	Reads          int64     `json:"reads" yaml:"reads"`
	Writes         int64     `json:"writes" yaml:"writes"`
	ReadBytes      int64     `json:"read_bytes" yaml:"read_bytes"`
	WriteBytes     int64     `json:"write_bytes" yaml:"write_bytes"`
	SubmittedBytes int64     `json:"submitted_bytes" yaml:"submitted_bytes"`
	VerifiedBytes  int64     `json:"verified_bytes" yaml:"verified_bytes"`
	DistinctPages  uint64    `json:"distinct_pages" yaml:"distinct_pages"`
	Start          time.Time `json:"start" yaml:"start"`
	End            time.Time `json:"end" yaml:"end"`
}

// Bytes returns the completed bytes in both directions.
func (s Stats) Bytes() int64 { return s.ReadBytes + s.WriteBytes }

// Duration returns the time spent in the run loop.
func (s Stats) Duration() time.Duration { return s.End.Sub(s.Start) }

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(o metrics.Observer) Option {
	return func(w *Worker) { w.observer = metrics.OrNoop(o) }
}

// WithResourceController charges buffer memory and I/O throughput to rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(w *Worker) { w.rc = rc }
}

// Worker drives one generator through one IO.
type Worker struct {
	cfg      Config
	io       aio.IO
	gen      workload.Generator
	pool     *bufpool.Pool
	reserved int64
	rc       *resource.Controller
	logger   *slog.Logger
	observer metrics.Observer

	stats  Stats
	pages  *roaring64.Bitmap
	pieces []workload.Item
	reqs   []aio.Request
}

var _ aio.Callback = (*Worker)(nil)

// New creates a worker and its buffer pool. The pool's memory is reserved
// with the resource controller, if any.
func New(cfg Config, io aio.IO, gen workload.Generator, opts ...Option) (*Worker, error) {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Buffers <= 0 {
		return nil, fmt.Errorf("worker %d: buffer count must be positive, got %d", cfg.Index, cfg.Buffers)
	}

	w := &Worker{
		cfg:      cfg,
		io:       io,
		gen:      gen,
		logger:   slog.Default(),
		observer: metrics.Noop{},
		pages:    roaring64.New(),
		stats:    Stats{Index: cfg.Index},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("worker", cfg.Index)

	poolBytes := int64(cfg.Buffers) * int64(cfg.PageSize)
	if err := w.rc.AcquireMemory(poolBytes); err != nil {
		return nil, fmt.Errorf("worker %d: reserve %d buffer bytes: %w", cfg.Index, poolBytes, err)
	}
	pool, err := bufpool.New(cfg.Buffers, cfg.PageSize, cfg.PageSize)
	if err != nil {
		w.rc.ReleaseMemory(poolBytes)
		return nil, fmt.Errorf("worker %d: %w", cfg.Index, err)
	}
	w.pool = pool
	w.reserved = poolBytes
	return w, nil
}

// Pool exposes the buffer pool.
func (w *Worker) Pool() *bufpool.Pool { return w.pool }

// Close releases the buffer pool.
func (w *Worker) Close() error {
	if w.pool == nil {
		return nil
	}
	err := w.pool.Close()
	w.rc.ReleaseMemory(w.reserved)
	w.pool, w.reserved = nil, 0
	return err
}

// Run executes the workload until the generator is exhausted, ctx is done
// or a fatal error occurs. Outstanding requests are always drained before
// Run returns.
func (w *Worker) Run(ctx context.Context) (Stats, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.cfg.PinCPU {
		cpu := w.cfg.Index % runtime.NumCPU()
		if err := pin(cpu); err != nil {
			w.logger.Warn("failed to pin worker thread", "cpu", cpu, "error", err)
		}
	}

	if err := w.io.Init(); err != nil {
		return w.stats, fmt.Errorf("worker %d: init: %w", w.cfg.Index, err)
	}

	w.logger.Info("worker started", "async", w.io.SupportAIO(), "buffers", w.pool.Cap())
	w.stats.Start = time.Now()

	var err error
	if w.io.SupportAIO() {
		w.io.SetCallback(w)
		err = w.runAsync(ctx)
	} else {
		err = w.runSync(ctx)
	}
	if cerr := w.io.Cleanup(); err == nil {
		err = cerr
	}

	w.stats.End = time.Now()
	w.stats.DistinctPages = w.pages.GetCardinality()
	if err != nil {
		err = fmt.Errorf("worker %d: %w", w.cfg.Index, err)
	}
	w.observer.OnWorkerDone(w.cfg.Index, w.stats.Bytes(), w.stats.Duration(), err)

	attrs := []any{
		"bytes", w.stats.Bytes(),
		"duration", w.stats.Duration(),
		"distinct_pages", w.stats.DistinctPages,
	}
	if err != nil {
		w.logger.Error("worker failed", append(attrs, "error", err)...)
	} else {
		w.logger.Info("worker finished", attrs...)
	}
	return w.stats, err
}

func (w *Worker) runAsync(ctx context.Context) error {
	pageSize := int64(w.cfg.PageSize)
	for w.gen.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.reqs = w.reqs[:0]
		for n := 0; n < w.cfg.BatchSize && w.gen.HasNext(); n++ {
			it := w.gen.Next()
			w.pieces = workload.AppendPages(w.pieces[:0], it, pageSize)
			for _, p := range w.pieces {
				buf, err := w.buffer(ctx)
				if err != nil {
					return err
				}
				w.reqs = append(w.reqs, w.request(buf, p))
			}
		}
		if err := w.submit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// buffer returns a free pool entry. When none is left it submits what has
// been built so far and waits for completions to return buffers.
func (w *Worker) buffer(ctx context.Context) ([]byte, error) {
	if buf, ok := w.pool.Get(); ok {
		return buf, nil
	}

	w.observer.OnBackpressure("buffers_exhausted")
	if err := w.submit(ctx); err != nil {
		return nil, err
	}
	for {
		if buf, ok := w.pool.Get(); ok {
			return buf, nil
		}
		if w.pool.InUse() == 0 {
			return nil, ErrNoBuffers
		}
		if _, err := w.io.WaitForCompletions(1); err != nil {
			return nil, err
		}
	}
}

// request builds the request for piece p in buf, filling writes.
func (w *Worker) request(buf []byte, p workload.Item) aio.Request {
	buf = buf[:p.Size]
	method := aio.Read
	if !p.Read {
		method = aio.Write
		pattern.Fill(buf, p.Offset)
	}
	return aio.Request{Buf: buf, Offset: p.Offset, Method: method, Initiator: w.io}
}

// submit hands the pending requests to the IO.
func (w *Worker) submit(ctx context.Context) error {
	if len(w.reqs) == 0 {
		return nil
	}
	var bytes int64
	for i := range w.reqs {
		bytes += int64(len(w.reqs[i].Buf))
	}
	if err := w.throttle(ctx, bytes); err != nil {
		w.release(w.reqs)
		return err
	}

	n, err := w.io.Access(w.reqs)
	w.stats.SubmittedBytes += n
	if err != nil {
		// Buffers of requests that never reached the queue are still ours.
		w.release(unsubmitted(w.reqs, n))
		w.reqs = w.reqs[:0]
		return err
	}
	w.logger.Debug("batch submitted", "requests", len(w.reqs), "bytes", n)
	w.reqs = w.reqs[:0]
	return nil
}

// unsubmitted returns the suffix of reqs beyond the first n bytes.
// throttle charges bytes to the run's I/O rate. Waiting for tokens counts
// as backpressure.
func (w *Worker) throttle(ctx context.Context, bytes int64) error {
	if w.rc.TryAcquireIO(int(bytes)) {
		return nil
	}
	w.observer.OnBackpressure("io_throttled")
	return w.rc.AcquireIO(ctx, bytes)
}

func unsubmitted(reqs []aio.Request, n int64) []aio.Request {
	for i := range reqs {
		if n <= 0 {
			return reqs[i:]
		}
		n -= int64(len(reqs[i].Buf))
	}
	return nil
}

func (w *Worker) release(reqs []aio.Request) {
	for i := range reqs {
		w.pool.Put(reqs[i].Buf)
	}
}

// Invoke is the completion callback: it verifies reads, accounts the
// transfer and returns the buffer to the pool.
func (w *Worker) Invoke(req *aio.Request, err error) error {
	defer w.pool.Put(req.Buf)
	if err != nil {
		return err
	}
	return w.complete(req.Buf, req.Offset, req.Method)
}

func (w *Worker) complete(buf []byte, off int64, method aio.Method) error {
	size := int64(len(buf))
	if method == aio.Read {
		if w.cfg.Verify {
			err := pattern.Verify(buf, off)
			w.observer.OnVerify(size, err)
			if err != nil {
				return err
			}
			w.stats.VerifiedBytes += size
		}
		w.stats.Reads++
		w.stats.ReadBytes += size
	} else {
		w.stats.Writes++
		w.stats.WriteBytes += size
	}

	pageSize := int64(w.cfg.PageSize)
	first := uint64(off / pageSize)
	last := uint64((off + size - 1) / pageSize)
	w.pages.AddRange(first, last+1)
	return nil
}

func (w *Worker) runSync(ctx context.Context) error {
	pageSize := int64(w.cfg.PageSize)
	for w.gen.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		it := w.gen.Next()
		w.pieces = workload.AppendPages(w.pieces[:0], it, pageSize)
		for _, p := range w.pieces {
			if err := w.syncPiece(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Worker) syncPiece(ctx context.Context, p workload.Item) error {
	buf, ok := w.pool.Get()
	if !ok {
		return ErrNoBuffers
	}
	defer w.pool.Put(buf)

	if err := w.throttle(ctx, int64(p.Size)); err != nil {
		return err
	}
	req := w.request(buf, p)
	start := time.Now()
	n, err := w.io.AccessSync(req.Buf, req.Offset, req.Method)
	w.stats.SubmittedBytes += int64(n)
	if err != nil {
		return err
	}
	w.logger.Debug("sync access", "offset", p.Offset, "size", p.Size, "latency", time.Since(start))
	return w.complete(req.Buf, req.Offset, req.Method)
}
