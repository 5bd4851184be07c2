package resource

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for pinned buffer memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxWorkers is the maximum number of workers in their I/O loop at once.
	// If 0, defaults to 1.
	MaxWorkers int64

	// IOLimitBytesPerSec is the maximum aggregate throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64

	// IOBurstBytes is the token bucket size. Defaults to one second of
	// IOLimitBytesPerSec.
	IOBurstBytes int
}

// Controller manages run-wide resources.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	memPeak atomic.Int64

	// Concurrency
	workerSem   *semaphore.Weighted
	running     atomic.Int64
	runningPeak atomic.Int64

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		if cfg.IOBurstBytes <= 0 {
			cfg.IOBurstBytes = int(cfg.IOLimitBytesPerSec)
		}
		c.cfg = cfg
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), cfg.IOBurstBytes)
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
// Non-blocking - callers control retry/backoff policy.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	storeMax(&c.memPeak, c.memUsed.Add(bytes))
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// PeakMemoryUsage returns the highest memory usage seen so far.
func (c *Controller) PeakMemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memPeak.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireWorker reserves a worker slot. Blocks if all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.workerSem.Acquire(ctx, 1); err != nil {
		return err
	}
	storeMax(&c.runningPeak, c.running.Add(1))
	return nil
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.running.Add(-1)
	c.workerSem.Release(1)
}

// RunningWorkers returns the number of reserved worker slots.
func (c *Controller) RunningWorkers() int64 {
	if c == nil {
		return 0
	}
	return c.running.Load()
}

// PeakRunningWorkers returns the highest number of worker slots reserved at
// once.
func (c *Controller) PeakRunningWorkers() int64 {
	if c == nil {
		return 0
	}
	return c.runningPeak.Load()
}

func storeMax(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n <= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split into burst-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int64) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := int64(c.ioLimiter.Burst())
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, int(n)); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
// Returns true if tokens were acquired, false otherwise.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}

// RateLimitedWriterAt wraps an io.WriterAt with rate limiting.
type RateLimitedWriterAt struct {
	w   io.WriterAt
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriterAt creates a new RateLimitedWriterAt.
func NewRateLimitedWriterAt(ctx context.Context, w io.WriterAt, rc *Controller) *RateLimitedWriterAt {
	return &RateLimitedWriterAt{w: w, rc: rc, ctx: ctx}
}

func (w *RateLimitedWriterAt) WriteAt(p []byte, off int64) (int, error) {
	if err := w.rc.AcquireIO(w.ctx, int64(len(p))); err != nil {
		return 0, err
	}
	return w.w.WriteAt(p, off)
}
