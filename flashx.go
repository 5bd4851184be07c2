package flashx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/limkeunhak/FlashX/aio"
	"github.com/limkeunhak/FlashX/internal/bufpool"
	"github.com/limkeunhak/FlashX/internal/mem"
	"github.com/limkeunhak/FlashX/internal/resource"
	"github.com/limkeunhak/FlashX/internal/storage"
	"github.com/limkeunhak/FlashX/internal/worker"
	"github.com/limkeunhak/FlashX/metrics"
)

// Run executes cfg.Workload with cfg.Workers concurrent workers and returns
// the aggregated report. The first worker failure cancels the others; the
// report then covers what completed before the failure.
func Run(ctx context.Context, cfg Config, opts ...Option) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	o := buildOptions(opts)

	sc := cfg.storageConfig()
	sc.FS = o.fs
	files, err := storage.Open(sc)
	if err != nil {
		return nil, err
	}
	defer files.Close()

	// A single file may end in a partial block.
	capacity := mem.RoundDown(files.Capacity(), int64(cfg.BlockSize))
	if cfg.Workload.End == 0 {
		cfg.Workload.End = capacity
	}
	if cfg.Workload.End > capacity {
		return nil, invalidField("workload.end", "%d beyond file set capacity %d", cfg.Workload.End, capacity)
	}
	if err := cfg.Workload.Validate(); err != nil {
		return nil, translateError(-1, err)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   cfg.MemoryLimitBytes,
		MaxWorkers:         int64(cfg.MaxConcurrentWorkers),
		IOLimitBytesPerSec: cfg.IOLimitBytesPerSec,
	})

	basic := &metrics.Basic{}
	var observer metrics.Observer = basic
	if o.observer != nil {
		observer = metrics.Multi{basic, o.observer}
	}

	buffers := bufpool.EntriesPerWorker(cfg.TotalPages, cfg.Workers, cfg.NUMANodes)
	o.logger.InfoContext(ctx, "run starting",
		"files", files.Len(),
		"capacity", capacity,
		"workers", cfg.Workers,
		"buffers_per_worker", buffers,
		"async", !cfg.SyncIO,
		"backend", cfg.Backend,
	)

	stats := make([]worker.Stats, cfg.Workers)
	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := 0; i < cfg.Workers; i++ {
		i := i
		g.Go(func() error {
			if err := rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()
			o.logger.DebugContext(gctx, "worker admitted",
				"worker", i,
				"running", rc.RunningWorkers(),
				"memory_used", rc.MemoryUsage(),
			)

			st, err := runWorker(gctx, i, cfg, files, buffers, rc, observer, o.logger)
			stats[i] = st
			return translateError(i, err)
		})
	}
	err = g.Wait()
	end := time.Now()

	if err == nil {
		err = files.Sync()
	}

	report := newReport(cfg, start, end, stats, basic.Stats())
	report.Resources = ResourceReport{
		MemoryLimit: rc.MemoryLimit(),
		PeakMemory:  rc.PeakMemoryUsage(),
		PeakWorkers: rc.PeakRunningWorkers(),
	}
	o.logger.LogRun(ctx, report, err)
	return report, err
}

// runWorker builds the IO and the worker for index i and runs it.
func runWorker(ctx context.Context, i int, cfg Config, files *storage.FileSet, buffers int,
	rc *resource.Controller, observer metrics.Observer, logger *Logger) (worker.Stats, error) {
	l := logger.WithWorker(i)

	var (
		io    aio.IO
		depth int
		err   error
	)
	if cfg.SyncIO {
		io, err = aio.NewSync(files, cfg.BlockSize, aio.WithObserver(observer), aio.WithLogger(l.Logger))
	} else {
		var e *aio.Engine
		e, err = aio.New(files, cfg.engineConfig(), aio.WithObserver(observer), aio.WithLogger(l.Logger))
		if err == nil {
			defer e.Close()
			io, depth = e, e.Config().Depth
		}
	}
	if err != nil {
		return worker.Stats{Index: i}, err
	}

	w, err := worker.New(worker.Config{
		Index:     i,
		PageSize:  cfg.PageSize,
		BatchSize: cfg.BatchSize,
		Buffers:   buffers,
		Verify:    cfg.Verify,
		PinCPU:    cfg.PinCPU,
	}, io, cfg.Workload.ForWorker(i, cfg.Workers),
		worker.WithLogger(l.Logger),
		worker.WithObserver(observer),
		worker.WithResourceController(rc),
	)
	if err != nil {
		return worker.Stats{Index: i}, err
	}

	l.LogWorkerStart(ctx, i, io.SupportAIO(), depth)
	st, err := w.Run(ctx)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	l.LogWorkerDone(ctx, i, st.Bytes(), st.Duration(), err)
	return st, err
}

// IsFatal reports whether err ended a run because of an I/O or integrity
// failure, as opposed to cancellation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Describe returns a one-line summary of the effective configuration.
func Describe(cfg Config) string {
	cfg = cfg.withDefaults()
	mode := "async/" + cfg.Backend
	if cfg.SyncIO {
		mode = "sync"
	}
	return fmt.Sprintf("%d file(s), %d worker(s), %s, page %d, block %d, workload %s",
		len(cfg.Files), cfg.Workers, mode, cfg.PageSize, cfg.BlockSize, cfg.Workload.Kind)
}
