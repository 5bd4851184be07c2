package flashx

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/limkeunhak/FlashX/internal/mem"
	"github.com/limkeunhak/FlashX/internal/pattern"
	"github.com/limkeunhak/FlashX/internal/resource"
	"github.com/limkeunhak/FlashX/internal/storage"
)

// Prepare fills the whole address space of the file set with the pattern so
// that later verified reads have an oracle. Files are filled concurrently,
// one stripe unit per write. It returns the number of bytes written.
func Prepare(ctx context.Context, cfg Config, opts ...Option) (int64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	cfg = cfg.withDefaults()
	o := buildOptions(opts)

	sc := cfg.storageConfig()
	sc.FS = o.fs
	files, err := storage.Open(sc)
	if err != nil {
		return 0, err
	}
	defer files.Close()

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: cfg.IOLimitBytesPerSec})
	capacity := mem.RoundDown(files.Capacity(), int64(cfg.BlockSize))
	unit := files.StripeSize()
	if files.Len() == 1 {
		unit = min(unit*16, capacity)
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for idx := 0; idx < files.Len(); idx++ {
		idx := idx
		g.Go(func() error {
			w := resource.NewRateLimitedWriterAt(gctx, files.File(idx), rc)
			buf := mem.AllocAligned(int(unit), max(cfg.BlockSize, cfg.PageSize))
			// Walk the global stripe units owned by file idx.
			for off := int64(idx) * unit; off < capacity; off += unit * int64(files.Len()) {
				if err := gctx.Err(); err != nil {
					return err
				}
				size := min(unit, capacity-off)
				p := buf[:size]
				pattern.Fill(p, off)
				_, local, ok := files.Locate(off, int(size))
				if !ok {
					return fmt.Errorf("prepare: unit at %d crosses a stripe", off)
				}
				if _, err := w.WriteAt(p, local); err != nil {
					return fmt.Errorf("prepare: write %s at %d: %w", files.File(idx).Name(), local, err)
				}
				written.Add(size)
			}
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = files.Sync()
	}

	o.logger.LogPrepare(ctx, files.Len(), written.Load(), err)
	return written.Load(), err
}
