package aio

import (
	"log/slog"

	"github.com/limkeunhak/FlashX/internal/kaio"
	"github.com/limkeunhak/FlashX/metrics"
)

// Backend selects how requests reach the kernel.
type Backend = kaio.Backend

const (
	// BackendAuto uses Linux native AIO when available and otherwise
	// services requests with blocking syscalls on goroutines.
	BackendAuto = kaio.BackendAuto
	// BackendNative requires Linux native AIO.
	BackendNative = kaio.BackendNative
	// BackendGo services requests on goroutines.
	BackendGo = kaio.BackendGo
)

// Defaults for Config.
const (
	DefaultDepthPerFile  = 32
	DefaultSlotsPerDepth = 5
	DefaultMinBatch      = 10
)

// Config configures an Engine.
type Config struct {
	// Depth is the total queue depth. When zero it is DepthPerFile times the
	// number of target files.
	Depth int

	// DepthPerFile is used to derive Depth. Defaults to DefaultDepthPerFile.
	DepthPerFile int

	// BlockSize is the alignment unit. Must be a power of two. Defaults to
	// DefaultBlockSize.
	BlockSize int

	// SlotsPerDepth sizes the callback slot pool relative to Depth.
	// Defaults to DefaultSlotsPerDepth.
	SlotsPerDepth int

	// MinBatch is the minimum number of completions harvested when the queue
	// is full, capped to Depth. Defaults to DefaultMinBatch.
	MinBatch int

	// Backend defaults to BackendAuto.
	Backend Backend

	// files is the number of target files, filled in by New.
	files int
}

// FileShare returns the per-file share of the queue depth, Depth divided by
// the number of files with integer division. It is advisory; the engine does
// not enforce it.
func (c Config) FileShare() int {
	if c.files == 0 {
		return c.Depth
	}
	return c.Depth / c.files
}

func (c Config) withDefaults(files int) Config {
	c.files = max(files, 1)
	if c.DepthPerFile == 0 {
		c.DepthPerFile = DefaultDepthPerFile
	}
	if c.Depth == 0 {
		c.Depth = c.DepthPerFile * c.files
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.SlotsPerDepth == 0 {
		c.SlotsPerDepth = DefaultSlotsPerDepth
	}
	if c.MinBatch == 0 {
		c.MinBatch = DefaultMinBatch
	}
	c.MinBatch = min(c.MinBatch, c.Depth)
	if c.Backend == "" {
		c.Backend = BackendAuto
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.Depth <= 0:
		return invalidf("depth must be positive, got %d", c.Depth)
	case c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0:
		return invalidf("block size must be a power of two, got %d", c.BlockSize)
	case c.SlotsPerDepth < 1:
		return invalidf("slots per depth must be at least 1, got %d", c.SlotsPerDepth)
	case c.MinBatch < 1:
		return invalidf("min batch must be positive, got %d", c.MinBatch)
	}
	return nil
}

// Option configures an Engine or a SyncIO.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer metrics.Observer
	callback Callback
	newQueue func(backend Backend, depth int) (kaio.Queue, error)
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(obs metrics.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithCallback sets the initial completion callback.
func WithCallback(cb Callback) Option {
	return func(o *options) {
		o.callback = cb
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   slog.Default(),
		newQueue: kaio.New,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.observer = metrics.OrNoop(o.observer)
	return o
}
