package flashx

import (
	"github.com/limkeunhak/FlashX/internal/fs"
)

type options struct {
	logger   *Logger
	observer MetricsObserver
	fs       fs.FileSystem
}

// Option configures Run and Prepare.
type Option func(*options)

// WithLogger configures structured logging.
// If nil is passed, logging is discarded.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsObserver configures an observer for engine and worker events.
// Pass nil to disable.
//
// Example with the Prometheus observer:
//
//	obs, _ := metrics.NewPrometheusObserver(nil)
//	report, err := flashx.Run(ctx, cfg, flashx.WithMetricsObserver(obs))
func WithMetricsObserver(obs MetricsObserver) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// withFileSystem swaps the file system used to open backing files.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: NewLogger(nil),
		fs:     fs.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
