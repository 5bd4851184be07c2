package flashx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with flashx-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithWorker adds a worker field to the logger.
func (l *Logger) WithWorker(index int) *Logger {
	return &Logger{
		Logger: l.Logger.With("worker", index),
	}
}

// LogWorkerStart logs a worker entering its I/O loop.
func (l *Logger) LogWorkerStart(ctx context.Context, index int, async bool, depth int) {
	l.DebugContext(ctx, "worker starting",
		"worker", index,
		"async", async,
		"depth", depth,
	)
}

// LogWorkerDone logs a worker leaving its I/O loop.
func (l *Logger) LogWorkerDone(ctx context.Context, index int, bytes int64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "worker failed",
			"worker", index,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "worker done",
			"worker", index,
			"bytes", bytes,
			"duration", d,
		)
	}
}

// LogRun logs the outcome of a run.
func (l *Logger) LogRun(ctx context.Context, r *Report, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"workers", len(r.Workers),
			"bytes", r.Bytes,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "run completed",
			"workers", len(r.Workers),
			"bytes", r.Bytes,
			"duration", r.Duration,
			"throughput_mib_s", r.Throughput/(1<<20),
		)
	}
}

// LogPrepare logs the outcome of a pattern fill.
func (l *Logger) LogPrepare(ctx context.Context, files int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "prepare failed",
			"files", files,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "prepare completed",
			"files", files,
			"bytes", bytes,
		)
	}
}
