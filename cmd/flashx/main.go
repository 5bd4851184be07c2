// Binary flashx lays down and exercises page-aligned block I/O workloads.
//
//	flashx prepare -files /dev/nvme0n1,/dev/nvme1n1 -direct
//	flashx run -config run.yaml -workers 8 -metrics-addr :2112
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"github.com/limkeunhak/FlashX"
)

const exitInterrupted subcommands.ExitStatus = 130

var (
	logLevel  = flag.String("log-level", "info", "minimum log level: debug, info, warn or error.")
	logFormat = flag.String("log-format", "text", "log format: text or json.")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&prepareCmd{}, "")
	subcommands.Register(&runCmd{}, "")

	flag.Parse()

	logger, err := newLogger(*logFormat, *logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitUsageError))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := subcommands.Execute(ctx, logger)
	stop()
	os.Exit(int(status))
}

func newLogger(format, level string) (*flashx.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid -log-level %q: %w", level, err)
	}
	switch format {
	case "text":
		return flashx.NewTextLogger(lvl), nil
	case "json":
		return flashx.NewJSONLogger(lvl), nil
	default:
		return nil, fmt.Errorf("invalid -log-format %q", format)
	}
}

// exitStatus maps a run or prepare error to the process exit status.
func exitStatus(logger *flashx.Logger, msg string, err error) subcommands.ExitStatus {
	switch {
	case err == nil:
		return subcommands.ExitSuccess
	case flashx.IsFatal(err):
		logger.Error(msg, "error", err)
		return subcommands.ExitFailure
	default:
		logger.Warn("interrupted", "error", err)
		return exitInterrupted
	}
}
