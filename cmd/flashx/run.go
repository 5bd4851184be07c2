package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limkeunhak/FlashX"
	"github.com/limkeunhak/FlashX/codec"
	"github.com/limkeunhak/FlashX/metrics"
)

// runCmd implements subcommands.Command for the "run" command.
type runCmd struct {
	config      configFlags
	format      string
	out         string
	metricsAddr string
}

// Name implements subcommands.Command.Name.
func (*runCmd) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*runCmd) Synopsis() string {
	return "run a workload against the backing files and print a report"
}

// Usage implements subcommands.Command.Usage.
func (*runCmd) Usage() string {
	return `run [flags]

Runs the configured workload with one I/O engine per worker. Reads are
verified against the pattern written by "prepare" when -verify is set.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *runCmd) SetFlags(f *flag.FlagSet) {
	r.config.SetFlags(f)
	f.StringVar(&r.format, "format", "text", "report format: text, json, go-json or yaml.")
	f.StringVar(&r.out, "out", "", "write the report to this file instead of stdout.")
	f.StringVar(&r.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run.")
}

// Execute implements subcommands.Command.Execute.
func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	logger := args[0].(*flashx.Logger)
	cfg, err := r.config.load(f)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return subcommands.ExitUsageError
	}
	if r.format != "text" {
		if _, ok := codec.ByName(r.format); !ok {
			logger.Error("invalid configuration", "error", fmt.Errorf("unknown -format %q", r.format))
			return subcommands.ExitUsageError
		}
	}

	opts := []flashx.Option{flashx.WithLogger(logger)}
	if r.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		obs, err := metrics.NewPrometheusObserver(reg)
		if err != nil {
			logger.Error("metrics setup failed", "error", err)
			return subcommands.ExitFailure
		}
		srv := serveMetrics(r.metricsAddr, reg, logger)
		defer shutdown(srv)
		opts = append(opts, flashx.WithMetricsObserver(obs))
	}

	logger.Info("run starting", "config", flashx.Describe(cfg))
	report, err := flashx.Run(ctx, cfg, opts...)
	if report != nil {
		if werr := r.write(report); werr != nil {
			logger.Error("write report failed", "error", werr)
			if err == nil {
				return subcommands.ExitFailure
			}
		}
	}
	return exitStatus(logger, "run failed", err)
}

func (r *runCmd) write(report *flashx.Report) error {
	var w io.Writer = os.Stdout
	if r.out != "" {
		f, err := os.Create(r.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return writeReport(w, r.format, report)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *flashx.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
