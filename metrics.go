package flashx

import "github.com/limkeunhak/FlashX/metrics"

// MetricsObserver receives engine and worker events. See package metrics
// for the Prometheus implementation.
type MetricsObserver = metrics.Observer

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver = metrics.Noop

// BasicMetricsObserver provides simple in-memory counters.
// Useful for debugging and basic monitoring without external dependencies.
//
// Example:
//
//	m := &flashx.BasicMetricsObserver{}
//	report, _ := flashx.Run(ctx, cfg, flashx.WithMetricsObserver(m))
//	fmt.Println(m.Stats().Backpressure)
type BasicMetricsObserver = metrics.Basic

// BasicMetricsStats is a snapshot of BasicMetricsObserver state.
type BasicMetricsStats = metrics.BasicStats
