package metrics

import (
	"sync/atomic"
	"time"
)

// Basic provides simple in-memory counters.
// Useful for tests and for the final run report without external dependencies.
type Basic struct {
	Submits        atomic.Int64
	SubmittedReqs  atomic.Int64
	SubmittedBytes atomic.Int64

	Reads       atomic.Int64
	ReadBytes   atomic.Int64
	Writes      atomic.Int64
	WriteBytes  atomic.Int64
	Errors      atomic.Int64
	TotalNanos  atomic.Int64
	MaxNanos    atomic.Int64
	Completions atomic.Int64

	Backpressure atomic.Int64
	MaxDepth     atomic.Int64

	Verified     atomic.Int64
	VerifyErrors atomic.Int64

	WorkersDone  atomic.Int64
	WorkerErrors atomic.Int64
}

var _ Observer = (*Basic)(nil)

func (b *Basic) OnSubmit(requests int, bytes int64) {
	b.Submits.Add(1)
	b.SubmittedReqs.Add(int64(requests))
	b.SubmittedBytes.Add(bytes)
}

func (b *Basic) OnComplete(op string, bytes int64, latency time.Duration, err error) {
	b.Completions.Add(1)
	if err != nil {
		b.Errors.Add(1)
	}
	switch op {
	case "read":
		b.Reads.Add(1)
		b.ReadBytes.Add(bytes)
	case "write":
		b.Writes.Add(1)
		b.WriteBytes.Add(bytes)
	}
	ns := latency.Nanoseconds()
	b.TotalNanos.Add(ns)
	storeMax(&b.MaxNanos, ns)
}

func (b *Basic) OnBackpressure(string) { b.Backpressure.Add(1) }

func (b *Basic) OnQueueDepth(_ string, depth int) { storeMax(&b.MaxDepth, int64(depth)) }

func (b *Basic) OnVerify(bytes int64, err error) {
	if err != nil {
		b.VerifyErrors.Add(1)
		return
	}
	b.Verified.Add(bytes)
}

func (b *Basic) OnWorkerDone(_ int, _ int64, _ time.Duration, err error) {
	b.WorkersDone.Add(1)
	if err != nil {
		b.WorkerErrors.Add(1)
	}
}

// Stats returns a snapshot of the counters.
func (b *Basic) Stats() BasicStats {
	s := BasicStats{
		Submits:        b.Submits.Load(),
		SubmittedReqs:  b.SubmittedReqs.Load(),
		SubmittedBytes: b.SubmittedBytes.Load(),
		Reads:          b.Reads.Load(),
		ReadBytes:      b.ReadBytes.Load(),
		Writes:         b.Writes.Load(),
		WriteBytes:     b.WriteBytes.Load(),
		Errors:         b.Errors.Load(),
		MaxLatency:     time.Duration(b.MaxNanos.Load()),
		Backpressure:   b.Backpressure.Load(),
		MaxDepth:       b.MaxDepth.Load(),
		VerifiedBytes:  b.Verified.Load(),
		VerifyErrors:   b.VerifyErrors.Load(),
		WorkersDone:    b.WorkersDone.Load(),
		WorkerErrors:   b.WorkerErrors.Load(),
	}
	if n := b.Completions.Load(); n > 0 {
		s.AvgLatency = time.Duration(b.TotalNanos.Load() / n)
	}
	return s
}

// BasicStats is a snapshot of Basic state.
type BasicStats struct {
	Submits        int64         `json:"submits" yaml:"submits"`
	SubmittedReqs  int64         `json:"submitted_requests" yaml:"submitted_requests"`
	SubmittedBytes int64         `json:"submitted_bytes" yaml:"submitted_bytes"`
	Reads          int64         `json:"reads" yaml:"reads"`
	ReadBytes      int64         `json:"read_bytes" yaml:"read_bytes"`
	Writes         int64         `json:"writes" yaml:"writes"`
	WriteBytes     int64         `json:"write_bytes" yaml:"write_bytes"`
	Errors         int64         `json:"errors" yaml:"errors"`
	AvgLatency     time.Duration `json:"avg_latency_ns" yaml:"avg_latency_ns"`
	MaxLatency     time.Duration `json:"max_latency_ns" yaml:"max_latency_ns"`
	Backpressure   int64         `json:"backpressure_events" yaml:"backpressure_events"`
	MaxDepth       int64         `json:"max_queue_depth" yaml:"max_queue_depth"`
	VerifiedBytes  int64         `json:"verified_bytes" yaml:"verified_bytes"`
	VerifyErrors   int64         `json:"verify_errors" yaml:"verify_errors"`
	WorkersDone    int64         `json:"workers_done" yaml:"workers_done"`
	WorkerErrors   int64         `json:"worker_errors" yaml:"worker_errors"`
}

func storeMax(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n <= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
