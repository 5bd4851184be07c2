// Package metrics defines the observer hooks reported by the I/O engine and
// the worker loop, together with no-op, in-memory and Prometheus backends.
package metrics

import "time"

// Observer receives engine and worker events.
//
// Implementations must be safe for concurrent use: every worker reports into
// the same observer.
type Observer interface {
	// OnSubmit is called after a batch was handed to the kernel queue.
	OnSubmit(requests int, bytes int64)

	// OnComplete is called once per finished request. op is "read" or "write";
	// latency spans submission to completion harvest.
	OnComplete(op string, bytes int64, latency time.Duration, err error)

	// OnBackpressure is called whenever a submitter has to wait, either for
	// queue capacity ("queue_full"), callback slots ("slots_exhausted") or
	// data buffers ("buffers_exhausted").
	OnBackpressure(reason string)

	// OnQueueDepth reports the number of in-flight requests of a queue.
	OnQueueDepth(name string, depth int)

	// OnVerify is called after a read was compared with the expected pattern.
	OnVerify(bytes int64, err error)

	// OnWorkerDone is called when a worker leaves its run loop.
	OnWorkerDone(worker int, bytes int64, duration time.Duration, err error)
}

// Noop is an Observer that discards every event.
type Noop struct{}

func (Noop) OnSubmit(int, int64)                            {}
func (Noop) OnComplete(string, int64, time.Duration, error) {}
func (Noop) OnBackpressure(string)                          {}
func (Noop) OnQueueDepth(string, int)                       {}
func (Noop) OnVerify(int64, error)                          {}
func (Noop) OnWorkerDone(int, int64, time.Duration, error)  {}

// OrNoop returns o, or a Noop observer when o is nil.
func OrNoop(o Observer) Observer {
	if o == nil {
		return Noop{}
	}
	return o
}

// Multi fans every event out to all observers in order.
type Multi []Observer

func (m Multi) OnSubmit(requests int, bytes int64) {
	for _, o := range m {
		o.OnSubmit(requests, bytes)
	}
}

func (m Multi) OnComplete(op string, bytes int64, latency time.Duration, err error) {
	for _, o := range m {
		o.OnComplete(op, bytes, latency, err)
	}
}

func (m Multi) OnBackpressure(reason string) {
	for _, o := range m {
		o.OnBackpressure(reason)
	}
}

func (m Multi) OnQueueDepth(name string, depth int) {
	for _, o := range m {
		o.OnQueueDepth(name, depth)
	}
}

func (m Multi) OnVerify(bytes int64, err error) {
	for _, o := range m {
		o.OnVerify(bytes, err)
	}
}

func (m Multi) OnWorkerDone(worker int, bytes int64, duration time.Duration, err error) {
	for _, o := range m {
		o.OnWorkerDone(worker, bytes, duration, err)
	}
}
