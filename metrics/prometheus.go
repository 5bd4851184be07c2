package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports engine events as Prometheus collectors.
type PrometheusObserver struct {
	latency      *prometheus.HistogramVec
	bytes        *prometheus.CounterVec
	submits      prometheus.Counter
	backpressure *prometheus.CounterVec
	queueDepth   *prometheus.GaugeVec
	verified     *prometheus.CounterVec
	workers      *prometheus.CounterVec
}

var _ Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flashx_io_latency_seconds",
			Help:    "Latency from submission to completion harvest",
			Buckets: prometheus.ExponentialBuckets(10e-6, 2, 18),
		}, []string{"op", "status"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flashx_io_bytes_total",
			Help: "Bytes transferred by completed requests",
		}, []string{"op"}),
		submits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flashx_submit_batches_total",
			Help: "Batches handed to the kernel queue",
		}),
		backpressure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flashx_backpressure_events_total",
			Help: "Times a submitter had to wait",
		}, []string{"reason"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flashx_queue_depth",
			Help: "In-flight requests per queue",
		}, []string{"queue"}),
		verified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flashx_verified_bytes_total",
			Help: "Bytes compared against the expected pattern",
		}, []string{"status"}),
		workers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flashx_workers_done_total",
			Help: "Workers that left their run loop",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		o.latency, o.bytes, o.submits, o.backpressure, o.queueDepth, o.verified, o.workers,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return o, nil
}

func (o *PrometheusObserver) OnSubmit(int, int64) { o.submits.Inc() }

func (o *PrometheusObserver) OnComplete(op string, bytes int64, latency time.Duration, err error) {
	o.latency.WithLabelValues(op, status(err)).Observe(latency.Seconds())
	if err == nil {
		o.bytes.WithLabelValues(op).Add(float64(bytes))
	}
}

func (o *PrometheusObserver) OnBackpressure(reason string) {
	o.backpressure.WithLabelValues(reason).Inc()
}

func (o *PrometheusObserver) OnQueueDepth(name string, depth int) {
	o.queueDepth.WithLabelValues(name).Set(float64(depth))
}

func (o *PrometheusObserver) OnVerify(bytes int64, err error) {
	o.verified.WithLabelValues(status(err)).Add(float64(bytes))
}

func (o *PrometheusObserver) OnWorkerDone(_ int, _ int64, _ time.Duration, err error) {
	o.workers.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
