package flashx

import (
	"time"

	"github.com/limkeunhak/FlashX/codec"
	"github.com/limkeunhak/FlashX/internal/worker"
	"github.com/limkeunhak/FlashX/metrics"
)

// WorkerReport summarizes one worker.
type WorkerReport struct {
	Index          int           `json:"index" yaml:"index"`
	Reads          int64         `json:"reads" yaml:"reads"`
	Writes         int64         `json:"writes" yaml:"writes"`
	ReadBytes      int64         `json:"read_bytes" yaml:"read_bytes"`
	WriteBytes     int64         `json:"write_bytes" yaml:"write_bytes"`
	SubmittedBytes int64         `json:"submitted_bytes" yaml:"submitted_bytes"`
	VerifiedBytes  int64         `json:"verified_bytes" yaml:"verified_bytes"`
	DistinctPages  uint64        `json:"distinct_pages" yaml:"distinct_pages"`
	Duration       time.Duration `json:"duration_ns" yaml:"duration_ns"`
	Throughput     float64       `json:"throughput_bytes_per_sec" yaml:"throughput_bytes_per_sec"`
}

// ResourceReport records what the run reserved from its resource budget.
type ResourceReport struct {
	MemoryLimit int64 `json:"memory_limit_bytes" yaml:"memory_limit_bytes"`
	PeakMemory  int64 `json:"peak_memory_bytes" yaml:"peak_memory_bytes"`
	PeakWorkers int64 `json:"peak_workers" yaml:"peak_workers"`
}

// Report aggregates a run.
type Report struct {
	Summary       string             `json:"summary" yaml:"summary"`
	Start         time.Time          `json:"start" yaml:"start"`
	End           time.Time          `json:"end" yaml:"end"`
	Duration      time.Duration      `json:"duration_ns" yaml:"duration_ns"`
	Bytes         int64              `json:"bytes" yaml:"bytes"`
	ReadBytes     int64              `json:"read_bytes" yaml:"read_bytes"`
	WriteBytes    int64              `json:"write_bytes" yaml:"write_bytes"`
	VerifiedBytes int64              `json:"verified_bytes" yaml:"verified_bytes"`
	Requests      int64              `json:"requests" yaml:"requests"`
	Throughput    float64            `json:"throughput_bytes_per_sec" yaml:"throughput_bytes_per_sec"`
	IOPS          float64            `json:"iops" yaml:"iops"`
	Workers       []WorkerReport     `json:"workers" yaml:"workers"`
	Resources     ResourceReport     `json:"resources" yaml:"resources"`
	Metrics       metrics.BasicStats `json:"metrics" yaml:"metrics"`
}

func newReport(cfg Config, start, end time.Time, stats []worker.Stats, m metrics.BasicStats) *Report {
	r := &Report{
		Summary:  Describe(cfg),
		Start:    start,
		End:      end,
		Duration: end.Sub(start),
		Metrics:  m,
		Workers:  make([]WorkerReport, 0, len(stats)),
	}
	for _, s := range stats {
		w := WorkerReport{
			Index:          s.Index,
			Reads:          s.Reads,
			Writes:         s.Writes,
			ReadBytes:      s.ReadBytes,
			WriteBytes:     s.WriteBytes,
			SubmittedBytes: s.SubmittedBytes,
			VerifiedBytes:  s.VerifiedBytes,
			DistinctPages:  s.DistinctPages,
			Duration:       s.Duration(),
		}
		w.Throughput = rate(s.Bytes(), w.Duration)
		r.Workers = append(r.Workers, w)

		r.ReadBytes += s.ReadBytes
		r.WriteBytes += s.WriteBytes
		r.VerifiedBytes += s.VerifiedBytes
		r.Requests += s.Reads + s.Writes
	}
	r.Bytes = r.ReadBytes + r.WriteBytes
	r.Throughput = rate(r.Bytes, r.Duration)
	r.IOPS = rate(r.Requests, r.Duration)
	return r
}

func rate(n int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

// Encode serializes the report with c. A nil codec uses codec.Default.
func (r *Report) Encode(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(r)
}
