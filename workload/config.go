package workload

import (
	"errors"
	"fmt"
)

// Kind names a generator.
type Kind string

const (
	KindSequential  Kind = "sequential"
	KindStride      Kind = "stride"
	KindRandom      Kind = "random"
	KindPermutation Kind = "permutation"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("workload: invalid config")

// Config describes a workload over the byte range [Start, End). Workers
// split it with ForWorker.
type Config struct {
	Kind  Kind  `yaml:"kind" json:"kind"`
	Start int64 `yaml:"start" json:"start"`
	End   int64 `yaml:"end" json:"end"`

	// Size is the item size in bytes.
	Size int `yaml:"size" json:"size"`

	// Count is the total number of items for stride and random workloads.
	// Stride items that would cross End are not generated.
	Count int `yaml:"count" json:"count"`

	// Stride is the distance between consecutive items of one worker.
	// Defaults to Size times the number of workers, so workers interleave
	// without overlapping.
	Stride int64 `yaml:"stride" json:"stride"`

	ReadRatio float64 `yaml:"read_ratio" json:"read_ratio"`
	Seed      int64   `yaml:"seed" json:"seed"`
}

// Validate checks c.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, c.Size)
	case c.Start < 0:
		return fmt.Errorf("%w: negative start %d", ErrInvalidConfig, c.Start)
	case c.Stride < 0:
		return fmt.Errorf("%w: negative stride %d", ErrInvalidConfig, c.Stride)
	case c.End <= c.Start:
		return fmt.Errorf("%w: empty range [%d, %d)", ErrInvalidConfig, c.Start, c.End)
	case c.ReadRatio < 0 || c.ReadRatio > 1:
		return fmt.Errorf("%w: read ratio %v outside [0, 1]", ErrInvalidConfig, c.ReadRatio)
	}
	switch c.Kind {
	case KindSequential, KindPermutation, "":
	case KindStride, KindRandom:
		if c.Count < 0 {
			return fmt.Errorf("%w: negative count %d", ErrInvalidConfig, c.Count)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, c.Kind)
	}
	return nil
}

// ForWorker returns the generator of worker index out of workers.
//
// Sequential and permutation workloads give each worker a contiguous,
// Size-aligned share of the range. Stride workloads interleave workers;
// random workloads split Count and derive a per-worker seed.
func (c Config) ForWorker(index, workers int) Generator {
	mix := Mix{ReadRatio: c.ReadRatio, Seed: c.Seed + int64(index)}
	switch c.Kind {
	case KindStride:
		stride := c.Stride
		if stride == 0 {
			stride = int64(c.Size) * int64(workers)
		}
		start := c.Start + int64(index)*int64(c.Size)
		return NewStride(start, c.End, stride, c.Size, share(c.Count, index, workers), mix)
	case KindRandom:
		return NewRandom(c.Seed+int64(index)*7919, c.Start, c.End, c.Size, share(c.Count, index, workers), mix)
	}

	start, end := c.span(index, workers)
	if c.Kind == KindPermutation {
		return NewPermutation(c.Seed+int64(index), start, end, c.Size, mix)
	}
	return NewSequential(start, end, c.Size, mix)
}

// span returns the share of [Start, End) owned by worker index.
func (c Config) span(index, workers int) (int64, int64) {
	units := (c.End - c.Start) / int64(c.Size)
	per, extra := units/int64(workers), units%int64(workers)
	i := int64(index)
	first := i*per + min(i, extra)
	n := per
	if i < extra {
		n++
	}
	start := c.Start + first*int64(c.Size)
	end := start + n*int64(c.Size)
	if index == workers-1 {
		end = c.End
	}
	return start, end
}

// share splits total into workers parts; the first total%workers parts get
// one extra.
func share(total, index, workers int) int {
	n := total / workers
	if index < total%workers {
		n++
	}
	return n
}
