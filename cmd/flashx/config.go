package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/limkeunhak/FlashX"
	"github.com/limkeunhak/FlashX/codec"
	"github.com/limkeunhak/FlashX/workload"
)

// configFlags are the flags shared by prepare and run. Values given on the
// command line override the YAML file named by -config.
type configFlags struct {
	path string

	files       string
	direct      bool
	create      bool
	fileSize    string
	stripeSize  string
	workers     int
	concurrent  int
	pageSize    int
	blockSize   int
	syncIO      bool
	backend     string
	depth       int
	totalPages  int
	numaNodes   int
	batchSize   int
	verify      bool
	pinCPU      bool
	memoryLimit string
	ioLimit     string

	kind      string
	start     string
	end       string
	size      int
	count     int
	stride    string
	readRatio float64
	seed      int64
}

func (c *configFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "config", "", "YAML configuration file.")

	f.StringVar(&c.files, "files", "", "comma separated backing files or block devices.")
	f.BoolVar(&c.direct, "direct", false, "open files with O_DIRECT.")
	f.BoolVar(&c.create, "create", false, "create missing files of -file-size bytes.")
	f.StringVar(&c.fileSize, "file-size", "", "size of created files, e.g. 4GiB.")
	f.StringVar(&c.stripeSize, "stripe-size", "", "stripe unit across files, e.g. 64KiB.")
	f.IntVar(&c.workers, "workers", 0, "number of worker threads.")
	f.IntVar(&c.concurrent, "max-concurrent-workers", 0, "cap on workers running at once.")
	f.IntVar(&c.pageSize, "page-size", 0, "page size in bytes.")
	f.IntVar(&c.blockSize, "block-size", 0, "alignment unit in bytes.")
	f.BoolVar(&c.syncIO, "sync", false, "use blocking pread/pwrite instead of asynchronous I/O.")
	f.StringVar(&c.backend, "backend", "", "asynchronous backend: auto, native or go.")
	f.IntVar(&c.depth, "depth", 0, "queue depth of each worker.")
	f.IntVar(&c.totalPages, "total-pages", 0, "page buffers shared by all workers.")
	f.IntVar(&c.numaNodes, "numa-nodes", 0, "NUMA nodes the page budget is split across.")
	f.IntVar(&c.batchSize, "batch-size", 0, "workload items per submission.")
	f.BoolVar(&c.verify, "verify", false, "verify reads against the pattern.")
	f.BoolVar(&c.pinCPU, "pin-cpu", false, "bind each worker to one CPU.")
	f.StringVar(&c.memoryLimit, "memory-limit", "", "cap on buffer memory, e.g. 1GiB.")
	f.StringVar(&c.ioLimit, "io-limit", "", "cap on throughput per second, e.g. 500MiB.")

	f.StringVar(&c.kind, "workload", "", "workload kind: sequential, stride, random or permutation.")
	f.StringVar(&c.start, "start", "", "first byte of the workload range.")
	f.StringVar(&c.end, "end", "", "end of the workload range; defaults to the capacity.")
	f.IntVar(&c.size, "size", 0, "bytes per workload item.")
	f.IntVar(&c.count, "count", 0, "items for stride and random workloads.")
	f.StringVar(&c.stride, "stride", "", "distance between stride items of one worker.")
	f.Float64Var(&c.readRatio, "read-ratio", 0, "fraction of reads in [0, 1].")
	f.Int64Var(&c.seed, "seed", 0, "random seed.")
}

// load reads the configuration file, if any, and applies the flags set on f.
func (c *configFlags) load(f *flag.FlagSet) (flashx.Config, error) {
	var cfg flashx.Config
	if c.path != "" {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return cfg, err
		}
		if err := (codec.YAML{}).Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", c.path, err)
		}
	}

	var err error
	f.Visit(func(fl *flag.Flag) {
		if err == nil {
			err = c.apply(&cfg, fl.Name)
		}
	})
	return cfg, err
}

func (c *configFlags) apply(cfg *flashx.Config, name string) error {
	var err error
	switch name {
	case "files":
		cfg.Files = strings.Split(c.files, ",")
	case "direct":
		cfg.Direct = c.direct
	case "create":
		cfg.Create = c.create
	case "file-size":
		cfg.FileSize, err = parseBytes(name, c.fileSize)
	case "stripe-size":
		cfg.StripeSize, err = parseBytes(name, c.stripeSize)
	case "workers":
		cfg.Workers = c.workers
	case "max-concurrent-workers":
		cfg.MaxConcurrentWorkers = c.concurrent
	case "page-size":
		cfg.PageSize = c.pageSize
	case "block-size":
		cfg.BlockSize = c.blockSize
	case "sync":
		cfg.SyncIO = c.syncIO
	case "backend":
		cfg.Backend = c.backend
	case "depth":
		cfg.Depth = c.depth
	case "total-pages":
		cfg.TotalPages = c.totalPages
	case "numa-nodes":
		cfg.NUMANodes = c.numaNodes
	case "batch-size":
		cfg.BatchSize = c.batchSize
	case "verify":
		cfg.Verify = c.verify
	case "pin-cpu":
		cfg.PinCPU = c.pinCPU
	case "memory-limit":
		cfg.MemoryLimitBytes, err = parseBytes(name, c.memoryLimit)
	case "io-limit":
		cfg.IOLimitBytesPerSec, err = parseBytes(name, c.ioLimit)
	case "workload":
		cfg.Workload.Kind = workload.Kind(c.kind)
	case "start":
		cfg.Workload.Start, err = parseBytes(name, c.start)
	case "end":
		cfg.Workload.End, err = parseBytes(name, c.end)
	case "size":
		cfg.Workload.Size = c.size
	case "count":
		cfg.Workload.Count = c.count
	case "stride":
		cfg.Workload.Stride, err = parseBytes(name, c.stride)
	case "read-ratio":
		cfg.Workload.ReadRatio = c.readRatio
	case "seed":
		cfg.Workload.Seed = c.seed
	}
	return err
}

// parseBytes accepts plain byte counts and humanized sizes such as 64KiB.
func parseBytes(name, s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("-%s: %w", name, err)
	}
	return int64(n), nil
}
