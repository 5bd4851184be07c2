package flashx

import (
	"github.com/limkeunhak/FlashX/aio"
	"github.com/limkeunhak/FlashX/internal/mem"
	"github.com/limkeunhak/FlashX/internal/storage"
	"github.com/limkeunhak/FlashX/internal/worker"
	"github.com/limkeunhak/FlashX/workload"
)

// Defaults for Config.
const (
	DefaultPagesPerWorker = 40960
	DefaultNUMANodes      = 1
)

// Config describes a run. Field tags match the CLI's YAML configuration.
type Config struct {
	// Files are the backing files or block devices.
	Files []string `yaml:"files" json:"files"`

	// Direct opens the files with O_DIRECT.
	Direct bool `yaml:"direct" json:"direct"`

	// Create creates missing files with FileSize bytes each.
	Create   bool  `yaml:"create" json:"create"`
	FileSize int64 `yaml:"file_size" json:"file_size"`

	// StripeSize is the RAID-0 stripe unit across files. It must be a
	// multiple of PageSize. Defaults to 64 KiB.
	StripeSize int64 `yaml:"stripe_size" json:"stripe_size"`

	// Workers is the number of worker threads. Defaults to 1.
	Workers int `yaml:"workers" json:"workers"`

	// MaxConcurrentWorkers caps how many workers run at once. Defaults to
	// Workers.
	MaxConcurrentWorkers int `yaml:"max_concurrent_workers" json:"max_concurrent_workers"`

	// PageSize is the split unit and buffer size. Defaults to 4096.
	PageSize int `yaml:"page_size" json:"page_size"`

	// BlockSize is the alignment unit of requests. Defaults to 512.
	BlockSize int `yaml:"block_size" json:"block_size"`

	// SyncIO disables asynchronous I/O.
	SyncIO bool `yaml:"sync_io" json:"sync_io"`

	// Backend is "auto", "native" or "go". Defaults to "auto".
	Backend string `yaml:"backend" json:"backend"`

	// Depth is the queue depth of each worker's engine. When zero it is
	// DepthPerFile times the number of files.
	Depth        int `yaml:"depth" json:"depth"`
	DepthPerFile int `yaml:"depth_per_file" json:"depth_per_file"`

	// TotalPages is the page-buffer budget shared by all workers on all
	// NUMA nodes. Defaults to DefaultPagesPerWorker times Workers.
	TotalPages int `yaml:"total_pages" json:"total_pages"`
	NUMANodes  int `yaml:"numa_nodes" json:"numa_nodes"`

	// BatchSize is the number of workload items per submission.
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// Verify compares reads against the pattern.
	Verify bool `yaml:"verify" json:"verify"`

	// PinCPU binds worker i to CPU i mod NumCPU.
	PinCPU bool `yaml:"pin_cpu" json:"pin_cpu"`

	// MemoryLimitBytes caps the buffer memory of all workers. Zero is
	// unlimited.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes" json:"memory_limit_bytes"`

	// IOLimitBytesPerSec caps aggregate throughput. Zero is unlimited.
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec" json:"io_limit_bytes_per_sec"`

	// Workload is split across workers. A zero End means the capacity of
	// the file set.
	Workload workload.Config `yaml:"workload" json:"workload"`
}

func (c Config) withDefaults() Config {
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.MaxConcurrentWorkers == 0 {
		c.MaxConcurrentWorkers = c.Workers
	}
	if c.PageSize == 0 {
		c.PageSize = worker.DefaultPageSize
	}
	if c.BlockSize == 0 {
		c.BlockSize = aio.DefaultBlockSize
	}
	if c.StripeSize == 0 {
		c.StripeSize = storage.DefaultStripeSize
	}
	if c.Backend == "" {
		c.Backend = string(aio.BackendAuto)
	}
	if c.NUMANodes == 0 {
		c.NUMANodes = DefaultNUMANodes
	}
	if c.TotalPages == 0 {
		c.TotalPages = DefaultPagesPerWorker * c.Workers
	}
	if c.BatchSize == 0 {
		c.BatchSize = worker.DefaultBatchSize
	}
	if c.Workload.Kind == "" {
		c.Workload.Kind = workload.KindSequential
	}
	if c.Workload.Size == 0 {
		c.Workload.Size = c.PageSize
	}
	return c
}

// Validate checks c after defaults have been applied. Workload bounds that
// depend on the file set are checked when the files are open.
func (c Config) Validate() error {
	c = c.withDefaults()
	block := int64(c.BlockSize)
	switch {
	case len(c.Files) == 0:
		return invalidField("files", "at least one file is required")
	case c.Workers < 0:
		return invalidField("workers", "must be positive, got %d", c.Workers)
	case c.MaxConcurrentWorkers < 0:
		return invalidField("max_concurrent_workers", "must be positive, got %d", c.MaxConcurrentWorkers)
	case !mem.IsPowerOfTwo(c.BlockSize):
		return invalidField("block_size", "must be a power of two, got %d", c.BlockSize)
	case !mem.IsPowerOfTwo(c.PageSize) || c.PageSize < c.BlockSize:
		return invalidField("page_size", "must be a power of two of at least block_size, got %d", c.PageSize)
	case c.StripeSize%int64(c.PageSize) != 0 || c.StripeSize < 0:
		return invalidField("stripe_size", "must be a multiple of page_size, got %d", c.StripeSize)
	case c.Depth < 0 || c.DepthPerFile < 0:
		return invalidField("depth", "must not be negative")
	case c.TotalPages < 0 || c.NUMANodes < 0:
		return invalidField("total_pages", "must not be negative")
	case c.Create && c.FileSize <= 0:
		return invalidField("file_size", "required when create is set")
	case c.Create && c.FileSize%c.StripeSize != 0 && len(c.Files) > 1:
		return invalidField("file_size", "must be a multiple of stripe_size, got %d", c.FileSize)
	case c.Workload.Start < 0:
		return invalidField("workload.start", "must not be negative, got %d", c.Workload.Start)
	case c.Workload.Stride < 0:
		return invalidField("workload.stride", "must not be negative, got %d", c.Workload.Stride)
	case c.Workload.Start%block != 0:
		return invalidField("workload.start", "must be a multiple of block_size, got %d", c.Workload.Start)
	case c.Workload.End%block != 0:
		return invalidField("workload.end", "must be a multiple of block_size, got %d", c.Workload.End)
	case int64(c.Workload.Size)%block != 0:
		return invalidField("workload.size", "must be a multiple of block_size, got %d", c.Workload.Size)
	case c.Workload.Stride%block != 0:
		return invalidField("workload.stride", "must be a multiple of block_size, got %d", c.Workload.Stride)
	}
	switch aio.Backend(c.Backend) {
	case aio.BackendAuto, aio.BackendNative, aio.BackendGo:
	default:
		return invalidField("backend", "unknown backend %q", c.Backend)
	}
	return nil
}

func (c Config) storageConfig() storage.Config {
	return storage.Config{
		Paths:      c.Files,
		Direct:     c.Direct,
		Create:     c.Create,
		FileSize:   c.FileSize,
		StripeSize: c.StripeSize,
	}
}

func (c Config) engineConfig() aio.Config {
	return aio.Config{
		Depth:        c.Depth,
		DepthPerFile: c.DepthPerFile,
		BlockSize:    c.BlockSize,
		Backend:      aio.Backend(c.Backend),
	}
}
