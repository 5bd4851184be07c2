// Package resource bounds what a run may consume.
//
// A Controller governs three resources shared by every worker of a run:
//
//   - Memory: pinned buffer-pool bytes, reserved fail-fast before a worker
//     allocates its pool.
//   - Workers: a weighted semaphore capping how many workers run their
//     I/O loop at the same time.
//   - IO: a token bucket capping aggregate throughput in bytes per second.
//
// # Memory
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(poolBytes); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(poolBytes)
//
// # IO Rate Limiting
//
// AcquireIO waits for tokens in chunks no larger than the bucket, so a
// single large batch never exceeds the burst and fails outright:
//
//	if err := rc.AcquireIO(ctx, batchBytes); err != nil {
//	    return err
//	}
//
// NewRateLimitedWriterAt wraps a file for bulk fills.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
