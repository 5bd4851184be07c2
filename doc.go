// Package flashx drives page-aligned block I/O against one or more backing
// files with kernel asynchronous I/O.
//
// A run starts a number of workers. Each worker owns an I/O engine with a
// fixed queue depth, a pool of page buffers and a slice of the workload. It
// splits workload items at page boundaries, fills write buffers with a
// deterministic pattern, keeps many requests in flight and verifies every
// read against the same pattern when it completes.
//
// # Quick Start
//
//	cfg := flashx.Config{
//	    Files:    []string{"/dev/nvme0n1", "/dev/nvme1n1"},
//	    Direct:   true,
//	    Workers:  4,
//	    Verify:   true,
//	    Workload: workload.Config{Kind: workload.KindRandom, Size: 4096, Count: 1 << 20, ReadRatio: 1},
//	}
//
//	// Lay down the pattern once so verified reads have an oracle.
//	if _, err := flashx.Prepare(ctx, cfg); err != nil {
//	    return err
//	}
//
//	report, err := flashx.Run(ctx, cfg)
//
// # Errors
//
// Misaligned requests are programming errors and panic with an
// *aio.AlignmentError. Submission, completion and integrity failures are
// fatal for the worker that hit them; the run cancels the other workers and
// Run returns the first failure. Data corruption is reported as an
// *IntegrityError matching ErrCorrupt.
//
// # Asynchronous and Synchronous I/O
//
// With SyncIO set, workers perform one blocking pread/pwrite at a time
// instead of using the engine. The Backend field selects between Linux
// native AIO and a portable goroutine-backed queue.
package flashx
