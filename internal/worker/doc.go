// Package worker runs one workload against one IO on a dedicated OS thread.
//
// A worker splits every workload item at page boundaries, gives each piece
// a buffer from its own pool, fills write buffers with the deterministic
// pattern and submits them in batches. Completions come back through the
// worker's callback, which verifies reads, accounts the bytes and returns
// the buffer to the pool. Without asynchronous I/O the same steps run one
// blocking transfer at a time.
package worker
