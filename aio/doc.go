// Package aio is an asynchronous, page-aligned block I/O engine.
//
// An Engine owns one kernel I/O queue of a fixed depth and a pool of callback
// slots. Callers hand it batches of Requests with Access; the engine submits
// as many as the queue can take, and when the queue is full it harvests
// completions until capacity frees up, running the completion Callback for
// each finished request. Every request eventually produces exactly one
// callback invocation, after which its slot returns to the pool.
//
// An Engine is confined to one goroutine. Callbacks run on that goroutine,
// inside Access, WaitForCompletions or Cleanup, and may themselves call
// Access to submit follow-up work.
//
// Buffers, offsets and sizes must be multiples of the block size (512 bytes
// by default). Violations are programming errors and panic with an
// *AlignmentError.
//
// SyncIO is the synchronous counterpart for configurations without
// asynchronous I/O.
package aio
