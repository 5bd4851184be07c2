// Package kaio implements the kernel asynchronous I/O submission/completion
// contract: submit a batch of requests, then wait in bulk for completions
// identified by an opaque per-request token.
//
// # Backends
//
//   - [NewNativeQueue]: Linux native AIO (io_setup, io_submit, io_getevents,
//     io_destroy) issued through golang.org/x/sys/unix. Requires a 64-bit
//     little-endian Linux target.
//   - [NewGoQueue]: a portable queue that services each request with a
//     blocking pread/pwrite on its own goroutine. Useful where kernel AIO is
//     unavailable (seccomp-restricted containers, non-Linux hosts) and in
//     tests.
//
// A Queue is owned by a single goroutine: Submit and Wait must not be called
// concurrently.
package kaio
