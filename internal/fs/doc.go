// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open backing file addressed positionally (ReadAt/WriteAt)
//     that also exposes its descriptor for kernel asynchronous I/O
//   - [FileSystem]: opens files and creates their parent directories
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (I/O errors, corrupted reads)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("data-0", fs.Fault{FailAfterBytes: 4096})
//	// inject ffs into component under test
//
// Faults apply to the positional methods only. Requests issued through a
// kernel queue use the raw descriptor and bypass them.
package fs
