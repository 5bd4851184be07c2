// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Direct I/O requires the buffer address, the file offset and the transfer
// size to be multiples of the device block size. [AllocAligned] returns heap
// memory starting at a caller-chosen power-of-two boundary; [MapAnonymous]
// returns page-aligned memory outside the Go heap for large arenas.
package mem
