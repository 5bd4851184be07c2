// Package testutil provides testing utilities for FlashX.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Data
//
//	rng := testutil.NewRNG(seed)
//	off := rng.AlignedOffset(1<<20, 4096)
//	rng.Fill(garbage)
//
// # Backing Files
//
//	files := testutil.OpenFileSet(t, 3, 1<<20, true) // pattern-filled
//	testutil.Corrupt(t, files, off)
package testutil
