package testutil

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/limkeunhak/FlashX/internal/pattern"
	"github.com/limkeunhak/FlashX/internal/storage"
	"github.com/stretchr/testify/require"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// AlignedOffset returns a random multiple of align in [0, limit).
func (r *RNG) AlignedOffset(limit, align int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(limit/align) * align
}

// Fill fills p with random bytes.
func (r *RNG) Fill(p []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.rand.Read(p)
}

// TempPaths returns n file paths inside a fresh temporary directory.
func TempPaths(t testing.TB, n int) []string {
	t.Helper()
	dir := t.TempDir()
	out := make([]string, n)
	for i := range out {
		out[i] = filepath.Join(dir, fmt.Sprintf("data-%d", i))
	}
	return out
}

// OpenFileSet creates n backing files of size bytes each without O_DIRECT,
// optionally filling the whole address space with the pattern. The set is
// closed when the test ends.
func OpenFileSet(t testing.TB, n int, size int64, fill bool) *storage.FileSet {
	t.Helper()
	s, err := storage.Open(storage.Config{Paths: TempPaths(t, n), Create: true, FileSize: size})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	if fill {
		FillPattern(t, s)
	}
	return s
}

// FillPattern writes the pattern over the whole capacity of s, one stripe
// unit at a time.
func FillPattern(t testing.TB, s *storage.FileSet) {
	t.Helper()
	unit := s.StripeSize()
	buf := make([]byte, unit)
	for off := int64(0); off < s.Capacity(); off += unit {
		size := min(unit, s.Capacity()-off)
		pattern.Fill(buf[:size], off)
		idx, local, ok := s.Locate(off, int(size))
		require.True(t, ok)
		_, err := s.WriteAt(idx, buf[:size], local)
		require.NoError(t, err)
	}
}

// Corrupt flips one byte at the global offset off.
func Corrupt(t testing.TB, s *storage.FileSet, off int64) {
	t.Helper()
	idx, local, ok := s.Locate(off, 1)
	require.True(t, ok)
	b := []byte{0}
	_, err := s.ReadAt(idx, b, local)
	require.NoError(t, err)
	b[0] ^= 0xff
	_, err = s.WriteAt(idx, b, local)
	require.NoError(t, err)
}
