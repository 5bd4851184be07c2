package pattern

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillWordLayout(t *testing.T) {
	buf := make([]byte, 32)
	Fill(buf, 4096)

	for i := 0; i < 4; i++ {
		assert.Equal(t, uint64(4096/8+i), binary.LittleEndian.Uint64(buf[i*8:]))
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		off  int64
		size int
	}{
		{"block", 0, 4096},
		{"high offset", 1 << 40, 512},
		{"word aligned tail", 8, 24},
		{"mid word start", 3, 100},
		{"mid word short", 13, 2},
		{"single byte", 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.size)
			Fill(buf, tt.off)
			require.NoError(t, Verify(buf, tt.off))
		})
	}
}

func TestSubWordSliceMatchesWholeWords(t *testing.T) {
	whole := make([]byte, 64)
	Fill(whole, 0)

	for start := 0; start < 16; start++ {
		for end := start + 1; end <= 40; end++ {
			require.NoError(t, Verify(whole[start:end], int64(start)), "slice [%d,%d)", start, end)
		}
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	buf := make([]byte, 4096)
	Fill(buf, 8192)
	buf[1234] ^= 0xff

	err := Verify(buf, 8192)
	require.Error(t, err)

	var m *Mismatch
	require.True(t, errors.As(err, &m))
	assert.Equal(t, int64(8192+1234), m.Offset)
	assert.Equal(t, ByteAt(8192+1234), m.Expected)
}

func TestVerifyDetectsWrongOffset(t *testing.T) {
	buf := make([]byte, 512)
	Fill(buf, 0)
	assert.Error(t, Verify(buf, 512))
}

func BenchmarkFill(b *testing.B) {
	buf := make([]byte, 4096)
	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		Fill(buf, int64(i)*4096)
	}
}

func BenchmarkVerify(b *testing.B) {
	buf := make([]byte, 4096)
	Fill(buf, 4096)
	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		_ = Verify(buf, 4096)
	}
}
