package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Workers int      `json:"workers" yaml:"workers"`
	Depth   int      `json:"depth" yaml:"depth"`
	Files   []string `json:"files" yaml:"files"`
	Ratio   float64  `json:"ratio" yaml:"ratio"`
}

func TestCodecs(t *testing.T) {
	in := sample{Workers: 4, Depth: 32, Files: []string{"/dev/a", "/dev/b"}, Ratio: 0.5}

	for _, name := range []string{"json", "go-json", "yaml"} {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			b, err := c.Marshal(in)
			require.NoError(t, err)

			var out sample
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestGoJSON_Indent(t *testing.T) {
	b, err := GoJSON{Indent: "  "}.Marshal(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(b))

	b, err = GoJSON{}.Append([]byte("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "x1", string(b))
}
