package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpRoundTrip(t *testing.T) {
	c := NewNoOp()
	data := []byte("pass through unchanged")
	compressed, err := c.Compress(data)
	require.NoError(t, err)
	assert.Equal(t, data, compressed)

	out, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestLZ4RoundTrip(t *testing.T) {
	c := NewLZ4()
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 64)

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	out, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestZstdRoundTrip(t *testing.T) {
	c := NewZstd()
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 64)

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	out, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestAlgorithmIdentifiers(t *testing.T) {
	assert.Equal(t, AlgorithmNone, NewNoOp().Algorithm())
	assert.Equal(t, AlgorithmLZ4, NewLZ4().Algorithm())
	assert.Equal(t, AlgorithmZstd, NewZstd().Algorithm())
}
