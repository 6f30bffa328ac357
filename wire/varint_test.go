package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarint32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, math.MaxUint32}
	for _, v := range values {
		buf := appendVarint32(nil, v)
		got, next, err := readVarint32(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), next)
		assert.Equal(t, v, got)
	}
}

func TestVarint64RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 16383, 16384, math.MaxUint64}
	for _, v := range values {
		buf := appendVarint64(nil, v)
		got, next, err := readVarint64(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(buf), next)
		assert.Equal(t, v, got)
	}
}

func TestZigzag32RoundTrip(t *testing.T) {
	values := []int32{0, -1, 1, math.MinInt32, math.MaxInt32, -64, 63}
	for _, v := range values {
		assert.Equal(t, v, zigzagDecode32(zigzag32(v)))
	}
}

func TestZigzag64RoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, math.MinInt64, math.MaxInt64}
	for _, v := range values {
		assert.Equal(t, v, zigzagDecode64(zigzag64(v)))
	}
}

func TestReadVarint32InsufficientData(t *testing.T) {
	_, _, err := readVarint32([]byte{0x80}, 0)
	require.Error(t, err)
	de, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, KindInsufficientData, de.Kind())
}
