package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biwi-proto/biwi/compress"
	"github.com/biwi-proto/biwi/wire"
)

func TestSetGetRemoveField(t *testing.T) {
	m := New()
	m.SetField(1, wire.Int32(42))
	v, ok := m.GetField(1)
	require.True(t, ok)
	assert.Equal(t, int32(42), v.AsInt32())

	assert.True(t, m.HasField(1))
	assert.Equal(t, 1, m.FieldCount())

	removed, ok := m.RemoveField(1)
	assert.True(t, ok)
	assert.Equal(t, int32(42), removed.AsInt32())
	assert.False(t, m.HasField(1))
}

func TestFromBufferRoundTrip(t *testing.T) {
	m := New()
	m.SetField(1, wire.String("hello"))
	m.SetField(2, wire.Int32(7))
	m.SetField(3, wire.Array([]wire.Value{wire.Int32(1), wire.Int32(2)}))

	buf := m.ToVec()
	decoded := FromBuffer(buf)

	assert.Equal(t, m.FieldCount(), decoded.FieldCount())
	for _, id := range m.FieldIDs() {
		want, _ := m.GetField(id)
		got, ok := decoded.GetField(id)
		require.True(t, ok)
		assert.True(t, want.Equal(got))
	}
}

func TestToBufferCachesUntilMutation(t *testing.T) {
	m := New()
	m.SetField(1, wire.Int32(1))
	first := m.ToBuffer()
	second := m.ToBuffer()
	assert.Same(t, &first[0], &second[0])

	m.SetField(1, wire.Int32(2))
	third := m.ToBuffer()
	assert.NotEqual(t, first, third)
}

func TestUpdateFieldAppliesToCurrentValue(t *testing.T) {
	m := New()
	m.UpdateField(1, func(v wire.Value) wire.Value {
		assert.Equal(t, wire.Null, v)
		return wire.Int32(1)
	})
	v, ok := m.GetField(1)
	require.True(t, ok)
	assert.Equal(t, int32(1), v.AsInt32())

	m.UpdateField(1, func(v wire.Value) wire.Value {
		return wire.Int32(v.AsInt32() + 1)
	})
	v, _ = m.GetField(1)
	assert.Equal(t, int32(2), v.AsInt32())
}

func TestClearEmptiesMessage(t *testing.T) {
	m := New()
	m.SetField(1, wire.Int32(1))
	m.Clear()
	assert.Equal(t, 0, m.FieldCount())
}

func TestFingerprintStableForSameContent(t *testing.T) {
	a := New()
	a.SetField(1, wire.String("x"))
	b := New()
	b.SetField(1, wire.String("x"))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestWithCompressionRoundTrip(t *testing.T) {
	m := New().WithCompression(compress.NewLZ4(), 8)
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i % 7)
	}
	m.SetField(1, wire.Binary(payload))

	buf := m.ToVec()
	decoded := FromBufferWithDecompressor(buf, compress.NewLZ4())
	got, ok := decoded.GetField(1)
	require.True(t, ok)
	assert.Equal(t, payload, got.AsBinary())
}
