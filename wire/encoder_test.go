package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValueRoundTripAllKinds(t *testing.T) {
	values := []Value{
		Null,
		Bool(true),
		Bool(false),
		Int32(0),
		Int32(63),
		Int32(-64),
		Int32(200),
		Int32(-200),
		Int64(1 << 40),
		Float32(1.5),
		Float64(3.14159265358979),
		String(""),
		String("small"),
		String("this string is definitely longer than fifteen bytes"),
		Binary([]byte{1, 2, 3, 4, 5}),
		Array([]Value{String("a"), Int32(1), Bool(true)}),
		Object(map[string]Value{"name": String("biwi"), "count": Int32(7)}),
	}

	for _, v := range values {
		enc := NewEncoder()
		enc.EncodeValue(v)
		dec := NewDecoder(enc.Bytes())
		got, err := dec.DecodeValue()
		require.NoError(t, err)
		assert.True(t, v.Equal(got), "round-trip mismatch for %+v -> %+v", v, got)
	}
}

func TestEncodeInt32SmallFastPath(t *testing.T) {
	enc := NewEncoder()
	enc.EncodeValue(Int32(5))
	assert.Equal(t, []byte{byte(TypeInt32), 0x85}, enc.Bytes())
}

func TestEncodeInt32VarintPath(t *testing.T) {
	enc := NewEncoder()
	enc.EncodeValue(Int32(200))
	assert.Equal(t, []byte{byte(TypeInt32), 0x90, 0x03}, enc.Bytes())
}

func TestDecodeSmallIntFastPathCoversFullRange(t *testing.T) {
	for n := int32(-64); n <= 63; n++ {
		enc := NewEncoder()
		enc.EncodeValue(Int32(n))
		bytes := enc.Bytes()
		require.Len(t, bytes, 2, "value %d should take the 1-byte fast path", n)

		dec := NewDecoder(bytes)
		got, err := dec.DecodeValue()
		require.NoError(t, err)
		assert.Equal(t, n, got.AsInt32(), "round-trip mismatch for fast-path value %d (byte 0x%02x)", n, bytes[1])
	}
}

func TestDecodeSmallIntScenario2ExactBytes(t *testing.T) {
	dec := NewDecoder([]byte{byte(TypeInt32), 0x85})
	got, err := dec.DecodeValue()
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.AsInt32())
}

func TestEncodeFieldCompactHeader(t *testing.T) {
	for id := uint32(1); id <= 63; id++ {
		enc := NewEncoder()
		enc.EncodeField(id, Int32(1))
		assert.Less(t, enc.Bytes()[0], byte(0x80), "field id %d should use compact header", id)
	}
}

func TestMessageScenario1(t *testing.T) {
	enc := NewEncoder()
	enc.EncodeField(1, String("Hello"))
	enc.EncodeField(2, Int32(42))

	dec := NewDecoder(enc.Bytes())
	fields := dec.DecodeAll()
	require.Len(t, fields, 2)
	assert.Equal(t, uint32(1), fields[0].FieldID)
	assert.True(t, fields[0].Value.Equal(String("Hello")))
	assert.Equal(t, uint32(2), fields[1].FieldID)
	assert.True(t, fields[1].Value.Equal(Int32(42)))
}

func TestPackedArrayScenario(t *testing.T) {
	enc := NewEncoder()
	arr := Array([]Value{Int32(1), Int32(2), Int32(3)})
	enc.EncodeValue(arr)

	want := []byte{byte(TypePackedArray), byte(TypeInt32), 0x03, 0x02, 0x04, 0x06}
	assert.Equal(t, want, enc.Bytes())

	dec := NewDecoder(enc.Bytes())
	got, err := dec.DecodeValue()
	require.NoError(t, err)
	assert.True(t, got.Equal(arr))
}

func TestDecodeUnknownType(t *testing.T) {
	dec := NewDecoder([]byte{0x77})
	_, err := dec.DecodeValue()
	require.Error(t, err)
	de, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnknownType, de.Kind())
}

func TestDecodeInvalidUTF8String(t *testing.T) {
	enc := NewEncoder()
	enc.EncodeValue(String("ok")) // placeholder to get structure, then corrupt bytes
	buf := enc.Bytes()
	// Overwrite the small-string payload with an invalid UTF-8 byte.
	buf[len(buf)-1] = 0xFF
	dec := NewDecoder(buf)
	_, err := dec.DecodeValue()
	require.Error(t, err)
	de, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidData, de.Kind())
}

func TestDecodeAllStopsSilentlyOnIncompleteTrailer(t *testing.T) {
	enc := NewEncoder()
	enc.EncodeField(1, Int32(5))
	buf := enc.Bytes()
	buf = append(buf, 0x02) // start of a new field header/type with no payload

	dec := NewDecoder(buf)
	fields := dec.DecodeAll()
	require.Len(t, fields, 1)
	assert.True(t, dec.HasMore())
}

// fakeCodec "compresses" by dropping leading zero bytes and restores them
// from the original size, so its output is smaller than any input that
// starts with a zero byte.
type fakeCodec struct{}

func (fakeCodec) Algorithm() byte { return 0x09 }
func (fakeCodec) Compress(data []byte) ([]byte, error) {
	i := 0
	for i < len(data) && data[i] == 0 {
		i++
	}
	return data[i:], nil
}
func (fakeCodec) Decompress(data []byte, originalSize int) ([]byte, error) {
	out := make([]byte, originalSize-len(data), originalSize)
	return append(out, data...), nil
}

func TestCompressedBinaryRoundTrip(t *testing.T) {
	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i)
	}

	enc := NewEncoder().WithCompressor(fakeCodec{}, 16)
	enc.EncodeValue(Binary(payload))
	assert.Equal(t, byte(TypeCompressedBinary), enc.Bytes()[0])

	dec := NewDecoder(enc.Bytes()).WithDecompressor(fakeCodec{})
	got, err := dec.DecodeValue()
	require.NoError(t, err)
	assert.Equal(t, payload, got.AsBinary())
}

func TestCompressedBinaryWithoutDecompressorIsUnknownType(t *testing.T) {
	enc := NewEncoder().WithCompressor(fakeCodec{}, 16)
	payload := make([]byte, 64)
	enc.EncodeValue(Binary(payload))

	dec := NewDecoder(enc.Bytes())
	_, err := dec.DecodeValue()
	require.Error(t, err)
	de, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnknownType, de.Kind())
}
