package wire

// TypeCompressedBinary is an additive, disabled-by-default wire type (not
// part of spec.md's table) used only when an Encoder is configured with a
// Compressor: a Binary payload above the configured threshold is replaced
// by this framing instead of the plain Binary encoding. See DESIGN.md.
const TypeCompressedBinary Type = 0x0D

// Compressor compresses a byte slice for on-wire transmission. Mirrors the
// arloliu-mebo compress.Compressor interface.
type Compressor interface {
	Algorithm() byte
	Compress(data []byte) ([]byte, error)
}

// Encoder serializes Values and framed fields into a growable byte buffer.
type Encoder struct {
	buf         []byte
	compressor  Compressor
	compressMin int // CompressionThreshold; 0 disables compression
}

// NewEncoder creates an Encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return NewEncoderCapacity(128)
}

// NewEncoderCapacity creates an Encoder with the given initial capacity.
func NewEncoderCapacity(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

// WithCompressor enables transparent Binary-payload compression above
// minSize bytes, using c. A minSize of 0 (the default) disables
// compression entirely, keeping the wire format identical to spec.md §4.4.
func (e *Encoder) WithCompressor(c Compressor, minSize int) *Encoder {
	e.compressor = c
	e.compressMin = minSize
	return e
}

// Bytes returns the encoder's buffer without consuming it.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the current size of the encoded data.
func (e *Encoder) Len() int { return len(e.buf) }

// Reset clears the buffer for reuse.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// EncodeField encodes a complete field (header + value), using the compact
// header for field ids 1–63 and the extended varint header otherwise (§4.3).
func (e *Encoder) EncodeField(fieldID uint32, v Value) {
	hint := HintFor(kindToType(v))
	if fieldID > 0 && fieldID <= 63 {
		e.buf = append(e.buf, byte(fieldID<<2)|byte(hint&0x3))
	} else {
		e.buf = appendVarint64(e.buf, (uint64(fieldID)<<3)|uint64(hint))
	}
	e.EncodeValue(v)
}

// kindToType maps a Value's Kind to the type byte it will be framed with,
// for the purpose of picking the field header's wire-type hint. Int32/
// Int64 both report the varint hint regardless of fast-path/varint choice.
func kindToType(v Value) Type {
	switch v.kind {
	case KindNull:
		return TypeNull
	case KindBool:
		return TypeBoolTrue
	case KindInt32:
		return TypeInt32
	case KindInt64:
		return TypeInt64
	case KindFloat32:
		return TypeFloat32
	case KindFloat64:
		return TypeFloat64
	case KindString:
		return TypeString
	case KindBinary:
		return TypeBinary
	case KindArray:
		return TypeArray
	case KindObject:
		return TypeObject
	default:
		return TypeNull
	}
}

// EncodeValue encodes a single value with its leading type byte (§4.4).
func (e *Encoder) EncodeValue(v Value) {
	switch v.kind {
	case KindNull:
		e.buf = append(e.buf, byte(TypeNull))
	case KindBool:
		if v.b {
			e.buf = append(e.buf, byte(TypeBoolTrue))
		} else {
			e.buf = append(e.buf, byte(TypeBoolFalse))
		}
	case KindInt32:
		e.encodeInt32(int32(v.i))
	case KindInt64:
		e.encodeInt64(v.i)
	case KindFloat32:
		e.encodeFloat32(float32(v.f))
	case KindFloat64:
		e.encodeFloat64(v.f)
	case KindString:
		e.encodeString(v.s)
	case KindBinary:
		e.encodeBinary(v.bin)
	case KindArray:
		e.encodeArray(v.arr)
	case KindObject:
		e.encodeObject(v.obj)
	}
}

// encodeInt32 writes the Int32 type byte followed by either the signed
// 7-bit fast-path byte ([-64,63]) or zigzag+varint (§4.4).
func (e *Encoder) encodeInt32(n int32) {
	e.buf = append(e.buf, byte(TypeInt32))
	if n >= -64 && n <= 63 {
		e.buf = append(e.buf, byte(int8(n))|0x80)
		return
	}
	e.buf = appendVarint32(e.buf, zigzag32(n))
}

// encodeInt64 writes the Int64 type byte followed by either the signed
// 7-bit fast-path byte ([-64,63]) or zigzag+varint (§4.4).
func (e *Encoder) encodeInt64(n int64) {
	e.buf = append(e.buf, byte(TypeInt64))
	if n >= -64 && n <= 63 {
		e.buf = append(e.buf, byte(int8(n))|0x80)
		return
	}
	e.buf = appendVarint64(e.buf, zigzag64(n))
}

func (e *Encoder) encodeFloat32(f float32) {
	e.buf = append(e.buf, byte(TypeFloat32))
	e.buf = appendFloat32BE(e.buf, f)
}

func (e *Encoder) encodeFloat64(f float64) {
	e.buf = append(e.buf, byte(TypeFloat64))
	e.buf = appendFloat64BE(e.buf, f)
}

// appendLength writes n using the single-byte-if-<128-else-varint rule
// used throughout §4.4 for counts and lengths.
func appendLength(buf []byte, n uint32) []byte {
	if n < 128 {
		return append(buf, byte(n))
	}
	return appendVarint32(buf, n)
}

// encodeString writes the String type byte then the small-string inline
// form (len ≤15, high bit marks it small) or the general varint-length
// form, per §4.4. Both forms compare string-equivalent under §8.
func (e *Encoder) encodeString(s string) {
	e.buf = append(e.buf, byte(TypeString))
	if isSmallString(s) {
		e.buf = append(e.buf, 0x80|byte(len(s)))
		e.buf = append(e.buf, s...)
		return
	}
	e.buf = appendVarint32(e.buf, uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// encodeBinary writes Binary data, optionally routed through the
// compressed framing (TypeCompressedBinary) when a Compressor is
// configured and the payload is large enough to be worth compressing.
func (e *Encoder) encodeBinary(data []byte) {
	if e.compressor != nil && e.compressMin > 0 && len(data) >= e.compressMin {
		if compressed, err := e.compressor.Compress(data); err == nil && len(compressed) < len(data) {
			e.buf = append(e.buf, byte(TypeCompressedBinary), e.compressor.Algorithm())
			e.buf = appendVarint32(e.buf, uint32(len(data)))
			e.buf = appendVarint32(e.buf, uint32(len(compressed)))
			e.buf = append(e.buf, compressed...)
			return
		}
	}
	e.buf = append(e.buf, byte(TypeBinary))
	e.buf = appendVarint32(e.buf, uint32(len(data)))
	e.buf = append(e.buf, data...)
}

// isPackable reports whether items is non-empty, every element shares the
// same Kind, and that Kind is one of the four packable primitives.
func isPackable(items []Value) bool {
	if len(items) == 0 {
		return false
	}
	switch items[0].kind {
	case KindInt32, KindInt64, KindFloat32, KindFloat64:
	default:
		return false
	}
	first := items[0].kind
	for _, it := range items[1:] {
		if it.kind != first {
			return false
		}
	}
	return true
}

// encodeArray writes a heterogeneous array (§4.4), or dispatches to the
// packed encoding when every element is the same packable primitive type.
func (e *Encoder) encodeArray(items []Value) {
	if isPackable(items) {
		e.encodePackedArray(items)
		return
	}
	e.buf = append(e.buf, byte(TypeArray))
	e.buf = appendLength(e.buf, uint32(len(items)))
	for _, it := range items {
		e.EncodeValue(it)
	}
}

// encodePackedArray writes the packed-array form: type byte 0x88, element
// type byte, count, then count element payloads with no per-element type
// byte (§4.4).
func (e *Encoder) encodePackedArray(items []Value) {
	elemType := kindToType(items[0])
	e.buf = append(e.buf, byte(TypePackedArray), byte(elemType))
	e.buf = appendLength(e.buf, uint32(len(items)))
	for _, it := range items {
		switch it.kind {
		case KindInt32:
			e.buf = appendVarint32(e.buf, zigzag32(int32(it.i)))
		case KindInt64:
			e.buf = appendVarint64(e.buf, zigzag64(it.i))
		case KindFloat32:
			e.buf = appendFloat32BE(e.buf, float32(it.f))
		case KindFloat64:
			e.buf = appendFloat64BE(e.buf, it.f)
		}
	}
}

// encodeObject writes an Object's key count, then length-prefixed UTF-8
// keys paired with recursively encoded values (§4.4). Key order is
// unspecified — Go's map iteration order is used as-is.
func (e *Encoder) encodeObject(fields map[string]Value) {
	e.buf = append(e.buf, byte(TypeObject))
	e.buf = appendLength(e.buf, uint32(len(fields)))
	for k, v := range fields {
		e.buf = appendLength(e.buf, uint32(len(k)))
		e.buf = append(e.buf, k...)
		e.EncodeValue(v)
	}
}

// EncodeChunkStart writes a reserved streaming ChunkStart marker (§4.5).
// The encoder never emits this for ordinary values; it is exposed for
// explicit streaming callers only.
func (e *Encoder) EncodeChunkStart(fieldID uint16, totalSize uint32) {
	e.buf = append(e.buf, byte(TypeChunkStart))
	e.buf = appendUint16BE(e.buf, fieldID)
	e.buf = appendUint32BE(e.buf, totalSize)
}

// EncodeChunkData writes a reserved streaming ChunkData marker (§4.5).
func (e *Encoder) EncodeChunkData(chunkIndex uint16, data []byte) {
	e.buf = append(e.buf, byte(TypeChunkData))
	e.buf = appendUint16BE(e.buf, chunkIndex)
	e.buf = appendUint16BE(e.buf, uint16(len(data)))
	e.buf = append(e.buf, data...)
}

// EncodeChunkEnd writes a reserved streaming ChunkEnd marker (§4.5).
func (e *Encoder) EncodeChunkEnd() {
	e.buf = append(e.buf, byte(TypeChunkEnd))
}
