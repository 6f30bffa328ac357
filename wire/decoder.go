package wire

import "unicode/utf8"

// maxNestingDepth bounds Array/Object recursion. The spec places no depth
// limit on the wire format itself but recommends implementations enforce
// one against untrusted input (§9); decoder.rs's original recursive
// descent has no such guard, so this is a Go-side addition grounded in
// that recommendation, not a protocol change.
const maxNestingDepth = 64

// Decompressor reverses a Compressor's transformation, identified by the
// same algorithm tag the Encoder wrote.
type Decompressor interface {
	Algorithm() byte
	Decompress(data []byte, originalSize int) ([]byte, error)
}

// Decoder parses a BiWi byte buffer back into Values and fields.
type Decoder struct {
	buf           []byte
	offset        int
	depth         int
	decompressors map[byte]Decompressor
}

// NewDecoder creates a Decoder over buf. buf is not copied or retained
// beyond the lifetime of the returned Decoder's calls.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// WithDecompressor registers a Decompressor for TypeCompressedBinary
// payloads tagged with its Algorithm(). Multiple algorithms may be
// registered by calling this repeatedly.
func (d *Decoder) WithDecompressor(dec Decompressor) *Decoder {
	if d.decompressors == nil {
		d.decompressors = make(map[byte]Decompressor)
	}
	d.decompressors[dec.Algorithm()] = dec
	return d
}

// HasMore reports whether there is more data to decode.
func (d *Decoder) HasMore() bool { return d.offset < len(d.buf) }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.offset }

// Offset returns the current read offset.
func (d *Decoder) Offset() int { return d.offset }

// Field pairs a decoded field id with its value, as returned by DecodeAll.
type Field struct {
	FieldID uint32
	Value   Value
}

// DecodeField decodes one field header (compact or extended, §4.3) and its
// value.
func (d *Decoder) DecodeField() (Field, error) {
	if d.offset >= len(d.buf) {
		return Field{}, ErrInsufficientData("field header")
	}
	h := d.buf[d.offset]
	var fieldID uint32
	if h < 0x80 {
		d.offset++
		fieldID = uint32(h) >> 2
	} else if h >= 0xC0 {
		v, next, err := readVarint64(d.buf, d.offset)
		if err != nil {
			return Field{}, err
		}
		d.offset = next
		fieldID = uint32(v >> 3)
	} else {
		d.offset++
		fieldID = uint32(h) >> 3
	}
	v, err := d.DecodeValue()
	if err != nil {
		return Field{}, err
	}
	return Field{FieldID: fieldID, Value: v}, nil
}

// DecodeValue decodes a single type-tagged value (§4.4).
func (d *Decoder) DecodeValue() (Value, error) {
	if d.offset >= len(d.buf) {
		return Value{}, ErrInsufficientData("type byte")
	}
	code := d.buf[d.offset]
	d.offset++

	switch Type(code) {
	case TypeNull:
		return Null, nil
	case TypeBoolTrue:
		return Bool(true), nil
	case TypeBoolFalse:
		return Bool(false), nil
	case TypeInt32:
		return d.decodeInt32()
	case TypeInt64:
		return d.decodeInt64()
	case TypeFloat32:
		return d.decodeFloat32()
	case TypeFloat64:
		return d.decodeFloat64()
	case TypeString:
		return d.decodeString()
	case TypeBinary:
		return d.decodeBinary()
	case TypeCompressedBinary:
		return d.decodeCompressedBinary()
	case TypeArray:
		return d.decodeArray()
	case TypePackedArray:
		return d.decodePackedArray()
	case TypeObject:
		return d.decodeObject()
	default:
		return Value{}, ErrUnknownType(code)
	}
}

func (d *Decoder) decodeInt32() (Value, error) {
	if d.offset >= len(d.buf) {
		return Value{}, ErrInsufficientData("int32 value")
	}
	b := d.buf[d.offset]
	if b&0x80 != 0 {
		d.offset++
		return Int32(decodeSmallInt(b)), nil
	}
	zz, next, err := readVarint32(d.buf, d.offset)
	if err != nil {
		return Value{}, err
	}
	d.offset = next
	return Int32(zigzagDecode32(zz)), nil
}

// decodeSmallInt reverses the fast-path encoding of a [-64,63] value: the
// low 7 bits hold a two's-complement value, sign-extended from bit 6, with
// the high bit only a fast-path marker, not part of the magnitude.
func decodeSmallInt(b byte) int32 {
	v := int32(b & 0x7f)
	if v&0x40 != 0 {
		v -= 0x80
	}
	return v
}

func (d *Decoder) decodeInt64() (Value, error) {
	if d.offset >= len(d.buf) {
		return Value{}, ErrInsufficientData("int64 value")
	}
	b := d.buf[d.offset]
	if b&0x80 != 0 {
		d.offset++
		return Int64(int64(decodeSmallInt(b))), nil
	}
	zz, next, err := readVarint64(d.buf, d.offset)
	if err != nil {
		return Value{}, err
	}
	d.offset = next
	return Int64(zigzagDecode64(zz)), nil
}

func (d *Decoder) decodeFloat32() (Value, error) {
	f, next, err := readFloat32BE(d.buf, d.offset)
	if err != nil {
		return Value{}, ErrInsufficientData("float32")
	}
	d.offset = next
	return Float32(f), nil
}

func (d *Decoder) decodeFloat64() (Value, error) {
	f, next, err := readFloat64BE(d.buf, d.offset)
	if err != nil {
		return Value{}, ErrInsufficientData("float64")
	}
	d.offset = next
	return Float64(f), nil
}

// decodeLength reads the single-byte-if-<128-else-varint count/length form.
func (d *Decoder) decodeLength() (uint32, error) {
	n, next, err := readVarint32(d.buf, d.offset)
	if err != nil {
		return 0, err
	}
	d.offset = next
	return n, nil
}

func (d *Decoder) decodeString() (Value, error) {
	if d.offset >= len(d.buf) {
		return Value{}, ErrInsufficientData("string length")
	}
	lenByte := d.buf[d.offset]
	if lenByte&0x80 != 0 {
		d.offset++
		length := int(lenByte & 0x7F)
		if d.offset+length > len(d.buf) {
			return Value{}, ErrInsufficientData("small string content")
		}
		b := d.buf[d.offset : d.offset+length]
		d.offset += length
		if !utf8.Valid(b) {
			return Value{}, ErrInvalidData("invalid UTF-8 in small string")
		}
		return String(string(b)), nil
	}
	length, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	if d.offset+int(length) > len(d.buf) {
		return Value{}, ErrInsufficientData("string content")
	}
	b := d.buf[d.offset : d.offset+int(length)]
	d.offset += int(length)
	if !utf8.Valid(b) {
		return Value{}, ErrInvalidData("invalid UTF-8")
	}
	return String(string(b)), nil
}

func (d *Decoder) decodeBinary() (Value, error) {
	length, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	if d.offset+int(length) > len(d.buf) {
		return Value{}, ErrInsufficientData("binary content")
	}
	data := make([]byte, length)
	copy(data, d.buf[d.offset:d.offset+int(length)])
	d.offset += int(length)
	return Binary(data), nil
}

// decodeCompressedBinary reverses Encoder.encodeBinary's compressed
// framing: algorithm byte, varint original length, varint compressed
// length, compressed bytes.
func (d *Decoder) decodeCompressedBinary() (Value, error) {
	if d.decompressors == nil {
		// No Decompressor was ever registered: treat the type byte as if
		// it were simply unrecognized, rather than failing partway
		// through a framing this decoder was never configured to read.
		return Value{}, ErrUnknownType(byte(TypeCompressedBinary))
	}
	if d.offset >= len(d.buf) {
		return Value{}, ErrInsufficientData("compressed binary algorithm")
	}
	algo := d.buf[d.offset]
	d.offset++
	origLen, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	compLen, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	if d.offset+int(compLen) > len(d.buf) {
		return Value{}, ErrInsufficientData("compressed binary content")
	}
	compressed := d.buf[d.offset : d.offset+int(compLen)]
	d.offset += int(compLen)

	dec, ok := d.decompressors[algo]
	if !ok {
		return Value{}, ErrInvalidData("unknown compression algorithm")
	}
	data, err := dec.Decompress(compressed, int(origLen))
	if err != nil {
		return Value{}, ErrInvalidData("decompression failed")
	}
	return Binary(data), nil
}

func (d *Decoder) decodeArray() (Value, error) {
	if d.depth >= maxNestingDepth {
		return Value{}, ErrInvalidData("array nesting too deep")
	}
	count, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, count)
	d.depth++
	for i := uint32(0); i < count; i++ {
		v, err := d.DecodeValue()
		if err != nil {
			d.depth--
			return Value{}, err
		}
		items = append(items, v)
	}
	d.depth--
	return Array(items), nil
}

func (d *Decoder) decodePackedArray() (Value, error) {
	if d.offset >= len(d.buf) {
		return Value{}, ErrInsufficientData("packed array type")
	}
	elemType := d.buf[d.offset]
	d.offset++
	count, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, count)
	switch Type(elemType) {
	case TypeInt32:
		for i := uint32(0); i < count; i++ {
			zz, next, err := readVarint32(d.buf, d.offset)
			if err != nil {
				return Value{}, err
			}
			d.offset = next
			items = append(items, Int32(zigzagDecode32(zz)))
		}
	case TypeInt64:
		for i := uint32(0); i < count; i++ {
			zz, next, err := readVarint64(d.buf, d.offset)
			if err != nil {
				return Value{}, err
			}
			d.offset = next
			items = append(items, Int64(zigzagDecode64(zz)))
		}
	case TypeFloat32:
		for i := uint32(0); i < count; i++ {
			f, next, err := readFloat32BE(d.buf, d.offset)
			if err != nil {
				return Value{}, ErrInsufficientData("float32 in packed array")
			}
			d.offset = next
			items = append(items, Float32(f))
		}
	case TypeFloat64:
		for i := uint32(0); i < count; i++ {
			f, next, err := readFloat64BE(d.buf, d.offset)
			if err != nil {
				return Value{}, ErrInsufficientData("float64 in packed array")
			}
			d.offset = next
			items = append(items, Float64(f))
		}
	default:
		return Value{}, ErrInvalidData("unknown packed array element type")
	}
	return Array(items), nil
}

func (d *Decoder) decodeObject() (Value, error) {
	if d.depth >= maxNestingDepth {
		return Value{}, ErrInvalidData("object nesting too deep")
	}
	count, err := d.decodeLength()
	if err != nil {
		return Value{}, err
	}
	fields := make(map[string]Value, count)
	d.depth++
	for i := uint32(0); i < count; i++ {
		keyLen, err := d.decodeLength()
		if err != nil {
			d.depth--
			return Value{}, err
		}
		if d.offset+int(keyLen) > len(d.buf) {
			d.depth--
			return Value{}, ErrInsufficientData("key content")
		}
		keyBytes := d.buf[d.offset : d.offset+int(keyLen)]
		d.offset += int(keyLen)
		if !utf8.Valid(keyBytes) {
			d.depth--
			return Value{}, ErrInvalidData("invalid key UTF-8")
		}
		v, err := d.DecodeValue()
		if err != nil {
			d.depth--
			return Value{}, err
		}
		fields[string(keyBytes)] = v
	}
	d.depth--
	return Object(fields), nil
}

// ChunkStart is the decoded form of a reserved ChunkStart marker (§4.5).
type ChunkStart struct {
	FieldID   uint16
	TotalSize uint32
}

// ChunkData is the decoded form of a reserved ChunkData marker (§4.5).
type ChunkData struct {
	ChunkIndex uint16
	Data       []byte
}

// DecodeChunkStart decodes a reserved ChunkStart marker. The caller is
// responsible for having already consumed the leading TypeChunkStart byte
// via a prior DecodeValue-style dispatch, OR calling this directly when
// the type byte is known in advance.
func (d *Decoder) DecodeChunkStart() (ChunkStart, error) {
	fieldID, next, err := readUint16BE(d.buf, d.offset)
	if err != nil {
		return ChunkStart{}, ErrInsufficientData("chunk start")
	}
	d.offset = next
	totalSize, next, err := readUint32BE(d.buf, d.offset)
	if err != nil {
		return ChunkStart{}, ErrInsufficientData("chunk start")
	}
	d.offset = next
	return ChunkStart{FieldID: fieldID, TotalSize: totalSize}, nil
}

// DecodeChunkData decodes a reserved ChunkData marker.
func (d *Decoder) DecodeChunkData() (ChunkData, error) {
	chunkIndex, next, err := readUint16BE(d.buf, d.offset)
	if err != nil {
		return ChunkData{}, ErrInsufficientData("chunk data header")
	}
	d.offset = next
	dataLen, next, err := readUint16BE(d.buf, d.offset)
	if err != nil {
		return ChunkData{}, ErrInsufficientData("chunk data header")
	}
	d.offset = next
	if d.offset+int(dataLen) > len(d.buf) {
		return ChunkData{}, ErrInsufficientData("chunk content")
	}
	data := make([]byte, dataLen)
	copy(data, d.buf[d.offset:d.offset+int(dataLen)])
	d.offset += int(dataLen)
	return ChunkData{ChunkIndex: chunkIndex, Data: data}, nil
}

// DecodeAll decodes fields until the buffer is exhausted. Incomplete
// trailing data (a partial field at the end) is silently discarded rather
// than surfaced as an error, per §4.6 — this lets a transport layer feed
// partially-reassembled fragments through DecodeAll without a spurious
// error on every incomplete attempt. The read offset is left at the start
// of the field that failed, so HasMore/Remaining report the unread trailer.
func (d *Decoder) DecodeAll() []Field {
	var fields []Field
	for d.offset < len(d.buf) {
		start := d.offset
		f, err := d.DecodeField()
		if err != nil {
			d.offset = start
			break
		}
		fields = append(fields, f)
	}
	return fields
}
