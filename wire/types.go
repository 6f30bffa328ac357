// Package wire implements the BiWi binary encoding: a self-describing,
// field-tagged format with size-aware choices (varint, zigzag,
// small-integer/small-string inlining, packed homogeneous arrays).
package wire

// Type is a BiWi wire type code, as it appears on the wire.
type Type byte

// Wire type codes.
const (
	TypeNull       Type = 0x00
	TypeBoolTrue   Type = 0x01
	TypeInt32      Type = 0x02
	TypeInt64      Type = 0x03
	TypeFloat32    Type = 0x04
	TypeFloat64    Type = 0x05
	TypeString     Type = 0x06
	TypeBinary     Type = 0x07
	TypeArray      Type = 0x08
	TypeObject     Type = 0x09
	TypeChunkStart Type = 0x0A
	TypeChunkData  Type = 0x0B
	TypeChunkEnd   Type = 0x0C
	TypeBoolFalse  Type = 0xFF

	// packedArrayFlag marks TypeArray with the high bit set: a packed,
	// homogeneous primitive array with no per-element type byte.
	packedArrayFlag Type = 0x80
	TypePackedArray Type = TypeArray | packedArrayFlag // 0x88
)

// WireHint is the informational 2-bit framing hint carried in a field
// header. The decoder never trusts it over the value's own type byte.
type WireHint byte

const (
	HintFixed32         WireHint = 0
	HintFixed64         WireHint = 1
	HintVarint          WireHint = 2
	HintLengthDelimited WireHint = 3
)

// HintFor returns the informational wire-type hint for a value's
// discriminant, per §4.3.
func HintFor(t Type) WireHint {
	switch t {
	case TypeFloat32:
		return HintFixed32
	case TypeFloat64:
		return HintFixed64
	case TypeInt32, TypeInt64:
		return HintVarint
	case TypeString, TypeBinary, TypeArray, TypePackedArray, TypeObject:
		return HintLengthDelimited
	default:
		return HintVarint
	}
}

// IsFixedSize reports whether t is a scalar type with no length prefix:
// Null, the Booleans, Int32/Int64 and Float32/Float64. The Null, Boolean
// and Float payload sizes are fixed; an Int32/Int64 payload is a one-byte
// fast-path value or a varint, so its size depends on the value.
func (t Type) IsFixedSize() bool {
	switch t {
	case TypeNull, TypeBoolTrue, TypeBoolFalse, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	default:
		return false
	}
}

// IsVariableSize reports whether t carries a length-prefixed payload.
func (t Type) IsVariableSize() bool {
	switch t {
	case TypeString, TypeBinary, TypeArray, TypePackedArray, TypeObject:
		return true
	default:
		return false
	}
}

// IsStreamingType reports whether t is one of the reserved streaming-chunk
// markers (§4.5). The encoder never emits these for ordinary values.
func (t Type) IsStreamingType() bool {
	switch t {
	case TypeChunkStart, TypeChunkData, TypeChunkEnd:
		return true
	default:
		return false
	}
}

// String returns a human-readable name for t, for error messages and logs.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeBoolTrue, TypeBoolFalse:
		return "BOOLEAN"
	case TypeInt32:
		return "INT32"
	case TypeInt64:
		return "INT64"
	case TypeFloat32:
		return "FLOAT32"
	case TypeFloat64:
		return "FLOAT64"
	case TypeString:
		return "STRING"
	case TypeBinary:
		return "BINARY"
	case TypeArray:
		return "ARRAY"
	case TypePackedArray:
		return "PACKED_ARRAY"
	case TypeObject:
		return "OBJECT"
	case TypeChunkStart:
		return "CHUNK_START"
	case TypeChunkData:
		return "CHUNK_DATA"
	case TypeChunkEnd:
		return "CHUNK_END"
	default:
		return "UNKNOWN"
	}
}
