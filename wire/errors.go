package wire

import "fmt"

// ErrorKind classifies a DecodeError into the closed set from §7.
type ErrorKind int

const (
	// KindInsufficientData means a length or fixed-width field would read
	// past the end of the buffer.
	KindInsufficientData ErrorKind = iota
	// KindUnknownType means a byte where a value type was expected did not
	// match any known wire type code.
	KindUnknownType
	// KindInvalidData means non-UTF-8 content in a string/key, or an
	// unrecognized packed-array element type.
	KindInvalidData
)

// DecodeError is the closed error set documented in §7: InsufficientData,
// UnknownType, InvalidData. Transports treat any DecodeError as "not a
// complete message yet" rather than fatal, since a datagram payload may be
// one fragment of a larger message.
type DecodeError struct {
	kind    ErrorKind
	context string
	code    byte // only meaningful for KindUnknownType
}

func (e *DecodeError) Error() string {
	switch e.kind {
	case KindInsufficientData:
		return fmt.Sprintf("biwi: insufficient data: %s", e.context)
	case KindUnknownType:
		return fmt.Sprintf("biwi: unknown type code: 0x%02x", e.code)
	case KindInvalidData:
		return fmt.Sprintf("biwi: invalid data: %s", e.context)
	default:
		return "biwi: decode error"
	}
}

// Kind returns the error's classification.
func (e *DecodeError) Kind() ErrorKind { return e.kind }

// ErrInsufficientData builds an InsufficientData error for the given
// decoding context (e.g. "varint", "string content").
func ErrInsufficientData(context string) error {
	return &DecodeError{kind: KindInsufficientData, context: context}
}

// ErrUnknownType builds an UnknownType error for an unrecognized type byte.
func ErrUnknownType(code byte) error {
	return &DecodeError{kind: KindUnknownType, code: code}
}

// ErrInvalidData builds an InvalidData error for the given context
// (invalid UTF-8, unrecognized packed-array element type, ...).
func ErrInvalidData(context string) error {
	return &DecodeError{kind: KindInvalidData, context: context}
}

// AsDecodeError reports whether err is a *DecodeError and returns it.
func AsDecodeError(err error) (*DecodeError, bool) {
	de, ok := err.(*DecodeError)
	return de, ok
}
