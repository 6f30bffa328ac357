// Package compress provides wire.Compressor/wire.Decompressor
// implementations for BiWi's optional TypeCompressedBinary framing.
package compress

// Algorithm tags stored in the TypeCompressedBinary frame's algorithm byte.
const (
	AlgorithmNone byte = 0x00
	AlgorithmZstd byte = 0x01
	AlgorithmLZ4  byte = 0x02
)

// Codec implements both wire.Compressor and wire.Decompressor.
type Codec interface {
	Algorithm() byte
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, originalSize int) ([]byte, error)
}
