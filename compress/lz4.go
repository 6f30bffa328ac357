package compress

import (
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances; the type carries
// internal state that benefits from reuse across calls.
var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// LZ4 implements Codec using pierrec/lz4's block format. Unlike a
// stream-framed codec it needs the original size to size its decompress
// buffer exactly, which BiWi's TypeCompressedBinary framing already
// carries alongside the compressed bytes.
type LZ4 struct{}

var _ Codec = LZ4{}

// NewLZ4 creates an LZ4 codec.
func NewLZ4() LZ4 { return LZ4{} }

// Algorithm returns AlgorithmLZ4.
func (LZ4) Algorithm() byte { return AlgorithmLZ4 }

// Compress compresses data using a pooled lz4.Compressor.
func (LZ4) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	c, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(c)

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 compress: %w", err)
	}
	if n == 0 {
		// incompressible input: lz4 reports this by returning 0
		return nil, fmt.Errorf("compress: lz4 block incompressible")
	}
	return dst[:n], nil
}

// Decompress decompresses data into a buffer sized exactly to originalSize.
func (LZ4) Decompress(data []byte, originalSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 decompress: %w", err)
	}
	return dst[:n], nil
}
