package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdEncoderPool and zstdDecoderPool hold warmed-up zstd codecs; per the
// library's own guidance they're designed to be reused rather than
// recreated per call.
var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("compress: failed to create zstd decoder: %v", err))
		}
		return dec
	},
}

// Zstd implements Codec using klauspost/compress/zstd.
type Zstd struct{}

var _ Codec = Zstd{}

// NewZstd creates a Zstandard codec.
func NewZstd() Zstd { return Zstd{} }

// Algorithm returns AlgorithmZstd.
func (Zstd) Algorithm() byte { return AlgorithmZstd }

// Compress compresses data using a pooled zstd encoder.
func (Zstd) Compress(data []byte) ([]byte, error) {
	enc := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

// Decompress decompresses data using a pooled zstd decoder. originalSize
// is passed as a capacity hint only; zstd frames are self-describing.
func (Zstd) Decompress(data []byte, originalSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(data, make([]byte, 0, originalSize))
	if err != nil {
		return nil, fmt.Errorf("compress: zstd decompress: %w", err)
	}
	return out, nil
}
