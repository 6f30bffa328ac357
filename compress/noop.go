package compress

// NoOp bypasses compression. Useful for benchmarking the compressed-binary
// framing overhead independent of an actual codec.
type NoOp struct{}

var _ Codec = NoOp{}

// NewNoOp creates a no-operation codec.
func NewNoOp() NoOp { return NoOp{} }

// Algorithm returns AlgorithmNone.
func (NoOp) Algorithm() byte { return AlgorithmNone }

// Compress returns data unchanged.
func (NoOp) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (NoOp) Decompress(data []byte, originalSize int) ([]byte, error) { return data, nil }
