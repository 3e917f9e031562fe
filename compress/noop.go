package compress

// CopyCodec is the identity codec: blocks stored under format.Copy carry
// their decompressed bytes verbatim. It exists as a first-class codec
// (not just a compression-facade fallback target) since Copy has its own
// MaxAllocFor and is a legal caller-requested compression kind.
type CopyCodec struct{}

var _ Codec = (*CopyCodec)(nil)

// NewCopyCodec returns a CopyCodec.
func NewCopyCodec() CopyCodec {
	return CopyCodec{}
}

// Compress returns data unchanged; the returned slice aliases data.
func (CopyCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged; the returned slice aliases data.
func (CopyCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
