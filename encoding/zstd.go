package encoding

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder and one
// decoder serve every page.
var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) })
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) { return zstd.NewReader(nil) })
)

// ZstdEncoderDecoder implements the EncoderAndDecoder interface using Zstandard.
type ZstdEncoderDecoder struct{}

// Encode compresses the input data using Zstandard.
func (z ZstdEncoderDecoder) Encode(data []byte) ([]byte, error) {
	encoder, err := zstdEncoder()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decode decompresses the input data using Zstandard.
func (z ZstdEncoderDecoder) Decode(data []byte) ([]byte, error) {
	decoder, err := zstdDecoder()
	if err != nil {
		return nil, err
	}
	return decoder.DecodeAll(data, nil)
}
