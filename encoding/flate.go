package encoding

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// DeflateEncoderDecoder implements the EncoderAndDecoder interface using deflate.
type DeflateEncoderDecoder struct{}

// Encode compresses the input data using deflate.
func (d DeflateEncoderDecoder) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decompresses the input data using deflate.
func (d DeflateEncoderDecoder) Decode(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	return io.ReadAll(fr)
}
