// Package encoding compresses rendered error pages for clients that accept a
// Content-Encoding.
package encoding

type Encoder interface {
	Encode([]byte) ([]byte, error)
}

type Decoder interface {
	Decode([]byte) ([]byte, error)
}

type EncoderAndDecoder interface {
	Encoder
	Decoder
}
