package encoding

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

func lookup(encoding string) (EncoderAndDecoder, error) {
	switch encoding {
	case "gzip", "x-gzip":
		return GzipEncoderDecoder{}, nil
	case "brotli", "br":
		return BrotliEncoderDecoder{}, nil
	case "deflate":
		return DeflateEncoderDecoder{}, nil
	case "zstd":
		return ZstdEncoderDecoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding: %s", encoding)
	}
}

func Encode(data []byte, encoding string) ([]byte, error) {
	if encoding == "identity" || encoding == "" {
		return data, nil
	}
	encoder, err := lookup(encoding)
	if err != nil {
		return nil, err
	}
	return encoder.Encode(data)
}

func Decode(data []byte, encoding string) ([]byte, error) {
	if encoding == "identity" || encoding == "" {
		return data, nil
	}
	decoder, err := lookup(encoding)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(data)
}

// Preferred returns the supported encodings listed in acceptEncoding, highest
// q-value first. Elements with equal q keep their listed order. Encodings with
// q=0, unknown encodings, identity and * are left out.
func Preferred(acceptEncoding string) []string {
	type candidate struct {
		name string
		q    float64
	}

	var candidates []candidate
	for _, chunk := range strings.Split(acceptEncoding, ",") {
		encoding, params, _ := strings.Cut(chunk, ";")
		encoding = strings.ToLower(strings.TrimSpace(encoding))
		if encoding == "" || encoding == "identity" || encoding == "*" {
			continue
		}
		if _, err := lookup(encoding); err != nil {
			continue
		}
		q := quality(params)
		if q <= 0 {
			continue
		}
		candidates = append(candidates, candidate{name: encoding, q: q})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.q, a.q)
	})

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.name)
	}
	return names
}

// Negotiate encodes data with the most preferred encoding of acceptEncoding
// that actually shrinks the payload. It returns data unchanged and an empty
// encoding name when nothing applies.
func Negotiate(data []byte, acceptEncoding string) ([]byte, string, error) {
	for _, encoding := range Preferred(acceptEncoding) {
		encoded, err := Encode(data, encoding)
		if err != nil {
			return nil, "", err
		}
		if len(encoded) < len(data) {
			return encoded, encoding, nil
		}
	}

	return data, "", nil
}

// quality returns the q parameter of an Accept-Encoding element, 1 when it is
// absent and 0 when it cannot be parsed.
func quality(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		k, v, found := strings.Cut(strings.TrimSpace(p), "=")
		if !found || strings.TrimSpace(k) != "q" {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return q
	}
	return 1
}
