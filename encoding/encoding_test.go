package encoding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var page = []byte(strings.Repeat("<html><body><h1>Not Found</h1></body></html>", 20))

func TestNegotiate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		data             []byte
		acceptEncoding   string
		expectedEncoding string
	}{
		{
			name:             "first supported encoding wins",
			data:             page,
			acceptEncoding:   "br, gzip",
			expectedEncoding: "br",
		},
		{
			name:             "unknown encodings are skipped",
			data:             page,
			acceptEncoding:   "compress, zstd",
			expectedEncoding: "zstd",
		},
		{
			name:             "q=0 rejects an encoding",
			data:             page,
			acceptEncoding:   "gzip;q=0, deflate;q=0.5",
			expectedEncoding: "deflate",
		},
		{
			name:             "higher q wins over listed order",
			data:             page,
			acceptEncoding:   "gzip;q=0.1, br;q=1.0",
			expectedEncoding: "br",
		},
		{
			name:             "missing q counts as 1",
			data:             page,
			acceptEncoding:   "deflate;q=0.8, zstd",
			expectedEncoding: "zstd",
		},
		{
			name:             "no header means identity",
			data:             page,
			acceptEncoding:   "",
			expectedEncoding: "",
		},
		{
			name:             "payload that does not shrink is sent as is",
			data:             []byte("<p>"),
			acceptEncoding:   "gzip",
			expectedEncoding: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded, encoding, err := Negotiate(tt.data, tt.acceptEncoding)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEncoding, encoding)

			decoded, err := Decode(encoded, encoding)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decoded)
		})
	}
}

func TestUnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := Encode(page, "compress")
	assert.Error(t, err)

	_, err = Decode(page, "compress")
	assert.Error(t, err)
}

func TestPreferred(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		acceptEncoding string
		expected       []string
	}{
		{name: "listed order", acceptEncoding: "br, gzip", expected: []string{"br", "gzip"}},
		{name: "sorted by q", acceptEncoding: "gzip;q=0.1, deflate;q=0.5, br;q=1.0", expected: []string{"br", "deflate", "gzip"}},
		{name: "equal q keeps order", acceptEncoding: "zstd;q=0.5, gzip;q=0.5", expected: []string{"zstd", "gzip"}},
		{name: "rejected and unknown dropped", acceptEncoding: "gzip;q=0, compress, *, identity, br", expected: []string{"br"}},
		{name: "case and spacing", acceptEncoding: " GZIP ; q=0.9 ,BR", expected: []string{"br", "gzip"}},
		{name: "empty", acceptEncoding: "", expected: []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Preferred(tt.acceptEncoding))
		})
	}
}
