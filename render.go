package errorpages

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/dgduncan/go-error-pages/encoding"
)

const (
	contentType = "text/html; charset=utf-8"

	headerAcceptEncoding  = "Accept-Encoding"
	headerContentEncoding = "Content-Encoding"
	headerContentLength   = "Content-Length"
	headerContentType     = "Content-Type"
	headerVary            = "Vary"
)

// FallbackPage is rendered when no usable error page is available.
const FallbackPage = "<html>" +
	"<body>" +
	"<h1>Error</h1>" +
	"An error occurred, your request cannot be completed.<hr/>" +
	"Error configuration incomplete.<br/>" +
	"</body>" +
	"</html>"

// fallbackEntry lets FallbackPage share the encoded body cache.
var fallbackEntry = &CacheEntry{Content: FallbackPage}

// Renderer writes error pages to responses.
type Renderer struct {
	cache  Cache
	logger *slog.Logger

	compression bool

	lock    sync.Mutex
	encoded map[encodedKey]encodedBody
}

type encodedKey struct {
	path     string
	encoding string
}

// encodedBody is the encoded content of one entry. It is replaced when the
// cache publishes a new entry for the same path.
type encodedBody struct {
	entry *CacheEntry
	body  []byte
}

// Render writes the page stored at path with the given status. An empty path
// means no page is configured. When the page is missing, unreadable and never
// loaded before, or empty, FallbackPage is written instead and fallback is
// true.
//
// A non-nil error wraps ErrWriteFailed. The response is lost at that point.
func (rr *Renderer) Render(ctx context.Context, w http.ResponseWriter, r *http.Request, status int, path string) (fallback bool, err error) {
	entry := rr.entry(ctx, status, path)
	if entry == nil {
		fallback = true
		entry = fallbackEntry
	}

	body := []byte(entry.Content)

	h := w.Header()
	h.Del(headerContentLength)
	h.Del(headerContentEncoding)
	h.Set(headerContentType, contentType)

	if rr.compression {
		h.Add(headerVary, headerAcceptEncoding)

		if encoded, name := rr.encode(ctx, entry, r.Header.Get(headerAcceptEncoding)); name != "" {
			body = encoded
			h.Set(headerContentEncoding, name)
		}
	}

	h.Set(headerContentLength, strconv.Itoa(len(body)))
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		rr.logger.DebugContext(ctx, "unable to write error page", "status", status, "path", path, "error", err)
		return fallback, errors.Join(ErrWriteFailed, err)
	}

	return fallback, nil
}

func (rr *Renderer) entry(ctx context.Context, status int, path string) *CacheEntry {
	if path == "" {
		rr.logger.ErrorContext(ctx, "error pages are not configured properly, rendering default error page",
			"status", status,
			"error", ErrConfigMissing)
		return nil
	}

	entry, err := rr.cache.Get(ctx, path)
	if entry == nil || entry.Content == "" {
		if err == nil {
			err = errors.New("empty error page")
		}
		rr.logger.ErrorContext(ctx, "error page is not configured properly, rendering default error page",
			"status", status,
			"path", path,
			"error", err)
		return nil
	}

	if err != nil {
		rr.logger.WarnContext(ctx, "serving previously loaded error page", "path", path, "error", err)
	}

	return entry
}

// encode returns the body of entry in the most preferred accepted encoding
// that shrinks it, or an empty name when the identity body should be sent.
func (rr *Renderer) encode(ctx context.Context, entry *CacheEntry, acceptEncoding string) ([]byte, string) {
	for _, name := range encoding.Preferred(acceptEncoding) {
		body, err := rr.encodedBody(entry, name)
		if err != nil {
			rr.logger.DebugContext(ctx, "unable to encode error page", "path", entry.Path, "encoding", name, "error", err)
			continue
		}
		if len(body) < len(entry.Content) {
			return body, name
		}
	}
	return nil, ""
}

// encodedBody encodes entry at most once per encoding.
func (rr *Renderer) encodedBody(entry *CacheEntry, name string) ([]byte, error) {
	key := encodedKey{path: entry.Path, encoding: name}

	rr.lock.Lock()
	cached, ok := rr.encoded[key]
	rr.lock.Unlock()
	if ok && cached.entry == entry {
		return cached.body, nil
	}

	body, err := encoding.Encode([]byte(entry.Content), name)
	if err != nil {
		return nil, err
	}

	rr.lock.Lock()
	rr.encoded[key] = encodedBody{entry: entry, body: body}
	rr.lock.Unlock()

	return body, nil
}

// NewRenderer creates a Renderer serving pages from cache.
// If 'opts' is nil, DefaultConfig is used. If the 'logger' is nil, a no-op
// logger writing to io.Discard will be used.
func NewRenderer(cache Cache, opts *Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := DefaultConfig()
	if opts != nil {
		c = *opts
	}

	return &Renderer{
		cache:       cache,
		logger:      logger,
		compression: c.Compression,
		encoded:     make(map[encodedKey]encodedBody),
	}
}
