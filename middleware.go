package errorpages

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"go.uber.org/atomic"
)

// Stats is a snapshot of ErrorPages counters.
type Stats struct {
	Rendered      uint64 // error pages written
	Fallbacks     uint64 // renders that used FallbackPage
	WriteFailures uint64 // renders that could not be sent to the client
}

// ErrorPages replaces error responses with static pages chosen by status
// code.
type ErrorPages struct {
	index    Index
	renderer *Renderer
	logger   *slog.Logger

	rendered      atomic.Uint64
	fallbacks     atomic.Uint64
	writeFailures atomic.Uint64
}

// Middleware wraps next. Responses with a status of 400 or above are held back
// until next returns and then replaced with the configured page, unless next
// flushed them. Panics (other than http.ErrAbortHandler) and errors passed to
// AttachError turn the response into a 500 Internal Server Error page when
// nothing has been sent yet.
func (p *ErrorPages) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, a := withAttached(r.Context())
		r = r.WithContext(ctx)

		rw := newResponseWriter(w)
		p.serve(next, rw, r)
		if rw.err == nil {
			rw.err = a.err
		}

		if !p.Intercept(rw, w, r) {
			rw.release()
		}
	})
}

func (p *ErrorPages) serve(next http.Handler, rw *responseWriter, r *http.Request) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v == http.ErrAbortHandler {
			panic(v)
		}

		err, ok := v.(error)
		if !ok {
			err = fmt.Errorf("%v", v)
		}
		p.logger.ErrorContext(r.Context(), "handler panicked",
			"url", r.URL.String(),
			"error", err,
			"stack", string(debug.Stack()))
		rw.err = err
	}()

	next.ServeHTTP(rw, r)
}

// Intercept classifies ex and, when it needs an error page, renders the page
// for its status to w. It reports whether a page was rendered. Pipeline
// adapters call it after the downstream handler has returned.
func (p *ErrorPages) Intercept(ex Exchange, w http.ResponseWriter, r *http.Request) bool {
	if !NeedsErrorPage(ex) {
		return false
	}

	ctx := r.Context()
	status := ex.Status()
	path, _ := p.index.Resolve(status)

	p.logger.DebugContext(ctx, "rendering error page", "url", r.URL.String(), "status", status, "path", path)

	fallback, err := p.renderer.Render(ctx, w, r, status, path)
	p.rendered.Inc()
	if fallback {
		p.fallbacks.Inc()
	}
	if err != nil {
		p.writeFailures.Inc()
	}

	return true
}

// Stats returns a snapshot of the render counters.
func (p *ErrorPages) Stats() Stats {
	return Stats{
		Rendered:      p.rendered.Load(),
		Fallbacks:     p.fallbacks.Load(),
		WriteFailures: p.writeFailures.Load(),
	}
}

// NewErrorPages creates an ErrorPages serving the pages configured in index
// from cache.
//
// If 'opts' is nil, DefaultConfig is used.
// If the 'logger' is nil, a no-op logger writing to io.Discard will be used.
func NewErrorPages(cache Cache, index Index, opts *Config, logger *slog.Logger) *ErrorPages {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &ErrorPages{
		index:    index,
		renderer: NewRenderer(cache, opts, logger),
		logger:   logger,
	}
}

// New creates a middleware that replaces error responses with the static
// pages configured in index.
//
// The middleware uses the provided Cache to load pages lazily and keep them in
// sync with their source. If 'opts' is nil, DefaultConfig is used.
// If the 'logger' is nil, a no-op logger writing to io.Discard will be used.
//
// The returned function wraps the given http.Handler:
//   - Holds back responses with a status of 400 or above until the handler returns
//   - Renders the page configured for the status, or the wildcard page
//   - Falls back to FallbackPage when no page is available
//   - Turns panics and attached errors into 500 Internal Server Error pages
func New(cache Cache, index Index, opts *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return NewErrorPages(cache, index, opts, logger).Middleware
}
