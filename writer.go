package errorpages

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// responseWriter holds back responses with an error status until the wrapped
// handler returns, so they can still be replaced. Everything else is passed
// straight through and commits the response.
type responseWriter struct {
	rw http.ResponseWriter

	status      int
	wroteHeader bool // status decided, possibly held
	committed   bool
	isError     bool
	written     int64

	held bytes.Buffer // body written after an error status
	err  error
}

func newResponseWriter(rw http.ResponseWriter) *responseWriter {
	return &responseWriter{rw: rw, status: http.StatusOK}
}

func (w *responseWriter) Header() http.Header {
	return w.rw.Header()
}

func (w *responseWriter) WriteHeader(code int) {
	if w.committed || w.wroteHeader {
		return
	}

	// informational responses do not decide the final status
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		w.rw.WriteHeader(code)
		return
	}

	w.status = code
	w.wroteHeader = true

	if code >= http.StatusBadRequest {
		w.isError = true
		return
	}

	w.commit()
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader && !w.committed {
		w.WriteHeader(http.StatusOK)
	}

	if !w.committed {
		return w.held.Write(b)
	}

	n, err := w.rw.Write(b)
	w.written += int64(n)
	return n, err
}

// Flush sends a held error response as it is. A handler flushing its error
// response wants the client to see it.
func (w *responseWriter) Flush() {
	w.release()

	if f, ok := w.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.rw.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijack: %w", http.ErrNotSupported)
	}

	conn, buf, err := h.Hijack()
	if err == nil {
		w.committed = true
	}
	return conn, buf, err
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.rw
}

// release commits the response the handler produced, including a held error
// status and body.
func (w *responseWriter) release() {
	if w.committed {
		return
	}
	if !w.wroteHeader {
		// nothing decided yet, leave the implicit 200 to the server
		return
	}

	w.commit()

	if w.held.Len() > 0 {
		n, _ := w.rw.Write(w.held.Bytes())
		w.written += int64(n)
		w.held.Reset()
	}
}

func (w *responseWriter) commit() {
	w.committed = true
	w.rw.WriteHeader(w.status)
}

func (w *responseWriter) Status() int { return w.status }

func (w *responseWriter) SetStatus(code int) {
	w.status = code
	w.wroteHeader = true
}

func (w *responseWriter) Committed() bool { return w.committed }

func (w *responseWriter) IsError() bool { return w.isError }

func (w *responseWriter) SetError() { w.isError = true }

func (w *responseWriter) ContentWritten() int64 { return w.written }

func (w *responseWriter) Message() string {
	return strings.TrimSpace(w.held.String())
}

func (w *responseWriter) Reset() {
	if w.committed {
		return
	}

	h := w.rw.Header()
	for k := range h {
		delete(h, k)
	}

	w.held.Reset()
	w.status = http.StatusOK
	w.wroteHeader = false
	w.isError = false
}

// Async is always false: a net/http handler returning means the request is
// done.
func (w *responseWriter) Async() bool { return false }

func (w *responseWriter) Err() error { return w.err }

var _ Exchange = (*responseWriter)(nil)

type attachedErrorKey struct{}

// attached carries an error from a handler back to the middleware.
type attached struct {
	err error
}

// AttachError records err as the failure of the request being handled. The
// middleware then answers with 500 Internal Server Error and the matching
// error page, provided nothing has been sent yet. It is a no-op for requests
// that did not pass through the middleware.
func AttachError(r *http.Request, err error) {
	if a, ok := r.Context().Value(attachedErrorKey{}).(*attached); ok && err != nil {
		a.err = err
	}
}

func withAttached(ctx context.Context) (context.Context, *attached) {
	a := &attached{}
	return context.WithValue(ctx, attachedErrorKey{}, a), a
}
