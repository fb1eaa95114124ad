package errorpages

import "net/http"

// Exchange is the view of a request/response pair the classifier works on.
// Pipeline adapters implement it over their own response types.
type Exchange interface {
	// Status is the response status code so far.
	Status() int
	SetStatus(code int)

	// Committed reports whether bytes have already been sent to the client.
	Committed() bool

	// IsError reports whether the response was flagged as an error response,
	// as opposed to a handler deliberately answering with an error status.
	IsError() bool
	SetError()

	// ContentWritten is the number of body bytes already written.
	ContentWritten() int64

	// Message is the error message supplied with an error status, if any.
	Message() string

	// Reset clears any status, headers and body that have not been committed.
	Reset()

	// Async reports whether request processing is still in flight elsewhere.
	Async() bool

	// Err is the error raised while processing the request, if any.
	Err() error
}

// NeedsErrorPage reports whether the response of ex should be replaced with
// an error page.
//
// When an error is attached to the exchange the response is reset and forced
// to 500 Internal Server Error before it is classified, so NeedsErrorPage must
// run before the page path is resolved.
func NeedsErrorPage(ex Exchange) bool {
	if ex.Committed() {
		return false
	}

	err := ex.Err()
	if ex.Async() && ex.Status() < http.StatusBadRequest && err == nil {
		return false
	}

	if err != nil {
		ex.Reset()
		ex.SetError()
		ex.SetStatus(http.StatusInternalServerError)
	}

	return !responseValid(ex)
}

// responseValid reports whether the response can be sent as the handler left
// it.
func responseValid(ex Exchange) bool {
	code := ex.Status()
	if code < http.StatusBadRequest || ex.ContentWritten() > 0 || !ex.IsError() {
		return true
	}

	// nothing to report for a non standard status without a message
	return http.StatusText(code) == "" && ex.Message() == ""
}
