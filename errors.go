package errorpages

import (
	"errors"

	"github.com/dgduncan/go-error-pages/sources"
)

var (
	// ErrConfigMissing means no page path could be resolved for a response.
	ErrConfigMissing = errors.New("no error page configured")

	// ErrFileNotFound means a configured path does not reference an existing
	// regular file. It matches sources.ErrNotFound with errors.Is.
	ErrFileNotFound = sources.ErrNotFound

	// ErrReadFailed means the page source failed while reading a configured page.
	ErrReadFailed = errors.New("error page read failed")

	// ErrWriteFailed means the page could not be sent to the client.
	ErrWriteFailed = errors.New("error page write failed")
)
