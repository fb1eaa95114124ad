package sources

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Reason string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("creation of page source failed for reason : %s ", ve.Reason)
}

var (
	// ErrNotFound is returned when a page path does not reference an existing
	// regular file (or row, or item).
	ErrNotFound = errors.New("page not found")

	// ErrPingFailed is returned if the initial ping to a database returns an error
	ErrPingFailed = errors.New("ping returned error")
)
