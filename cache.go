package errorpages

import (
	"context"
	"io"
	"time"
)

// CacheEntry is a loaded error page. Content and ModTime always come from the
// same load; entries are replaced wholesale and never modified once published.
type CacheEntry struct {
	Path    string
	Content string
	ModTime time.Time
}

// Cache supplies error page content by configured path.
//
// On failure implementations return the previously published entry (nil if
// there is none) together with the error, so callers may keep serving it.
type Cache interface {
	Get(ctx context.Context, path string) (*CacheEntry, error)
}

// Source is where page files live. Stat must be cheap; Open returns the page
// content and the modification time of the same snapshot.
//
// Both return an error wrapping sources.ErrNotFound when path does not
// reference an existing regular page.
type Source interface {
	Stat(ctx context.Context, path string) (time.Time, error)
	Open(ctx context.Context, path string) (io.ReadCloser, time.Time, error)
}
