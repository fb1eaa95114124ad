package errorpages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"github.com/dgduncan/go-error-pages/sources"
)

var lineTerminators = strings.NewReplacer("\r", "", "\n", "")

// CacheStats is a snapshot of PageCache counters.
type CacheStats struct {
	Hits     uint64 // fresh entries served without reading the source
	Misses   uint64 // lookups that needed a (re)load
	Loads    uint64 // entries published
	Failures uint64 // stat or read failures
}

// PageCache implements Cache on top of a Source. Entries are checked against
// the source modification time on every Get and reloaded when the source is
// newer. It is safe for concurrent use.
type PageCache struct {
	source Source
	logger *slog.Logger

	lock    sync.RWMutex
	entries map[string]*CacheEntry

	group singleflight.Group

	hits     atomic.Uint64
	misses   atomic.Uint64
	loads    atomic.Uint64
	failures atomic.Uint64
}

// Get returns the page stored at path, loading it on first use and reloading
// it whenever the source reports a newer modification time.
//
// On failure the cache is left untouched and the previously loaded entry, if
// any, is returned along with an error wrapping ErrFileNotFound or
// ErrReadFailed.
func (pc *PageCache) Get(ctx context.Context, path string) (*CacheEntry, error) {
	current := pc.lookup(path)

	modTime, err := pc.source.Stat(ctx, path)
	if err != nil {
		return current, pc.fail(ctx, path, err)
	}

	if current != nil && !current.ModTime.Before(modTime) {
		pc.hits.Inc()
		return current, nil
	}

	pc.misses.Inc()
	pc.logger.DebugContext(ctx, "error page stale or missing, loading", "path", path)

	// the load is shared with concurrent callers, one of them going away must
	// not fail the others
	v, err, _ := pc.group.Do(path, func() (any, error) {
		return pc.load(context.WithoutCancel(ctx), path)
	})
	if err != nil {
		return current, pc.fail(ctx, path, err)
	}

	return v.(*CacheEntry), nil
}

// Stats returns a snapshot of the cache counters.
func (pc *PageCache) Stats() CacheStats {
	return CacheStats{
		Hits:     pc.hits.Load(),
		Misses:   pc.misses.Load(),
		Loads:    pc.loads.Load(),
		Failures: pc.failures.Load(),
	}
}

func (pc *PageCache) lookup(path string) *CacheEntry {
	pc.lock.RLock()
	defer pc.lock.RUnlock()

	return pc.entries[path]
}

func (pc *PageCache) load(ctx context.Context, path string) (*CacheEntry, error) {
	rc, modTime, err := pc.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	entry := &CacheEntry{
		Path:    path,
		Content: lineTerminators.Replace(string(b)),
		ModTime: modTime,
	}

	return pc.publish(entry), nil
}

// publish stores entry unless a concurrent load already stored the same or a
// newer version, and returns whichever entry is now cached.
func (pc *PageCache) publish(entry *CacheEntry) *CacheEntry {
	pc.lock.Lock()
	defer pc.lock.Unlock()

	if existing, ok := pc.entries[entry.Path]; ok && !existing.ModTime.Before(entry.ModTime) {
		return existing
	}

	pc.entries[entry.Path] = entry
	pc.loads.Inc()

	return entry
}

func (pc *PageCache) fail(ctx context.Context, path string, err error) error {
	pc.failures.Inc()

	if errors.Is(err, sources.ErrNotFound) {
		pc.logger.ErrorContext(ctx, "unable to find error page", "path", path, "error", err)
		return fmt.Errorf("%s: %w", path, err)
	}

	pc.logger.ErrorContext(ctx, "unable to load error page", "path", path, "error", err)
	if errors.Is(err, ErrReadFailed) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fmt.Errorf("%s: %w", path, errors.Join(ErrReadFailed, err))
}

// NewPageCache creates a PageCache reading pages from source.
// If the 'logger' is nil, a no-op logger writing to io.Discard will be used.
func NewPageCache(source Source, logger *slog.Logger) *PageCache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &PageCache{
		source:  source,
		logger:  logger,
		entries: make(map[string]*CacheEntry),
	}
}
