package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dgduncan/go-error-pages/sources"
)

type page struct {
	content string
	modTime time.Time
}

// Source is an in-memory page source. It counts the pages it opens so tests
// can assert how often the cache went back to the source.
type Source struct {
	pages map[string]page
	opens map[string]int

	lock sync.RWMutex
}

func (s *Source) Stat(_ context.Context, path string) (time.Time, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	p, found := s.pages[path]
	if !found {
		return time.Time{}, fmt.Errorf("%s: %w", path, sources.ErrNotFound)
	}

	return p.modTime, nil
}

func (s *Source) Open(_ context.Context, path string) (io.ReadCloser, time.Time, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, found := s.pages[path]
	if !found {
		return nil, time.Time{}, fmt.Errorf("%s: %w", path, sources.ErrNotFound)
	}
	s.opens[path]++

	return io.NopCloser(strings.NewReader(p.content)), p.modTime, nil
}

// Set stores content at path with the given modification time.
func (s *Source) Set(path, content string, modTime time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.pages[path] = page{content: content, modTime: modTime}
}

// Remove deletes the page stored at path.
func (s *Source) Remove(path string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.pages, path)
}

// Opens returns how many times the page at path has been opened.
func (s *Source) Opens(path string) int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.opens[path]
}

func NewSource() *Source {
	return &Source{
		pages: make(map[string]page),
		opens: make(map[string]int),
	}
}
