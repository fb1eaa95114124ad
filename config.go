package errorpages

import "strings"

const (
	// DefaultPrefix is the property prefix recognized by LoadIndex, e.g.
	// error.page.404=./error/404.html
	DefaultPrefix = "error.page."

	// Wildcard is the key of the page used when no status specific page is
	// configured.
	Wildcard = "*"
)

type Config struct {
	// Compression enables Content-Encoding negotiation for rendered pages. The
	// page is only sent encoded when the client accepts one of the supported
	// encodings and the encoded body is smaller.
	Compression bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Compression: false,
	}
}

// ConfigEntry maps a status code key ("404") or Wildcard to a page path.
type ConfigEntry struct {
	Key  string
	Path string
}

// Index is the read-only mapping from status code key to page path. The zero
// value is an empty index. It is safe for concurrent use.
type Index struct {
	paths map[string]string
}

// NewIndex builds an Index from entries. When a key repeats, the last path wins.
func NewIndex(entries ...ConfigEntry) Index {
	paths := make(map[string]string, len(entries))
	for _, e := range entries {
		paths[e.Key] = e.Path
	}
	return Index{paths: paths}
}

// LoadIndex keeps the properties whose key starts with prefix and indexes them
// by the remainder of the key. An empty prefix means DefaultPrefix. Keys with
// nothing after the prefix are ignored.
func LoadIndex(props map[string]string, prefix string) Index {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	entries := make([]ConfigEntry, 0, len(props))
	for k, v := range props {
		key, found := strings.CutPrefix(k, prefix)
		if !found || key == "" {
			continue
		}
		entries = append(entries, ConfigEntry{Key: key, Path: v})
	}

	return NewIndex(entries...)
}

// Lookup returns the path configured for key.
func (i Index) Lookup(key string) (string, bool) {
	path, ok := i.paths[key]
	return path, ok
}

// Wildcard returns the path of the wildcard entry.
func (i Index) Wildcard() (string, bool) {
	return i.Lookup(Wildcard)
}

func (i Index) Len() int {
	return len(i.paths)
}

// Entries returns the configured entries in no particular order.
func (i Index) Entries() []ConfigEntry {
	entries := make([]ConfigEntry, 0, len(i.paths))
	for k, v := range i.paths {
		entries = append(entries, ConfigEntry{Key: k, Path: v})
	}
	return entries
}
