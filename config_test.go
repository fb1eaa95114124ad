package errorpages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	errorpages "github.com/dgduncan/go-error-pages"
)

func TestLoadIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		props    map[string]string
		prefix   string
		expected map[string]string
	}{
		{
			name: "keeps prefixed keys and strips the prefix",
			props: map[string]string{
				"error.page.*":   "./error/errorAll.html",
				"error.page.404": "./error/error404.html",
				"catalina.home":  "/opt/tomcat",
			},
			expected: map[string]string{
				"*":   "./error/errorAll.html",
				"404": "./error/error404.html",
			},
		},
		{
			name: "bare prefix is ignored",
			props: map[string]string{
				"error.page.": "./error/nothing.html",
			},
			expected: map[string]string{},
		},
		{
			name: "custom prefix",
			props: map[string]string{
				"pages.500":      "/srv/500.html",
				"error.page.500": "/srv/other.html",
			},
			prefix: "pages.",
			expected: map[string]string{
				"500": "/srv/500.html",
			},
		},
		{
			name:     "no properties",
			props:    nil,
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			index := errorpages.LoadIndex(tt.props, tt.prefix)
			assert.Equal(t, len(tt.expected), index.Len())
			for k, v := range tt.expected {
				path, ok := index.Lookup(k)
				assert.True(t, ok, "key %s", k)
				assert.Equal(t, v, path)
			}
		})
	}
}

func TestNewIndexLastValueWins(t *testing.T) {
	t.Parallel()

	index := errorpages.NewIndex(
		errorpages.ConfigEntry{Key: "404", Path: "/first.html"},
		errorpages.ConfigEntry{Key: "404", Path: "/second.html"},
	)

	path, ok := index.Lookup("404")
	assert.True(t, ok)
	assert.Equal(t, "/second.html", path)
	assert.Len(t, index.Entries(), 1)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	full := errorpages.NewIndex(
		errorpages.ConfigEntry{Key: "*", Path: "/pages/all.html"},
		errorpages.ConfigEntry{Key: "404", Path: "/pages/404.html"},
		errorpages.ConfigEntry{Key: "500", Path: "/pages/500.html"},
		errorpages.ConfigEntry{Key: "302", Path: "/pages/302.html"},
	)
	statusOnly := errorpages.NewIndex(errorpages.ConfigEntry{Key: "404", Path: "/pages/404.html"})

	tests := []struct {
		name         string
		index        errorpages.Index
		status       int
		expectedPath string
		expectedOK   bool
	}{
		{name: "status entry", index: full, status: 404, expectedPath: "/pages/404.html", expectedOK: true},
		{name: "another status entry", index: full, status: 500, expectedPath: "/pages/500.html", expectedOK: true},
		{name: "wildcard on miss", index: full, status: 503, expectedPath: "/pages/all.html", expectedOK: true},
		{name: "status below 400 always uses wildcard", index: full, status: 302, expectedPath: "/pages/all.html", expectedOK: true},
		{name: "miss without wildcard", index: statusOnly, status: 503, expectedOK: false},
		{name: "empty index", index: errorpages.Index{}, status: 500, expectedOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path, ok := errorpages.Resolve(tt.status, tt.index)
			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedPath, path)
		})
	}

	t.Run("every error status with an entry resolves to it", func(t *testing.T) {
		t.Parallel()

		for status := 400; status < 600; status++ {
			path, ok := full.Resolve(status)
			assert.True(t, ok)

			switch status {
			case 404:
				assert.Equal(t, "/pages/404.html", path)
			case 500:
				assert.Equal(t, "/pages/500.html", path)
			default:
				assert.Equal(t, "/pages/all.html", path, "status %d", status)
			}
		}
	})
}
