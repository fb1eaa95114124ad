package memory

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgduncan/go-error-pages/sources"
)

func TestSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	modified := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	s := NewSource()
	s.Set("/404.html", "not found", modified)

	got, err := s.Stat(ctx, "/404.html")
	require.NoError(t, err)
	assert.True(t, modified.Equal(got))
	assert.Equal(t, 0, s.Opens("/404.html"))

	rc, _, err := s.Open(ctx, "/404.html")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "not found", string(b))
	assert.Equal(t, 1, s.Opens("/404.html"))

	s.Remove("/404.html")
	_, err = s.Stat(ctx, "/404.html")
	assert.ErrorIs(t, err, sources.ErrNotFound)
	_, _, err = s.Open(ctx, "/404.html")
	assert.ErrorIs(t, err, sources.ErrNotFound)
}
