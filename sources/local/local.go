package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dgduncan/go-error-pages/sources"
)

// FileSource serves error pages from the local file system. Relative paths
// are resolved against Root, or against the working directory when Root is
// empty.
type FileSource struct {
	Root string
}

// Stat returns the modification time of the regular file at path.
func (fsrc FileSource) Stat(_ context.Context, path string) (time.Time, error) {
	info, err := os.Stat(fsrc.resolve(path))
	if err != nil {
		return time.Time{}, wrap(path, err)
	}
	if !info.Mode().IsRegular() {
		return time.Time{}, fmt.Errorf("%s is not a regular file: %w", path, sources.ErrNotFound)
	}

	return info.ModTime(), nil
}

// Open opens the regular file at path. The returned modification time is read
// from the opened file, so it describes the content the reader yields.
func (fsrc FileSource) Open(_ context.Context, path string) (io.ReadCloser, time.Time, error) {
	f, err := os.Open(fsrc.resolve(path))
	if err != nil {
		return nil, time.Time{}, wrap(path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, time.Time{}, fmt.Errorf("%s is not a regular file: %w", path, sources.ErrNotFound)
	}

	return f, info.ModTime(), nil
}

func (fsrc FileSource) resolve(path string) string {
	if fsrc.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fsrc.Root, path)
}

func wrap(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, sources.ErrNotFound)
	}
	return err
}

func NewFileSource() FileSource {
	return FileSource{}
}
