package postgres

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/dgduncan/go-error-pages/sources"
)

var (
	//go:embed create_table.sql
	queryCreateTable string
	//go:embed fetch_modified.sql
	queryFetchModified string
	//go:embed fetch_page.sql
	queryFetchPage string
	//go:embed upsert_page.sql
	queryUpsertPage string
	//go:embed delete_page.sql
	queryDeletePage string
)

// Config defines the configuration options for the PostgreSQL page source.
type Config struct {
	// CreateTable creates the error_pages table on startup if it does not
	// exist yet.
	CreateTable bool
}

// Source implements errorpages.Source using a PostgreSQL table as the page
// store. Page paths are the primary key; modified_at drives cache freshness.
type Source struct {
	db *sql.DB

	now func() time.Time
}

// Stat returns the modified_at column of the page stored at path.
// Returns sources.ErrNotFound if the row doesn't exist.
func (p *Source) Stat(ctx context.Context, path string) (time.Time, error) {
	stmt, err := p.db.PrepareContext(ctx, queryFetchModified)
	if err != nil {
		return time.Time{}, err
	}
	defer stmt.Close()

	var modifiedAt time.Time
	if err := stmt.QueryRowContext(ctx, path).Scan(&modifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%s: %w", path, sources.ErrNotFound)
		}
		return time.Time{}, err
	}

	return modifiedAt, nil
}

// Open fetches content and modified_at of the page stored at path in a single
// query.
func (p *Source) Open(ctx context.Context, path string) (io.ReadCloser, time.Time, error) {
	stmt, err := p.db.PrepareContext(ctx, queryFetchPage)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer stmt.Close()

	var content []byte
	var modifiedAt time.Time
	if err := stmt.QueryRowContext(ctx, path).Scan(&content, &modifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, fmt.Errorf("%s: %w", path, sources.ErrNotFound)
		}
		return nil, time.Time{}, err
	}

	return io.NopCloser(bytes.NewReader(content)), modifiedAt, nil
}

// Put inserts or replaces the page stored at path and stamps it with the
// current time, which makes caches reload it on their next lookup.
func (p *Source) Put(ctx context.Context, path string, content []byte) error {
	stmt, err := p.db.PrepareContext(ctx, queryUpsertPage)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, path, content, p.now().UTC())
	return err
}

// Delete removes the page stored at path.
func (p *Source) Delete(ctx context.Context, path string) error {
	stmt, err := p.db.PrepareContext(ctx, queryDeletePage)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, path)
	return err
}

func createTable(ctx context.Context, db *sql.DB) error {
	stmt, err := db.PrepareContext(ctx, queryCreateTable)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx)
	return err
}

// New creates a new PostgreSQL page source. It verifies the database
// connection and optionally creates the error_pages table.
//
// Returns an error if:
// - db is nil
// - The database connection test fails
// - Table creation fails
func New(ctx context.Context, db *sql.DB, config *Config) (*Source, error) {
	if db == nil {
		return nil, sources.ValidationError{
			Reason: "nil db",
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(sources.ErrPingFailed, err)
	}

	if config != nil && config.CreateTable {
		if err := createTable(ctx, db); err != nil {
			return nil, err
		}
	}

	return &Source{
		db: db,

		now: time.Now,
	}, nil
}
