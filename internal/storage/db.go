// Package storage opens the embedded SQLite database, applies the schema and
// wires the repositories that live on top of it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/timekeeper/internal/common"
	"github.com/dmitrijs2005/timekeeper/internal/filex"
	"github.com/dmitrijs2005/timekeeper/internal/migrations"
	"github.com/dmitrijs2005/timekeeper/internal/repositories/records"
	"github.com/dmitrijs2005/timekeeper/internal/repositories/settings"
)

// Repositories bundles the store handles sharing one database connection.
type Repositories struct {
	DB       *sql.DB
	Records  records.Repository
	Settings settings.Repository
}

// Close releases the underlying database.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

// DSN builds a modernc.org/sqlite data source name for the file at path with
// WAL journaling, foreign keys and the given busy timeout.
func DSN(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return path + "?" + q.Encode()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the database file at path and
// brings its schema up to date. Running it again on an initialized file is a
// no-op. Every failure wraps common.ErrStoreInit.
func InitDatabase(ctx context.Context, path string, busyTimeout time.Duration) (*Repositories, error) {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", common.ErrStoreInit, err)
	}

	db, err := sql.Open("sqlite", DSN(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStoreInit, path, err)
	}
	// Single user, single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStoreInit, path, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate %s: %w", common.ErrStoreInit, path, err)
	}

	return &Repositories{
		DB:       db,
		Records:  records.NewSQLiteRepository(db),
		Settings: settings.NewSQLiteRepository(db),
	}, nil
}
