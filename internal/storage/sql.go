// internal/storage/sql.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var schemas = map[string]string{
	"sqlite": `
		CREATE TABLE IF NOT EXISTS storefront_kv (
			entry_key TEXT PRIMARY KEY,
			entry_value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	"postgres": `
		CREATE TABLE IF NOT EXISTS storefront_kv (
			entry_key TEXT PRIMARY KEY,
			entry_value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
}

// SQLStore persists entries in a single table on SQLite or PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	tracer trace.Tracer
}

// NewSQLStore wraps an open database and makes sure the table exists.
func NewSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	schema, ok := schemas[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported sql driver %q", db.DriverName())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLStore{
		db:     db,
		driver: db.DriverName(),
		tracer: otel.Tracer("bookvault/storage"),
	}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent Set calls.
	db.SetMaxOpenConns(1)
	s, err := NewSQLStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.get",
		trace.WithAttributes(
			attribute.String("storage.driver", s.driver),
			attribute.String("storage.key", key),
		),
	)
	defer span.End()

	var value string
	err := s.db.GetContext(ctx, &value,
		s.db.Rebind(`SELECT entry_value FROM storefront_kv WHERE entry_key = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("storage.hit", false))
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("storage.hit", true))
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	ctx, span := s.tracer.Start(ctx, "storage.set",
		trace.WithAttributes(
			attribute.String("storage.driver", s.driver),
			attribute.String("storage.key", key),
			attribute.Int("storage.bytes", len(value)),
		),
	)
	defer span.End()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO storefront_kv (entry_key, entry_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (entry_key) DO UPDATE
		SET entry_value = excluded.entry_value,
		    updated_at = excluded.updated_at
	`), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "storage.delete",
		trace.WithAttributes(attribute.String("storage.key", key)),
	)
	defer span.End()

	if _, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM storefront_kv WHERE entry_key = ?`), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
