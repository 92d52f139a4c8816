// Package sqlite stores the persisted post state mirror in an on-device sqlite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"Postsync/internal/core/poststate"
	"Postsync/internal/db/migrations"
)

// Open opens (creating if needed) the sqlite database at path and applies migrations
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// sqlite serializes writers anyway; a single connection avoids SQLITE_BUSY churn
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := migrations.Up(ctx, db, migrations.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// kvStore implements poststate.KeyValueStore using sqlite
type kvStore struct {
	db *sql.DB
}

// NewKVStore creates a sqlite-backed key/value store
func NewKVStore(db *sql.DB) poststate.KeyValueStore {
	return &kvStore{db: db}
}

// ReadKey returns the value stored under name
func (s *kvStore) ReadKey(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", name, err)
	}
	return value, true, nil
}

// WriteKey stores value under name, replacing any previous value
func (s *kvStore) WriteKey(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key)
		DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", name, err)
	}
	return nil
}

// DeleteKey removes name. Deleting a missing key is not an error.
func (s *kvStore) DeleteKey(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, name); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", name, err)
	}
	return nil
}
