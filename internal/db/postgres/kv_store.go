package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"Postsync/internal/core/poststate"
	"Postsync/internal/db/migrations"
)

// Open connects to the postgres database at dsn and applies migrations
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}
	if err := migrations.Up(ctx, db, migrations.DialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// kvStore implements poststate.KeyValueStore using PostgreSQL
type kvStore struct {
	db *sql.DB
}

// NewKVStore creates a PostgreSQL-backed key/value store
func NewKVStore(db *sql.DB) poststate.KeyValueStore {
	return &kvStore{db: db}
}

// ReadKey returns the value stored under name
func (r *kvStore) ReadKey(ctx context.Context, name string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query kv_store: %w", err)
	}
	return value, true, nil
}

// WriteKey upserts value under name
func (r *kvStore) WriteKey(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to write kv_store key %q: %w", name, err)
	}
	return nil
}

// DeleteKey removes name if present
func (r *kvStore) DeleteKey(ctx context.Context, name string) error {
	query := `DELETE FROM kv_store WHERE key = $1`
	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to delete kv_store key %q: %w", name, err)
	}
	return nil
}
