// Package db selects and opens the KeyValueStore backing the persisted post state mirror.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"Postsync/internal/core/poststate"
	"Postsync/internal/db/memory"
	"Postsync/internal/db/postgres"
	"Postsync/internal/db/sqlite"
)

// Supported store kinds
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMemory   = "memory"
)

// Config picks a backend and its connection settings
type Config struct {
	Kind        string
	SQLitePath  string
	DatabaseURL string
}

// Handle is an open KeyValueStore and the database behind it, if any
type Handle struct {
	KV poststate.KeyValueStore
	db *sql.DB
}

// Close releases the underlying database
func (h *Handle) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Open opens the configured backend and applies migrations
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Kind {
	case KindMemory:
		logger.Warn("post states are not persisted across restarts", "state_store", cfg.Kind)
		return &Handle{KV: memory.NewKVStore()}, nil

	case KindPostgres:
		conn, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to state database", "state_store", cfg.Kind)
		return &Handle{KV: postgres.NewKVStore(conn), db: conn}, nil

	case KindSQLite, "":
		conn, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened state database", "state_store", KindSQLite, "path", cfg.SQLitePath)
		return &Handle{KV: sqlite.NewKVStore(conn), db: conn}, nil

	default:
		return nil, fmt.Errorf("unknown state store %q (want sqlite, postgres or memory)", cfg.Kind)
	}
}
