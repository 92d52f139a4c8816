package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_Memory(t *testing.T) {
	h, err := Open(context.Background(), Config{Kind: KindMemory}, discardLogger())
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.KV.WriteKey(context.Background(), "k", "v"))
	value, found, err := h.KV.ReadKey(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.sqlite3")
	h, err := Open(context.Background(), Config{Kind: KindSQLite, SQLitePath: path}, discardLogger())
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	require.NoError(t, h.KV.WriteKey(context.Background(), "k", "v"))
	_, found, err := h.KV.ReadKey(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open(context.Background(), Config{Kind: "redis"}, discardLogger())
	assert.ErrorContains(t, err, "unknown state store")
}
