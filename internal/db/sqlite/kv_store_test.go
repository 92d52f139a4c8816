package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postsync/internal/core/poststate"
	"Postsync/internal/core/posts"
)

// setupTestDB opens a fresh sqlite file under t.TempDir and runs migrations
func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.sqlite3")
	db, err := Open(context.Background(), path)
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestKVStore_ReadMissingKey(t *testing.T) {
	db, _ := setupTestDB(t)
	kv := NewKVStore(db)

	value, found, err := kv.ReadKey(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, value)
}

func TestKVStore_WriteReadOverwriteDelete(t *testing.T) {
	db, _ := setupTestDB(t)
	kv := NewKVStore(db)
	ctx := context.Background()

	require.NoError(t, kv.WriteKey(ctx, "k", "first"))
	value, found, err := kv.ReadKey(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "first", value)

	require.NoError(t, kv.WriteKey(ctx, "k", "second"))
	value, _, err = kv.ReadKey(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv_store`).Scan(&rows))
	assert.Equal(t, 1, rows, "overwrite must upsert in place")

	require.NoError(t, kv.DeleteKey(ctx, "k"))
	_, found, err = kv.ReadKey(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, kv.DeleteKey(ctx, "k"), "deleting a missing key is fine")
}

func TestKVStore_MigrationsAreIdempotent(t *testing.T) {
	_, path := setupTestDB(t)

	again, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = again.Close() }()
}

func TestKVStore_PostStatesSurviveReopen(t *testing.T) {
	db, path := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store := poststate.NewStore(NewKVStore(db), poststate.Options{Debounce: -1}, logger)
	require.NoError(t, store.Hydrate(ctx))
	store.UpdateLike(posts.ID(12), true, poststate.LikeState{LikeCount: 3})
	store.UpdateComment(posts.ID(12), 8)
	require.NoError(t, store.Close(ctx))
	require.NoError(t, db.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	restored := poststate.NewStore(NewKVStore(reopened), poststate.Options{}, logger)
	defer func() { _ = restored.Close(ctx) }()
	require.NoError(t, restored.Hydrate(ctx))

	like, ok := restored.GetLike(12)
	require.True(t, ok)
	state, complete := like.Complete()
	require.True(t, complete)
	assert.Equal(t, poststate.LikeState{IsLiked: true, LikeCount: 4}, state)

	comment, ok := restored.GetComment(12)
	require.True(t, ok)
	commentState, _ := comment.Complete()
	assert.Equal(t, 8, commentState.CommentCount)
}
