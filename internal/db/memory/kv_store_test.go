package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postsync/internal/core/poststate"
)

var _ poststate.KeyValueStore = (*KVStore)(nil)

func TestKVStore_RoundTrip(t *testing.T) {
	kv := NewKVStore()
	ctx := context.Background()

	_, found, err := kv.ReadKey(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.WriteKey(ctx, "a", "1"))
	value, found, err := kv.ReadKey(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", value)
	assert.Equal(t, 1, kv.Keys())

	require.NoError(t, kv.DeleteKey(ctx, "a"))
	assert.Equal(t, 0, kv.Keys())
}

func TestKVStore_CanceledContext(t *testing.T) {
	kv := NewKVStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, kv.WriteKey(ctx, "a", "1"), context.Canceled)
	_, _, err := kv.ReadKey(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, kv.DeleteKey(ctx, "a"), context.Canceled)
}
