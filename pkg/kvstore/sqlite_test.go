package kvstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *kvstore.SQLite {
	t.Helper()
	store, err := kvstore.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_SetGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("hello"), time.Hour))

	got, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), got)
}

func TestSQLite_GetMissing(t *testing.T) {
	store := newTestStore(t)

	got, ok, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSQLite_SetOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v1"), time.Hour))
	require.NoError(t, store.Set(ctx, "k", []byte("v2"), time.Hour))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestSQLite_ExpiredReadsAsMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_ZeroTTLNeverExpires(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "forever", []byte("v"), 0))

	_, ok, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_IncrByFloat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	total, err := store.IncrByFloat(ctx, "spend", 1.25, time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, total, 0.0001)

	total, err = store.IncrByFloat(ctx, "spend", 0.50, time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, total, 0.0001)

	got, ok, err := store.GetFloat(ctx, "spend")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 1.75, got, 0.0001)
}

func TestSQLite_IncrByFloat_RestartsExpiredCounter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.IncrByFloat(ctx, "spend", 5.0, time.Millisecond)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	// The expired value must not leak into the new counter.
	total, err := store.IncrByFloat(ctx, "spend", 1.0, time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 0.0001)

	got, ok, err := store.GetFloat(ctx, "spend")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, got, 0.0001)
}

func TestSQLite_IncrByFloat_Concurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := store.IncrByFloat(ctx, "concurrent", 0.1, time.Hour)
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-done)
	}

	got, ok, err := store.GetFloat(ctx, "concurrent")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, got, 0.0001)
}

func TestSQLite_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, store.Delete(ctx, "k"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing key is fine.
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestSQLite_Prune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", []byte("v"), time.Millisecond))
	require.NoError(t, store.Set(ctx, "live", []byte("v"), time.Hour))
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, store.Prune(ctx))

	_, ok, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}
