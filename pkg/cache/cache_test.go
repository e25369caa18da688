package cache_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/recordwise/aigate/pkg/cache"
	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*cache.Service, kvstore.Store) {
	t.Helper()
	store, err := kvstore.NewMemory(128)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return cache.NewService(store, logger), store
}

func TestGetOrGenerate_MissThenHit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	calls := 0
	gen := func(context.Context) ([]byte, error) {
		calls++
		return []byte("result"), nil
	}

	first, err := svc.GetOrGenerate(ctx, "classify", "acme|widgets", time.Hour, gen)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, []byte("result"), first.Data)

	second, err := svc.GetOrGenerate(ctx, "classify", "acme|widgets", time.Hour, gen)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, []byte("result"), second.Data)
	assert.GreaterOrEqual(t, second.Age, time.Duration(0))

	assert.Equal(t, 1, calls, "generator should run once across both calls")
}

func TestGetOrGenerate_TTLExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	calls := 0
	gen := func(context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	_, err := svc.GetOrGenerate(ctx, "ns", "k", 10*time.Millisecond, gen)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	res, err := svc.GetOrGenerate(ctx, "ns", "k", 10*time.Millisecond, gen)
	require.NoError(t, err)
	assert.False(t, res.Cached, "expired entry is a fresh miss")
	assert.Equal(t, 2, calls)
}

func TestGetOrGenerate_GeneratorErrorPropagates(t *testing.T) {
	svc, _ := newTestService(t)

	genErr := errors.New("provider down")
	_, err := svc.GetOrGenerate(context.Background(), "ns", "k", time.Hour, func(context.Context) ([]byte, error) {
		return nil, genErr
	})
	assert.ErrorIs(t, err, genErr)

	// Nothing was cached; the next call regenerates.
	res, err := svc.GetOrGenerate(context.Background(), "ns", "k", time.Hour, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.False(t, res.Cached)
}

func TestGetOrGenerate_StoreFailureDegradesToMiss(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := cache.NewService(&failingStore{}, logger)

	calls := 0
	res, err := svc.GetOrGenerate(context.Background(), "ns", "k", time.Hour, func(context.Context) ([]byte, error) {
		calls++
		return []byte("fresh"), nil
	})
	require.NoError(t, err, "store errors must never surface")
	assert.False(t, res.Cached)
	assert.Equal(t, []byte("fresh"), res.Data)
	assert.Equal(t, 1, calls)
}

func TestGetOrGenerate_CorruptedPayloadIsMiss(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	res, err := svc.GetOrGenerate(ctx, "ns", "k", time.Hour, func(context.Context) ([]byte, error) {
		return []byte("v"), nil
	})
	require.NoError(t, err)
	assert.False(t, res.Cached)

	// Clobber the stored envelope with garbage at the same storage key.
	key := "ns:" + digest("k")
	require.NoError(t, store.Set(ctx, key, []byte("not json"), time.Hour))

	res, err = svc.GetOrGenerate(ctx, "ns", "k", time.Hour, func(context.Context) ([]byte, error) {
		return []byte("regenerated"), nil
	})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, []byte("regenerated"), res.Data)
}

func TestGetSetInvalidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, ok := svc.Get(ctx, "ns", "k")
	assert.False(t, ok)

	svc.Set(ctx, "ns", "k", []byte("direct"), time.Hour)

	data, ok := svc.Get(ctx, "ns", "k")
	require.True(t, ok)
	assert.Equal(t, []byte("direct"), data)

	svc.Invalidate(ctx, "ns", "k")
	_, ok = svc.Get(ctx, "ns", "k")
	assert.False(t, ok)
}

func TestMetrics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	gen := func(context.Context) ([]byte, error) { return []byte("v"), nil }
	_, err := svc.GetOrGenerate(ctx, "score", "a", time.Hour, gen) // miss
	require.NoError(t, err)
	_, err = svc.GetOrGenerate(ctx, "score", "a", time.Hour, gen) // hit
	require.NoError(t, err)
	_, err = svc.GetOrGenerate(ctx, "score", "b", time.Hour, gen) // miss
	require.NoError(t, err)

	m := svc.Metrics("score")
	assert.Equal(t, int64(1), m.Hits)
	assert.Equal(t, int64(2), m.Misses)
	assert.InDelta(t, 1.0/3.0, m.HitRate, 0.0001)

	// Metrics are per-namespace.
	other := svc.Metrics("other")
	assert.Zero(t, other.Hits)
	assert.Zero(t, other.Misses)

	svc.ResetMetrics("score")
	m = svc.Metrics("score")
	assert.Zero(t, m.Hits)
	assert.Zero(t, m.Misses)
}

// digest mirrors the service's storage-key derivation.
func digest(contentKey string) string {
	sum := sha256.Sum256([]byte(contentKey))
	return hex.EncodeToString(sum[:8])
}

// failingStore errors on every operation.
type failingStore struct{}

var errStoreDown = errors.New("store unreachable")

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}
func (f *failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (f *failingStore) IncrByFloat(context.Context, string, float64, time.Duration) (float64, error) {
	return 0, errStoreDown
}
func (f *failingStore) GetFloat(context.Context, string) (float64, bool, error) {
	return 0, false, errStoreDown
}
func (f *failingStore) Delete(context.Context, string) error { return errStoreDown }
func (f *failingStore) Close() error                         { return nil }
