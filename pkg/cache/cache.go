// Package cache wraps expensive generation behind a get-or-generate
// store lookup. The cache is a pure optimization: store failures degrade
// to a miss and are never surfaced to callers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/recordwise/aigate/pkg/kvstore"
	"github.com/recordwise/aigate/pkg/model"
)

// envelopeVersion guards against payload layout changes across releases.
const envelopeVersion = 1

// envelope is the serialized form of a cache entry.
type envelope struct {
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// Generator produces the value to cache on a miss. It is invoked at most
// once per GetOrGenerate call; its error propagates unchanged.
type Generator func(ctx context.Context) ([]byte, error)

// Result is the outcome of a GetOrGenerate call.
type Result struct {
	Data   []byte
	Cached bool
	Age    time.Duration
}

// Service is the cache service. Hit/miss counters are in-process only
// and reset on restart.
type Service struct {
	store   kvstore.Store
	logger  *slog.Logger
	metrics *metricsSet
}

// NewService creates a cache service over the given store.
func NewService(store kvstore.Store, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: newMetricsSet(),
	}
}

// GetOrGenerate returns the cached value for the namespaced content key,
// or invokes generate and best-effort stores its result with the given
// TTL. Only the generator's error is ever returned.
func (s *Service) GetOrGenerate(ctx context.Context, namespace, contentKey string, ttl time.Duration, generate Generator) (Result, error) {
	key := storageKey(namespace, contentKey)

	if env, ok := s.read(ctx, key); ok {
		s.metrics.hit(namespace)
		return Result{Data: env.Data, Cached: true, Age: time.Since(env.Timestamp)}, nil
	}
	s.metrics.miss(namespace)

	data, err := generate(ctx)
	if err != nil {
		return Result{}, err
	}

	s.write(ctx, key, data, ttl)
	return Result{Data: data, Cached: false}, nil
}

// Get reads a cached value without generating. The second return reports
// a usable hit.
func (s *Service) Get(ctx context.Context, namespace, contentKey string) ([]byte, bool) {
	env, ok := s.read(ctx, storageKey(namespace, contentKey))
	if !ok {
		s.metrics.miss(namespace)
		return nil, false
	}
	s.metrics.hit(namespace)
	return env.Data, true
}

// Set writes a value directly, for callers that manage their own miss logic.
func (s *Service) Set(ctx context.Context, namespace, contentKey string, data []byte, ttl time.Duration) {
	s.write(ctx, storageKey(namespace, contentKey), data, ttl)
}

// Invalidate removes a cached entry.
func (s *Service) Invalidate(ctx context.Context, namespace, contentKey string) {
	key := storageKey(namespace, contentKey)
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidate failed", "key", key, "error", err)
	}
}

// Metrics returns the accumulated hit/miss counters for a namespace.
func (s *Service) Metrics(namespace string) model.CacheMetrics {
	return s.metrics.snapshot(namespace)
}

// ResetMetrics zeroes the counters for a namespace.
func (s *Service) ResetMetrics(namespace string) {
	s.metrics.reset(namespace)
}

// Namespaces returns every namespace with recorded traffic.
func (s *Service) Namespaces() []string {
	return s.metrics.namespaces()
}

// read fetches and decodes an entry. Store errors and corrupted payloads
// both count as a miss.
func (s *Service) read(ctx context.Context, key string) (envelope, bool) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		return envelope{}, false
	}
	if !ok {
		return envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != envelopeVersion {
		s.logger.Warn("corrupted cache payload, treating as miss", "key", key)
		return envelope{}, false
	}
	return env, true
}

// write stores an entry best-effort; failures are logged and absorbed.
func (s *Service) write(ctx context.Context, key string, data []byte, ttl time.Duration) {
	raw, err := json.Marshal(envelope{
		Data:      data,
		Timestamp: time.Now().UTC(),
		Version:   envelopeVersion,
	})
	if err != nil {
		s.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.store.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// storageKey combines the namespace with a fixed-width digest of the
// content key: <namespace>:<16-hex-char digest>.
func storageKey(namespace, contentKey string) string {
	sum := sha256.Sum256([]byte(contentKey))
	return namespace + ":" + hex.EncodeToString(sum[:8])
}
