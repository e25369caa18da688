package kvstore

import (
	"context"
	"time"
)

// Null implements Store as a no-op. It is selected at construction time
// when no store is configured: every read misses, every write succeeds
// and is dropped, so cache lookups always regenerate and spend counters
// never accumulate.
type Null struct{}

// NewNull creates a no-op store.
func NewNull() *Null { return &Null{} }

func (*Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*Null) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*Null) IncrByFloat(_ context.Context, _ string, delta float64, _ time.Duration) (float64, error) {
	return delta, nil
}

func (*Null) GetFloat(context.Context, string) (float64, bool, error) { return 0, false, nil }

func (*Null) Delete(context.Context, string) error { return nil }

func (*Null) Close() error { return nil }
