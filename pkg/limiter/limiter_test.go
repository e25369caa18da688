package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/recordwise/aigate/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_UnderLimitDoesNotBlock(t *testing.T) {
	l := limiter.New(limiter.Config{
		Defaults: limiter.Limits{PerMinute: 10, PerHour: 100},
	})

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background(), "openai"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 5, l.Pending("openai"))
}

func TestWait_BlocksUntilWindowFrees(t *testing.T) {
	l := limiter.New(limiter.Config{
		Defaults:     limiter.Limits{PerMinute: 2, PerHour: 100},
		MinuteWindow: 100 * time.Millisecond,
	})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "openai"))
	require.NoError(t, l.Wait(ctx, "openai"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "openai"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond,
		"third call should wait for the oldest to fall out of the window")
}

func TestWait_ProvidersAreIndependent(t *testing.T) {
	l := limiter.New(limiter.Config{
		Defaults:     limiter.Limits{PerMinute: 1, PerHour: 100},
		MinuteWindow: time.Minute,
	})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "openai"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "anthropic"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_ContextCancellation(t *testing.T) {
	l := limiter.New(limiter.Config{
		Defaults:     limiter.Limits{PerMinute: 1, PerHour: 100},
		MinuteWindow: time.Minute,
	})

	require.NoError(t, l.Wait(context.Background(), "openai"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "openai")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWait_PerProviderOverride(t *testing.T) {
	l := limiter.New(limiter.Config{
		Defaults: limiter.Limits{PerMinute: 1, PerHour: 10},
		Providers: map[string]limiter.Limits{
			"anthropic": {PerMinute: 100, PerHour: 1000},
		},
		MinuteWindow: time.Minute,
	})
	ctx := context.Background()

	// The override allows a burst the default would block.
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(ctx, "anthropic"))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWait_HourCeiling(t *testing.T) {
	l := limiter.New(limiter.Config{
		Defaults:     limiter.Limits{PerMinute: 100, PerHour: 3},
		MinuteWindow: 10 * time.Millisecond,
		HourWindow:   100 * time.Millisecond,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx, "openai"))
	}

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "openai"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
