// Package limiter paces outbound provider calls with per-provider
// sliding windows. State is in-process only; it is not shared across
// processes.
package limiter

import (
	"context"
	"sync"
	"time"
)

// Limits caps calls per provider within the short and long windows.
// Zero disables the corresponding ceiling.
type Limits struct {
	PerMinute int
	PerHour   int
}

// Config configures a Limiter. The window durations exist so tests can
// scale time down; production callers leave them zero for minute/hour.
type Config struct {
	Defaults     Limits
	Providers    map[string]Limits
	MinuteWindow time.Duration
	HourWindow   time.Duration
}

// Limiter tracks recent call timestamps per provider and delays callers
// that would exceed a ceiling.
type Limiter struct {
	mu           sync.Mutex
	windows      map[string][]time.Time
	defaults     Limits
	providers    map[string]Limits
	minuteWindow time.Duration
	hourWindow   time.Duration
}

// New creates a limiter from the given config.
func New(cfg Config) *Limiter {
	if cfg.MinuteWindow <= 0 {
		cfg.MinuteWindow = time.Minute
	}
	if cfg.HourWindow <= 0 {
		cfg.HourWindow = time.Hour
	}
	return &Limiter{
		windows:      make(map[string][]time.Time),
		defaults:     cfg.Defaults,
		providers:    cfg.Providers,
		minuteWindow: cfg.MinuteWindow,
		hourWindow:   cfg.HourWindow,
	}
}

// Wait blocks until the provider has a free slot, then claims it. The
// wait is bounded by the window size; ctx cancellation aborts early.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	for {
		delay := l.tryAcquire(provider)
		if delay <= 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pending returns how many calls are currently counted against the
// provider's long window.
func (l *Limiter) Pending(provider string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(provider, time.Now()))
}

// tryAcquire claims a slot if one is free, otherwise returns how long
// until the oldest counted call falls out of the violated window.
func (l *Limiter) tryAcquire(provider string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	window := l.prune(provider, now)
	limits := l.limitsFor(provider)

	if limits.PerHour > 0 && len(window) >= limits.PerHour {
		return window[0].Add(l.hourWindow).Sub(now)
	}

	if limits.PerMinute > 0 {
		minuteStart := now.Add(-l.minuteWindow)
		recent := window
		for len(recent) > 0 && !recent[0].After(minuteStart) {
			recent = recent[1:]
		}
		if len(recent) >= limits.PerMinute {
			return recent[0].Add(l.minuteWindow).Sub(now)
		}
	}

	l.windows[provider] = append(window, now)
	return 0
}

// prune drops timestamps older than the long window. Callers must hold mu.
func (l *Limiter) prune(provider string, now time.Time) []time.Time {
	hourStart := now.Add(-l.hourWindow)
	window := l.windows[provider]
	for len(window) > 0 && !window[0].After(hourStart) {
		window = window[1:]
	}
	l.windows[provider] = window
	return window
}

func (l *Limiter) limitsFor(provider string) Limits {
	if limits, ok := l.providers[provider]; ok {
		return limits
	}
	return l.defaults
}
