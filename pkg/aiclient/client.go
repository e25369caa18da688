// Package aiclient wraps outbound provider HTTP calls with rate-limit
// pacing and retry/backoff. Transient failures (429, 5xx, network) are
// retried up to a fixed ceiling; authentication and validation errors
// fail immediately.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/recordwise/aigate/pkg/limiter"
)

// RetryConfig bounds the retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	return c
}

// Client issues paced, retried HTTP requests to providers.
type Client struct {
	http    *http.Client
	limiter *limiter.Limiter
	retry   RetryConfig
	logger  *slog.Logger
}

// New creates a client. A nil httpClient uses a 60s-timeout default.
func New(httpClient *http.Client, l *limiter.Limiter, retry RetryConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		http:    httpClient,
		limiter: l,
		retry:   retry.withDefaults(),
		logger:  logger,
	}
}

// Do paces and executes a request against a provider, retrying transient
// failures. newRequest is called once per attempt because request bodies
// are consumed on send.
func (c *Client) Do(ctx context.Context, provider string, newRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, provider); err != nil {
				return nil, err
			}
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("build %s request: %w", provider, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = &ProviderError{Provider: provider, Err: err}
			c.logger.Warn("provider call failed", "provider", provider, "attempt", attempt, "error", err)
			if attempt == c.retry.MaxAttempts {
				break
			}
			if !c.sleep(ctx, c.backoff(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode < 400 {
			return resp, nil
		}

		body := readSnippet(resp.Body)
		resp.Body.Close()

		if permanentStatus(resp.StatusCode) {
			return nil, &ProviderError{
				Provider:   provider,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("%s", body),
				Permanent:  true,
			}
		}

		lastErr = &ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", body),
		}

		// No point pacing after the last attempt; report exhaustion now.
		if attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.backoff(attempt)
		if resp.StatusCode == http.StatusTooManyRequests {
			if after := retryAfter(resp); after > 0 {
				delay = after
			}
		}

		c.logger.Warn("provider returned transient error",
			"provider", provider,
			"status", resp.StatusCode,
			"attempt", attempt,
			"retry_in", delay,
		)

		if !c.sleep(ctx, delay) {
			return nil, ctx.Err()
		}
	}

	return nil, errors.Join(ErrRetriesExhausted, lastErr)
}

// backoff doubles the base delay per attempt, capped at MaxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retry.BaseDelay << (attempt - 1)
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// retryAfter honors a Retry-After header given in seconds or HTTP date.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		return time.Until(at)
	}
	return 0
}

// readSnippet reads at most 1KB of an error body for diagnostics.
func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 1024))
	if len(data) == 0 {
		return "empty error body"
	}
	return string(data)
}
