package aiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRetriesExhausted wraps the final transient error once the attempt
// ceiling is reached.
var ErrRetriesExhausted = errors.New("retries exhausted")

// ProviderError wraps a provider HTTP failure with classification.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
	Permanent  bool // 401 and other non-429 4xx: retrying cannot succeed
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is a non-transient provider failure.
func IsPermanent(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Permanent
}

// permanentStatus classifies a 4xx (other than 429) as non-retryable.
func permanentStatus(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}
