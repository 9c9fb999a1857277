package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

// ErrRateLimitExhausted is matched by errors.Is on a *RateLimitExhaustedError.
var ErrRateLimitExhausted = errors.New("rate limit exhausted")

// RateLimitExhaustedError is returned when every attempt was rate limited.
type RateLimitExhaustedError struct {
	Attempts   int
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("rate limit exhausted after %d attempts (retry after %s): %v", e.Attempts, e.RetryAfter, e.Err)
}

func (e *RateLimitExhaustedError) Is(target error) bool {
	return target == ErrRateLimitExhausted
}

func (e *RateLimitExhaustedError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps any failure of the completion call that is not retried.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err signals an upstream rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
