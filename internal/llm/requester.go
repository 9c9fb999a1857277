package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultInitialWait = 60 * time.Second
)

// Requester sends the fixed system prompt plus user text to a Provider and
// retries with exponential backoff when the provider is rate limited. All
// other failures are returned immediately.
type Requester struct {
	provider       Provider
	systemPrompt   string
	maxAttempts    int
	initialWait    time.Duration
	attemptTimeout time.Duration
	sleep          func(context.Context, time.Duration) error
}

type RequesterOption func(*Requester)

// WithMaxAttempts caps the total number of calls made (defaults to 3).
func WithMaxAttempts(attempts int) RequesterOption {
	return func(r *Requester) {
		r.maxAttempts = attempts
	}
}

// WithInitialWait sets the first backoff delay (defaults to 60s).
func WithInitialWait(wait time.Duration) RequesterOption {
	return func(r *Requester) {
		r.initialWait = wait
	}
}

// WithAttemptTimeout bounds each individual call. Zero disables the bound.
func WithAttemptTimeout(timeout time.Duration) RequesterOption {
	return func(r *Requester) {
		r.attemptTimeout = timeout
	}
}

// WithSleeper overrides how backoff waits are performed.
func WithSleeper(sleep func(context.Context, time.Duration) error) RequesterOption {
	return func(r *Requester) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

func NewRequester(provider Provider, systemPrompt string, opts ...RequesterOption) *Requester {
	r := &Requester{
		provider:     provider,
		systemPrompt: systemPrompt,
		maxAttempts:  DefaultMaxAttempts,
		initialWait:  DefaultInitialWait,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxAttempts < 1 {
		r.maxAttempts = 1
	}
	if r.initialWait < 0 {
		r.initialWait = 0
	}
	return r
}

// Complete returns the model's reply to text.
func (r *Requester) Complete(ctx context.Context, text string) (*Response, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		resp, err := r.attempt(ctx, text)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !IsRateLimit(err) {
			slog.Error("Completion request failed", "attempt", attempt+1, "error", err)
			return nil, &UpstreamError{Err: err}
		}

		if attempt == r.maxAttempts-1 {
			slog.Error("Rate limit retries exhausted", "attempts", r.maxAttempts, "error", err)
			return nil, &RateLimitExhaustedError{
				Attempts:   r.maxAttempts,
				RetryAfter: r.Backoff(attempt),
				Err:        err,
			}
		}

		delay := r.Backoff(attempt)
		slog.Warn("Rate limited, backing off", "attempt", attempt+1, "max_attempts", r.maxAttempts, "wait", delay)
		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	// maxAttempts is at least 1, so the loop always returns.
	return nil, errors.New("completion retry loop ended without result")
}

// Backoff returns the wait before the retry that follows attempt (0-based):
// initialWait * 2^attempt, saturating at the largest time.Duration.
func (r *Requester) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if r.initialWait <= 0 {
		return 0
	}
	if attempt >= 62 || r.initialWait > time.Duration(math.MaxInt64>>uint(attempt)) {
		return time.Duration(math.MaxInt64)
	}
	return r.initialWait << uint(attempt)
}

func (r *Requester) attempt(ctx context.Context, text string) (*Response, error) {
	if r.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		defer cancel()
	}

	resp, err := r.provider.Complete(ctx, r.systemPrompt, text)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("provider returned no response")
	}
	return resp, nil
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
