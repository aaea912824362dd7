// Package retry holds the transient-failure policy shared by the HTTP
// collaborators (classifier, language models, places, pathstore).
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Transient reports whether an HTTP status should be retried.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Policy runs an operation up to Attempts times, sleeping Wait(attempt)
// between retryable failures.
type Policy struct {
	Attempts int
	Wait     func(attempt int) time.Duration
	Log      *slog.Logger
}

// Default is MaxRetries attempts with Backoff.
var Default = Policy{Attempts: MaxRetries, Wait: Backoff}

// Do calls fn until it succeeds, fails permanently, or attempts run out.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	wait := p.Wait
	if wait == nil {
		wait = Backoff
	}
	var lastErr error
	for attempt := range attempts {
		lastErr = fn(ctx)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}
		if p.Log != nil {
			p.Log.Warn("retryable error", "op", op, "attempt", attempt, "error", lastErr)
		}
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// Truncate shortens s to at most n bytes, marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
