// Package delivery provides the retry-with-backoff discipline shared by
// every network-facing sink plugin.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
)

// Error is the terminal failure after the attempt budget is exhausted or a
// permanent failure short-circuited the loop. Err carries the last cause.
type Error struct {
	Destination string
	Attempts    int
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery to %s failed after %d attempt(s): %v", e.Destination, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// permanentError marks a failure that must not be retried.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so the client stops immediately instead of retrying.
// Call sites classify at the point closest to the network operation: 4xx
// client responses are permanent, transport errors and 5xx are retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the permanent classification.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Func is one delivery attempt. ctx is bounded by the per-attempt timeout.
type Func func(ctx context.Context) error

// Client runs delivery attempts with exponential backoff. It keeps no
// mutable state across calls and is safe for concurrent use.
type Client struct {
	Timeout     time.Duration
	MaxAttempts int

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewClient builds a client; zero values fall back to the defaults
// (30s timeout, 3 attempts).
func NewClient(timeout time.Duration, maxAttempts int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Client{Timeout: timeout, MaxAttempts: maxAttempts, sleep: time.Sleep}
}

// Do runs call until it succeeds, fails permanently, or the attempt budget
// is exhausted. After failed attempt k (counting from 0) it sleeps 2^k
// seconds; the sleep is not counted against the per-attempt timeout.
// It returns the number of attempts made.
func (c *Client) Do(ctx context.Context, destination string, call Func) (int, error) {
	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		err := call(attemptCtx)
		cancel()

		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		if IsPermanent(err) {
			slog.WarnContext(ctx, "delivery failed permanently",
				"destination", destination, "attempt", attempt+1, "error", err)
			return attempt + 1, &Error{Destination: destination, Attempts: attempt + 1, Err: errors.Unwrap(err)}
		}

		slog.WarnContext(ctx, "delivery attempt failed",
			"destination", destination, "attempt", attempt+1, "error", err)
		if attempt < c.MaxAttempts-1 {
			sleep(time.Duration(1<<attempt) * time.Second)
		}
	}

	return c.MaxAttempts, &Error{Destination: destination, Attempts: c.MaxAttempts, Err: lastErr}
}
