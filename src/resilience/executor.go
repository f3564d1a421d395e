// Package resilience wraps fallible operations with retry/backoff while
// always letting context cancellation through immediately.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scanner111/src/logger"
)

const defaultMaxRetries = 2

// Backoff computes the delay before retry attempt n (1-indexed).
type Backoff func(attempt int) time.Duration

// Linear returns a Backoff that waits attempt*base between retries.
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Executor retries a fallible operation, distinguishing cancellation (which
// propagates immediately) from ordinary failure (which retries).
type Executor struct {
	log        logger.Logger
	maxRetries int
	backoff    Backoff
}

// Option configures an Executor.
type Option func(*Executor)

func WithMaxRetries(n int) Option {
	return func(e *Executor) { e.maxRetries = n }
}

func WithBackoff(b Backoff) Option {
	return func(e *Executor) { e.backoff = b }
}

// New constructs an Executor with the default policy: 2 retries, linear
// backoff starting at 100ms.
func New(log logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		log:        log,
		maxRetries: defaultMaxRetries,
		backoff:    Linear(100 * time.Millisecond),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FailedError is returned when every retry attempt failed.
type FailedError struct {
	Key      string
	Attempts int
	Last     error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("resilience: %q failed after %d attempts: %v", e.Key, e.Attempts, e.Last)
}

func (e *FailedError) Unwrap() error { return e.Last }

// Run invokes f, retrying on failure up to MaxRetries times. Cancellation
// (context.Canceled / context.DeadlineExceeded) is returned immediately
// without retry. key tags the invocation for logging.
func Run[T any](ctx context.Context, e *Executor, key string, f func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := f(ctx)
		if err == nil {
			return result, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}

		lastErr = err
		if attempt < e.maxRetries {
			e.log.Debug("resilience: %q attempt %d/%d failed: %v, retrying", key, attempt+1, e.maxRetries+1, err)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(e.backoff(attempt + 1)):
			}
		}
	}

	e.log.Error("resilience: %q exhausted retries: %v", key, lastErr)
	return zero, &FailedError{Key: key, Attempts: e.maxRetries + 1, Last: lastErr}
}
