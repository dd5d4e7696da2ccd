// internal/circulation/retry.go
package circulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"pustaka/internal/catalog"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not
	// between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// retryableFunc is one attempt of an availability compare-and-set.
type retryableFunc func(ctx context.Context) error

// retryConfig bounds the optimistic-concurrency retry loop.
type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}
}

// retryOnConflict executes fn, retrying availability conflicts with
// exponential backoff and jitter up to the configured attempt budget.
// Only catalog.ErrAvailabilityConflict is retried; every other error fails
// fast. When the budget runs out the conflict is surfaced as
// ErrConcurrentModification so callers know the failure is transient.
//
// Default schedule: 0ms, 10ms, 20ms, 40ms, 80ms, 160ms (plus up to 30%
// jitter), so a saturated item fails in well under a second instead of
// blocking.
func retryOnConflict(ctx context.Context, config retryConfig, fn retryableFunc) error {
	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // math/rand is sufficient for jitter
			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !errors.Is(lastErr, catalog.ErrAvailabilityConflict) {
			return lastErr
		}
	}

	return fmt.Errorf("%w (%d attempts)", ErrConcurrentModification, config.maxAttempts)
}

// Option configures the circulation service using the functional options
// pattern.
type Option func(*service) error

// WithMaxAttempts sets the retry budget for availability conflicts.
func WithMaxAttempts(attempts int) Option {
	return func(s *service) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		s.retry.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, and so on.
func WithBaseDelay(delay time.Duration) Option {
	return func(s *service) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}
		s.retry.baseDelay = delay
		return nil
	}
}

// WithJitterFactor sets the jitter added to each backoff delay, as a
// fraction of the delay. Valid range: 0.0 to 1.0.
func WithJitterFactor(factor float64) Option {
	return func(s *service) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}
		s.retry.jitterFactor = factor
		return nil
	}
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *service) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		s.now = now
		return nil
	}
}
