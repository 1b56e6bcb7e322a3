package retry

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config controls the retry behaviour of [Do].
type Config struct {
	// MaxAttempts is the maximum number of times fn is called (including the
	// first attempt). Values ≤ 1 mean no retries.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent retries use
	// exponential back-off: BaseDelay * 2^attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed back-off delay. Zero means no cap.
	MaxDelay time.Duration

	// Jitter adds randomness to the delay. A value of 0.2 means ±20 % of
	// the computed delay. Zero disables jitter.
	Jitter float64

	// RetryCodes lists the gRPC status codes that are considered retryable.
	// It is ignored when Retryable is set.
	RetryCodes []codes.Code

	// Retryable, when non-nil, decides whether err is worth another attempt.
	Retryable func(err error) bool

	// OnRetry is called before each wait with the failed attempt (0-indexed)
	// and its error.
	OnRetry func(attempt int, err error)
}

// DefaultConfig returns the policy used by the cache client: four attempts
// on Unavailable or ResourceExhausted, starting at 50ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 4,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    time.Second,
		Jitter:      0.2,
		RetryCodes:  []codes.Code{codes.Unavailable, codes.ResourceExhausted},
	}
}

func (c Config) retryable(err error) bool {
	if c.Retryable != nil {
		return c.Retryable(err)
	}
	st, ok := status.FromError(err)
	return ok && slices.Contains(c.RetryCodes, st.Code())
}

// Do calls fn up to cfg.MaxAttempts times, retrying only errors cfg deems
// retryable. Between attempts an exponential back-off delay (with optional
// jitter) is applied.
//
// The context is checked before every retry; if ctx is done the function
// returns immediately with the context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for i := range attempts {
		var result T
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if i == attempts-1 || !cfg.retryable(err) {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(i, err)
		}

		timer := time.NewTimer(cfg.delay(i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, err
}
