package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/observability"
)

// Default retry configuration.
const (
	DefaultRetryDelay = 1 * time.Second
	DefaultRetryLimit = 3
)

// RetryOptions configures Retry. The zero value means a single attempt.
type RetryOptions struct {
	// Delay is the base sleep between attempts.
	Delay time.Duration

	// Limit is the maximum number of attempts. 0 means unlimited.
	Limit int

	// GrowDelay doubles the delay after each failed attempt
	// (Delay * 2^(attempt-1)).
	GrowDelay bool

	// Logger, when set, records each retried attempt.
	Logger *logrus.Logger

	// Metrics, when set, counts each retried attempt.
	Metrics *observability.Metrics
}

// DefaultRetryOptions returns the configuration used for provider calls.
func DefaultRetryOptions(logger *logrus.Logger, metrics *observability.Metrics) RetryOptions {
	return RetryOptions{
		Delay:     DefaultRetryDelay,
		Limit:     DefaultRetryLimit,
		GrowDelay: true,
		Logger:    logger,
		Metrics:   metrics,
	}
}

// Retry executes fn and, while it fails with ErrRateLimited, sleeps and
// retries up to opts.Limit attempts. Any other failure propagates
// immediately. Exceeding the limit propagates the last failure.
//
// Each call owns its delay state; concurrent Retry calls never interleave.
func Retry[T any](ctx context.Context, opts RetryOptions, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; opts.Limit == 0 || attempt <= opts.Limit; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return zero, err
		}
		lastErr = err

		if opts.Limit != 0 && attempt == opts.Limit {
			break
		}

		d := backoffDelay(opts.Delay, attempt, opts.GrowDelay)
		opts.Metrics.ObserveRetry()
		if opts.Logger != nil {
			opts.Logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   d,
			}).Warn("rate limited, retrying")
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(d):
		}
	}

	return zero, lastErr
}

// backoffDelay returns the sleep before the attempt following failed
// attempt n (1-based). With grow it is base * 2^(n-1).
func backoffDelay(base time.Duration, attempt int, grow bool) time.Duration {
	if !grow || attempt <= 1 {
		return base
	}
	if attempt > 31 {
		attempt = 31
	}
	return base * time.Duration(1<<(attempt-1))
}
