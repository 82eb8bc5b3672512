// Package retry provides a bounded exponential retry combinator.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Notify is called after a failed attempt and before waiting. attempt is the
// 1-based number of the attempt that just failed.
type Notify func(attempt int, err error, wait time.Duration)

// NewBackOff returns a deterministic doubling schedule: base, 2*base, 4*base...
// Randomization is disabled so the waits are exact.
func NewBackOff(base time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = base << 10
	bo.Reset()
	return bo
}

// WithBackoff runs op up to maxAttempts times, waiting base*2^(n-1) after the
// n-th failure. The last failure is returned unchanged once attempts run out.
// Context cancellation stops the loop and is never retried.
func WithBackoff[T any](ctx context.Context, op func(ctx context.Context) (T, error), maxAttempts int, base time.Duration, notify Notify) (T, error) {
	if maxAttempts < 1 {
		var zero T
		return zero, fmt.Errorf("retry: maxAttempts must be positive, got %d", maxAttempts)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err != nil && ctx.Err() != nil {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(NewBackOff(base)),
		backoff.WithMaxTries(uint(maxAttempts)),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			notify(attempt, err, wait)
		}))
	}

	res, err := backoff.Retry(ctx, operation, opts...)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return res, permanent.Unwrap()
		}
		return res, err
	}
	return res, nil
}
