package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"SynthForge/internal/domain"
)

// RetryPolicy bounds how collaborator calls are re-attempted. Only transient
// errors are retried; permanent errors fail the question immediately.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy mirrors the bounded exponential backoff used for
// collaborator calls: three attempts, 1s start, capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Second, MaxInterval: 10 * time.Second}
}

// withRetry runs fn, re-attempting transient failures with exponential
// backoff. fn must be side-effect free on failure: the store write is the
// last action inside a processor, so re-running the whole call is safe.
func withRetry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialInterval
	bo.MaxInterval = policy.MaxInterval

	attempts := policy.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	return backoff.RetryWithData(func() (T, error) {
		out, err := fn(ctx)
		if err != nil && !domain.IsTransient(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))
}
