package source

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"contact-monitor/internal/domain/ports"
)

// RetryPolicy bounds how often a fetch step is retried. Only errors marked
// transient (challenge pages, throttling, 5xx, transport errors) are retried.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Exponential bool
}

// DefaultRetryPolicy mirrors the monitor defaults: three attempts, five
// seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.Exponential {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.Delay
		b.MaxInterval = 8 * p.Delay
		b.RandomizationFactor = 0.2
		return b
	}
	return backoff.NewConstantBackOff(p.Delay)
}

func (p RetryPolicy) attempts() uint {
	if p.MaxAttempts < 1 {
		return 1
	}
	return uint(p.MaxAttempts)
}

// retry runs op until it succeeds, fails permanently or the policy gives up.
func retry[T any](ctx context.Context, p RetryPolicy, logger ports.Logger, step string, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx,
		func() (T, error) {
			attempt++
			v, err := op(ctx)
			if err == nil {
				return v, nil
			}
			if !isTransient(err) {
				return v, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(p.attempts()),
		backoff.WithNotify(func(err error, next time.Duration) {
			if logger != nil {
				logger.Warn(ctx, "fetch attempt failed, retrying",
					"step", step, "attempt", attempt, "next", next, "error", err)
			}
		}),
	)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// transient marks err as worth retrying.
func transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t *transientError
	return errors.As(err, &t)
}
