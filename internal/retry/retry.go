// Package retry provides bounded retry with exponential backoff for
// network-facing operations.
package retry

import (
	"context"
	"time"
)

// Policy controls how an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure; it doubles after
	// each subsequent failure (base, 2*base, 4*base, ...).
	BaseDelay time.Duration
	// sleep is injectable for tests; nil means time.Sleep with context
	// cancellation.
	sleep func(context.Context, time.Duration) error
}

// DefaultPolicy matches the engine-wide default: 3 attempts starting at 1s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second}
}

// WithSleep returns a copy of the policy using the given sleep function.
// Intended for tests that should not block on real backoff delays.
func (p Policy) WithSleep(sleep func(context.Context, time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Delay returns the backoff before retry number attempt (counted from 1).
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt-1)
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do invokes op until it succeeds or the policy is exhausted. The last
// failure is returned to the caller; nothing is swallowed. Context
// cancellation aborts the backoff wait and returns the context error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}
		if err := p.wait(ctx, p.Delay(attempt)); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

// Void runs an operation with no result value under the policy.
func Void(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
