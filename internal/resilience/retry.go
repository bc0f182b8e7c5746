// Package resilience retries calls to remote services that fail transiently.
package resilience

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// Policy controls how often and how patiently a call is retried.
type Policy struct {
	// Attempts is the total number of tries, the first included. Default: 3.
	Attempts int

	// Delay is the wait before the first retry. Default: 2s.
	Delay time.Duration

	// MaxDelay caps the wait between tries. Default: 30s.
	MaxDelay time.Duration

	// Backoff multiplies the wait after each retry. 1 keeps it constant.
	// Default: 2.
	Backoff float64

	// Retryable decides whether an error is worth another try. Nil means
	// IsTransient.
	Retryable func(err error) bool

	// OnRetry runs before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error)
}

// NewPolicy builds a Policy from configured attempt and delay values,
// keeping the defaults for anything non-positive.
func NewPolicy(attempts, delayMs int) Policy {
	p := Policy{}
	if attempts > 0 {
		p.Attempts = attempts
	}
	if delayMs > 0 {
		p.Delay = time.Duration(delayMs) * time.Millisecond
	}
	return p.withDefaults()
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Delay <= 0 {
		p.Delay = 2 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Backoff < 1 {
		p.Backoff = 2
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// wait returns the delay after the given zero-based failed attempt.
func (p Policy) wait(attempt int) time.Duration {
	d := float64(p.Delay) * math.Pow(p.Backoff, float64(attempt))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts
// the policy, or ctx is done. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Value(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Value is Do for calls that produce a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil || !p.Retryable(err) || attempt >= p.Attempts-1 {
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.wait(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// LogRetries returns an OnRetry callback that logs each retry with the
// given fields.
func LogRetries(operation string, fields ...zap.Field) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying "+operation,
			append([]zap.Field{zap.Int("attempt", attempt), zap.Error(err)}, fields...)...,
		)
	}
}
