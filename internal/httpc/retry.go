package httpc

import (
	"context"
	"math/rand"
	"time"
)

// Retry defaults, matching the EDGAR access layer's historical tuning.
const (
	DefaultMaxAttempts  = 6
	DefaultRetryTimeout = 40 * time.Second
	DefaultInitialWait  = 100 * time.Millisecond
)

// RetryPolicy retries a single attempt func on transient errors with
// exponential backoff, bounded both by attempt count and by overall elapsed
// time. Zero values fall back to the defaults above. A policy carries no
// state between calls.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
	InitialWait time.Duration
	Clock       func() time.Time
}

// Do invokes attempt until it succeeds, a non-transient error occurs, the
// attempt budget is spent, or the overall timeout elapses. On exhaustion the
// last transient error is returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, attempt func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultRetryTimeout
	}
	initialWait := p.InitialWait
	if initialWait <= 0 {
		initialWait = DefaultInitialWait
	}

	deadline := p.now().Add(timeout)

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := backoffWait(initialWait, i)
			if remaining := deadline.Sub(p.now()); wait > remaining {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		lastErr = err

		if p.now().After(deadline) {
			break
		}
	}
	return lastErr
}

// backoffWait doubles the wait each attempt and adds ±25% jitter.
func backoffWait(initial time.Duration, attempt int) time.Duration {
	base := initial << uint(attempt-1)
	jitter := float64(base) * 0.25 * (rand.Float64()*2 - 1) //nolint:gosec
	wait := time.Duration(float64(base) + jitter)
	if wait < 0 {
		wait = initial
	}
	return wait
}

func (p RetryPolicy) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}
