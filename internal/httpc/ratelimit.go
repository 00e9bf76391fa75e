package httpc

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultPollInterval is how often a blocked Acquire re-checks admission.
const DefaultPollInterval = 100 * time.Millisecond

// RequestRate caps outbound requests at MaxRequests per trailing Window.
type RequestRate struct {
	MaxRequests int
	Window      time.Duration
}

// NewRequestRate validates and builds a RequestRate.
func NewRequestRate(maxRequests int, window time.Duration) (RequestRate, error) {
	if maxRequests <= 0 {
		return RequestRate{}, errors.New("max requests must be a positive integer")
	}
	if window <= 0 {
		return RequestRate{}, errors.New("time window must be positive")
	}
	return RequestRate{MaxRequests: maxRequests, Window: window}, nil
}

// PerSecond is shorthand for a one-second window.
func PerSecond(maxRequests int) (RequestRate, error) {
	return NewRequestRate(maxRequests, time.Second)
}

// TicketSource grants admission tickets; one ticket permits one outbound
// call. Acquire blocks the calling goroutine until a ticket is granted or
// the context is cancelled.
type TicketSource interface {
	Acquire(ctx context.Context) error
}

// ThrottlerMetrics is an informational snapshot; it never affects admission.
type ThrottlerMetrics struct {
	TotalCalls   uint64  `json:"total_calls"`
	PeakCallRate float64 `json:"peak_call_rate"`
	MaxRequests  int     `json:"max_requests"`
	Window       string  `json:"window"`
}

// Throttler is a sliding-log rate limiter: it keeps the timestamps of the
// most recent admissions and admits a new call only while fewer than
// Rate.MaxRequests of them fall inside the trailing window. Safe for
// concurrent use; purge, check, and append happen under one lock.
type Throttler struct {
	Rate         RequestRate
	PollInterval time.Duration
	Clock        func() time.Time

	mu           sync.Mutex
	admissions   []time.Time
	totalCalls   uint64
	peakCallRate float64
}

// NewThrottler builds a Throttler for the given rate.
func NewThrottler(rate RequestRate) *Throttler {
	return &Throttler{Rate: rate}
}

// Admit performs a non-blocking admission check. It records the admission
// timestamp when it succeeds.
func (t *Throttler) Admit() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	cutoff := now.Add(-t.Rate.Window)

	// Drop timestamps that fell out of the window.
	keep := 0
	for keep < len(t.admissions) && !t.admissions[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		t.admissions = append(t.admissions[:0], t.admissions[keep:]...)
	}

	if len(t.admissions) >= t.Rate.MaxRequests {
		return false
	}

	t.admissions = append(t.admissions, now)
	t.totalCalls++
	if rate := float64(len(t.admissions)) / t.Rate.Window.Seconds(); rate > t.peakCallRate {
		t.peakCallRate = rate
	}
	return true
}

// Acquire blocks until Admit succeeds, polling at PollInterval. The wait
// suspends only the calling goroutine and aborts promptly on cancellation.
func (t *Throttler) Acquire(ctx context.Context) error {
	if t.Admit() {
		return nil
	}

	ticker := time.NewTicker(t.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.Admit() {
				return nil
			}
		}
	}
}

// Metrics returns a snapshot of the informational counters.
func (t *Throttler) Metrics() ThrottlerMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ThrottlerMetrics{
		TotalCalls:   t.totalCalls,
		PeakCallRate: t.peakCallRate,
		MaxRequests:  t.Rate.MaxRequests,
		Window:       t.Rate.Window.String(),
	}
}

func (t *Throttler) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

func (t *Throttler) pollInterval() time.Duration {
	if t.PollInterval > 0 {
		return t.PollInterval
	}
	return DefaultPollInterval
}
