// Package retry provides a bounded exponential backoff used while
// acquiring devices that may be briefly held by another process.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Backoff retries an operation with exponentially growing delays.
type Backoff struct {
	// InitialDelay is the delay before the first retry (default 100ms).
	InitialDelay time.Duration
	// MaxDelay caps the backoff duration (default 1s).
	MaxDelay time.Duration
	// Multiplier increases the delay each attempt (default 2.0).
	Multiplier float64
	// MaxAttempts is the total number of tries including the first.
	// Zero means a single attempt.
	MaxAttempts int
	// Jitter adds ±25% randomisation.
	Jitter bool
	// Retryable decides whether an error is worth another attempt.
	// Nil retries nothing.
	Retryable func(error) bool
}

// DeviceBackoff is the policy for opening a serial device.
func DeviceBackoff(retryable func(error) bool) *Backoff {
	return &Backoff{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		MaxAttempts:  4,
		Jitter:       true,
		Retryable:    retryable,
	}
}

// Do calls fn until it succeeds, fails with an error Retryable rejects,
// or the attempt budget or ctx runs out.  The attempt number passed to
// fn is 1-based.  A non-retryable error is returned unwrapped.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Second
	}
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if b.Retryable == nil || !b.Retryable(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempt, err)
		}

		wait := delay
		if b.Jitter {
			wait = addJitter(delay)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", err)
		case <-t.C:
		}

		delay = time.Duration(float64(delay) * multiplier)
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
