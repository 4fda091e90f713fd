// Package retry provides bounded retry with exponential backoff for
// transient dispatch failures.
package retry

import (
	"context"
	"math"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Multiplier grows the delay between attempts.
	Multiplier float64
	// IsRetryable decides whether an error is worth another attempt.
	IsRetryable func(error) bool
	// Sleep is swappable for tests; defaults to a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (c *Config) fillDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 250 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier < 1.0 {
		c.Multiplier = 2.0
	}
	if c.IsRetryable == nil {
		c.IsRetryable = func(error) bool { return false }
	}
	if c.Sleep == nil {
		c.Sleep = sleepCtx
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn up to MaxAttempts times, waiting with exponential, capped,
// monotonically non-decreasing delays between attempts. Non-retryable
// errors are returned immediately. The error of the last attempt is
// returned when attempts are exhausted.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	cfg.fillDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !cfg.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt < cfg.MaxAttempts {
			delay := time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1)))
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			if err := cfg.Sleep(ctx, delay); err != nil {
				return lastErr
			}
		}
	}

	return lastErr
}
