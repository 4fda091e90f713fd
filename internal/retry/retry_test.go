package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ExhaustsAttemptsWithNonDecreasingDelays(t *testing.T) {
	var delays []time.Duration
	cfg := Config{
		MaxAttempts:  4,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     25 * time.Millisecond,
		Multiplier:   2.0,
		IsRetryable:  func(error) bool { return true },
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, attempts)

	// One sleep per retry, exponential and capped.
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		25 * time.Millisecond,
	}, delays)
	for i := 1; i < len(delays); i++ {
		assert.GreaterOrEqual(t, delays[i], delays[i-1])
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	permanent := errors.New("permanent")
	attempts := 0
	cfg := Config{
		MaxAttempts: 5,
		IsRetryable: func(err error) bool { return !errors.Is(err, permanent) },
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}

	err := Do(context.Background(), cfg, func() error {
		attempts++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDo_RecoversMidway(t *testing.T) {
	attempts := 0
	cfg := Config{
		MaxAttempts: 5,
		IsRetryable: func(error) bool { return true },
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}

	err := Do(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Config{MaxAttempts: 3}, func() error {
		attempts++
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}
