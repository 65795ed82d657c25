package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPollExhausted is returned by Poll when the attempt budget runs out before
// the condition reports done.
var ErrPollExhausted = errors.New("poll: attempts exhausted")

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do executes fn with exponential back-off retry logic. It gives up early when
// ctx is cancelled.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			r.Logger.Warn("retrying operation",
				"operation", operationName,
				"attempt", attempt,
				"max_attempts", r.MaxAttempts,
				"delay", delay,
				"error", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return fmt.Errorf("%s interrupted after %d attempts: %w", operationName, attempt, err)
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}

// Backoff describes a growing wait between polls.
type Backoff struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	MaxAttempts int
}

// Poll calls cond until it reports done, returns an error, ctx ends or the
// attempt budget is spent. The wait between calls starts at b.Initial and is
// multiplied by b.Multiplier each round, capped at b.Max.
func Poll(ctx context.Context, b Backoff, cond func(attempt int) (bool, error)) error {
	delay := b.Initial
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		done, err := cond(attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt == b.MaxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * b.Multiplier)
		if b.Max > 0 && delay > b.Max {
			delay = b.Max
		}
	}
	return ErrPollExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
