package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between consecutive operations, such
// as browser navigations to the same host.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a Throttle with the given minimum interval in milliseconds.
// The first call to Wait never blocks.
func NewThrottle(intervalMs int) *Throttle {
	limit := rate.Inf
	if intervalMs > 0 {
		limit = rate.Every(time.Duration(intervalMs) * time.Millisecond)
	}
	return &Throttle{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the configured interval has passed since the previous
// Wait returned, or until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
