package port

import (
	"context"
	"time"
)

type RateLimitStore interface {
	// Increment bumps the hit counter for key in the current window and
	// returns the new count and the time left until the window resets
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
