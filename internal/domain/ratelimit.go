package domain

import (
	"context"
	"time"
)

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets, never below one.
func (d RateLimitDecision) RetryAfter(now time.Time) int {
	seconds := int(d.ResetAt.Sub(now).Seconds())
	if d.ResetAt.Sub(now) > time.Duration(seconds)*time.Second {
		seconds++
	}
	if seconds < 1 {
		return 1
	}
	return seconds
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
