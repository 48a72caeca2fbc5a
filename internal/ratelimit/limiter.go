package ratelimit

import "context"

// RateLimiter controls request throughput per subject key. The order-load
// handler passes the caller's bearer token as the key.
type RateLimiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
	Wait(ctx context.Context, subject string) error
}
