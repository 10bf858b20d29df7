// Package limiter provides per-caller request rate limiting for the
// watchdog API surface.
package limiter

import "context"

// Policy describes a caller's rate allowance.
type Policy struct {
	RPM   int // sustained requests per minute
	Burst int // bucket capacity
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
