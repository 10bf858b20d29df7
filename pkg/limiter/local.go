package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// LocalLimiter is an in-process fallback used when no Redis instance is
// configured. Allowances are per replica.
type LocalLimiter struct {
	mu      sync.Mutex
	policy  Policy
	buckets map[string]*rate.Limiter
}

func NewLocalLimiter(policy Policy) *LocalLimiter {
	return &LocalLimiter{
		policy:  policy,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(float64(l.policy.RPM)/60.0), l.policy.Burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow(), nil
}

// Unlimited never rejects. Used in tests and single-tenant deployments.
type Unlimited struct{}

func (Unlimited) Allow(ctx context.Context, key string) (bool, error) { return true, nil }
