package limiter

import (
	"context"
	"testing"
	"time"
)

// Requires a running Redis; skipped when none is reachable.
func TestRedisLimiterIntegration(t *testing.T) {
	lim := NewRedisLimiter("localhost:6379", "", 0, Policy{RPM: 60, Burst: 1})
	defer func() { _ = lim.Close() }()

	ctx := context.Background()
	if err := lim.client.Ping(ctx).Err(); err != nil {
		t.Skip("redis not available")
	}

	key := "wd-redis-test"

	allowed, err := lim.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !allowed {
		t.Error("expected fresh bucket to allow")
	}

	allowed, err = lim.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("expected burst of 1 to deny immediate retry")
	}

	// 60 RPM refills one token per second.
	time.Sleep(1100 * time.Millisecond)
	allowed, err = lim.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !allowed {
		t.Error("expected refill after a second")
	}
}

func TestRedisLimiterTTLFromPolicy(t *testing.T) {
	lim := NewRedisLimiter("localhost:6379", "", 0, Policy{RPM: 6, Burst: 30})
	defer func() { _ = lim.Close() }()

	// 30 tokens at 6 per minute take 300s to refill.
	if lim.ttl != 301 {
		t.Errorf("ttl = %d, want 301", lim.ttl)
	}

	lim2 := NewRedisLimiter("localhost:6379", "", 0, Policy{RPM: 120, Burst: 30})
	defer func() { _ = lim2.Close() }()
	if lim2.ttl != 60 {
		t.Errorf("ttl = %d, want floor of 60", lim2.ttl)
	}
}
