package limiter

import (
	"context"
	"testing"
)

func TestLocalLimiterBurst(t *testing.T) {
	l := NewLocalLimiter(Policy{RPM: 60, Burst: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "wd-1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d within burst should be allowed", i)
		}
	}
	ok, err := l.Allow(ctx, "wd-1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("request beyond burst should be rejected")
	}
}

func TestLocalLimiterKeysAreIndependent(t *testing.T) {
	l := NewLocalLimiter(Policy{RPM: 60, Burst: 1})
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "wd-1"); !ok {
		t.Fatal("first request for wd-1 should be allowed")
	}
	if ok, _ := l.Allow(ctx, "wd-1"); ok {
		t.Fatal("second request for wd-1 should be rejected")
	}
	if ok, _ := l.Allow(ctx, "wd-2"); !ok {
		t.Fatal("wd-2 has its own bucket")
	}
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "anyone")
		if err != nil || !ok {
			t.Fatalf("Unlimited rejected request %d", i)
		}
	}
}
