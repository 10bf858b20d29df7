package identity

import (
	"testing"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	ks, err := NewInMemoryKeySet()
	if err != nil {
		t.Fatalf("NewInMemoryKeySet: %v", err)
	}
	tm := NewTokenManager(ks)

	tok, err := tm.GenerateToken("mgr-1", []string{auth.RoleManager}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	p, err := tm.PrincipalFromToken(tok)
	if err != nil {
		t.Fatalf("PrincipalFromToken: %v", err)
	}
	if p.ID() != "mgr-1" {
		t.Errorf("ID = %q, want mgr-1", p.ID())
	}
	if !p.HasRole(auth.RoleManager) {
		t.Error("expected manager role")
	}
	if p.HasRole(auth.RoleGovernance) {
		t.Error("unexpected governance role")
	}
}

func TestTokenExpired(t *testing.T) {
	ks, err := NewInMemoryKeySet()
	if err != nil {
		t.Fatalf("NewInMemoryKeySet: %v", err)
	}
	tm := NewTokenManager(ks)

	tok, err := tm.GenerateToken("gov-1", []string{auth.RoleGovernance}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := tm.ValidateToken(tok); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTokenSurvivesRotation(t *testing.T) {
	ks, err := NewInMemoryKeySet()
	if err != nil {
		t.Fatalf("NewInMemoryKeySet: %v", err)
	}
	tm := NewTokenManager(ks)

	tok, err := tm.GenerateToken("wd-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if err := ks.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := tm.ValidateToken(tok); err != nil {
		t.Fatalf("token signed before rotation should still verify: %v", err)
	}
}

func TestRetiredKeyAgesOut(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ks, err := NewInMemoryKeySet()
	if err != nil {
		t.Fatalf("NewInMemoryKeySet: %v", err)
	}
	ks.WithClock(func() time.Time { return now })
	if err := ks.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	tm := NewTokenManager(ks)

	tok, err := tm.GenerateToken("wd-1", nil, 48*time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// One rotation inside the retention window keeps the old key.
	now = now.Add(time.Hour)
	if err := ks.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := tm.ValidateToken(tok); err != nil {
		t.Fatalf("key inside retention window should verify: %v", err)
	}

	// After the retention window the signing key is evicted.
	now = now.Add(defaultRetention + time.Hour)
	if err := ks.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if _, err := tm.ValidateToken(tok); err == nil {
		t.Fatal("expected validation failure once signing key is evicted")
	}
}

func TestTokenRejectedByForeignKeySet(t *testing.T) {
	ks1, _ := NewInMemoryKeySet()
	ks2, _ := NewInMemoryKeySet()

	tok, err := NewTokenManager(ks1).GenerateToken("wd-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager(ks2).ValidateToken(tok); err == nil {
		t.Fatal("expected validation failure with foreign key set")
	}
}
