package auth

import (
	"context"
	"testing"
)

func TestPrincipalRoundTrip(t *testing.T) {
	p := &BasePrincipal{PrincipalID: "wd-1", PrincipalRoles: []string{RoleManager}}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := GetPrincipal(ctx)
	if !ok {
		t.Fatal("expected principal in context")
	}
	if got.ID() != "wd-1" {
		t.Errorf("ID = %q, want wd-1", got.ID())
	}
	if !got.HasRole(RoleManager) {
		t.Error("expected manager role")
	}
}

func TestGetPrincipalAbsent(t *testing.T) {
	if p, ok := GetPrincipal(context.Background()); ok {
		t.Fatalf("expected no principal, got %v", p)
	}
}

func TestHasRole(t *testing.T) {
	p := &BasePrincipal{PrincipalID: "gov-1", PrincipalRoles: []string{RoleGovernance}}
	if !p.HasRole(RoleGovernance) {
		t.Error("expected governance role")
	}
	if p.HasRole(RoleManager) {
		t.Error("unexpected manager role")
	}
	if p.HasRole("") {
		t.Error("empty role must not match")
	}
}
