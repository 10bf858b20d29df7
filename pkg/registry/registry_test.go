package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
)

func TestRegisterAndActivity(t *testing.T) {
	r := New()

	if err := r.Register("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	if !r.IsActive("wd-alpha") {
		t.Fatal("expected wd-alpha active")
	}
	if r.IsActive("wd-ghost") {
		t.Fatal("unknown identity must not be active")
	}
	if got := r.ActiveCount(); got != 1 {
		t.Fatalf("expected 1 active, got %d", got)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	if err := r.Register("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	err := r.Register("wd-alpha")
	if !errors.Is(err, contracts.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	r := New()
	if err := r.Register("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	if err := r.Deactivate("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	if r.IsActive("wd-alpha") {
		t.Fatal("deactivated watchdog must not be active")
	}
	if got := r.ActiveCount(); got != 0 {
		t.Fatalf("expected 0 active, got %d", got)
	}

	// Tombstone, not deletion.
	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected tombstone retained, got %d records", len(snap))
	}
	if snap[0].DeactivatedAt == nil {
		t.Fatal("expected deactivation timestamp")
	}
}

func TestDeactivateErrors(t *testing.T) {
	r := New()

	if err := r.Deactivate("wd-missing"); !errors.Is(err, contracts.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered for absent id, got %v", err)
	}

	if err := r.Register("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	if err := r.Deactivate("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	// Deactivating twice surfaces the operator mistake.
	if err := r.Deactivate("wd-alpha"); !errors.Is(err, contracts.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered on double deactivate, got %v", err)
	}
}

func TestReactivation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New().WithClock(func() time.Time { return now })

	if err := r.Register("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	if err := r.Deactivate("wd-alpha"); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour)
	if err := r.Register("wd-alpha"); err != nil {
		t.Fatalf("re-registering a deactivated identity should succeed: %v", err)
	}
	if !r.IsActive("wd-alpha") {
		t.Fatal("expected reactivated watchdog active")
	}
	snap := r.Snapshot()
	if len(snap) != 1 || !snap[0].RegisteredAt.Equal(now) {
		t.Fatal("expected fresh registration timestamp")
	}
}

func TestEventHooks(t *testing.T) {
	r := New()

	var events []Event
	r.OnEvent(func(ev Event) { events = append(events, ev) })

	if err := r.Register("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	if err := r.Deactivate("wd-alpha"); err != nil {
		t.Fatal(err)
	}
	// Failed mutations must not emit.
	if err := r.Deactivate("wd-alpha"); err == nil {
		t.Fatal("expected double deactivate to fail")
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Action != "register" || !events[0].Watchdog.Active {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Action != "deactivate" || events[1].Watchdog.Active {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[1].Watchdog.ID != "wd-alpha" {
		t.Fatalf("expected event for wd-alpha, got %s", events[1].Watchdog.ID)
	}
}

func TestSnapshotOrdering(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := New().WithClock(func() time.Time { return now })

	if err := r.Register("wd-b"); err != nil {
		t.Fatal(err)
	}
	now = base.Add(time.Minute)
	if err := r.Register("wd-a"); err != nil {
		t.Fatal(err)
	}

	snap := r.Snapshot()
	if snap[0].ID != "wd-b" || snap[1].ID != "wd-a" {
		t.Fatalf("expected registration-time ordering, got %s, %s", snap[0].ID, snap[1].ID)
	}
}
