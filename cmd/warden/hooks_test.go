package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/audit"
	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/registry"
)

func TestRegistryMutationsAreAudited(t *testing.T) {
	trail := audit.NewStore()
	reg := registry.New()
	reg.OnEvent(auditRegistryHook(trail, slog.Default()))

	if err := reg.Register("wd-1"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Deactivate("wd-1"); err != nil {
		t.Fatal(err)
	}
	// A rejected mutation leaves no trace.
	if err := reg.Deactivate("wd-1"); err == nil {
		t.Fatal("expected double deactivate to fail")
	}

	entries := trail.List()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	first := entries[0]
	if first.EntryType != audit.EntryRegistry || first.Action != "register" || first.Subject != "wd-1" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if entries[1].Action != "deactivate" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if err := trail.Verify(); err != nil {
		t.Fatal(err)
	}
}

func TestParameterChangeAuditedAsConfig(t *testing.T) {
	trail := audit.NewStore()
	hook := auditConsensusHook(trail, slog.Default())

	hook(consensus.Event{
		Action: "params_update",
		Actor:  "gov-1",
		Params: &contracts.ConsensusParameters{
			RequiredVotes:  2,
			TotalWatchdogs: 3,
			VotingPeriod:   time.Hour,
		},
		At: time.Now(),
	})

	entries := trail.List()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.EntryType != audit.EntryConfig {
		t.Fatalf("expected config entry type, got %q", entry.EntryType)
	}
	if entry.Subject != "consensus" || entry.Actor != "gov-1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}
