package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAppendAndChain(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore().WithClock(func() time.Time { return now })

	e1, err := s.Append(EntryRegistry, "wd-a", "register", "ops-1", map[string]any{"id": "wd-a"})
	if err != nil {
		t.Fatal(err)
	}
	e2, err := s.Append(EntryConsensus, "Q1", "propose", "wd-a", map[string]any{"operation": "STATUS_CHANGE"})
	if err != nil {
		t.Fatal(err)
	}

	if e1.Sequence != 1 || e2.Sequence != 2 {
		t.Fatalf("unexpected sequence %d, %d", e1.Sequence, e2.Sequence)
	}
	if e1.PreviousHash != "genesis" {
		t.Fatalf("first entry must chain on genesis, got %s", e1.PreviousHash)
	}
	if e2.PreviousHash != e1.EntryHash {
		t.Fatal("second entry must chain on first")
	}
	if err := s.Verify(); err != nil {
		t.Fatalf("chain must verify: %v", err)
	}
}

func TestPayloadHashIsKeyOrderIndependent(t *testing.T) {
	s := NewStore()

	e1, err := s.Append(EntryEmergency, "W7", "report", "wd-r1",
		json.RawMessage(`{"b":2,"a":1}`))
	if err != nil {
		t.Fatal(err)
	}
	e2, err := s.Append(EntryEmergency, "W7", "report", "wd-r1",
		json.RawMessage(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if e1.PayloadHash != e2.PayloadHash {
		t.Fatalf("canonical payload hashes must match: %s vs %s", e1.PayloadHash, e2.PayloadHash)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	s := NewStore()
	if _, err := s.Append(EntryRegistry, "wd-a", "register", "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(EntryRegistry, "wd-b", "register", "", nil); err != nil {
		t.Fatal(err)
	}

	s.entries[0].Action = "deactivate"
	if err := s.Verify(); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("expected ErrChainBroken, got %v", err)
	}
}

func TestGet(t *testing.T) {
	s := NewStore()
	e, err := s.Append(EntryConfig, "consensus", "params_update", "ops-1", nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(e.EntryID)
	if err != nil || got.EntryID != e.EntryID {
		t.Fatalf("expected entry back, got %v, %v", got, err)
	}
	if _, err := s.Get("missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStore()
	s.OnAppend(NewLoggerWithWriter(&buf).Handle)

	if _, err := s.Append(EntryRegistry, "wd-a", "register", "", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(EntryRegistry, "wd-b", "register", "", nil); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var entry Entry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if entry.Subject != "wd-a" {
		t.Fatalf("unexpected subject %s", entry.Subject)
	}
}
