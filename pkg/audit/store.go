// Package audit implements the append-only authority audit trail:
// every committed registry, consensus, and emergency state change
// lands here as an immutable hash-chained entry. Payload hashes use
// RFC 8785 canonical JSON so they are independent of map key order.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

var (
	// ErrEntryNotFound is returned for unknown entry IDs.
	ErrEntryNotFound = errors.New("audit entry not found")
	// ErrChainBroken is returned by Verify when the hash chain does
	// not replay.
	ErrChainBroken = errors.New("audit hash chain is broken")
)

// EntryType categorizes audit entries.
type EntryType string

// EntryType constants.
const (
	EntryRegistry  EntryType = "registry"
	EntryConsensus EntryType = "consensus"
	EntryEmergency EntryType = "emergency"
	EntryConfig    EntryType = "config"
)

// Entry is a single immutable audit record.
type Entry struct {
	EntryID      string          `json:"entry_id"`
	Sequence     uint64          `json:"sequence"`
	Timestamp    time.Time       `json:"timestamp"`
	EntryType    EntryType       `json:"entry_type"`
	Subject      string          `json:"subject"`
	Action       string          `json:"action"`
	Actor        string          `json:"actor,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	PayloadHash  string          `json:"payload_hash"`
	PreviousHash string          `json:"previous_hash"`
	EntryHash    string          `json:"entry_hash"`
}

// EntryHandler is called for each appended entry.
type EntryHandler func(entry *Entry)

// Store is the append-only, hash-chained audit store.
type Store struct {
	mu        sync.RWMutex
	entries   []*Entry
	entryByID map[string]*Entry
	sequence  uint64
	chainHead string
	handlers  []EntryHandler
	clock     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entryByID: make(map[string]*Entry),
		chainHead: "genesis",
		clock:     time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

// OnAppend registers a handler notified of new entries.
func (s *Store) OnAppend(h EntryHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Append adds an entry. The payload is serialized and hashed
// canonically; the entry hash chains on the previous head.
func (s *Store) Append(entryType EntryType, subject, action, actor string, payload any) (*Entry, error) {
	payloadBytes, payloadHash, err := canonicalPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("audit payload for %s/%s: %w", entryType, action, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence++
	entry := &Entry{
		EntryID:      uuid.New().String(),
		Sequence:     s.sequence,
		Timestamp:    s.clock().UTC(),
		EntryType:    entryType,
		Subject:      subject,
		Action:       action,
		Actor:        actor,
		Payload:      payloadBytes,
		PayloadHash:  payloadHash,
		PreviousHash: s.chainHead,
	}
	entry.EntryHash = entryHash(entry)
	s.chainHead = entry.EntryHash

	s.entries = append(s.entries, entry)
	s.entryByID[entry.EntryID] = entry

	for _, h := range s.handlers {
		h(entry)
	}
	return entry, nil
}

// Get retrieves an entry by ID.
func (s *Store) Get(entryID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entryByID[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// List returns all entries in append order.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Entry{}, s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Verify replays the hash chain and returns ErrChainBroken on the
// first entry whose links do not hold.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prev := "genesis"
	for i, e := range s.entries {
		if e.PreviousHash != prev {
			return fmt.Errorf("entry %d (%s): %w", i, e.EntryID, ErrChainBroken)
		}
		if entryHash(e) != e.EntryHash {
			return fmt.Errorf("entry %d (%s): %w", i, e.EntryID, ErrChainBroken)
		}
		prev = e.EntryHash
	}
	return nil
}

// canonicalPayload serializes payload and hashes its RFC 8785 form.
func canonicalPayload(payload any) (json.RawMessage, string, error) {
	if payload == nil {
		return nil, computeHash(nil), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, "", err
	}
	return raw, computeHash(canonical), nil
}

func computeHash(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// entryHash hashes the chain-relevant fields of an entry.
func entryHash(e *Entry) string {
	hashable := struct {
		Sequence     uint64    `json:"sequence"`
		Timestamp    time.Time `json:"timestamp"`
		EntryType    EntryType `json:"entry_type"`
		Subject      string    `json:"subject"`
		Action       string    `json:"action"`
		Actor        string    `json:"actor"`
		PayloadHash  string    `json:"payload_hash"`
		PreviousHash string    `json:"previous_hash"`
	}{e.Sequence, e.Timestamp, e.EntryType, e.Subject, e.Action, e.Actor, e.PayloadHash, e.PreviousHash}

	data, _ := json.Marshal(hashable)
	return computeHash(data)
}
