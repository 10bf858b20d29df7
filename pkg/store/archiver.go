// Package store persists terminal consensus and emergency records for
// offline review. The engines keep live state in memory; the archiver
// receives committed outcomes through event hooks and is never on the
// decision path.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
)

// ParameterChange records a governance update to the consensus parameters.
type ParameterChange struct {
	Actor     string
	Params    contracts.ConsensusParameters
	ChangedAt time.Time
}

// Archiver persists committed records.
type Archiver interface {
	ArchiveProposal(ctx context.Context, p contracts.ProposalState) error
	ArchiveReport(ctx context.Context, r contracts.CriticalReport) error
	ArchivePause(ctx context.Context, e contracts.PauseEpisode) error
	ArchiveParameterChange(ctx context.Context, c ParameterChange) error
	Close() error
}

// MemoryArchiver keeps archived records in memory. Used in tests and
// deployments without a database.
type MemoryArchiver struct {
	mu        sync.Mutex
	Proposals []contracts.ProposalState
	Reports   []contracts.CriticalReport
	Pauses    []contracts.PauseEpisode
	Changes   []ParameterChange
}

func NewMemoryArchiver() *MemoryArchiver {
	return &MemoryArchiver{}
}

func (a *MemoryArchiver) ArchiveProposal(ctx context.Context, p contracts.ProposalState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Proposals = append(a.Proposals, p)
	return nil
}

func (a *MemoryArchiver) ArchiveReport(ctx context.Context, r contracts.CriticalReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Reports = append(a.Reports, r)
	return nil
}

func (a *MemoryArchiver) ArchivePause(ctx context.Context, e contracts.PauseEpisode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Pauses = append(a.Pauses, e)
	return nil
}

func (a *MemoryArchiver) ArchiveParameterChange(ctx context.Context, c ParameterChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Changes = append(a.Changes, c)
	return nil
}

func (a *MemoryArchiver) Close() error { return nil }
