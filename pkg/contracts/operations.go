// Package contracts defines the shared types of the warden core — the
// authority operation taxonomy, proposal and emergency snapshots, the
// boundary sink interfaces, and the error taxonomy.
//
// Engines exchange these types but never each other's internals: the
// consensus engine exclusively owns proposal state, the emergency
// monitor exclusively owns report state, and everything crossing a
// package boundary is a copy.
package contracts

import (
	"encoding/json"
	"time"
)

// OperationType identifies one of the four authority-requiring
// watchdog operations. Anything else never enters the voting path.
type OperationType string

// OperationType constants.
const (
	OpStatusChange      OperationType = "STATUS_CHANGE"
	OpDeregistration    OperationType = "DEREGISTRATION"
	OpDefaultFlag       OperationType = "DEFAULT_FLAG"
	OpForceIntervention OperationType = "FORCE_INTERVENTION"
)

// Valid reports whether t is a recognized authority operation type.
func (t OperationType) Valid() bool {
	switch t {
	case OpStatusChange, OpDeregistration, OpDefaultFlag, OpForceIntervention:
		return true
	}
	return false
}

// RequestClass is the router's classification of an inbound request.
// The dispatch table over these classes is the single source of truth
// for which path an operation takes.
type RequestClass string

// RequestClass constants.
const (
	ClassDataSubmission    RequestClass = "DATA_SUBMISSION"
	ClassProofCarrying     RequestClass = "PROOF_CARRYING"
	ClassAuthorityDecision RequestClass = "AUTHORITY_DECISION"
	ClassCriticalReport    RequestClass = "CRITICAL_REPORT"
)

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

// ProposalStatus constants. Executed and Expired are terminal.
const (
	ProposalVoting   ProposalStatus = "VOTING"
	ProposalExecuted ProposalStatus = "EXECUTED"
	ProposalExpired  ProposalStatus = "EXPIRED"
)

// ConsensusParameters governs the M-of-N voting rule.
// Mutated only through a bounded update; registry changes never touch
// it implicitly — the operator reconciles TotalWatchdogs explicitly.
type ConsensusParameters struct {
	RequiredVotes  int           `json:"required_votes"`  // M
	TotalWatchdogs int           `json:"total_watchdogs"` // N
	VotingPeriod   time.Duration `json:"voting_period"`
}

// Parameter bounds. A proposal captures RequiredVotes and
// VotingPeriod at creation; updates are never retroactive.
const (
	MinRequiredVotes = 2
	MaxRequiredVotes = 7
	MinVotingPeriod  = time.Hour
	MaxVotingPeriod  = 24 * time.Hour
)

// Validate checks the parameter invariants: 2 <= M <= 7, M <= N,
// 1h <= period <= 24h.
func (p ConsensusParameters) Validate() error {
	if p.RequiredVotes < MinRequiredVotes || p.RequiredVotes > MaxRequiredVotes {
		return ErrOutOfBounds
	}
	if p.RequiredVotes > p.TotalWatchdogs {
		return ErrOutOfBounds
	}
	if p.VotingPeriod < MinVotingPeriod || p.VotingPeriod > MaxVotingPeriod {
		return ErrOutOfBounds
	}
	return nil
}

// ProposalState is a read-only snapshot of a proposal. Voters is a
// copy; mutating it does not touch engine state.
type ProposalState struct {
	ID            string          `json:"id"`
	Operation     OperationType   `json:"operation"`
	Target        string          `json:"target"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Proposer      string          `json:"proposer"`
	Voters        []string        `json:"voters"`
	RequiredVotes int             `json:"required_votes"` // captured at creation
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	ExecutedAt    *time.Time      `json:"executed_at,omitempty"`
	Status        ProposalStatus  `json:"status"`
}
