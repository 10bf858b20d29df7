// Package consensus implements the M-of-N voting engine for authority
// operations. A proposal is created by any active watchdog, collects
// at most one vote per watchdog, and executes the instant its vote set
// first reaches the required-votes threshold — execution and the vote
// that triggered it are one atomic step, never separable events.
// There is no finalize pass and no window where a proposal sits
// executable-but-unexecuted.
package consensus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/warden/pkg/auth"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/registry"
)

// Event describes a committed consensus state change, delivered to the
// event hook after the mutation (and any sink call) has succeeded.
type Event struct {
	Action   string // "propose", "vote", "execute", "expire", "params_update"
	Proposal contracts.ProposalState
	Params   *contracts.ConsensusParameters // set for params_update
	Actor    string
	At       time.Time
}

// EventHook observes committed events. Hooks run inside the engine's
// critical section and must not call back into the engine.
type EventHook func(Event)

// proposal is the engine-owned mutable record. Snapshots leave
// the engine as contracts.ProposalState copies only.
type proposal struct {
	id            string
	operation     contracts.OperationType
	target        string
	payload       json.RawMessage
	proposer      string
	votes         map[string]time.Time
	requiredVotes int // captured at creation, immune to later updates
	createdAt     time.Time
	expiresAt     time.Time
	executedAt    *time.Time
	expired       bool
}

// Engine is the consensus state machine. It exclusively owns proposal
// state; the registry is a read-only cross-reference for voter
// eligibility.
type Engine struct {
	mu        sync.Mutex
	view      registry.ActivityView
	params    contracts.ConsensusParameters
	proposals map[string]*proposal
	sink      contracts.ExecutionSink
	clock     func() time.Time
	hooks     []EventHook
	logger    *slog.Logger
}

// NewEngine creates a consensus engine. Initial parameters must
// already satisfy the bounds; construction fails otherwise so a
// misconfigured deployment cannot start voting.
func NewEngine(view registry.ActivityView, params contracts.ConsensusParameters, sink contracts.ExecutionSink) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("initial consensus parameters: %w", err)
	}
	return &Engine{
		view:      view,
		params:    params,
		proposals: make(map[string]*proposal),
		sink:      sink,
		clock:     time.Now,
		logger:    slog.Default().With("component", "consensus"),
	}, nil
}

// WithClock overrides the clock for deterministic testing.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// OnEvent registers a hook for committed events.
func (e *Engine) OnEvent(h EventHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, h)
}

// Propose creates a new proposal in voting state and returns its ID.
// The proposal captures the current required-votes threshold and
// voting period; later parameter updates never touch it.
func (e *Engine) Propose(ctx context.Context, op contracts.OperationType, target string, payload json.RawMessage, proposer string) (string, error) {
	_ = ctx
	if !op.Valid() {
		return "", fmt.Errorf("operation %q: %w", op, contracts.ErrInvalidOperationType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.view.IsActive(proposer) {
		return "", fmt.Errorf("proposer %q: %w", proposer, contracts.ErrUnauthorized)
	}

	now := e.clock()
	// Operation and target make the ID self-describing in audit
	// trails; the uuid nonce prevents replay collisions.
	id := fmt.Sprintf("%s:%s:%s", op, target, uuid.NewString())

	p := &proposal{
		id:            id,
		operation:     op,
		target:        target,
		payload:       payload,
		proposer:      proposer,
		votes:         make(map[string]time.Time),
		requiredVotes: e.params.RequiredVotes,
		createdAt:     now,
		expiresAt:     now.Add(e.params.VotingPeriod),
	}
	e.proposals[id] = p

	e.logger.Info("proposal created",
		"proposal_id", id, "operation", string(op), "target", target, "proposer", proposer)
	e.emit(Event{Action: "propose", Proposal: e.snapshot(p), Actor: proposer, At: now})
	return id, nil
}

// Vote adds voter to the proposal's vote set. If the set first reaches
// the captured threshold, the proposal transitions to Executed and the
// execution sink is invoked synchronously within the same step; a sink
// failure rolls the vote back and leaves the proposal votable until
// expiry. Expiry is checked lazily here — an under-threshold proposal
// past its deadline becomes permanently Expired on this interaction.
func (e *Engine) Vote(ctx context.Context, proposalID, voter string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.view.IsActive(voter) {
		return fmt.Errorf("voter %q: %w", voter, contracts.ErrUnauthorized)
	}

	p, ok := e.proposals[proposalID]
	if !ok {
		return fmt.Errorf("proposal %q: %w", proposalID, contracts.ErrNotFound)
	}

	now := e.clock()
	if p.executedAt != nil {
		return fmt.Errorf("proposal %q: %w", proposalID, contracts.ErrAlreadyExecuted)
	}
	if e.lazyExpire(p, now) {
		return fmt.Errorf("proposal %q: %w", proposalID, contracts.ErrExpired)
	}
	if _, voted := p.votes[voter]; voted {
		return fmt.Errorf("voter %q on proposal %q: %w", voter, proposalID, contracts.ErrDuplicateVote)
	}

	p.votes[voter] = now

	if len(p.votes) >= p.requiredVotes {
		// Threshold crossing: mutation and sink call are one
		// all-or-nothing step.
		if err := e.sink.OnAuthorityOperationExecuted(ctx, p.operation, p.target, p.payload); err != nil {
			delete(p.votes, voter)
			e.logger.Error("execution sink rejected operation; vote rolled back",
				"proposal_id", proposalID, "voter", voter, "error", err)
			return fmt.Errorf("execute proposal %q: %w", proposalID, err)
		}
		executedAt := now
		p.executedAt = &executedAt
		e.logger.Info("proposal executed",
			"proposal_id", proposalID, "operation", string(p.operation),
			"target", p.target, "votes", len(p.votes))
		e.emit(Event{Action: "vote", Proposal: e.snapshot(p), Actor: voter, At: now})
		e.emit(Event{Action: "execute", Proposal: e.snapshot(p), Actor: voter, At: now})
		return nil
	}

	e.emit(Event{Action: "vote", Proposal: e.snapshot(p), Actor: voter, At: now})
	return nil
}

// UpdateParameters replaces the consensus parameters. The caller must
// hold the governance role. Bounds are enforced against the new
// values; takes effect only for proposals created afterwards.
func (e *Engine) UpdateParameters(ctx context.Context, params contracts.ConsensusParameters, caller auth.Principal) error {
	_ = ctx
	if caller == nil || !caller.HasRole(auth.RoleGovernance) {
		return fmt.Errorf("parameter update: %w", contracts.ErrUnauthorized)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("parameter update: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.params = params
	e.logger.Info("consensus parameters updated",
		"required_votes", params.RequiredVotes,
		"total_watchdogs", params.TotalWatchdogs,
		"voting_period", params.VotingPeriod.String(),
		"caller", caller.ID())
	e.emit(Event{Action: "params_update", Params: &params, Actor: caller.ID(), At: e.clock()})
	return nil
}

// Parameters returns the current consensus parameters.
func (e *Engine) Parameters() contracts.ConsensusParameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// GetProposal returns a read-only snapshot, or ErrNotFound for an
// unknown ID. Reading past the deadline marks an under-threshold
// proposal Expired, consistent with lazy expiry on interaction.
func (e *Engine) GetProposal(proposalID string) (contracts.ProposalState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals[proposalID]
	if !ok {
		return contracts.ProposalState{}, fmt.Errorf("proposal %q: %w", proposalID, contracts.ErrNotFound)
	}
	e.lazyExpire(p, e.clock())
	return e.snapshot(p), nil
}

// lazyExpire transitions an under-threshold proposal past its deadline
// to Expired. Expired is terminal: the flag is set once and the
// expire event is emitted exactly once. Must be called with mu held.
func (e *Engine) lazyExpire(p *proposal, now time.Time) bool {
	if p.expired {
		return true
	}
	if p.executedAt == nil && now.After(p.expiresAt) {
		p.expired = true
		e.logger.Info("proposal expired",
			"proposal_id", p.id, "votes", len(p.votes), "required", p.requiredVotes)
		e.emit(Event{Action: "expire", Proposal: e.snapshot(p), At: now})
		return true
	}
	return false
}

// snapshot copies a proposal into its boundary form. Must be called
// with mu held.
func (e *Engine) snapshot(p *proposal) contracts.ProposalState {
	voters := make([]string, 0, len(p.votes))
	for v := range p.votes {
		voters = append(voters, v)
	}
	sort.Strings(voters)

	status := contracts.ProposalVoting
	switch {
	case p.executedAt != nil:
		status = contracts.ProposalExecuted
	case p.expired:
		status = contracts.ProposalExpired
	}

	return contracts.ProposalState{
		ID:            p.id,
		Operation:     p.operation,
		Target:        p.target,
		Payload:       p.payload,
		Proposer:      p.proposer,
		Voters:        voters,
		RequiredVotes: p.requiredVotes,
		CreatedAt:     p.createdAt,
		ExpiresAt:     p.expiresAt,
		ExecutedAt:    p.executedAt,
		Status:        status,
	}
}

// emit delivers an event to all hooks. Must be called with mu held.
func (e *Engine) emit(ev Event) {
	for _, h := range e.hooks {
		h(ev)
	}
}
