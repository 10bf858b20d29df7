// Package router holds the fixed authority classification: the
// dispatch table deciding, per inbound operation, whether it passes
// through untouched, passes through after proof verification, routes
// to consensus, or routes to the emergency monitor. The table is
// exhaustive over the request classes and rejects anything
// unrecognized rather than defaulting to a path — adding a category
// means extending the match, never falling through.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/emergency"
	"github.com/Mindburn-Labs/warden/pkg/proof"
)

// Request is one inbound watchdog operation.
type Request struct {
	Class contracts.RequestClass `json:"class"`
	Actor string                 `json:"actor"`

	// Data submission / proof-carrying fields.
	Kind    string                `json:"kind,omitempty"` // e.g. "attestation", "wallet_registration"
	Payload json.RawMessage       `json:"payload,omitempty"`
	Proof   *proof.InclusionProof `json:"proof,omitempty"`
	Root    string                `json:"root,omitempty"`

	// Authority decision fields. A request with ProposalID votes on
	// an existing proposal; without one it proposes.
	Operation  contracts.OperationType `json:"operation,omitempty"`
	Target     string                  `json:"target,omitempty"`
	ProposalID string                  `json:"proposal_id,omitempty"`

	// Critical report field.
	Subject string `json:"subject,omitempty"`
}

// Result reports where a request was routed and, for new proposals,
// the proposal ID.
type Result struct {
	Class      contracts.RequestClass `json:"class"`
	ProposalID string                 `json:"proposal_id,omitempty"`
}

// Router composes the two engines and the external collaborator and
// is the only caller of their execute paths.
type Router struct {
	consensus    *consensus.Engine
	emergency    *emergency.Monitor
	collaborator contracts.Collaborator
	verifier     proof.Verifier
	schemas      map[contracts.OperationType]*jsonschema.Schema
	logger       *slog.Logger
}

// New builds a router. Schema compilation failures surface here so a
// bad deployment fails at startup, not on first use.
func New(eng *consensus.Engine, mon *emergency.Monitor, collab contracts.Collaborator, verifier proof.Verifier) (*Router, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	if verifier == nil {
		verifier = proof.HashPathVerifier{}
	}
	return &Router{
		consensus:    eng,
		emergency:    mon,
		collaborator: collab,
		verifier:     verifier,
		schemas:      schemas,
		logger:       slog.Default().With("component", "router"),
	}, nil
}

// Route dispatches a request onto exactly one handling path.
func (r *Router) Route(ctx context.Context, req Request) (Result, error) {
	switch req.Class {
	case contracts.ClassDataSubmission:
		// Independent operation: the core never inspects it.
		if err := r.collaborator.SubmitData(ctx, req.Kind, req.Actor, req.Payload); err != nil {
			return Result{}, fmt.Errorf("data submission %q: %w", req.Kind, err)
		}
		return Result{Class: req.Class}, nil

	case contracts.ClassProofCarrying:
		if req.Proof == nil {
			return Result{}, fmt.Errorf("proof-carrying request %q: %w", req.Kind, contracts.ErrInvalidProof)
		}
		if err := r.verifier.Verify(*req.Proof, req.Root); err != nil {
			return Result{}, fmt.Errorf("proof-carrying request %q: %w", req.Kind, err)
		}
		if err := r.collaborator.SubmitProven(ctx, req.Kind, req.Actor, req.Payload); err != nil {
			return Result{}, fmt.Errorf("proven submission %q: %w", req.Kind, err)
		}
		return Result{Class: req.Class}, nil

	case contracts.ClassAuthorityDecision:
		if req.ProposalID != "" {
			if err := r.consensus.Vote(ctx, req.ProposalID, req.Actor); err != nil {
				return Result{}, err
			}
			return Result{Class: req.Class, ProposalID: req.ProposalID}, nil
		}
		if !req.Operation.Valid() {
			return Result{}, fmt.Errorf("operation %q: %w", req.Operation, contracts.ErrInvalidOperationType)
		}
		if err := r.validatePayload(req.Operation, req.Payload); err != nil {
			return Result{}, err
		}
		id, err := r.consensus.Propose(ctx, req.Operation, req.Target, req.Payload, req.Actor)
		if err != nil {
			return Result{}, err
		}
		return Result{Class: req.Class, ProposalID: id}, nil

	case contracts.ClassCriticalReport:
		if err := r.emergency.ReportCritical(ctx, req.Subject, req.Actor); err != nil {
			return Result{}, err
		}
		return Result{Class: req.Class}, nil

	default:
		r.logger.Warn("rejected request with unknown class", "class", string(req.Class), "actor", req.Actor)
		return Result{}, fmt.Errorf("class %q: %w", req.Class, contracts.ErrUnknownRequestClass)
	}
}
