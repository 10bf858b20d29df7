package contracts

import (
	"context"
	"encoding/json"
)

// ExecutionSink receives an authority operation the moment its
// proposal crosses threshold. The call happens synchronously inside
// the same atomic step as the triggering vote: a returned error rolls
// the vote and the executed flag back, leaving the proposal votable
// until expiry. Implementations live downstream (status registries,
// redemption managers); the core only knows this contract.
type ExecutionSink interface {
	OnAuthorityOperationExecuted(ctx context.Context, op OperationType, target string, payload json.RawMessage) error
}

// PauseSink receives the automatic emergency pause for a subject when
// its live report count reaches the threshold. Failure semantics
// mirror ExecutionSink: an error aborts the triggering report.
type PauseSink interface {
	OnEmergencyPause(ctx context.Context, subject string) error
}

// ExecutionSinkFunc adapts a function to ExecutionSink.
type ExecutionSinkFunc func(ctx context.Context, op OperationType, target string, payload json.RawMessage) error

// OnAuthorityOperationExecuted implements ExecutionSink.
func (f ExecutionSinkFunc) OnAuthorityOperationExecuted(ctx context.Context, op OperationType, target string, payload json.RawMessage) error {
	return f(ctx, op, target, payload)
}

// PauseSinkFunc adapts a function to PauseSink.
type PauseSinkFunc func(ctx context.Context, subject string) error

// OnEmergencyPause implements PauseSink.
func (f PauseSinkFunc) OnEmergencyPause(ctx context.Context, subject string) error {
	return f(ctx, subject)
}

// Collaborator is the external system that handles the two
// non-authority request classes: plain data submissions
// (attestations, concern reports) and proof-carrying operations
// (SPV-verified wallet registration/redemption). The core passes
// these through untouched apart from proof well-formedness checks.
type Collaborator interface {
	SubmitData(ctx context.Context, kind, actor string, payload json.RawMessage) error
	SubmitProven(ctx context.Context, kind, actor string, payload json.RawMessage) error
}
