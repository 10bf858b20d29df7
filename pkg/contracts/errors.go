package contracts

import "errors"

// Error taxonomy. All errors are local, synchronous, and
// non-recoverable within the same call; the caller retries as a new,
// distinct operation where applicable (e.g. re-propose after expiry).
// Call sites wrap these with fmt.Errorf("…: %w", …) so errors.Is
// still classifies them.
var (
	// ErrUnauthorized — the caller lacks the required role
	// (active watchdog, governance, or manager).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound — unknown proposal or subject.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExecuted — the proposal already reached threshold.
	ErrAlreadyExecuted = errors.New("proposal already executed")

	// ErrExpired — the proposal's voting period has elapsed.
	ErrExpired = errors.New("proposal expired")

	// ErrDuplicateVote — the voter already voted on this proposal.
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrOutOfBounds — a consensus parameter invariant is violated.
	ErrOutOfBounds = errors.New("parameters out of bounds")

	// ErrInvalidOperationType — not one of the four authority
	// operation types.
	ErrInvalidOperationType = errors.New("invalid operation type")

	// ErrAlreadyRegistered / ErrNotRegistered — registry lifecycle.
	ErrAlreadyRegistered = errors.New("watchdog already registered")
	ErrNotRegistered     = errors.New("watchdog not registered")

	// ErrNotPaused — clear requested for a subject that is not paused.
	ErrNotPaused = errors.New("subject not paused")

	// ErrUnknownRequestClass — the router rejects anything outside
	// its dispatch table rather than defaulting to a path.
	ErrUnknownRequestClass = errors.New("unknown request class")

	// ErrInvalidProof — a proof-carrying request whose artifact is
	// structurally invalid or fails hash-path verification.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrInvalidPayload — an authority operation payload that fails
	// schema validation before reaching consensus state.
	ErrInvalidPayload = errors.New("invalid payload")
)
