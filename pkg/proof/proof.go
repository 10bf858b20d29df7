// Package proof verifies the well-formedness of SPV-style inclusion
// proofs attached to proof-carrying requests (wallet registration and
// redemption). The core only checks structure and the hash path; which
// roots are trustworthy is decided by the external collaborator, so
// verification here is valid/invalid against a caller-supplied root.
package proof

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Mindburn-Labs/warden/pkg/contracts"
)

// Domain-separation prefixes for leaf and node hashing.
const (
	leafPrefix = "warden:spv:leaf:v1"
	nodePrefix = "warden:spv:node:v1"
)

// InclusionProof is an SPV inclusion proof artifact.
type InclusionProof struct {
	LeafHash  string      `json:"leaf_hash"`
	Root      string      `json:"root"`
	ProofPath []ProofStep `json:"proof_path"`
}

// ProofStep is one sibling on the path from leaf to root.
type ProofStep struct {
	Side        string `json:"side"` // "L" or "R"
	SiblingHash string `json:"sibling_hash"`
}

// Verifier decides whether a proof artifact is valid. The router holds
// this as a black box; the default is HashPathVerifier.
type Verifier interface {
	Verify(proof InclusionProof, expectedRoot string) error
}

// HashPathVerifier checks structural integrity and replays the hash
// path.
type HashPathVerifier struct{}

// Verify returns nil when the proof is well-formed and its hash path
// reproduces the root. expectedRoot, when non-empty, must also match
// the proof's declared root.
func (HashPathVerifier) Verify(proof InclusionProof, expectedRoot string) error {
	if !isHexHash(proof.LeafHash) || !isHexHash(proof.Root) {
		return contracts.ErrInvalidProof
	}
	if expectedRoot != "" && !strings.EqualFold(proof.Root, expectedRoot) {
		return contracts.ErrInvalidProof
	}

	current := proof.LeafHash
	for _, step := range proof.ProofPath {
		if !isHexHash(step.SiblingHash) {
			return contracts.ErrInvalidProof
		}
		switch step.Side {
		case "L":
			current = nodeHash(step.SiblingHash, current)
		case "R":
			current = nodeHash(current, step.SiblingHash)
		default:
			return contracts.ErrInvalidProof
		}
	}

	if !strings.EqualFold(current, proof.Root) {
		return contracts.ErrInvalidProof
	}
	return nil
}

// LeafHash hashes raw leaf content with the leaf domain prefix.
func LeafHash(content []byte) string {
	var buf bytes.Buffer
	buf.WriteString(leafPrefix)
	buf.WriteByte(0)
	buf.Write(content)
	return sha256Hex(buf.Bytes())
}

// nodeHash combines two child hashes with the node domain prefix.
func nodeHash(left, right string) string {
	var buf bytes.Buffer
	buf.WriteString(nodePrefix)
	buf.WriteByte(0)
	buf.Write(hexToBytes(left))
	buf.Write(hexToBytes(right))
	return sha256Hex(buf.Bytes())
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func hexToBytes(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}

func isHexHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
