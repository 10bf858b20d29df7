package proof

import "sort"

// Tree is a Merkle tree over raw leaf contents, used by tests and by
// collaborators that need to mint proofs the HashPathVerifier accepts.
type Tree struct {
	LeafHashes []string
	Root       string
	levels     [][]string
}

// BuildTree constructs a tree over the given leaf contents. Leaves
// are hashed with the leaf domain prefix and sorted so construction
// is order independent.
func BuildTree(leaves [][]byte) *Tree {
	hashes := make([]string, len(leaves))
	for i, l := range leaves {
		hashes[i] = LeafHash(l)
	}
	sort.Strings(hashes)

	t := &Tree{LeafHashes: hashes}
	if len(hashes) == 0 {
		return t
	}

	level := append([]string{}, hashes...)
	for len(level) > 1 {
		t.levels = append(t.levels, level)
		level = nextLevel(level)
	}
	t.levels = append(t.levels, level)
	t.Root = level[0]
	return t
}

// Prove returns the inclusion proof for the leaf at the given index
// in LeafHashes order.
func (t *Tree) Prove(index int) (InclusionProof, bool) {
	if index < 0 || index >= len(t.LeafHashes) {
		return InclusionProof{}, false
	}

	p := InclusionProof{
		LeafHash: t.LeafHashes[index],
		Root:     t.Root,
	}
	idx := index
	for _, level := range t.levels[:len(t.levels)-1] {
		// Odd levels duplicate their last hash, matching nextLevel.
		padded := level
		if len(padded)%2 != 0 {
			padded = append(append([]string{}, padded...), padded[len(padded)-1])
		}
		if idx%2 == 0 {
			p.ProofPath = append(p.ProofPath, ProofStep{Side: "R", SiblingHash: padded[idx+1]})
		} else {
			p.ProofPath = append(p.ProofPath, ProofStep{Side: "L", SiblingHash: padded[idx-1]})
		}
		idx /= 2
	}
	return p, true
}

func nextLevel(hashes []string) []string {
	if len(hashes)%2 != 0 {
		hashes = append(append([]string{}, hashes...), hashes[len(hashes)-1])
	}
	next := make([]string, len(hashes)/2)
	for i := 0; i < len(hashes); i += 2 {
		next[i/2] = nodeHash(hashes[i], hashes[i+1])
	}
	return next
}
