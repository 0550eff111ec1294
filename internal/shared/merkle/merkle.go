// Package merkle implements the commitment primitives shared by the offline
// commitment builder and the online claim verifier: canonical leaf encoding,
// commutative pair hashing, bottom-up tree construction, and pure proof
// verification. Builder and verifier must agree on every rule in this package
// or all proofs fail, so the rules live here and nowhere else.
package merkle

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEmptyLeaves     = errors.New("merkle tree requires at least one leaf")
	ErrIndexOutOfRange = errors.New("merkle leaf index out of range")
)

// LeafHash computes the canonical leaf digest for one committed record:
// keccak256 of the 20-byte address followed by the allocation amount as a
// fixed-width 32-byte big-endian integer. Callers must pass a non-negative
// amount that fits in 256 bits.
func LeafHash(address common.Address, amount *big.Int) common.Hash {
	buf := make([]byte, common.AddressLength+common.HashLength)
	copy(buf, address.Bytes())
	if amount != nil {
		amount.FillBytes(buf[common.AddressLength:])
	}
	return crypto.Keccak256Hash(buf)
}

// HashPair hashes two digests as an unordered pair: the pair is sorted by
// byte value before concatenation so verification needs no left/right
// positional metadata.
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Tree is a binary hash tree built bottom-up over a fixed leaf set.
// Level 0 holds the leaves in input order; a level with an odd node count
// promotes its last node unchanged to the next level.
type Tree struct {
	levels [][]common.Hash
}

// NewTree builds the full tree from the given leaves. Leaf order is the
// caller's responsibility and is preserved.
func NewTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyLeaves
	}

	levels := [][]common.Hash{append([]common.Hash(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		current := levels[len(levels)-1]
		next := make([]common.Hash, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 == len(current) {
				// Lone node promotes unchanged.
				next = append(next, current[i])
				break
			}
			next = append(next, HashPair(current[i], current[i+1]))
		}
		levels = append(levels, next)
	}
	return &Tree{levels: levels}, nil
}

// Root returns the top digest committing to the entire leaf set.
func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// LeafCount returns the number of committed leaves.
func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Proof returns the sibling digests needed to recompute the root from the
// leaf at the given index, ordered leaf to root. Promotion steps contribute
// no sibling, so proofs over unbalanced trees are shorter for promoted
// positions.
func (t *Tree) Proof(index int) ([]common.Hash, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, ErrIndexOutOfRange
	}

	proof := make([]common.Hash, 0, len(t.levels)-1)
	for level := 0; level < len(t.levels)-1; level++ {
		sibling := index ^ 1
		if sibling < len(t.levels[level]) {
			proof = append(proof, t.levels[level][sibling])
		}
		index /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the root from a leaf digest and its sibling
// sequence and reports whether it matches the expected root. Pure function:
// safe for client-side eligibility pre-checks.
func VerifyProof(leaf common.Hash, proof []common.Hash, root common.Hash) bool {
	node := leaf
	for _, sibling := range proof {
		node = HashPair(node, sibling)
	}
	return node == root
}
