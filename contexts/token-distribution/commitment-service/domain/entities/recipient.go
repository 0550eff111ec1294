package entities

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Recipient is one committed (address, allocation) pair. The allocation is
// the exact per-phase slice the claim verifier will accept for the address;
// splitting a total grant into phase slices is the operator's concern.
type Recipient struct {
	Address common.Address
	Amount  *big.Int
}

// Commitment is the published artifact of one build: the root registered
// with the claim verifier and, per recipient, the sibling sequence that
// proves inclusion under that root.
type Commitment struct {
	Root      common.Hash
	LeafCount int
	Proofs    map[common.Address][]common.Hash
}
