package entities

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DistributorConfig is the administrator-controlled state of the claim
// verifier. It is owned by the repository and mutated only through the
// command operations; there is no other writer.
type DistributorConfig struct {
	TokenAddress  common.Address
	Administrator common.Address
	Root          common.Hash
	Threshold     uint64
}

// ClaimRecord tracks the number of successful claims made by one address.
// The count starts at zero, only ever increases, and survives root updates.
type ClaimRecord struct {
	Address   common.Address
	Count     uint64
	UpdatedAt time.Time
}

// ClaimReceipt is the result of one successful claim.
type ClaimReceipt struct {
	Address    common.Address
	Amount     *big.Int
	ClaimCount uint64
	ClaimedAt  time.Time
}
