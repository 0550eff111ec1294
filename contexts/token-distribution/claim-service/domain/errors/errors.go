package errors

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrThresholdExceeded        = errors.New("claim count has reached the current threshold")
	ErrZeroAmount               = errors.New("claim amount must be greater than zero")
	ErrZeroTokenAddress         = errors.New("token address cannot be the zero address")
	ErrZeroAdministrator        = errors.New("administrator cannot be the zero address")
	ErrNotAdministrator         = errors.New("caller is not the administrator")
	ErrReentrantCall            = errors.New("state-mutating call already in flight")
	ErrInsufficientVaultBalance = errors.New("vault balance is insufficient for transfer")
	ErrInvalidClaimInput        = errors.New("claim input is invalid")

	// ErrInvalidProof is the errors.Is target for InvalidProofError.
	ErrInvalidProof = errors.New("merkle proof does not match the current root")

	// ErrNothingToWithdraw is the errors.Is target for NothingToWithdrawError.
	ErrNothingToWithdraw = errors.New("no balance to withdraw for token")
)

// InvalidProofError echoes the rejected claim inputs so clients can debug
// which (address, amount, proof) tuple was refused.
type InvalidProofError struct {
	Address common.Address
	Amount  *big.Int
	Proof   []common.Hash
}

func (e *InvalidProofError) Error() string {
	amount := "0"
	if e.Amount != nil {
		amount = e.Amount.String()
	}
	return fmt.Sprintf(
		"invalid merkle proof for address %s, amount %s, %d siblings",
		e.Address.Hex(), amount, len(e.Proof),
	)
}

func (e *InvalidProofError) Is(target error) bool {
	return target == ErrInvalidProof
}

// NothingToWithdrawError reports a withdrawal attempt against a token the
// vault holds no balance for.
type NothingToWithdrawError struct {
	TokenAddress common.Address
}

func (e *NothingToWithdrawError) Error() string {
	return fmt.Sprintf("no balance to withdraw for token %s", e.TokenAddress.Hex())
}

func (e *NothingToWithdrawError) Is(target error) bool {
	return target == ErrNothingToWithdraw
}
