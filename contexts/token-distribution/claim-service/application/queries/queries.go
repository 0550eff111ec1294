package queries

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	application "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/shared/merkle"
)

type UseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

// CheckEligibility runs the exact guard-and-verify sequence of the claim
// path without any state mutation. Clients use it as a pre-check; calling it
// repeatedly always returns the same answer until threshold or root change.
func (uc UseCase) CheckEligibility(
	ctx context.Context,
	address common.Address,
	amount *big.Int,
	proof []common.Hash,
) (bool, error) {
	logger := application.ResolveLogger(uc.Logger)

	config, err := uc.Repository.GetConfig(ctx)
	if err != nil {
		return false, err
	}
	count, err := uc.Repository.GetClaimCount(ctx, address)
	if err != nil {
		return false, err
	}
	if count >= config.Threshold {
		return false, domainerrors.ErrThresholdExceeded
	}
	if amount == nil || amount.Sign() <= 0 {
		return false, domainerrors.ErrZeroAmount
	}

	eligible := merkle.VerifyProof(merkle.LeafHash(address, amount), proof, config.Root)
	logger.Debug("eligibility checked",
		"event", "eligibility_checked",
		"module", "token-distribution/claim-service",
		"layer", "application",
		"address", address.Hex(),
		"amount", amount.String(),
		"eligible", eligible,
	)
	return eligible, nil
}

// Config returns the current distributor configuration snapshot.
func (uc UseCase) Config(ctx context.Context) (entities.DistributorConfig, error) {
	return uc.Repository.GetConfig(ctx)
}

// Root returns the current commitment root.
func (uc UseCase) Root(ctx context.Context) (common.Hash, error) {
	config, err := uc.Repository.GetConfig(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	return config.Root, nil
}

// Threshold returns the number of claim phases currently open per address.
func (uc UseCase) Threshold(ctx context.Context) (uint64, error) {
	config, err := uc.Repository.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	return config.Threshold, nil
}

// TokenAddress returns the address of the distributed token.
func (uc UseCase) TokenAddress(ctx context.Context) (common.Address, error) {
	config, err := uc.Repository.GetConfig(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return config.TokenAddress, nil
}

// ClaimCount returns how many successful claims the address has made.
func (uc UseCase) ClaimCount(ctx context.Context, address common.Address) (uint64, error) {
	return uc.Repository.GetClaimCount(ctx, address)
}
