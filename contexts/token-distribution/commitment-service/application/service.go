package application

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/shared/merkle"
)

type Service struct {
	Logger *slog.Logger
}

// Build constructs the merkle commitment over the given recipients in input
// order and returns the root plus one proof per address. Every generated
// proof is verified against the computed root before the commitment is
// returned; a round-trip failure aborts the build.
func (s Service) Build(ctx context.Context, recipients []entities.Recipient) (entities.Commitment, error) {
	logger := resolveLogger(s.Logger)
	if len(recipients) == 0 {
		return entities.Commitment{}, domainerrors.ErrNoRecipients
	}

	leaves := make([]common.Hash, len(recipients))
	seen := make(map[common.Address]struct{}, len(recipients))
	for i, recipient := range recipients {
		if _, exists := seen[recipient.Address]; exists {
			logger.Warn("commitment build rejected duplicate recipient",
				"event", "commitment_duplicate_recipient",
				"module", "token-distribution/commitment-service",
				"layer", "application",
				"address", recipient.Address.Hex(),
			)
			return entities.Commitment{}, domainerrors.ErrDuplicateRecipient
		}
		seen[recipient.Address] = struct{}{}

		// A zero-allocation recipient could never claim; reject rather than
		// silently include.
		if recipient.Amount == nil || recipient.Amount.Sign() <= 0 {
			logger.Warn("commitment build rejected zero allocation",
				"event", "commitment_zero_allocation",
				"module", "token-distribution/commitment-service",
				"layer", "application",
				"address", recipient.Address.Hex(),
			)
			return entities.Commitment{}, domainerrors.ErrZeroAllocation
		}
		if recipient.Amount.BitLen() > 256 {
			return entities.Commitment{}, domainerrors.ErrAllocationTooLarge
		}
		leaves[i] = merkle.LeafHash(recipient.Address, recipient.Amount)
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return entities.Commitment{}, err
	}
	root := tree.Root()

	proofs := make(map[common.Address][]common.Hash, len(recipients))
	for i, recipient := range recipients {
		proof, err := tree.Proof(i)
		if err != nil {
			return entities.Commitment{}, err
		}
		if !merkle.VerifyProof(leaves[i], proof, root) {
			logger.Error("commitment proof round trip failed",
				"event", "commitment_proof_round_trip_failed",
				"module", "token-distribution/commitment-service",
				"layer", "application",
				"address", recipient.Address.Hex(),
				"leaf_index", i,
			)
			return entities.Commitment{}, domainerrors.ErrProofRoundTrip
		}
		proofs[recipient.Address] = proof
	}

	logger.Info("commitment built",
		"event", "commitment_built",
		"module", "token-distribution/commitment-service",
		"layer", "application",
		"root", root.Hex(),
		"leaf_count", len(leaves),
	)
	return entities.Commitment{
		Root:      root,
		LeafCount: len(leaves),
		Proofs:    proofs,
	}, nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
