package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/application"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/domain/errors"
	httptransport "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/transport/http"
)

type Handler struct {
	Builder application.Service
	Logger  *slog.Logger
}

func (h Handler) BuildCommitmentHandler(
	ctx context.Context,
	req httptransport.BuildCommitmentRequest,
) (httptransport.BuildCommitmentResponse, error) {
	recipients := make([]entities.Recipient, 0, len(req.Allocations))
	for _, allocation := range req.Allocations {
		raw := strings.TrimSpace(allocation.Address)
		if !common.IsHexAddress(raw) {
			return httptransport.BuildCommitmentResponse{}, domainerrors.ErrInvalidRecipient
		}
		amount, ok := new(big.Int).SetString(strings.TrimSpace(allocation.Amount), 10)
		if !ok || amount.Sign() < 0 {
			return httptransport.BuildCommitmentResponse{}, domainerrors.ErrInvalidRecipient
		}
		recipients = append(recipients, entities.Recipient{
			Address: common.HexToAddress(raw),
			Amount:  amount,
		})
	}

	commitment, err := h.Builder.Build(ctx, recipients)
	if err != nil {
		return httptransport.BuildCommitmentResponse{}, err
	}

	proofs := make([]httptransport.RecipientProofDTO, 0, len(recipients))
	for _, recipient := range recipients {
		siblings := commitment.Proofs[recipient.Address]
		encoded := make([]string, 0, len(siblings))
		for _, sibling := range siblings {
			encoded = append(encoded, sibling.Hex())
		}
		proofs = append(proofs, httptransport.RecipientProofDTO{
			Address: recipient.Address.Hex(),
			Amount:  recipient.Amount.String(),
			Proof:   encoded,
		})
	}
	return httptransport.BuildCommitmentResponse{
		Root:      commitment.Root.Hex(),
		LeafCount: commitment.LeafCount,
		Proofs:    proofs,
	}, nil
}
