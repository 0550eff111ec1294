package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	application "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/commands"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/queries"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	httptransport "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Logger   *slog.Logger
}

func (h Handler) ClaimHandler(
	ctx context.Context,
	caller string,
	req httptransport.ClaimRequest,
) (httptransport.ClaimResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	address, err := parseAddress(caller)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	proof, err := parseProof(req.Proof)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}

	receipt, err := h.Commands.Claim(ctx, commands.ClaimCommand{
		Caller: address,
		Amount: amount,
		Proof:  proof,
	})
	if err != nil {
		logger.Warn("claim http request failed",
			"event", "claim_http_failed",
			"module", "token-distribution/claim-service",
			"layer", "adapter",
			"address", address.Hex(),
			"error", err.Error(),
		)
		return httptransport.ClaimResponse{}, err
	}
	logger.Info("claim http request completed",
		"event", "claim_http_completed",
		"module", "token-distribution/claim-service",
		"layer", "adapter",
		"address", address.Hex(),
		"amount", receipt.Amount.String(),
		"claim_count", receipt.ClaimCount,
	)
	return httptransport.ClaimResponse{
		Address:    receipt.Address.Hex(),
		Amount:     receipt.Amount.String(),
		ClaimCount: receipt.ClaimCount,
		ClaimedAt:  receipt.ClaimedAt.Format(time.RFC3339),
	}, nil
}

func (h Handler) CheckEligibilityHandler(
	ctx context.Context,
	req httptransport.EligibilityRequest,
) (httptransport.EligibilityResponse, error) {
	address, err := parseAddress(req.Address)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	proof, err := parseProof(req.Proof)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}

	eligible, err := h.Queries.CheckEligibility(ctx, address, amount, proof)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	return httptransport.EligibilityResponse{
		Address:  address.Hex(),
		Amount:   amount.String(),
		Eligible: eligible,
	}, nil
}

func (h Handler) GetDistributorHandler(ctx context.Context) (httptransport.DistributorResponse, error) {
	config, err := h.Queries.Config(ctx)
	if err != nil {
		return httptransport.DistributorResponse{}, err
	}
	return httptransport.DistributorResponse{
		TokenAddress:  config.TokenAddress.Hex(),
		Administrator: config.Administrator.Hex(),
		Root:          config.Root.Hex(),
		Threshold:     config.Threshold,
	}, nil
}

func (h Handler) GetClaimCountHandler(
	ctx context.Context,
	rawAddress string,
) (httptransport.ClaimCountResponse, error) {
	address, err := parseAddress(rawAddress)
	if err != nil {
		return httptransport.ClaimCountResponse{}, err
	}
	count, err := h.Queries.ClaimCount(ctx, address)
	if err != nil {
		return httptransport.ClaimCountResponse{}, err
	}
	return httptransport.ClaimCountResponse{
		Address:    address.Hex(),
		ClaimCount: count,
	}, nil
}

func (h Handler) UpdateThresholdHandler(
	ctx context.Context,
	caller string,
	req httptransport.UpdateThresholdRequest,
) error {
	address, err := parseAddress(caller)
	if err != nil {
		return err
	}
	return h.Commands.UpdateThreshold(ctx, commands.UpdateThresholdCommand{
		Caller:       address,
		NewThreshold: req.Threshold,
	})
}

func (h Handler) UpdateRootHandler(
	ctx context.Context,
	caller string,
	req httptransport.UpdateRootRequest,
) error {
	address, err := parseAddress(caller)
	if err != nil {
		return err
	}
	root, err := parseHash(req.Root)
	if err != nil {
		return err
	}
	return h.Commands.UpdateRoot(ctx, commands.UpdateRootCommand{
		Caller:  address,
		NewRoot: root,
	})
}

func (h Handler) WithdrawHandler(
	ctx context.Context,
	caller string,
	req httptransport.WithdrawRequest,
) (httptransport.WithdrawResponse, error) {
	address, err := parseAddress(caller)
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	token, err := parseAddress(req.TokenAddress)
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}

	amount, err := h.Commands.Withdraw(ctx, commands.WithdrawCommand{
		Caller:       address,
		TokenAddress: token,
	})
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	config, err := h.Queries.Config(ctx)
	if err != nil {
		return httptransport.WithdrawResponse{}, err
	}
	return httptransport.WithdrawResponse{
		TokenAddress: token.Hex(),
		Recipient:    config.Administrator.Hex(),
		Amount:       amount.String(),
	}, nil
}

func parseAddress(value string) (common.Address, error) {
	raw := strings.TrimSpace(value)
	if !common.IsHexAddress(raw) {
		return common.Address{}, domainerrors.ErrInvalidClaimInput
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(value string) (*big.Int, error) {
	raw := strings.TrimSpace(value)
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 || amount.BitLen() > 256 {
		return nil, domainerrors.ErrInvalidClaimInput
	}
	return amount, nil
}

func parseHash(value string) (common.Hash, error) {
	raw := strings.TrimSpace(value)
	if !strings.HasPrefix(raw, "0x") || len(raw) != 2+2*common.HashLength {
		return common.Hash{}, domainerrors.ErrInvalidClaimInput
	}
	for _, c := range raw[2:] {
		if !isHexDigit(c) {
			return common.Hash{}, domainerrors.ErrInvalidClaimInput
		}
	}
	return common.HexToHash(raw), nil
}

func parseProof(values []string) ([]common.Hash, error) {
	proof := make([]common.Hash, 0, len(values))
	for _, value := range values {
		hash, err := parseHash(value)
		if err != nil {
			return nil, err
		}
		proof = append(proof, hash)
	}
	return proof, nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
