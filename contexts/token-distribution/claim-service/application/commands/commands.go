package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	application "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/shared/merkle"
)

type ClaimCommand struct {
	Caller common.Address
	Amount *big.Int
	Proof  []common.Hash
}

type UpdateThresholdCommand struct {
	Caller       common.Address
	NewThreshold uint64
}

type UpdateRootCommand struct {
	Caller  common.Address
	NewRoot common.Hash
}

type WithdrawCommand struct {
	Caller       common.Address
	TokenAddress common.Address
}

// Gate serializes state-mutating operations. A second mutating call while
// one is in flight is rejected rather than queued, which is what defends the
// claim path against reentrant vault callbacks: the transfer runs while the
// gate is held, so a callback into Claim fails at the gate.
type Gate struct {
	busy atomic.Bool
}

func (g *Gate) enter() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *Gate) leave() {
	g.busy.Store(false)
}

// UseCase implements the state-mutating distributor operations. Gate must be
// shared across every UseCase copy wired for the same distributor; module
// wiring takes care of that.
type UseCase struct {
	Repository ports.Repository
	Vault      ports.TokenVault
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Outbox     ports.OutboxWriter
	Gate       *Gate
	Logger     *slog.Logger
}

// Claim verifies the caller's proof against the current root and, if every
// guard passes, advances the caller's claim counter by exactly one and then
// transfers the claimed amount. The counter tracks successful claims, never
// tokens, and the transfer is deliberately the last step.
func (uc UseCase) Claim(ctx context.Context, cmd ClaimCommand) (entities.ClaimReceipt, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !uc.Gate.enter() {
		logger.Warn("claim rejected by reentrancy gate",
			"event", "claim_reentrant_call_rejected",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"address", cmd.Caller.Hex(),
		)
		return entities.ClaimReceipt{}, domainerrors.ErrReentrantCall
	}
	defer uc.Gate.leave()

	config, err := uc.Repository.GetConfig(ctx)
	if err != nil {
		return entities.ClaimReceipt{}, uc.logError(logger, "claim_config_load_failed", err,
			"address", cmd.Caller.Hex(),
		)
	}
	count, err := uc.Repository.GetClaimCount(ctx, cmd.Caller)
	if err != nil {
		return entities.ClaimReceipt{}, uc.logError(logger, "claim_count_load_failed", err,
			"address", cmd.Caller.Hex(),
		)
	}
	if count >= config.Threshold {
		logger.Warn("claim rejected by threshold",
			"event", "claim_threshold_exceeded",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"address", cmd.Caller.Hex(),
			"claim_count", count,
			"threshold", config.Threshold,
		)
		return entities.ClaimReceipt{}, domainerrors.ErrThresholdExceeded
	}

	// Same guard order as CheckEligibility: threshold, then amount, then
	// proof. The two paths must agree on which failure fires first.
	if cmd.Amount == nil || cmd.Amount.Sign() <= 0 {
		logger.Warn("claim rejected for zero amount",
			"event", "claim_zero_amount_rejected",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"address", cmd.Caller.Hex(),
		)
		return entities.ClaimReceipt{}, domainerrors.ErrZeroAmount
	}

	leaf := merkle.LeafHash(cmd.Caller, cmd.Amount)
	if !merkle.VerifyProof(leaf, cmd.Proof, config.Root) {
		logger.Warn("claim rejected for invalid proof",
			"event", "claim_invalid_proof",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"address", cmd.Caller.Hex(),
			"amount", cmd.Amount.String(),
			"proof_length", len(cmd.Proof),
		)
		return entities.ClaimReceipt{}, &domainerrors.InvalidProofError{
			Address: cmd.Caller,
			Amount:  new(big.Int).Set(cmd.Amount),
			Proof:   append([]common.Hash(nil), cmd.Proof...),
		}
	}

	// The vault balance is checked before any state effect so the realistic
	// transfer failure mode cannot leave a counted-but-unpaid claim behind.
	balance, err := uc.Vault.BalanceOf(ctx, config.TokenAddress)
	if err != nil {
		return entities.ClaimReceipt{}, uc.logError(logger, "claim_vault_balance_failed", err,
			"address", cmd.Caller.Hex(),
		)
	}
	if balance.Cmp(cmd.Amount) < 0 {
		logger.Error("claim rejected for insufficient vault balance",
			"event", "claim_vault_balance_insufficient",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"address", cmd.Caller.Hex(),
			"amount", cmd.Amount.String(),
			"vault_balance", balance.String(),
		)
		return entities.ClaimReceipt{}, domainerrors.ErrInsufficientVaultBalance
	}

	now := uc.now()
	newCount, err := uc.Repository.IncrementClaimCount(ctx, cmd.Caller, now)
	if err != nil {
		return entities.ClaimReceipt{}, uc.logError(logger, "claim_count_increment_failed", err,
			"address", cmd.Caller.Hex(),
		)
	}
	// Effects before interaction: the counter is already advanced, so a vault
	// that calls back into Claim hits the gate or the threshold guard.
	if err := uc.Vault.Transfer(ctx, config.TokenAddress, cmd.Caller, cmd.Amount); err != nil {
		return entities.ClaimReceipt{}, uc.logError(logger, "claim_transfer_failed", err,
			"address", cmd.Caller.Hex(),
			"amount", cmd.Amount.String(),
		)
	}

	// The event records a completed payout, so it is appended only once the
	// transfer has gone through.
	if err := uc.appendOutbox(ctx, "distribution.claimed", cmd.Caller.Hex(), map[string]any{
		"address":     cmd.Caller.Hex(),
		"amount":      cmd.Amount.String(),
		"claim_count": newCount,
	}); err != nil {
		return entities.ClaimReceipt{}, err
	}

	logger.Info("claim authorized",
		"event", "claim_authorized",
		"module", "token-distribution/claim-service",
		"layer", "application",
		"address", cmd.Caller.Hex(),
		"amount", cmd.Amount.String(),
		"claim_count", newCount,
	)
	return entities.ClaimReceipt{
		Address:    cmd.Caller,
		Amount:     new(big.Int).Set(cmd.Amount),
		ClaimCount: newCount,
		ClaimedAt:  now,
	}, nil
}

// UpdateThreshold unconditionally overwrites the global claim threshold.
// Lowering is permitted; the original contract never validated monotonicity
// and this implementation preserves that, loudly.
func (uc UseCase) UpdateThreshold(ctx context.Context, cmd UpdateThresholdCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if !uc.Gate.enter() {
		return domainerrors.ErrReentrantCall
	}
	defer uc.Gate.leave()

	config, err := uc.requireAdministrator(ctx, logger, cmd.Caller, "update_threshold")
	if err != nil {
		return err
	}

	if err := uc.Repository.SetThreshold(ctx, cmd.NewThreshold); err != nil {
		return uc.logError(logger, "threshold_update_failed", err,
			"new_threshold", cmd.NewThreshold,
		)
	}
	if err := uc.appendOutbox(ctx, "distribution.threshold_updated", cmd.Caller.Hex(), map[string]any{
		"old_threshold": config.Threshold,
		"new_threshold": cmd.NewThreshold,
	}); err != nil {
		return err
	}

	if cmd.NewThreshold < config.Threshold {
		logger.Warn("threshold lowered below previous value",
			"event", "threshold_lowered",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"old_threshold", config.Threshold,
			"new_threshold", cmd.NewThreshold,
		)
	}
	logger.Info("threshold updated",
		"event", "threshold_updated",
		"module", "token-distribution/claim-service",
		"layer", "application",
		"old_threshold", config.Threshold,
		"new_threshold", cmd.NewThreshold,
	)
	return nil
}

// UpdateRoot replaces the merkle root. Claim counters are untouched: claims
// made under the old root stay counted against the threshold.
func (uc UseCase) UpdateRoot(ctx context.Context, cmd UpdateRootCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if !uc.Gate.enter() {
		return domainerrors.ErrReentrantCall
	}
	defer uc.Gate.leave()

	config, err := uc.requireAdministrator(ctx, logger, cmd.Caller, "update_root")
	if err != nil {
		return err
	}

	if err := uc.Repository.SetRoot(ctx, cmd.NewRoot); err != nil {
		return uc.logError(logger, "root_update_failed", err,
			"new_root", cmd.NewRoot.Hex(),
		)
	}
	if err := uc.appendOutbox(ctx, "distribution.root_updated", cmd.Caller.Hex(), map[string]any{
		"old_root": config.Root.Hex(),
		"new_root": cmd.NewRoot.Hex(),
	}); err != nil {
		return err
	}

	logger.Info("root updated",
		"event", "root_updated",
		"module", "token-distribution/claim-service",
		"layer", "application",
		"old_root", config.Root.Hex(),
		"new_root", cmd.NewRoot.Hex(),
	)
	return nil
}

// Withdraw transfers the distributor's entire balance of the given token to
// the administrator. Independent of claim state.
func (uc UseCase) Withdraw(ctx context.Context, cmd WithdrawCommand) (*big.Int, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !uc.Gate.enter() {
		return nil, domainerrors.ErrReentrantCall
	}
	defer uc.Gate.leave()

	config, err := uc.requireAdministrator(ctx, logger, cmd.Caller, "withdraw")
	if err != nil {
		return nil, err
	}

	balance, err := uc.Vault.BalanceOf(ctx, cmd.TokenAddress)
	if err != nil {
		return nil, uc.logError(logger, "withdraw_balance_failed", err,
			"token_address", cmd.TokenAddress.Hex(),
		)
	}
	if balance.Sign() == 0 {
		logger.Warn("withdraw rejected for empty balance",
			"event", "withdraw_nothing_to_withdraw",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"token_address", cmd.TokenAddress.Hex(),
		)
		return nil, &domainerrors.NothingToWithdrawError{TokenAddress: cmd.TokenAddress}
	}

	if err := uc.Vault.Transfer(ctx, cmd.TokenAddress, config.Administrator, balance); err != nil {
		return nil, uc.logError(logger, "withdraw_transfer_failed", err,
			"token_address", cmd.TokenAddress.Hex(),
			"amount", balance.String(),
		)
	}
	if err := uc.appendOutbox(ctx, "distribution.withdrawn", cmd.TokenAddress.Hex(), map[string]any{
		"token_address": cmd.TokenAddress.Hex(),
		"recipient":     config.Administrator.Hex(),
		"amount":        balance.String(),
	}); err != nil {
		return nil, err
	}

	logger.Info("balance withdrawn",
		"event", "balance_withdrawn",
		"module", "token-distribution/claim-service",
		"layer", "application",
		"token_address", cmd.TokenAddress.Hex(),
		"recipient", config.Administrator.Hex(),
		"amount", balance.String(),
	)
	return balance, nil
}

func (uc UseCase) requireAdministrator(
	ctx context.Context,
	logger *slog.Logger,
	caller common.Address,
	operation string,
) (entities.DistributorConfig, error) {
	config, err := uc.Repository.GetConfig(ctx)
	if err != nil {
		return entities.DistributorConfig{}, uc.logError(logger, "admin_config_load_failed", err,
			"operation", operation,
		)
	}
	if caller != config.Administrator {
		logger.Warn("administrator operation rejected",
			"event", "admin_operation_unauthorized",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"operation", operation,
			"caller", caller.Hex(),
		)
		return entities.DistributorConfig{}, domainerrors.ErrNotAdministrator
	}
	return config, nil
}

func (uc UseCase) appendOutbox(
	ctx context.Context,
	eventType string,
	partitionKey string,
	data map[string]any,
) error {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Outbox == nil {
		logger.Debug("outbox disabled for module",
			"event", "claim_outbox_disabled",
			"module", "token-distribution/claim-service",
			"layer", "application",
			"event_type", eventType,
		)
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return uc.logError(logger, "claim_outbox_event_id_failed", err,
			"event_type", eventType,
		)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return uc.logError(logger, "claim_outbox_payload_marshal_failed", err,
			"event_type", eventType,
		)
	}
	if err := uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       uc.now(),
		SourceService:    "claim-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "address",
		PartitionKey:     partitionKey,
		Data:             payload,
	}); err != nil {
		return uc.logError(logger, "claim_outbox_append_failed", err,
			"event_id", eventID,
			"event_type", eventType,
		)
	}
	return nil
}

func (uc UseCase) logError(logger *slog.Logger, event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "token-distribution/claim-service",
		"layer", "application",
		"error", err.Error(),
	}, args...)
	logger.Error("claim service operation failed", fields...)
	return err
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
