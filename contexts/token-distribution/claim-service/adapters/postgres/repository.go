package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsureConfig seeds the singleton configuration row if it does not exist.
// An existing row is left untouched so restarts never clobber live root or
// threshold values.
func (r *Repository) EnsureConfig(ctx context.Context, config entities.DistributorConfig) error {
	if config.TokenAddress == (common.Address{}) {
		return domainerrors.ErrZeroTokenAddress
	}
	if config.Administrator == (common.Address{}) {
		return domainerrors.ErrZeroAdministrator
	}

	row := distributorConfigModel{
		ID:            distributorConfigRowID,
		TokenAddress:  config.TokenAddress.Hex(),
		Administrator: config.Administrator.Hex(),
		MerkleRoot:    config.Root.Hex(),
		Threshold:     config.Threshold,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).
		Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("claim_repo_ensure_config_failed", err)
	}
	return nil
}

func (r *Repository) GetConfig(ctx context.Context) (entities.DistributorConfig, error) {
	var row distributorConfigModel
	if err := r.db.WithContext(ctx).
		First(&row, "id = ?", distributorConfigRowID).
		Error; err != nil {
		return entities.DistributorConfig{}, r.logError("claim_repo_get_config_failed", err)
	}
	return entities.DistributorConfig{
		TokenAddress:  common.HexToAddress(row.TokenAddress),
		Administrator: common.HexToAddress(row.Administrator),
		Root:          common.HexToHash(row.MerkleRoot),
		Threshold:     row.Threshold,
	}, nil
}

func (r *Repository) SetThreshold(ctx context.Context, threshold uint64) error {
	result := r.db.WithContext(ctx).
		Model(&distributorConfigModel{}).
		Where("id = ?", distributorConfigRowID).
		Updates(map[string]interface{}{
			"threshold":  threshold,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("claim_repo_set_threshold_failed", result.Error,
			"threshold", threshold,
		)
	}
	if result.RowsAffected == 0 {
		return r.logError("claim_repo_set_threshold_missing_config", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *Repository) SetRoot(ctx context.Context, root common.Hash) error {
	result := r.db.WithContext(ctx).
		Model(&distributorConfigModel{}).
		Where("id = ?", distributorConfigRowID).
		Updates(map[string]interface{}{
			"merkle_root": root.Hex(),
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("claim_repo_set_root_failed", result.Error,
			"root", root.Hex(),
		)
	}
	if result.RowsAffected == 0 {
		return r.logError("claim_repo_set_root_missing_config", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *Repository) GetClaimCount(ctx context.Context, address common.Address) (uint64, error) {
	var row claimRecordModel
	err := r.db.WithContext(ctx).
		First(&row, "address = ?", address.Hex()).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, r.logError("claim_repo_get_claim_count_failed", err,
			"address", address.Hex(),
		)
	}
	return row.ClaimCount, nil
}

func (r *Repository) IncrementClaimCount(
	ctx context.Context,
	address common.Address,
	at time.Time,
) (uint64, error) {
	row := claimRecordModel{
		Address:    address.Hex(),
		ClaimCount: 1,
		UpdatedAt:  at.UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"claim_count": gorm.Expr("claim_records.claim_count + 1"),
				"updated_at":  at.UTC(),
			}),
		}).
		Create(&row).
		Error; err != nil {
		return 0, r.logError("claim_repo_increment_claim_count_failed", err,
			"address", address.Hex(),
		)
	}

	var updated claimRecordModel
	if err := r.db.WithContext(ctx).
		First(&updated, "address = ?", address.Hex()).
		Error; err != nil {
		return 0, r.logError("claim_repo_increment_readback_failed", err,
			"address", address.Hex(),
		)
	}
	return updated.ClaimCount, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("claim_repo_outbox_marshal_failed", err,
			"event_type", envelope.EventType,
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).
		Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return r.logError("claim_repo_outbox_append_failed", err,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, r.logError("claim_repo_outbox_list_failed", err)
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	timestamp := sentAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]interface{}{
			"status":  outboxStatusSent,
			"sent_at": &timestamp,
		})
	if result.Error != nil {
		return r.logError("claim_repo_outbox_mark_sent_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidClaimInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "token-distribution/claim-service",
		"layer", "adapter",
		"error", err.Error(),
	}, args...)
	r.logger.Error("claim repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
