package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	SentAt       *time.Time
}

// Store is the in-memory repository for distributor state: the singleton
// configuration, per-address claim records, and the event outbox.
type Store struct {
	mu sync.RWMutex

	config entities.DistributorConfig
	claims map[common.Address]entities.ClaimRecord
	outbox map[string]outboxRecord
}

func NewStore(config entities.DistributorConfig) *Store {
	return &Store{
		config: config,
		claims: make(map[common.Address]entities.ClaimRecord),
		outbox: make(map[string]outboxRecord),
	}
}

func (s *Store) GetConfig(_ context.Context) (entities.DistributorConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.config, nil
}

func (s *Store) SetThreshold(_ context.Context, threshold uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Threshold = threshold
	return nil
}

func (s *Store) SetRoot(_ context.Context, root common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config.Root = root
	return nil
}

func (s *Store) GetClaimCount(_ context.Context, address common.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.claims[address].Count, nil
}

func (s *Store) IncrementClaimCount(
	_ context.Context,
	address common.Address,
	at time.Time,
) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.claims[address]
	record.Address = address
	record.Count++
	record.UpdatedAt = at.UTC()
	s.claims[address] = record
	return record.Count, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		OutboxID:     outboxID,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.SentAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
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

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidClaimInput
	}
	timestamp := sentAt.UTC()
	row.SentAt = &timestamp
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
