package ports

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	"github.com/Karaton-Surakarta/masa-token-lock/internal/shared/events"
)

// Repository owns distributor configuration and per-address claim counters.
// Counter writes must be atomic per address; the application layer guarantees
// only one state-mutating operation is in flight at a time.
type Repository interface {
	GetConfig(ctx context.Context) (entities.DistributorConfig, error)
	SetThreshold(ctx context.Context, threshold uint64) error
	SetRoot(ctx context.Context, root common.Hash) error
	GetClaimCount(ctx context.Context, address common.Address) (uint64, error)
	// IncrementClaimCount advances the counter by exactly one and returns the
	// new count. Claim counts are never decremented or reset.
	IncrementClaimCount(ctx context.Context, address common.Address, at time.Time) (uint64, error)
}

// TokenVault moves tokens held on behalf of the distributor. Transfer is the
// external interaction of the claim path and always runs after state effects.
type TokenVault interface {
	BalanceOf(ctx context.Context, token common.Address) (*big.Int, error)
	Transfer(ctx context.Context, token common.Address, to common.Address, amount *big.Int) error
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-module envelope contract.
type EventEnvelope = events.Envelope

// OutboxWriter appends observable events alongside state changes.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
