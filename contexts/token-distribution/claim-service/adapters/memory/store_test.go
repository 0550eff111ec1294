package memory

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	domainerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
)

var (
	storeToken = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	storeAdmin = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	holder     = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func newTestStore() *Store {
	return NewStore(entities.DistributorConfig{
		TokenAddress:  storeToken,
		Administrator: storeAdmin,
		Threshold:     1,
	})
}

func TestIncrementClaimCountIsMonotonic(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for expected := uint64(1); expected <= 3; expected++ {
		count, err := store.IncrementClaimCount(ctx, holder, time.Now())
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != expected {
			t.Fatalf("expected count %d, got %d", expected, count)
		}
	}
	count, err := store.GetClaimCount(ctx, holder)
	if err != nil || count != 3 {
		t.Fatalf("expected stored count 3, got %d (%v)", count, err)
	}

	other, err := store.GetClaimCount(ctx, storeAdmin)
	if err != nil || other != 0 {
		t.Fatalf("expected untouched address at 0, got %d (%v)", other, err)
	}
}

func TestConfigUpdatesAreIndependent(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	if err := store.SetThreshold(ctx, 7); err != nil {
		t.Fatalf("set threshold: %v", err)
	}
	newRoot := common.Hash{0x05}
	if err := store.SetRoot(ctx, newRoot); err != nil {
		t.Fatalf("set root: %v", err)
	}

	config, err := store.GetConfig(ctx)
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if config.Threshold != 7 || config.Root != newRoot {
		t.Fatalf("unexpected config: %+v", config)
	}
	if config.TokenAddress != storeToken || config.Administrator != storeAdmin {
		t.Fatalf("addresses must survive updates: %+v", config)
	}
}

func TestOutboxLifecycle(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, eventType := range []string{"distribution.claimed", "distribution.root_updated"} {
		err := store.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:    string(rune('a' + i)),
			EventType:  eventType,
			OccurredAt: base.Add(time.Duration(i) * time.Second),
			Data:       json.RawMessage(`{}`),
		})
		if err != nil {
			t.Fatalf("append outbox: %v", err)
		}
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}
	if pending[0].EventType != "distribution.claimed" {
		t.Fatalf("expected oldest row first, got %s", pending[0].EventType)
	}

	if err := store.MarkOutboxSent(ctx, pending[0].OutboxID, time.Now()); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending after ack: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "distribution.root_updated" {
		t.Fatalf("expected only the unsent row, got %+v", pending)
	}

	if err := store.MarkOutboxSent(ctx, "missing-id", time.Now()); err == nil {
		t.Fatalf("expected error for unknown outbox id")
	}
}

func TestAppendOutboxDeduplicatesByEventID(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	envelope := ports.EventEnvelope{
		EventID:    "event-1",
		EventType:  "distribution.claimed",
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("duplicate append should be a no-op: %v", err)
	}

	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("expected one row after duplicate append, got %d", len(pending))
	}
}

func TestVaultTransferDebitsPoolAndCreditsRecipient(t *testing.T) {
	vault := NewVault()
	ctx := context.Background()
	vault.Deposit(storeToken, big.NewInt(100))

	if err := vault.Transfer(ctx, storeToken, holder, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	balance, _ := vault.BalanceOf(ctx, storeToken)
	if balance.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected pool balance 60, got %s", balance)
	}
	if credit := vault.CreditOf(storeToken, holder); credit.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected credit 40, got %s", credit)
	}

	err := vault.Transfer(ctx, storeToken, holder, big.NewInt(61))
	if !errors.Is(err, domainerrors.ErrInsufficientVaultBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	err = vault.Transfer(ctx, storeToken, holder, big.NewInt(0))
	if !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount rejection, got %v", err)
	}
}
