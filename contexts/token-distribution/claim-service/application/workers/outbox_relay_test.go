package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/adapters/memory"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/application/workers"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/entities"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/ports"
)

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	fail   bool
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, eventIDs ...string) {
	t.Helper()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, eventID := range eventIDs {
		err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:    eventID,
			EventType:  "distribution.claimed",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
			Data:       json.RawMessage(`{}`),
		})
		if err != nil {
			t.Fatalf("seed outbox: %v", err)
		}
	}
}

func TestRunOncePublishesAndAcksInOrder(t *testing.T) {
	store := memory.NewStore(entities.DistributorConfig{Threshold: 1})
	seedOutbox(t, store, "event-1", "event-2")

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "distribution.events",
		BatchSize: 10,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay cycle should succeed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.events))
	}
	if publisher.events[0].EventID != "event-1" || publisher.events[1].EventID != "event-2" {
		t.Fatalf("expected oldest-first publish order, got %+v", publisher.events)
	}
	for _, topic := range publisher.topics {
		if topic != "distribution.events" {
			t.Fatalf("unexpected topic %s", topic)
		}
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d rows", len(pending))
	}
}

func TestRunOnceLeavesRowPendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore(entities.DistributorConfig{Threshold: 1})
	seedOutbox(t, store, "event-1")

	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: &capturingPublisher{fail: true},
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("failed publish must leave the row pending, got %d rows", len(pending))
	}
}

func TestRunOnceNoopOnEmptyOutbox(t *testing.T) {
	store := memory.NewStore(entities.DistributorConfig{Threshold: 1})
	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("empty cycle should succeed: %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no publishes, got %d", len(publisher.events))
	}
}
