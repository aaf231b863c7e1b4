package workers

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"agora/contexts/governance-core/proposal-engine/adapters/memory"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	"agora/contexts/governance-core/proposal-engine/ports"
)

type capturePublisher struct {
	published []ports.EventEnvelope
	topics    []string
	failAfter int
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, eventIDs ...string) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, eventID := range eventIDs {
		err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:    eventID,
			EventType:  "governance.vote.cast",
			OccurredAt: base.Add(time.Duration(i) * time.Second),
			Data:       json.RawMessage(`{"proposal_id":1}`),
		})
		if err != nil {
			t.Fatalf("seed outbox failed: %v", err)
		}
	}
}

func newOutboxStore() *memory.Store {
	return memory.NewStore(entities.GovernanceParams{
		VotingPeriod:      72 * time.Hour,
		ProposalThreshold: big.NewInt(1),
		QuorumPercentage:  10,
	})
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	store := newOutboxStore()
	seedOutbox(t, store, "evt-1", "evt-2")
	publisher := &capturePublisher{}

	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "governance.events",
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	if publisher.topics[0] != "governance.events" {
		t.Fatalf("expected fixed topic, got %s", publisher.topics[0])
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after relay, got %d rows", len(pending))
	}
}

func TestOutboxRelayFallsBackToEventTypeTopic(t *testing.T) {
	store := newOutboxStore()
	seedOutbox(t, store, "evt-1")
	publisher := &capturePublisher{}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if publisher.topics[0] != "governance.vote.cast" {
		t.Fatalf("expected event type topic, got %s", publisher.topics[0])
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := newOutboxStore()
	seedOutbox(t, store, "evt-1", "evt-2", "evt-3")
	publisher := &capturePublisher{failAfter: 1}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected publish failure to surface")
	}

	// The failed row and everything after it stay pending for the next cycle.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(pending))
	}
}

func TestOutboxRelayNoopOnEmptyOutbox(t *testing.T) {
	store := newOutboxStore()
	publisher := &capturePublisher{}

	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected no publishes, got %d", len(publisher.published))
	}
}
