package ports

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"agora/contexts/governance-core/proposal-engine/domain/entities"
)

// ProposalRepository is the durable authority for proposals and votes. It
// holds no business rules; atomicity guarantees live at its seams.
type ProposalRepository interface {
	// InsertProposal allocates the next proposal id and stores the record in
	// one step, so no two creations can observe the same "next id". The first
	// valid id is 1; id 0 means "does not exist".
	InsertProposal(ctx context.Context, proposal entities.Proposal) (uint64, error)
	GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, bool, error)
	ListProposals(ctx context.Context) ([]entities.Proposal, error)
	MarkCanceled(ctx context.Context, proposalID uint64, at time.Time) error
	MarkExecuted(ctx context.Context, proposalID uint64, at time.Time) error

	// RecordVote adds the vote's weight to the matching tally and inserts the
	// vote record as one indivisible write: readers never observe a tally
	// without its vote row or vice versa.
	RecordVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, proposalID uint64, voter string) (entities.Vote, bool, error)
}

// ParamsRepository persists the mutable governance configuration.
type ParamsRepository interface {
	GetParams(ctx context.Context) (entities.GovernanceParams, error)
	SaveParams(ctx context.Context, params entities.GovernanceParams) error
}

// PowerOracle reports live voting power. Delegation and checkpoint mechanics
// are entirely internal to the collaborator behind this seam.
type PowerOracle interface {
	PowerOf(ctx context.Context, account string) (*big.Int, error)
	TotalPower(ctx context.Context) (*big.Int, error)
}

// Authorizer answers administrator checks for gated operations.
type Authorizer interface {
	IsAdmin(ctx context.Context, account string) (bool, error)
}

// MutationGuard serializes every state-mutating operation and carries the
// global pause switch. Lock returns false when the system is paused, in which
// case the lock is not held and the caller fails with its paused error.
type MutationGuard interface {
	Lock() bool
	Unlock()
	Pause() bool
	Resume() bool
	Paused() bool
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope is the audit notification shape appended on every
// state-changing operation. The outbox relay publishes it unchanged, so the
// stream is an append-only log, not a queryable store.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
