package ports

import (
	"context"
	"encoding/json"
	"math/big"
	"time"
)

// PaymentBridge moves the 6-decimal payment asset. Pull debits the buyer and
// credits the sale treasury in one step.
type PaymentBridge interface {
	Pull(ctx context.Context, account string, amount *big.Int) error
}

// PowerMinter credits freshly issued voting power to an account.
type PowerMinter interface {
	Issue(ctx context.Context, account string, amount *big.Int) error
}

// Treasury tracks collected payment-asset proceeds.
type Treasury interface {
	ProceedsBalance(ctx context.Context) (*big.Int, error)
	PayOut(ctx context.Context, to string, amount *big.Int) error
}

// PowerReader exposes ledger balances for read endpoints.
type PowerReader interface {
	PowerOf(ctx context.Context, account string) (*big.Int, error)
	TotalPower(ctx context.Context) (*big.Int, error)
}

type Authorizer interface {
	IsAdmin(ctx context.Context, account string) (bool, error)
}

// MutationGuard is the same global serialization point the proposal engine
// uses; purchases and withdrawals honor the pause switch too.
type MutationGuard interface {
	Lock() bool
	Unlock()
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event EventEnvelope) error
}
