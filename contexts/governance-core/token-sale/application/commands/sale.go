package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"time"

	domainerrors "agora/contexts/governance-core/token-sale/domain/errors"
	"agora/contexts/governance-core/token-sale/ports"
)

// powerScale rescales the 6-decimal payment unit to the 18-decimal voting
// unit: 10^12.
var powerScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

// PurchaseCommand buys voting power with the payment asset.
type PurchaseCommand struct {
	Account       string
	PaymentAmount *big.Int
}

// PurchaseResult reports the credited voting power.
type PurchaseResult struct {
	Account       string
	PaymentAmount *big.Int
	PowerCredited *big.Int
}

// WithdrawCommand pays collected proceeds out of the treasury.
type WithdrawCommand struct {
	Caller string
	To     string
	Amount *big.Int
}

// SaleUseCase orchestrates purchases and treasury withdrawals under the
// global mutation guard.
type SaleUseCase struct {
	Bridge   ports.PaymentBridge
	Minter   ports.PowerMinter
	Treasury ports.Treasury
	Auth     ports.Authorizer
	Guard    ports.MutationGuard
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Outbox   ports.OutboxWriter
	Logger   *slog.Logger
}

// Purchase pulls the payment asset and credits voting power 1:1 after the
// decimal rescale. The pull and the issue run inside one critical section,
// so no proposal or vote can observe power mid-credit.
func (uc SaleUseCase) Purchase(ctx context.Context, cmd PurchaseCommand) (PurchaseResult, error) {
	logger := uc.logger()
	account := strings.TrimSpace(cmd.Account)
	if account == "" {
		return PurchaseResult{}, domainerrors.ErrInvalidAccount
	}
	if cmd.PaymentAmount == nil || cmd.PaymentAmount.Sign() <= 0 {
		return PurchaseResult{}, domainerrors.ErrZeroAmount
	}

	if !uc.Guard.Lock() {
		return PurchaseResult{}, domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	now := uc.now()
	if err := uc.Bridge.Pull(ctx, account, cmd.PaymentAmount); err != nil {
		return PurchaseResult{}, err
	}
	credited := new(big.Int).Mul(cmd.PaymentAmount, powerScale)
	if err := uc.Minter.Issue(ctx, account, credited); err != nil {
		return PurchaseResult{}, err
	}

	if err := uc.appendEvent(ctx, "governance.tokens.purchased", account, now, map[string]any{
		"account":        account,
		"payment_amount": cmd.PaymentAmount.String(),
		"power_credited": credited.String(),
	}); err != nil {
		return PurchaseResult{}, err
	}

	logger.Info("tokens purchased",
		"event", "sale_tokens_purchased",
		"module", "governance-core/token-sale",
		"layer", "application",
		"account", account,
		"payment_amount", cmd.PaymentAmount.String(),
		"power_credited", credited.String(),
	)
	return PurchaseResult{
		Account:       account,
		PaymentAmount: new(big.Int).Set(cmd.PaymentAmount),
		PowerCredited: credited,
	}, nil
}

// Withdraw pays proceeds to the given account. Administrator only.
func (uc SaleUseCase) Withdraw(ctx context.Context, cmd WithdrawCommand) error {
	logger := uc.logger()
	caller := strings.TrimSpace(cmd.Caller)
	to := strings.TrimSpace(cmd.To)
	if caller == "" || to == "" {
		return domainerrors.ErrInvalidAccount
	}
	if cmd.Amount == nil || cmd.Amount.Sign() <= 0 {
		return domainerrors.ErrZeroAmount
	}
	admin, err := uc.Auth.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return domainerrors.ErrNotAuthorized
	}

	if !uc.Guard.Lock() {
		return domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	now := uc.now()
	balance, err := uc.Treasury.ProceedsBalance(ctx)
	if err != nil {
		return err
	}
	if balance.Cmp(cmd.Amount) < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	if err := uc.Treasury.PayOut(ctx, to, cmd.Amount); err != nil {
		return err
	}

	if err := uc.appendEvent(ctx, "governance.proceeds.withdrawn", to, now, map[string]any{
		"withdrawn_by": caller,
		"to":           to,
		"amount":       cmd.Amount.String(),
	}); err != nil {
		return err
	}

	logger.Info("proceeds withdrawn",
		"event", "sale_proceeds_withdrawn",
		"module", "governance-core/token-sale",
		"layer", "application",
		"withdrawn_by", caller,
		"to", to,
		"amount", cmd.Amount.String(),
	)
	return nil
}

func (uc SaleUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "token-sale",
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	})
}

func (uc SaleUseCase) logger() *slog.Logger {
	if uc.Logger == nil {
		return slog.Default()
	}
	return uc.Logger
}

func (uc SaleUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
