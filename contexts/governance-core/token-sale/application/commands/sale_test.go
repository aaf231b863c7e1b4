package commands

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"agora/contexts/governance-core/token-sale/adapters/memory"
	domainerrors "agora/contexts/governance-core/token-sale/domain/errors"
	"agora/internal/shared/guard"
)

func newSale() (*memory.Ledger, SaleUseCase) {
	ledger := memory.NewLedger()
	return ledger, SaleUseCase{
		Bridge:   ledger,
		Minter:   ledger,
		Treasury: ledger,
		Auth:     ledger,
		Guard:    guard.New(),
		Clock:    ledger,
		IDGen:    ledger,
	}
}

func TestPurchaseRescalesToVotingDecimals(t *testing.T) {
	ledger, sale := newSale()
	ledger.SetPaymentBalance("alice", big.NewInt(1_000_000))

	result, err := sale.Purchase(context.Background(), PurchaseCommand{
		Account:       "alice",
		PaymentAmount: big.NewInt(250),
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	// 250 six-decimal units become 250 * 10^12 eighteen-decimal units.
	want, _ := new(big.Int).SetString("250000000000000", 10)
	if result.PowerCredited.Cmp(want) != 0 {
		t.Fatalf("expected %s credited, got %s", want, result.PowerCredited)
	}

	power, err := ledger.PowerOf(context.Background(), "alice")
	if err != nil {
		t.Fatalf("power lookup failed: %v", err)
	}
	if power.Cmp(want) != 0 {
		t.Fatalf("expected ledger power %s, got %s", want, power)
	}
	total, err := ledger.TotalPower(context.Background())
	if err != nil {
		t.Fatalf("total power lookup failed: %v", err)
	}
	if total.Cmp(want) != 0 {
		t.Fatalf("expected total supply %s, got %s", want, total)
	}

	proceeds, err := ledger.ProceedsBalance(context.Background())
	if err != nil {
		t.Fatalf("proceeds lookup failed: %v", err)
	}
	if proceeds.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected proceeds 250, got %s", proceeds)
	}
}

func TestPurchaseValidation(t *testing.T) {
	ledger, sale := newSale()
	ledger.SetPaymentBalance("alice", big.NewInt(100))
	ctx := context.Background()

	if _, err := sale.Purchase(ctx, PurchaseCommand{Account: "", PaymentAmount: big.NewInt(1)}); !errors.Is(err, domainerrors.ErrInvalidAccount) {
		t.Fatalf("expected invalid account, got %v", err)
	}
	if _, err := sale.Purchase(ctx, PurchaseCommand{Account: "alice", PaymentAmount: big.NewInt(0)}); !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount, got %v", err)
	}
	if _, err := sale.Purchase(ctx, PurchaseCommand{Account: "alice", PaymentAmount: nil}); !errors.Is(err, domainerrors.ErrZeroAmount) {
		t.Fatalf("expected zero amount for nil, got %v", err)
	}
	if _, err := sale.Purchase(ctx, PurchaseCommand{Account: "alice", PaymentAmount: big.NewInt(101)}); !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestWithdrawAdminOnly(t *testing.T) {
	ledger, sale := newSale()
	ledger.SetPaymentBalance("alice", big.NewInt(1000))
	ctx := context.Background()

	if _, err := sale.Purchase(ctx, PurchaseCommand{Account: "alice", PaymentAmount: big.NewInt(600)}); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	err := sale.Withdraw(ctx, WithdrawCommand{Caller: "alice", To: "ops", Amount: big.NewInt(100)})
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}

	ledger.SetAdmin("root")
	if err := sale.Withdraw(ctx, WithdrawCommand{Caller: "root", To: "ops", Amount: big.NewInt(100)}); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	proceeds, err := ledger.ProceedsBalance(ctx)
	if err != nil {
		t.Fatalf("proceeds lookup failed: %v", err)
	}
	if proceeds.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected proceeds 500, got %s", proceeds)
	}
	balance, err := ledger.PaymentBalanceOf(ctx, "ops")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected ops balance 100, got %s", balance)
	}
}

func TestWithdrawOverdraftRejected(t *testing.T) {
	ledger, sale := newSale()
	ledger.SetPaymentBalance("alice", big.NewInt(1000))
	ledger.SetAdmin("root")
	ctx := context.Background()

	if _, err := sale.Purchase(ctx, PurchaseCommand{Account: "alice", PaymentAmount: big.NewInt(200)}); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	err := sale.Withdraw(ctx, WithdrawCommand{Caller: "root", To: "ops", Amount: big.NewInt(201)})
	if !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestPurchaseBlockedWhilePaused(t *testing.T) {
	ledger, sale := newSale()
	ledger.SetPaymentBalance("alice", big.NewInt(1000))

	g := guard.New()
	g.Pause()
	sale.Guard = g

	_, err := sale.Purchase(context.Background(), PurchaseCommand{
		Account:       "alice",
		PaymentAmount: big.NewInt(10),
	})
	if !errors.Is(err, domainerrors.ErrSystemPaused) {
		t.Fatalf("expected system paused, got %v", err)
	}
}
