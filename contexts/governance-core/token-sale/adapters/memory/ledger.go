package memory

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	domainerrors "agora/contexts/governance-core/token-sale/domain/errors"
	"agora/contexts/governance-core/token-sale/ports"

	"github.com/google/uuid"
)

// Ledger is the in-memory balance authority: payment-asset balances, issued
// voting power, and collected proceeds. It also satisfies the proposal
// engine's power oracle, so both modules read the same supply.
type Ledger struct {
	mu sync.RWMutex

	payment    map[string]*big.Int
	power      map[string]*big.Int
	totalPower *big.Int
	proceeds   *big.Int
	admins     map[string]bool

	now time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		payment:    make(map[string]*big.Int),
		power:      make(map[string]*big.Int),
		totalPower: new(big.Int),
		proceeds:   new(big.Int),
		admins:     make(map[string]bool),
	}
}

// SetPaymentBalance seeds a buyer's payment-asset balance.
func (l *Ledger) SetPaymentBalance(account string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payment[strings.TrimSpace(account)] = new(big.Int).Set(amount)
}

// SetAdmin marks an account as administrator.
func (l *Ledger) SetAdmin(account string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admins[strings.TrimSpace(account)] = true
}

// SetNow pins the clock; a zero value restores wall time.
func (l *Ledger) SetNow(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *Ledger) Pull(_ context.Context, account string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := strings.TrimSpace(account)
	balance, ok := l.payment[key]
	if !ok || balance.Cmp(amount) < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	l.payment[key] = new(big.Int).Sub(balance, amount)
	l.proceeds = new(big.Int).Add(l.proceeds, amount)
	return nil
}

func (l *Ledger) Issue(_ context.Context, account string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := strings.TrimSpace(account)
	current, ok := l.power[key]
	if !ok {
		current = new(big.Int)
	}
	l.power[key] = new(big.Int).Add(current, amount)
	l.totalPower = new(big.Int).Add(l.totalPower, amount)
	return nil
}

func (l *Ledger) ProceedsBalance(_ context.Context) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.proceeds), nil
}

func (l *Ledger) PayOut(_ context.Context, to string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.proceeds.Cmp(amount) < 0 {
		return domainerrors.ErrInsufficientBalance
	}
	l.proceeds = new(big.Int).Sub(l.proceeds, amount)
	key := strings.TrimSpace(to)
	balance, ok := l.payment[key]
	if !ok {
		balance = new(big.Int)
	}
	l.payment[key] = new(big.Int).Add(balance, amount)
	return nil
}

func (l *Ledger) PowerOf(_ context.Context, account string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	power, ok := l.power[strings.TrimSpace(account)]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(power), nil
}

func (l *Ledger) TotalPower(_ context.Context) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalPower), nil
}

func (l *Ledger) PaymentBalanceOf(_ context.Context, account string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.payment[strings.TrimSpace(account)]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}

func (l *Ledger) IsAdmin(_ context.Context, account string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.admins[strings.TrimSpace(account)], nil
}

func (l *Ledger) Now() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.now.IsZero() {
		return time.Now().UTC()
	}
	return l.now
}

func (l *Ledger) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.PaymentBridge = (*Ledger)(nil)
var _ ports.PowerMinter = (*Ledger)(nil)
var _ ports.Treasury = (*Ledger)(nil)
var _ ports.PowerReader = (*Ledger)(nil)
var _ ports.Authorizer = (*Ledger)(nil)
