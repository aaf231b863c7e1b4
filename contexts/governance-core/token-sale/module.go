package tokensale

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/token-sale/adapters/http"
	"agora/contexts/governance-core/token-sale/adapters/memory"
	"agora/contexts/governance-core/token-sale/application/commands"
	"agora/contexts/governance-core/token-sale/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Ledger  *memory.Ledger
}

type Dependencies struct {
	Bridge   ports.PaymentBridge
	Minter   ports.PowerMinter
	Treasury ports.Treasury
	Reader   ports.PowerReader
	Auth     ports.Authorizer
	Guard    ports.MutationGuard
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Outbox   ports.OutboxWriter
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	saleUseCase := commands.SaleUseCase{
		Bridge:   deps.Bridge,
		Minter:   deps.Minter,
		Treasury: deps.Treasury,
		Auth:     deps.Auth,
		Guard:    deps.Guard,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Outbox:   deps.Outbox,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Sale:   saleUseCase,
			Reader: deps.Reader,
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule wires the sale against a fresh ledger. The guard is
// injected so purchases share the same serialization point as the proposal
// engine.
func NewInMemoryModule(mutationGuard ports.MutationGuard, logger *slog.Logger) Module {
	ledger := memory.NewLedger()
	module := NewModule(Dependencies{
		Bridge:   ledger,
		Minter:   ledger,
		Treasury: ledger,
		Reader:   ledger,
		Auth:     ledger,
		Guard:    mutationGuard,
		Clock:    ledger,
		IDGen:    ledger,
		Outbox:   nil,
		Logger:   logger,
	})
	module.Ledger = ledger
	return module
}
