package proposalengine

import (
	"log/slog"

	httpadapter "agora/contexts/governance-core/proposal-engine/adapters/http"
	"agora/contexts/governance-core/proposal-engine/adapters/memory"
	"agora/contexts/governance-core/proposal-engine/application/commands"
	"agora/contexts/governance-core/proposal-engine/application/queries"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	"agora/contexts/governance-core/proposal-engine/ports"
	"agora/internal/shared/guard"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Guard   ports.MutationGuard
}

type Dependencies struct {
	Proposals ports.ProposalRepository
	Params    ports.ParamsRepository
	Oracle    ports.PowerOracle
	Auth      ports.Authorizer
	Guard     ports.MutationGuard
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Outbox    ports.OutboxWriter
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	proposalUseCase := commands.ProposalUseCase{
		Proposals: deps.Proposals,
		Params:    deps.Params,
		Oracle:    deps.Oracle,
		Auth:      deps.Auth,
		Guard:     deps.Guard,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Outbox:    deps.Outbox,
		Logger:    deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Proposals: deps.Proposals,
		Oracle:    deps.Oracle,
		Guard:     deps.Guard,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Outbox:    deps.Outbox,
		Logger:    deps.Logger,
	}
	paramsUseCase := commands.ParamsUseCase{
		Params: deps.Params,
		Auth:   deps.Auth,
		Guard:  deps.Guard,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Outbox: deps.Outbox,
		Logger: deps.Logger,
	}
	stateUseCase := queries.StateUseCase{
		Proposals: deps.Proposals,
		Params:    deps.Params,
		Oracle:    deps.Oracle,
		Clock:     deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Proposals: proposalUseCase,
			Votes:     voteUseCase,
			Params:    paramsUseCase,
			Queries:   stateUseCase,
			Logger:    deps.Logger,
		},
		Guard: deps.Guard,
	}
}

// NewInMemoryModule wires the engine against the in-memory store for tests
// and DSN-less runs. The store doubles as oracle, authorizer, clock, and id
// generator.
func NewInMemoryModule(params entities.GovernanceParams, logger *slog.Logger) Module {
	store := memory.NewStore(params)
	module := NewModule(Dependencies{
		Proposals: store,
		Params:    store,
		Oracle:    store,
		Auth:      store,
		Guard:     guard.New(),
		Clock:     store,
		IDGen:     store,
		Outbox:    store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
