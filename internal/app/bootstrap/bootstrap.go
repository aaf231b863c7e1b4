package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	proposalengine "agora/contexts/governance-core/proposal-engine"
	pememory "agora/contexts/governance-core/proposal-engine/adapters/memory"
	pepostgres "agora/contexts/governance-core/proposal-engine/adapters/postgres"
	workerapp "agora/contexts/governance-core/proposal-engine/application/workers"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	peports "agora/contexts/governance-core/proposal-engine/ports"
	tokensale "agora/contexts/governance-core/token-sale"
	tsmemory "agora/contexts/governance-core/token-sale/adapters/memory"
	tsports "agora/contexts/governance-core/token-sale/ports"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"
	"agora/internal/shared/guard"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	mutationGuard := guard.New()

	ledger := tsmemory.NewLedger()
	if cfg.AdminAccount != "" {
		ledger.SetAdmin(cfg.AdminAccount)
	}

	params := entities.GovernanceParams{
		VotingPeriod:      cfg.VotingPeriod,
		ProposalThreshold: cfg.ProposalThreshold,
		QuorumPercentage:  cfg.QuorumPercentage,
		UpdatedAt:         time.Now().UTC(),
	}

	var (
		pg        *db.Postgres
		govModule proposalengine.Module
		govOutbox peports.OutboxWriter
		clock     peports.Clock
		idGen     peports.IDGenerator
	)

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		repo := pepostgres.NewRepository(pg.DB, logger)
		if err := seedParams(context.Background(), repo, params); err != nil {
			_ = pg.Close()
			return nil, err
		}

		clock = pepostgres.SystemClock{}
		idGen = pepostgres.UUIDGenerator{}
		govOutbox = repo
		govModule = proposalengine.NewModule(proposalengine.Dependencies{
			Proposals: repo,
			Params:    repo,
			Oracle:    ledger,
			Auth:      ledger,
			Guard:     mutationGuard,
			Clock:     clock,
			IDGen:     idGen,
			Outbox:    repo,
			Logger:    logger,
		})
	} else {
		store := pememory.NewStore(params)
		if cfg.AdminAccount != "" {
			store.SetAdmin(cfg.AdminAccount)
		}

		clock = store
		idGen = store
		govOutbox = store
		govModule = proposalengine.NewModule(proposalengine.Dependencies{
			Proposals: store,
			Params:    store,
			Oracle:    ledger,
			Auth:      ledger,
			Guard:     mutationGuard,
			Clock:     clock,
			IDGen:     idGen,
			Outbox:    store,
			Logger:    logger,
		})
		govModule.Store = store
	}

	saleModule := tokensale.NewModule(tokensale.Dependencies{
		Bridge:   ledger,
		Minter:   ledger,
		Treasury: ledger,
		Reader:   ledger,
		Auth:     ledger,
		Guard:    mutationGuard,
		Clock:    clock,
		IDGen:    idGen,
		Outbox:   saleOutbox{sink: govOutbox},
		Logger:   logger,
	})
	saleModule.Ledger = ledger

	server := httpserver.New(govModule, saleModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := pepostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     pepostgres.SystemClock{},
			Topic:     "governance.events",
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// seedParams writes the configured defaults exactly once. Later restarts keep
// whatever the admins have set since.
func seedParams(ctx context.Context, repo *pepostgres.Repository, params entities.GovernanceParams) error {
	_, err := repo.GetParams(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainerrors.ErrInvalidParameter) {
		return err
	}
	return repo.SaveParams(ctx, params)
}

// saleOutbox forwards sale events into the governance outbox. The two
// contexts declare envelope types independently, so the hop is field by field.
type saleOutbox struct {
	sink peports.OutboxWriter
}

func (o saleOutbox) AppendOutbox(ctx context.Context, event tsports.EventEnvelope) error {
	if o.sink == nil {
		return nil
	}
	return o.sink.AppendOutbox(ctx, peports.EventEnvelope{
		EventID:       event.EventID,
		EventType:     event.EventType,
		OccurredAt:    event.OccurredAt,
		SourceService: event.SourceService,
		SchemaVersion: event.SchemaVersion,
		PartitionKey:  event.PartitionKey,
		Data:          event.Data,
	})
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
