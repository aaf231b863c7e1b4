package commands

import (
	"context"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	application "agora/contexts/governance-core/proposal-engine/application"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	"agora/contexts/governance-core/proposal-engine/ports"
)

// ParamsUseCase applies administrator-only configuration changes and the
// global pause switch. Each update is validated independently and takes
// effect for proposals created afterwards only.
type ParamsUseCase struct {
	Params ports.ParamsRepository
	Auth   ports.Authorizer
	Guard  ports.MutationGuard
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Outbox ports.OutboxWriter
	Logger *slog.Logger
}

func (uc ParamsUseCase) UpdateVotingPeriod(ctx context.Context, caller string, period time.Duration) error {
	if period <= 0 {
		return domainerrors.ErrInvalidParameter
	}
	return uc.update(ctx, caller, "voting_period", period.String(), func(params *paramsDraft) {
		params.VotingPeriod = period
	})
}

func (uc ParamsUseCase) UpdateProposalThreshold(ctx context.Context, caller string, threshold *big.Int) error {
	if threshold == nil || threshold.Sign() <= 0 {
		return domainerrors.ErrInvalidParameter
	}
	return uc.update(ctx, caller, "proposal_threshold", threshold.String(), func(params *paramsDraft) {
		params.ProposalThreshold = new(big.Int).Set(threshold)
	})
}

func (uc ParamsUseCase) UpdateQuorumPercentage(ctx context.Context, caller string, percentage int64) error {
	if percentage <= 0 || percentage > 100 {
		return domainerrors.ErrInvalidParameter
	}
	return uc.update(ctx, caller, "quorum_percentage", strconv.FormatInt(percentage, 10), func(params *paramsDraft) {
		params.QuorumPercentage = percentage
	})
}

// Pause engages the global switch: every mutating operation fails with
// ErrSystemPaused until Resume. Reads stay available throughout.
func (uc ParamsUseCase) Pause(ctx context.Context, caller string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !uc.Guard.Pause() {
		// Already paused; nothing to record.
		return nil
	}
	now := uc.now()
	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.system.paused", 0, now, map[string]any{
		"paused_by": strings.TrimSpace(caller),
	}); err != nil {
		return err
	}
	logger.Info("system paused",
		"event", "governance_system_paused",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"paused_by", strings.TrimSpace(caller),
	)
	return nil
}

func (uc ParamsUseCase) Resume(ctx context.Context, caller string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !uc.Guard.Resume() {
		return nil
	}
	now := uc.now()
	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.system.resumed", 0, now, map[string]any{
		"resumed_by": strings.TrimSpace(caller),
	}); err != nil {
		return err
	}
	logger.Info("system resumed",
		"event", "governance_system_resumed",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"resumed_by", strings.TrimSpace(caller),
	)
	return nil
}

type paramsDraft struct {
	VotingPeriod      time.Duration
	ProposalThreshold *big.Int
	QuorumPercentage  int64
}

func (uc ParamsUseCase) update(
	ctx context.Context,
	caller string,
	field string,
	value string,
	apply func(*paramsDraft),
) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.requireAdmin(ctx, caller); err != nil {
		return err
	}

	if !uc.Guard.Lock() {
		return domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	now := uc.now()
	current, err := uc.Params.GetParams(ctx)
	if err != nil {
		return err
	}
	draft := paramsDraft{
		VotingPeriod:      current.VotingPeriod,
		ProposalThreshold: current.ProposalThreshold,
		QuorumPercentage:  current.QuorumPercentage,
	}
	apply(&draft)
	current.VotingPeriod = draft.VotingPeriod
	current.ProposalThreshold = draft.ProposalThreshold
	current.QuorumPercentage = draft.QuorumPercentage
	current.UpdatedAt = now
	if err := uc.Params.SaveParams(ctx, current); err != nil {
		return err
	}

	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.params.updated", 0, now, map[string]any{
		"field":      field,
		"value":      value,
		"updated_by": strings.TrimSpace(caller),
	}); err != nil {
		return err
	}
	logger.Info("governance parameter updated",
		"event", "governance_params_updated",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"field", field,
		"value", value,
		"updated_by", strings.TrimSpace(caller),
	)
	return nil
}

func (uc ParamsUseCase) requireAdmin(ctx context.Context, caller string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return domainerrors.ErrNotAuthorized
	}
	admin, err := uc.Auth.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return domainerrors.ErrNotAuthorized
	}
	return nil
}

func (uc ParamsUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
