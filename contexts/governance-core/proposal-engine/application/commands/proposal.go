package commands

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	application "agora/contexts/governance-core/proposal-engine/application"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	"agora/contexts/governance-core/proposal-engine/ports"
)

// CreateProposalCommand is the write-model input for proposal creation.
type CreateProposalCommand struct {
	Proposer    string
	Description string
	StartTime   time.Time
}

// CancelProposalCommand withdraws a proposal strictly before voting opens.
type CancelProposalCommand struct {
	ProposalID uint64
	Caller     string
}

// ExecuteProposalCommand marks a Succeeded proposal Executed.
type ExecuteProposalCommand struct {
	ProposalID uint64
	Caller     string
}

// ProposalUseCase owns proposal lifecycle transitions: creation, cancellation
// and execution. Execution is the only write gated by the full derived state
// rather than by raw flags.
type ProposalUseCase struct {
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

// CreateProposal checks the proposer's power against the threshold captured
// right now, stamps the voting window from the current voting period, and
// inserts the record with its id allocated atomically.
func (uc ProposalUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposer := strings.TrimSpace(cmd.Proposer)
	if proposer == "" || strings.TrimSpace(cmd.Description) == "" {
		logger.Warn("proposal create validation failed",
			"event", "governance_proposal_create_validation_failed",
			"module", "governance-core/proposal-engine",
			"layer", "application",
			"proposer", proposer,
		)
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}

	if !uc.Guard.Lock() {
		return entities.Proposal{}, domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	now := uc.now()
	if cmd.StartTime.Before(now) {
		return entities.Proposal{}, domainerrors.ErrInvalidStartTime
	}

	params, err := uc.Params.GetParams(ctx)
	if err != nil {
		return entities.Proposal{}, err
	}
	power, err := uc.Oracle.PowerOf(ctx, proposer)
	if err != nil {
		return entities.Proposal{}, err
	}
	if power == nil || power.Cmp(params.ProposalThreshold) < 0 {
		return entities.Proposal{}, domainerrors.ErrInsufficientPower
	}

	start := cmd.StartTime.UTC()
	proposal := entities.Proposal{
		Proposer:     proposer,
		Description:  strings.TrimSpace(cmd.Description),
		StartTime:    start,
		EndTime:      start.Add(params.VotingPeriod),
		ForVotes:     new(big.Int),
		AgainstVotes: new(big.Int),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	proposalID, err := uc.Proposals.InsertProposal(ctx, proposal)
	if err != nil {
		return entities.Proposal{}, err
	}
	proposal.ProposalID = proposalID

	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.proposal.created", proposalID, now, map[string]any{
		"proposal_id": proposalID,
		"proposer":    proposer,
		"description": proposal.Description,
		"start_time":  proposal.StartTime.Format(time.RFC3339),
		"end_time":    proposal.EndTime.Format(time.RFC3339),
	}); err != nil {
		return entities.Proposal{}, err
	}

	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"proposal_id", proposalID,
		"proposer", proposer,
		"start_time", proposal.StartTime.Format(time.RFC3339),
		"end_time", proposal.EndTime.Format(time.RFC3339),
	)
	return proposal, nil
}

// CancelProposal sets the one-way canceled flag. Only the proposer or an
// administrator may cancel, and only strictly before voting opens; a proposal
// can never be withdrawn once votes may have been cast.
func (uc ProposalUseCase) CancelProposal(ctx context.Context, cmd CancelProposalCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	caller := strings.TrimSpace(cmd.Caller)
	if caller == "" || cmd.ProposalID == 0 {
		return domainerrors.ErrInvalidProposalInput
	}

	if !uc.Guard.Lock() {
		return domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	now := uc.now()
	proposal, found, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrProposalNotFound
	}

	if !strings.EqualFold(proposal.Proposer, caller) {
		admin, err := uc.Auth.IsAdmin(ctx, caller)
		if err != nil {
			return err
		}
		if !admin {
			return domainerrors.ErrNotAuthorized
		}
	}
	if !now.Before(proposal.StartTime) {
		return domainerrors.ErrVotingAlreadyStarted
	}
	if proposal.Canceled {
		return domainerrors.ErrAlreadyCanceled
	}
	if proposal.Executed {
		return domainerrors.ErrAlreadyExecuted
	}

	if err := uc.Proposals.MarkCanceled(ctx, cmd.ProposalID, now); err != nil {
		return err
	}
	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.proposal.canceled", cmd.ProposalID, now, map[string]any{
		"proposal_id": cmd.ProposalID,
		"canceled_by": caller,
	}); err != nil {
		return err
	}

	logger.Info("proposal canceled",
		"event", "governance_proposal_canceled",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"proposal_id", cmd.ProposalID,
		"canceled_by", caller,
	)
	return nil
}

// ExecuteProposal flips the executed flag once the derived state is exactly
// Succeeded. What the proposal does once executed is outside this engine.
func (uc ProposalUseCase) ExecuteProposal(ctx context.Context, cmd ExecuteProposalCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	caller := strings.TrimSpace(cmd.Caller)
	if caller == "" || cmd.ProposalID == 0 {
		return domainerrors.ErrInvalidProposalInput
	}

	if !uc.Guard.Lock() {
		return domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	admin, err := uc.Auth.IsAdmin(ctx, caller)
	if err != nil {
		return err
	}
	if !admin {
		return domainerrors.ErrNotAuthorized
	}

	now := uc.now()
	proposal, found, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrProposalNotFound
	}
	if proposal.Executed {
		return domainerrors.ErrAlreadyExecuted
	}

	params, err := uc.Params.GetParams(ctx)
	if err != nil {
		return err
	}
	totalPower, err := uc.Oracle.TotalPower(ctx)
	if err != nil {
		return err
	}
	required := entities.QuorumRequired(totalPower, params.QuorumPercentage)
	state := entities.DeriveState(proposal, now, entities.ReachedQuorum(proposal, required))
	if state != entities.StateSucceeded {
		logger.Warn("proposal execution rejected",
			"event", "governance_proposal_execute_rejected",
			"module", "governance-core/proposal-engine",
			"layer", "application",
			"proposal_id", cmd.ProposalID,
			"state", string(state),
		)
		return domainerrors.ErrProposalNotSucceeded
	}

	if err := uc.Proposals.MarkExecuted(ctx, cmd.ProposalID, now); err != nil {
		return err
	}
	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.proposal.executed", cmd.ProposalID, now, map[string]any{
		"proposal_id":   cmd.ProposalID,
		"executed_by":   caller,
		"for_votes":     proposal.ForVotes.String(),
		"against_votes": proposal.AgainstVotes.String(),
	}); err != nil {
		return err
	}

	logger.Info("proposal executed",
		"event", "governance_proposal_executed",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"proposal_id", cmd.ProposalID,
		"executed_by", caller,
	)
	return nil
}

func (uc ProposalUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
