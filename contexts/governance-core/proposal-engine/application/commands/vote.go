package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/governance-core/proposal-engine/application"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	"agora/contexts/governance-core/proposal-engine/ports"
)

// CastVoteCommand is the write-model input for vote casting.
type CastVoteCommand struct {
	ProposalID uint64
	Voter      string
	Support    bool
}

// VoteUseCase records one vote per (proposal, voter) pair. Weight is read
// from the power oracle exactly once, inside the mutation critical section,
// and frozen on the vote record.
type VoteUseCase struct {
	Proposals ports.ProposalRepository
	Oracle    ports.PowerOracle
	Guard     ports.MutationGuard
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Outbox    ports.OutboxWriter
	Logger    *slog.Logger
}

// CastVote validates the proposal window and flags, captures the caller's
// current voting power, and commits the tally bump and vote record as one
// atomic repository write. Votes are immutable once cast; a second attempt
// by the same account always fails with ErrAlreadyVoted.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	voter := strings.TrimSpace(cmd.Voter)
	if voter == "" || cmd.ProposalID == 0 {
		logger.Warn("vote cast validation failed",
			"event", "governance_vote_cast_validation_failed",
			"module", "governance-core/proposal-engine",
			"layer", "application",
			"proposal_id", cmd.ProposalID,
			"voter", voter,
		)
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}

	if !uc.Guard.Lock() {
		return entities.Vote{}, domainerrors.ErrSystemPaused
	}
	defer uc.Guard.Unlock()

	now := uc.now()
	proposal, found, err := uc.Proposals.GetProposal(ctx, cmd.ProposalID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrProposalNotFound
	}
	// The vote window matches the state machine's Active window exactly:
	// [StartTime, EndTime], closed strictly after EndTime.
	if now.Before(proposal.StartTime) {
		return entities.Vote{}, domainerrors.ErrVotingNotStarted
	}
	if now.After(proposal.EndTime) {
		return entities.Vote{}, domainerrors.ErrVotingEnded
	}
	if proposal.Canceled {
		return entities.Vote{}, domainerrors.ErrProposalCanceled
	}
	if proposal.Executed {
		return entities.Vote{}, domainerrors.ErrProposalExecuted
	}

	if existing, voted, err := uc.Proposals.GetVote(ctx, cmd.ProposalID, voter); err != nil {
		return entities.Vote{}, err
	} else if voted && existing.HasVoted {
		return entities.Vote{}, domainerrors.ErrAlreadyVoted
	}

	power, err := uc.Oracle.PowerOf(ctx, voter)
	if err != nil {
		logger.Error("vote cast power lookup failed",
			"event", "governance_vote_cast_power_lookup_failed",
			"module", "governance-core/proposal-engine",
			"layer", "application",
			"proposal_id", cmd.ProposalID,
			"voter", voter,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}
	if power == nil || power.Sign() <= 0 {
		return entities.Vote{}, domainerrors.ErrNoVotingPower
	}

	vote := entities.Vote{
		ProposalID: cmd.ProposalID,
		Voter:      voter,
		Support:    cmd.Support,
		Weight:     power,
		HasVoted:   true,
		CastAt:     now,
	}
	if err := uc.Proposals.RecordVote(ctx, vote); err != nil {
		return entities.Vote{}, err
	}
	if err := appendGovernanceEvent(ctx, uc.Outbox, uc.IDGen, "governance.vote.cast", cmd.ProposalID, now, map[string]any{
		"proposal_id": cmd.ProposalID,
		"voter":       voter,
		"support":     cmd.Support,
		"weight":      power.String(),
	}); err != nil {
		return entities.Vote{}, err
	}

	logger.Info("vote cast",
		"event", "governance_vote_cast",
		"module", "governance-core/proposal-engine",
		"layer", "application",
		"proposal_id", cmd.ProposalID,
		"voter", voter,
		"support", cmd.Support,
		"weight", power.String(),
	)
	return vote, nil
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
