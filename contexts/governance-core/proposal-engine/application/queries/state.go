package queries

import (
	"context"
	"math/big"
	"strings"
	"time"

	"agora/contexts/governance-core/proposal-engine/domain/entities"
	"agora/contexts/governance-core/proposal-engine/ports"
)

// StateUseCase serves read-only projections over the proposal store, the
// power oracle, and the governance parameters. Queries never mutate and, per
// the engine contract, never fail on a merely nonexistent id: they return a
// zero record the caller checks via the id field.
type StateUseCase struct {
	Proposals ports.ProposalRepository
	Params    ports.ParamsRepository
	Oracle    ports.PowerOracle
	Clock     ports.Clock
}

// GetProposal returns the stored record, or a zero record when unknown.
func (uc StateUseCase) GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, error) {
	proposal, found, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if !found {
		return entities.Proposal{}, nil
	}
	return proposal, nil
}

// ProposalState derives the lifecycle state at the current instant.
func (uc StateUseCase) ProposalState(ctx context.Context, proposalID uint64) (entities.ProposalState, error) {
	proposal, found, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	reached, err := uc.reachedQuorum(ctx, proposal)
	if err != nil {
		return "", err
	}
	return entities.DeriveState(proposal, uc.now(), reached), nil
}

// UserVote returns the recorded vote for (proposal, account), or a zero
// record with HasVoted=false when the account never voted.
func (uc StateUseCase) UserVote(ctx context.Context, proposalID uint64, account string) (entities.Vote, error) {
	vote, found, err := uc.Proposals.GetVote(ctx, proposalID, strings.TrimSpace(account))
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, nil
	}
	return vote, nil
}

// QuorumRequired is floor(totalPower * quorumPercentage / 100) over the
// oracle's supply at call time; it shifts as supply changes rather than
// being snapshotted at proposal creation.
func (uc StateUseCase) QuorumRequired(ctx context.Context) (*big.Int, error) {
	params, err := uc.Params.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	totalPower, err := uc.Oracle.TotalPower(ctx)
	if err != nil {
		return nil, err
	}
	return entities.QuorumRequired(totalPower, params.QuorumPercentage), nil
}

// HasReachedQuorum reports whether the proposal's FOR tally meets the live
// quorum requirement. Against votes never count toward quorum.
func (uc StateUseCase) HasReachedQuorum(ctx context.Context, proposalID uint64) (bool, error) {
	proposal, found, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil || !found {
		return false, err
	}
	return uc.reachedQuorum(ctx, proposal)
}

// TotalVotes is the combined weight cast on the proposal.
func (uc StateUseCase) TotalVotes(ctx context.Context, proposalID uint64) (*big.Int, error) {
	proposal, found, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !found {
		return new(big.Int), nil
	}
	return proposal.TotalVotes(), nil
}

// IsVotingActive reports whether the proposal currently accepts votes.
func (uc StateUseCase) IsVotingActive(ctx context.Context, proposalID uint64) (bool, error) {
	proposal, found, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil || !found {
		return false, err
	}
	if proposal.Canceled || proposal.Executed {
		return false, nil
	}
	now := uc.now()
	return !now.Before(proposal.StartTime) && !now.After(proposal.EndTime), nil
}

// CurrentParams exposes the live configuration.
func (uc StateUseCase) CurrentParams(ctx context.Context) (entities.GovernanceParams, error) {
	return uc.Params.GetParams(ctx)
}

// ListProposals returns all proposals ordered by id.
func (uc StateUseCase) ListProposals(ctx context.Context) ([]entities.Proposal, error) {
	return uc.Proposals.ListProposals(ctx)
}

func (uc StateUseCase) reachedQuorum(ctx context.Context, proposal entities.Proposal) (bool, error) {
	params, err := uc.Params.GetParams(ctx)
	if err != nil {
		return false, err
	}
	totalPower, err := uc.Oracle.TotalPower(ctx)
	if err != nil {
		return false, err
	}
	required := entities.QuorumRequired(totalPower, params.QuorumPercentage)
	return entities.ReachedQuorum(proposal, required), nil
}

func (uc StateUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
