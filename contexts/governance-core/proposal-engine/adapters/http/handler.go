package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"agora/contexts/governance-core/proposal-engine/application/commands"
	"agora/contexts/governance-core/proposal-engine/application/queries"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	httptransport "agora/contexts/governance-core/proposal-engine/transport/http"
)

type Handler struct {
	Proposals commands.ProposalUseCase
	Votes     commands.VoteUseCase
	Params    commands.ParamsUseCase
	Queries   queries.StateUseCase
	Logger    *slog.Logger
}

func (h Handler) CreateProposalHandler(
	ctx context.Context,
	proposer string,
	req httptransport.CreateProposalRequest,
) (httptransport.ProposalResponse, error) {
	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return httptransport.ProposalResponse{}, domainerrors.ErrInvalidProposalInput
	}
	proposal, err := h.Proposals.CreateProposal(ctx, commands.CreateProposalCommand{
		Proposer:    proposer,
		Description: req.Description,
		StartTime:   startTime,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) CancelProposalHandler(ctx context.Context, proposalID uint64, caller string) error {
	return h.Proposals.CancelProposal(ctx, commands.CancelProposalCommand{
		ProposalID: proposalID,
		Caller:     caller,
	})
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	proposalID uint64,
	voter string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	if req.Support == nil {
		return httptransport.VoteResponse{}, domainerrors.ErrInvalidVoteInput
	}
	vote, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		ProposalID: proposalID,
		Voter:      voter,
		Support:    *req.Support,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) ExecuteProposalHandler(ctx context.Context, proposalID uint64, caller string) error {
	return h.Proposals.ExecuteProposal(ctx, commands.ExecuteProposalCommand{
		ProposalID: proposalID,
		Caller:     caller,
	})
}

// GetProposalHandler returns a zero record (id 0) for unknown ids; callers
// check the id field, matching the engine's no-throw read contract.
func (h Handler) GetProposalHandler(ctx context.Context, proposalID uint64) (httptransport.ProposalResponse, error) {
	proposal, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) ListProposalsHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Queries.ListProposals(ctx)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, mapProposal(proposal))
	}
	return httptransport.ProposalListResponse{Items: items}, nil
}

func (h Handler) GetStateHandler(ctx context.Context, proposalID uint64) (httptransport.StateResponse, error) {
	state, err := h.Queries.ProposalState(ctx, proposalID)
	if err != nil {
		return httptransport.StateResponse{}, err
	}
	if state == "" {
		return httptransport.StateResponse{}, domainerrors.ErrProposalNotFound
	}
	return httptransport.StateResponse{
		ProposalID: proposalID,
		State:      string(state),
	}, nil
}

func (h Handler) GetUserVoteHandler(ctx context.Context, proposalID uint64, account string) (httptransport.VoteResponse, error) {
	vote, err := h.Queries.UserVote(ctx, proposalID, account)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	resp := mapVote(vote)
	resp.ProposalID = proposalID
	resp.Voter = strings.TrimSpace(account)
	return resp, nil
}

func (h Handler) GetQuorumHandler(ctx context.Context, proposalID uint64) (httptransport.QuorumResponse, error) {
	required, err := h.Queries.QuorumRequired(ctx)
	if err != nil {
		return httptransport.QuorumResponse{}, err
	}
	reached, err := h.Queries.HasReachedQuorum(ctx, proposalID)
	if err != nil {
		return httptransport.QuorumResponse{}, err
	}
	return httptransport.QuorumResponse{
		ProposalID: proposalID,
		Required:   required.String(),
		Reached:    reached,
	}, nil
}

func (h Handler) GetQuorumRequiredHandler(ctx context.Context) (httptransport.QuorumResponse, error) {
	required, err := h.Queries.QuorumRequired(ctx)
	if err != nil {
		return httptransport.QuorumResponse{}, err
	}
	return httptransport.QuorumResponse{Required: required.String()}, nil
}

func (h Handler) GetTotalsHandler(ctx context.Context, proposalID uint64) (httptransport.TotalsResponse, error) {
	proposal, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.TotalsResponse{}, err
	}
	return httptransport.TotalsResponse{
		ProposalID:   proposal.ProposalID,
		ForVotes:     amountString(proposal.ForVotes),
		AgainstVotes: amountString(proposal.AgainstVotes),
		TotalVotes:   proposal.TotalVotes().String(),
	}, nil
}

func (h Handler) IsVotingActiveHandler(ctx context.Context, proposalID uint64) (httptransport.ActiveResponse, error) {
	active, err := h.Queries.IsVotingActive(ctx, proposalID)
	if err != nil {
		return httptransport.ActiveResponse{}, err
	}
	return httptransport.ActiveResponse{
		ProposalID: proposalID,
		Active:     active,
	}, nil
}

func (h Handler) GetParamsHandler(ctx context.Context) (httptransport.ParamsResponse, error) {
	params, err := h.Queries.CurrentParams(ctx)
	if err != nil {
		return httptransport.ParamsResponse{}, err
	}
	return httptransport.ParamsResponse{
		VotingPeriodSeconds: int64(params.VotingPeriod / time.Second),
		ProposalThreshold:   amountString(params.ProposalThreshold),
		QuorumPercentage:    params.QuorumPercentage,
	}, nil
}

func (h Handler) UpdateVotingPeriodHandler(ctx context.Context, caller string, req httptransport.UpdateVotingPeriodRequest) error {
	return h.Params.UpdateVotingPeriod(ctx, caller, time.Duration(req.Seconds)*time.Second)
}

func (h Handler) UpdateThresholdHandler(ctx context.Context, caller string, req httptransport.UpdateThresholdRequest) error {
	threshold, ok := new(big.Int).SetString(strings.TrimSpace(req.Threshold), 10)
	if !ok {
		return domainerrors.ErrInvalidParameter
	}
	return h.Params.UpdateProposalThreshold(ctx, caller, threshold)
}

func (h Handler) UpdateQuorumHandler(ctx context.Context, caller string, req httptransport.UpdateQuorumRequest) error {
	return h.Params.UpdateQuorumPercentage(ctx, caller, req.Percentage)
}

func (h Handler) PauseHandler(ctx context.Context, caller string) (httptransport.PauseResponse, error) {
	if err := h.Params.Pause(ctx, caller); err != nil {
		return httptransport.PauseResponse{}, err
	}
	return httptransport.PauseResponse{Paused: true}, nil
}

func (h Handler) ResumeHandler(ctx context.Context, caller string) (httptransport.PauseResponse, error) {
	if err := h.Params.Resume(ctx, caller); err != nil {
		return httptransport.PauseResponse{}, err
	}
	return httptransport.PauseResponse{Paused: false}, nil
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	resp := httptransport.ProposalResponse{
		ProposalID:   proposal.ProposalID,
		Proposer:     proposal.Proposer,
		Description:  proposal.Description,
		ForVotes:     amountString(proposal.ForVotes),
		AgainstVotes: amountString(proposal.AgainstVotes),
		Executed:     proposal.Executed,
		Canceled:     proposal.Canceled,
	}
	if proposal.Exists() {
		resp.StartTime = proposal.StartTime.UTC().Format(time.RFC3339)
		resp.EndTime = proposal.EndTime.UTC().Format(time.RFC3339)
	}
	return resp
}

func mapVote(vote entities.Vote) httptransport.VoteResponse {
	resp := httptransport.VoteResponse{
		ProposalID: vote.ProposalID,
		Voter:      vote.Voter,
		Support:    vote.Support,
		Weight:     amountString(vote.Weight),
		HasVoted:   vote.HasVoted,
	}
	if vote.HasVoted {
		resp.CastAt = vote.CastAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
