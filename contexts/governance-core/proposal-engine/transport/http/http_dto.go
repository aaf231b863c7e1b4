package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProposalRequest struct {
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
}

type ProposalResponse struct {
	ProposalID   uint64 `json:"proposal_id"`
	Proposer     string `json:"proposer"`
	Description  string `json:"description"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	ForVotes     string `json:"for_votes"`
	AgainstVotes string `json:"against_votes"`
	Executed     bool   `json:"executed"`
	Canceled     bool   `json:"canceled"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type CastVoteRequest struct {
	Support *bool `json:"support"`
}

type VoteResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Voter      string `json:"voter"`
	Support    bool   `json:"support"`
	Weight     string `json:"weight"`
	HasVoted   bool   `json:"has_voted"`
	CastAt     string `json:"cast_at,omitempty"`
}

type StateResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	State      string `json:"state"`
}

type QuorumResponse struct {
	ProposalID uint64 `json:"proposal_id,omitempty"`
	Required   string `json:"required"`
	Reached    bool   `json:"reached"`
}

type TotalsResponse struct {
	ProposalID   uint64 `json:"proposal_id"`
	ForVotes     string `json:"for_votes"`
	AgainstVotes string `json:"against_votes"`
	TotalVotes   string `json:"total_votes"`
}

type ActiveResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Active     bool   `json:"active"`
}

type ParamsResponse struct {
	VotingPeriodSeconds int64  `json:"voting_period_seconds"`
	ProposalThreshold   string `json:"proposal_threshold"`
	QuorumPercentage    int64  `json:"quorum_percentage"`
}

type UpdateVotingPeriodRequest struct {
	Seconds int64 `json:"seconds"`
}

type UpdateThresholdRequest struct {
	Threshold string `json:"threshold"`
}

type UpdateQuorumRequest struct {
	Percentage int64 `json:"percentage"`
}

type PauseResponse struct {
	Paused bool `json:"paused"`
}
