package postgresadapter

import (
	"math/big"
	"time"

	"agora/contexts/governance-core/proposal-engine/domain/entities"
)

// Amount columns are numeric(78,0) so 18-decimal voting power fits without
// float rounding; gorm moves them as strings.

type proposalModel struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Proposer     string    `gorm:"column:proposer"`
	Description  string    `gorm:"column:description"`
	StartTime    time.Time `gorm:"column:start_time"`
	EndTime      time.Time `gorm:"column:end_time"`
	ForVotes     string    `gorm:"column:for_votes;type:numeric(78,0)"`
	AgainstVotes string    `gorm:"column:against_votes;type:numeric(78,0)"`
	Executed     bool      `gorm:"column:executed"`
	Canceled     bool      `gorm:"column:canceled"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "governance_proposals"
}

func (m proposalModel) toEntity() entities.Proposal {
	return entities.Proposal{
		ProposalID:   m.ID,
		Proposer:     m.Proposer,
		Description:  m.Description,
		StartTime:    m.StartTime.UTC(),
		EndTime:      m.EndTime.UTC(),
		ForVotes:     parseAmount(m.ForVotes),
		AgainstVotes: parseAmount(m.AgainstVotes),
		Executed:     m.Executed,
		Canceled:     m.Canceled,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func proposalModelFromEntity(proposal entities.Proposal) proposalModel {
	return proposalModel{
		ID:           proposal.ProposalID,
		Proposer:     proposal.Proposer,
		Description:  proposal.Description,
		StartTime:    proposal.StartTime.UTC(),
		EndTime:      proposal.EndTime.UTC(),
		ForVotes:     formatAmount(proposal.ForVotes),
		AgainstVotes: formatAmount(proposal.AgainstVotes),
		Executed:     proposal.Executed,
		Canceled:     proposal.Canceled,
		CreatedAt:    proposal.CreatedAt.UTC(),
		UpdatedAt:    proposal.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	ProposalID uint64    `gorm:"column:proposal_id;primaryKey"`
	Voter      string    `gorm:"column:voter;primaryKey"`
	Support    bool      `gorm:"column:support"`
	Weight     string    `gorm:"column:weight;type:numeric(78,0)"`
	CastAt     time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "governance_votes"
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		ProposalID: m.ProposalID,
		Voter:      m.Voter,
		Support:    m.Support,
		Weight:     parseAmount(m.Weight),
		HasVoted:   true,
		CastAt:     m.CastAt.UTC(),
	}
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ProposalID: vote.ProposalID,
		Voter:      vote.Voter,
		Support:    vote.Support,
		Weight:     formatAmount(vote.Weight),
		CastAt:     vote.CastAt.UTC(),
	}
}

// Single-row table; updates race only with other admin updates, which the
// mutation guard already serializes.
type paramsModel struct {
	ID                int       `gorm:"column:id;primaryKey"`
	VotingPeriodSecs  int64     `gorm:"column:voting_period_secs"`
	ProposalThreshold string    `gorm:"column:proposal_threshold;type:numeric(78,0)"`
	QuorumPercentage  int64     `gorm:"column:quorum_percentage"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (paramsModel) TableName() string {
	return "governance_params"
}

func (m paramsModel) toEntity() entities.GovernanceParams {
	return entities.GovernanceParams{
		VotingPeriod:      time.Duration(m.VotingPeriodSecs) * time.Second,
		ProposalThreshold: parseAmount(m.ProposalThreshold),
		QuorumPercentage:  m.QuorumPercentage,
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func paramsModelFromEntity(params entities.GovernanceParams) paramsModel {
	return paramsModel{
		ID:                1,
		VotingPeriodSecs:  int64(params.VotingPeriod / time.Second),
		ProposalThreshold: formatAmount(params.ProposalThreshold),
		QuorumPercentage:  params.QuorumPercentage,
		UpdatedAt:         params.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func parseAmount(raw string) *big.Int {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return new(big.Int)
	}
	return amount
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
