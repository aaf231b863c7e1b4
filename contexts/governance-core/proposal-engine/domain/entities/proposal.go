package entities

import (
	"math/big"
	"time"
)

// Proposal is the append-only governance record. Tallies only grow, and the
// executed/canceled flags are one-way: once set they never revert and are
// never both true.
type Proposal struct {
	ProposalID   uint64
	Proposer     string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	ForVotes     *big.Int
	AgainstVotes *big.Int
	Executed     bool
	Canceled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Exists reports whether the record refers to a real proposal. Lookups for
// unknown ids return a zero record instead of failing, so callers check the
// id field.
func (p Proposal) Exists() bool {
	return p.ProposalID != 0
}

// TotalVotes is the combined weight cast on the proposal, for and against.
func (p Proposal) TotalVotes() *big.Int {
	return new(big.Int).Add(amountOrZero(p.ForVotes), amountOrZero(p.AgainstVotes))
}

// Vote is keyed by (proposal id, voter). Weight is frozen at cast time and is
// never re-read from the oracle, even if the account's power later changes.
type Vote struct {
	ProposalID uint64
	Voter      string
	Support    bool
	Weight     *big.Int
	HasVoted   bool
	CastAt     time.Time
}

// GovernanceParams is the mutable engine configuration. Updates apply only to
// proposals created afterwards; in-flight proposals keep the window and
// threshold captured at their own creation.
type GovernanceParams struct {
	VotingPeriod      time.Duration
	ProposalThreshold *big.Int
	QuorumPercentage  int64
	UpdatedAt         time.Time
}

func amountOrZero(value *big.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value
}
