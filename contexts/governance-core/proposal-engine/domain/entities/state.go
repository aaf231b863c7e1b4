package entities

import (
	"math/big"
	"time"
)

// ProposalState is the derived lifecycle state. It is never stored; it is
// recomputed from time, flags, and tallies on every read.
type ProposalState string

const (
	StatePending   ProposalState = "pending"
	StateActive    ProposalState = "active"
	StateCanceled  ProposalState = "canceled"
	StateDefeated  ProposalState = "defeated"
	StateSucceeded ProposalState = "succeeded"
	StateExecuted  ProposalState = "executed"
)

// Terminal reports whether no further transition can leave the state.
func (s ProposalState) Terminal() bool {
	return s == StateExecuted || s == StateCanceled
}

// DeriveState resolves the proposal's lifecycle state at the given instant.
// Rules are evaluated in priority order and the first match wins: the
// ordering encodes precedence (a canceled proposal still reports Pending or
// Active inside its window, and only reports Canceled once past it).
//
// The voting window is inclusive on both ends: the proposal is Active from
// StartTime through EndTime itself and closes strictly after EndTime. The
// vote gate uses the same rule, so votes are accepted for exactly the window
// the state machine calls Active.
func DeriveState(p Proposal, now time.Time, quorumReached bool) ProposalState {
	switch {
	case now.Before(p.StartTime):
		return StatePending
	case !now.After(p.EndTime):
		return StateActive
	case p.Canceled:
		return StateCanceled
	case p.Executed:
		return StateExecuted
	case !quorumReached:
		return StateDefeated
	case amountOrZero(p.AgainstVotes).Cmp(amountOrZero(p.ForVotes)) >= 0:
		// Tie goes to the opposition.
		return StateDefeated
	default:
		return StateSucceeded
	}
}

// QuorumRequired computes floor(totalPower * quorumPercentage / 100) over the
// oracle's live supply. Only FOR votes are measured against this value;
// against votes never help a proposal look well-attended.
func QuorumRequired(totalPower *big.Int, quorumPercentage int64) *big.Int {
	if totalPower == nil || totalPower.Sign() <= 0 || quorumPercentage <= 0 {
		return new(big.Int)
	}
	required := new(big.Int).Mul(totalPower, big.NewInt(quorumPercentage))
	return required.Div(required, big.NewInt(100))
}

// ReachedQuorum reports whether the proposal's FOR tally meets the required
// quorum weight.
func ReachedQuorum(p Proposal, required *big.Int) bool {
	return amountOrZero(p.ForVotes).Cmp(amountOrZero(required)) >= 0
}
