package commands

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
)

func TestVoteWindowBoundaries(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetPower("bob", big.NewInt(2000))
	e.store.SetPower("carol", big.NewInt(2000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))

	// Before start: not open yet.
	e.store.SetNow(proposal.StartTime.Add(-time.Second))
	_, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: true,
	})
	if !errors.Is(err, domainerrors.ErrVotingNotStarted) {
		t.Fatalf("expected voting not started, got %v", err)
	}

	// Exactly at end: still open.
	e.store.SetNow(proposal.EndTime)
	if _, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: true,
	}); err != nil {
		t.Fatalf("vote at end instant failed: %v", err)
	}

	active, err := e.queries.IsVotingActive(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("active query failed: %v", err)
	}
	if !active {
		t.Fatal("expected proposal active at end instant")
	}

	// One tick past end: closed.
	e.store.SetNow(proposal.EndTime.Add(time.Second))
	_, err = e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "carol", Support: true,
	})
	if !errors.Is(err, domainerrors.ErrVotingEnded) {
		t.Fatalf("expected voting ended, got %v", err)
	}
}

func TestVoteDuplicateRejected(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetPower("bob", big.NewInt(2000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	e.store.SetNow(proposal.StartTime)

	if _, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: true,
	}); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}

	// The second attempt fails regardless of direction.
	_, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: false,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}

	stored, err := e.queries.GetProposal(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if stored.ForVotes.Cmp(big.NewInt(2000)) != 0 || stored.AgainstVotes.Sign() != 0 {
		t.Fatalf("tallies corrupted by duplicate: for=%s against=%s",
			stored.ForVotes, stored.AgainstVotes)
	}
}

func TestVoteWeightFrozenAtCastTime(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetPower("bob", big.NewInt(2000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	e.store.SetNow(proposal.StartTime)

	vote, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: true,
	})
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if vote.Weight.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("expected weight 2000, got %s", vote.Weight)
	}

	// Later balance changes never touch the recorded vote or the tally.
	e.store.SetPower("bob", big.NewInt(9999))
	recorded, err := e.queries.UserVote(context.Background(), proposal.ProposalID, "bob")
	if err != nil {
		t.Fatalf("user vote query failed: %v", err)
	}
	if !recorded.HasVoted || recorded.Weight.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("expected frozen weight 2000, got has_voted=%v weight=%s",
			recorded.HasVoted, recorded.Weight)
	}
}

func TestVoteRequiresPositivePower(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	e.store.SetNow(proposal.StartTime)

	_, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "ghost", Support: true,
	})
	if !errors.Is(err, domainerrors.ErrNoVotingPower) {
		t.Fatalf("expected no voting power, got %v", err)
	}
}

func TestVoteUnknownProposal(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("bob", big.NewInt(2000))

	_, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: 7, Voter: "bob", Support: true,
	})
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected proposal not found, got %v", err)
	}
}

func TestQuorumMissedProposalDefeated(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	e.store.SetNow(proposal.StartTime)

	// 5,000 FOR against a 10,000 quorum requirement.
	if _, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "alice", Support: true,
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	reached, err := e.queries.HasReachedQuorum(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("quorum query failed: %v", err)
	}
	if reached {
		t.Fatal("expected quorum not reached")
	}

	e.store.SetNow(proposal.EndTime.Add(time.Second))
	state, err := e.queries.ProposalState(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("state query failed: %v", err)
	}
	if state != entities.StateDefeated {
		t.Fatalf("expected defeated, got %s", state)
	}
}

func TestTieGoesToOpposition(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(12000))
	e.store.SetPower("bob", big.NewInt(12000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	e.store.SetNow(proposal.StartTime)

	if _, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "alice", Support: true,
	}); err != nil {
		t.Fatalf("for vote failed: %v", err)
	}
	if _, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: false,
	}); err != nil {
		t.Fatalf("against vote failed: %v", err)
	}

	// Quorum is met (12,000 FOR >= 10,000) but the tie defeats the proposal.
	e.store.SetNow(proposal.EndTime.Add(time.Second))
	state, err := e.queries.ProposalState(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("state query failed: %v", err)
	}
	if state != entities.StateDefeated {
		t.Fatalf("expected defeated on tie, got %s", state)
	}
}

func TestAgainstVotesDoNotCountTowardQuorum(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetPower("bob", big.NewInt(20000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	e.store.SetNow(proposal.StartTime)

	if _, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID, Voter: "bob", Support: false,
	}); err != nil {
		t.Fatalf("against vote failed: %v", err)
	}

	reached, err := e.queries.HasReachedQuorum(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("quorum query failed: %v", err)
	}
	if reached {
		t.Fatal("against weight must not satisfy quorum")
	}

	total, err := e.queries.TotalVotes(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("totals query failed: %v", err)
	}
	if total.Cmp(big.NewInt(20000)) != 0 {
		t.Fatalf("expected total 20000, got %s", total)
	}
}
