package commands

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"agora/contexts/governance-core/proposal-engine/adapters/memory"
	"agora/contexts/governance-core/proposal-engine/application/queries"
	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	"agora/internal/shared/guard"
)

type testEngine struct {
	store     *memory.Store
	guard     *guard.Guard
	proposals ProposalUseCase
	votes     VoteUseCase
	params    ParamsUseCase
	queries   queries.StateUseCase
}

func newTestEngine() testEngine {
	store := memory.NewStore(entities.GovernanceParams{
		VotingPeriod:      7 * 24 * time.Hour,
		ProposalThreshold: big.NewInt(1000),
		QuorumPercentage:  10,
		UpdatedAt:         time.Now().UTC(),
	})
	g := guard.New()
	return testEngine{
		store: store,
		guard: g,
		proposals: ProposalUseCase{
			Proposals: store,
			Params:    store,
			Oracle:    store,
			Auth:      store,
			Guard:     g,
			Clock:     store,
			IDGen:     store,
			Outbox:    store,
		},
		votes: VoteUseCase{
			Proposals: store,
			Oracle:    store,
			Guard:     g,
			Clock:     store,
			IDGen:     store,
			Outbox:    store,
		},
		params: ParamsUseCase{
			Params: store,
			Auth:   store,
			Guard:  g,
			Clock:  store,
			IDGen:  store,
			Outbox: store,
		},
		queries: queries.StateUseCase{
			Proposals: store,
			Params:    store,
			Oracle:    store,
			Clock:     store,
		},
	}
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func (e testEngine) createProposal(t *testing.T, proposer string, start time.Time) entities.Proposal {
	t.Helper()
	proposal, err := e.proposals.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer:    proposer,
		Description: "fund the treasury",
		StartTime:   start,
	})
	if err != nil {
		t.Fatalf("create proposal failed: %v", err)
	}
	return proposal
}

func TestCreateProposalAllocatesSequentialIDs(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))

	first := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	second := e.createProposal(t, "alice", baseTime.Add(2*time.Hour))

	if first.ProposalID != 1 || second.ProposalID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ProposalID, second.ProposalID)
	}
	if got := second.EndTime.Sub(second.StartTime); got != 7*24*time.Hour {
		t.Fatalf("expected voting window of 168h, got %s", got)
	}
}

func TestCreateProposalRejectsPastStart(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))

	_, err := e.proposals.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer:    "alice",
		Description: "late",
		StartTime:   baseTime.Add(-time.Minute),
	})
	if !errors.Is(err, domainerrors.ErrInvalidStartTime) {
		t.Fatalf("expected invalid start time, got %v", err)
	}
}

func TestCreateProposalRequiresThresholdPower(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("poor", big.NewInt(999))

	_, err := e.proposals.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer:    "poor",
		Description: "underfunded",
		StartTime:   baseTime.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrInsufficientPower) {
		t.Fatalf("expected insufficient power, got %v", err)
	}
}

func TestCancelProposalBeforeStart(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetPower("bob", big.NewInt(2000))
	e.store.SetTotalPower(big.NewInt(100000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	if err := e.proposals.CancelProposal(context.Background(), CancelProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "alice",
	}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Once canceled, no vote lands even during what would have been the window.
	e.store.SetNow(baseTime.Add(2 * time.Hour))
	_, err := e.votes.CastVote(context.Background(), CastVoteCommand{
		ProposalID: proposal.ProposalID,
		Voter:      "bob",
		Support:    true,
	})
	if !errors.Is(err, domainerrors.ErrProposalCanceled) {
		t.Fatalf("expected proposal canceled, got %v", err)
	}

	state, err := e.queries.ProposalState(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("state query failed: %v", err)
	}
	if state != entities.StateCanceled {
		t.Fatalf("expected canceled state, got %s", state)
	}
}

func TestCancelProposalRejectsStranger(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	err := e.proposals.CancelProposal(context.Background(), CancelProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "mallory",
	})
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}

	stored, err := e.queries.GetProposal(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("get proposal failed: %v", err)
	}
	if stored.Canceled {
		t.Fatal("proposal must stay uncanceled after a rejected cancel")
	}
}

func TestCancelProposalRejectedOnceVotingStarts(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))

	// Exactly at start the window is open, so cancellation is already late.
	e.store.SetNow(proposal.StartTime)
	err := e.proposals.CancelProposal(context.Background(), CancelProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "alice",
	})
	if !errors.Is(err, domainerrors.ErrVotingAlreadyStarted) {
		t.Fatalf("expected voting already started, got %v", err)
	}
}

func TestCancelProposalAdminOverride(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetAdmin("root")

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	if err := e.proposals.CancelProposal(context.Background(), CancelProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "root",
	}); err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
}

func TestExecuteProposalRequiresAdmin(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))
	err := e.proposals.ExecuteProposal(context.Background(), ExecuteProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "alice",
	})
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
}

func TestExecuteProposalRejectsNonSucceededState(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetTotalPower(big.NewInt(100000))
	e.store.SetAdmin("root")

	proposal := e.createProposal(t, "alice", baseTime.Add(time.Hour))

	// Still active: execution must refuse until the window closes.
	e.store.SetNow(proposal.StartTime.Add(time.Hour))
	err := e.proposals.ExecuteProposal(context.Background(), ExecuteProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "root",
	})
	if !errors.Is(err, domainerrors.ErrProposalNotSucceeded) {
		t.Fatalf("expected proposal not succeeded, got %v", err)
	}
}

func TestExecuteProposalSucceededPath(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(12000))
	e.store.SetPower("bob", big.NewInt(3000))
	e.store.SetTotalPower(big.NewInt(100000))
	e.store.SetAdmin("root")

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

	e.store.SetNow(proposal.EndTime.Add(time.Second))
	state, err := e.queries.ProposalState(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("state query failed: %v", err)
	}
	if state != entities.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", state)
	}

	if err := e.proposals.ExecuteProposal(context.Background(), ExecuteProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "root",
	}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	err = e.proposals.ExecuteProposal(context.Background(), ExecuteProposalCommand{
		ProposalID: proposal.ProposalID,
		Caller:     "root",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyExecuted) {
		t.Fatalf("expected already executed, got %v", err)
	}

	state, err = e.queries.ProposalState(context.Background(), proposal.ProposalID)
	if err != nil {
		t.Fatalf("state query failed: %v", err)
	}
	if state != entities.StateExecuted {
		t.Fatalf("expected executed state, got %s", state)
	}
}

func TestExecuteProposalUnknownID(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetAdmin("root")

	err := e.proposals.ExecuteProposal(context.Background(), ExecuteProposalCommand{
		ProposalID: 42,
		Caller:     "root",
	})
	if !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected proposal not found, got %v", err)
	}
}

func TestMutationsFailWhilePaused(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetPower("alice", big.NewInt(5000))
	e.store.SetAdmin("root")

	if err := e.params.Pause(context.Background(), "root"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	_, err := e.proposals.CreateProposal(context.Background(), CreateProposalCommand{
		Proposer:    "alice",
		Description: "paused",
		StartTime:   baseTime.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrSystemPaused) {
		t.Fatalf("expected system paused, got %v", err)
	}

	// Reads keep working while paused.
	if _, err := e.queries.ListProposals(context.Background()); err != nil {
		t.Fatalf("list during pause failed: %v", err)
	}

	if err := e.params.Resume(context.Background(), "root"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	e.createProposal(t, "alice", baseTime.Add(time.Hour))
}
