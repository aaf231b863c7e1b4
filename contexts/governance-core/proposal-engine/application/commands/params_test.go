package commands

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
)

func TestParamsUpdatesRequireAdmin(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)

	err := e.params.UpdateVotingPeriod(context.Background(), "alice", 24*time.Hour)
	if !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
}

func TestParamsValidation(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetAdmin("root")
	ctx := context.Background()

	if err := e.params.UpdateVotingPeriod(ctx, "root", 0); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for zero period, got %v", err)
	}
	if err := e.params.UpdateProposalThreshold(ctx, "root", big.NewInt(0)); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for zero threshold, got %v", err)
	}
	if err := e.params.UpdateProposalThreshold(ctx, "root", nil); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for nil threshold, got %v", err)
	}
	if err := e.params.UpdateQuorumPercentage(ctx, "root", 0); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for zero quorum, got %v", err)
	}
	if err := e.params.UpdateQuorumPercentage(ctx, "root", 101); !errors.Is(err, domainerrors.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for quorum above 100, got %v", err)
	}
	if err := e.params.UpdateQuorumPercentage(ctx, "root", 100); err != nil {
		t.Fatalf("quorum of exactly 100 must be allowed, got %v", err)
	}
}

func TestParamsUpdateAffectsNewProposalsOnly(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetAdmin("root")
	e.store.SetPower("alice", big.NewInt(5000))
	ctx := context.Background()

	before := e.createProposal(t, "alice", baseTime.Add(time.Hour))

	if err := e.params.UpdateVotingPeriod(ctx, "root", 24*time.Hour); err != nil {
		t.Fatalf("update voting period failed: %v", err)
	}

	after := e.createProposal(t, "alice", baseTime.Add(2*time.Hour))

	if got := before.EndTime.Sub(before.StartTime); got != 7*24*time.Hour {
		t.Fatalf("existing proposal window changed: %s", got)
	}
	if got := after.EndTime.Sub(after.StartTime); got != 24*time.Hour {
		t.Fatalf("expected 24h window on new proposal, got %s", got)
	}
}

func TestPauseIsIdempotent(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)
	e.store.SetAdmin("root")
	ctx := context.Background()

	if err := e.params.Pause(ctx, "root"); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if err := e.params.Pause(ctx, "root"); err != nil {
		t.Fatalf("repeated pause failed: %v", err)
	}
	if !e.guard.Paused() {
		t.Fatal("expected guard paused")
	}
	if err := e.params.Resume(ctx, "root"); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if err := e.params.Resume(ctx, "root"); err != nil {
		t.Fatalf("repeated resume failed: %v", err)
	}
	if e.guard.Paused() {
		t.Fatal("expected guard resumed")
	}
}

func TestPauseRequiresAdmin(t *testing.T) {
	e := newTestEngine()
	e.store.SetNow(baseTime)

	if err := e.params.Pause(context.Background(), "alice"); !errors.Is(err, domainerrors.ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
}
