package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	"agora/contexts/governance-core/proposal-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory authority for proposals, votes, params, and the
// outbox. It also carries power and admin projections so the engine can run
// fully wired without external collaborators.
type Store struct {
	mu sync.RWMutex

	sequence  uint64
	proposals map[uint64]entities.Proposal
	votes     map[string]entities.Vote
	params    entities.GovernanceParams
	outbox    map[string]outboxRecord

	power      map[string]*big.Int
	totalPower *big.Int
	admins     map[string]bool

	now time.Time
}

func NewStore(params entities.GovernanceParams) *Store {
	return &Store{
		proposals:  make(map[uint64]entities.Proposal),
		votes:      make(map[string]entities.Vote),
		params:     cloneParams(params),
		outbox:     make(map[string]outboxRecord),
		power:      make(map[string]*big.Int),
		totalPower: new(big.Int),
		admins:     make(map[string]bool),
	}
}

// SetPower seeds an account's voting power projection.
func (s *Store) SetPower(account string, power *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.power[strings.TrimSpace(account)] = new(big.Int).Set(power)
}

// SetTotalPower seeds the outstanding supply projection.
func (s *Store) SetTotalPower(total *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalPower = new(big.Int).Set(total)
}

// SetAdmin marks an account as administrator.
func (s *Store) SetAdmin(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[strings.TrimSpace(account)] = true
}

// SetNow pins the clock; a zero value restores wall time.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) InsertProposal(_ context.Context, proposal entities.Proposal) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	proposal.ProposalID = s.sequence
	s.proposals[proposal.ProposalID] = cloneProposal(proposal)
	return proposal.ProposalID, nil
}

func (s *Store) GetProposal(_ context.Context, proposalID uint64) (entities.Proposal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, false, nil
	}
	return cloneProposal(proposal), true, nil
}

func (s *Store) ListProposals(_ context.Context) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposals := make([]entities.Proposal, 0, len(s.proposals))
	for _, proposal := range s.proposals {
		proposals = append(proposals, cloneProposal(proposal))
	}
	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].ProposalID < proposals[j].ProposalID
	})
	return proposals, nil
}

func (s *Store) MarkCanceled(_ context.Context, proposalID uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	proposal.Canceled = true
	proposal.UpdatedAt = at
	s.proposals[proposalID] = proposal
	return nil
}

func (s *Store) MarkExecuted(_ context.Context, proposalID uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	proposal.Executed = true
	proposal.UpdatedAt = at
	s.proposals[proposalID] = proposal
	return nil
}

// RecordVote bumps the matching tally and inserts the vote row under a single
// lock section, so readers never see one without the other.
func (s *Store) RecordVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(vote.ProposalID, vote.Voter)
	if existing, ok := s.votes[key]; ok && existing.HasVoted {
		return domainerrors.ErrAlreadyVoted
	}
	proposal, ok := s.proposals[vote.ProposalID]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	if vote.Support {
		proposal.ForVotes = new(big.Int).Add(proposal.ForVotes, vote.Weight)
	} else {
		proposal.AgainstVotes = new(big.Int).Add(proposal.AgainstVotes, vote.Weight)
	}
	proposal.UpdatedAt = vote.CastAt
	s.proposals[vote.ProposalID] = proposal
	s.votes[key] = cloneVote(vote)
	return nil
}

func (s *Store) GetVote(_ context.Context, proposalID uint64, voter string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteKey(proposalID, voter)]
	if !ok {
		return entities.Vote{}, false, nil
	}
	return cloneVote(vote), true, nil
}

func (s *Store) GetParams(_ context.Context) (entities.GovernanceParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneParams(s.params), nil
}

func (s *Store) SaveParams(_ context.Context, params entities.GovernanceParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = cloneParams(params)
	return nil
}

func (s *Store) PowerOf(_ context.Context, account string) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	power, ok := s.power[strings.TrimSpace(account)]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(power), nil
}

func (s *Store) TotalPower(_ context.Context) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.totalPower), nil
}

func (s *Store) IsAdmin(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[strings.TrimSpace(account)], nil
}

func (s *Store) AppendOutbox(_ context.Context, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := marshalEnvelope(event)
	if err != nil {
		return err
	}
	s.outbox[event.EventID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:  event.EventID,
			EventType: event.EventType,
			Payload:   payload,
			CreatedAt: event.OccurredAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		pending = append(pending, record.message)
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].OutboxID < pending[j].OutboxID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return nil
	}
	record.published = true
	s.outbox[outboxID] = record
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func marshalEnvelope(event ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(event)
}

func voteKey(proposalID uint64, voter string) string {
	return fmt.Sprintf("%d:%s", proposalID, strings.TrimSpace(voter))
}

func cloneProposal(proposal entities.Proposal) entities.Proposal {
	cloned := proposal
	cloned.ForVotes = cloneAmount(proposal.ForVotes)
	cloned.AgainstVotes = cloneAmount(proposal.AgainstVotes)
	return cloned
}

func cloneVote(vote entities.Vote) entities.Vote {
	cloned := vote
	cloned.Weight = cloneAmount(vote.Weight)
	return cloned
}

func cloneParams(params entities.GovernanceParams) entities.GovernanceParams {
	cloned := params
	cloned.ProposalThreshold = cloneAmount(params.ProposalThreshold)
	return cloned
}

func cloneAmount(amount *big.Int) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(amount)
}
