package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"agora/contexts/governance-core/proposal-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	"agora/contexts/governance-core/proposal-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// InsertProposal lets the bigserial sequence assign the id inside the insert
// itself, so id allocation and record insertion are one statement.
func (r *Repository) InsertProposal(ctx context.Context, proposal entities.Proposal) (uint64, error) {
	row := proposalModelFromEntity(proposal)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, r.logError("governance_repo_insert_proposal_failed", err,
			"proposer", proposal.Proposer,
		)
	}
	return row.ID, nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID uint64) (entities.Proposal, bool, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", proposalID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, false, nil
		}
		return entities.Proposal{}, false, r.logError("governance_repo_get_proposal_failed", err,
			"proposal_id", proposalID,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListProposals(ctx context.Context) ([]entities.Proposal, error) {
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_proposals_failed", err)
	}
	proposals := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		proposals = append(proposals, row.toEntity())
	}
	return proposals, nil
}

func (r *Repository) MarkCanceled(ctx context.Context, proposalID uint64, at time.Time) error {
	return r.markFlag(ctx, proposalID, "canceled", at, "governance_repo_mark_canceled_failed")
}

func (r *Repository) MarkExecuted(ctx context.Context, proposalID uint64, at time.Time) error {
	return r.markFlag(ctx, proposalID, "executed", at, "governance_repo_mark_executed_failed")
}

func (r *Repository) markFlag(ctx context.Context, proposalID uint64, column string, at time.Time, event string) error {
	update := r.db.WithContext(ctx).Model(&proposalModel{}).
		Where("id = ?", proposalID).
		Updates(map[string]any{
			column:       true,
			"updated_at": at.UTC(),
		})
	if update.Error != nil {
		return r.logError(event, update.Error, "proposal_id", proposalID)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrProposalNotFound
	}
	return nil
}

// RecordVote runs the tally update and the vote insert in one transaction.
// The composite primary key turns a duplicate (proposal, voter) pair into a
// unique violation, mapped to ErrAlreadyVoted.
func (r *Repository) RecordVote(ctx context.Context, vote entities.Vote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := voteModelFromEntity(vote)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		column := "against_votes"
		if vote.Support {
			column = "for_votes"
		}
		update := tx.Model(&proposalModel{}).
			Where("id = ?", vote.ProposalID).
			Updates(map[string]any{
				column:       gorm.Expr(column+" + ?::numeric", formatAmount(vote.Weight)),
				"updated_at": vote.CastAt.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrProposalNotFound
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		if errors.Is(err, domainerrors.ErrProposalNotFound) {
			return err
		}
		return r.logError("governance_repo_record_vote_failed", err,
			"proposal_id", vote.ProposalID,
			"voter", vote.Voter,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, proposalID uint64, voter string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Where("voter = ?", voter).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("governance_repo_get_vote_failed", err,
			"proposal_id", proposalID,
			"voter", voter,
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) GetParams(ctx context.Context) (entities.GovernanceParams, error) {
	var row paramsModel
	err := r.db.WithContext(ctx).
		Where("id = ?", 1).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GovernanceParams{}, domainerrors.ErrInvalidParameter
		}
		return entities.GovernanceParams{}, r.logError("governance_repo_get_params_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveParams(ctx context.Context, params entities.GovernanceParams) error {
	row := paramsModelFromEntity(params)
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return r.logError("governance_repo_save_params_failed", err)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:        event.EventID,
		EventType: event.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: event.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("governance_repo_append_outbox_failed", err,
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_outbox_failed", err)
	}
	pending := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		pending = append(pending, ports.OutboxMessage{
			OutboxID:  row.ID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return pending, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, at time.Time) error {
	published := at.UTC()
	update := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &published,
		})
	if update.Error != nil {
		return r.logError("governance_repo_mark_outbox_failed", update.Error,
			"outbox_id", outboxID,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance-core/proposal-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.ParamsRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
