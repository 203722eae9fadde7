package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/opschief/internal/domain"
)

// ResolutionRepository is the PostgreSQL resolution audit log.
type ResolutionRepository struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
}

// NewResolutionRepository creates a new ResolutionRepository.
func NewResolutionRepository(pool *pgxpool.Pool) *ResolutionRepository {
	return &ResolutionRepository{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Record appends a resolution and fills in ID and CreatedAt.
func (r *ResolutionRepository) Record(ctx context.Context, res *domain.Resolution) error {
	patch := res.Patch
	if patch == nil {
		patch = []string{}
	}

	query, args, err := r.psql.
		Insert("resolutions").
		Columns(
			"session_id", "event_id", "rule_id", "action", "outcome",
			"assignee_id", "assignee_name", "notes", "patch", "resolved_by", "error",
		).
		Values(
			res.SessionID, res.EventID, res.RuleID, res.Action, res.Outcome,
			res.AssigneeID, res.AssigneeName, res.Notes, patch, res.ResolvedBy, res.Error,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		return fmt.Errorf("create resolution: %w", err)
	}

	return nil
}

// ListByEvent retrieves all resolutions recorded for an event, oldest first.
func (r *ResolutionRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Resolution, error) {
	query, args, err := r.psql.
		Select(
			"id", "session_id", "event_id", "rule_id", "action", "outcome",
			"assignee_id", "assignee_name", "notes", "patch", "resolved_by", "error", "created_at",
		).
		From("resolutions").
		Where(sq.Eq{"event_id": eventID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	resolutions := []domain.Resolution{}
	for rows.Next() {
		var res domain.Resolution
		err := rows.Scan(
			&res.ID,
			&res.SessionID,
			&res.EventID,
			&res.RuleID,
			&res.Action,
			&res.Outcome,
			&res.AssigneeID,
			&res.AssigneeName,
			&res.Notes,
			&res.Patch,
			&res.ResolvedBy,
			&res.Error,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return resolutions, nil
}
