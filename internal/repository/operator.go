package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/opschief/internal/domain"
)

// OperatorRepository handles database operations for operators.
type OperatorRepository struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(pool *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *OperatorRepository) getOne(ctx context.Context, where sq.Eq) (*domain.Operator, error) {
	query, args, err := r.psql.
		Select("id", "name", "token", "is_active", "created_at").
		From("operators").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var op domain.Operator
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&op.ID,
		&op.Name,
		&op.Token,
		&op.IsActive,
		&op.CreatedAt,
	)
	if err != nil {
		return nil, rowErr(err, domain.ErrOperatorNotFound, "query operator")
	}

	return &op, nil
}

// GetByToken finds an operator by authentication token.
func (r *OperatorRepository) GetByToken(ctx context.Context, token string) (*domain.Operator, error) {
	return r.getOne(ctx, sq.Eq{"token": token})
}

// GetByID retrieves an operator by ID.
func (r *OperatorRepository) GetByID(ctx context.Context, operatorID string) (*domain.Operator, error) {
	return r.getOne(ctx, sq.Eq{"id": operatorID})
}

// Create inserts an operator and fills in ID and CreatedAt.
func (r *OperatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	query, args, err := r.psql.
		Insert("operators").
		Columns("name", "token", "is_active").
		Values(op.Name, op.Token, op.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&op.ID, &op.CreatedAt); err != nil {
		return fmt.Errorf("create operator: %w", err)
	}

	return nil
}
