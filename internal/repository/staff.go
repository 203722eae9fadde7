package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/opschief/internal/domain"
)

// StaffRepository is the PostgreSQL staff directory.
type StaffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository creates a new StaffRepository.
func NewStaffRepository(pool *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

// ListAssignableStaff returns active staff ordered by name.
func (r *StaffRepository) ListAssignableStaff(ctx context.Context) ([]domain.Staff, error) {
	query, args, err := psql.
		Select("id", "name", "role", "active").
		From("staff").
		Where(sq.Eq{"active": true}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListAssignableStaff query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	staff := []domain.Staff{}
	for rows.Next() {
		var s domain.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.Active); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return staff, nil
}

// GetByID retrieves a staff member by ID, active or not.
func (r *StaffRepository) GetByID(ctx context.Context, staffID string) (*domain.Staff, error) {
	query, args, err := psql.
		Select("id", "name", "role", "active").
		From("staff").
		Where(sq.Eq{"id": staffID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for staff: %w", err)
	}

	var s domain.Staff
	err = r.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.Name, &s.Role, &s.Active)
	if err != nil {
		return nil, rowErr(err, domain.ErrStaffNotFound, "query staff")
	}

	return &s, nil
}

// Create inserts a staff member.
func (r *StaffRepository) Create(ctx context.Context, s *domain.Staff) error {
	query, args, err := psql.
		Insert("staff").
		Columns("id", "name", "role", "active").
		Values(s.ID, s.Name, s.Role, s.Active).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for staff: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert staff: %w", err)
	}

	return nil
}
