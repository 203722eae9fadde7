package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/opschief/internal/domain"
)

// StatsFilters holds filters for statistics queries.
type StatsFilters struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	RuleID      *domain.RuleID // Optional: filter by specific rule
}

// RuleStatsResult holds resolution counts for a single rule.
type RuleStatsResult struct {
	RuleID       domain.RuleID
	Confirmed    int
	Assigned     int
	Acknowledged int
	Failed       int
}

// Total returns the number of recorded attempts.
func (r RuleStatsResult) Total() int {
	return r.Confirmed + r.Assigned + r.Acknowledged + r.Failed
}

// GetRuleStats counts recorded resolutions per rule and outcome.
func (r *ResolutionRepository) GetRuleStats(ctx context.Context, filters StatsFilters) ([]RuleStatsResult, error) {
	query := `
		SELECT
			rule_id,
			COUNT(CASE WHEN outcome = 'confirmed' THEN 1 END) as confirmed,
			COUNT(CASE WHEN outcome = 'assigned' THEN 1 END) as assigned,
			COUNT(CASE WHEN outcome = 'acknowledged' THEN 1 END) as acknowledged,
			COUNT(CASE WHEN outcome = 'failed' THEN 1 END) as failed
		FROM resolutions
		WHERE created_at >= $1 AND created_at <= $2
	`

	args := []interface{}{filters.PeriodStart, filters.PeriodEnd}

	// Filter by specific rule if provided
	if filters.RuleID != nil {
		query += " AND rule_id = $3"
		args = append(args, string(*filters.RuleID))
	}

	query += " GROUP BY rule_id ORDER BY rule_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rule stats: %w", err)
	}
	defer rows.Close()

	results := []RuleStatsResult{}
	for rows.Next() {
		var result RuleStatsResult
		err := rows.Scan(
			&result.RuleID,
			&result.Confirmed,
			&result.Assigned,
			&result.Acknowledged,
			&result.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule stats: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule stats rows: %w", err)
	}

	return results, nil
}
