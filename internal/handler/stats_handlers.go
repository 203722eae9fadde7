package handler

import (
	"net/http"
	"time"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/handler/dto"
	"github.com/mtlprog/opschief/internal/repository"
)

// handleGetStats returns resolution counts per rule for a period.
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse period parameter
	query := r.URL.Query()
	period := query.Get("period")
	if period == "" {
		period = "week"
	}

	// Calculate period boundaries
	now := time.Now()
	var periodStart time.Time
	switch period {
	case "day":
		periodStart = now.AddDate(0, 0, -1)
	case "week":
		periodStart = now.AddDate(0, 0, -7)
	case "month":
		periodStart = now.AddDate(0, -1, 0)
	case "all":
		periodStart = time.Time{} // Beginning of time
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid period, must be: day, week, month, all")
		return
	}

	// Parse rule_id filter
	var ruleFilter *domain.RuleID
	if ruleID := query.Get("rule_id"); ruleID != "" {
		id := domain.RuleID(ruleID)
		if _, ok := alerts.Default.Rule(id); !ok {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown rule_id")
			return
		}
		ruleFilter = &id
	}

	stats, err := h.history.GetRuleStats(ctx, repository.StatsFilters{
		PeriodStart: periodStart,
		PeriodEnd:   now,
		RuleID:      ruleFilter,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch resolution stats")
		return
	}

	// Convert to response format
	rules := make([]dto.RuleStats, len(stats))
	total, failed := 0, 0
	for i, stat := range stats {
		rules[i] = dto.RuleStats{
			RuleID:       string(stat.RuleID),
			Confirmed:    stat.Confirmed,
			Assigned:     stat.Assigned,
			Acknowledged: stat.Acknowledged,
			Failed:       stat.Failed,
			Total:        stat.Total(),
		}
		total += stat.Total()
		failed += stat.Failed
	}

	failureRate := 0.0
	if total > 0 {
		failureRate = float64(failed) / float64(total) * 100
	}

	respondJSON(w, http.StatusOK, dto.StatsResponse{
		Period:         period,
		PeriodStart:    periodStart,
		PeriodEnd:      now,
		Rules:          rules,
		FailureRatePct: failureRate,
	})
}
