package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/handler/dto"
)

// handleListAlerts projects the current event records into alerts.
func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		slog.Error("failed to list events", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}

	projection := alerts.Project(events)
	if h.metrics != nil {
		h.metrics.ObserveProjection(projection)
	}

	respondJSON(w, http.StatusOK, projection)
}

// handleListStaff returns the assignable staff directory.
func (h *Handler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.staff.ListAssignableStaff(r.Context())
	if err != nil {
		slog.Error("failed to list staff", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load staff")
		return
	}

	slices.SortFunc(staff, func(a, b domain.Staff) int {
		return strings.Compare(a.Name, b.Name)
	})

	respondJSON(w, http.StatusOK, dto.StaffListResponse{Staff: staff})
}
