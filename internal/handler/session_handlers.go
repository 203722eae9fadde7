package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/handler/dto"
	"github.com/mtlprog/opschief/internal/middleware"
	"github.com/mtlprog/opschief/internal/service"
)

// handleGetSession returns the current session snapshot.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dto.NewSessionResponse(h.manager.View()))
}

// handleOpenSession opens a session for an alert in the latest projection.
func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.OpenSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.RuleID = strings.TrimSpace(req.RuleID)
	req.EventID = strings.TrimSpace(req.EventID)
	if req.RuleID == "" || req.EventID == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rule_id and event_id are required")
		return
	}

	events, err := h.events.ListEvents(ctx)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load events")
		return
	}

	alert, ok := alerts.Project(events).Find(domain.RuleID(req.RuleID), req.EventID)
	if !ok {
		respondDomainError(w, fmt.Errorf("%w: %s on %s", domain.ErrAlertNotFound, req.RuleID, req.EventID))
		return
	}

	var event *domain.EventRecord
	for i := range events {
		if events[i].ID == req.EventID {
			event = &events[i]
			break
		}
	}
	if event == nil {
		respondDomainError(w, fmt.Errorf("%w: %s", domain.ErrEventNotFound, req.EventID))
		return
	}

	if _, err := h.manager.Open(alert, *event); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewSessionResponse(h.manager.View()))
}

// handleSelectAssignee records the chosen staff member.
func (h *Handler) handleSelectAssignee(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectAssigneeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.manager.SelectAssignee(r.Context(), strings.TrimSpace(req.StaffID)); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSessionResponse(h.manager.View()))
}

// handleSetNotes replaces the session notes.
func (h *Handler) handleSetNotes(w http.ResponseWriter, r *http.Request) {
	var req dto.SetNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.manager.SetNotes(req.Notes); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSessionResponse(h.manager.View()))
}

// handleSubmit resolves the open session.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.SessionID != "" {
		if _, err := uuid.Parse(req.SessionID); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "session_id must be a valid UUID")
			return
		}
	}

	submit := service.SubmitRequest{
		SessionID:  req.SessionID,
		Action:     domain.Action(strings.TrimSpace(req.Action)),
		AssigneeID: strings.TrimSpace(req.AssigneeID),
		Notes:      req.Notes,
	}
	if operator, err := middleware.GetOperatorFromContext(ctx); err == nil {
		submit.ResolvedBy = &operator.ID
	}

	outcome, err := h.manager.Submit(ctx, submit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.SubmitResponse{
		Outcome:     outcome,
		OutcomeText: outcome.String(),
		Session:     dto.NewSessionResponse(h.manager.View()),
	})
}

// handleCancelSession closes the session without writing anything.
func (h *Handler) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	h.manager.Cancel()
	respondJSON(w, http.StatusOK, dto.NewSessionResponse(h.manager.View()))
}

// handleDismissNotice clears a force-close notice.
func (h *Handler) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	h.manager.DismissNotice()
	respondJSON(w, http.StatusOK, dto.NewSessionResponse(h.manager.View()))
}

// handleListResolutions returns the audit history of one event.
func (h *Handler) handleListResolutions(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "event id is required")
		return
	}

	history, err := h.history.ListByEvent(r.Context(), eventID)
	if err != nil {
		slog.Error("failed to list resolutions", "event_id", eventID, "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load resolutions")
		return
	}

	resp := dto.ResolutionHistoryResponse{
		EventID:     eventID,
		Resolutions: make([]dto.ResolutionInfo, len(history)),
	}
	for i, res := range history {
		resp.Resolutions[i] = dto.NewResolutionInfo(res)
	}

	respondJSON(w, http.StatusOK, resp)
}
