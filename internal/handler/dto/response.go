package dto

import (
	"time"

	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/service"
)

// StaffListResponse represents the response for GET /staff.
type StaffListResponse struct {
	Staff []domain.Staff `json:"staff"`
}

// SessionResponse is the session snapshot the dashboard renders.
type SessionResponse struct {
	Status        domain.SessionStatus `json:"status"`
	SessionID     string               `json:"session_id,omitempty"`
	Alert         *domain.Alert        `json:"alert,omitempty"`
	Event         *domain.EventRecord  `json:"event,omitempty"`
	Assignee      *domain.Staff        `json:"assignee,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	Error         string               `json:"error,omitempty"`
	Submitting    bool                 `json:"submitting"`
	Outcome       *domain.Outcome      `json:"outcome,omitempty"`
	OutcomeText   string               `json:"outcome_text,omitempty"`
	ResolvedAt    *time.Time           `json:"resolved_at,omitempty"`
	Notice        string               `json:"notice,omitempty"`
	Actions       []domain.Action      `json:"actions"`
	SubmitEnabled bool                 `json:"submit_enabled"`
}

// NewSessionResponse converts a manager view into its wire form.
func NewSessionResponse(view service.SessionView) SessionResponse {
	resp := SessionResponse{
		Status:        view.State.Status(),
		Actions:       view.Actions,
		SubmitEnabled: view.SubmitEnabled,
	}
	if resp.Actions == nil {
		resp.Actions = []domain.Action{}
	}

	switch st := view.State.(type) {
	case domain.ClosedState:
		resp.Notice = st.Notice
	case domain.OpenState:
		fillSession(&resp, st.Session)
		resp.Error = st.Err
		resp.Submitting = st.Submitting
	case domain.ResolvedState:
		fillSession(&resp, st.Session)
		outcome := st.Outcome
		resolvedAt := st.ResolvedAt
		resp.Outcome = &outcome
		resp.OutcomeText = outcome.String()
		resp.ResolvedAt = &resolvedAt
	}

	return resp
}

func fillSession(resp *SessionResponse, s domain.Session) {
	alert := s.Alert
	event := s.Event
	resp.SessionID = s.ID
	resp.Alert = &alert
	resp.Event = &event
	resp.Assignee = s.SelectedAssignee
	resp.Notes = s.Notes
}

// SubmitResponse represents the response for POST /session/submit.
type SubmitResponse struct {
	Outcome     domain.Outcome  `json:"outcome"`
	OutcomeText string          `json:"outcome_text"`
	Session     SessionResponse `json:"session"`
}

// ResolutionInfo represents one audit log entry.
type ResolutionInfo struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	RuleID       string    `json:"rule_id"`
	Action       string    `json:"action"`
	Outcome      string    `json:"outcome"`
	AssigneeID   *string   `json:"assignee_id"`
	AssigneeName *string   `json:"assignee_name"`
	Notes        string    `json:"notes"`
	Patch        []string  `json:"patch"`
	ResolvedBy   *string   `json:"resolved_by"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResolutionHistoryResponse represents the response for GET /events/{id}/resolutions.
type ResolutionHistoryResponse struct {
	EventID     string           `json:"event_id"`
	Resolutions []ResolutionInfo `json:"resolutions"`
}

// NewResolutionInfo converts an audit record into its wire form.
func NewResolutionInfo(r domain.Resolution) ResolutionInfo {
	patch := r.Patch
	if patch == nil {
		patch = []string{}
	}
	return ResolutionInfo{
		ID:           r.ID,
		SessionID:    r.SessionID,
		RuleID:       string(r.RuleID),
		Action:       string(r.Action),
		Outcome:      string(r.Outcome),
		AssigneeID:   r.AssigneeID,
		AssigneeName: r.AssigneeName,
		Notes:        r.Notes,
		Patch:        patch,
		ResolvedBy:   r.ResolvedBy,
		Error:        r.Error,
		CreatedAt:    r.CreatedAt,
	}
}

// RuleStats holds resolution counts for a single rule.
type RuleStats struct {
	RuleID       string `json:"rule_id"`
	Confirmed    int    `json:"confirmed"`
	Assigned     int    `json:"assigned"`
	Acknowledged int    `json:"acknowledged"`
	Failed       int    `json:"failed"`
	Total        int    `json:"total"`
}

// StatsResponse represents the response for GET /stats.
type StatsResponse struct {
	Period         string      `json:"period"`
	PeriodStart    time.Time   `json:"period_start"`
	PeriodEnd      time.Time   `json:"period_end"`
	Rules          []RuleStats `json:"rules"`
	FailureRatePct float64     `json:"failure_rate_percent"`
}
