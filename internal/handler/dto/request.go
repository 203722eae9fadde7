package dto

// OpenSessionRequest represents the request body for POST /session.
type OpenSessionRequest struct {
	RuleID  string `json:"rule_id"`
	EventID string `json:"event_id"`
}

// SelectAssigneeRequest represents the request body for PUT /session/assignee.
type SelectAssigneeRequest struct {
	StaffID string `json:"staff_id"`
}

// SetNotesRequest represents the request body for PUT /session/notes.
type SetNotesRequest struct {
	Notes string `json:"notes"`
}

// SubmitRequest represents the request body for POST /session/submit.
type SubmitRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	Action     string `json:"action"`
	AssigneeID string `json:"assignee_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// StatsFilters represents query parameters for GET /stats.
type StatsFilters struct {
	Period string  // day, week, month, all
	RuleID *string // Filter by specific rule
}
