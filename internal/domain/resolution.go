package domain

import (
	"fmt"
	"time"
)

// OutcomeKind is the kind of result a successful resolution produced.
type OutcomeKind string

const (
	OutcomeConfirmed    OutcomeKind = "confirmed"
	OutcomeAssigned     OutcomeKind = "assigned"
	OutcomeAcknowledged OutcomeKind = "acknowledged"
	// OutcomeFailed is only recorded in the audit log, never in a session.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome describes how an alert was resolved.
type Outcome struct {
	Kind         OutcomeKind `json:"kind"`
	AssigneeName string      `json:"assignee_name,omitempty"`
}

// String renders the outcome as "confirmed", "acknowledged" or "assigned(<name>)".
func (o Outcome) String() string {
	if o.Kind == OutcomeAssigned {
		return fmt.Sprintf("%s(%s)", o.Kind, o.AssigneeName)
	}
	return string(o.Kind)
}

// Resolution is an audit log entry for one submitted resolution.
type Resolution struct {
	ID           string
	SessionID    string
	EventID      string
	RuleID       RuleID
	Action       Action
	Outcome      OutcomeKind
	AssigneeID   *string
	AssigneeName *string
	Notes        string
	Patch        []string
	ResolvedBy   *string // nil when the submit was not made by an authenticated operator
	Error        string
	CreatedAt    time.Time
}

// IsFailure returns true if the resolution write was rejected by the event store.
func (r *Resolution) IsFailure() bool {
	return r.Outcome == OutcomeFailed
}
