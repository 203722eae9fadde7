package domain

// Severity is the triage tier of an alert.
type Severity string

const (
	// SeverityCritical means the event is not safe to run.
	SeverityCritical Severity = "critical"
	// SeverityWarning means the event will block soon if ignored.
	SeverityWarning Severity = "warning"
)

// IsValid checks if the severity is one of the allowed values.
func (s Severity) IsValid() bool {
	return s == SeverityCritical || s == SeverityWarning
}

// RuleID is the stable identifier of a catalog rule.
type RuleID string

const (
	RuleSpecialHandling RuleID = "special-handling"
	RulePickup          RuleID = "pickup"
	RuleHotHold         RuleID = "hot-hold"
	RulePackOut         RuleID = "pack-out"
	RuleApproaching     RuleID = "approaching"
	RuleKitchenNotes    RuleID = "kitchen-notes"
	RuleBarRisk         RuleID = "bar-risk"
)

// Alert is a derived view of one rule firing for one event. It is never persisted.
type Alert struct {
	RuleID    RuleID   `json:"rule_id"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	EventID   string   `json:"event_id"`
	EventName string   `json:"event_name"`
}

// Action is an operator resolution action offered in a session.
type Action string

const (
	ActionAssign      Action = "assign"
	ActionConfirm     Action = "confirm"
	ActionAcknowledge Action = "acknowledge"
)

// IsValid checks if the action is one of the allowed values.
func (a Action) IsValid() bool {
	switch a {
	case ActionAssign, ActionConfirm, ActionAcknowledge:
		return true
	default:
		return false
	}
}

// RequiresAssignee returns true if the action needs a staff member selected.
func (a Action) RequiresAssignee() bool {
	return a == ActionAssign
}
