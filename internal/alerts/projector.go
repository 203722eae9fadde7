package alerts

import (
	"bytes"
	"log/slog"

	"github.com/mtlprog/opschief/internal/domain"
)

// Projection is the triaged alert list derived from a set of events.
type Projection struct {
	Critical []domain.Alert `json:"critical"`
	Warning  []domain.Alert `json:"warning"`
}

// All returns critical alerts followed by warnings.
func (p Projection) All() []domain.Alert {
	out := make([]domain.Alert, 0, len(p.Critical)+len(p.Warning))
	out = append(out, p.Critical...)
	return append(out, p.Warning...)
}

// Find returns the alert raised by rule for the given event.
func (p Projection) Find(ruleID domain.RuleID, eventID string) (domain.Alert, bool) {
	for _, a := range p.All() {
		if a.RuleID == ruleID && a.EventID == eventID {
			return a, true
		}
	}
	return domain.Alert{}, false
}

// ForEvent returns every alert raised for one event, critical first.
func (p Projection) ForEvent(eventID string) []domain.Alert {
	var out []domain.Alert
	for _, a := range p.All() {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out
}

// Project evaluates the default catalog against events.
func Project(events []domain.EventRecord) Projection {
	return Default.Project(events)
}

// Project evaluates every rule against every event in a single pass.
// Alerts are ordered by event, then by rule position in the catalog.
func (c Catalog) Project(events []domain.EventRecord) Projection {
	p := Projection{
		Critical: make([]domain.Alert, 0),
		Warning:  make([]domain.Alert, 0),
	}

	for i := range events {
		e := &events[i]
		for _, rule := range c {
			if !evaluate(rule, e) {
				continue
			}

			alert := domain.Alert{
				RuleID:    rule.ID,
				Severity:  rule.Severity,
				Message:   formatMessage(rule, e),
				EventID:   e.ID,
				EventName: e.Name,
			}

			if rule.Severity == domain.SeverityCritical {
				p.Critical = append(p.Critical, alert)
			} else {
				p.Warning = append(p.Warning, alert)
			}
		}
	}

	return p
}

// evaluate runs a predicate. A predicate that panics on a malformed record
// counts as firing so a real risk is never hidden.
func evaluate(rule Rule, e *domain.EventRecord) (fired bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("alert rule panicked, raising alert",
				"rule_id", rule.ID,
				"event_id", e.ID,
				"panic", r,
			)
			fired = true
		}
	}()
	return rule.Predicate(e)
}

func formatMessage(rule Rule, e *domain.EventRecord) string {
	if rule.Message == nil {
		return string(rule.ID)
	}

	var buf bytes.Buffer
	if err := rule.Message.Execute(&buf, newMessageData(e)); err != nil {
		slog.Debug("failed to execute alert message template", "rule_id", rule.ID, "error", err)
		return string(rule.ID)
	}
	return buf.String()
}
