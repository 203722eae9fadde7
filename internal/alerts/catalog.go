// Package alerts holds the rule catalog and the alert projector.
//
// Alerts are never stored: every call to Project recomputes them from the event
// records, so the alert list cannot drift from the data it describes.
package alerts

import (
	"strings"
	"text/template"

	"github.com/mtlprog/opschief/internal/domain"
)

// ApproachingWindowDays is the inclusive upper bound of the approaching-event window.
const ApproachingWindowDays = 5

// Rule is one entry of the catalog: a pure predicate over a single event plus
// the template used to describe it.
type Rule struct {
	ID        domain.RuleID
	Severity  domain.Severity
	Predicate func(e *domain.EventRecord) bool
	Message   *template.Template
}

// Catalog is an ordered list of rules. Order is preserved in projections.
type Catalog []Rule

// Default is the fixed rule catalog used by the service.
var Default = Catalog{
	{
		ID:       domain.RuleSpecialHandling,
		Severity: domain.SeverityCritical,
		Predicate: func(e *domain.EventRecord) bool {
			return e.HasSpecialHandling() && !bool(e.SpecialHandlingAcknowledged)
		},
		Message: mustTemplate(domain.RuleSpecialHandling, "Special handling required: {{.Note}}"),
	},
	{
		ID:       domain.RulePickup,
		Severity: domain.SeverityCritical,
		Predicate: func(e *domain.EventRecord) bool {
			return len(e.PendingPickups()) > 0
		},
		Message: mustTemplate(domain.RulePickup, "Pickup not confirmed: {{.Pickups}}"),
	},
	{
		ID:       domain.RuleHotHold,
		Severity: domain.SeverityCritical,
		Predicate: func(e *domain.EventRecord) bool {
			return bool(e.FoodMustGoHot && !e.KitchenHotHoldConfirmed)
		},
		Message: mustTemplate(domain.RuleHotHold, "Food must go hot but kitchen hot-hold is not confirmed"),
	},
	{
		ID:       domain.RulePackOut,
		Severity: domain.SeverityCritical,
		Predicate: func(e *domain.EventRecord) bool {
			return bool(e.BEOFinalized && !e.PackOutComplete)
		},
		Message: mustTemplate(domain.RulePackOut, "BEO is finalized but pack-out is not complete"),
	},
	{
		ID:       domain.RuleApproaching,
		Severity: domain.SeverityWarning,
		Predicate: func(e *domain.EventRecord) bool {
			if e.DaysUntil == nil {
				return false
			}
			days := *e.DaysUntil
			return days >= 0 && days <= ApproachingWindowDays && !e.OpsChecklistComplete()
		},
		Message: mustTemplate(domain.RuleApproaching, "Event in {{.DaysUntil}} days with open items: {{.OpenItems}}"),
	},
	{
		ID:       domain.RuleKitchenNotes,
		Severity: domain.SeverityWarning,
		Predicate: func(e *domain.EventRecord) bool {
			return e.HasKitchenNotes() && !bool(e.OpsAcknowledged)
		},
		Message: mustTemplate(domain.RuleKitchenNotes, "Kitchen notes not acknowledged by ops: {{.KitchenNotes}}"),
	},
	{
		ID:       domain.RuleBarRisk,
		Severity: domain.SeverityWarning,
		Predicate: func(e *domain.EventRecord) bool {
			return bool(e.BarInventoryRisk)
		},
		Message: mustTemplate(domain.RuleBarRisk, "Bar inventory at risk"),
	},
}

// Rule returns the catalog entry with the given id.
func (c Catalog) Rule(id domain.RuleID) (Rule, bool) {
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

func mustTemplate(id domain.RuleID, text string) *template.Template {
	return template.Must(template.New(string(id)).Parse(text))
}

// messageData holds the values available to rule message templates.
type messageData struct {
	Name         string
	Venue        string
	DispatchTime string
	DaysUntil    int
	Note         string
	KitchenNotes string
	Pickups      string
	OpenItems    string
}

func newMessageData(e *domain.EventRecord) messageData {
	data := messageData{
		Name:         e.Name,
		Venue:        e.Venue,
		DispatchTime: e.DispatchTime,
		Note:         e.SpecialHandlingNote.Trimmed(),
		KitchenNotes: e.KitchenNotes.Trimmed(),
	}
	if e.DaysUntil != nil {
		data.DaysUntil = *e.DaysUntil
	}

	pickups := make([]string, 0, 3)
	for _, f := range e.PendingPickups() {
		pickups = append(pickups, domain.PickupLabel(f))
	}
	data.Pickups = strings.Join(pickups, ", ")

	var open []string
	if !e.KitchenConfirmed {
		open = append(open, "kitchen")
	}
	if !e.PackOutComplete {
		open = append(open, "pack-out")
	}
	if !e.PickupsConfirmed {
		open = append(open, "pickups")
	}
	if !e.DispatchTimingConfirmed {
		open = append(open, "dispatch timing")
	}
	data.OpenItems = strings.Join(open, ", ")

	return data
}
