package service

import (
	"github.com/mtlprog/opschief/internal/domain"
)

// BuildPatch returns the flag fields a resolution of rule must set on the event.
// Fields that are already true are left out, so resolving an already satisfied
// alert yields an empty patch and no write.
func BuildPatch(rule domain.RuleID, event *domain.EventRecord) domain.FieldPatch {
	patch := domain.FieldPatch{}

	setIfFalse := func(f domain.Field) {
		if v, ok := event.FlagValue(f); ok && !v {
			patch[f] = true
		}
	}

	switch rule {
	case domain.RulePickup:
		// Only the specific confirmations that are still pending.
		for _, f := range event.PendingPickups() {
			patch[f] = true
		}
	case domain.RuleHotHold:
		setIfFalse(domain.FieldKitchenHotHoldConfirmed)
	case domain.RulePackOut:
		setIfFalse(domain.FieldPackOutComplete)
	case domain.RuleSpecialHandling:
		setIfFalse(domain.FieldSpecialHandlingAcknowledged)
	case domain.RuleKitchenNotes:
		setIfFalse(domain.FieldOpsAcknowledged)
	}

	return patch
}

// OutcomeFor returns the outcome a successful resolution of rule reports.
func OutcomeFor(rule domain.RuleID, assignee *domain.Staff) domain.Outcome {
	switch rule {
	case domain.RulePickup:
		name := ""
		if assignee != nil {
			name = assignee.Name
		}
		return domain.Outcome{Kind: domain.OutcomeAssigned, AssigneeName: name}
	case domain.RuleSpecialHandling, domain.RuleKitchenNotes:
		return domain.Outcome{Kind: domain.OutcomeAcknowledged}
	default:
		return domain.Outcome{Kind: domain.OutcomeConfirmed}
	}
}
