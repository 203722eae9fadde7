package alerts

import "github.com/mtlprog/opschief/internal/domain"

// ActionsFor returns the resolution actions offered for a rule.
// Display-only rules (approaching, bar-risk) return nil.
func ActionsFor(id domain.RuleID) []domain.Action {
	switch id {
	case domain.RulePickup:
		return []domain.Action{domain.ActionAssign}
	case domain.RuleHotHold, domain.RulePackOut:
		return []domain.Action{domain.ActionConfirm}
	case domain.RuleSpecialHandling, domain.RuleKitchenNotes:
		return []domain.Action{domain.ActionAcknowledge}
	default:
		return nil
	}
}

// Offers reports whether action resolves alerts raised by rule id.
func Offers(id domain.RuleID, action domain.Action) bool {
	for _, a := range ActionsFor(id) {
		if a == action {
			return true
		}
	}
	return false
}

// IsDisplayOnly returns true for rules that have no resolution action.
func IsDisplayOnly(id domain.RuleID) bool {
	return len(ActionsFor(id)) == 0
}
