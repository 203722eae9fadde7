package service

import (
	"context"
	"fmt"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/domain"
)

// Validator checks session input before anything is written.
type Validator struct {
	staff StaffDirectory
}

// NewValidator creates a new Validator.
func NewValidator(staff StaffDirectory) *Validator {
	return &Validator{
		staff: staff,
	}
}

// CanSubmit validates that action resolves the session's alert.
func (v *Validator) CanSubmit(session *domain.Session, action domain.Action) error {
	rule := session.Alert.RuleID

	// Display-only advisories have nothing to submit
	if alerts.IsDisplayOnly(rule) {
		return fmt.Errorf("%w: rule %s", domain.ErrNoResolutionAction, rule)
	}

	if !action.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}

	if !alerts.Offers(rule, action) {
		return fmt.Errorf("%w: %s cannot resolve rule %s", domain.ErrActionNotAllowed, action, rule)
	}

	return nil
}

// CanAssign validates that the session's alert takes an assignee at all.
func (v *Validator) CanAssign(session *domain.Session) error {
	if !alerts.Offers(session.Alert.RuleID, domain.ActionAssign) {
		return fmt.Errorf("%w: rule %s does not take an assignee", domain.ErrActionNotAllowed, session.Alert.RuleID)
	}
	return nil
}

// ResolveAssignee looks staffID up in the staff directory.
// Returns ErrAssigneeRequired for an empty id, ErrUnknownAssignee when the
// directory does not list the person as assignable and ErrPersistence when the
// directory cannot be read.
func (v *Validator) ResolveAssignee(ctx context.Context, staffID string) (*domain.Staff, error) {
	if staffID == "" {
		return nil, domain.ErrAssigneeRequired
	}

	staff, err := v.staff.ListAssignableStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list assignable staff: %w", domain.ErrPersistence, err)
	}

	for i := range staff {
		if staff[i].ID == staffID {
			member := staff[i]
			return &member, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAssignee, staffID)
}
