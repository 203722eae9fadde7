package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/opschief/internal/domain"
)

// MemoryStore is an in-process event store, staff directory and resolution log.
// It backs the demo command and unit tests.
type MemoryStore struct {
	mu          sync.RWMutex
	events      []domain.EventRecord
	staff       []domain.Staff
	resolutions []domain.Resolution
}

// NewMemoryStore creates a MemoryStore seeded with events and staff.
func NewMemoryStore(events []domain.EventRecord, staff []domain.Staff) *MemoryStore {
	s := &MemoryStore{}
	for _, e := range events {
		s.events = append(s.events, copyEvent(e))
	}
	s.staff = slices.Clone(staff)
	return s
}

func copyEvent(e domain.EventRecord) domain.EventRecord {
	if e.DaysUntil != nil {
		d := *e.DaysUntil
		e.DaysUntil = &d
	}
	return e
}

// ListEvents returns a copy of all events in insertion order.
func (s *MemoryStore) ListEvents(ctx context.Context) ([]domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EventRecord, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, copyEvent(e))
	}
	return out, nil
}

// GetByID retrieves an event by ID.
func (s *MemoryStore) GetByID(ctx context.Context, eventID string) (*domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(eventID)
	if i < 0 {
		return nil, domain.ErrEventNotFound
	}
	e := copyEvent(s.events[i])
	return &e, nil
}

// UpdateFields applies patch to one event.
func (s *MemoryStore) UpdateFields(ctx context.Context, eventID string, patch domain.FieldPatch) error {
	for f := range patch {
		if !f.IsPatchable() {
			return fmt.Errorf("%w: %s", domain.ErrUnknownField, f)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(eventID)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}
	s.events[i].Apply(patch)
	return nil
}

// Create appends an event.
func (s *MemoryStore) Create(ctx context.Context, e *domain.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(e.ID) >= 0 {
		return fmt.Errorf("event %s already exists", e.ID)
	}
	s.events = append(s.events, copyEvent(*e))
	return nil
}

// Delete removes an event.
func (s *MemoryStore) Delete(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(eventID)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}
	s.events = slices.Delete(s.events, i, i+1)
	return nil
}

func (s *MemoryStore) indexOf(eventID string) int {
	return slices.IndexFunc(s.events, func(e domain.EventRecord) bool {
		return e.ID == eventID
	})
}

// ListAssignableStaff returns active staff in seed order.
func (s *MemoryStore) ListAssignableStaff(ctx context.Context) ([]domain.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Staff{}
	for _, m := range s.staff {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

// Record appends a resolution and fills in ID and CreatedAt when unset.
func (s *MemoryStore) Record(ctx context.Context, r *domain.Resolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	rec := *r
	rec.Patch = slices.Clone(r.Patch)
	s.resolutions = append(s.resolutions, rec)
	return nil
}

// ListByEvent returns the resolutions recorded for an event, oldest first.
func (s *MemoryStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Resolution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Resolution{}
	for _, r := range s.resolutions {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetRuleStats counts recorded resolutions per rule and outcome, ordered by rule.
func (s *MemoryStore) GetRuleStats(ctx context.Context, filters StatsFilters) ([]RuleStatsResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byRule := map[domain.RuleID]*RuleStatsResult{}
	for _, r := range s.resolutions {
		if r.CreatedAt.Before(filters.PeriodStart) || r.CreatedAt.After(filters.PeriodEnd) {
			continue
		}
		if filters.RuleID != nil && r.RuleID != *filters.RuleID {
			continue
		}

		stat, ok := byRule[r.RuleID]
		if !ok {
			stat = &RuleStatsResult{RuleID: r.RuleID}
			byRule[r.RuleID] = stat
		}
		switch r.Outcome {
		case domain.OutcomeConfirmed:
			stat.Confirmed++
		case domain.OutcomeAssigned:
			stat.Assigned++
		case domain.OutcomeAcknowledged:
			stat.Acknowledged++
		case domain.OutcomeFailed:
			stat.Failed++
		}
	}

	results := make([]RuleStatsResult, 0, len(byRule))
	for _, stat := range byRule {
		results = append(results, *stat)
	}
	slices.SortFunc(results, func(a, b RuleStatsResult) int {
		return cmp.Compare(a.RuleID, b.RuleID)
	})

	return results, nil
}
