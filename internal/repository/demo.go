package repository

import (
	"context"
	"fmt"

	"github.com/mtlprog/opschief/internal/domain"
)

func daysOut(n int) *int {
	return &n
}

// DemoEvents returns a fixed set of events that raises every rule at least once.
func DemoEvents() []domain.EventRecord {
	return []domain.EventRecord{
		{
			ID: "evt-hartley", Name: "Hartley Wedding", Venue: "Rosewood Barn", DispatchTime: "14:30",
			DaysUntil: daysOut(2), FoodMustGoHot: true, BEOFinalized: true,
			SpecialHandlingNote: "Severe nut allergy at table 4",
			KitchenConfirmed:    true,
		},
		{
			ID: "evt-offsite", Name: "Tech Offsite", Venue: "Pier 9", DispatchTime: "07:45",
			DaysUntil: daysOut(4), SushiRequired: true, DessertPickupRequired: true,
			DessertPickupConfirmed: true, OutsideVendorPickup: true,
			KitchenNotes: "Swap rice for quinoa on 12 boxes",
		},
		{
			ID: "evt-gala", Name: "Museum Gala", Venue: "City Museum", DispatchTime: "17:00",
			DaysUntil: daysOut(12), BarInventoryRisk: true, FoodMustGoHot: true,
			KitchenHotHoldConfirmed: true,
		},
		{
			ID: "evt-retreat", Name: "Board Retreat", Venue: "Lakeside Lodge", DispatchTime: "09:00",
			DaysUntil: daysOut(20), KitchenConfirmed: true, PackOutComplete: true,
			PickupsConfirmed: true, DispatchTimingConfirmed: true,
		},
	}
}

// DemoStaff returns the staff directory that goes with DemoEvents.
func DemoStaff() []domain.Staff {
	return []domain.Staff{
		{ID: "stf-marcus", Name: "Marcus T.", Role: "driver", Active: true},
		{ID: "stf-ana", Name: "Ana R.", Role: "captain", Active: true},
		{ID: "stf-priya", Name: "Priya K.", Role: "sous chef", Active: true},
		{ID: "stf-lee", Name: "Lee W.", Role: "driver", Active: false},
	}
}

// EventCreator stores new event records.
type EventCreator interface {
	Create(ctx context.Context, e *domain.EventRecord) error
}

// StaffCreator stores new staff members.
type StaffCreator interface {
	Create(ctx context.Context, s *domain.Staff) error
}

// SeedDemo writes DemoEvents and DemoStaff through the given repositories.
func SeedDemo(ctx context.Context, events EventCreator, staff StaffCreator) error {
	return Seed(ctx, events, staff, DemoEvents(), DemoStaff())
}

// Seed writes the staff members first, then the event records.
func Seed(ctx context.Context, events EventCreator, staff StaffCreator, records []domain.EventRecord, members []domain.Staff) error {
	for _, m := range members {
		if err := staff.Create(ctx, &m); err != nil {
			return fmt.Errorf("seed staff %s: %w", m.ID, err)
		}
	}
	for _, e := range records {
		if err := events.Create(ctx, &e); err != nil {
			return fmt.Errorf("seed event %s: %w", e.ID, err)
		}
	}
	return nil
}
