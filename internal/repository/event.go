package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/opschief/internal/domain"
)

// eventColumns is the shared select list for event queries.
// Nullable flags and notes read as false / empty, an unknown date as NULL days_until.
var eventColumns = []string{
	"id",
	"name",
	"COALESCE(venue, '')",
	"COALESCE(dispatch_time, '')",
	"(event_date - CURRENT_DATE) AS days_until",
	"COALESCE(special_handling_note, '')",
	"COALESCE(special_handling_acknowledged, false)",
	"COALESCE(sushi_required, false)",
	"COALESCE(sushi_pickup_confirmed, false)",
	"COALESCE(dessert_pickup_required, false)",
	"COALESCE(dessert_pickup_confirmed, false)",
	"COALESCE(outside_vendor_pickup, false)",
	"COALESCE(outside_vendor_confirmed, false)",
	"COALESCE(food_must_go_hot, false)",
	"COALESCE(kitchen_hot_hold_confirmed, false)",
	"COALESCE(beo_finalized, false)",
	"COALESCE(pack_out_complete, false)",
	"COALESCE(kitchen_notes, '')",
	"COALESCE(ops_acknowledged, false)",
	"COALESCE(bar_inventory_risk, false)",
	"COALESCE(kitchen_confirmed, false)",
	"COALESCE(pickups_confirmed, false)",
	"COALESCE(dispatch_timing_confirmed, false)",
}

// EventRepository is the PostgreSQL event store.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// scanEvent scans a single row into an EventRecord.
func scanEvent(row pgx.Row) (*domain.EventRecord, error) {
	var (
		e                                  domain.EventRecord
		specialNote, kitchenNotes          string
		daysUntil                          *int32
		specialAck, sushi, sushiConfirmed  bool
		dessert, dessertConfirmed          bool
		vendor, vendorConfirmed            bool
		hot, hotHold, beo, packOut, opsAck bool
		barRisk, kitchen, pickups, timing  bool
	)

	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Venue,
		&e.DispatchTime,
		&daysUntil,
		&specialNote,
		&specialAck,
		&sushi,
		&sushiConfirmed,
		&dessert,
		&dessertConfirmed,
		&vendor,
		&vendorConfirmed,
		&hot,
		&hotHold,
		&beo,
		&packOut,
		&kitchenNotes,
		&opsAck,
		&barRisk,
		&kitchen,
		&pickups,
		&timing,
	)
	if err != nil {
		return nil, rowErr(err, domain.ErrEventNotFound, "scan event")
	}

	if daysUntil != nil {
		d := int(*daysUntil)
		e.DaysUntil = &d
	}
	e.SpecialHandlingNote = domain.Note(specialNote)
	e.SpecialHandlingAcknowledged = domain.Flag(specialAck)
	e.SushiRequired = domain.Flag(sushi)
	e.SushiPickupConfirmed = domain.Flag(sushiConfirmed)
	e.DessertPickupRequired = domain.Flag(dessert)
	e.DessertPickupConfirmed = domain.Flag(dessertConfirmed)
	e.OutsideVendorPickup = domain.Flag(vendor)
	e.OutsideVendorConfirmed = domain.Flag(vendorConfirmed)
	e.FoodMustGoHot = domain.Flag(hot)
	e.KitchenHotHoldConfirmed = domain.Flag(hotHold)
	e.BEOFinalized = domain.Flag(beo)
	e.PackOutComplete = domain.Flag(packOut)
	e.KitchenNotes = domain.Note(kitchenNotes)
	e.OpsAcknowledged = domain.Flag(opsAck)
	e.BarInventoryRisk = domain.Flag(barRisk)
	e.KitchenConfirmed = domain.Flag(kitchen)
	e.PickupsConfirmed = domain.Flag(pickups)
	e.DispatchTimingConfirmed = domain.Flag(timing)

	return &e, nil
}

// ListEvents returns every event ordered by event date, undated events last.
func (r *EventRepository) ListEvents(ctx context.Context) ([]domain.EventRecord, error) {
	query, args, err := psql.
		Select(eventColumns...).
		From("events").
		OrderBy("event_date ASC NULLS LAST", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListEvents query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []domain.EventRecord{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return events, nil
}

// GetByID retrieves an event by ID.
func (r *EventRepository) GetByID(ctx context.Context, eventID string) (*domain.EventRecord, error) {
	query, args, err := psql.
		Select(eventColumns...).
		From("events").
		Where(sq.Eq{"id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for event: %w", err)
	}

	return scanEvent(r.pool.QueryRow(ctx, query, args...))
}

// UpdateFields writes only the patched flag columns of one event.
// Returns ErrUnknownField for a non-patchable field and ErrEventNotFound when no row matched.
func (r *EventRepository) UpdateFields(ctx context.Context, eventID string, patch domain.FieldPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	update := psql.Update("events")
	for _, name := range patch.Fields() {
		f := domain.Field(name)
		if !f.IsPatchable() {
			return fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
		}
		update = update.Set(name, patch[f])
	}

	query, args, err := update.
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": eventID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateFields query for event %s: %w", eventID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update event fields: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}

	return nil
}

// Create inserts an event. The event date is derived from DaysUntil.
func (r *EventRepository) Create(ctx context.Context, e *domain.EventRecord) error {
	var eventDate any
	if e.DaysUntil != nil {
		eventDate = sq.Expr("CURRENT_DATE + ?::int", *e.DaysUntil)
	}

	query, args, err := psql.
		Insert("events").
		Columns(
			"id", "name", "venue", "dispatch_time", "event_date",
			"special_handling_note", "special_handling_acknowledged",
			"sushi_required", "sushi_pickup_confirmed",
			"dessert_pickup_required", "dessert_pickup_confirmed",
			"outside_vendor_pickup", "outside_vendor_confirmed",
			"food_must_go_hot", "kitchen_hot_hold_confirmed",
			"beo_finalized", "pack_out_complete",
			"kitchen_notes", "ops_acknowledged",
			"bar_inventory_risk", "kitchen_confirmed",
			"pickups_confirmed", "dispatch_timing_confirmed",
		).
		Values(
			e.ID, e.Name, e.Venue, e.DispatchTime, eventDate,
			string(e.SpecialHandlingNote), bool(e.SpecialHandlingAcknowledged),
			bool(e.SushiRequired), bool(e.SushiPickupConfirmed),
			bool(e.DessertPickupRequired), bool(e.DessertPickupConfirmed),
			bool(e.OutsideVendorPickup), bool(e.OutsideVendorConfirmed),
			bool(e.FoodMustGoHot), bool(e.KitchenHotHoldConfirmed),
			bool(e.BEOFinalized), bool(e.PackOutComplete),
			string(e.KitchenNotes), bool(e.OpsAcknowledged),
			bool(e.BarInventoryRisk), bool(e.KitchenConfirmed),
			bool(e.PickupsConfirmed), bool(e.DispatchTimingConfirmed),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for event: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	query, args, err := psql.
		Delete("events").
		Where(sq.Eq{"id": eventID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for event: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}

	return nil
}
