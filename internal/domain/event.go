package domain

import "strings"

// EventRecord represents one booked catering job as stored in the event store.
type EventRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Venue        string `json:"venue"`
	DispatchTime string `json:"dispatch_time"`
	// DaysUntil is negative once the event date has passed; nil when the date is unknown.
	DaysUntil *int `json:"days_until"`

	SpecialHandlingNote         Note `json:"special_handling_note"`
	SpecialHandlingAcknowledged Flag `json:"special_handling_acknowledged"`

	SushiRequired          Flag `json:"sushi_required"`
	SushiPickupConfirmed   Flag `json:"sushi_pickup_confirmed"`
	DessertPickupRequired  Flag `json:"dessert_pickup_required"`
	DessertPickupConfirmed Flag `json:"dessert_pickup_confirmed"`
	OutsideVendorPickup    Flag `json:"outside_vendor_pickup"`
	OutsideVendorConfirmed Flag `json:"outside_vendor_confirmed"`

	FoodMustGoHot           Flag `json:"food_must_go_hot"`
	KitchenHotHoldConfirmed Flag `json:"kitchen_hot_hold_confirmed"`

	BEOFinalized    Flag `json:"beo_finalized"`
	PackOutComplete Flag `json:"pack_out_complete"`

	KitchenNotes    Note `json:"kitchen_notes"`
	OpsAcknowledged Flag `json:"ops_acknowledged"`

	BarInventoryRisk        Flag `json:"bar_inventory_risk"`
	KitchenConfirmed        Flag `json:"kitchen_confirmed"`
	PickupsConfirmed        Flag `json:"pickups_confirmed"`
	DispatchTimingConfirmed Flag `json:"dispatch_timing_confirmed"`
}

// HasSpecialHandling reports whether a non-blank special handling note is present.
func (e *EventRecord) HasSpecialHandling() bool {
	return e.SpecialHandlingNote.Present()
}

// HasKitchenNotes reports whether non-blank kitchen notes are present.
func (e *EventRecord) HasKitchenNotes() bool {
	return e.KitchenNotes.Present()
}

// PendingPickups returns the pickup confirmation fields that are required but still false,
// in a fixed order (sushi, dessert, outside vendor).
func (e *EventRecord) PendingPickups() []Field {
	var pending []Field
	if e.SushiRequired && !e.SushiPickupConfirmed {
		pending = append(pending, FieldSushiPickupConfirmed)
	}
	if e.DessertPickupRequired && !e.DessertPickupConfirmed {
		pending = append(pending, FieldDessertPickupConfirmed)
	}
	if e.OutsideVendorPickup && !e.OutsideVendorConfirmed {
		pending = append(pending, FieldOutsideVendorConfirmed)
	}
	return pending
}

// OpsChecklistComplete reports whether every flag the approaching-event warning watches is set.
func (e *EventRecord) OpsChecklistComplete() bool {
	return bool(e.KitchenConfirmed && e.PackOutComplete && e.PickupsConfirmed && e.DispatchTimingConfirmed)
}

// FlagValue returns the current value of a patchable flag field.
// The second value is false for fields the record does not carry.
func (e *EventRecord) FlagValue(f Field) (bool, bool) {
	switch f {
	case FieldSpecialHandlingAcknowledged:
		return bool(e.SpecialHandlingAcknowledged), true
	case FieldSushiPickupConfirmed:
		return bool(e.SushiPickupConfirmed), true
	case FieldDessertPickupConfirmed:
		return bool(e.DessertPickupConfirmed), true
	case FieldOutsideVendorConfirmed:
		return bool(e.OutsideVendorConfirmed), true
	case FieldKitchenHotHoldConfirmed:
		return bool(e.KitchenHotHoldConfirmed), true
	case FieldPackOutComplete:
		return bool(e.PackOutComplete), true
	case FieldOpsAcknowledged:
		return bool(e.OpsAcknowledged), true
	default:
		return false, false
	}
}

// Apply sets every flag in the patch on the record. Unknown fields are ignored.
func (e *EventRecord) Apply(patch FieldPatch) {
	for f, v := range patch {
		flag := Flag(v)
		switch f {
		case FieldSpecialHandlingAcknowledged:
			e.SpecialHandlingAcknowledged = flag
		case FieldSushiPickupConfirmed:
			e.SushiPickupConfirmed = flag
		case FieldDessertPickupConfirmed:
			e.DessertPickupConfirmed = flag
		case FieldOutsideVendorConfirmed:
			e.OutsideVendorConfirmed = flag
		case FieldKitchenHotHoldConfirmed:
			e.KitchenHotHoldConfirmed = flag
		case FieldPackOutComplete:
			e.PackOutComplete = flag
		case FieldOpsAcknowledged:
			e.OpsAcknowledged = flag
		}
	}
}

// PickupLabel returns the human-readable name of a pickup confirmation field.
func PickupLabel(f Field) string {
	switch f {
	case FieldSushiPickupConfirmed:
		return "sushi"
	case FieldDessertPickupConfirmed:
		return "dessert"
	case FieldOutsideVendorConfirmed:
		return "outside vendor"
	default:
		return strings.ReplaceAll(string(f), "_", " ")
	}
}
