package domain

import "slices"

// Field names a patchable flag column of an event record.
type Field string

const (
	FieldSpecialHandlingAcknowledged Field = "special_handling_acknowledged"
	FieldSushiPickupConfirmed        Field = "sushi_pickup_confirmed"
	FieldDessertPickupConfirmed      Field = "dessert_pickup_confirmed"
	FieldOutsideVendorConfirmed      Field = "outside_vendor_confirmed"
	FieldKitchenHotHoldConfirmed     Field = "kitchen_hot_hold_confirmed"
	FieldPackOutComplete             Field = "pack_out_complete"
	FieldOpsAcknowledged             Field = "ops_acknowledged"
)

// IsPatchable reports whether the resolution workflow may write this field.
func (f Field) IsPatchable() bool {
	switch f {
	case FieldSpecialHandlingAcknowledged, FieldSushiPickupConfirmed, FieldDessertPickupConfirmed,
		FieldOutsideVendorConfirmed, FieldKitchenHotHoldConfirmed, FieldPackOutComplete,
		FieldOpsAcknowledged:
		return true
	default:
		return false
	}
}

// FieldPatch is a partial update of flag fields. Fields absent from the map are left untouched.
type FieldPatch map[Field]bool

// IsEmpty returns true when the patch would not change anything.
func (p FieldPatch) IsEmpty() bool {
	return len(p) == 0
}

// Fields returns the patched field names in sorted order.
func (p FieldPatch) Fields() []string {
	out := make([]string, 0, len(p))
	for f := range p {
		out = append(out, string(f))
	}
	slices.Sort(out)
	return out
}
