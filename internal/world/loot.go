package world

import "time"

// GroundLootEntry is one item stack lying on the ground after a kill,
// exclusively pickable by KillerID until OwnedUntil (spec.md §4.7/§4.11).
type GroundLootEntry struct {
	ID         int64
	ItemID     int32
	Count      int32
	Position   Vec3
	KillerID   EntityID
	OwnedUntil time.Time
}
