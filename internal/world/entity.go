// Package world owns the authoritative in-memory world state: zones,
// channels, player and monster entity tables, and each channel's spatial
// grid. Every exported mutator is documented as tick-goroutine-only; the
// package holds no locks because nothing but the tick ever touches it.
package world

import "sync/atomic"

// EntityID is a process-wide unique identifier. The ID space is split so
// identity alone discriminates kind: IDs below the State's
// monsterIDBase are players, everything at or above it is a monster. This
// realizes the tagged-variant entity model without a shared supertype.
type EntityID int64

// IDAllocator hands out monotonically increasing IDs from a configurable
// floor, used separately for the player and monster ranges.
type IDAllocator struct {
	next atomic.Int64
}

// NewIDAllocator returns an allocator whose first Next() call returns floor.
func NewIDAllocator(floor int64) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(floor - 1)
	return a
}

// Next returns the next unique ID in this allocator's range.
func (a *IDAllocator) Next() EntityID {
	return EntityID(a.next.Add(1))
}
