// Package anticheat implements the cross-cutting server-authoritative
// validators of spec.md §4.11: movement cap, skill/vendor/loot gating
// (built atop internal/combat's own ordered checks), replay detection,
// and stat-redistribution accounting. None of it trusts client-reported
// state beyond what the tick loop has already recorded for the entity.
package anticheat

import (
	"time"

	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/world"
)

const opMovementInput = uint16(0x0101) // wire.OpMovementInput

// MovementResult is the outcome of validating one movement input against
// the player's last known position.
type MovementResult struct {
	Accepted    bool
	Corrected   world.Vec3 // authoritative position to send back when rejected
}

// ValidateMovement implements testable property 4: for all displacement
// vectors with |v| > maxSpeed*dt*1.2 (the configured latency grace), or
// whose destination falls outside the zone's bounds, the movement is
// rejected and the caller must emit a PositionCorrection holding the
// player's last accepted position. On acceptance the caller is
// responsible for writing newPos into the player and updating the
// spatial grid.
func ValidateMovement(p *world.Player, newPos world.Vec3, dt time.Duration, maxSpeed, gracePct float64, zone *world.Zone) (MovementResult, *errs.Error) {
	if zone != nil && !zone.InBounds(newPos) {
		return MovementResult{Accepted: false, Corrected: p.Position}, errs.New(errs.Validation, errs.CodeInputOutOfBounds, opMovementInput)
	}

	displacement := world.DistanceTo(p.Position, newPos)
	allowed := maxSpeed * dt.Seconds() * (1 + gracePct)
	if displacement > allowed {
		return MovementResult{Accepted: false, Corrected: p.Position}, errs.New(errs.Validation, errs.CodeInputOutOfBounds, opMovementInput)
	}

	return MovementResult{Accepted: true, Corrected: newPos}, nil
}
