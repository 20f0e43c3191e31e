package anticheat

import (
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/world"
)

const opVendorBuy = uint16(0x0404) // wire.OpVendorBuy

// ValidateVendorProximity enforces the npc-interact-range check from
// spec.md §4.11: a vendor buy/sell is only valid while the player is
// within rangeLimit world units of the addressed NPC.
func ValidateVendorProximity(p *world.Player, npcPos world.Vec3, rangeLimit float64) *errs.Error {
	if world.DistanceTo(p.Position, npcPos) > rangeLimit {
		return errs.New(errs.State, errs.CodeOutOfRange, opVendorBuy)
	}
	return nil
}
