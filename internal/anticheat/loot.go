package anticheat

import (
	"time"

	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/world"
)

const opInventory = uint16(0x0401) // wire.OpInventory

// ValidateLootPickup wraps combat.SpawnedLoot.CanPickUp in the taxonomy
// error type, for handlers that need an *errs.Error rather than a bool.
func ValidateLootPickup(loot combat.SpawnedLoot, entityID world.EntityID, now time.Time) *errs.Error {
	if loot.CanPickUp(entityID, now) {
		return nil
	}
	return errs.New(errs.Authorisation, errs.CodeLootNotOwned, opInventory)
}
