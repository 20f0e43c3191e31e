package game

import (
	"encoding/binary"
	"time"

	"github.com/shardwell/worldcore/internal/anticheat"
	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/queue"
	"github.com/shardwell/worldcore/internal/world"
)

// depositGroundLoot places each stack a kill rolled onto the channel's
// ground-loot table at the kill position and broadcasts its spawn, so it
// becomes reachable through handleLootPickup (spec.md §4.7/§4.11).
func depositGroundLoot(deps *Deps, ch *world.Channel, pos world.Vec3, dropped []combat.SpawnedLoot) {
	for _, loot := range dropped {
		entry := &world.GroundLootEntry{
			ID:         deps.State.NextLootID(),
			ItemID:     loot.ItemID,
			Count:      loot.Count,
			Position:   pos,
			KillerID:   loot.KillerID,
			OwnedUntil: loot.OwnedUntil,
		}
		ch.AddGroundLoot(entry)
		deps.Broadcast.BroadcastSpawn(ch, pos.X, pos.Z, GroundLootSpawnEvent{
			LootID: entry.ID, ItemID: entry.ItemID, Count: entry.Count,
			X: pos.X, Y: pos.Y, Z: pos.Z,
		})
	}
}

// handleLootPickup resolves an OpLootPickup request: checks the
// requesting player's pickup rights over the named ground-loot entry via
// the loot-ownership anti-cheat rule, removes the entry on success, and
// persists the resulting inventory the client computed — the payload
// tail after the loot ID is the same slot-list shape OpInventory uses.
func (s *InputSystem) handleLootPickup(pkt queue.Packet, now time.Time) {
	if len(pkt.Payload) < 8 {
		return
	}
	lootID := int64(binary.BigEndian.Uint64(pkt.Payload[0:8]))

	p, ch, ok := s.deps.PlayerByAccount(pkt.AccountID)
	if !ok {
		return
	}
	entry, ok := ch.GroundLootByID(lootID)
	if !ok {
		return
	}

	loot := combat.SpawnedLoot{ItemID: entry.ItemID, Count: entry.Count, KillerID: entry.KillerID, OwnedUntil: entry.OwnedUntil}
	if verr := anticheat.ValidateLootPickup(loot, p.ID, now); verr != nil {
		s.emitError(p, verr)
		return
	}

	ch.RemoveGroundLoot(lootID)
	s.deps.Broadcast.BroadcastDespawn(ch, entry.Position.X, entry.Position.Z, GroundLootDespawnEvent{LootID: lootID})
	s.applyInventoryUpdate(p, pkt.Payload[8:])
}
