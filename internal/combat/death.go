package combat

import (
	"math/rand"
	"time"

	"github.com/shardwell/worldcore/internal/data"
	"github.com/shardwell/worldcore/internal/world"
)

// LootOwnershipWindow is how long a killer holds exclusive pickup rights
// over loot it spawned, per spec.md §4.7/§4.11.
const LootOwnershipWindow = 30 * time.Second

// SpawnedLoot is one rolled drop, owned by killerID until OwnedUntil.
type SpawnedLoot struct {
	ItemID     int32
	Count      int32
	KillerID   world.EntityID
	OwnedUntil time.Time
}

// XpGainEvent is broadcast to the killer after a kill resolves.
type XpGainEvent struct {
	PlayerID world.EntityID
	Amount   int64
	At       time.Time
}

// KillMonster transitions a monster to DEAD, rolls its loot table, and
// returns the spawned loot plus the XP award, per spec.md §4.7's Death
// section. The caller emits EntityDeathEvent/XpGainEvent and awards XP.
func KillMonster(m *world.Monster, killerID world.EntityID, now time.Time, loot *data.LootTable) ([]SpawnedLoot, int64) {
	m.AIState = world.AIDead
	m.HP = 0
	m.DeathTime = now

	var dropped []SpawnedLoot
	for _, entry := range loot.Entries(monsterLootTableID(m)) {
		if rand.Float64() >= entry.Chance {
			continue
		}
		count := entry.MinCount
		if entry.MaxCount > entry.MinCount {
			count += int32(rand.Intn(int(entry.MaxCount-entry.MinCount) + 1))
		}
		dropped = append(dropped, SpawnedLoot{
			ItemID:     entry.ItemID,
			Count:      count,
			KillerID:   killerID,
			OwnedUntil: now.Add(LootOwnershipWindow),
		})
	}
	return dropped, m.XPReward
}

// monsterLootTableID reads the loot-table ID copied onto the monster from
// its definition at spawn time, so KillMonster doesn't need a
// MonsterTable dependency solely to resolve one field.
func monsterLootTableID(m *world.Monster) int32 {
	return m.LootTableID
}

// CanPickUp reports whether entityID may pick up loot at time now,
// per the loot-ownership anti-cheat rule (§4.11): exclusive to the killer
// until OwnedUntil, free for all afterward.
func (l SpawnedLoot) CanPickUp(entityID world.EntityID, now time.Time) bool {
	if now.After(l.OwnedUntil) {
		return true
	}
	return entityID == l.KillerID
}

// RespawnPlayer implements the player-death branch of spec.md §4.7: the
// player returns to the zone's default safe location with full HP/MP, no
// item loss.
func RespawnPlayer(p *world.Player, defaultSpawn world.Vec3) {
	p.Position = defaultSpawn
	p.HP = p.MaxHP
	p.MP = p.MaxMP
	p.Dead = false
}
