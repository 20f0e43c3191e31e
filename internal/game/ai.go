package game

import (
	"time"

	"github.com/shardwell/worldcore/internal/ai"
	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/world"
)

// AISystem advances every live monster's state machine once per tick
// (spec.md §4.6 step 3 / §4.8), choosing the nearest live player in the
// monster's own channel as its candidate target via the spatial grid.
type AISystem struct {
	deps *Deps
}

func NewAISystem(deps *Deps) *AISystem { return &AISystem{deps: deps} }

func (s *AISystem) Phase() tick.Phase { return tick.PhaseAI }

func (s *AISystem) Update(now time.Time, dt time.Duration) {
	s.deps.State.IterateChannels(func(zoneID string, ch *world.Channel) {
		for _, m := range ch.Monsters {
			target := nearestTarget(ch, m)
			moved, atk := ai.Transition(m, target, now, dt)
			if moved {
				ch.MoveMonster(m.ID, m.Position)
			}
			if atk != nil {
				s.resolveMonsterAttack(ch, atk, now)
			}
		}
	})
}

// resolveMonsterAttack broadcasts a landed monster auto-attack and, if it
// killed the target, runs the player-death branch of spec.md §4.7: an
// immediate respawn at the zone's default spawn with full HP/MP.
func (s *AISystem) resolveMonsterAttack(ch *world.Channel, atk *ai.AttackResult, now time.Time) {
	target, ok := ch.Players[atk.TargetID]
	if !ok {
		return
	}
	target.MarkDirty()

	tick.Emit(s.deps.Bus, combat.DamageEvent{AttackerID: atk.AttackerID, TargetID: target.ID, Amount: atk.Damage, At: now})
	s.deps.Broadcast.BroadcastDamage(ch, target.Position.X, target.Position.Z,
		combat.DamageEvent{AttackerID: atk.AttackerID, TargetID: target.ID, Amount: atk.Damage, At: now})

	if !atk.Killed {
		return
	}
	target.Dead = true
	tick.Emit(s.deps.Bus, combat.EntityDeathEvent{VictimID: target.ID, KillerID: atk.AttackerID, At: now})
	s.deps.Broadcast.BroadcastDeath(ch, target.Position.X, target.Position.Z,
		combat.EntityDeathEvent{VictimID: target.ID, KillerID: atk.AttackerID, At: now})

	spawn := target.Position
	if zone, ok := s.deps.State.Zone(target.ZoneID); ok {
		spawn = zone.Def.DefaultSpawn
	}
	combat.RespawnPlayer(target, spawn)
	target.MarkDirty()
	ch.MovePlayer(target.ID, target.Position)
	s.deps.Broadcast.Unicast(target, PlayerRespawnEvent{X: target.Position.X, Y: target.Position.Y, Z: target.Position.Z, HP: target.HP, MP: target.MP})
}

// nearestTarget prefers the monster's already-locked target if still
// live, falling back to the closest player within aggro range so IDLE
// monsters have a candidate to evaluate against.
func nearestTarget(ch *world.Channel, m *world.Monster) *world.Player {
	if m.TargetEntityID != 0 {
		if p, ok := ch.Players[m.TargetEntityID]; ok && p.IsAlive() {
			return p
		}
	}

	var best *world.Player
	bestDist := m.AggroRange
	for _, p := range ch.NearbyPlayers(m.Position.X, m.Position.Z) {
		if !p.IsAlive() {
			continue
		}
		d := world.DistanceTo(m.Position, p.Position)
		if d <= bestDist {
			best = p
			bestDist = d
		}
	}
	return best
}
