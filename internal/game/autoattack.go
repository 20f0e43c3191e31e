package game

import (
	"time"

	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/tick"
	"github.com/shardwell/worldcore/internal/world"
)

// autoAttackSpeedMs is the fixed basic-attack cadence until per-weapon
// attack speeds are modeled; monsters already carry their own
// AttackSpeedMs from the monster table.
const autoAttackSpeedMs = 1000

// AutoAttackSystem resolves basic attacks for every player with
// auto-attack toggled on and a live target in range, the Phase 2 "combat"
// step of spec.md §4.6.
type AutoAttackSystem struct {
	deps *Deps
}

func NewAutoAttackSystem(deps *Deps) *AutoAttackSystem { return &AutoAttackSystem{deps: deps} }

func (s *AutoAttackSystem) Phase() tick.Phase { return tick.PhaseCombat }

func (s *AutoAttackSystem) Update(now time.Time, dt time.Duration) {
	s.deps.State.IterateChannels(func(zoneID string, ch *world.Channel) {
		for _, p := range ch.Players {
			if !p.AutoAttack || !p.IsAlive() || p.TargetEntityID == 0 {
				continue
			}
			target, ok := ch.Monsters[p.TargetEntityID]
			if !ok || !target.IsAlive() {
				continue
			}
			if now.Sub(p.LastAttackTime) < autoAttackSpeedMs*time.Millisecond {
				continue
			}
			if world.DistanceTo(p.Position, target.Position) > target.AttackRange {
				continue
			}

			p.LastAttackTime = now
			attackPower := combat.PlayerAttackPower(p.WeaponBaseAttack, p.Stats.STR, p.Level)
			dmg := combat.Roll(attackPower, target.Defense, combat.BasicAttackCritChance)
			target.HP -= dmg
			if target.HP < 0 {
				target.HP = 0
			}

			tick.Emit(s.deps.Bus, combat.DamageEvent{AttackerID: p.ID, TargetID: target.ID, Amount: dmg, At: now})
			s.deps.Broadcast.BroadcastDamage(ch, target.Position.X, target.Position.Z,
				combat.DamageEvent{AttackerID: p.ID, TargetID: target.ID, Amount: dmg, At: now})

			if target.HP == 0 {
				dropped, xp := combat.KillMonster(target, p.ID, now, s.deps.Loot)
				p.XP += xp
				p.MarkDirty()
				tick.Emit(s.deps.Bus, combat.EntityDeathEvent{VictimID: target.ID, KillerID: p.ID, At: now})
				s.deps.Broadcast.BroadcastDeath(ch, target.Position.X, target.Position.Z,
					combat.EntityDeathEvent{VictimID: target.ID, KillerID: p.ID, At: now})
				s.deps.Broadcast.Unicast(p, combat.XpGainEvent{PlayerID: p.ID, Amount: xp, At: now})
				depositGroundLoot(s.deps, ch, target.Position, dropped)
			}
		}
	})
}
