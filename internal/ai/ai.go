// Package ai drives the monster AI state machine of spec.md §4.8: a
// closed IDLE/AGGRO/ATTACK/RETURN/DEAD transition system, advanced once
// per tick per live monster. Grounded on the teacher's
// internal/system/npc_ai.go wander/aggro loop, generalized to the spec's
// exact transition table.
package ai

import (
	"time"

	"github.com/shardwell/worldcore/internal/combat"
	"github.com/shardwell/worldcore/internal/world"
)

// AttackResult reports a monster's auto-attack landing on its target, so
// the caller can emit the broadcast events and process the target's
// death without this package reaching into Deps/broadcast itself.
type AttackResult struct {
	AttackerID world.EntityID
	TargetID   world.EntityID
	Damage     int32
	Killed     bool
}

// Transition advances one monster by dt, given the nearest live player
// target (nil if none in range) found via the spatial grid. It mutates m
// (and, on a landed attack, target) in place. Returns whether the monster
// moved (so callers update the spatial grid) and, if its ATTACK cadence
// elapsed this tick, the resolved hit.
func Transition(m *world.Monster, target *world.Player, now time.Time, dt time.Duration) (moved bool, attack *AttackResult) {
	if m.AIState == world.AIDead {
		if m.CanRespawn(now) {
			m.Respawn()
		}
		return false, nil
	}

	if m.HP == 0 {
		m.AIState = world.AIDead
		m.DeathTime = now
		return false, nil
	}

	switch m.AIState {
	case world.AIIdle:
		if target != nil && world.DistanceTo(m.Position, target.Position) <= m.AggroRange {
			m.AIState = world.AIAggro
			m.TargetEntityID = target.ID
		}
		return false, nil

	case world.AIAggro:
		if target == nil || !target.IsAlive() || target.ID != m.TargetEntityID {
			m.AIState = world.AIReturn
			m.TargetEntityID = 0
			return false, nil
		}
		if world.DistanceTo(m.Position, m.SpawnPoint) > m.LeashRange {
			m.AIState = world.AIReturn
			m.TargetEntityID = 0
			return false, nil
		}
		if world.DistanceTo(m.Position, target.Position) <= m.AttackRange {
			m.AIState = world.AIAttack
			return false, nil
		}
		return advance(m, target.Position, dt), nil

	case world.AIAttack:
		if target == nil || !target.IsAlive() || target.ID != m.TargetEntityID {
			m.AIState = world.AIReturn
			m.TargetEntityID = 0
			return false, nil
		}
		if world.DistanceTo(m.Position, target.Position) > m.AttackRange {
			m.AIState = world.AIAggro
			return false, nil
		}
		if now.Sub(m.LastAttackTime) < time.Duration(m.AttackSpeedMs)*time.Millisecond {
			return false, nil
		}
		m.LastAttackTime = now
		dmg := combat.Roll(combat.MonsterAttackPower(m), combat.PlayerDefense(target), combat.BasicAttackCritChance)
		target.HP -= dmg
		killed := target.HP <= 0
		if killed {
			target.HP = 0
		}
		return false, &AttackResult{AttackerID: m.ID, TargetID: target.ID, Damage: dmg, Killed: killed}

	case world.AIReturn:
		if m.Position == m.SpawnPoint {
			m.AIState = world.AIIdle
			return false, nil
		}
		return advance(m, m.SpawnPoint, dt), nil
	}
	return false, nil
}

// advance moves m toward dest by moveSpeed*dt, snapping to dest if the
// step would overshoot.
func advance(m *world.Monster, dest world.Vec3, dt time.Duration) bool {
	dist := world.DistanceTo(m.Position, dest)
	if dist == 0 {
		return false
	}
	step := m.MoveSpeed * dt.Seconds()
	if step >= dist {
		m.Position = dest
		return true
	}
	ratio := step / dist
	m.Position = world.Vec3{
		X: m.Position.X + (dest.X-m.Position.X)*ratio,
		Y: m.Position.Y + (dest.Y-m.Position.Y)*ratio,
		Z: m.Position.Z + (dest.Z-m.Position.Z)*ratio,
	}
	return true
}
