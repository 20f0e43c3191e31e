// Package combat implements the damage formula, skill-use validation
// chain, and death/respawn/loot resolution of spec.md §4.7, grounded on
// the teacher's internal/system combat math (pvp.go, regen.go) — same
// math/rand-driven integer rolls, generalized to the spec's formula.
package combat

import (
	"math/rand"
	"time"

	"github.com/shardwell/worldcore/internal/data"
	"github.com/shardwell/worldcore/internal/world"
)

// MinDamage is the floor applied to every resolved hit.
const MinDamage = 1

// Roll computes raw = attackPower - defense + uniform(-2, +2), applies a
// 1.5x critical multiplier with probability critChance, and floors to
// MinDamage. The result is an integer: the 1.5x multiplier is applied in
// floating point and truncated toward zero.
func Roll(attackPower, defense int32, critChance float64) int32 {
	variance := int32(rand.Intn(5)) - 2 // uniform(-2, +2) inclusive
	raw := attackPower - defense + variance
	if rand.Float64() < critChance {
		raw = int32(float64(raw) * 1.5)
	}
	if raw < MinDamage {
		raw = MinDamage
	}
	return raw
}

// PlayerAttackPower derives a player's basic-attack power from weapon base
// attack, STR, and level — the teacher's regen/pvp math uses the same
// additive shape for stat-derived combat numbers.
func PlayerAttackPower(weaponBaseAttack int32, str int32, level int32) int32 {
	return weaponBaseAttack + str/2 + level
}

// MonsterAttackPower is a monster's attackPower in the damage formula: its
// definition's attack value, unmodified, per spec.md §4.7.
func MonsterAttackPower(m *world.Monster) int32 {
	return m.Attack
}

// PlayerDefense derives a player's defense from STA, the same additive
// shape PlayerAttackPower uses for STR.
func PlayerDefense(p *world.Player) int32 {
	return p.Stats.STA / 2
}

// BasicAttackCritChance is the critical-hit probability for basic
// (non-skill) attacks, player or monster.
const BasicAttackCritChance = 0.05

// SkillAttackPower computes skillAttack = attackPower + baseDamage +
// skillLevel * damagePerLevel, per spec.md §4.7.
func SkillAttackPower(attackPower int32, def *data.SkillDef, skillLevel int32) int32 {
	return attackPower + def.BaseDamage + skillLevel*def.DamagePerLevel
}

// DamageEvent is emitted on the tick event bus whenever damage resolves.
type DamageEvent struct {
	AttackerID world.EntityID
	TargetID   world.EntityID
	Amount     int32
	Crit       bool
	At         time.Time
}

// EntityDeathEvent is emitted the instant a target's HP reaches 0.
type EntityDeathEvent struct {
	VictimID world.EntityID
	KillerID world.EntityID
	At       time.Time
}
