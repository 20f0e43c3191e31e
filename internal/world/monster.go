package world

import "time"

// AIState is a monster's position in the IDLE/AGGRO/ATTACK/RETURN/DEAD
// state machine (spec.md §4.8).
type AIState int

const (
	AIIdle AIState = iota
	AIAggro
	AIAttack
	AIReturn
	AIDead
)

func (s AIState) String() string {
	switch s {
	case AIIdle:
		return "IDLE"
	case AIAggro:
		return "AGGRO"
	case AIAttack:
		return "ATTACK"
	case AIReturn:
		return "RETURN"
	case AIDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Monster is the in-memory record for a monster entity. Accessed only from
// the tick goroutine — no locks.
type Monster struct {
	ID           EntityID
	DefinitionID int32
	Name         string

	Position    Vec3
	SpawnPoint  Vec3
	SpawnRadius float64

	HP, MaxHP   int32
	Attack      int32
	Defense     int32
	Level       int32
	XPReward    int64
	LootTableID int32

	AggroRange   float64
	AttackRange  float64
	AttackSpeedMs int64
	MoveSpeed    float64
	RespawnMs    int64
	LeashRange   float64

	AIState        AIState
	TargetEntityID EntityID
	LastAttackTime time.Time
	DeathTime      time.Time
}

// NewMonster constructs a Monster at full health, IDLE, at its spawn point.
func NewMonster(id EntityID, defID int32, name string, spawn Vec3, maxHP int32) *Monster {
	return &Monster{
		ID:           id,
		DefinitionID: defID,
		Name:         name,
		Position:     spawn,
		SpawnPoint:   spawn,
		HP:           maxHP,
		MaxHP:        maxHP,
		AIState:      AIIdle,
	}
}

// IsAlive reports whether the monster's HP is above zero.
func (m *Monster) IsAlive() bool { return m.HP > 0 && m.AIState != AIDead }

// CanRespawn implements testable property 9: canRespawn(t) holds iff the
// monster is DEAD and at least RespawnMs has elapsed since DeathTime.
func (m *Monster) CanRespawn(now time.Time) bool {
	if m.AIState != AIDead {
		return false
	}
	return now.Sub(m.DeathTime) >= time.Duration(m.RespawnMs)*time.Millisecond
}

// Respawn resets the monster to full health, IDLE, at its spawn point.
func (m *Monster) Respawn() {
	m.HP = m.MaxHP
	m.Position = m.SpawnPoint
	m.AIState = AIIdle
	m.TargetEntityID = 0
}
