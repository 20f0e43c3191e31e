package ai

import (
	"testing"
	"time"

	"github.com/shardwell/worldcore/internal/world"
)

func newTestMonster() *world.Monster {
	m := world.NewMonster(1_000_001, 1, "wolf", world.Vec3{X: 0, Y: 0, Z: 0}, 100)
	m.AggroRange = 15
	m.AttackRange = 2
	m.LeashRange = 40
	m.MoveSpeed = 5
	m.AttackSpeedMs = 1000
	m.RespawnMs = 5000
	return m
}

func newTestTarget(pos world.Vec3) *world.Player {
	p := world.NewPlayer(1, 1, 1, "hero", "warrior")
	p.HP, p.MaxHP = 100, 100
	p.Position = pos
	return p
}

// TestAggroAndReturn implements the monster aggro/return scenario from
// spec.md §8: a player entering aggro range triggers AGGRO; retreating
// beyond leash range triggers RETURN, and the monster walks back to IDLE
// at full HP once it reaches its spawn point.
func TestAggroAndReturn(t *testing.T) {
	m := newTestMonster()
	now := time.Now()

	target := newTestTarget(world.Vec3{X: 10, Y: 0, Z: 0})
	Transition(m, target, now, 50*time.Millisecond)
	if m.AIState != world.AIAggro {
		t.Fatalf("expected AGGRO after player enters aggro range, got %s", m.AIState)
	}

	target.Position = world.Vec3{X: 200, Y: 0, Z: 0}
	for i := 0; i < 1000 && m.AIState != world.AIReturn; i++ {
		Transition(m, target, now, 50*time.Millisecond)
	}
	if m.AIState != world.AIReturn {
		t.Fatalf("expected RETURN after chasing target beyond leash range, got %s", m.AIState)
	}

	for i := 0; i < 1000 && m.Position != m.SpawnPoint; i++ {
		Transition(m, nil, now, 50*time.Millisecond)
	}
	if m.Position != m.SpawnPoint {
		t.Fatalf("expected monster to reach spawn point, at %+v", m.Position)
	}
	Transition(m, nil, now, 50*time.Millisecond)
	if m.AIState != world.AIIdle {
		t.Fatalf("expected IDLE once back at spawn, got %s", m.AIState)
	}
	if m.HP != m.MaxHP {
		t.Fatalf("expected full HP after return, got %d/%d", m.HP, m.MaxHP)
	}
}

// TestClosedTransitionSystem implements testable property 8: driving the
// state machine through many random ticks never produces a state outside
// the five declared values.
func TestClosedTransitionSystem(t *testing.T) {
	m := newTestMonster()
	now := time.Now()
	targets := []*world.Player{
		newTestTarget(world.Vec3{X: 1, Y: 0, Z: 0}),
		newTestTarget(world.Vec3{X: 100, Y: 0, Z: 0}),
		nil,
	}
	valid := map[world.AIState]bool{
		world.AIIdle: true, world.AIAggro: true, world.AIAttack: true,
		world.AIReturn: true, world.AIDead: true,
	}
	for i := 0; i < 500; i++ {
		target := targets[i%len(targets)]
		Transition(m, target, now, 50*time.Millisecond)
		now = now.Add(50 * time.Millisecond)
		if !valid[m.AIState] {
			t.Fatalf("tick %d produced an unlisted state: %v", i, m.AIState)
		}
		if m.HP == 0 && m.AIState != world.AIDead {
			t.Fatalf("tick %d: HP=0 but state is %s, not DEAD", i, m.AIState)
		}
	}
}

// TestAttackDealsDamageOnCadence implements the ATTACK branch of spec.md
// §4.8: "issues an auto-attack each time attackSpeed-ms have elapsed,"
// landing on the player target rather than stamping LastAttackTime alone.
func TestAttackDealsDamageOnCadence(t *testing.T) {
	m := newTestMonster()
	m.Attack = 20
	target := newTestTarget(world.Vec3{X: 1, Y: 0, Z: 0})
	now := time.Now()

	Transition(m, target, now, 50*time.Millisecond)            // -> AGGRO
	_, atk := Transition(m, target, now, 50*time.Millisecond) // in range -> ATTACK, no hit this tick
	if m.AIState != world.AIAttack {
		t.Fatalf("expected ATTACK, got %s", m.AIState)
	}
	if atk != nil {
		t.Fatalf("expected no hit on the AGGRO->ATTACK transition tick, got %+v", atk)
	}

	_, atk2 := Transition(m, target, now, 50*time.Millisecond)
	if atk2 == nil {
		t.Fatal("expected a landed attack once in ATTACK with no prior LastAttackTime")
	}
	if atk2.TargetID != target.ID || atk2.Damage <= 0 {
		t.Fatalf("expected positive damage against target, got %+v", atk2)
	}
	if target.HP != target.MaxHP-atk2.Damage {
		t.Fatalf("expected target HP reduced by %d, got %d", atk2.Damage, target.HP)
	}

	_, atk3 := Transition(m, target, now, 50*time.Millisecond)
	if atk3 != nil {
		t.Fatalf("expected no second hit before AttackSpeedMs elapses, got %+v", atk3)
	}

	later := now.Add(time.Duration(m.AttackSpeedMs) * time.Millisecond)
	_, atk4 := Transition(m, target, later, 50*time.Millisecond)
	if atk4 == nil {
		t.Fatal("expected a hit once the attack cooldown elapsed")
	}
}

// TestAttackKillsTarget confirms a monster attack that drives a player's
// HP to 0 reports Killed so the caller can run the death/respawn branch.
func TestAttackKillsTarget(t *testing.T) {
	m := newTestMonster()
	m.Attack = 1000
	target := newTestTarget(world.Vec3{X: 1, Y: 0, Z: 0})
	target.HP = 1
	now := time.Now()

	Transition(m, target, now, 50*time.Millisecond) // -> AGGRO
	Transition(m, target, now, 50*time.Millisecond) // in range -> ATTACK, no hit this tick
	_, atk := Transition(m, target, now, 50*time.Millisecond)
	if atk == nil || !atk.Killed {
		t.Fatalf("expected a killing blow, got %+v", atk)
	}
	if target.HP != 0 {
		t.Fatalf("expected target HP floored to 0, got %d", target.HP)
	}
}

func TestAttackTransitionsBackToAggroWhenOutOfRange(t *testing.T) {
	m := newTestMonster()
	target := newTestTarget(world.Vec3{X: 1, Y: 0, Z: 0})
	now := time.Now()
	Transition(m, target, now, 50*time.Millisecond) // -> AGGRO
	Transition(m, target, now, 50*time.Millisecond) // in attack range -> ATTACK
	if m.AIState != world.AIAttack {
		t.Fatalf("expected ATTACK, got %s", m.AIState)
	}
	target.Position = world.Vec3{X: 50, Y: 0, Z: 0}
	Transition(m, target, now, 50*time.Millisecond)
	if m.AIState != world.AIAggro {
		t.Fatalf("expected AGGRO after target moves out of attack range, got %s", m.AIState)
	}
}
