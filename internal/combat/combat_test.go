package combat

import (
	"testing"
	"time"

	"github.com/shardwell/worldcore/internal/data"
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/world"
)

func TestRollFloorsToMinDamage(t *testing.T) {
	for i := 0; i < 100; i++ {
		dmg := Roll(0, 100, 0)
		if dmg < MinDamage {
			t.Fatalf("damage %d below MinDamage", dmg)
		}
	}
}

func newSkillFixture() (*world.Player, *world.Monster, *data.SkillTable) {
	p := world.NewPlayer(1, 1, 1, "hero", "warrior")
	p.MP, p.MaxMP = 100, 100
	p.Level = 1
	p.Stats.STR = 10
	p.Position = world.Vec3{X: 0, Y: 0, Z: 0}
	p.LearnedSkills[7] = 1

	m := world.NewMonster(1_000_000, 1, "slime", world.Vec3{X: 3, Y: 0, Z: 0}, 100)

	skills := &data.SkillTable{}
	return p, m, skills
}

func emptySkillTable() *data.SkillTable {
	return data.NewSkillTable(map[int32]*data.SkillDef{})
}

func skillTableWith(def data.SkillDef) *data.SkillTable {
	return data.NewSkillTable(map[int32]*data.SkillDef{def.SkillID: &def})
}

func TestValidateUseSkillOrdering(t *testing.T) {
	p, m, _ := newSkillFixture()
	ch := &world.Channel{}

	t.Run("unknown skill", func(t *testing.T) {
		skills := emptySkillTable()
		req := UseSkillRequest{Attacker: p, SkillID: 999, Target: m, Now: time.Now()}
		_, err := ValidateUseSkill(req, skills, ch, ch)
		requireCode(t, err, errs.CodeUnknownSkill)
	})

	t.Run("not learned", func(t *testing.T) {
		skills := skillTableWith(data.SkillDef{SkillID: 42, MPCost: 1, Range: 100})
		req := UseSkillRequest{Attacker: p, SkillID: 42, Target: m, Now: time.Now()}
		_, err := ValidateUseSkill(req, skills, ch, ch)
		requireCode(t, err, errs.CodeSkillNotLearned)
	})

	t.Run("insufficient mp", func(t *testing.T) {
		skills := skillTableWith(data.SkillDef{SkillID: 7, MPCost: 1000, Range: 100})
		req := UseSkillRequest{Attacker: p, SkillID: 7, Target: m, Now: time.Now()}
		_, err := ValidateUseSkill(req, skills, ch, ch)
		requireCode(t, err, errs.CodeInsufficientResource)
	})

	t.Run("cooldown active", func(t *testing.T) {
		skills := skillTableWith(data.SkillDef{SkillID: 7, MPCost: 1, Range: 100, CooldownMs: 3000})
		now := time.Now()
		p.SkillCooldowns[7] = now.Add(time.Second)
		req := UseSkillRequest{Attacker: p, SkillID: 7, Target: m, Now: now}
		_, err := ValidateUseSkill(req, skills, ch, ch)
		requireCode(t, err, errs.CodeCooldownActive)
		delete(p.SkillCooldowns, 7)
	})

	t.Run("target dead", func(t *testing.T) {
		skills := skillTableWith(data.SkillDef{SkillID: 7, MPCost: 1, Range: 100})
		m.AIState = world.AIDead
		m.HP = 0
		req := UseSkillRequest{Attacker: p, SkillID: 7, Target: m, Now: time.Now()}
		_, err := ValidateUseSkill(req, skills, ch, ch)
		requireCode(t, err, errs.CodeTargetDead)
		m.AIState = world.AIIdle
		m.HP = 100
	})

	t.Run("out of range", func(t *testing.T) {
		skills := skillTableWith(data.SkillDef{SkillID: 7, MPCost: 1, Range: 1})
		req := UseSkillRequest{Attacker: p, SkillID: 7, Target: m, Now: time.Now()}
		_, err := ValidateUseSkill(req, skills, ch, ch)
		requireCode(t, err, errs.CodeOutOfRange)
	})

	t.Run("success", func(t *testing.T) {
		skills := skillTableWith(data.SkillDef{SkillID: 7, MPCost: 1, Range: 100, BaseDamage: 50})
		req := UseSkillRequest{Attacker: p, SkillID: 7, Target: m, Now: time.Now()}
		def, err := ValidateUseSkill(req, skills, ch, ch)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if def.SkillID != 7 {
			t.Fatalf("unexpected def: %+v", def)
		}
	})
}

func requireCode(t *testing.T, err *errs.Error, want errs.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Code != want {
		t.Fatalf("expected code %v, got %v", want, err.Code)
	}
}

func TestCanRespawn(t *testing.T) {
	m := world.NewMonster(1, 1, "slime", world.Vec3{}, 100)
	m.AIState = world.AIDead
	m.RespawnMs = 5000
	m.DeathTime = time.Now().Add(-10 * time.Second)
	if !m.CanRespawn(time.Now()) {
		t.Fatal("expected CanRespawn true after respawn interval elapsed")
	}
	m.DeathTime = time.Now()
	if m.CanRespawn(time.Now()) {
		t.Fatal("expected CanRespawn false immediately after death")
	}
}

func TestSpawnedLootOwnership(t *testing.T) {
	now := time.Now()
	loot := SpawnedLoot{KillerID: 1, OwnedUntil: now.Add(LootOwnershipWindow)}
	if !loot.CanPickUp(1, now.Add(10*time.Second)) {
		t.Fatal("killer should be able to pick up within ownership window")
	}
	if loot.CanPickUp(2, now.Add(10*time.Second)) {
		t.Fatal("non-killer should be denied within ownership window")
	}
	if !loot.CanPickUp(2, now.Add(31*time.Second)) {
		t.Fatal("non-killer should be allowed after ownership window expires")
	}
}
