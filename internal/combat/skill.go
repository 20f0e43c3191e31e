package combat

import (
	"time"

	"github.com/shardwell/worldcore/internal/data"
	"github.com/shardwell/worldcore/internal/errs"
	"github.com/shardwell/worldcore/internal/wire"
	"github.com/shardwell/worldcore/internal/world"
)

const opUseSkill = uint16(wire.OpUseSkill)

// UseSkillRequest bundles the parameters a UseSkill attempt is validated
// against.
type UseSkillRequest struct {
	Attacker *world.Player
	SkillID  int32
	Target   *world.Monster // nil if targeting a player — extend as needed
	Now      time.Time
}

// ValidateUseSkill runs the six ordered checks from spec.md §4.7, in
// order, returning the first failing check (testable property 7). A nil
// error means every check passed and def is the validated skill
// definition.
func ValidateUseSkill(req UseSkillRequest, skills *data.SkillTable, attackerChannel *world.Channel, targetChannel *world.Channel) (*data.SkillDef, *errs.Error) {
	// 1. Skill exists in the loaded definition table.
	def := skills.Get(req.SkillID)
	if def == nil {
		return nil, errs.New(errs.Validation, errs.CodeUnknownSkill, opUseSkill)
	}

	// 2. Attacker has learned the skill at some level > 0.
	level, learned := req.Attacker.LearnedSkills[req.SkillID]
	if !learned || level <= 0 {
		return nil, errs.New(errs.Authorisation, errs.CodeSkillNotLearned, opUseSkill)
	}

	// 3. Current MP >= skill cost.
	if req.Attacker.MP < def.MPCost {
		return nil, errs.New(errs.State, errs.CodeInsufficientResource, opUseSkill)
	}

	// 4. now >= skillCooldowns[skillId].
	if req.Attacker.CooldownActive(req.SkillID, req.Now) {
		return nil, errs.New(errs.State, errs.CodeCooldownActive, opUseSkill)
	}

	// 5. Target is live and in the same channel as the attacker.
	if req.Target == nil || !req.Target.IsAlive() {
		return nil, errs.New(errs.State, errs.CodeTargetDead, opUseSkill)
	}
	if attackerChannel == nil || targetChannel == nil || attackerChannel != targetChannel {
		return nil, errs.New(errs.State, errs.CodeTargetMissing, opUseSkill)
	}

	// 6. Euclidean distance attacker->target <= skill range.
	if world.DistanceTo(req.Attacker.Position, req.Target.Position) > def.Range {
		return nil, errs.New(errs.State, errs.CodeOutOfRange, opUseSkill)
	}

	return def, nil
}

// ApplyUseSkill resolves a validated skill cast: deducts MP, sets the
// cooldown, rolls damage against the target, and reports whether the
// target died. Callers are responsible for emitting DamageEvent /
// EntityDeathEvent on the tick bus and marking the attacker dirty.
func ApplyUseSkill(req UseSkillRequest, def *data.SkillDef, skillLevel int32) (damage int32, targetDied bool) {
	req.Attacker.MP -= def.MPCost
	req.Attacker.SkillCooldowns[req.SkillID] = req.Now.Add(time.Duration(def.CooldownMs) * time.Millisecond)

	attackPower := PlayerAttackPower(req.Attacker.WeaponBaseAttack, req.Attacker.Stats.STR, req.Attacker.Level)
	skillPower := SkillAttackPower(attackPower, def, skillLevel)
	dmg := Roll(skillPower, req.Target.Defense, def.CritChance)

	req.Target.HP -= dmg
	if req.Target.HP < 0 {
		req.Target.HP = 0
	}
	return dmg, req.Target.HP == 0
}
