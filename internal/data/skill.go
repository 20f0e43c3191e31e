package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SkillDef is the static definition a learned skill is validated and
// resolved against during UseSkill (spec.md §4.7).
type SkillDef struct {
	SkillID       int32 `yaml:"skill_id"`
	Name          string `yaml:"name"`
	MPCost        int32  `yaml:"mp_cost"`
	CooldownMs    int64  `yaml:"cooldown_ms"`
	Range         float64 `yaml:"range"`
	BaseDamage    int32  `yaml:"base_damage"`
	DamagePerLevel int32 `yaml:"damage_per_level"`
	CritChance    float64 `yaml:"crit_chance"`
}

type skillListFile struct {
	Skills []SkillDef `yaml:"skills"`
}

// SkillTable holds every loaded skill definition, indexed by ID.
type SkillTable struct {
	defs map[int32]*SkillDef
}

// NewSkillTable builds a table directly from already-loaded definitions,
// used by tests and by any future loader that doesn't read YAML off disk.
func NewSkillTable(defs map[int32]*SkillDef) *SkillTable {
	return &SkillTable{defs: defs}
}

// Get returns a skill definition by ID, or nil if not found.
func (t *SkillTable) Get(id int32) *SkillDef { return t.defs[id] }

// Count returns the number of loaded skill definitions.
func (t *SkillTable) Count() int { return len(t.defs) }

// LoadSkillTable loads skill definitions from a YAML file.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	t := &SkillTable{defs: make(map[int32]*SkillDef, len(f.Skills))}
	for i := range f.Skills {
		t.defs[f.Skills[i].SkillID] = &f.Skills[i]
	}
	return t, nil
}
