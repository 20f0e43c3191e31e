// Package data loads the static game-definition tables (monster, skill,
// spawn, loot) from YAML, following the teacher's item-table pattern: a
// flat XEntry YAML struct, a wrapping XListFile, and a table type exposing
// Get/Count over an ID-keyed map.
package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MonsterDef is the static template a Monster entity is spawned from.
type MonsterDef struct {
	DefinitionID  int32   `yaml:"definition_id"`
	Name          string  `yaml:"name"`
	MaxHP         int32   `yaml:"max_hp"`
	Attack        int32   `yaml:"attack"`
	Defense       int32   `yaml:"defense"`
	Level         int32   `yaml:"level"`
	XPReward      int64   `yaml:"xp_reward"`
	AggroRange    float64 `yaml:"aggro_range"`
	AttackRange   float64 `yaml:"attack_range"`
	AttackSpeedMs int64   `yaml:"attack_speed_ms"`
	MoveSpeed     float64 `yaml:"move_speed"`
	RespawnMs     int64   `yaml:"respawn_ms"`
	LeashRange    float64 `yaml:"leash_range"`
	LootTableID   int32   `yaml:"loot_table_id"`
}

type monsterListFile struct {
	Monsters []MonsterDef `yaml:"monsters"`
}

// MonsterTable holds every loaded monster definition, indexed by ID.
type MonsterTable struct {
	defs map[int32]*MonsterDef
}

// Get returns a monster definition by ID, or nil if not found.
func (t *MonsterTable) Get(id int32) *MonsterDef { return t.defs[id] }

// Count returns the number of loaded monster definitions.
func (t *MonsterTable) Count() int { return len(t.defs) }

// LoadMonsterTable loads monster definitions from a YAML file.
func LoadMonsterTable(path string) (*MonsterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monsters: %w", err)
	}
	var f monsterListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse monsters: %w", err)
	}
	t := &MonsterTable{defs: make(map[int32]*MonsterDef, len(f.Monsters))}
	for i := range f.Monsters {
		t.defs[f.Monsters[i].DefinitionID] = &f.Monsters[i]
	}
	return t, nil
}
