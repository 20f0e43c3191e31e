package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LootEntry is one rollable line of a loot table.
type LootEntry struct {
	ItemID   int32   `yaml:"item_id"`
	MinCount int32   `yaml:"min_count"`
	MaxCount int32   `yaml:"max_count"`
	Chance   float64 `yaml:"chance"` // [0,1]
}

type lootTableEntry struct {
	LootTableID int32       `yaml:"loot_table_id"`
	Entries     []LootEntry `yaml:"entries"`
}

type lootListFile struct {
	Tables []lootTableEntry `yaml:"loot_tables"`
}

// LootTable holds every loaded loot table, indexed by loot-table ID.
type LootTable struct {
	tables map[int32][]LootEntry
}

// Entries returns the rollable entries for a loot table ID, or nil.
func (t *LootTable) Entries(lootTableID int32) []LootEntry { return t.tables[lootTableID] }

// Count returns the number of loaded loot tables.
func (t *LootTable) Count() int { return len(t.tables) }

// LoadLootTable loads loot tables from a YAML file.
func LoadLootTable(path string) (*LootTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loot tables: %w", err)
	}
	var f lootListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse loot tables: %w", err)
	}
	t := &LootTable{tables: make(map[int32][]LootEntry, len(f.Tables))}
	for _, lt := range f.Tables {
		t.tables[lt.LootTableID] = lt.Entries
	}
	return t, nil
}
