package data

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadMonsterTable(t *testing.T) {
	path := writeTemp(t, "monsters.yaml", `
monsters:
  - definition_id: 1
    name: Goblin
    max_hp: 100
    attack: 10
    defense: 2
    level: 3
    xp_reward: 25
    aggro_range: 15
    attack_range: 2
    attack_speed_ms: 1200
    move_speed: 3
    respawn_ms: 30000
    leash_range: 40
    loot_table_id: 1
`)
	table, err := LoadMonsterTable(path)
	if err != nil {
		t.Fatalf("LoadMonsterTable: %v", err)
	}
	if table.Count() != 1 {
		t.Fatalf("expected 1 monster, got %d", table.Count())
	}
	def := table.Get(1)
	if def == nil || def.Name != "Goblin" || def.MaxHP != 100 {
		t.Fatalf("unexpected def: %+v", def)
	}
	if table.Get(999) != nil {
		t.Fatal("expected nil for unknown definition ID")
	}
}

func TestLoadSkillTable(t *testing.T) {
	path := writeTemp(t, "skills.yaml", `
skills:
  - skill_id: 7
    name: Fireball
    mp_cost: 10
    cooldown_ms: 3000
    range: 5
    base_damage: 50
    damage_per_level: 5
    crit_chance: 0.1
`)
	table, err := LoadSkillTable(path)
	if err != nil {
		t.Fatalf("LoadSkillTable: %v", err)
	}
	def := table.Get(7)
	if def == nil || def.MPCost != 10 || def.CooldownMs != 3000 {
		t.Fatalf("unexpected def: %+v", def)
	}
}

func TestLoadLootTable(t *testing.T) {
	path := writeTemp(t, "loot.yaml", `
loot_tables:
  - loot_table_id: 1
    entries:
      - item_id: 100
        min_count: 1
        max_count: 3
        chance: 0.5
`)
	table, err := LoadLootTable(path)
	if err != nil {
		t.Fatalf("LoadLootTable: %v", err)
	}
	entries := table.Entries(1)
	if len(entries) != 1 || entries[0].ItemID != 100 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLoadSpawnTable(t *testing.T) {
	path := writeTemp(t, "spawns.yaml", `
spawns:
  - definition_id: 1
    zone_id: town
    x: 10
    y: 0
    z: 10
    spawn_radius: 5
    count: 3
`)
	table, err := LoadSpawnTable(path)
	if err != nil {
		t.Fatalf("LoadSpawnTable: %v", err)
	}
	if table.Count() != 1 || table.All()[0].Count != 3 {
		t.Fatalf("unexpected spawns: %+v", table.All())
	}
}
