package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnDef places a monster definition at a point in a zone at boot.
type SpawnDef struct {
	DefinitionID int32   `yaml:"definition_id"`
	ZoneID       string  `yaml:"zone_id"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Z            float64 `yaml:"z"`
	SpawnRadius  float64 `yaml:"spawn_radius"`
	Count        int     `yaml:"count"`
}

type spawnListFile struct {
	Spawns []SpawnDef `yaml:"spawns"`
}

// SpawnTable holds every loaded spawn-point definition.
type SpawnTable struct {
	spawns []SpawnDef
}

// All returns every loaded spawn definition.
func (t *SpawnTable) All() []SpawnDef { return t.spawns }

// Count returns the number of loaded spawn definitions.
func (t *SpawnTable) Count() int { return len(t.spawns) }

// LoadSpawnTable loads spawn-point definitions from a YAML file.
func LoadSpawnTable(path string) (*SpawnTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawns: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawns: %w", err)
	}
	return &SpawnTable{spawns: f.Spawns}, nil
}
