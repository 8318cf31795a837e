package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// ArenaSpec is the static layout of one arena: its bounds, its walls and
// pillars, and where everything spawns.
type ArenaSpec struct {
	Name    string       `yaml:"name"`
	Width   float64      `yaml:"width"`
	Height  float64      `yaml:"height"`
	Walls   []WallSpec   `yaml:"walls"`
	Pillars []PillarSpec `yaml:"pillars"`
	Player  PointSpec    `yaml:"player"`
	Enemies []SpawnSpec  `yaml:"enemies"`
}

type PointSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// WallSpec is an axis aligned box. Layer is "wall" or "cover"; cover blocks
// sight but is only a hiding place, not a boundary.
type WallSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Layer  string  `yaml:"layer"`
}

type PillarSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
	Layer  string  `yaml:"layer"`
}

// SpawnSpec places one enemy. Agent marks the entity that a decision source
// drives or scores.
type SpawnSpec struct {
	Archetype string  `yaml:"archetype"`
	Prefab    string  `yaml:"prefab"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Agent     bool    `yaml:"agent"`
}

func LoadArenaSpec(filename string) (*ArenaSpec, error) {
	spec, err := LoadSpec[ArenaSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
