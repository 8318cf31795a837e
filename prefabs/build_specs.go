package prefabs

import "gopkg.in/yaml.v3"

type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
}

type TeamComponentSpec struct {
	Faction string `yaml:"faction"`
}

type BodyComponentSpec struct {
	Radius float64  `yaml:"radius"`
	Speed  float64  `yaml:"speed"`
	Layers []string `yaml:"layers"`
}

// HealthComponentSpec leaves Max at zero to take it from the archetype.
type HealthComponentSpec struct {
	Max float64 `yaml:"max"`
}

type AwarenessComponentSpec struct {
	Timeout           float64 `yaml:"timeout"`
	DetectionInterval float64 `yaml:"detection_interval"`
}

type BrainComponentSpec struct {
	Initial string `yaml:"initial"`
}

type EnemyComponentSpec struct {
	Archetype string `yaml:"archetype"`
}

type TouchDamageComponentSpec struct {
	Damage   float64 `yaml:"damage"`
	Cooldown float64 `yaml:"cooldown"`
	Reach    float64 `yaml:"reach"`
}

type PlayerComponentSpec struct {
	Speed         float64 `yaml:"speed"`
	SwordDamage   float64 `yaml:"sword_damage"`
	SwordReach    float64 `yaml:"sword_reach"`
	SwingDuration float64 `yaml:"swing_duration"`
}

type PlayerBotComponentSpec struct {
	EngageDistance float64 `yaml:"engage_distance"`
	Passive        bool    `yaml:"passive"`
}
