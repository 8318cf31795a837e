package prefabs

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/arena/ecs/component"
)

var ErrUnknownArchetype = errors.New("prefabs: unknown archetype")

// ArchetypeFile is the on-disk form of archetypes.yaml. Each entry is decoded
// over the stock archetype, so omitted fields keep their defaults.
type ArchetypeFile struct {
	Archetypes map[string]yaml.Node `yaml:"archetypes"`
}

type ArchetypeSpec struct {
	MaxHealth            float64         `yaml:"max_health"`
	Damage               float64         `yaml:"damage"`
	AttackSpeed          float64         `yaml:"attack_speed"`
	MovementSpeed        float64         `yaml:"movement_speed"`
	DetectionRadius      float64         `yaml:"detection_radius"`
	AttackRange          float64         `yaml:"attack_range"`
	IsRanged             bool            `yaml:"is_ranged"`
	FleeHealthThreshold  float64         `yaml:"flee_health_threshold"`
	OutOfCombatHealDelay float64         `yaml:"out_of_combat_heal_delay"`
	HealPerSecond        float64         `yaml:"heal_per_second"`
	HealStopFraction     float64         `yaml:"heal_stop_fraction"`
	PreferredAttackRange float64         `yaml:"preferred_attack_range"`
	MinimumSafeDistance  float64         `yaml:"minimum_safe_distance"`
	CoverSearchRadius    float64         `yaml:"cover_search_radius"`
	WalkSpeed            float64         `yaml:"walk_speed"`
	ThrustForce          float64         `yaml:"thrust_force"`
	DetectionInterval    float64         `yaml:"detection_check_interval"`
	CombatExitDelay      float64         `yaml:"combat_exit_delay"`
	Radius               float64         `yaml:"radius"`
	CoverLayers          []string        `yaml:"cover_layers"`
	Projectile           *ProjectileSpec `yaml:"projectile"`
}

type ProjectileSpec struct {
	Speed                float64 `yaml:"speed"`
	Lifetime             float64 `yaml:"lifetime"`
	FireCooldown         float64 `yaml:"fire_cooldown"`
	SpreadDegrees        float64 `yaml:"spread_degrees"`
	Radius               float64 `yaml:"radius"`
	DestroyOnObstruction *bool   `yaml:"destroy_on_obstruction"`
}

func archetypeSpecFrom(c *component.EnemyConfig) ArchetypeSpec {
	return ArchetypeSpec{
		MaxHealth:            c.MaxHealth,
		Damage:               c.Damage,
		AttackSpeed:          c.AttackSpeed,
		MovementSpeed:        c.MovementSpeed,
		DetectionRadius:      c.DetectionRadius,
		AttackRange:          c.AttackRange,
		IsRanged:             c.IsRanged,
		FleeHealthThreshold:  c.FleeHealthThreshold,
		OutOfCombatHealDelay: c.OutOfCombatHealDelay,
		HealPerSecond:        c.HealPerSecond,
		HealStopFraction:     c.HealStopFraction,
		PreferredAttackRange: c.PreferredAttackRange,
		MinimumSafeDistance:  c.MinimumSafeDistance,
		CoverSearchRadius:    c.CoverSearchRadius,
		WalkSpeed:            c.WalkSpeed,
		ThrustForce:          c.ThrustForce,
		DetectionInterval:    c.DetectionCheckInterval,
		CombatExitDelay:      c.CombatExitDelay,
		Radius:               c.Radius,
	}
}

// Config converts the decoded archetype into immutable config data.
func (s ArchetypeSpec) Config(name string) (*component.EnemyConfig, error) {
	mask, err := ParseLayers(s.CoverLayers)
	if err != nil {
		return nil, fmt.Errorf("prefabs: archetype %s: %w", name, err)
	}
	cfg := &component.EnemyConfig{
		Name:                   name,
		MaxHealth:              s.MaxHealth,
		Damage:                 s.Damage,
		AttackSpeed:            s.AttackSpeed,
		MovementSpeed:          s.MovementSpeed,
		DetectionRadius:        s.DetectionRadius,
		AttackRange:            s.AttackRange,
		IsRanged:               s.IsRanged,
		FleeHealthThreshold:    s.FleeHealthThreshold,
		OutOfCombatHealDelay:   s.OutOfCombatHealDelay,
		HealPerSecond:          s.HealPerSecond,
		HealStopFraction:       s.HealStopFraction,
		PreferredAttackRange:   s.PreferredAttackRange,
		MinimumSafeDistance:    s.MinimumSafeDistance,
		CoverSearchRadius:      s.CoverSearchRadius,
		WalkSpeed:              s.WalkSpeed,
		ThrustForce:            s.ThrustForce,
		DetectionCheckInterval: s.DetectionInterval,
		CombatExitDelay:        s.CombatExitDelay,
		Radius:                 s.Radius,
		CoverMask:              mask,
	}
	if p := s.Projectile; p != nil {
		pc := component.DefaultProjectileConfig()
		if p.Speed > 0 {
			pc.Speed = p.Speed
		}
		if p.Lifetime > 0 {
			pc.Lifetime = p.Lifetime
		}
		if p.FireCooldown > 0 {
			pc.FireCooldown = p.FireCooldown
		}
		if p.Radius > 0 {
			pc.Radius = p.Radius
		}
		pc.SpreadDegrees = p.SpreadDegrees
		if p.DestroyOnObstruction != nil {
			pc.DestroyOnObstruction = *p.DestroyOnObstruction
		}
		cfg.Projectile = pc
	}
	return cfg, nil
}

// DecodeArchetypes parses an archetypes document.
func DecodeArchetypes(data []byte) (map[string]*component.EnemyConfig, error) {
	var file ArchetypeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal archetypes: %w", err)
	}

	out := make(map[string]*component.EnemyConfig, len(file.Archetypes))
	for name, node := range file.Archetypes {
		spec := archetypeSpecFrom(component.DefaultEnemyConfig())
		if err := node.Decode(&spec); err != nil {
			return nil, fmt.Errorf("prefabs: decode archetype %s: %w", name, err)
		}
		cfg, err := spec.Config(name)
		if err != nil {
			return nil, err
		}
		out[name] = cfg
	}
	return out, nil
}

func LoadArchetypes(filename string) (map[string]*component.EnemyConfig, error) {
	data, err := Load(filename)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return DecodeArchetypes(data)
}

// ParseLayers turns layer names into a collision mask. An empty list is
// zero, meaning the default obstruction mask.
func ParseLayers(names []string) (uint, error) {
	var mask uint
	for _, name := range names {
		layer, err := ParseLayer(name)
		if err != nil {
			return 0, err
		}
		mask |= layer
	}
	return mask, nil
}

func ParseLayer(name string) (uint, error) {
	switch name {
	case "", "wall":
		return component.LayerWall, nil
	case "cover":
		return component.LayerCover, nil
	default:
		return 0, fmt.Errorf("prefabs: unknown layer %q", name)
	}
}

func sortedNames(m map[string]*component.EnemyConfig) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
