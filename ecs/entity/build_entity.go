package entity

import (
	"fmt"
	"sort"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
	"github.com/milk9111/arena/prefabs"
)

// BuildContext carries what a prefab cannot name by itself. Archetypes
// resolves the enemy archetype; Archetype, when set, overrides the one the
// prefab names.
type BuildContext struct {
	PrefabPath string
	Archetypes *prefabs.Registry
	Archetype  string
	Position   *cp.Vector
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error

var componentRegistry = map[string]componentBuildFn{
	"player_tag":   addPlayerTag,
	"enemy_tag":    addEnemyTag,
	"team":         addTeam,
	"transform":    addTransform,
	"enemy":        addEnemy,
	"player":       addPlayer,
	"body":         addBody,
	"health":       addHealth,
	"awareness":    addAwareness,
	"cooldown":     addCooldown,
	"brain":        addBrain,
	"touch_damage": addTouchDamage,
	"player_input": addPlayerInput,
	"player_bot":   addPlayerBot,
}

// Later builders read what earlier ones added: body and health size
// themselves from the archetype.
var componentBuildOrder = []string{
	"player_tag",
	"enemy_tag",
	"team",
	"transform",
	"enemy",
	"player",
	"body",
	"health",
	"awareness",
	"cooldown",
	"brain",
	"touch_damage",
	"player_input",
	"player_bot",
}

func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	return BuildEntityWith(w, &BuildContext{PrefabPath: prefabPath})
}

func BuildEntityWith(w *ecs.World, ctx *BuildContext) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}
	if ctx == nil || ctx.PrefabPath == "" {
		return 0, fmt.Errorf("build entity: no prefab")
	}
	prefabPath := ctx.PrefabPath

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}

	e := ecs.CreateEntity(w)

	remaining := make(map[string]any, len(spec.Components))
	for k, v := range spec.Components {
		remaining[k] = v
	}

	for _, name := range componentBuildOrder {
		raw, ok := remaining[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](w, e, raw, ctx); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", prefabPath, name, err)
		}
		delete(remaining, name)
	}

	if len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build entity: %q: no builder for component %q", prefabPath, names[0])
	}

	return e, nil
}

func SetEntityTransform(w *ecs.World, e ecs.Entity, x, y, rotation float64) error {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok || t == nil {
		t = &component.Transform{}
	}
	t.X = x
	t.Y = y
	t.Rotation = rotation
	return ecs.Add(w, e, component.TransformComponent.Kind(), t)
}

func addPlayerTag(w *ecs.World, e ecs.Entity, _ any, _ *BuildContext) error {
	return ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{})
}

func addEnemyTag(w *ecs.World, e ecs.Entity, _ any, _ *BuildContext) error {
	return ecs.Add(w, e, component.EnemyTagComponent.Kind(), &component.EnemyTag{})
}

type teamSpec = prefabs.TeamComponentSpec

func addTeam(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[teamSpec](raw)
	if err != nil {
		return fmt.Errorf("decode team spec: %w", err)
	}
	var faction component.Faction
	switch spec.Faction {
	case "player":
		faction = component.FactionPlayer
	case "enemy":
		faction = component.FactionEnemy
	case "", "none":
		faction = component.FactionNone
	default:
		return fmt.Errorf("unknown faction %q", spec.Faction)
	}
	return ecs.Add(w, e, component.TeamComponent.Kind(), &component.Team{Faction: faction})
}

type transformSpec = prefabs.TransformComponentSpec

func addTransform(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[transformSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	t := &component.Transform{X: spec.X, Y: spec.Y, Rotation: spec.Rotation}
	if ctx != nil && ctx.Position != nil {
		t.SetPosition(*ctx.Position)
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), t)
}

type enemySpec = prefabs.EnemyComponentSpec

// addEnemy resolves the archetype. Unknown archetypes fall back to the stock
// melee data with a warning, never an error.
func addEnemy(w *ecs.World, e ecs.Entity, raw any, ctx *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[enemySpec](raw)
	if err != nil {
		return fmt.Errorf("decode enemy spec: %w", err)
	}
	name := spec.Archetype
	if ctx != nil && ctx.Archetype != "" {
		name = ctx.Archetype
	}

	var cfg *component.EnemyConfig
	if ctx != nil && ctx.Archetypes != nil {
		cfg, err = ctx.Archetypes.Get(name)
		if err != nil {
			logger.Log.WithError(err).WithField("archetype", name).Warn("using default archetype")
		}
	}
	if cfg == nil {
		cfg = component.DefaultEnemyConfig()
	}
	return ecs.Add(w, e, component.EnemyComponent.Kind(), &component.Enemy{Config: cfg})
}

func archetypeOf(w *ecs.World, e ecs.Entity) (*component.EnemyConfig, bool) {
	enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind())
	if !ok {
		return nil, false
	}
	return enemy.Config, true
}

type playerSpec = prefabs.PlayerComponentSpec

func addPlayer(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[playerSpec](raw)
	if err != nil {
		return fmt.Errorf("decode player spec: %w", err)
	}
	p := &component.Player{
		Speed:         spec.Speed,
		SwordDamage:   spec.SwordDamage,
		SwordReach:    spec.SwordReach,
		SwingDuration: spec.SwingDuration,
		Facing:        cp.Vector{X: 1},
	}
	if p.Speed <= 0 {
		p.Speed = component.DefaultPlayerSpeed
	}
	if p.SwordDamage <= 0 {
		p.SwordDamage = component.DefaultSwordDamage
	}
	if p.SwordReach <= 0 {
		p.SwordReach = component.DefaultSwordReach
	}
	if p.SwingDuration <= 0 {
		p.SwingDuration = component.DefaultSwingDuration
	}
	return ecs.Add(w, e, component.PlayerComponent.Kind(), p)
}

type bodySpec = prefabs.BodyComponentSpec

func addBody(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[bodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode body spec: %w", err)
	}
	mask, err := prefabs.ParseLayers(spec.Layers)
	if err != nil {
		return err
	}
	body := &component.Body{Radius: spec.Radius, Speed: spec.Speed, Mask: mask}
	if cfg, ok := archetypeOf(w, e); ok {
		if body.Radius <= 0 {
			body.Radius = cfg.BodyRadius()
		}
		if body.Speed <= 0 {
			body.Speed = cfg.MoveSpeed()
		}
	}
	if body.Radius <= 0 {
		body.Radius = component.DefaultBodyRadius
	}
	return ecs.Add(w, e, component.BodyComponent.Kind(), body)
}

type healthSpec = prefabs.HealthComponentSpec

func addHealth(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[healthSpec](raw)
	if err != nil {
		return fmt.Errorf("decode health spec: %w", err)
	}
	maxHP := spec.Max
	if cfg, ok := archetypeOf(w, e); ok && maxHP <= 0 {
		maxHP = cfg.MaxHealth
	}
	h := component.NewHealth(maxHP)
	h.Owner = uint64(e)
	return ecs.Add(w, e, component.HealthComponent.Kind(), h)
}

type awarenessSpec = prefabs.AwarenessComponentSpec

func addAwareness(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[awarenessSpec](raw)
	if err != nil {
		return fmt.Errorf("decode awareness spec: %w", err)
	}
	timeout, interval := spec.Timeout, spec.DetectionInterval
	if cfg, ok := archetypeOf(w, e); ok && cfg != nil {
		if timeout <= 0 {
			timeout = cfg.CombatExitDelay
		}
		if interval <= 0 {
			interval = cfg.DetectionCheckInterval
		}
	}
	return ecs.Add(w, e, component.AwarenessComponent.Kind(), component.NewAwareness(timeout, interval))
}

func addCooldown(w *ecs.World, e ecs.Entity, _ any, _ *BuildContext) error {
	return ecs.Add(w, e, component.CooldownComponent.Kind(), &component.Cooldown{})
}

type brainSpec = prefabs.BrainComponentSpec

func addBrain(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[brainSpec](raw)
	if err != nil {
		return fmt.Errorf("decode brain spec: %w", err)
	}
	state := component.StateIdle
	if spec.Initial != "" {
		s, ok := component.ParseBehaviorState(spec.Initial)
		if !ok {
			return fmt.Errorf("unknown behavior state %q", spec.Initial)
		}
		state = s
	}
	return ecs.Add(w, e, component.BrainComponent.Kind(), &component.Brain{
		State:    state,
		Previous: state,
		Facing:   cp.Vector{X: 1},
	})
}

type touchDamageSpec = prefabs.TouchDamageComponentSpec

func addTouchDamage(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[touchDamageSpec](raw)
	if err != nil {
		return fmt.Errorf("decode touch damage spec: %w", err)
	}
	td := &component.TouchDamage{Damage: spec.Damage, Cooldown: spec.Cooldown, Reach: spec.Reach}
	if td.Damage <= 0 {
		td.Damage = component.DefaultTouchDamage
	}
	if td.Cooldown <= 0 {
		td.Cooldown = component.DefaultTouchCooldown
	}
	return ecs.Add(w, e, component.TouchDamageComponent.Kind(), td)
}

func addPlayerInput(w *ecs.World, e ecs.Entity, _ any, _ *BuildContext) error {
	return ecs.Add(w, e, component.PlayerInputComponent.Kind(), &component.PlayerInput{})
}

type playerBotSpec = prefabs.PlayerBotComponentSpec

func addPlayerBot(w *ecs.World, e ecs.Entity, raw any, _ *BuildContext) error {
	spec, err := prefabs.DecodeComponentSpec[playerBotSpec](raw)
	if err != nil {
		return fmt.Errorf("decode player bot spec: %w", err)
	}
	return ecs.Add(w, e, component.PlayerBotComponent.Kind(), &component.PlayerBot{
		EngageDist: spec.EngageDistance,
		Passive:    spec.Passive,
	})
}
