package entity

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/prefabs"
)

// StaticGeometry receives the arena's walls and pillars.
type StaticGeometry interface {
	AddWall(owner uint64, bb cp.BB, layer uint) *cp.Shape
	AddPillar(owner uint64, center cp.Vector, radius float64, layer uint) *cp.Shape
}

// AgentOptions configures the decision source attached to the agent spawn.
type AgentOptions struct {
	Mode             component.AgentMode
	Policy           component.Policy
	Rewards          component.RewardConfig
	DecisionInterval int
}

// Arena is one loaded arena and the spawn point of each of its actors.
type Arena struct {
	Spec    *prefabs.ArenaSpec
	Player  ecs.Entity
	Agent   ecs.Entity
	Enemies []ecs.Entity
	Walls   []ecs.Entity

	spawns map[ecs.Entity]cp.Vector
}

// BuildArena populates w from spec. Walls go to geo, enemies take their
// archetype from reg, and the first spawn marked agent gets an Agent when
// agent is non-nil.
func BuildArena(w *ecs.World, geo StaticGeometry, reg *prefabs.Registry, spec *prefabs.ArenaSpec, agent *AgentOptions) (*Arena, error) {
	if spec == nil {
		return nil, fmt.Errorf("arena: spec is nil")
	}
	a := &Arena{Spec: spec, spawns: map[ecs.Entity]cp.Vector{}}

	for i, ws := range spec.Walls {
		e, err := NewWall(w, geo, ws)
		if err != nil {
			return nil, fmt.Errorf("arena: wall %d: %w", i, err)
		}
		a.Walls = append(a.Walls, e)
	}
	for i, ps := range spec.Pillars {
		e, err := NewPillar(w, geo, ps)
		if err != nil {
			return nil, fmt.Errorf("arena: pillar %d: %w", i, err)
		}
		a.Walls = append(a.Walls, e)
	}

	player, err := NewPlayerAt(w, spec.Player.X, spec.Player.Y)
	if err != nil {
		return nil, fmt.Errorf("arena: %w", err)
	}
	a.Player = player
	a.spawns[player] = cp.Vector{X: spec.Player.X, Y: spec.Player.Y}

	for i, s := range spec.Enemies {
		e, err := NewEnemyAt(w, reg, s.Prefab, s.Archetype, s.X, s.Y)
		if err != nil {
			return nil, fmt.Errorf("arena: enemy %d: %w", i, err)
		}
		a.Enemies = append(a.Enemies, e)
		a.spawns[e] = cp.Vector{X: s.X, Y: s.Y}
		if s.Agent && agent != nil && !a.Agent.Valid() {
			if _, err := AttachAgent(w, e, *agent); err != nil {
				return nil, fmt.Errorf("arena: enemy %d: %w", i, err)
			}
			a.Agent = e
		}
	}
	return a, nil
}

// ResetPositions moves the player and the agent back to their spawn points
// and stops them.
func (a *Arena) ResetPositions(w *ecs.World) {
	for _, e := range []ecs.Entity{a.Player, a.Agent} {
		pos, ok := a.spawns[e]
		if !ok {
			continue
		}
		if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			t.SetPosition(pos)
		}
		if b, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok {
			b.Velocity = cp.Vector{}
			b.HasGoal = false
			b.Contacts = nil
		}
	}
}

func NewWall(w *ecs.World, geo StaticGeometry, spec prefabs.WallSpec) (ecs.Entity, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return 0, fmt.Errorf("wall: non-positive size %gx%g", spec.Width, spec.Height)
	}
	layer, err := prefabs.ParseLayer(spec.Layer)
	if err != nil {
		return 0, err
	}
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.WallTagComponent.Kind(), &component.WallTag{}); err != nil {
		return 0, fmt.Errorf("wall: add tag: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: spec.X + spec.Width/2, Y: spec.Y + spec.Height/2}); err != nil {
		return 0, fmt.Errorf("wall: add transform: %w", err)
	}
	if geo != nil {
		geo.AddWall(uint64(e), cp.BB{L: spec.X, B: spec.Y, R: spec.X + spec.Width, T: spec.Y + spec.Height}, layer)
	}
	return e, nil
}

func NewPillar(w *ecs.World, geo StaticGeometry, spec prefabs.PillarSpec) (ecs.Entity, error) {
	if spec.Radius <= 0 {
		return 0, fmt.Errorf("pillar: non-positive radius %g", spec.Radius)
	}
	layer, err := prefabs.ParseLayer(spec.Layer)
	if err != nil {
		return 0, err
	}
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.WallTagComponent.Kind(), &component.WallTag{}); err != nil {
		return 0, fmt.Errorf("pillar: add tag: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: spec.X, Y: spec.Y}); err != nil {
		return 0, fmt.Errorf("pillar: add transform: %w", err)
	}
	if geo != nil {
		geo.AddPillar(uint64(e), cp.Vector{X: spec.X, Y: spec.Y}, spec.Radius, layer)
	}
	return e, nil
}

// AttachAgent makes e a learning agent.
func AttachAgent(w *ecs.World, e ecs.Entity, opts AgentOptions) (*component.Agent, error) {
	a := component.NewAgent(opts.Mode, opts.Policy, opts.Rewards)
	if opts.DecisionInterval > 0 {
		a.DecisionInterval = opts.DecisionInterval
	}
	if err := ecs.Add(w, e, component.AgentComponent.Kind(), a); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	return a, nil
}
