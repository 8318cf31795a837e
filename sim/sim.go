// Package sim assembles a playable arena: the world, its systems in tick
// order, the static geometry and the actors.
package sim

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/ecs/entity"
	"github.com/milk9111/arena/ecs/system"
	"github.com/milk9111/arena/logger"
	"github.com/milk9111/arena/prefabs"
)

// FixedStep is the tick length hosts use unless told otherwise.
const FixedStep = 1.0 / 60.0

type Options struct {
	ArenaFile     string
	ArchetypeFile string
	// Registry, when set, is used instead of loading ArchetypeFile.
	Registry *prefabs.Registry
	Agent    *entity.AgentOptions
	Seed     int64
	// PlayerBot lets the bot drive the protagonist.
	PlayerBot bool
}

func (o *Options) defaults() {
	if o.ArenaFile == "" {
		o.ArenaFile = "arena.yaml"
	}
	if o.ArchetypeFile == "" {
		o.ArchetypeFile = "archetypes.yaml"
	}
}

type Sim struct {
	World    *ecs.World
	Physics  *system.PhysicsSystem
	Behavior *system.BehaviorSystem
	Agents   *system.AgentSystem
	Player   *system.PlayerControllerSystem
	Arena    *entity.Arena
	Registry *prefabs.Registry

	log *logrus.Entry
}

func New(opts Options) (*Sim, error) {
	opts.defaults()

	reg := opts.Registry
	if reg == nil {
		var err error
		reg, err = prefabs.NewRegistry(opts.ArchetypeFile)
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
	}
	spec, err := prefabs.LoadArenaSpec(opts.ArenaFile)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	w := ecs.NewWorld()
	w.Seed(opts.Seed)

	physics := system.NewPhysicsSystem()
	behavior := system.NewBehaviorSystem(physics)
	agents := system.NewAgentSystem(behavior)
	player := system.NewPlayerControllerSystem(behavior)

	w.AddSystem(behavior)
	w.AddSystem(agents)
	w.AddSystem(system.NewPlayerBotSystem())
	w.AddSystem(player)
	w.AddSystem(physics)
	w.AddSystem(system.NewProjectileSystem(physics))
	w.AddSystem(system.NewTouchDamageSystem())
	w.AddSystem(system.NewTTLSystem())

	arena, err := entity.BuildArena(w, physics, reg, spec, opts.Agent)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	if opts.PlayerBot {
		if err := entity.AddPlayerBot(w, arena.Player, 0); err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
	}
	for _, e := range arena.Enemies {
		behavior.Attach(w, e)
	}

	s := &Sim{
		World:    w,
		Physics:  physics,
		Behavior: behavior,
		Agents:   agents,
		Player:   player,
		Arena:    arena,
		Registry: reg,
		log:      logger.Log.WithField("component", "sim"),
	}
	s.log.WithFields(logrus.Fields{
		"arena":   spec.Name,
		"enemies": len(arena.Enemies),
		"walls":   len(arena.Walls),
		"seed":    opts.Seed,
	}).Info("arena ready")
	return s, nil
}

func (s *Sim) Step(dt float64) {
	s.World.Update(dt)
}

// Agent returns the agent entity and its state.
func (s *Sim) Agent() (ecs.Entity, *component.Agent, bool) {
	if s.Arena == nil || !s.Arena.Agent.Valid() {
		return 0, nil, false
	}
	a, ok := ecs.Get(s.World, s.Arena.Agent, component.AgentComponent.Kind())
	return s.Arena.Agent, a, ok
}

// SpawnEnemy adds an enemy of archetype from the current registry data.
func (s *Sim) SpawnEnemy(prefab, archetype string, x, y float64) (ecs.Entity, error) {
	e, err := entity.NewEnemyAt(s.World, s.Registry, prefab, archetype, x, y)
	if err != nil {
		return 0, err
	}
	s.Behavior.Attach(s.World, e)
	s.Arena.Enemies = append(s.Arena.Enemies, e)
	return e, nil
}

// SeedEnv names the environment variable consulted when no seed flag is set.
const SeedEnv = "ARENA_SEED"

// ResolveSeed returns seed when non-zero, then ARENA_SEED, then 1.
func ResolveSeed(seed int64) (int64, error) {
	if seed != 0 {
		return seed, nil
	}
	raw := os.Getenv(SeedEnv)
	if raw == "" {
		return 1, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sim: %s=%q: %w", SeedEnv, raw, err)
	}
	return v, nil
}
