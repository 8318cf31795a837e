// Package gym exposes an arena agent as a reset/step environment, locally
// through Env and remotely over a websocket.
package gym

import (
	"errors"
	"fmt"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/ecs/system"
	"github.com/milk9111/arena/sim"
)

var (
	ErrInvalidAction = errors.New("gym: invalid action")
	ErrNoAgent       = errors.New("gym: arena has no agent")
)

type Config struct {
	// MaxSteps truncates an episode after that many decisions. Zero means
	// episodes only end on a terminal event.
	MaxSteps int
	// Step is the tick length; defaults to sim.FixedStep.
	Step float64
}

// Env steps one agent. The agent must have no policy of its own.
type Env struct {
	sim      *sim.Sim
	agent    ecs.Entity
	maxSteps int
	dt       float64
}

func NewEnv(s *sim.Sim, cfg Config) (*Env, error) {
	e, a, ok := s.Agent()
	if !ok {
		return nil, ErrNoAgent
	}
	if a.Policy != nil {
		return nil, fmt.Errorf("gym: agent %v already has a policy", e)
	}
	dt := cfg.Step
	if dt <= 0 {
		dt = sim.FixedStep
	}
	return &Env{sim: s, agent: e, maxSteps: cfg.MaxSteps, dt: dt}, nil
}

func (env *Env) Sim() *sim.Sim {
	return env.sim
}

func (env *Env) agentState() (*component.Agent, error) {
	a, ok := ecs.Get(env.sim.World, env.agent, component.AgentComponent.Kind())
	if !ok {
		return nil, ErrNoAgent
	}
	return a, nil
}

// Reset abandons the running episode, if any, puts the actors back on their
// spawn points and returns the first observation.
func (env *Env) Reset() (component.StepResult, error) {
	a, err := env.agentState()
	if err != nil {
		return component.StepResult{}, err
	}
	w := env.sim.World
	if a.Steps > 0 {
		system.TruncateEpisode(w, env.agent)
	}
	system.Collect(w, env.agent)
	a.Acting = false
	a.HasPending = false
	a.LastAction = component.ActionHold
	env.sim.Arena.ResetPositions(w)

	return component.StepResult{
		Observation: system.Observe(w, env.agent),
		Episode:     a.Episode,
		EpisodeID:   a.EpisodeID,
	}, nil
}

// Step applies action, advances the world by one decision period and
// returns what happened. A finished or truncated episode resets positions
// before returning.
func (env *Env) Step(action component.Action) (component.StepResult, error) {
	if !action.Valid() {
		return component.StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, action)
	}
	a, err := env.agentState()
	if err != nil {
		return component.StepResult{}, err
	}
	w := env.sim.World
	env.sim.Agents.Queue(w, env.agent, action)

	interval := a.DecisionInterval
	if interval < 1 {
		interval = 1
	}
	for i := 0; i < interval; i++ {
		env.sim.Step(env.dt)
		if a.Done {
			break
		}
	}

	if env.maxSteps > 0 && a.Steps >= env.maxSteps {
		system.TruncateEpisode(w, env.agent)
	}
	res := system.Collect(w, env.agent)
	if res.Done || res.Truncated {
		a.Acting = false
		env.sim.Arena.ResetPositions(w)
	}
	return res, nil
}
