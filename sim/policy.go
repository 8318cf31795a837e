package sim

import (
	"fmt"

	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/ecs/entity"
	"github.com/milk9111/arena/ecs/system"
	"github.com/milk9111/arena/prefabs"
)

// Policy names accepted in agent.yaml and on the command line. "external"
// leaves the agent without a policy for a trainer to drive.
const (
	PolicyHeuristic = "heuristic"
	PolicyScript    = "script"
	PolicyHold      = "hold"
	PolicyExternal  = "external"
)

// PolicyFor builds the decision source named by spec for archetype cfg.
func PolicyFor(spec *prefabs.AgentSpec, cfg *component.EnemyConfig) (component.Policy, error) {
	rewards := spec.Rewards.Config()
	switch spec.Policy {
	case "", PolicyHeuristic:
		p := system.NewHeuristicPolicy(cfg, rewards)
		p.DecisionPeriod = FixedStep * float64(max(1, spec.DecisionInterval))
		return p, nil
	case PolicyScript:
		p, err := system.LoadScriptPolicy(spec.Script)
		if err != nil {
			return nil, err
		}
		return p, nil
	case PolicyHold:
		return system.HoldPolicy, nil
	case PolicyExternal:
		return nil, nil
	default:
		return nil, fmt.Errorf("sim: unknown policy %q", spec.Policy)
	}
}

// AgentOptionsFor resolves agent.yaml into build options for the agent
// spawn of arena, whose archetype decides the heuristic thresholds.
func AgentOptionsFor(spec *prefabs.AgentSpec, reg *prefabs.Registry, arena *prefabs.ArenaSpec) (*entity.AgentOptions, error) {
	mode, err := spec.AgentMode()
	if err != nil {
		return nil, err
	}
	var cfg *component.EnemyConfig
	for _, s := range arena.Enemies {
		if !s.Agent {
			continue
		}
		if cfg, err = reg.Get(s.Archetype); err != nil {
			return nil, fmt.Errorf("sim: agent spawn: %w", err)
		}
		break
	}
	policy, err := PolicyFor(spec, cfg)
	if err != nil {
		return nil, err
	}
	return &entity.AgentOptions{
		Mode:             mode,
		Policy:           policy,
		Rewards:          spec.Rewards.Config(),
		DecisionInterval: spec.DecisionInterval,
	}, nil
}
