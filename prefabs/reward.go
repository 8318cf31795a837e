package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/arena/ecs/component"
)

// AgentSpec is agent.yaml: how agents decide and how they are scored.
type AgentSpec struct {
	Mode             string     `yaml:"mode"`
	Policy           string     `yaml:"policy"`
	Script           string     `yaml:"script"`
	DecisionInterval int        `yaml:"decision_interval"`
	MaxSteps         int        `yaml:"max_steps"`
	Rewards          RewardSpec `yaml:"rewards"`
}

type RewardSpec struct {
	MaxRangeNormalization  float64 `yaml:"max_range_normalization"`
	AllyRadius             float64 `yaml:"ally_radius"`
	MaxAllies              int     `yaml:"max_allies"`
	SurvivalReward         float64 `yaml:"survival"`
	DistancePenaltyScale   float64 `yaml:"distance_penalty_scale"`
	ApproachProgressReward float64 `yaml:"approach_progress"`
	ApproachThreshold      float64 `yaml:"approach_threshold"`
	IdealRangeReward       float64 `yaml:"ideal_range"`
	IdealRangeTolerance    float64 `yaml:"ideal_range_tolerance"`
	AttackFailPenalty      float64 `yaml:"attack_fail_penalty"`
	DamagePenaltyScale     float64 `yaml:"damage_penalty_scale"`
	RangedTooClosePenalty  float64 `yaml:"ranged_too_close_penalty"`
	DamageRewardScale      float64 `yaml:"damage_reward_scale"`
	MeleeGoalReward        float64 `yaml:"melee_goal"`
	RangedGoalReward       float64 `yaml:"ranged_goal"`
	KillReward             float64 `yaml:"kill"`
	DeathPenalty           float64 `yaml:"death_penalty"`
	MeleeTouchRadius       float64 `yaml:"melee_touch_radius"`
	HealPerAction          float64 `yaml:"heal_per_action"`
	MinSafeDistance        float64 `yaml:"min_safe_distance"`
}

func rewardSpecFrom(c component.RewardConfig) RewardSpec {
	return RewardSpec(c)
}

func (s RewardSpec) Config() component.RewardConfig {
	return component.RewardConfig(s)
}

func defaultAgentSpec() AgentSpec {
	return AgentSpec{
		Mode:             "control",
		Policy:           "heuristic",
		DecisionInterval: 1,
		MaxSteps:         1000,
		Rewards:          rewardSpecFrom(component.DefaultRewardConfig()),
	}
}

// DecodeAgentSpec parses agent.yaml over the defaults.
func DecodeAgentSpec(data []byte) (*AgentSpec, error) {
	spec := defaultAgentSpec()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("prefabs: unmarshal agent spec: %w", err)
	}
	if spec.DecisionInterval < 1 {
		spec.DecisionInterval = 1
	}
	return &spec, nil
}

func LoadAgentSpec(filename string) (*AgentSpec, error) {
	data, err := Load(filename)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return DecodeAgentSpec(data)
}

// AgentMode maps the mode name to the component value.
func (s *AgentSpec) AgentMode() (component.AgentMode, error) {
	switch s.Mode {
	case "", "control":
		return component.AgentControl, nil
	case "observe":
		return component.AgentObserve, nil
	default:
		return component.AgentControl, fmt.Errorf("prefabs: unknown agent mode %q", s.Mode)
	}
}
