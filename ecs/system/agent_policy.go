package system

import (
	"math"

	"github.com/milk9111/arena/ecs/component"
)

// PolicyFunc adapts a plain function to component.Policy.
type PolicyFunc func(obs component.Observation) component.Action

func (f PolicyFunc) Decide(obs component.Observation) component.Action {
	return f(obs)
}

// HoldPolicy always holds. Useful as a baseline.
var HoldPolicy = PolicyFunc(func(component.Observation) component.Action {
	return component.ActionHold
})

// defaultDecisionPeriod is one 60 Hz tick per decision.
const defaultDecisionPeriod = 1.0 / 60

// HeuristicPolicy plays the archetype the way the state machine would, from
// the observation alone. Distances are in observation units, that is divided
// by the normalization range. It heals only after HealDelay seconds of
// decisions spent out of combat, so one instance serves a single agent.
type HeuristicPolicy struct {
	Ranged    bool
	Reach     float64
	Tolerance float64
	FleeBelow float64
	HealBelow float64

	HealDelay      float64
	DecisionPeriod float64

	calm float64
}

// NewHeuristicPolicy derives the normalized thresholds from cfg.
func NewHeuristicPolicy(cfg *component.EnemyConfig, rewards component.RewardConfig) *HeuristicPolicy {
	norm := math.Max(1, math.Max(cfg.MaxDetectionRange(), rewards.MaxRangeNormalization))
	p := &HeuristicPolicy{
		Ranged:    cfg.UsesRanged(),
		Reach:     cfg.MeleeRange() / norm,
		Tolerance: rangedTolerance / norm,
		FleeBelow: cfg.FleeFraction(),

		HealDelay:      cfg.HealDelay(),
		DecisionPeriod: defaultDecisionPeriod,
	}
	if cfg != nil {
		p.HealBelow = clamp01(cfg.HealStopFraction)
	}
	return p
}

func (p *HeuristicPolicy) Decide(obs component.Observation) component.Action {
	hp, relX, relY, dist := obs[0], obs[1], obs[2], obs[3]
	inCombat := obs[4] > 0.5
	ready := obs[5] <= 0
	preferred := obs[6]

	if inCombat {
		p.calm = 0
	} else {
		p.calm += p.DecisionPeriod
	}
	rested := p.calm+1e-9 >= p.HealDelay

	switch {
	case relX == 0 && relY == 0 && dist == 0:
		return component.ActionHold
	case inCombat && p.FleeBelow > 0 && hp <= p.FleeBelow:
		return component.ActionAway
	case !inCombat && rested && p.HealBelow > 0 && hp < p.HealBelow:
		return component.ActionHeal
	}

	if p.Ranged {
		switch {
		case dist > preferred+p.Tolerance:
			return component.ActionToward
		case dist < preferred-p.Tolerance:
			return component.ActionAway
		case ready:
			return component.ActionAttack
		default:
			return component.ActionHold
		}
	}

	if dist <= p.Reach {
		if ready {
			return component.ActionAttack
		}
		return component.ActionHold
	}
	return component.ActionToward
}
