package system

import (
	"math"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

const (
	minIdealTolerance  = 0.1
	minTouchRadius     = 0.05
	minShapingDistance = 0.1
)

// shape adds the per-decision distance terms and checks the melee touch
// terminal. It is skipped without a target and once the episode ended.
func (s *AgentSystem) shape(w *ecs.World, e ecs.Entity, a *component.Agent) {
	if a.Done || a.Truncated {
		return
	}
	enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind())
	if !ok {
		return
	}
	tr, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return
	}
	_, target, ok := targetOf(w, e)
	if !ok {
		return
	}

	cfg := enemy.Config
	rw := a.Rewards
	dist := tr.Position().Distance(target)
	ranged := cfg != nil && cfg.IsRanged

	if ranged && math.Abs(dist-cfg.PreferredRange()) <= math.Max(minIdealTolerance, rw.IdealRangeTolerance) {
		a.AddReward(rw.IdealRangeReward)
	}

	rewardProgress(a, cfg, dist)

	if !ranged {
		if dist <= math.Max(minTouchRadius, rw.MeleeTouchRadius) {
			a.AddReward(rw.MeleeGoalReward)
			EndEpisode(w, e)
		}
		return
	}
	minSafe := rw.MinSafeDistance
	if cfg.MinimumSafeDistance > 0 {
		minSafe = cfg.MinimumSafeDistance
	}
	if dist < minSafe {
		a.AddReward(rw.RangedTooClosePenalty)
	}
}

// rewardProgress penalizes distance and rewards or penalizes the change in
// distance since the previous decision once it exceeds the threshold.
func rewardProgress(a *component.Agent, cfg *component.EnemyConfig, dist float64) {
	rw := a.Rewards
	if rw.DistancePenaltyScale != 0 {
		maxRange := math.Max(minShapingDistance, cfg.MaxDetectionRange())
		a.AddReward(-rw.DistancePenaltyScale * clamp01(dist/maxRange))
	}

	if rw.ApproachProgressReward > 0 && !math.IsInf(a.PrevDistance, 1) {
		switch delta := a.PrevDistance - dist; {
		case delta > rw.ApproachThreshold:
			a.AddReward(rw.ApproachProgressReward)
		case delta < -rw.ApproachThreshold:
			a.AddReward(-rw.ApproachProgressReward)
		}
	}
	a.PrevDistance = dist
}
