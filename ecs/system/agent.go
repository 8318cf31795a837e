package system

import (
	"math"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
)

// EpisodeSummary is the payload of ecs.EventEpisodeEnded.
type EpisodeSummary struct {
	Episode   int
	EpisodeID string
	Return    float64
	Steps     int
	Truncated bool
}

var agentLog = logger.Log.WithField("system", "agent")

// AgentSystem runs the decision cadence of every agent: each DecisionInterval
// ticks it reports the finished step, asks the policy for an action and
// applies it. Agents without a policy are stepped from outside through Act
// and Collect.
type AgentSystem struct {
	behavior *BehaviorSystem
	log      *logrus.Entry
}

func NewAgentSystem(behavior *BehaviorSystem) *AgentSystem {
	return &AgentSystem{behavior: behavior, log: agentLog}
}

func (s *AgentSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	ecs.ForEach(w, component.AgentComponent.Kind(), func(e ecs.Entity, a *component.Agent) {
		s.step(w, e, a)
	})
}

// step runs one agent. A failing policy is contained to that agent.
func (s *AgentSystem) step(w *ecs.World, e ecs.Entity, a *component.Agent) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"entity": e, "panic": r}).Warn("agent tick failed")
		}
	}()
	AttachAgentObservers(w, e)

	interval := a.DecisionInterval
	if interval < 1 {
		interval = 1
	}
	a.SinceDecision++
	if a.Policy == nil {
		if a.HasPending {
			a.HasPending = false
			s.Act(w, e, a.Pending)
		} else if a.Acting {
			s.repeat(w, e, a.LastAction)
		}
		return
	}
	if a.SinceDecision < interval && a.Acting {
		s.repeat(w, e, a.LastAction)
		return
	}
	a.SinceDecision = 0

	if a.Acting {
		res := Collect(w, e)
		if a.OnStep != nil {
			a.OnStep(res)
		}
	}
	s.Act(w, e, a.Policy.Decide(Observe(w, e)))
}

// Queue hands an externally chosen action to e. It is applied on the next
// tick, inside the world update.
func (s *AgentSystem) Queue(w *ecs.World, e ecs.Entity, action component.Action) bool {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok || !action.Valid() {
		return false
	}
	a.Pending = action
	a.HasPending = true
	return true
}

// Act applies one decision for e and scores it. In observe mode the action
// is only recorded; the state machine keeps driving.
func (s *AgentSystem) Act(w *ecs.World, e ecs.Entity, action component.Action) bool {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok || !action.Valid() {
		return false
	}
	AttachAgentObservers(w, e)

	a.AddReward(a.Rewards.SurvivalReward)
	a.LastAction = action
	a.Acting = true
	a.SinceDecision = 0
	a.Steps++

	if a.Controls() {
		s.apply(w, e, a, action)
	}
	s.shape(w, e, a)
	return true
}

func (s *AgentSystem) apply(w *ecs.World, e ecs.Entity, a *component.Agent, action component.Action) {
	if brain, ok := ecs.Get(w, e, component.BrainComponent.Kind()); ok && brain.State == component.StateKnocked {
		return
	}
	switch action {
	case component.ActionHold:
		if m := MoverFor(w, e, s.spatial()); m != nil {
			m.Stop()
		}
	case component.ActionToward, component.ActionAway:
		s.move(w, e, action)
	case component.ActionAttack:
		if !s.behavior.TryPerformAttack(w, e) {
			a.AddReward(a.Rewards.AttackFailPenalty)
		}
	case component.ActionHeal:
		if a.Rewards.HealPerAction > 0 {
			s.behavior.TryHealSelf(w, e, a.Rewards.HealPerAction)
		}
	}
}

// repeat keeps a move decision going between decisions.
func (s *AgentSystem) repeat(w *ecs.World, e ecs.Entity, action component.Action) {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok || !a.Controls() {
		return
	}
	if action != component.ActionToward && action != component.ActionAway {
		return
	}
	if brain, ok := ecs.Get(w, e, component.BrainComponent.Kind()); ok && brain.State == component.StateKnocked {
		return
	}
	s.move(w, e, action)
}

func (s *AgentSystem) move(w *ecs.World, e ecs.Entity, action component.Action) {
	pos, target, ok := agentPositions(w, e)
	if !ok {
		return
	}
	dir := target.Sub(pos)
	if dir.LengthSq() <= 1e-12 {
		return
	}
	if action == component.ActionAway {
		dir = dir.Neg()
	}
	m := MoverFor(w, e, s.spatial())
	if m == nil {
		return
	}
	var cfg *component.EnemyConfig
	if enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind()); ok {
		cfg = enemy.Config
	}
	if brain, ok := ecs.Get(w, e, component.BrainComponent.Kind()); ok {
		brain.Facing = dir.Normalize()
	}
	m.MovePosition(dir, cfg.Walk())
}

func (s *AgentSystem) spatial() Spatial {
	if s.behavior == nil {
		return nil
	}
	return s.behavior.Spatial()
}

// Collect closes the current decision period of e: it returns the fresh
// observation with the reward gathered since the last decision and clears
// the period. A finished episode also resets the step count and return.
func Collect(w *ecs.World, e ecs.Entity) component.StepResult {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok {
		return component.StepResult{}
	}
	res := component.StepResult{
		Observation: Observe(w, e),
		Action:      a.LastAction,
		Reward:      a.Reward,
		Done:        a.Done,
		Truncated:   a.Truncated,
		Episode:     a.Episode,
		EpisodeID:   a.EpisodeID,
		Steps:       a.Steps,
	}
	a.Reward = 0
	if a.Done || a.Truncated {
		a.Steps = 0
		a.EpisodeReturn = 0
	}
	a.Done = false
	a.Truncated = false
	a.Last = res
	return res
}

// Observe builds the observation of e. An entity that is gone, or is not an
// enemy, observes all zeros.
func Observe(w *ecs.World, e ecs.Entity) component.Observation {
	var obs component.Observation
	enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind())
	if !ok {
		return obs
	}
	pos, target, ok := agentPositions(w, e)
	if !ok {
		return obs
	}

	rw := component.DefaultRewardConfig()
	if a, ok := ecs.Get(w, e, component.AgentComponent.Kind()); ok {
		rw = a.Rewards
	}
	cfg := enemy.Config
	maxRange := math.Max(1, math.Max(cfg.MaxDetectionRange(), rw.MaxRangeNormalization))
	delta := target.Sub(pos)

	if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok {
		obs[0] = h.Fraction()
	}
	obs[1] = clamp(delta.X/maxRange, -1, 1)
	obs[2] = clamp(delta.Y/maxRange, -1, 1)
	obs[3] = clamp01(delta.Length() / maxRange)
	if aw, ok := ecs.Get(w, e, component.AwarenessComponent.Kind()); ok && aw.InCombat {
		obs[4] = 1
	}
	if cd, ok := ecs.Get(w, e, component.CooldownComponent.Kind()); ok {
		obs[5] = cd.Normalized()
	}
	obs[6] = clamp01(cfg.PreferredRange() / maxRange)
	if rw.MaxAllies > 0 {
		obs[7] = clamp01(float64(CountAlliesNearby(w, e, rw.AllyRadius)) / float64(rw.MaxAllies))
	}
	return obs
}

// agentPositions returns the position of e and of its target. Without a
// target the entity's own position stands in.
func agentPositions(w *ecs.World, e ecs.Entity) (cp.Vector, cp.Vector, bool) {
	tr, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return cp.Vector{}, cp.Vector{}, false
	}
	pos := tr.Position()
	if _, target, ok := targetOf(w, e); ok {
		return pos, target, true
	}
	return pos, pos, true
}

func targetOf(w *ecs.World, e ecs.Entity) (ecs.Entity, cp.Vector, bool) {
	if enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind()); ok {
		if t, pos, ok := resolveTarget(w, ecs.Entity(enemy.Target)); ok {
			return t, pos, true
		}
	}
	return acquireTarget(w)
}

// CountAlliesNearby counts live same-side entities within radius of e. It
// walks a snapshot and skips anything dead or already despawning.
func CountAlliesNearby(w *ecs.World, e ecs.Entity, radius float64) int {
	if !(radius > 0) {
		return 0
	}
	self, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return 0
	}
	faction := component.FactionEnemy
	if team, ok := ecs.Get(w, e, component.TeamComponent.Kind()); ok {
		faction = team.Faction
	}

	pos := self.Position()
	count := 0
	for _, other := range ecs.Query(w, component.TeamComponent.Kind()) {
		if other == e || !ecs.IsAlive(w, other) || ecs.Has(w, other, component.TTLComponent.Kind()) {
			continue
		}
		team, ok := ecs.Get(w, other, component.TeamComponent.Kind())
		if !ok || team.Faction != faction {
			continue
		}
		if h, ok := ecs.Get(w, other, component.HealthComponent.Kind()); ok && !h.IsAlive() {
			continue
		}
		tr, ok := ecs.Get(w, other, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		if tr.Position().Distance(pos) <= radius {
			count++
		}
	}
	return count
}

// AttachAgentObservers subscribes the damage penalty and the death terminal
// to the health of e. Repeated calls are no-ops.
func AttachAgentObservers(w *ecs.World, e ecs.Entity) bool {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok {
		return false
	}
	if a.EpisodeID == "" {
		a.EpisodeID = uuid.NewString()
	}
	if a.Observed {
		return true
	}
	h, ok := ecs.Get(w, e, component.HealthComponent.Kind())
	if !ok {
		return false
	}
	a.Observed = true
	h.Subscribe(component.HealthObserver{
		Name: "agent",
		OnDamaged: func(amount float64) {
			if a, ok := ecs.Get(w, e, component.AgentComponent.Kind()); ok {
				a.AddReward(-a.Rewards.DamagePenaltyScale * amount)
			}
		},
		OnDeath: func() {
			if a, ok := ecs.Get(w, e, component.AgentComponent.Kind()); ok {
				a.AddReward(a.Rewards.DeathPenalty)
				EndEpisode(w, e)
			}
		},
	})
	return true
}

// NotifyTargetDamaged credits e for damage it dealt to its target and ends
// the episode. Melee and ranged archetypes earn their own goal reward, and a
// lethal hit adds the kill reward.
func NotifyTargetDamaged(w *ecs.World, e ecs.Entity, amount float64, killed bool) {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok || !(amount > 0) {
		return
	}
	var cfg *component.EnemyConfig
	if enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind()); ok {
		cfg = enemy.Config
	}
	rw := a.Rewards

	a.AddReward(rw.DamageRewardScale * amount)
	if cfg == nil || !cfg.IsRanged {
		a.AddReward(rw.MeleeGoalReward)
		if killed {
			a.AddReward(rw.KillReward)
		}
		EndEpisode(w, e)
		return
	}
	a.AddReward(rw.RangedGoalReward)
	if killed {
		a.AddReward(rw.KillReward)
	}
	EndEpisode(w, e)
}

// EndEpisode terminates the episode of e and starts the next one. It reports
// false when e has no agent or the episode already ended this period.
func EndEpisode(w *ecs.World, e ecs.Entity) bool {
	return finishEpisode(w, e, false)
}

// TruncateEpisode ends the episode of e without a terminal outcome.
func TruncateEpisode(w *ecs.World, e ecs.Entity) bool {
	return finishEpisode(w, e, true)
}

func finishEpisode(w *ecs.World, e ecs.Entity, truncated bool) bool {
	a, ok := ecs.Get(w, e, component.AgentComponent.Kind())
	if !ok || a.Done || a.Truncated {
		return false
	}
	if truncated {
		a.Truncated = true
	} else {
		a.Done = true
	}

	summary := EpisodeSummary{
		Episode:   a.Episode,
		EpisodeID: a.EpisodeID,
		Return:    a.EpisodeReturn,
		Steps:     a.Steps,
		Truncated: truncated,
	}

	if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok {
		h.RestoreToFull()
	}
	if t, _, ok := targetOf(w, e); ok {
		if h, ok := ecs.Get(w, t, component.HealthComponent.Kind()); ok {
			h.RestoreToFull()
		}
	}
	a.PrevDistance = math.Inf(1)
	a.Episode++
	a.EpisodeID = uuid.NewString()

	agentLog.WithFields(logrus.Fields{
		"entity":    e,
		"episode":   summary.Episode,
		"return":    summary.Return,
		"steps":     summary.Steps,
		"truncated": truncated,
	}).Debug("episode ended")
	w.Events().Push(ecs.Event{Kind: ecs.EventEpisodeEnded, Entity: e, Data: summary})
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 1)
}
