package system

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

func (f *fixture) agent(t *testing.T, e ecs.Entity, mode component.AgentMode, policy component.Policy) *component.Agent {
	t.Helper()
	a := component.NewAgent(mode, policy, component.DefaultRewardConfig())
	require.NoError(t, ecs.Add(f.w, e, component.AgentComponent.Kind(), a))
	return a
}

func TestMeleeDamageEndsEpisode(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	p := f.player(t, 1, 0)
	a := f.agent(t, e, component.AgentControl, nil)
	require.True(t, AttachAgentObservers(f.w, e))
	firstID := a.EpisodeID
	require.NotEmpty(t, firstID)

	get(t, f.w, p, component.HealthComponent.Kind()).Kill()
	get(t, f.w, e, component.HealthComponent.Kind()).Current = 12
	a.PrevDistance = 1
	NotifyTargetDamaged(f.w, e, 10, true)

	assert.InDelta(t, 2.5, a.Reward, 1e-9)
	assert.True(t, a.Done)
	assert.Equal(t, 1, a.Episode)
	assert.NotEqual(t, firstID, a.EpisodeID)
	assert.True(t, math.IsInf(a.PrevDistance, 1))
	assert.Equal(t, 30.0, health(t, f, e))
	assert.Equal(t, 50.0, health(t, f, p))

	assert.False(t, a.AddReward(1), "rewards after the terminal are dropped")
	assert.False(t, EndEpisode(f.w, e), "an episode ends once per period")

	res := Collect(f.w, e)
	assert.InDelta(t, 2.5, res.Reward, 1e-9)
	assert.True(t, res.Done)
	assert.Equal(t, a.EpisodeID, res.EpisodeID)
	assert.False(t, a.Done)
	assert.Zero(t, a.Reward)
	assert.Zero(t, a.Steps)
	assert.Zero(t, a.EpisodeReturn)
}

func TestRangedDamageEndsEpisode(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, rangedConfig(), 0, 0, component.StateIdle)
	p := f.player(t, 5, 0)
	a := f.agent(t, e, component.AgentControl, nil)

	get(t, f.w, p, component.HealthComponent.Kind()).TakeDamage(4)
	NotifyTargetDamaged(f.w, e, 4, false)
	assert.InDelta(t, 0.9, a.Reward, 1e-9)
	assert.True(t, a.Done)
	assert.Equal(t, 1, a.Episode)
	assert.Equal(t, 50.0, health(t, f, p))

	Collect(f.w, e)
	NotifyTargetDamaged(f.w, e, 4, true)
	assert.InDelta(t, 1.9, a.Reward, 1e-9)
	assert.True(t, a.Done)
	assert.Equal(t, 2, a.Episode)

	Collect(f.w, e)
	NotifyTargetDamaged(f.w, e, 0, true)
	assert.False(t, a.Done, "zero damage is ignored")
	assert.Equal(t, 2, a.Episode)
}

func TestAgentLedgerPenalties(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	f.player(t, 5, 0)
	a := f.agent(t, e, component.AgentObserve, nil)
	require.True(t, AttachAgentObservers(f.w, e))
	require.True(t, AttachAgentObservers(f.w, e))

	h := get(t, f.w, e, component.HealthComponent.Kind())
	assert.Equal(t, 1, h.Observers())

	h.TakeDamage(5)
	assert.InDelta(t, -0.5, a.Reward, 1e-9)

	h.TakeDamage(100)
	assert.InDelta(t, -0.5-2.5-1, a.Reward, 1e-9)
	assert.True(t, a.Done)
	assert.Equal(t, 30.0, h.Current, "death restores the ledger for the next episode")
}

func TestTruncateEpisode(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	a := f.agent(t, e, component.AgentControl, nil)
	a.Steps = 7

	require.True(t, TruncateEpisode(f.w, e))
	assert.False(t, TruncateEpisode(f.w, e))

	var summary EpisodeSummary
	for _, evt := range f.w.Events().Drain() {
		if evt.Kind == ecs.EventEpisodeEnded {
			summary = evt.Data.(EpisodeSummary)
		}
	}
	assert.True(t, summary.Truncated)
	assert.Equal(t, 7, summary.Steps)
	assert.Zero(t, summary.Episode)

	res := Collect(f.w, e)
	assert.True(t, res.Truncated)
	assert.False(t, res.Done)
	assert.Equal(t, 1, res.Episode)
	assert.Zero(t, a.Steps)
}

func TestObserve(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, component.Observation{}, Observe(f.w, ecs.Entity(12345)))

	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	f.player(t, 5, 0)
	f.agent(t, e, component.AgentControl, nil)
	get(t, f.w, e, component.HealthComponent.Kind()).Current = 15
	get(t, f.w, e, component.AwarenessComponent.Kind()).BeginWindow()
	get(t, f.w, e, component.CooldownComponent.Kind()).Begin(2)
	f.enemy(t, component.DefaultEnemyConfig(), 1, 0, component.StateIdle)

	obs := Observe(f.w, e)
	assert.InDelta(t, 0.5, obs[0], 1e-9)
	assert.InDelta(t, 0.5, obs[1], 1e-9)
	assert.InDelta(t, 0, obs[2], 1e-9)
	assert.InDelta(t, 0.5, obs[3], 1e-9)
	assert.Equal(t, 1.0, obs[4])
	assert.Equal(t, 1.0, obs[5])
	assert.InDelta(t, 0.6, obs[6], 1e-9)
	assert.InDelta(t, 0.2, obs[7], 1e-9)
}

func TestObserveWithoutTarget(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 3, 3, component.StateIdle)

	obs := Observe(f.w, e)
	assert.Equal(t, 1.0, obs[0])
	assert.Zero(t, obs[1])
	assert.Zero(t, obs[2])
	assert.Zero(t, obs[3])
}

func TestCountAlliesNearby(t *testing.T) {
	f := newFixture(t)
	cfg := component.DefaultEnemyConfig()
	e := f.enemy(t, cfg, 0, 0, component.StateIdle)
	f.enemy(t, cfg, 1, 0, component.StateIdle)

	dead := f.enemy(t, cfg, 1, 1, component.StateIdle)
	get(t, f.w, dead, component.HealthComponent.Kind()).Current = 0

	leaving := f.enemy(t, cfg, 0, 1, component.StateIdle)
	require.NoError(t, ecs.Add(f.w, leaving, component.TTLComponent.Kind(), &component.TTL{Remaining: 1}))

	f.enemy(t, cfg, 10, 0, component.StateIdle)
	f.player(t, 1, 0)

	assert.Equal(t, 1, CountAlliesNearby(f.w, e, 6))
	assert.Zero(t, CountAlliesNearby(f.w, e, 0))
	assert.Zero(t, CountAlliesNearby(f.w, ecs.Entity(999), 6))
}

func TestQueuedActionAppliesInsideTick(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	f.player(t, 5, 0)
	a := f.agent(t, e, component.AgentControl, nil)

	assert.False(t, f.agents.Queue(f.w, e, component.Action(99)))
	require.True(t, f.agents.Queue(f.w, e, component.ActionToward))
	assert.Zero(t, get(t, f.w, e, component.TransformComponent.Kind()).X, "nothing moves before the tick")

	f.tick(1)
	x := get(t, f.w, e, component.TransformComponent.Kind()).X
	assert.Greater(t, x, 0.0)
	assert.Equal(t, 1, a.Steps)
	assert.False(t, a.HasPending)
	assert.Equal(t, component.ActionToward, a.LastAction)

	f.tick(1)
	assert.Greater(t, get(t, f.w, e, component.TransformComponent.Kind()).X, x, "moves repeat until the next decision")
	assert.Equal(t, 1, a.Steps)
}

func TestPolicyCadence(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	f.player(t, 5, 0)

	decisions := 0
	policy := PolicyFunc(func(component.Observation) component.Action {
		decisions++
		return component.ActionHold
	})
	a := f.agent(t, e, component.AgentControl, policy)
	a.DecisionInterval = 2
	var results []component.StepResult
	a.OnStep = func(res component.StepResult) { results = append(results, res) }

	f.tick(5)

	assert.Equal(t, 3, decisions)
	assert.Equal(t, 3, a.Steps)
	require.Len(t, results, 2)
	assert.Equal(t, component.ActionHold, results[0].Action)
	assert.Zero(t, get(t, f.w, e, component.TransformComponent.Kind()).X)
}

func TestFailingPolicyIsContained(t *testing.T) {
	f := newFixture(t)
	f.player(t, 5, 0)
	broken := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	healthy := f.enemy(t, component.DefaultEnemyConfig(), 0, 3, component.StateIdle)
	bad := f.agent(t, broken, component.AgentControl, PolicyFunc(func(component.Observation) component.Action {
		panic("bad policy")
	}))
	good := f.agent(t, healthy, component.AgentControl, HoldPolicy)

	f.tick(2)

	assert.Equal(t, uint64(2), f.w.Tick())
	assert.Zero(t, bad.Steps)
	assert.Equal(t, 2, good.Steps)
}

func TestObserveModeOnlyRecords(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	p := f.player(t, 1, 0)
	a := f.agent(t, e, component.AgentObserve, nil)

	require.True(t, f.agents.Act(f.w, e, component.ActionAttack))
	assert.Equal(t, component.ActionAttack, a.LastAction)
	assert.Equal(t, 50.0, health(t, f, p))
	assert.Equal(t, 1, a.Steps)
}

func TestFailedAttackIsPenalized(t *testing.T) {
	f := newFixture(t)
	e := f.enemy(t, component.DefaultEnemyConfig(), 0, 0, component.StateIdle)
	f.player(t, 9, 0)
	a := f.agent(t, e, component.AgentControl, nil)
	a.Rewards.DistancePenaltyScale = 0
	a.Rewards.ApproachProgressReward = 0

	require.True(t, f.agents.Act(f.w, e, component.ActionAttack))
	rw := component.DefaultRewardConfig()
	assert.InDelta(t, rw.SurvivalReward+rw.AttackFailPenalty, a.Reward, 1e-9)
}

func TestHeuristicPolicy(t *testing.T) {
	obs := func(hp, dist float64, inCombat bool, cooldown, preferred float64) component.Observation {
		var o component.Observation
		o[0], o[1], o[3], o[5], o[6] = hp, dist, dist, cooldown, preferred
		if inCombat {
			o[4] = 1
		}
		return o
	}

	melee := NewHeuristicPolicy(component.DefaultEnemyConfig(), component.DefaultRewardConfig())
	ranged := NewHeuristicPolicy(rangedConfig(), component.DefaultRewardConfig())

	cases := []struct {
		name   string
		policy *HeuristicPolicy
		obs    component.Observation
		want   component.Action
	}{
		{"no_target_holds", melee, component.Observation{1}, component.ActionHold},
		{"melee_attacks_in_reach", melee, obs(1, 0.05, true, 0, 0.6), component.ActionAttack},
		{"melee_waits_on_cooldown", melee, obs(1, 0.05, true, 0.5, 0.6), component.ActionHold},
		{"melee_closes_in", melee, obs(1, 0.5, true, 0, 0.6), component.ActionToward},
		{"flees_when_low", melee, obs(0.2, 0.5, true, 0, 0.6), component.ActionAway},
		{"heal_waits_for_delay", melee, obs(0.4, 0.5, false, 0, 0.6), component.ActionToward},
		{"ranged_closes_in", ranged, obs(1, 0.9, true, 0, 0.6), component.ActionToward},
		{"ranged_backs_off", ranged, obs(1, 0.3, true, 0, 0.6), component.ActionAway},
		{"ranged_fires_in_band", ranged, obs(1, 0.6, true, 0, 0.6), component.ActionAttack},
		{"ranged_waits_in_band", ranged, obs(1, 0.6, true, 0.5, 0.6), component.ActionHold},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.policy.Decide(c.obs))
		})
	}
}

func TestHeuristicPolicyHealDelay(t *testing.T) {
	var calm, fighting component.Observation
	calm[0], calm[1], calm[3], calm[6] = 0.4, 0.5, 0.5, 0.6
	fighting = calm
	fighting[4] = 1

	p := NewHeuristicPolicy(component.DefaultEnemyConfig(), component.DefaultRewardConfig())
	p.DecisionPeriod = 1
	require.Equal(t, 3.0, p.HealDelay)

	assert.Equal(t, component.ActionToward, p.Decide(calm))
	assert.Equal(t, component.ActionToward, p.Decide(calm))
	assert.Equal(t, component.ActionHeal, p.Decide(calm))
	assert.Equal(t, component.ActionHeal, p.Decide(calm))

	assert.Equal(t, component.ActionToward, p.Decide(fighting))
	assert.Equal(t, component.ActionToward, p.Decide(calm), "combat restarts the delay")
}

func TestScriptPolicy(t *testing.T) {
	src := []byte(`
decide := func(obs) {
	if obs[3] > 0.5 {
		return 1
	}
	if obs[0] < 0.1 {
		return 9
	}
	return 3
}
`)
	p, err := NewScriptPolicy("test", src)
	require.NoError(t, err)
	assert.Equal(t, "test", p.Name())

	assert.Equal(t, component.ActionToward, p.Decide(component.Observation{1, 0, 0, 0.8}))
	assert.Equal(t, component.ActionAttack, p.Decide(component.Observation{1, 0, 0, 0.2}))
	assert.Equal(t, component.ActionHold, p.Decide(component.Observation{0, 0, 0, 0.2}), "out of range answers hold")

	_, err = NewScriptPolicy("broken", []byte(`decide := func(obs) {`))
	assert.Error(t, err)

	rush, err := LoadScriptPolicy("rush.tengo")
	require.NoError(t, err)
	assert.Equal(t, component.ActionAttack, rush.Decide(component.Observation{1, 0.1, 0, 0.1}))
	assert.Equal(t, component.ActionHold, rush.Decide(component.Observation{}))

	_, err = LoadScriptPolicy("missing.tengo")
	assert.Error(t, err)
}
