package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/ecs/system"
	"github.com/milk9111/arena/prefabs"
)

func agentOptions(t *testing.T, policy string) Options {
	t.Helper()
	reg, err := prefabs.NewRegistry("archetypes.yaml")
	require.NoError(t, err)
	arena, err := prefabs.LoadArenaSpec("arena.yaml")
	require.NoError(t, err)
	spec, err := prefabs.LoadAgentSpec("agent.yaml")
	require.NoError(t, err)
	spec.Policy = policy

	opts, err := AgentOptionsFor(spec, reg, arena)
	require.NoError(t, err)
	return Options{Registry: reg, Agent: opts, Seed: 3, PlayerBot: true}
}

func TestNewBuildsDefaultArena(t *testing.T) {
	s, err := New(Options{Seed: 1})
	require.NoError(t, err)

	assert.Len(t, s.Arena.Enemies, 3)
	assert.Greater(t, s.Physics.Shapes(), 0)
	_, _, ok := s.Agent()
	assert.False(t, ok, "no agent without agent options")
	assert.Len(t, s.World.Systems(), 8)

	for _, e := range s.Arena.Enemies {
		brain, ok := ecs.Get(s.World, e, component.BrainComponent.Kind())
		require.True(t, ok)
		assert.True(t, brain.Observed, "enemies are attached at build time")
	}
}

func TestNewRejectsMissingFiles(t *testing.T) {
	_, err := New(Options{ArenaFile: "missing.yaml"})
	assert.Error(t, err)
	_, err = New(Options{ArchetypeFile: "missing.yaml"})
	assert.Error(t, err)
}

func TestSimIsDeterministic(t *testing.T) {
	run := func() (component.Transform, float64) {
		s, err := New(agentOptions(t, PolicyHeuristic))
		require.NoError(t, err)
		e, a, ok := s.Agent()
		require.True(t, ok)
		for i := 0; i < 600; i++ {
			s.Step(FixedStep)
		}
		tr, _ := ecs.Get(s.World, e, component.TransformComponent.Kind())
		return *tr, a.EpisodeReturn
	}

	firstPos, firstReturn := run()
	secondPos, secondReturn := run()
	assert.Equal(t, firstPos, secondPos)
	assert.Equal(t, firstReturn, secondReturn)
}

func TestSpawnEnemy(t *testing.T) {
	s, err := New(Options{Seed: 1})
	require.NoError(t, err)

	e, err := s.SpawnEnemy("", "brute", 5, 5)
	require.NoError(t, err)
	assert.Len(t, s.Arena.Enemies, 4)
	enemy, ok := ecs.Get(s.World, e, component.EnemyComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, "brute", enemy.Config.Name)
	state, ok := s.Behavior.State(s.World, e)
	require.True(t, ok)
	assert.Equal(t, component.StateWalk, state)
}

func TestPolicyFor(t *testing.T) {
	spec, err := prefabs.DecodeAgentSpec(nil)
	require.NoError(t, err)
	cfg := component.DefaultEnemyConfig()

	cases := []struct {
		policy  string
		script  string
		check   func(t *testing.T, p component.Policy)
		wantErr bool
	}{
		{policy: "", check: func(t *testing.T, p component.Policy) {
			h, ok := p.(*system.HeuristicPolicy)
			require.True(t, ok)
			assert.InDelta(t, FixedStep*float64(spec.DecisionInterval), h.DecisionPeriod, 1e-12)
		}},
		{policy: PolicyHold, check: func(t *testing.T, p component.Policy) {
			assert.Equal(t, component.ActionHold, p.Decide(component.Observation{1, 0.5, 0, 0.5}))
		}},
		{policy: PolicyScript, script: "kite.tengo", check: func(t *testing.T, p component.Policy) { assert.IsType(t, &system.ScriptPolicy{}, p) }},
		{policy: PolicyExternal, check: func(t *testing.T, p component.Policy) { assert.Nil(t, p) }},
		{policy: PolicyScript, script: "absent.tengo", wantErr: true},
		{policy: "oracle", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.policy+c.script, func(t *testing.T) {
			spec.Policy, spec.Script = c.policy, c.script
			p, err := PolicyFor(spec, cfg)
			if c.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			c.check(t, p)
		})
	}
}

func TestAgentOptionsFor(t *testing.T) {
	opts := agentOptions(t, PolicyExternal)
	assert.Nil(t, opts.Agent.Policy)
	assert.Equal(t, 5, opts.Agent.DecisionInterval)

	s, err := New(opts)
	require.NoError(t, err)
	_, a, ok := s.Agent()
	require.True(t, ok)
	assert.Equal(t, component.AgentControl, a.Mode)
	assert.Nil(t, a.Policy)

	spec, err := prefabs.DecodeAgentSpec([]byte("mode: puppet\n"))
	require.NoError(t, err)
	_, err = AgentOptionsFor(spec, opts.Registry, s.Arena.Spec)
	assert.Error(t, err)
}

func TestResolveSeed(t *testing.T) {
	t.Setenv(SeedEnv, "")
	seed, err := ResolveSeed(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seed)

	seed, err = ResolveSeed(42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), seed)

	t.Setenv(SeedEnv, "17")
	seed, err = ResolveSeed(0)
	require.NoError(t, err)
	assert.Equal(t, int64(17), seed)

	t.Setenv(SeedEnv, "seventeen")
	_, err = ResolveSeed(0)
	assert.Error(t, err)
}
