package prefabs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/arena/ecs/component"
)

func TestDecodeArchetypes(t *testing.T) {
	data := []byte(`
archetypes:
  grunt:
    max_health: 12
    damage: 3
  sniper:
    is_ranged: true
    preferred_attack_range: 8
    cover_layers: [cover]
    projectile:
      speed: 20
      destroy_on_obstruction: false
`)
	configs, err := DecodeArchetypes(data)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	grunt := configs["grunt"]
	require.NotNil(t, grunt)
	assert.Equal(t, "grunt", grunt.Name)
	assert.Equal(t, 12.0, grunt.MaxHealth)
	assert.Equal(t, 3.0, grunt.Damage)
	stock := component.DefaultEnemyConfig()
	assert.Equal(t, stock.DetectionRadius, grunt.DetectionRadius, "omitted fields keep the stock value")
	assert.Equal(t, stock.FleeHealthThreshold, grunt.FleeHealthThreshold)
	assert.False(t, grunt.UsesRanged())
	assert.Equal(t, component.LayerObstruction, grunt.ObstructionMask())

	sniper := configs["sniper"]
	require.NotNil(t, sniper)
	assert.True(t, sniper.UsesRanged())
	assert.Equal(t, 8.0, sniper.RangedPreferredRange())
	assert.Equal(t, component.LayerCover, sniper.CoverMask)
	require.NotNil(t, sniper.Projectile)
	assert.Equal(t, 20.0, sniper.Projectile.Speed)
	assert.Equal(t, component.DefaultProjectileLife, sniper.Projectile.Lifetime)
	assert.False(t, sniper.Projectile.DestroyOnObstruction)
}

func TestDecodeArchetypesErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"malformed", "archetypes: [1, 2"},
		{"bad_field_type", "archetypes:\n  a:\n    max_health: lots\n"},
		{"unknown_layer", "archetypes:\n  a:\n    cover_layers: [lava]\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeArchetypes([]byte(c.data))
			assert.Error(t, err)
		})
	}
}

func TestEmbeddedArchetypes(t *testing.T) {
	configs, err := LoadArchetypes("archetypes.yaml")
	require.NoError(t, err)
	for _, name := range []string{"melee", "ranged", "brute"} {
		assert.Contains(t, configs, name)
	}
	assert.True(t, configs["ranged"].UsesRanged())
	assert.False(t, configs["melee"].UsesRanged())
	assert.Equal(t, component.LayerObstruction, configs["ranged"].CoverMask)
}

func TestParseLayer(t *testing.T) {
	cases := []struct {
		name    string
		want    uint
		wantErr bool
	}{
		{"", component.LayerWall, false},
		{"wall", component.LayerWall, false},
		{"cover", component.LayerCover, false},
		{"water", 0, true},
	}
	for _, c := range cases {
		got, err := ParseLayer(c.name)
		if c.wantErr {
			assert.Error(t, err, c.name)
			continue
		}
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, got, c.name)
	}

	mask, err := ParseLayers(nil)
	require.NoError(t, err)
	assert.Zero(t, mask)
}

func TestDecodeAgentSpec(t *testing.T) {
	spec, err := DecodeAgentSpec([]byte("policy: script\nscript: rush.tengo\ndecision_interval: 0\nrewards:\n  kill: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, "script", spec.Policy)
	assert.Equal(t, "rush.tengo", spec.Script)
	assert.Equal(t, 1, spec.DecisionInterval)
	assert.Equal(t, 1000, spec.MaxSteps)

	rw := spec.Rewards.Config()
	assert.Equal(t, 3.0, rw.KillReward)
	assert.Equal(t, component.DefaultRewardConfig().MeleeGoalReward, rw.MeleeGoalReward)

	mode, err := spec.AgentMode()
	require.NoError(t, err)
	assert.Equal(t, component.AgentControl, mode)

	spec.Mode = "observe"
	mode, err = spec.AgentMode()
	require.NoError(t, err)
	assert.Equal(t, component.AgentObserve, mode)

	spec.Mode = "puppet"
	_, err = spec.AgentMode()
	assert.Error(t, err)

	embedded, err := LoadAgentSpec("agent.yaml")
	require.NoError(t, err)
	assert.Equal(t, 5, embedded.DecisionInterval)
	assert.Equal(t, component.DefaultRewardConfig(), embedded.Rewards.Config())
}

func TestLoadArenaSpec(t *testing.T) {
	arena, err := LoadArenaSpec("arena.yaml")
	require.NoError(t, err)
	assert.Equal(t, "training_room", arena.Name)
	assert.NotEmpty(t, arena.Walls)

	agents := 0
	for _, spawn := range arena.Enemies {
		if spawn.Agent {
			agents++
		}
		assert.NotEmpty(t, spawn.Archetype)
	}
	assert.Equal(t, 1, agents)

	_, err = LoadArenaSpec("missing.yaml")
	assert.Error(t, err)
}

func TestBuildSpecs(t *testing.T) {
	spec, err := LoadEntityBuildSpec("melee_enemy.yaml")
	require.NoError(t, err)
	assert.Equal(t, "melee_enemy", spec.Name)

	body, err := DecodeComponentSpec[BodyComponentSpec](spec.Components["body"])
	require.NoError(t, err)
	assert.Equal(t, []string{"wall", "cover"}, body.Layers)

	brain, err := DecodeComponentSpec[BrainComponentSpec](spec.Components["brain"])
	require.NoError(t, err)
	assert.Equal(t, "walk", brain.Initial)

	none, err := DecodeComponentSpec[TouchDamageComponentSpec](nil)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestRegistry(t *testing.T) {
	r := NewRegistryFrom(map[string]*component.EnemyConfig{
		"b": component.DefaultEnemyConfig(),
		"a": component.DefaultEnemyConfig(),
	})
	assert.Equal(t, []string{"a", "b"}, r.Names())

	cfg, err := r.Get("a")
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	_, err = r.Get("c")
	assert.True(t, errors.Is(err, ErrUnknownArchetype))
	assert.NoError(t, r.Reload(), "registries without a file never reload")
}

func TestRegistryWatchReloads(t *testing.T) {
	r, err := NewRegistry("archetypes.yaml")
	require.NoError(t, err)
	before, err := r.Get("melee")
	require.NoError(t, err)

	w := &Watcher{Events: make(chan string), Errors: make(chan error)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Watch(ctx, w)
		close(done)
	}()

	w.Events <- filepath.Join("elsewhere", "arena.yaml")
	w.Events <- filepath.Join("prefabs", "archetypes.yaml")
	w.Errors <- errors.New("transient")

	after, err := r.Get("melee")
	require.NoError(t, err)
	assert.NotSame(t, before, after, "reload swaps in fresh configs")
	assert.Equal(t, before.MaxHealth, after.MaxHealth)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop on cancel")
	}
}

func TestWatcherReportsPrefabFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	target := filepath.Join(dir, "archetypes.yaml")
	require.NoError(t, os.WriteFile(target, []byte("archetypes: {}\n"), 0o644))

	select {
	case name := <-w.Events:
		assert.Equal(t, target, name)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for the yaml file")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	for range w.Events {
	}
}

func TestLoadScript(t *testing.T) {
	for _, name := range []string{"rush.tengo", "scripts/rush.tengo", "prefabs/scripts/kite.tengo"} {
		src, err := LoadScript(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(src), "decide", name)
	}
	_, err := LoadScript("nope.tengo")
	assert.Error(t, err)
}
