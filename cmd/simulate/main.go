package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/system"
	"github.com/milk9111/arena/logger"
	"github.com/milk9111/arena/prefabs"
	"github.com/milk9111/arena/sim"
)

func main() {
	arenaFile := flag.String("arena", "arena.yaml", "arena layout in prefabs/")
	archetypes := flag.String("archetypes", "archetypes.yaml", "archetype file in prefabs/")
	agentFile := flag.String("agent", "agent.yaml", "agent settings in prefabs/")
	policy := flag.String("policy", "", "override the agent policy: heuristic, script or hold")
	script := flag.String("script", "", "override the tengo script used by the script policy")
	episodes := flag.Int("episodes", 10, "episodes to run")
	maxSteps := flag.Int("max-steps", -1, "truncate episodes after this many decisions (-1 uses agent.yaml)")
	maxTicks := flag.Int("max-ticks", 1_000_000, "stop after this many ticks")
	bot := flag.Bool("bot", true, "let the bot drive the player")
	seed := flag.Int64("seed", 0, "world seed (default $"+sim.SeedEnv+" or 1)")
	logLevel := flag.String("log-level", "info", "log level")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	if err := logger.Configure(*logLevel, *logFormat); err != nil {
		logger.Log.Fatal(err)
	}
	worldSeed, err := sim.ResolveSeed(*seed)
	if err != nil {
		logger.Log.Fatal(err)
	}

	reg, err := prefabs.NewRegistry(*archetypes)
	if err != nil {
		logger.Log.Fatal(err)
	}
	spec, err := prefabs.LoadAgentSpec(*agentFile)
	if err != nil {
		logger.Log.Fatal(err)
	}
	if *policy != "" {
		spec.Policy = *policy
	}
	if *script != "" {
		spec.Script = *script
	}
	if spec.Policy == sim.PolicyExternal {
		logger.Log.Fatal("simulate needs an in-process policy; use cmd/trainer for external control")
	}
	if *maxSteps >= 0 {
		spec.MaxSteps = *maxSteps
	}
	layout, err := prefabs.LoadArenaSpec(*arenaFile)
	if err != nil {
		logger.Log.Fatal(err)
	}
	agent, err := sim.AgentOptionsFor(spec, reg, layout)
	if err != nil {
		logger.Log.Fatal(err)
	}

	s, err := sim.New(sim.Options{
		ArenaFile: *arenaFile,
		Registry:  reg,
		Agent:     agent,
		Seed:      worldSeed,
		PlayerBot: *bot,
	})
	if err != nil {
		logger.Log.Fatal(err)
	}
	agentEntity, a, ok := s.Agent()
	if !ok {
		logger.Log.Fatal("arena has no agent spawn")
	}

	log := logger.Log.WithFields(logrus.Fields{"policy": spec.Policy, "mode": a.Mode})
	var (
		finished int
		total    float64
		ticks    int
	)
	for finished < *episodes && ticks < *maxTicks {
		s.Step(sim.FixedStep)
		ticks++

		if spec.MaxSteps > 0 && a.Steps >= spec.MaxSteps {
			system.TruncateEpisode(s.World, agentEntity)
		}
		for _, evt := range s.World.Events().Drain() {
			if evt.Kind != ecs.EventEpisodeEnded || evt.Entity != agentEntity {
				continue
			}
			sum, _ := evt.Data.(system.EpisodeSummary)
			finished++
			total += sum.Return
			log.WithFields(logrus.Fields{
				"episode":   sum.Episode,
				"return":    sum.Return,
				"steps":     sum.Steps,
				"truncated": sum.Truncated,
				"tick":      s.World.Tick(),
			}).Info("episode")
			s.Arena.ResetPositions(s.World)
		}
	}

	mean := 0.0
	if finished > 0 {
		mean = total / float64(finished)
	}
	log.WithFields(logrus.Fields{
		"episodes":    finished,
		"mean_return": mean,
		"ticks":       ticks,
	}).Info("simulation finished")
}
