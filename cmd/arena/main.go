package main

import (
	"context"
	"flag"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/arena/ecs/entity"
	"github.com/milk9111/arena/logger"
	"github.com/milk9111/arena/prefabs"
	"github.com/milk9111/arena/sim"
)

func main() {
	arenaFile := flag.String("arena", "arena.yaml", "arena layout in prefabs/")
	archetypes := flag.String("archetypes", "archetypes.yaml", "archetype file in prefabs/")
	agentFile := flag.String("agent", "agent.yaml", "agent settings in prefabs/; empty disables the agent")
	bot := flag.Bool("bot", false, "let the bot drive the player")
	scale := flag.Float64("scale", 40, "pixels per world unit")
	seed := flag.Int64("seed", 0, "world seed (default $"+sim.SeedEnv+" or 1)")
	watch := flag.Bool("watch", true, "reload archetypes when prefab files change")
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

	var agent *entity.AgentOptions
	if *agentFile != "" {
		spec, err := prefabs.LoadAgentSpec(*agentFile)
		if err != nil {
			logger.Log.Fatal(err)
		}
		layout, err := prefabs.LoadArenaSpec(*arenaFile)
		if err != nil {
			logger.Log.Fatal(err)
		}
		if agent, err = sim.AgentOptionsFor(spec, reg, layout); err != nil {
			logger.Log.Fatal(err)
		}
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

	if *watch {
		w, err := prefabs.NewWatcher()
		if err != nil {
			logger.Log.WithError(err).Warn("hot reload disabled")
		} else {
			defer w.Close()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go reg.Watch(ctx, w)
		}
	}

	game := NewGame(s, *scale)
	ebiten.SetWindowSize(game.screenSize())
	ebiten.SetWindowTitle("arena")

	if err := ebiten.RunGame(game); err != nil {
		logger.Log.Fatal(err)
	}
}
