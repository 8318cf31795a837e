package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/ecs/entity"
	"github.com/milk9111/arena/gym"
	"github.com/milk9111/arena/logger"
	"github.com/milk9111/arena/prefabs"
	"github.com/milk9111/arena/sim"
)

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	arenaFile := flag.String("arena", "arena.yaml", "arena layout in prefabs/")
	archetypes := flag.String("archetypes", "archetypes.yaml", "archetype file in prefabs/")
	agentFile := flag.String("agent", "agent.yaml", "agent settings in prefabs/")
	bot := flag.Bool("bot", true, "let the bot drive the player")
	seed := flag.Int64("seed", 0, "base world seed (default $"+sim.SeedEnv+" or 1); session n uses seed+n")
	logLevel := flag.String("log-level", "info", "log level")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()

	if err := logger.Configure(*logLevel, *logFormat); err != nil {
		logger.Log.Fatal(err)
	}
	baseSeed, err := sim.ResolveSeed(*seed)
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
	mode, err := spec.AgentMode()
	if err != nil {
		logger.Log.Fatal(err)
	}
	agent := &entity.AgentOptions{
		Mode:             mode,
		Rewards:          spec.Rewards.Config(),
		DecisionInterval: spec.DecisionInterval,
	}
	if mode != component.AgentControl {
		logger.Log.Warn("agent runs in observe mode: actions are recorded but the state machine drives")
	}

	sessions := make(chan int64, 1)
	sessions <- baseSeed
	factory := func() (*gym.Env, error) {
		seed := <-sessions
		sessions <- seed + 1
		s, err := sim.New(sim.Options{
			ArenaFile: *arenaFile,
			Registry:  reg,
			Agent:     agent,
			Seed:      seed,
			PlayerBot: *bot,
		})
		if err != nil {
			return nil, err
		}
		return gym.NewEnv(s, gym.Config{MaxSteps: spec.MaxSteps})
	}

	mux := http.NewServeMux()
	mux.Handle("/env", gym.NewHandler(factory, gym.HandlerConfig{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithField("addr", *addr).Info("trainer listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("shutdown")
	}
	logger.Log.Info("trainer stopped")
}
