package system

import (
	"math"

	"github.com/milk9111/arena/ecs/component"
)

func healEnter(ctx *enemyContext) {
	ctx.stop()
	ctx.brain.Heal = component.HealRuntime{
		Delay:     ctx.cfg.HealDelay(),
		PerSecond: ctx.cfg.HealRate(),
		Threshold: ctx.cfg.HealThreshold(ctx.health.Max),
	}
	ctx.brain.Heal.CanHeal = ctx.brain.Heal.Delay <= 0

	if ctx.awareness.InCombat || !ctx.health.IsAlive() || healReached(ctx) {
		ctx.transition(component.StateWalk)
	}
}

func healUpdate(ctx *enemyContext) {
	heal := &ctx.brain.Heal
	switch {
	case !ctx.health.IsAlive():
		ctx.transition(component.StateIdle)
		return
	case ctx.awareness.InCombat, healReached(ctx):
		ctx.transition(component.StateWalk)
		return
	}

	if !heal.CanHeal {
		heal.DelayTimer += ctx.dt
		if heal.DelayTimer < heal.Delay {
			return
		}
		heal.CanHeal = true
	}

	if amount := math.Min(heal.PerSecond*ctx.dt, heal.Threshold-ctx.health.Current); amount > 0 {
		ctx.health.Heal(amount)
	}
	if healReached(ctx) {
		ctx.transition(component.StateWalk)
	}
}

func healReached(ctx *enemyContext) bool {
	threshold := ctx.brain.Heal.Threshold
	if threshold <= 0 {
		threshold = ctx.cfg.HealThreshold(ctx.health.Max)
	}
	return ctx.health.Current >= threshold-healThresholdEpsilon
}
