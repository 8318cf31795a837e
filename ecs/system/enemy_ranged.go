package system

import (
	"math"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

const (
	rangedTolerance      = 0.75
	rangedMinBand        = 0.5
	rangedLeaveFactor    = 1.25
	rangedLeavePad       = 2.0
	rangedReacquireDelay = 1.5
)

// rangedBand is the distance window a ranged entity holds and fires in.
func rangedBand(cfg *component.EnemyConfig) (lo, hi float64) {
	pref := cfg.RangedPreferredRange()
	return math.Max(rangedMinBand, pref-rangedTolerance), pref + rangedTolerance
}

// rangedLeaveDistance is the distance past which the entity gives up the
// engagement and goes back to wandering.
func rangedLeaveDistance(cfg *component.EnemyConfig) float64 {
	if cfg != nil && cfg.DetectionRadius > 0 {
		return cfg.DetectionRange() * rangedLeaveFactor
	}
	_, hi := rangedBand(cfg)
	return hi + rangedLeavePad
}

func rangedEnter(ctx *enemyContext) {
	ctx.brain.Ranged = component.RangedRuntime{}
	ctx.stop()
	if t, _, ok := ctx.target(); ok {
		ctx.brain.Ranged.Target = uint64(t)
	}
}

func rangedUpdate(ctx *enemyContext) {
	ranged := &ctx.brain.Ranged
	t, targetPos, ok := resolveTarget(ctx.w, ecs.Entity(ranged.Target))
	if !ok {
		ctx.stop()
		ranged.Reacquire += ctx.dt
		if ranged.Reacquire < rangedReacquireDelay {
			return
		}
		ranged.Reacquire = 0
		t, targetPos, ok = acquireTarget(ctx.w)
		if !ok {
			ctx.transition(component.StateIdle)
			return
		}
	}
	ranged.Target = uint64(t)
	ranged.Reacquire = 0
	ctx.enemy.Target = uint64(t)

	toTarget := targetPos.Sub(ctx.position())
	dist := toTarget.Length()
	if dist > rangedLeaveDistance(ctx.cfg) {
		ctx.transition(component.StateWalk)
		return
	}

	aim := ctx.brain.Facing
	if dist > 1e-9 {
		aim = toTarget.Mult(1 / dist)
	}

	pref := ctx.cfg.RangedPreferredRange()
	switch delta := dist - pref; {
	case math.Abs(delta) <= rangedTolerance:
		ctx.stop()
	case delta > 0:
		ctx.movePosition(aim, ctx.cfg.MoveSpeed())
	default:
		ctx.movePosition(aim.Neg(), ctx.cfg.MoveSpeed())
	}
	ctx.brain.Facing = aim

	lo, hi := rangedBand(ctx.cfg)
	if dist < lo || dist > hi || !ctx.cooldown.CanAttack() {
		return
	}
	ctx.sys.performAttack(ctx)
}
