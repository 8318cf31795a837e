package system

import (
	"math"

	"github.com/milk9111/arena/ecs/component"
)

const (
	knockDuration = 0.3
	knockDrag     = 6.0
)

func knockEnter(ctx *enemyContext) {
	dir := ctx.brain.HitDir
	if dir.LengthSq() <= 1e-12 {
		dir = ctx.brain.Facing.Neg()
	}
	if dir.LengthSq() > 1e-12 {
		dir = dir.Normalize()
	}
	ctx.brain.Knock = component.KnockRuntime{
		Remaining: knockDuration,
		Velocity:  dir.Mult(ctx.cfg.Thrust()),
	}
	ctx.setVelocity(ctx.brain.Knock.Velocity)
}

func knockUpdate(ctx *enemyContext) {
	ctx.brain.Knock.Remaining -= ctx.dt
	if ctx.brain.Knock.Remaining <= 0 {
		endKnock(ctx)
	}
}

func knockPhysics(ctx *enemyContext) {
	knock := &ctx.brain.Knock
	knock.Velocity = knock.Velocity.Mult(math.Exp(-knockDrag * ctx.dt))
	ctx.setVelocity(knock.Velocity)
}

// knockCollide ends the knock the moment the entity slams into something.
func knockCollide(ctx *enemyContext, _ component.Contact) {
	if ctx.brain.State == component.StateKnocked {
		endKnock(ctx)
	}
}

func endKnock(ctx *enemyContext) {
	ctx.brain.Knock = component.KnockRuntime{}
	ctx.stop()
	ctx.transition(component.StateWalk)
}
