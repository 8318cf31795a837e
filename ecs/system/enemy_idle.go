package system

import "github.com/milk9111/arena/ecs/component"

const (
	idleMinDuration = 1.0
	idleMaxDuration = 3.0
)

func idleEnter(ctx *enemyContext) {
	ctx.stop()
	ctx.brain.Idle.Remaining = ctx.uniform(idleMinDuration, idleMaxDuration)
}

func idleUpdate(ctx *enemyContext) {
	ctx.brain.Idle.Remaining -= ctx.dt
	if ctx.brain.Idle.Remaining <= 0 {
		ctx.transition(component.StateWalk)
	}
}
