package system

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs/component"
)

const (
	walkMinDuration = 1.0
	walkMaxDuration = 3.0
	walkIdleChance  = 0.25
)

var cardinalDirections = [...]cp.Vector{
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 0},
	{X: 0, Y: -1},
}

func walkEnter(ctx *enemyContext) {
	ctx.brain.Walk = component.WalkRuntime{}
	chooseWalk(ctx)
}

func walkUpdate(ctx *enemyContext) {
	walk := &ctx.brain.Walk
	if walk.Bumped {
		chooseWalk(ctx)
		return
	}

	walk.Elapsed += ctx.dt
	if walk.Elapsed < walk.Duration {
		return
	}
	if ctx.rng().Float64() < walkIdleChance {
		ctx.transition(component.StateIdle)
		return
	}
	chooseWalk(ctx)
}

func walkPhysics(ctx *enemyContext) {
	if ctx.movePosition(ctx.brain.Walk.Direction, ctx.cfg.Walk()) {
		ctx.brain.Walk.Bumped = true
	}
}

// walkCollide redirects when a contact faces the walk direction.
func walkCollide(ctx *enemyContext, c component.Contact) {
	if c.Normal.Dot(ctx.brain.Walk.Direction) < 0 {
		ctx.brain.Walk.Bumped = true
	}
}

// chooseWalk picks a fresh cardinal direction and duration. After a bump the
// blocked direction is excluded.
func chooseWalk(ctx *enemyContext) {
	walk := &ctx.brain.Walk
	prev := walk.Direction
	bumped := walk.Bumped

	dir := cardinalDirections[ctx.rng().Intn(len(cardinalDirections))]
	if bumped && dir == prev {
		dir = dir.Neg()
	}

	walk.Direction = dir
	walk.Duration = ctx.uniform(walkMinDuration, walkMaxDuration)
	walk.Elapsed = 0
	walk.Bumped = false
	ctx.brain.Facing = dir
}
