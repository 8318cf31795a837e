package system

import (
	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs/component"
)

const (
	fleeMinDuration    = 2.0
	fleeMaxDuration    = 4.0
	fleeTimeout        = 6.0
	fleeRepathInterval = 1.5
	fleeArriveDistance = 0.5
)

func fleeEnter(ctx *enemyContext) {
	ctx.brain.Flee = component.FleeRuntime{
		Duration: ctx.uniform(fleeMinDuration, fleeMaxDuration),
		Timeout:  fleeTimeout,
	}
	selectFleeTarget(ctx)
}

func fleeUpdate(ctx *enemyContext) {
	flee := &ctx.brain.Flee
	flee.Timer += ctx.dt
	flee.Repath += ctx.dt
	if flee.Timer > flee.Timeout {
		ctx.transition(component.StateWalk)
		return
	}

	_, threat, hasThreat := ctx.target()
	if hasThreat && flee.Repath >= fleeRepathInterval {
		flee.Repath = 0
		selectFleeTarget(ctx)
	}
	if !flee.Target.Valid {
		return
	}

	pos := ctx.position()
	if pos.Distance(flee.Target.Point) <= fleeArriveDistance {
		ctx.transition(component.StateIdle)
		return
	}
	if flee.Target.Cover {
		return
	}
	if flee.Timer > flee.Duration || (hasThreat && pos.Distance(threat) >= ctx.cfg.SafeDistance()) {
		ctx.transition(component.StateIdle)
	}
}

func fleePhysics(ctx *enemyContext) {
	if ctx.brain.Flee.Target.Valid {
		ctx.moveTo(ctx.brain.Flee.Target.Point)
	}
}

// selectFleeTarget prefers cover from the threat and falls back to a point
// straight away from it.
func selectFleeTarget(ctx *enemyContext) {
	flee := &ctx.brain.Flee
	pos := ctx.position()
	_, threat, hasThreat := ctx.target()

	if hasThreat {
		if point, ok := FindCover(ctx.sys.spatial, pos, threat, ctx.cfg.CoverRadius(), CoverSamples, ctx.cfg.ObstructionMask()); ok {
			flee.Target = component.FleeTarget{Point: point, Valid: true, Cover: true, SelectedAt: ctx.w.Time()}
			ctx.sys.log.WithFields(logrus.Fields{"entity": ctx.e, "x": point.X, "y": point.Y}).Debug("cover selected")
			return
		}
	}

	dir := retreatDirection(ctx, pos, threat, hasThreat)
	flee.Target = component.FleeTarget{
		Point:      pos.Add(dir.Mult(ctx.cfg.FallbackFleeDistance())),
		Valid:      true,
		SelectedAt: ctx.w.Time(),
	}
}

func retreatDirection(ctx *enemyContext, pos, threat cp.Vector, hasThreat bool) cp.Vector {
	if hasThreat {
		if away := pos.Sub(threat); away.LengthSq() > 1e-9 {
			return away.Normalize()
		}
	}
	dir := cp.Vector{X: ctx.uniform(-1, 1), Y: ctx.uniform(-1, 1)}
	if dir.LengthSq() <= 1e-9 {
		return cp.Vector{X: 0, Y: 1}
	}
	return dir.Normalize()
}
