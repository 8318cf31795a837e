package system

import (
	"math"
	"math/rand"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
)

const healThresholdEpsilon = 0.01

// StateChange is the payload of ecs.EventStateChanged.
type StateChange struct {
	From component.BehaviorState
	To   component.BehaviorState
}

// BehaviorSystem runs the hostile agent state machine. Each tick it counts
// down the awareness and cooldown trackers, runs proximity detection,
// evaluates the transition policy and dispatches to the active state.
type BehaviorSystem struct {
	spatial Spatial
	log     *logrus.Entry
}

func NewBehaviorSystem(spatial Spatial) *BehaviorSystem {
	return &BehaviorSystem{
		spatial: spatial,
		log:     logger.Log.WithField("system", "behavior"),
	}
}

// Spatial returns the facade the states query.
func (s *BehaviorSystem) Spatial() Spatial {
	return s.spatial
}

func (s *BehaviorSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	for _, e := range ecs.Query(w, component.BrainComponent.Kind()) {
		s.step(w, e)
	}
}

// enemyContext bundles the components one tick of one entity works on.
type enemyContext struct {
	sys *BehaviorSystem
	w   *ecs.World
	e   ecs.Entity
	dt  float64

	brain     *component.Brain
	enemy     *component.Enemy
	cfg       *component.EnemyConfig
	health    *component.Health
	awareness *component.Awareness
	cooldown  *component.Cooldown
	transform *component.Transform
	body      *component.Body
	agent     *component.Agent
	mover     component.Mover
}

func (s *BehaviorSystem) context(w *ecs.World, e ecs.Entity) (*enemyContext, bool) {
	if !ecs.IsAlive(w, e) {
		return nil, false
	}
	brain, ok := ecs.Get(w, e, component.BrainComponent.Kind())
	if !ok {
		return nil, false
	}
	enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind())
	if !ok {
		return nil, false
	}
	health, ok := ecs.Get(w, e, component.HealthComponent.Kind())
	if !ok {
		return nil, false
	}
	awareness, ok := ecs.Get(w, e, component.AwarenessComponent.Kind())
	if !ok {
		return nil, false
	}
	cooldown, ok := ecs.Get(w, e, component.CooldownComponent.Kind())
	if !ok {
		return nil, false
	}
	transform, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return nil, false
	}
	body, _ := ecs.Get(w, e, component.BodyComponent.Kind())
	agent, _ := ecs.Get(w, e, component.AgentComponent.Kind())

	return &enemyContext{
		sys:       s,
		w:         w,
		e:         e,
		dt:        w.Delta(),
		brain:     brain,
		enemy:     enemy,
		cfg:       enemy.Config,
		health:    health,
		awareness: awareness,
		cooldown:  cooldown,
		transform: transform,
		body:      body,
		agent:     agent,
		mover:     MoverFor(w, e, s.spatial),
	}, true
}

// step runs one entity. A panic is contained to that entity.
func (s *BehaviorSystem) step(w *ecs.World, e ecs.Entity) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"entity": e, "panic": r}).Warn("behavior tick failed")
		}
	}()

	ctx, ok := s.context(w, e)
	if !ok {
		return
	}
	s.attach(ctx)
	if !ctx.health.IsAlive() {
		return
	}

	ctx.awareness.Tick(ctx.dt)
	s.detect(ctx)
	ctx.cooldown.Tick(ctx.dt)

	var contacts []component.Contact
	if ctx.body != nil {
		contacts = ctx.body.TakeContacts()
	}

	if ctx.agent.Controls() && ctx.brain.State != component.StateKnocked {
		return
	}

	s.evaluate(ctx)

	ctx.brain.StateTime += ctx.dt
	stateTable[ctx.brain.State].update(ctx)
	for _, c := range contacts {
		stateTable[ctx.brain.State].collide(ctx, c)
	}
	stateTable[ctx.brain.State].physics(ctx)
}

func (s *BehaviorSystem) detect(ctx *enemyContext) {
	if !ctx.awareness.DetectionDue(ctx.dt) {
		return
	}
	_, target, ok := ctx.target()
	if !ok {
		return
	}
	if ctx.position().Distance(target) <= ctx.cfg.DetectionRange() {
		ctx.awareness.BeginWindow()
	}
}

// evaluate applies the cross-cutting transition policy. Knocked blocks it.
func (s *BehaviorSystem) evaluate(ctx *enemyContext) {
	state := ctx.brain.State
	if state == component.StateKnocked {
		return
	}

	inCombat := ctx.awareness.InCombat
	if !inCombat && shouldHeal(ctx) {
		ctx.tryTransition(component.StateHeal)
		return
	}
	if inCombat {
		if shouldFlee(ctx) {
			ctx.tryTransition(component.StateFlee)
			return
		}
		if ctx.cfg.UsesRanged() {
			ctx.tryTransition(component.StateRanged)
			return
		}
	}

	switch state {
	case component.StateHeal, component.StateRanged, component.StateFlee:
		ctx.tryTransition(component.StateWalk)
	}
}

func shouldHeal(ctx *enemyContext) bool {
	if !ctx.health.IsAlive() {
		return false
	}
	return ctx.health.Current < ctx.cfg.HealThreshold(ctx.health.Max)-healThresholdEpsilon
}

func shouldFlee(ctx *enemyContext) bool {
	fraction := ctx.cfg.FleeFraction()
	if fraction <= 0 {
		return false
	}
	return ctx.health.Current/math.Max(1, ctx.health.Max) <= fraction
}

// State returns the active state of e.
func (s *BehaviorSystem) State(w *ecs.World, e ecs.Entity) (component.BehaviorState, bool) {
	brain, ok := ecs.Get(w, e, component.BrainComponent.Kind())
	if !ok {
		return component.StateIdle, false
	}
	return brain.State, true
}

// Transition forces e into next, running its enter callback even when e is
// already there.
func (s *BehaviorSystem) Transition(w *ecs.World, e ecs.Entity, next component.BehaviorState) bool {
	ctx, ok := s.context(w, e)
	if !ok || next >= component.BehaviorStateCount {
		return false
	}
	ctx.transition(next)
	return true
}

func (ctx *enemyContext) tryTransition(next component.BehaviorState) {
	if ctx.brain.State == next {
		return
	}
	ctx.transition(next)
}

func (ctx *enemyContext) transition(next component.BehaviorState) {
	prev := ctx.brain.State
	ctx.brain.Previous = prev
	ctx.brain.State = next
	ctx.brain.StateTime = 0

	ctx.sys.log.WithFields(logrus.Fields{
		"entity": ctx.e,
		"from":   prev.String(),
		"to":     next.String(),
	}).Debug("state change")
	ctx.w.Events().Push(ecs.Event{Kind: ecs.EventStateChanged, Entity: ctx.e, Data: StateChange{From: prev, To: next}})

	stateTable[next].enter(ctx)
}

func (ctx *enemyContext) position() cp.Vector {
	return ctx.transform.Position()
}

func (ctx *enemyContext) rng() *rand.Rand {
	return ctx.w.Rand()
}

// target resolves the stored protagonist handle, reacquiring one when the
// stored handle is gone.
func (ctx *enemyContext) target() (ecs.Entity, cp.Vector, bool) {
	if t, pos, ok := resolveTarget(ctx.w, ecs.Entity(ctx.enemy.Target)); ok {
		return t, pos, true
	}
	t, pos, ok := acquireTarget(ctx.w)
	if ok {
		ctx.enemy.Target = uint64(t)
	}
	return t, pos, ok
}

func resolveTarget(w *ecs.World, t ecs.Entity) (ecs.Entity, cp.Vector, bool) {
	if !t.Valid() || !ecs.IsAlive(w, t) {
		return 0, cp.Vector{}, false
	}
	tr, ok := ecs.Get(w, t, component.TransformComponent.Kind())
	if !ok {
		return 0, cp.Vector{}, false
	}
	return t, tr.Position(), true
}

func acquireTarget(w *ecs.World) (ecs.Entity, cp.Vector, bool) {
	for _, e := range ecs.Query(w, component.PlayerTagComponent.Kind()) {
		if t, pos, ok := resolveTarget(w, e); ok {
			return t, pos, true
		}
	}
	return 0, cp.Vector{}, false
}

func (ctx *enemyContext) stop() {
	if ctx.mover != nil {
		ctx.mover.Stop()
	}
}

func (ctx *enemyContext) movePosition(dir cp.Vector, speed float64) bool {
	if ctx.mover == nil {
		return false
	}
	if dir.LengthSq() > 1e-12 {
		ctx.brain.Facing = dir.Normalize()
	}
	return ctx.mover.MovePosition(dir, speed)
}

func (ctx *enemyContext) moveTo(point cp.Vector) {
	if ctx.mover != nil {
		ctx.mover.MoveTo(point)
	}
}

func (ctx *enemyContext) setVelocity(v cp.Vector) {
	if ctx.mover != nil {
		ctx.mover.SetVelocity(v)
	}
}

// uniform returns a value in [lo, hi).
func (ctx *enemyContext) uniform(lo, hi float64) float64 {
	return lo + ctx.rng().Float64()*(hi-lo)
}
