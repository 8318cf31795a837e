package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

// Attach subscribes the behavior observers to the health of e and enters its
// initial state. It is safe to call more than once; Update attaches lazily
// as well.
func (s *BehaviorSystem) Attach(w *ecs.World, e ecs.Entity) bool {
	ctx, ok := s.context(w, e)
	if !ok {
		return false
	}
	s.attach(ctx)
	return true
}

func (s *BehaviorSystem) attach(ctx *enemyContext) {
	if ctx.brain.Observed {
		return
	}
	ctx.brain.Observed = true
	ctx.health.Owner = uint64(ctx.e)

	w, e := ctx.w, ctx.e
	ctx.health.Subscribe(component.HealthObserver{
		Name:      "behavior",
		OnDamaged: func(float64) { s.onDamaged(w, e) },
		OnDeath:   func() { s.onDeath(w, e) },
	})
	if ctx.agent != nil {
		AttachAgentObservers(w, e)
	}
	stateTable[ctx.brain.State].enter(ctx)
}

func (s *BehaviorSystem) onDamaged(w *ecs.World, e ecs.Entity) {
	ctx, ok := s.context(w, e)
	if !ok {
		return
	}
	ctx.awareness.BeginWindow()
	ctx.brain.Heal.DelayTimer = 0
	ctx.brain.Heal.CanHeal = false
	if ctx.brain.State == component.StateHeal {
		ctx.transition(component.StateWalk)
	}
}

func (s *BehaviorSystem) onDeath(w *ecs.World, e ecs.Entity) {
	ctx, ok := s.context(w, e)
	if !ok {
		return
	}
	ctx.awareness.Clear()
	if ctx.brain.State == component.StateHeal {
		ctx.transition(component.StateIdle)
	}
	ctx.stop()

	s.log.WithFields(logrus.Fields{"entity": e, "state": ctx.brain.State.String()}).Info("enemy died")
	w.Events().Push(ecs.Event{Kind: ecs.EventEntityDied, Entity: e})

	if ctx.agent == nil {
		if err := ecs.Add(w, e, component.TTLComponent.Kind(), &component.TTL{Remaining: component.DefaultCorpseTTL}); err != nil {
			s.log.WithError(err).WithField("entity", e).Warn("corpse ttl")
		}
	}
}

// TryPerformAttack attacks the current target when the cooldown allows it.
// Ranged archetypes fire a projectile at any distance; melee archetypes hit
// directly and need the target within attack range.
func (s *BehaviorSystem) TryPerformAttack(w *ecs.World, e ecs.Entity) bool {
	ctx, ok := s.context(w, e)
	if !ok || !ctx.health.IsAlive() {
		return false
	}
	return s.performAttack(ctx)
}

func (s *BehaviorSystem) performAttack(ctx *enemyContext) bool {
	target, targetPos, ok := ctx.target()
	if !ok || !ctx.cooldown.CanAttack() {
		return false
	}

	toTarget := targetPos.Sub(ctx.position())
	dist := toTarget.Length()
	cd := ctx.cfg.AttackCooldown()

	if ctx.cfg.UsesRanged() {
		s.fire(ctx, toTarget)
		ctx.enemy.LastAttackRange = dist
		s.notifyAttackPerformed(ctx, cd)
		return true
	}

	if dist > ctx.cfg.MeleeRange() {
		return false
	}
	applied, killed := 0.0, false
	if th, ok := ecs.Get(ctx.w, target, component.HealthComponent.Kind()); ok {
		prev := th.Current
		th.TakeDamage(ctx.cfg.EffectiveDamage())
		applied = math.Max(0, prev-th.Current)
		killed = !th.IsAlive()
	}
	ctx.enemy.LastAttackRange = dist
	s.notifyAttackPerformed(ctx, cd)
	if applied > 0 {
		NotifyTargetDamaged(ctx.w, ctx.e, applied, killed)
	}
	return true
}

func (s *BehaviorSystem) fire(ctx *enemyContext, toTarget cp.Vector) ecs.Entity {
	pc := ctx.cfg.Projectile
	dir := toTarget
	if dir.LengthSq() <= 1e-12 {
		dir = ctx.brain.Facing
	}
	if dir.LengthSq() <= 1e-12 {
		dir = cp.Vector{X: 1}
	}
	dir = dir.Normalize()
	if pc.SpreadDegrees > 0 {
		half := pc.SpreadDegrees / 2
		dir = rotate(dir, ctx.uniform(-half, half)*math.Pi/180)
	}
	ctx.brain.Facing = dir
	return SpawnProjectile(ctx.w, ctx.e, component.FactionEnemy, ctx.position(), dir, pc, ctx.cfg.EffectiveDamage())
}

// NotifyAttackPerformed refreshes combat and arms the cooldown of e as if it
// had just attacked. Hosts that resolve attacks themselves call it.
func (s *BehaviorSystem) NotifyAttackPerformed(w *ecs.World, e ecs.Entity, cooldown float64) bool {
	ctx, ok := s.context(w, e)
	if !ok {
		return false
	}
	s.notifyAttackPerformed(ctx, cooldown)
	return true
}

func (s *BehaviorSystem) notifyAttackPerformed(ctx *enemyContext, cooldown float64) {
	ctx.awareness.BeginWindow()
	if cooldown > 0 {
		ctx.cooldown.Begin(cooldown)
	}
}

// TryHealSelf heals e by amount and reports whether anything was restored.
func (s *BehaviorSystem) TryHealSelf(w *ecs.World, e ecs.Entity, amount float64) bool {
	if !(amount > 0) {
		return false
	}
	h, ok := ecs.Get(w, e, component.HealthComponent.Kind())
	if !ok {
		return false
	}
	return h.Heal(amount) > 0
}

// Hit knocks e back along dir. The blow also refreshes combat.
func (s *BehaviorSystem) Hit(w *ecs.World, e ecs.Entity, dir cp.Vector) bool {
	ctx, ok := s.context(w, e)
	if !ok || !ctx.health.IsAlive() {
		return false
	}
	ctx.brain.HitDir = dir
	ctx.awareness.BeginWindow()
	ctx.transition(component.StateKnocked)
	return true
}

func rotate(v cp.Vector, angle float64) cp.Vector {
	sin, cos := math.Sincos(angle)
	return cp.Vector{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}
