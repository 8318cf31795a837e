package system

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
)

// TouchDamageSystem hurts every opposing entity overlapping a TouchDamage
// carrier, at most once per carrier cooldown. Melee enemies credit the
// damage to their agent without ever reporting a kill.
type TouchDamageSystem struct {
	log *logrus.Entry
}

func NewTouchDamageSystem() *TouchDamageSystem {
	return &TouchDamageSystem{log: logger.Log.WithField("system", "touch_damage")}
}

func (s *TouchDamageSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta()
	ecs.ForEach3(w, component.TouchDamageComponent.Kind(), component.TeamComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, td *component.TouchDamage, team *component.Team, t *component.Transform) {
		s.touch(w, e, td, team, t, dt)
	})
}

func (s *TouchDamageSystem) touch(w *ecs.World, e ecs.Entity, td *component.TouchDamage, team *component.Team, t *component.Transform, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"entity": e, "panic": r}).Warn("touch damage failed")
		}
	}()

	if td.Remaining > 0 {
		td.Remaining = math.Max(0, td.Remaining-dt)
	}
	if td.Remaining > 0 {
		return
	}
	if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok && !h.IsAlive() {
		return
	}

	victim, ok := touching(w, e, team.Faction, t, td.Reach)
	if !ok {
		return
	}
	h, _ := ecs.Get(w, victim, component.HealthComponent.Kind())
	damage := td.Damage
	if damage <= 0 {
		damage = component.DefaultTouchDamage
	}
	applied := h.TakeDamage(damage)
	td.Remaining = td.Cooldown
	if td.Remaining <= 0 {
		td.Remaining = component.DefaultTouchCooldown
	}

	if applied <= 0 {
		return
	}
	if enemy, ok := ecs.Get(w, e, component.EnemyComponent.Kind()); ok && (enemy.Config == nil || !enemy.Config.IsRanged) {
		NotifyTargetDamaged(w, e, applied, false)
	}
}

func touching(w *ecs.World, self ecs.Entity, faction component.Faction, t *component.Transform, reach float64) (ecs.Entity, bool) {
	selfRadius := bodyRadius(w, self)
	pos := t.Position()
	var found ecs.Entity
	ecs.ForEach3(w, component.TeamComponent.Kind(), component.HealthComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, team *component.Team, h *component.Health, other *component.Transform) {
		if found.Valid() || e == self || team.Faction == faction || !h.IsAlive() {
			return
		}
		if pos.Distance(other.Position()) <= selfRadius+bodyRadius(w, e)+math.Max(0, reach) {
			found = e
		}
	})
	return found, found.Valid()
}

func bodyRadius(w *ecs.World, e ecs.Entity) float64 {
	if b, ok := ecs.Get(w, e, component.BodyComponent.Kind()); ok && b.Radius > 0 {
		return b.Radius
	}
	return component.DefaultBodyRadius
}
