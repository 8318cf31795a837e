package system

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

// PlayerControllerSystem applies PlayerInput to the protagonist: it walks
// while idle and swings the sword on request. A swing locks movement until
// it finishes.
type PlayerControllerSystem struct {
	behavior *BehaviorSystem
}

func NewPlayerControllerSystem(behavior *BehaviorSystem) *PlayerControllerSystem {
	return &PlayerControllerSystem{behavior: behavior}
}

func (p *PlayerControllerSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta()
	ecs.ForEach2(w, component.PlayerComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, player *component.Player, _ *component.Transform) {
		if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok && !h.IsAlive() {
			return
		}
		var input component.PlayerInput
		if in, ok := ecs.Get(w, e, component.PlayerInputComponent.Kind()); ok {
			input = *in
		}

		mover := MoverFor(w, e, p.spatial())
		if player.Swinging > 0 {
			player.Swinging -= dt
			if player.Swinging <= 0 {
				player.Swinging = 0
				player.SwingDone = true
			}
			return
		}

		if input.Move.LengthSq() > 1e-12 {
			player.Facing = input.Move.Normalize()
		}
		if input.Swing {
			if mover != nil {
				mover.Stop()
			}
			player.Swinging = swingDuration(player)
			player.SwingDone = false
			p.Swing(w, e, player.Facing)
			return
		}

		if mover == nil {
			return
		}
		if input.Move.LengthSq() <= 1e-12 {
			mover.Stop()
			return
		}
		speed := player.Speed
		if speed <= 0 {
			speed = component.DefaultPlayerSpeed
		}
		mover.MovePosition(input.Move, speed)
	})
}

func (p *PlayerControllerSystem) spatial() Spatial {
	if p.behavior == nil {
		return nil
	}
	return p.behavior.Spatial()
}

// Swing strikes every live enemy within sword reach on the dir side of the
// player. Each one is knocked back along dir and then takes the sword
// damage. It returns the number of enemies struck.
func (p *PlayerControllerSystem) Swing(w *ecs.World, e ecs.Entity, dir cp.Vector) int {
	player, ok := ecs.Get(w, e, component.PlayerComponent.Kind())
	if !ok {
		return 0
	}
	tr, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return 0
	}
	if dir.LengthSq() <= 1e-12 {
		dir = cp.Vector{X: 1}
	}
	dir = dir.Normalize()

	reach := player.SwordReach
	if reach <= 0 {
		reach = component.DefaultSwordReach
	}
	damage := player.SwordDamage
	if damage < 0 {
		damage = 0
	}

	pos := tr.Position()
	selfRadius := bodyRadius(w, e)
	struck := 0
	for _, enemy := range ecs.Query(w, component.EnemyTagComponent.Kind()) {
		h, ok := ecs.Get(w, enemy, component.HealthComponent.Kind())
		if !ok || !h.IsAlive() {
			continue
		}
		et, ok := ecs.Get(w, enemy, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		to := et.Position().Sub(pos)
		if to.Length() > reach+selfRadius+bodyRadius(w, enemy) || to.Dot(dir) < 0 {
			continue
		}
		if p.behavior != nil {
			p.behavior.Hit(w, enemy, dir)
		}
		if damage > 0 {
			h.TakeDamage(damage)
		}
		struck++
	}
	return struck
}

func swingDuration(p *component.Player) float64 {
	if p.SwingDuration > 0 {
		return p.SwingDuration
	}
	return component.DefaultSwingDuration
}
