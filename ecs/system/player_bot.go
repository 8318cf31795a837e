package system

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

const (
	botWanderMin     = 1.0
	botWanderMax     = 3.0
	botDefaultEngage = 6.0
)

// PlayerBotSystem writes PlayerInput for protagonists carrying a PlayerBot:
// it chases and swings at the nearest enemy in range and wanders otherwise.
type PlayerBotSystem struct{}

func NewPlayerBotSystem() *PlayerBotSystem {
	return &PlayerBotSystem{}
}

func (s *PlayerBotSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta()
	ecs.ForEach3(w, component.PlayerBotComponent.Kind(), component.PlayerComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, bot *component.PlayerBot, player *component.Player, tr *component.Transform) {
		input, ok := ecs.Get(w, e, component.PlayerInputComponent.Kind())
		if !ok {
			input = &component.PlayerInput{}
			if err := ecs.Add(w, e, component.PlayerInputComponent.Kind(), input); err != nil {
				return
			}
		}
		*input = component.PlayerInput{}

		pos := tr.Position()
		engage := bot.EngageDist
		if engage <= 0 {
			engage = botDefaultEngage
		}
		if !bot.Passive {
			if target, ok := nearestEnemy(w, pos, engage); ok {
				to := target.Sub(pos)
				reach := player.SwordReach
				if reach <= 0 {
					reach = component.DefaultSwordReach
				}
				input.Move = to
				if to.Length() <= reach+bodyRadius(w, e) && player.Swinging <= 0 {
					input.Swing = true
				}
				return
			}
		}

		bot.Remaining -= dt
		if bot.Remaining <= 0 {
			bot.Direction = cardinalDirections[w.Rand().Intn(len(cardinalDirections))]
			bot.Remaining = botWanderMin + w.Rand().Float64()*(botWanderMax-botWanderMin)
		}
		input.Move = bot.Direction
	})
}

func nearestEnemy(w *ecs.World, pos cp.Vector, within float64) (cp.Vector, bool) {
	best := math.Inf(1)
	var found cp.Vector
	ok := false
	for _, e := range ecs.Query(w, component.EnemyTagComponent.Kind()) {
		if ecs.Has(w, e, component.TTLComponent.Kind()) {
			continue
		}
		if h, has := ecs.Get(w, e, component.HealthComponent.Kind()); has && !h.IsAlive() {
			continue
		}
		tr, has := ecs.Get(w, e, component.TransformComponent.Kind())
		if !has {
			continue
		}
		if d := tr.Position().Distance(pos); d <= within && d < best {
			best = d
			found = tr.Position()
			ok = true
		}
	}
	return found, ok
}
