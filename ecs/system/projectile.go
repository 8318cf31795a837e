package system

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
)

// ProjectileHit is the payload of ecs.EventProjectileHit.
type ProjectileHit struct {
	Owner   ecs.Entity
	Victim  ecs.Entity
	Applied float64
	Killed  bool
}

// SpawnProjectile launches a projectile from origin along dir. The owner only
// receives credit for damage; it is never hit by its own shot.
func SpawnProjectile(w *ecs.World, owner ecs.Entity, faction component.Faction, origin, dir cp.Vector, cfg *component.ProjectileConfig, damage float64) ecs.Entity {
	e := ecs.CreateEntity(w)
	if !e.Valid() {
		return e
	}
	if dir.LengthSq() <= 1e-12 {
		dir = cp.Vector{X: 1}
	}
	lifetime := component.DefaultProjectileLife
	destroy := true
	if cfg != nil {
		if cfg.Lifetime > 0 {
			lifetime = cfg.Lifetime
		}
		destroy = cfg.DestroyOnObstruction
	}

	_ = ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: origin.X, Y: origin.Y})
	_ = ecs.Add(w, e, component.ProjectileComponent.Kind(), &component.Projectile{
		Owner:                uint64(owner),
		Faction:              faction,
		Damage:               damage,
		Remaining:            lifetime,
		Velocity:             dir.Normalize().Mult(cfg.ProjectileSpeed()),
		Radius:               cfg.ProjectileRadius(),
		DestroyOnObstruction: destroy,
	})
	return e
}

// ProjectileSystem moves projectiles, resolves hits against the opposing
// side and walls, and expires them.
type ProjectileSystem struct {
	spatial Spatial
	log     *logrus.Entry
}

func NewProjectileSystem(spatial Spatial) *ProjectileSystem {
	return &ProjectileSystem{
		spatial: spatial,
		log:     logger.Log.WithField("system", "projectile"),
	}
}

func (s *ProjectileSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta()
	ecs.ForEach2(w, component.ProjectileComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, p *component.Projectile, t *component.Transform) {
		s.advance(w, e, p, t, dt)
	})
}

func (s *ProjectileSystem) advance(w *ecs.World, e ecs.Entity, p *component.Projectile, t *component.Transform, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"entity": e, "panic": r}).Warn("projectile tick failed")
		}
	}()
	if p.Hit {
		ecs.DestroyEntity(w, e)
		return
	}
	p.Remaining -= dt

	from := t.Position()
	to := from.Add(p.Velocity.Mult(dt))
	end := to
	wall, blocked := Hit{}, false
	if s.spatial != nil {
		wall, blocked = s.spatial.SweepCircle(from, to, p.Radius, component.LayerObstruction)
	}
	if blocked {
		end = lerp(from, to, wall.Alpha)
	}

	if victim, alpha, ok := s.firstVictim(w, p, from, end); ok {
		t.SetPosition(lerp(from, end, alpha))
		s.strike(w, e, p, victim)
		return
	}

	if blocked {
		t.SetPosition(end)
		if p.DestroyOnObstruction {
			ecs.DestroyEntity(w, e)
			return
		}
		p.Velocity = cp.Vector{}
	} else {
		t.SetPosition(to)
	}
	if p.Remaining <= 0 {
		ecs.DestroyEntity(w, e)
	}
}

// firstVictim returns the earliest opposing entity whose circle the segment
// from..to touches, with the fraction of the segment at first contact.
func (s *ProjectileSystem) firstVictim(w *ecs.World, p *component.Projectile, from, to cp.Vector) (ecs.Entity, float64, bool) {
	owner := ecs.Entity(p.Owner)
	best := math.Inf(1)
	var victim ecs.Entity
	ecs.ForEach3(w, component.TeamComponent.Kind(), component.HealthComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, team *component.Team, h *component.Health, t *component.Transform) {
		if e == owner || team.Faction == p.Faction || !h.IsAlive() {
			return
		}
		if alpha, ok := segmentCircle(from, to, t.Position(), bodyRadius(w, e)+p.Radius); ok && alpha < best {
			best = alpha
			victim = e
		}
	})
	return victim, best, victim.Valid()
}

func (s *ProjectileSystem) strike(w *ecs.World, e ecs.Entity, p *component.Projectile, victim ecs.Entity) {
	p.Hit = true
	applied, killed := 0.0, false
	if h, ok := ecs.Get(w, victim, component.HealthComponent.Kind()); ok {
		prev := h.Current
		h.TakeDamage(p.Damage)
		applied = math.Max(0, prev-h.Current)
		killed = !h.IsAlive()
	}

	owner := ecs.Entity(p.Owner)
	s.log.WithFields(logrus.Fields{"owner": owner, "victim": victim, "applied": applied, "killed": killed}).Debug("projectile hit")
	w.Events().Push(ecs.Event{Kind: ecs.EventProjectileHit, Entity: victim, Data: ProjectileHit{Owner: owner, Victim: victim, Applied: applied, Killed: killed}})

	if applied > 0 && ecs.IsAlive(w, owner) {
		NotifyTargetDamaged(w, owner, applied, killed)
	}
	ecs.DestroyEntity(w, e)
}

// segmentCircle returns the fraction along a..b where the segment first
// enters the circle, zero when a already lies inside.
func segmentCircle(a, b, center cp.Vector, radius float64) (float64, bool) {
	f := a.Sub(center)
	c := f.Dot(f) - radius*radius
	if c <= 0 {
		return 0, true
	}
	d := b.Sub(a)
	qa := d.Dot(d)
	if qa <= 1e-12 {
		return 0, false
	}
	qb := 2 * f.Dot(d)
	disc := qb*qb - 4*qa*c
	if disc < 0 {
		return 0, false
	}
	t := (-qb - math.Sqrt(disc)) / (2 * qa)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

func lerp(a, b cp.Vector, t float64) cp.Vector {
	return a.Add(b.Sub(a).Mult(t))
}
