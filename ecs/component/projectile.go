package component

import "github.com/jakecoffman/cp"

// Projectile is a ballistic damage carrier. Owner is a weak handle: a
// destroyed owner only loses attribution.
type Projectile struct {
	Owner                uint64
	Faction              Faction
	Damage               float64
	Remaining            float64
	Velocity             cp.Vector
	Radius               float64
	DestroyOnObstruction bool
	Hit                  bool
}

var ProjectileComponent = NewComponent[Projectile]()

// TouchDamage hurts the opposing side on contact, at most once per Cooldown.
type TouchDamage struct {
	Damage    float64
	Cooldown  float64
	Remaining float64
	Reach     float64
}

var TouchDamageComponent = NewComponent[TouchDamage]()

const (
	DefaultTouchDamage   = 10.0
	DefaultTouchCooldown = 1.0
)
