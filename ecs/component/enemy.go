package component

import "math"

// Fallbacks used when an archetype leaves a field unset.
const (
	DefaultDamage           = 5.0
	DefaultMeleeRange       = 1.5
	DefaultPreferredRange   = 2.0
	DefaultRangedPreferred  = 5.0
	DefaultDetectionRange   = 10.0
	DefaultRangedCooldown   = 1.25
	MinAttackCooldown       = 0.1
	DefaultHealDelay        = 3.0
	DefaultHealPerSecond    = 5.0
	DefaultWalkSpeed        = 3.0
	DefaultThrustForce      = 13.0
	DefaultMinSafeDistance  = 3.0
	DefaultCoverRadius      = 6.0
	DefaultBodyRadius       = 0.4
	DefaultProjectileSpeed  = 10.0
	DefaultProjectileLife   = 6.0
	DefaultProjectileRadius = 0.15
	MinProjectileSpeed      = 0.1
	MinDetectionRadius      = 0.5
)

// Collision layers. Walls block movement and sight; cover blocks sight only
// where a level marks it so.
const (
	LayerWall  uint = 1 << 0
	LayerCover uint = 1 << 1

	LayerObstruction = LayerWall | LayerCover
)

// ProjectileConfig describes the projectile source of a ranged archetype.
type ProjectileConfig struct {
	Speed                float64
	Lifetime             float64
	FireCooldown         float64
	SpreadDegrees        float64
	Radius               float64
	DestroyOnObstruction bool
}

// EnemyConfig is archetype data. It is shared by pointer between every
// entity of the archetype and never written after loading. Every accessor
// accepts a nil receiver and answers with the documented fallback.
type EnemyConfig struct {
	Name string

	MaxHealth            float64
	Damage               float64
	AttackSpeed          float64
	MovementSpeed        float64
	DetectionRadius      float64
	AttackRange          float64
	IsRanged             bool
	FleeHealthThreshold  float64
	OutOfCombatHealDelay float64
	HealPerSecond        float64
	HealStopFraction     float64
	PreferredAttackRange float64
	MinimumSafeDistance  float64
	CoverSearchRadius    float64

	WalkSpeed              float64
	ThrustForce            float64
	DetectionCheckInterval float64
	CombatExitDelay        float64
	Radius                 float64
	CoverMask              uint

	Projectile *ProjectileConfig
}

// DefaultEnemyConfig returns the stock melee archetype.
func DefaultEnemyConfig() *EnemyConfig {
	return &EnemyConfig{
		Name:                   "default",
		MaxHealth:              30,
		Damage:                 5,
		AttackSpeed:            1,
		MovementSpeed:          3,
		DetectionRadius:        8,
		AttackRange:            1,
		FleeHealthThreshold:    0.25,
		OutOfCombatHealDelay:   3,
		HealPerSecond:          5,
		HealStopFraction:       1,
		PreferredAttackRange:   6,
		MinimumSafeDistance:    3,
		CoverSearchRadius:      10,
		WalkSpeed:              DefaultWalkSpeed,
		ThrustForce:            DefaultThrustForce,
		DetectionCheckInterval: DefaultDetectionCheckInterval,
		CombatExitDelay:        DefaultCombatExitDelay,
		Radius:                 DefaultBodyRadius,
		CoverMask:              LayerObstruction,
	}
}

// DefaultProjectileConfig returns the stock projectile source.
func DefaultProjectileConfig() *ProjectileConfig {
	return &ProjectileConfig{
		Speed:                DefaultProjectileSpeed,
		Lifetime:             DefaultProjectileLife,
		FireCooldown:         DefaultRangedCooldown,
		Radius:               DefaultProjectileRadius,
		DestroyOnObstruction: true,
	}
}

func (c *EnemyConfig) HasProjectile() bool {
	return c != nil && c.Projectile != nil
}

// UsesRanged reports whether the ranged engagement state applies.
func (c *EnemyConfig) UsesRanged() bool {
	return c != nil && c.IsRanged && c.Projectile != nil
}

func (c *EnemyConfig) EffectiveDamage() float64 {
	if c == nil {
		return DefaultDamage
	}
	return c.Damage
}

func (c *EnemyConfig) MeleeRange() float64 {
	if c == nil || c.AttackRange <= 0 {
		return DefaultMeleeRange
	}
	return c.AttackRange
}

// AttackCooldown is 1/AttackSpeed, or the projectile fire cooldown when no
// rate is set, floored at MinAttackCooldown.
func (c *EnemyConfig) AttackCooldown() float64 {
	var d float64
	switch {
	case c != nil && c.AttackSpeed > 0:
		d = 1 / c.AttackSpeed
	case c != nil && c.Projectile != nil && c.Projectile.FireCooldown > 0:
		d = c.Projectile.FireCooldown
	default:
		d = DefaultRangedCooldown
	}
	return math.Max(MinAttackCooldown, d)
}

// PreferredRange is the engagement distance reported to decision sources.
func (c *EnemyConfig) PreferredRange() float64 {
	if c != nil {
		if c.PreferredAttackRange > 0 {
			return c.PreferredAttackRange
		}
		if c.AttackRange > 0 {
			return c.AttackRange
		}
	}
	return DefaultPreferredRange
}

// RangedPreferredRange is the distance the ranged state tries to hold.
func (c *EnemyConfig) RangedPreferredRange() float64 {
	if c == nil || c.PreferredAttackRange <= 0 {
		return DefaultRangedPreferred
	}
	return c.PreferredAttackRange
}

func (c *EnemyConfig) MaxDetectionRange() float64 {
	if c == nil || c.DetectionRadius <= 0 {
		return DefaultDetectionRange
	}
	return c.DetectionRadius
}

// DetectionRange is the proximity radius that opens a combat window.
func (c *EnemyConfig) DetectionRange() float64 {
	if c == nil {
		return DefaultDetectionRange
	}
	return math.Max(MinDetectionRadius, c.DetectionRadius)
}

func (c *EnemyConfig) MoveSpeed() float64 {
	if c == nil || c.MovementSpeed <= 0 {
		return c.Walk()
	}
	return c.MovementSpeed
}

func (c *EnemyConfig) Walk() float64 {
	if c == nil || c.WalkSpeed <= 0 {
		return DefaultWalkSpeed
	}
	return c.WalkSpeed
}

func (c *EnemyConfig) Thrust() float64 {
	if c == nil || c.ThrustForce <= 0 {
		return DefaultThrustForce
	}
	return c.ThrustForce
}

func (c *EnemyConfig) BodyRadius() float64 {
	if c == nil || c.Radius <= 0 {
		return DefaultBodyRadius
	}
	return c.Radius
}

func (c *EnemyConfig) ObstructionMask() uint {
	if c == nil || c.CoverMask == 0 {
		return LayerObstruction
	}
	return c.CoverMask
}

// FleeFraction returns the clamped flee threshold, or 0 when fleeing is off.
func (c *EnemyConfig) FleeFraction() float64 {
	if c == nil || c.FleeHealthThreshold <= 0 {
		return 0
	}
	return clamp01(c.FleeHealthThreshold)
}

func (c *EnemyConfig) HealDelay() float64 {
	if c == nil {
		return DefaultHealDelay
	}
	return math.Max(0, c.OutOfCombatHealDelay)
}

func (c *EnemyConfig) HealRate() float64 {
	if c == nil {
		return DefaultHealPerSecond
	}
	return math.Max(0, c.HealPerSecond)
}

// HealThreshold is the hit point level healing stops at: max scaled by the
// clamped stop fraction, exactly max when the fraction is 1 or more, and max
// again when the fraction is unset.
func (c *EnemyConfig) HealThreshold(max float64) float64 {
	fraction := 1.0
	if c != nil {
		fraction = clamp01(c.HealStopFraction)
	}
	if fraction >= 1 || fraction <= 0 {
		return max
	}
	return max * fraction
}

func (c *EnemyConfig) SafeDistance() float64 {
	if c == nil || c.MinimumSafeDistance <= 0 {
		return DefaultMinSafeDistance
	}
	return c.MinimumSafeDistance
}

// FallbackFleeDistance is how far the retreat point lies from the entity
// when no cover is found.
func (c *EnemyConfig) FallbackFleeDistance() float64 {
	if c == nil {
		return DefaultMinSafeDistance
	}
	return math.Max(c.MinimumSafeDistance, 2)
}

func (c *EnemyConfig) CoverRadius() float64 {
	if c == nil {
		return DefaultCoverRadius
	}
	return math.Max(1, c.CoverSearchRadius)
}

// ProjectileSpeed returns the launch speed, floored at MinProjectileSpeed.
func (p *ProjectileConfig) ProjectileSpeed() float64 {
	if p == nil || p.Speed <= 0 {
		return DefaultProjectileSpeed
	}
	return math.Max(MinProjectileSpeed, p.Speed)
}

func (p *ProjectileConfig) ProjectileRadius() float64 {
	if p == nil || p.Radius <= 0 {
		return DefaultProjectileRadius
	}
	return p.Radius
}

// Enemy marks a hostile agent and links it to its archetype and target.
type Enemy struct {
	Config *EnemyConfig
	// Target is the protagonist handle (an ecs.Entity). Zero means none.
	Target          uint64
	LastAttackRange float64
}

var EnemyComponent = NewComponent[Enemy]()
