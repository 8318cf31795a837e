package component

// MinCooldown is the shortest duration Begin will arm.
const MinCooldown = 0.001

// timerEpsilon absorbs the rounding left over from summing frame deltas, so a
// timer armed for d has elapsed once the ticked total reaches d.
const timerEpsilon = 1e-9

// Cooldown is the per-entity attack cooldown, counted in seconds.
type Cooldown struct {
	Duration  float64
	Remaining float64
}

var CooldownComponent = NewComponent[Cooldown]()

func (c *Cooldown) Tick(dt float64) {
	if c == nil {
		return
	}
	if c.Remaining <= 0 || !(dt > 0) {
		if c.Remaining < 0 {
			c.Remaining = 0
		}
		return
	}
	c.Remaining -= dt
	if c.Remaining <= timerEpsilon {
		c.Remaining = 0
	}
}

func (c *Cooldown) Begin(duration float64) {
	if c == nil {
		return
	}
	if !(duration > MinCooldown) {
		duration = MinCooldown
	}
	c.Duration = duration
	c.Remaining = duration
}

func (c *Cooldown) CanAttack() bool {
	return c == nil || c.Remaining <= 0
}

// Normalized returns Remaining/Duration in [0,1]. Only observations use it.
func (c *Cooldown) Normalized() float64 {
	if c == nil || c.Duration <= 0 {
		return 0
	}
	return clamp01(c.Remaining / c.Duration)
}
