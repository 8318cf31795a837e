package component

const (
	DefaultCombatExitDelay        = 5.0
	MinCombatExitDelay            = 0.1
	DefaultDetectionCheckInterval = 0.25
	MinDetectionCheckInterval     = 0.05
)

// Awareness tracks the combat window. BeginWindow overwrites Remaining, so
// only the latest call is ever counting down.
type Awareness struct {
	InCombat  bool
	Remaining float64
	Timeout   float64

	DetectionInterval float64
	DetectionTimer    float64
}

var AwarenessComponent = NewComponent[Awareness]()

func NewAwareness(timeout, detectionInterval float64) *Awareness {
	return &Awareness{Timeout: timeout, DetectionInterval: detectionInterval}
}

func (a *Awareness) window() float64 {
	if a.Timeout <= 0 {
		return DefaultCombatExitDelay
	}
	if a.Timeout < MinCombatExitDelay {
		return MinCombatExitDelay
	}
	return a.Timeout
}

// BeginWindow marks the entity in combat for a full window.
func (a *Awareness) BeginWindow() {
	if a == nil {
		return
	}
	a.InCombat = true
	a.Remaining = a.window()
}

// Tick counts the window down. InCombat drops once Remaining reaches zero.
func (a *Awareness) Tick(dt float64) {
	if a == nil || !a.InCombat || !(dt > 0) {
		return
	}
	a.Remaining -= dt
	if a.Remaining <= timerEpsilon {
		a.Remaining = 0
		a.InCombat = false
	}
}

// Clear ends the window immediately.
func (a *Awareness) Clear() {
	if a == nil {
		return
	}
	a.InCombat = false
	a.Remaining = 0
}

// DetectionDue advances the detection timer and reports whether a proximity
// check should run this tick.
func (a *Awareness) DetectionDue(dt float64) bool {
	if a == nil {
		return false
	}
	if dt > 0 {
		a.DetectionTimer -= dt
	}
	if a.DetectionTimer > 0 {
		return false
	}
	interval := a.DetectionInterval
	if interval <= 0 {
		interval = DefaultDetectionCheckInterval
	}
	if interval < MinDetectionCheckInterval {
		interval = MinDetectionCheckInterval
	}
	a.DetectionTimer = interval
	return true
}
