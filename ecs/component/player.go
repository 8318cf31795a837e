package component

import "github.com/jakecoffman/cp"

const (
	DefaultSwordDamage   = 5.0
	DefaultSwordReach    = 1.2
	DefaultSwingDuration = 0.33
	DefaultPlayerSpeed   = 4.0
	DefaultPlayerHealth  = 50.0
)

// Player holds the protagonist's sword and swing state.
type Player struct {
	Speed         float64
	SwordDamage   float64
	SwordReach    float64
	SwingDuration float64

	Facing    cp.Vector
	Swinging  float64
	SwingDone bool
}

var PlayerComponent = NewComponent[Player]()

// PlayerBot drives the protagonist without a human: it wanders until an
// enemy is near, then closes in and swings.
type PlayerBot struct {
	Direction  cp.Vector
	Remaining  float64
	EngageDist float64
	Passive    bool
}

var PlayerBotComponent = NewComponent[PlayerBot]()

// PlayerInput is the per-tick command a host writes for the protagonist.
type PlayerInput struct {
	Move  cp.Vector
	Swing bool
}

var PlayerInputComponent = NewComponent[PlayerInput]()
