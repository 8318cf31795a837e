package component

import "github.com/jakecoffman/cp"

// Mover is the movement capability behavior code drives. Implementations
// are collision aware; callers only see the blocked result of MovePosition.
type Mover interface {
	// MovePosition displaces the entity along dir at speed for one tick and
	// reports whether the move was blocked.
	MovePosition(dir cp.Vector, speed float64) bool
	MoveTo(point cp.Vector)
	SetVelocity(v cp.Vector)
	Stop()
	IsMoving() bool
}

// Movement lets a host attach its own Mover. Entities without it use the
// built-in kinematic controller.
type Movement struct {
	Mover Mover
}

var MovementComponent = NewComponent[Movement]()
