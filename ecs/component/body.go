package component

import "github.com/jakecoffman/cp"

// Contact is one collision reported by the movement controller.
type Contact struct {
	Point  cp.Vector
	Normal cp.Vector
	// Entity is the handle of what was hit, zero for anonymous geometry.
	Entity uint64
}

// Body is the kinematic state driven through the Mover contract. Radius is
// the collision circle; Mask lists the layers that block it.
type Body struct {
	Radius float64
	Speed  float64
	Mask   uint

	Velocity cp.Vector
	Goal     cp.Vector
	HasGoal  bool
	Moved    bool

	Contacts []Contact
}

var BodyComponent = NewComponent[Body]()

// TakeContacts returns and clears the pending contacts.
func (b *Body) TakeContacts() []Contact {
	if b == nil || len(b.Contacts) == 0 {
		return nil
	}
	out := b.Contacts
	b.Contacts = nil
	return out
}
