package system

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

// contactSkin is the gap kept between a body and the surface it stopped at.
const contactSkin = 1e-3

// Hit describes the first obstruction along a query.
type Hit struct {
	Point  cp.Vector
	Normal cp.Vector
	Alpha  float64
	Entity uint64
}

// Spatial answers obstruction queries against the static arena.
type Spatial interface {
	// LineOfSight reports whether nothing on mask blocks the segment a-b.
	LineOfSight(a, b cp.Vector, mask uint) (bool, Hit)
	// SweepCircle reports the first mask obstruction touched by a circle of
	// radius r moving from a to b.
	SweepCircle(a, b cp.Vector, r float64, mask uint) (Hit, bool)
}

// PhysicsSystem owns the Chipmunk space holding the arena geometry and
// integrates kinematic bodies against it. Only static shapes live in the
// space; combatants are moved by sweeping circles through it.
type PhysicsSystem struct {
	space  *cp.Space
	owners map[*cp.Shape]uint64
}

func NewPhysicsSystem() *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = 10
	return &PhysicsSystem{
		space:  space,
		owners: make(map[*cp.Shape]uint64),
	}
}

func (ps *PhysicsSystem) Space() *cp.Space {
	return ps.space
}

// AddWall adds an axis-aligned box on the given layer.
func (ps *PhysicsSystem) AddWall(owner uint64, bb cp.BB, layer uint) *cp.Shape {
	shape := cp.NewBox2(ps.space.StaticBody, bb, 0)
	return ps.addStatic(owner, shape, layer)
}

// AddPillar adds a round obstruction on the given layer.
func (ps *PhysicsSystem) AddPillar(owner uint64, center cp.Vector, radius float64, layer uint) *cp.Shape {
	shape := cp.NewCircle(ps.space.StaticBody, radius, center)
	return ps.addStatic(owner, shape, layer)
}

func (ps *PhysicsSystem) addStatic(owner uint64, shape *cp.Shape, layer uint) *cp.Shape {
	if layer == 0 {
		layer = component.LayerWall
	}
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, layer, cp.ALL_CATEGORIES))
	ps.space.AddShape(shape)
	ps.owners[shape] = owner
	return shape
}

// RemoveOwner drops every shape registered for owner.
func (ps *PhysicsSystem) RemoveOwner(owner uint64) int {
	removed := 0
	for shape, o := range ps.owners {
		if o != owner {
			continue
		}
		ps.space.RemoveShape(shape)
		delete(ps.owners, shape)
		removed++
	}
	return removed
}

// Shapes returns the number of static shapes.
func (ps *PhysicsSystem) Shapes() int {
	return len(ps.owners)
}

func (ps *PhysicsSystem) LineOfSight(a, b cp.Vector, mask uint) (bool, Hit) {
	if ps == nil || ps.space == nil || a.Distance(b) <= 1e-9 {
		return true, Hit{}
	}
	info := ps.space.SegmentQueryFirst(a, b, 0, queryFilter(mask))
	if info.Shape == nil {
		return true, Hit{}
	}
	return false, ps.hit(info)
}

func (ps *PhysicsSystem) SweepCircle(a, b cp.Vector, r float64, mask uint) (Hit, bool) {
	if ps == nil || ps.space == nil || a.Distance(b) <= 1e-9 {
		return Hit{}, false
	}
	info := ps.space.SegmentQueryFirst(a, b, math.Max(0, r), queryFilter(mask))
	if info.Shape == nil {
		return Hit{}, false
	}
	return ps.hit(info), true
}

func (ps *PhysicsSystem) hit(info cp.SegmentQueryInfo) Hit {
	return Hit{
		Point:  info.Point,
		Normal: info.Normal,
		Alpha:  info.Alpha,
		Entity: ps.owners[info.Shape],
	}
}

func queryFilter(mask uint) cp.ShapeFilter {
	if mask == 0 {
		mask = component.LayerObstruction
	}
	return cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, mask)
}

// Update integrates velocity and move-to goals of every built-in body.
func (ps *PhysicsSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	dt := w.Delta()
	ecs.ForEach2(w, component.BodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.Body, transform *component.Transform) {
		if m, ok := ecs.Get(w, e, component.MovementComponent.Kind()); ok && m.Mover != nil {
			return
		}
		ctrl := &KinematicController{world: w, entity: e, body: body, transform: transform, spatial: ps}
		switch {
		case body.HasGoal:
			ctrl.stepToGoal(dt)
		case body.Velocity.LengthSq() > 1e-12:
			ctrl.displace(body.Velocity.Mult(dt))
		}
		body.Moved = false
	})
}
