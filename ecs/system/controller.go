package system

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/ecs/component"
)

// KinematicController implements component.Mover for entities with a Body
// by sweeping their circle through the spatial facade. Blocked moves slide
// along the surface and leave a Contact on the body.
type KinematicController struct {
	world     *ecs.World
	entity    ecs.Entity
	body      *component.Body
	transform *component.Transform
	spatial   Spatial
}

var _ component.Mover = (*KinematicController)(nil)

// MoverFor returns the movement capability of e: a host supplied Mover when
// one is attached, otherwise the built-in controller, or nil when e cannot
// move at all.
func MoverFor(w *ecs.World, e ecs.Entity, spatial Spatial) component.Mover {
	if m, ok := ecs.Get(w, e, component.MovementComponent.Kind()); ok && m.Mover != nil {
		return m.Mover
	}
	body, ok := ecs.Get(w, e, component.BodyComponent.Kind())
	if !ok {
		return nil
	}
	transform, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return nil
	}
	return &KinematicController{world: w, entity: e, body: body, transform: transform, spatial: spatial}
}

func (c *KinematicController) MovePosition(dir cp.Vector, speed float64) bool {
	if dir.LengthSq() <= 1e-12 || !(speed > 0) {
		return false
	}
	return c.displace(dir.Normalize().Mult(speed * c.world.Delta()))
}

func (c *KinematicController) MoveTo(point cp.Vector) {
	c.body.Goal = point
	c.body.HasGoal = true
	c.body.Velocity = cp.Vector{}
}

func (c *KinematicController) SetVelocity(v cp.Vector) {
	c.body.Velocity = v
	c.body.HasGoal = false
}

func (c *KinematicController) Stop() {
	c.body.Velocity = cp.Vector{}
	c.body.HasGoal = false
}

func (c *KinematicController) IsMoving() bool {
	return c.body.Moved || c.body.HasGoal || c.body.Velocity.LengthSq() > 1e-12
}

func (c *KinematicController) stepToGoal(dt float64) {
	pos := c.transform.Position()
	toGoal := c.body.Goal.Sub(pos)
	dist := toGoal.Length()
	speed := c.body.Speed
	if speed <= 0 {
		speed = component.DefaultWalkSpeed
	}
	step := speed * dt
	if dist <= step {
		c.displace(toGoal)
		c.body.HasGoal = false
		return
	}
	c.displace(toGoal.Mult(step / dist))
}

// displace moves the body by delta and reports whether it was blocked.
func (c *KinematicController) displace(delta cp.Vector) bool {
	length := delta.Length()
	if length <= 1e-9 {
		return false
	}
	from := c.transform.Position()
	to := from.Add(delta)
	if c.spatial == nil {
		c.transform.SetPosition(to)
		c.body.Moved = true
		return false
	}

	radius := c.body.Radius
	mask := c.body.Mask
	hit, blocked := c.spatial.SweepCircle(from, to, radius, mask)
	if !blocked {
		c.transform.SetPosition(to)
		c.body.Moved = true
		return false
	}

	travel := math.Max(0, hit.Alpha*length-contactSkin)
	pos := from.Add(delta.Mult(travel / length))

	rest := delta.Mult(1 - hit.Alpha)
	slide := rest.Sub(hit.Normal.Mult(rest.Dot(hit.Normal)))
	if slide.LengthSq() > 1e-12 {
		if h, b := c.spatial.SweepCircle(pos, pos.Add(slide), radius, mask); !b {
			pos = pos.Add(slide)
		} else {
			pos = pos.Add(slide.Mult(math.Max(0, h.Alpha-contactSkin)))
		}
	}

	c.body.Moved = pos.DistanceSq(from) > 1e-12
	c.transform.SetPosition(pos)
	c.body.Contacts = append(c.body.Contacts, component.Contact{
		Point:  hit.Point,
		Normal: hit.Normal,
		Entity: hit.Entity,
	})
	return true
}
