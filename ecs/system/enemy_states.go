package system

import "github.com/milk9111/arena/ecs/component"

// stateHandler is one row of the dispatch table. Every callback is set;
// states with nothing to do use the noop variants.
type stateHandler struct {
	enter   func(ctx *enemyContext)
	update  func(ctx *enemyContext)
	physics func(ctx *enemyContext)
	collide func(ctx *enemyContext, c component.Contact)
}

var stateTable [component.BehaviorStateCount]stateHandler

func init() {
	stateTable = [component.BehaviorStateCount]stateHandler{
		component.StateIdle:    {enter: idleEnter, update: idleUpdate, physics: noopPhysics, collide: noopCollide},
		component.StateWalk:    {enter: walkEnter, update: walkUpdate, physics: walkPhysics, collide: walkCollide},
		component.StateKnocked: {enter: knockEnter, update: knockUpdate, physics: knockPhysics, collide: knockCollide},
		component.StateRanged:  {enter: rangedEnter, update: rangedUpdate, physics: noopPhysics, collide: noopCollide},
		component.StateHeal:    {enter: healEnter, update: healUpdate, physics: noopPhysics, collide: noopCollide},
		component.StateFlee:    {enter: fleeEnter, update: fleeUpdate, physics: fleePhysics, collide: noopCollide},
	}
}

func noopPhysics(*enemyContext) {}

func noopCollide(*enemyContext, component.Contact) {}
