package ecs

import (
	"math/rand"

	"github.com/milk9111/arena/ecs/component"
)

// System updates a world each tick.
type System interface {
	Update(w *World)
}

// World owns entities, their component stores and the system order. It is not
// safe for concurrent use; hosts that serve several clients give each one its
// own World.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	systems  []System
	events   EventQueue

	dt   float64
	time float64
	tick uint64
	rng  *rand.Rand
}

// NewWorld creates an empty world with a fixed default seed.
func NewWorld() *World {
	return &World{
		stores: make(map[component.ComponentID]*SparseSet),
		rng:    rand.New(rand.NewSource(1)),
	}
}

// Seed replaces the world random source.
func (w *World) Seed(seed int64) {
	if w == nil {
		return
	}
	w.rng = rand.New(rand.NewSource(seed))
}

// AddSystem appends a system to the update order.
func (w *World) AddSystem(s System) {
	if w == nil || s == nil {
		return
	}
	w.systems = append(w.systems, s)
}

// Systems returns a copy of the update order.
func (w *World) Systems() []System {
	if w == nil {
		return nil
	}
	return append([]System(nil), w.systems...)
}

// Update advances the world by dt seconds. Events raised during the previous
// tick are dropped first, so hosts read them between calls.
func (w *World) Update(dt float64) {
	if w == nil {
		return
	}
	if dt < 0 {
		dt = 0
	}
	w.events.flush()
	w.dt = dt
	for _, s := range w.systems {
		if s != nil {
			s.Update(w)
		}
	}
	w.time += dt
	w.tick++
}

// Delta returns the step of the tick in progress.
func (w *World) Delta() float64 {
	if w == nil {
		return 0
	}
	return w.dt
}

// Time returns simulated seconds elapsed before the current tick.
func (w *World) Time() float64 {
	if w == nil {
		return 0
	}
	return w.time
}

// Tick returns the number of completed updates.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Rand returns the world random source.
func (w *World) Rand() *rand.Rand {
	if w == nil {
		return nil
	}
	return w.rng
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	if w == nil {
		return nil
	}
	if s, ok := w.stores[id]; ok {
		return s
	}
	if !create {
		return nil
	}
	if w.stores == nil {
		w.stores = make(map[component.ComponentID]*SparseSet)
	}
	s := &SparseSet{}
	w.stores[id] = s
	return s
}
