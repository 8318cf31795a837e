package component

import (
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/logger"
)

// HealthObserver receives ledger events. Any callback may be nil.
type HealthObserver struct {
	Name      string
	OnDamaged func(amount float64)
	OnHealed  func(amount float64)
	OnDeath   func()
}

// ObserverHandle identifies a subscription for Unsubscribe.
type ObserverHandle int

type healthSubscription struct {
	handle   ObserverHandle
	observer HealthObserver
}

// Health is the hit point ledger shared by every combatant. Current stays in
// [0, Max] and all mutation goes through the methods below.
type Health struct {
	Max     float64
	Current float64

	// Owner is the entity handle used in fault logs.
	Owner uint64

	subs       []healthSubscription
	nextHandle ObserverHandle
}

var HealthComponent = NewComponent[Health]()

// NewHealth returns a full ledger. A non-positive max falls back to 1.
func NewHealth(max float64) *Health {
	h := &Health{}
	h.Initialize(max)
	return h
}

// Initialize sets Max and fills Current. Observers are kept.
func (h *Health) Initialize(max float64) {
	if !(max > 0) {
		max = 1
	}
	h.Max = max
	h.Current = max
}

func (h *Health) IsAlive() bool {
	return h != nil && h.Current > 0
}

// Fraction returns Current/Max in [0,1], or 0 when Max is unset.
func (h *Health) Fraction() float64 {
	if h == nil || h.Max <= 0 {
		return 0
	}
	return clamp01(h.Current / h.Max)
}

// Subscribe registers an observer. Delivery follows registration order.
func (h *Health) Subscribe(o HealthObserver) ObserverHandle {
	h.nextHandle++
	h.subs = append(h.subs, healthSubscription{handle: h.nextHandle, observer: o})
	return h.nextHandle
}

func (h *Health) Unsubscribe(handle ObserverHandle) bool {
	for i, s := range h.subs {
		if s.handle == handle {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Observers returns the number of live subscriptions.
func (h *Health) Observers() int {
	return len(h.subs)
}

// TakeDamage subtracts up to Current and returns the amount applied. Damage
// on a dead ledger, or a non-positive amount, does nothing.
func (h *Health) TakeDamage(amount float64) float64 {
	if h == nil || !(amount > 0) || !h.IsAlive() {
		return 0
	}
	applied := amount
	if applied > h.Current {
		applied = h.Current
	}
	h.Current -= applied
	if h.Current < 0 {
		h.Current = 0
	}

	h.emit("damaged", func(o HealthObserver) {
		if o.OnDamaged != nil {
			o.OnDamaged(applied)
		}
	})
	if h.Current == 0 {
		h.emitDeath()
	}
	return applied
}

// Heal adds up to Max-Current and returns the amount healed. Dead ledgers
// stay dead; use RestoreToFull to revive.
func (h *Health) Heal(amount float64) float64 {
	if h == nil || !(amount > 0) || !h.IsAlive() {
		return 0
	}
	healed := h.Max - h.Current
	if amount < healed {
		healed = amount
	}
	if healed <= 0 {
		return 0
	}
	h.Current += healed
	if h.Current > h.Max {
		h.Current = h.Max
	}

	h.emit("healed", func(o HealthObserver) {
		if o.OnHealed != nil {
			o.OnHealed(healed)
		}
	})
	return healed
}

// Kill forces Current to 0. Death is raised only on the alive-to-dead edge.
func (h *Health) Kill() {
	if h == nil {
		return
	}
	wasAlive := h.IsAlive()
	h.Current = 0
	if wasAlive {
		h.emitDeath()
	}
}

// RestoreToFull sets Current to Max without raising events.
func (h *Health) RestoreToFull() {
	if h == nil {
		return
	}
	h.Current = h.Max
}

func (h *Health) emitDeath() {
	h.emit("death", func(o HealthObserver) {
		if o.OnDeath != nil {
			o.OnDeath()
		}
	})
}

// emit walks a copy of the subscriber list so observers may unsubscribe
// while being notified.
func (h *Health) emit(event string, call func(HealthObserver)) {
	subs := append([]healthSubscription(nil), h.subs...)
	for _, s := range subs {
		h.deliver(event, s.observer, call)
	}
}

func (h *Health) deliver(event string, o HealthObserver, call func(HealthObserver)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(logrus.Fields{
				"component": "health",
				"entity":    h.Owner,
				"event":     event,
				"observer":  o.Name,
				"panic":     r,
			}).Warn("health observer failed")
		}
	}()
	call(o)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
