package ecs

// EventKind identifies world events.
type EventKind string

const (
	EventStateChanged  EventKind = "state_changed"
	EventEntityDied    EventKind = "entity_died"
	EventProjectileHit EventKind = "projectile_hit"
	EventEpisodeEnded  EventKind = "episode_ended"
)

// Event is a world event payload. Data carries kind-specific detail.
type Event struct {
	Kind   EventKind
	Entity Entity
	Data   any
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
