package component

// TTL marks an entity for removal after Remaining seconds. Entities carrying
// it are treated as already leaving the arena.
type TTL struct {
	Remaining float64
}

var TTLComponent = NewComponent[TTL]()

// DefaultCorpseTTL is how long a dead enemy stays before removal.
const DefaultCorpseTTL = 1.0
