package component

type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()

type EnemyTag struct{}

var EnemyTagComponent = NewComponent[EnemyTag]()

type WallTag struct{}

var WallTagComponent = NewComponent[WallTag]()

// Faction separates the two sides of a fight.
type Faction uint8

const (
	FactionNone Faction = iota
	FactionPlayer
	FactionEnemy
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionEnemy:
		return "enemy"
	default:
		return "none"
	}
}

type Team struct {
	Faction Faction
}

var TeamComponent = NewComponent[Team]()
