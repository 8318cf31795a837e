package component

import "github.com/jakecoffman/cp"

// BehaviorState is the active behavior of a hostile agent.
type BehaviorState uint8

const (
	StateIdle BehaviorState = iota
	StateWalk
	StateKnocked
	StateRanged
	StateHeal
	StateFlee

	BehaviorStateCount
)

var behaviorStateNames = [BehaviorStateCount]string{
	StateIdle:    "idle",
	StateWalk:    "walk",
	StateKnocked: "knocked",
	StateRanged:  "ranged",
	StateHeal:    "heal",
	StateFlee:    "flee",
}

func (s BehaviorState) String() string {
	if s < BehaviorStateCount {
		return behaviorStateNames[s]
	}
	return "unknown"
}

// ParseBehaviorState maps a state name back to its value.
func ParseBehaviorState(name string) (BehaviorState, bool) {
	for i, n := range behaviorStateNames {
		if n == name {
			return BehaviorState(i), true
		}
	}
	return StateIdle, false
}

type WalkRuntime struct {
	Direction cp.Vector
	Duration  float64
	Elapsed   float64
	Bumped    bool
}

type IdleRuntime struct {
	Remaining float64
}

type KnockRuntime struct {
	Remaining float64
	Velocity  cp.Vector
}

type RangedRuntime struct {
	Target    uint64
	Reacquire float64
}

// FleeTarget is the point a fleeing entity runs to. Cover is set when the
// point came from the cover search rather than the straight retreat.
type FleeTarget struct {
	Point      cp.Vector
	Valid      bool
	Cover      bool
	SelectedAt float64
}

type FleeRuntime struct {
	Target   FleeTarget
	Duration float64
	Timeout  float64
	Timer    float64
	Repath   float64
}

type HealRuntime struct {
	Delay      float64
	DelayTimer float64
	PerSecond  float64
	Threshold  float64
	CanHeal    bool
}

// Brain holds the behavior state of one entity plus the runtime of every
// state. Only the active state's runtime is meaningful.
type Brain struct {
	State     BehaviorState
	Previous  BehaviorState
	StateTime float64
	Facing    cp.Vector
	HitDir    cp.Vector

	Walk   WalkRuntime
	Idle   IdleRuntime
	Knock  KnockRuntime
	Ranged RangedRuntime
	Flee   FleeRuntime
	Heal   HealRuntime

	// Observed is set once the ledger observers are attached.
	Observed bool
}

var BrainComponent = NewComponent[Brain]()
