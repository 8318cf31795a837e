package component

import "math"

// ObservationSize is the length of the observation vector.
const ObservationSize = 8

// Observation is, in order: hp fraction, relative x, relative y, distance,
// in-combat flag, cooldown fraction, preferred range, nearby allies. Every
// entry is normalized.
type Observation [ObservationSize]float64

// Action is a discrete decision.
type Action int

const (
	ActionHold Action = iota
	ActionToward
	ActionAway
	ActionAttack
	ActionHeal

	ActionCount
)

func (a Action) Valid() bool {
	return a >= 0 && a < ActionCount
}

func (a Action) String() string {
	switch a {
	case ActionHold:
		return "hold"
	case ActionToward:
		return "toward"
	case ActionAway:
		return "away"
	case ActionAttack:
		return "attack"
	case ActionHeal:
		return "heal"
	default:
		return "invalid"
	}
}

// Policy picks an action from an observation.
type Policy interface {
	Decide(obs Observation) Action
}

// AgentMode selects who drives the entity.
type AgentMode uint8

const (
	// AgentControl lets decisions drive movement and attacks; the state
	// machine only runs while knocked back.
	AgentControl AgentMode = iota
	// AgentObserve leaves the state machine in charge and only scores it.
	AgentObserve
)

func (m AgentMode) String() string {
	if m == AgentObserve {
		return "observe"
	}
	return "control"
}

// RewardConfig holds the observation constants and shaping weights.
type RewardConfig struct {
	MaxRangeNormalization float64
	AllyRadius            float64
	MaxAllies             int

	SurvivalReward         float64
	DistancePenaltyScale   float64
	ApproachProgressReward float64
	ApproachThreshold      float64
	IdealRangeReward       float64
	IdealRangeTolerance    float64
	AttackFailPenalty      float64
	DamagePenaltyScale     float64
	RangedTooClosePenalty  float64
	DamageRewardScale      float64
	MeleeGoalReward        float64
	RangedGoalReward       float64
	KillReward             float64
	DeathPenalty           float64
	MeleeTouchRadius       float64
	HealPerAction          float64
	MinSafeDistance        float64
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		MaxRangeNormalization: 10,
		AllyRadius:            6,
		MaxAllies:             5,

		SurvivalReward:         0.001,
		DistancePenaltyScale:   0.002,
		ApproachProgressReward: 0.01,
		ApproachThreshold:      0.1,
		IdealRangeReward:       0.002,
		IdealRangeTolerance:    0.5,
		AttackFailPenalty:      -0.005,
		DamagePenaltyScale:     0.1,
		RangedTooClosePenalty:  -0.002,
		DamageRewardScale:      0.1,
		MeleeGoalReward:        0.5,
		RangedGoalReward:       0.5,
		KillReward:             1,
		DeathPenalty:           -1,
		MeleeTouchRadius:       0.75,
		HealPerAction:          3,
		MinSafeDistance:        1.5,
	}
}

// StepResult is what a decision source learns after one decision period.
// Episode counts the episodes finished so far.
type StepResult struct {
	Observation Observation `json:"observation"`
	Action      Action      `json:"action"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	Truncated   bool        `json:"truncated"`
	Episode     int         `json:"episode"`
	EpisodeID   string      `json:"episode_id"`
	Steps       int         `json:"steps"`
}

// Agent is the reward accumulator and decision bookkeeping of one entity.
// A nil Policy means decisions come from outside the world.
type Agent struct {
	Mode             AgentMode
	Policy           Policy
	Rewards          RewardConfig
	DecisionInterval int

	Reward        float64
	Done          bool
	Truncated     bool
	Episode       int
	EpisodeID     string
	Steps         int
	EpisodeReturn float64
	PrevDistance  float64
	LastAction    Action
	Acting        bool
	SinceDecision int

	// Pending is an action queued from outside for the next tick.
	Pending    Action
	HasPending bool

	OnStep func(StepResult)
	Last   StepResult

	// Observed is set once the reward observers are attached.
	Observed bool
}

var AgentComponent = NewComponent[Agent]()

func NewAgent(mode AgentMode, policy Policy, rewards RewardConfig) *Agent {
	return &Agent{
		Mode:             mode,
		Policy:           policy,
		Rewards:          rewards,
		DecisionInterval: 1,
		PrevDistance:     math.Inf(1),
	}
}

// AddReward folds r into the current decision period. Rewards arriving
// after the episode ended in this period are dropped.
func (a *Agent) AddReward(r float64) bool {
	if a == nil || a.Done || r == 0 || math.IsNaN(r) {
		return false
	}
	a.Reward += r
	a.EpisodeReturn += r
	return true
}

// Controls reports whether decisions steer the entity.
func (a *Agent) Controls() bool {
	return a != nil && a.Mode == AgentControl
}
