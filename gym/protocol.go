package gym

import "github.com/milk9111/arena/ecs/component"

// Message types exchanged over the websocket.
const (
	TypeHello = "hello"
	TypeReset = "reset"
	TypeStep  = "step"
	TypeError = "error"
	TypeClose = "close"
)

type clientMessage struct {
	Type   string            `json:"type"`
	Action *component.Action `json:"action,omitempty"`
}

type serverMessage struct {
	Type    string                `json:"type"`
	Session string                `json:"session"`
	Result  *component.StepResult `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
	// Actions is the size of the discrete action space, sent in the hello.
	Actions int `json:"actions,omitempty"`
	// ObservationSize is the observation length, sent in the hello.
	ObservationSize int `json:"observation_size,omitempty"`
}
