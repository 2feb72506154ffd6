package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// Generation progress actions published while a plan request runs.
const (
	ActionPlanStarted   = "plan.started"
	ActionPlanPhase     = "plan.phase"
	ActionPlanDelta     = "plan.delta"
	ActionPlanCompleted = "plan.completed"
	ActionPlanFailed    = "plan.failed"
)

// PlanEvent is the payload for all plan.* actions. Phase is "workout"
// or "diet"; Text carries the streamed fragment for plan.delta and the
// failure description for plan.failed.
type PlanEvent struct {
	JobID string `json:"jobId"`
	Phase string `json:"phase,omitempty"`
	Text  string `json:"text,omitempty"`
}

// NewPlanEventMessage encodes a plan progress event for the wire.
func NewPlanEventMessage(action string, event PlanEvent) []byte {
	data, _ := json.Marshal(Message{Action: action, Payload: event})
	return data
}

// NewErrorMessage encodes an error notification for the wire.
func NewErrorMessage(msg string) []byte {
	data, _ := json.Marshal(Message{Action: "error", Payload: msg})
	return data
}

// NewPongMessage encodes the reply to a client-level ping.
func NewPongMessage() []byte {
	data, _ := json.Marshal(Message{Action: "pong"})
	return data
}
