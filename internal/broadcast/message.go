// Package broadcast streams live round state to WebSocket clients and
// accepts player intents from them.
package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/extremebounce/arena/pkg/core"
)

// Message is the wire envelope. Exactly one payload field is set,
// matching Type.
type Message struct {
	Type string `json:"type"`

	Snapshot *core.Snapshot     `json:"snapshot,omitempty"`
	Event    *core.RoundEvent   `json:"event,omitempty"`
	Outcome  *core.RoundOutcome `json:"outcome,omitempty"`
	Phase    string             `json:"phase,omitempty"`
	Intent   *IntentMessage     `json:"intent,omitempty"`
}

// IntentMessage is a client's input for one entity.
type IntentMessage struct {
	Entity core.EntityID `json:"entity"`
	MoveX  float64       `json:"moveX"`
	Bounce bool          `json:"bounce"`
}

// Intent converts the wire form to the simulation's intent type.
func (m *IntentMessage) Intent() core.Intent {
	return core.Intent{
		MoveDir:     core.Vec2{X: m.MoveX},
		WantsBounce: m.Bounce,
	}
}

// SnapshotMessage wraps a snapshot for broadcast.
func SnapshotMessage(snap core.Snapshot) Message {
	return Message{Type: "snapshot", Snapshot: &snap}
}

// EventMessage wraps a round event for broadcast.
func EventMessage(ev core.RoundEvent) Message {
	return Message{Type: "event", Event: &ev}
}

// OutcomeMessage wraps a final outcome for broadcast.
func OutcomeMessage(outcome *core.RoundOutcome) Message {
	return Message{Type: "outcome", Outcome: outcome}
}

// PhaseMessage announces a phase change.
func PhaseMessage(phase core.Phase) Message {
	return Message{Type: "phase", Phase: phase.String()}
}

// Encode serializes a message for the wire.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode parses a wire message and validates its envelope.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("message missing type")
	}
	if msg.Type == "intent" && msg.Intent == nil {
		return Message{}, fmt.Errorf("intent message missing payload")
	}
	return msg, nil
}
