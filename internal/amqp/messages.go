package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"remont/internal/ports"
)

// EventMessage is the wire form of a domain event. It carries only ids; the
// consumer reloads current state from the database.
type EventMessage struct {
	Type      ports.EventType `json:"type"`
	ProjectID string          `json:"project_id"`
	EntityID  string          `json:"entity_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEventMessage wraps an event, stamping it with the current time when
// the event has no time of its own.
func NewEventMessage(ev ports.Event) *EventMessage {
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &EventMessage{
		Type:      ev.Type,
		ProjectID: ev.ProjectID,
		EntityID:  ev.EntityID,
		Timestamp: ts,
	}
}

// Event converts the message back to a domain event.
func (m *EventMessage) Event() ports.Event {
	return ports.Event{Type: m.Type, ProjectID: m.ProjectID, EntityID: m.EntityID, OccurredAt: m.Timestamp}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes a message and checks required fields.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" || msg.ProjectID == "" {
		return nil, fmt.Errorf("event message missing type or project_id")
	}
	return &msg, nil
}
