package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/model"
)

// Event types.
const (
	TypeSceneEscalated = "SceneEscalated"
)

// Event is the interface that all domain events must implement.
type Event interface {
	// EventID returns the unique identifier for this event instance.
	EventID() uuid.UUID

	// EventType returns the type name of the event (e.g., "SceneEscalated").
	EventType() string

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the project that produced this event.
	AggregateID() uuid.UUID
}

// BaseEvent provides a base implementation of the Event interface.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ProjectID uuid.UUID `json:"project_id"`
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) OccurredAt() time.Time  { return e.Timestamp }
func (e BaseEvent) AggregateID() uuid.UUID { return e.ProjectID }

// NewBaseEvent creates a new BaseEvent with a fresh id.
func NewBaseEvent(eventType string, projectID uuid.UUID) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		ProjectID: projectID,
	}
}

// SceneEscalated carries a scene that exhausted its attempt budget.
type SceneEscalated struct {
	BaseEvent
	Escalation *model.EscalationEvent `json:"escalation"`
}

// NewSceneEscalated wraps an escalation, reusing its id and timestamp.
func NewSceneEscalated(e *model.EscalationEvent) *SceneEscalated {
	base := NewBaseEvent(TypeSceneEscalated, e.ProjectID)
	if e.ID != uuid.Nil {
		base.ID = e.ID
	}
	if !e.OccurredAt.IsZero() {
		base.Timestamp = e.OccurredAt
	}
	return &SceneEscalated{BaseEvent: base, Escalation: e}
}
