package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/port/outbound"
)

// Handler is the interface for event handlers.
type Handler interface {
	// Handles returns the list of event types this handler can process.
	Handles() []string

	// Handle processes the given event.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	eventTypes []string
	fn         func(context.Context, Event) error
}

// NewHandlerFunc creates a new HandlerFunc.
func NewHandlerFunc(eventTypes []string, fn func(context.Context, Event) error) *HandlerFunc {
	return &HandlerFunc{
		eventTypes: eventTypes,
		fn:         fn,
	}
}

func (h *HandlerFunc) Handles() []string {
	return h.eventTypes
}

func (h *HandlerFunc) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}

// ForwardEscalations hands SceneEscalated events to an external publisher.
func ForwardEscalations(publisher outbound.EscalationPublisherPort) Handler {
	return NewHandlerFunc([]string{TypeSceneEscalated}, func(ctx context.Context, e Event) error {
		ev, ok := e.(*SceneEscalated)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		return publisher.PublishEscalation(ctx, ev.Escalation)
	})
}

// LogEscalations writes one line per escalated scene.
func LogEscalations(logger *zap.Logger) Handler {
	return NewHandlerFunc([]string{TypeSceneEscalated}, func(_ context.Context, e Event) error {
		ev, ok := e.(*SceneEscalated)
		if !ok {
			return fmt.Errorf("unexpected event %T", e)
		}
		logger.Warn("scene escalated for review",
			zap.String("project_id", ev.Escalation.ProjectID.String()),
			zap.String("scene_id", ev.Escalation.SceneID),
			zap.Int("scene_index", ev.Escalation.SceneIndex),
			zap.String("reason", ev.Escalation.Reason),
			zap.Int("attempts", len(ev.Escalation.Attempts)),
		)
		return nil
	})
}
