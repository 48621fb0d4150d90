package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// DefaultEscalationTopic receives scenes that need human review.
const DefaultEscalationTopic = "reelforge.scene.escalated"

// EscalationPublisher implements EscalationPublisherPort. Events are keyed by
// project so a project's escalations stay ordered on one partition.
type EscalationPublisher struct {
	messages outbound.MessagePort
	topic    string
}

// NewEscalationPublisher creates a publisher on topic.
func NewEscalationPublisher(messages outbound.MessagePort, topic string) *EscalationPublisher {
	if topic == "" {
		topic = DefaultEscalationTopic
	}
	return &EscalationPublisher{messages: messages, topic: topic}
}

func (p *EscalationPublisher) PublishEscalation(ctx context.Context, event *model.EscalationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}
	return p.messages.Publish(ctx, p.topic, event.ProjectID.String(), data)
}

// Compile-time interface check
var _ outbound.EscalationPublisherPort = (*EscalationPublisher)(nil)
