package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uniedit/reelforge/internal/model"
)

type MockEscalationPublisher struct {
	mock.Mock
}

func (m *MockEscalationPublisher) PublishEscalation(ctx context.Context, event *model.EscalationEvent) error {
	return m.Called(ctx, event).Error(0)
}

func escalation() *model.EscalationEvent {
	return &model.EscalationEvent{
		ID:         uuid.New(),
		ProjectID:  uuid.New(),
		SceneID:    "s2",
		SceneIndex: 1,
		Reason:     "attempt budget exhausted",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewSceneEscalated(t *testing.T) {
	e := escalation()
	ev := NewSceneEscalated(e)

	assert.Equal(t, TypeSceneEscalated, ev.EventType())
	assert.Equal(t, e.ID, ev.EventID())
	assert.Equal(t, e.ProjectID, ev.AggregateID())
	assert.Equal(t, e.OccurredAt, ev.OccurredAt())

	t.Run("fills missing id and time", func(t *testing.T) {
		ev := NewSceneEscalated(&model.EscalationEvent{ProjectID: uuid.New()})
		assert.NotEqual(t, uuid.Nil, ev.EventID())
		assert.False(t, ev.OccurredAt().IsZero())
	})
}

func TestBus_PublishEscalation(t *testing.T) {
	t.Run("forwards to publisher", func(t *testing.T) {
		e := escalation()
		pub := new(MockEscalationPublisher)
		pub.On("PublishEscalation", mock.Anything, e).Return(nil)

		bus := NewBus(nil)
		bus.Register(ForwardEscalations(pub))

		require.NoError(t, bus.PublishEscalation(context.Background(), e))
		pub.AssertExpectations(t)
	})

	t.Run("failing handler does not stop the rest", func(t *testing.T) {
		e := escalation()
		pub := new(MockEscalationPublisher)
		pub.On("PublishEscalation", mock.Anything, e).Return(errors.New("broker down"))

		core, logs := observer.New(zap.WarnLevel)
		bus := NewBus(zap.New(core))
		bus.Register(ForwardEscalations(pub))
		bus.Register(LogEscalations(zap.New(core)))

		err := bus.PublishEscalation(context.Background(), e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker down")

		assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
		escalated := logs.FilterMessage("scene escalated for review").All()
		require.Len(t, escalated, 1)
		assert.Equal(t, "s2", escalated[0].ContextMap()["scene_id"])
	})

	t.Run("no handlers", func(t *testing.T) {
		assert.NoError(t, NewBus(nil).PublishEscalation(context.Background(), escalation()))
	})
}

func TestHandlerFunc_RejectsOtherEvents(t *testing.T) {
	h := ForwardEscalations(new(MockEscalationPublisher))
	err := h.Handle(context.Background(), NewBaseEvent(TypeSceneEscalated, uuid.New()))
	assert.Error(t, err)
}
