package outbound

import (
	"context"

	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/model"
)

// ProjectCachePort stores project snapshots so status survives process restarts.
type ProjectCachePort interface {
	// SaveSnapshot stores the latest snapshot of a project.
	SaveSnapshot(ctx context.Context, snapshot *model.ProjectSnapshot) error

	// GetSnapshot returns the stored snapshot, or nil when none exists.
	GetSnapshot(ctx context.Context, projectID uuid.UUID) (*model.ProjectSnapshot, error)

	// DeleteSnapshot removes a stored snapshot.
	DeleteSnapshot(ctx context.Context, projectID uuid.UUID) error
}

// AttemptDatabasePort archives generation attempts.
type AttemptDatabasePort interface {
	// Record stores a finished attempt.
	Record(ctx context.Context, record *model.AttemptRecord) error

	// FindByProject returns the attempts of a project ordered by scene and attempt number.
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]*model.AttemptRecord, error)
}

// RenderSpecDatabasePort archives composed render specs.
type RenderSpecDatabasePort interface {
	// Save stores an encoded spec.
	Save(ctx context.Context, record *model.RenderSpecRecord) error

	// FindLatest returns the most recent spec of a project, or nil.
	FindLatest(ctx context.Context, projectID uuid.UUID) (*model.RenderSpecRecord, error)
}

// EscalationPublisherPort notifies reviewers about escalated scenes.
type EscalationPublisherPort interface {
	// PublishEscalation publishes an escalation event.
	PublishEscalation(ctx context.Context, event *model.EscalationEvent) error
}

// RenderBackendPort turns a render spec into a video.
type RenderBackendPort interface {
	// Render renders the spec and returns the encoded video.
	Render(ctx context.Context, spec *timeline.RenderSpec) (*model.RenderedVideo, error)
}

// RenderOutputStoragePort stores rendered videos.
type RenderOutputStoragePort interface {
	// Upload stores a rendered video and returns where to fetch it.
	Upload(ctx context.Context, projectID uuid.UUID, video *model.RenderedVideo) (*model.RenderOutput, error)
}

// GenerationMetricsPort records quality-gate and composition metrics.
type GenerationMetricsPort interface {
	// RecordAttempt records a finished generation attempt.
	RecordAttempt(kind script.MediaKind, attempt generation.Attempt)

	// RecordTerminal records a scene reaching a terminal status.
	RecordTerminal(status generation.Status)

	// RecordAdmissionWait records how long a gate waited for a provider slot.
	RecordAdmissionWait(seconds float64)

	// RecordComposition records a composition result.
	RecordComposition(outcome string, droppedAssets int)
}
