package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

// ProjectStatus is the aggregate status of a project.
type ProjectStatus string

const (
	ProjectStatusGenerating  ProjectStatus = "generating"
	ProjectStatusReady       ProjectStatus = "ready"
	ProjectStatusNeedsReview ProjectStatus = "needs_review"
	ProjectStatusCancelled   ProjectStatus = "cancelled"
	ProjectStatusComposed    ProjectStatus = "composed"
	ProjectStatusRendered    ProjectStatus = "rendered"
)

// SceneSnapshot is the externally visible state of one scene.
type SceneSnapshot struct {
	generation.StateSnapshot
	Index       int              `json:"index"`
	Type        script.SceneType `json:"type"`
	MediaKind   script.MediaKind `json:"media_kind"`
	OverrideURL string           `json:"override_url,omitempty"`
}

// ProjectSnapshot is a point-in-time view of a project.
type ProjectSnapshot struct {
	ID               uuid.UUID       `json:"id"`
	Title            string          `json:"title"`
	AspectRatio      string          `json:"aspect_ratio"`
	Status           ProjectStatus   `json:"status"`
	Message          string          `json:"message,omitempty"`
	NeedsReviewCount int             `json:"needs_review_count"`
	FlaggedCount     int             `json:"flagged_count"`
	Scenes           []SceneSnapshot `json:"scenes"`
	SpecID           *uuid.UUID      `json:"spec_id,omitempty"`
	RenderURL        string          `json:"render_url,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// AttemptRecord is one generation attempt as archived.
type AttemptRecord struct {
	ProjectID uuid.UUID          `json:"project_id"`
	SceneID   string             `json:"scene_id"`
	MediaKind script.MediaKind   `json:"media_kind"`
	Attempt   generation.Attempt `json:"attempt"`
}

// EscalationEvent is published when a scene exhausts its attempt budget.
type EscalationEvent struct {
	ID         uuid.UUID            `json:"id"`
	ProjectID  uuid.UUID            `json:"project_id"`
	SceneID    string               `json:"scene_id"`
	SceneIndex int                  `json:"scene_index"`
	Reason     string               `json:"reason"`
	Attempts   []generation.Attempt `json:"attempts"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// RenderSpecRecord is an archived, encoded render spec.
type RenderSpecRecord struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	FPS         int             `json:"fps"`
	TotalFrames int             `json:"total_frames"`
	AspectRatio string          `json:"aspect_ratio"`
	Spec        json.RawMessage `json:"spec"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RenderedVideo is the output of the render backend.
type RenderedVideo struct {
	Data        []byte
	ContentType string
}

// RenderOutput describes an uploaded render.
type RenderOutput struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
