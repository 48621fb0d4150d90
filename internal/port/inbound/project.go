package inbound

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/sound"
	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/model"
)

// --- Request/Response Types ---

// ProjectSubmitInput is a script submitted for generation.
type ProjectSubmitInput struct {
	Script    script.Script         `json:"script" binding:"required"`
	Brand     *brand.Config         `json:"brand,omitempty"`
	Voiceover []sound.VoiceoverClip `json:"voiceover,omitempty"`
	MusicURL  string                `json:"music_url,omitempty"`
}

// ProjectCancelInput cancels a project or one of its scenes.
type ProjectCancelInput struct {
	Reason string `json:"reason,omitempty"`
}

// SceneOverrideInput supplies a human-chosen asset for a scene.
type SceneOverrideInput struct {
	AssetURL string `json:"asset_url" binding:"required"`
}

// ProjectComposeInput controls composition.
type ProjectComposeInput struct {
	// Wait blocks until every gate is terminal instead of failing on unfinished scenes.
	Wait bool `json:"wait,omitempty"`
}

// --- Domain Interface ---

// ProjectDomain defines the project orchestration service.
type ProjectDomain interface {
	// Submit validates a script and starts one quality gate per scene.
	Submit(ctx context.Context, input *ProjectSubmitInput) (*model.ProjectSnapshot, error)

	// Get returns the current snapshot of a project.
	Get(ctx context.Context, projectID uuid.UUID) (*model.ProjectSnapshot, error)

	// Attempts returns the archived attempts of a project.
	Attempts(ctx context.Context, projectID uuid.UUID) ([]*model.AttemptRecord, error)

	// Cancel cancels every unfinished scene of a project.
	Cancel(ctx context.Context, projectID uuid.UUID, reason string) (*model.ProjectSnapshot, error)

	// CancelScene cancels one scene.
	CancelScene(ctx context.Context, projectID uuid.UUID, sceneID, reason string) (*model.ProjectSnapshot, error)

	// OverrideScene attaches a human-supplied asset to an escalated or cancelled scene.
	OverrideScene(ctx context.Context, projectID uuid.UUID, sceneID, assetURL string) (*model.ProjectSnapshot, error)

	// Compose builds the render spec.
	Compose(ctx context.Context, projectID uuid.UUID, wait bool) (*timeline.RenderSpec, error)

	// Render renders the composed spec and stores the video.
	Render(ctx context.Context, projectID uuid.UUID) (*model.RenderOutput, error)
}

// --- HTTP Port Interfaces ---

// ProjectHttpPort defines project HTTP handlers.
type ProjectHttpPort interface {
	// Submit handles script submission.
	Submit(c *gin.Context)

	// Get handles project status requests.
	Get(c *gin.Context)

	// Attempts handles attempt history requests.
	Attempts(c *gin.Context)

	// Cancel handles project cancellation.
	Cancel(c *gin.Context)

	// CancelScene handles scene cancellation.
	CancelScene(c *gin.Context)

	// OverrideScene handles human asset overrides.
	OverrideScene(c *gin.Context)

	// Compose handles composition requests.
	Compose(c *gin.Context)

	// Render handles render requests.
	Render(c *gin.Context)
}
