package postgres

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/model"
)

// AttemptEntity is the GORM entity for archived generation attempts.
type AttemptEntity struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_attempt_scene,priority:1"`
	SceneID        string         `gorm:"not null;index:idx_attempt_scene,priority:2"`
	MediaKind      string         `gorm:"not null"`
	AttemptNumber  int            `gorm:"not null;index:idx_attempt_scene,priority:3"`
	ProviderID     string         `gorm:"not null"`
	RequestPrompt  string         `gorm:"type:text"`
	NegativePrompt string         `gorm:"type:text"`
	AssetURL       string         `gorm:"column:asset_url"`
	Score          *float64       `gorm:"type:numeric(5,2)"`
	Defects        pq.StringArray `gorm:"type:text[];default:'{}'"`
	Outcome        string         `gorm:"not null;index"`
	FailureReason  string
	StartedAt      time.Time
	FinishedAt     *time.Time
	CreatedAt      time.Time
}

// TableName returns the table name for AttemptEntity.
func (AttemptEntity) TableName() string {
	return "generation_attempts"
}

// ToModel converts to the archive record.
func (e *AttemptEntity) ToModel() *model.AttemptRecord {
	defects := make([]generation.Defect, 0, len(e.Defects))
	for _, d := range e.Defects {
		defects = append(defects, generation.Defect(d))
	}
	if len(defects) == 0 {
		defects = nil
	}
	return &model.AttemptRecord{
		ProjectID: e.ProjectID,
		SceneID:   e.SceneID,
		MediaKind: script.MediaKind(e.MediaKind),
		Attempt: generation.Attempt{
			Number:         e.AttemptNumber,
			ProviderID:     e.ProviderID,
			RequestPrompt:  e.RequestPrompt,
			NegativePrompt: e.NegativePrompt,
			AssetURL:       e.AssetURL,
			Score:          e.Score,
			Defects:        defects,
			Outcome:        generation.Outcome(e.Outcome),
			FailureReason:  e.FailureReason,
			StartedAt:      e.StartedAt,
			FinishedAt:     e.FinishedAt,
		},
	}
}

// FromAttemptRecord converts from the archive record.
func FromAttemptRecord(r *model.AttemptRecord) *AttemptEntity {
	defects := make(pq.StringArray, 0, len(r.Attempt.Defects))
	for _, d := range r.Attempt.Defects {
		defects = append(defects, string(d))
	}
	return &AttemptEntity{
		ProjectID:      r.ProjectID,
		SceneID:        r.SceneID,
		MediaKind:      string(r.MediaKind),
		AttemptNumber:  r.Attempt.Number,
		ProviderID:     r.Attempt.ProviderID,
		RequestPrompt:  r.Attempt.RequestPrompt,
		NegativePrompt: r.Attempt.NegativePrompt,
		AssetURL:       r.Attempt.AssetURL,
		Score:          r.Attempt.Score,
		Defects:        defects,
		Outcome:        string(r.Attempt.Outcome),
		FailureReason:  r.Attempt.FailureReason,
		StartedAt:      r.Attempt.StartedAt,
		FinishedAt:     r.Attempt.FinishedAt,
	}
}

// RenderSpecEntity is the GORM entity for archived render specs.
type RenderSpecEntity struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	FPS         int             `gorm:"column:fps;not null"`
	TotalFrames int             `gorm:"not null"`
	AspectRatio string          `gorm:"not null"`
	Spec        json.RawMessage `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time       `gorm:"index"`
}

// TableName returns the table name for RenderSpecEntity.
func (RenderSpecEntity) TableName() string {
	return "render_specs"
}

// ToModel converts to the archive record.
func (e *RenderSpecEntity) ToModel() *model.RenderSpecRecord {
	return &model.RenderSpecRecord{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		FPS:         e.FPS,
		TotalFrames: e.TotalFrames,
		AspectRatio: e.AspectRatio,
		Spec:        e.Spec,
		CreatedAt:   e.CreatedAt,
	}
}

// FromRenderSpecRecord converts from the archive record.
func FromRenderSpecRecord(r *model.RenderSpecRecord) *RenderSpecEntity {
	return &RenderSpecEntity{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		FPS:         r.FPS,
		TotalFrames: r.TotalFrames,
		AspectRatio: r.AspectRatio,
		Spec:        r.Spec,
		CreatedAt:   r.CreatedAt,
	}
}
