package generation

import (
	"context"
	"time"

	"github.com/uniedit/reelforge/internal/domain/script"
)

// GenerationRequest is what a provider adapter receives for one attempt.
type GenerationRequest struct {
	SceneID         string           `json:"scene_id"`
	ProviderID      string           `json:"provider_id"`
	MediaKind       script.MediaKind `json:"media_kind"`
	Prompt          string           `json:"prompt"`
	NegativePrompt  string           `json:"negative_prompt,omitempty"`
	DurationSeconds float64          `json:"duration_seconds"`
	AspectRatio     string           `json:"aspect_ratio"`
}

// GenerationResult is a successful provider response.
type GenerationResult struct {
	AssetURL string
	TaskID   string
}

// ProviderAdapter generates media for one provider. A retry is always a new call.
type ProviderAdapter interface {
	ID() string
	Supports(kind script.MediaKind) bool
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// ProviderLookup resolves provider ids to adapters.
type ProviderLookup interface {
	Get(providerID string) (ProviderAdapter, bool)
}

// SceneContext is what the scorer needs to judge an asset.
type SceneContext struct {
	SceneID       string           `json:"scene_id"`
	SceneType     script.SceneType `json:"scene_type"`
	MediaKind     script.MediaKind `json:"media_kind"`
	NarrationText string           `json:"narration_text"`
	VisualPrompt  string           `json:"visual_prompt"`
	RequestPrompt string           `json:"request_prompt"`
}

// ScoreResult is the scorer's verdict on an asset.
type ScoreResult struct {
	Score   float64
	Defects []Defect
}

// ContentScorer scores a generated visual asset.
type ContentScorer interface {
	Score(ctx context.Context, assetURL string, sc SceneContext) (*ScoreResult, error)
}

// Admission bounds concurrent provider calls across all gates.
type Admission interface {
	Acquire(ctx context.Context) error
	Release()
}

// Recorder observes gate progress. Calls are made without gate locks held.
type Recorder interface {
	RecordTransition(sceneID string, from, to Status)
	RecordAttempt(sceneID string, kind script.MediaKind, attempt Attempt)
	RecordAdmissionWait(wait time.Duration)
	RecordTerminal(snapshot StateSnapshot)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) RecordTransition(string, Status, Status)         {}
func (NopRecorder) RecordAttempt(string, script.MediaKind, Attempt) {}
func (NopRecorder) RecordAdmissionWait(time.Duration)               {}
func (NopRecorder) RecordTerminal(StateSnapshot)                    {}

var _ Recorder = NopRecorder{}
