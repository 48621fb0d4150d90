package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/model"
)

func TestAttemptEntity(t *testing.T) {
	score := 64.0
	started := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	record := &model.AttemptRecord{
		ProjectID: uuid.New(),
		SceneID:   "s3",
		MediaKind: script.MediaKindVideo,
		Attempt: generation.Attempt{
			Number:         2,
			ProviderID:     "kling",
			RequestPrompt:  "barista pouring latte art",
			NegativePrompt: "text, captions",
			AssetURL:       "https://cdn.example.com/s3-2.mp4",
			Score:          &score,
			Defects:        []generation.Defect{generation.DefectOnImageText, generation.DefectBlankFrame},
			Outcome:        generation.OutcomeScoreRejected,
			StartedAt:      started,
			FinishedAt:     &finished,
		},
	}

	t.Run("from record", func(t *testing.T) {
		e := FromAttemptRecord(record)
		assert.Equal(t, "video", e.MediaKind)
		assert.Equal(t, 2, e.AttemptNumber)
		assert.Equal(t, pq.StringArray{"on-image-text", "blank-frame"}, e.Defects)
		assert.Equal(t, "score_rejected", e.Outcome)
		assert.Equal(t, "generation_attempts", e.TableName())
	})

	t.Run("round trip", func(t *testing.T) {
		assert.Equal(t, record, FromAttemptRecord(record).ToModel())
	})

	t.Run("no defects", func(t *testing.T) {
		e := &AttemptEntity{SceneID: "s0", Outcome: "provider_failed", FailureReason: "timeout"}
		got := e.ToModel()
		assert.Nil(t, got.Attempt.Defects)
		assert.False(t, got.Attempt.HasScore())
		assert.Equal(t, generation.OutcomeProviderFailed, got.Attempt.Outcome)

		assert.Equal(t, pq.StringArray{}, FromAttemptRecord(got).Defects)
	})
}

func TestRenderSpecEntity(t *testing.T) {
	record := &model.RenderSpecRecord{
		ID:          uuid.New(),
		ProjectID:   uuid.New(),
		FPS:         30,
		TotalFrames: 630,
		AspectRatio: "9:16",
		Spec:        json.RawMessage(`{"fps":30}`),
		CreatedAt:   time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
	}
	e := FromRenderSpecRecord(record)
	assert.Equal(t, "render_specs", e.TableName())
	assert.Equal(t, record, e.ToModel())
}
