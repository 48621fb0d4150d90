package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/model"
)

func TestProjectCacheAdapter(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	adapter := NewProjectCacheAdapter(newCache(kv, "reelforge:"), 0)

	id := uuid.New()
	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	snapshot := &model.ProjectSnapshot{
		ID:               id,
		Title:            "Launch teaser",
		AspectRatio:      "9:16",
		Status:           model.ProjectStatusNeedsReview,
		Message:          "1 scene needs review",
		NeedsReviewCount: 1,
		Scenes: []model.SceneSnapshot{{
			StateSnapshot: generation.StateSnapshot{
				SceneID:          "s1",
				Status:           generation.StatusEscalated,
				EscalationReason: "attempts exhausted",
				UpdatedAt:        at,
			},
			Index:     1,
			Type:      script.SceneTypeProblem,
			MediaKind: script.MediaKindVideo,
		}},
		CreatedAt: at,
		UpdatedAt: at,
	}

	t.Run("missing", func(t *testing.T) {
		got, err := adapter.GetSnapshot(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, adapter.SaveSnapshot(ctx, snapshot))
		key := "reelforge:project:snapshot:" + id.String()
		assert.Equal(t, 24*time.Hour, kv.ttls[key])

		got, err := adapter.GetSnapshot(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, snapshot.Title, got.Title)
		assert.Equal(t, model.ProjectStatusNeedsReview, got.Status)
		require.Len(t, got.Scenes, 1)
		assert.Equal(t, generation.StatusEscalated, got.Scenes[0].Status)
		assert.Equal(t, "attempts exhausted", got.Scenes[0].EscalationReason)
		assert.True(t, at.Equal(got.UpdatedAt))
	})

	t.Run("corrupt document", func(t *testing.T) {
		other := uuid.New()
		kv.data["reelforge:project:snapshot:"+other.String()] = "{not json"
		_, err := adapter.GetSnapshot(ctx, other)
		assert.ErrorContains(t, err, "unmarshal snapshot")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, adapter.DeleteSnapshot(ctx, id))
		got, err := adapter.GetSnapshot(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
