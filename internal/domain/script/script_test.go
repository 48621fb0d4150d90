package script

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScript() *Script {
	return &Script{
		Title: "demo",
		Scenes: []Scene{
			{ID: "s2", Index: 2, Type: SceneTypeCTA, DurationSeconds: 5},
			{ID: "s0", Index: 0, Type: SceneTypeHook, DurationSeconds: 5},
			{ID: "s1", Index: 1, Type: SceneTypeProblem, DurationSeconds: 6, VisualKind: MediaKindImage},
		},
	}
}

func TestScript_Validate(t *testing.T) {
	t.Run("accepts unordered contiguous indexes", func(t *testing.T) {
		require.NoError(t, validScript().Validate())
	})

	tests := []struct {
		name   string
		mutate func(s *Script)
		want   error
	}{
		{"no scenes", func(s *Script) { s.Scenes = nil }, ErrNoScenes},
		{"missing id", func(s *Script) { s.Scenes[0].ID = " " }, ErrMissingSceneID},
		{"duplicate id", func(s *Script) { s.Scenes[1].ID = "s2" }, ErrDuplicateSceneID},
		{"zero duration", func(s *Script) { s.Scenes[0].DurationSeconds = 0 }, ErrInvalidDuration},
		{"negative duration", func(s *Script) { s.Scenes[0].DurationSeconds = -1 }, ErrInvalidDuration},
		{"nan duration", func(s *Script) { s.Scenes[0].DurationSeconds = math.NaN() }, ErrInvalidDuration},
		{"audio visual kind", func(s *Script) { s.Scenes[0].VisualKind = MediaKindMusic }, ErrInvalidVisualKind},
		{"duplicate index", func(s *Script) { s.Scenes[0].Index = 1 }, ErrDuplicateIndex},
		{"index gap", func(s *Script) { s.Scenes[0].Index = 3 }, ErrIndexGap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validScript()
			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), tt.want)
		})
	}
}

func TestScript_Ordered(t *testing.T) {
	s := validScript()
	ordered := s.Ordered()

	require.Len(t, ordered, 3)
	assert.Equal(t, "s0", ordered[0].ID)
	assert.Equal(t, "s1", ordered[1].ID)
	assert.Equal(t, "s2", ordered[2].ID)
	assert.Equal(t, "s2", s.Scenes[0].ID, "original order must not change")
}

func TestScript_Helpers(t *testing.T) {
	s := validScript()

	assert.Equal(t, DefaultAspectRatio, s.Aspect())
	s.AspectRatio = "16:9"
	assert.Equal(t, "16:9", s.Aspect())

	assert.InDelta(t, 16.0, s.TotalSeconds(), 1e-9)

	sc, ok := s.Scene("s1")
	require.True(t, ok)
	assert.Equal(t, MediaKindImage, sc.Kind())

	_, ok = s.Scene("missing")
	assert.False(t, ok)

	assert.Equal(t, MediaKindVideo, Scene{}.Kind())
	assert.True(t, MediaKindImage.IsVisual())
	assert.False(t, MediaKindSFX.IsVisual())
}
