package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/script"
)

func table(t *testing.T, durations ...float64) *frames.Table {
	t.Helper()
	clock, err := frames.NewClock(30)
	require.NoError(t, err)
	scenes := make([]script.Scene, len(durations))
	for i, d := range durations {
		scenes[i] = script.Scene{ID: string(rune('a' + i)), Index: i, DurationSeconds: d}
	}
	tbl, err := frames.BuildTable(clock, scenes)
	require.NoError(t, err)
	return tbl
}

func TestPlanner_TransitionCuePerBoundary(t *testing.T) {
	plan, err := NewPlanner(nil).Plan(Input{Table: table(t, 5, 6, 5, 5)})
	require.NoError(t, err)

	require.Len(t, plan.Transitions, 3)
	var at []int
	for _, c := range plan.Transitions {
		at = append(at, c.AtFrame)
		assert.Equal(t, CueTransition, c.Kind)
		assert.Equal(t, "whoosh", c.AssetKey)
	}
	assert.Equal(t, []int{150, 330, 480}, at)
	assert.Nil(t, plan.RiseSwell)
	assert.Empty(t, plan.Impacts)
}

func TestPlanner_SingleSceneHasNoTransitions(t *testing.T) {
	plan, err := NewPlanner(nil).Plan(Input{Table: table(t, 5)})
	require.NoError(t, err)
	assert.Empty(t, plan.Transitions)
}

func TestPlanner_ImpactAndRise(t *testing.T) {
	plan, err := NewPlanner(nil).Plan(Input{
		Table:              table(t, 5, 6, 5, 5),
		HasIntro:           true,
		IntroRevealSeconds: 0.5,
		HasOutro:           true,
	})
	require.NoError(t, err)

	require.Len(t, plan.Impacts, 1)
	assert.Equal(t, 15, plan.Impacts[0].AtFrame)

	require.NotNil(t, plan.RiseSwell)
	assert.Equal(t, 390, plan.RiseSwell.AtFrame)
	assert.Equal(t, 90, plan.RiseSwell.DurationFrames)
	assert.InDelta(t, 13.0, plan.RiseSwell.AtSeconds, 1e-9)

	cues := plan.Cues()
	for i := 1; i < len(cues); i++ {
		assert.LessOrEqual(t, cues[i-1].AtFrame, cues[i].AtFrame)
	}
}

func TestPlanner_RiseClampsToStart(t *testing.T) {
	plan, err := NewPlanner(nil).Plan(Input{Table: table(t, 2, 4), HasOutro: true})
	require.NoError(t, err)
	require.NotNil(t, plan.RiseSwell)
	assert.Equal(t, 0, plan.RiseSwell.AtFrame)
	assert.Equal(t, 60, plan.RiseSwell.DurationFrames)
}

func TestPlanner_CueDurationsClampToTimeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImpactSeconds = 10
	plan, err := NewPlanner(cfg).Plan(Input{Table: table(t, 3), HasIntro: true, IntroRevealSeconds: 0.5})
	require.NoError(t, err)
	require.Len(t, plan.Impacts, 1)
	assert.Equal(t, 75, plan.Impacts[0].DurationFrames)
}

func TestPlanner_VoiceoverRangesAndAmbient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbientKey = "room-tone"
	plan, err := NewPlanner(cfg).Plan(Input{
		Table: table(t, 5, 6, 5, 5),
		Voiceover: []VoiceoverClip{
			{SceneID: "b", OffsetSeconds: 0.5, DurationSeconds: 4},
			{SceneID: "a", DurationSeconds: 20},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []VoiceoverRange{
		{SceneID: "a", StartFrame: 0, EndFrame: 150},
		{SceneID: "b", StartFrame: 165, EndFrame: 285},
	}, plan.VoiceoverRanges)
	// gap 15 < 30: one ducked region
	assert.Equal(t, []Region{{Start: 0, End: 300}}, plan.Envelope.DuckedRegions())

	require.NotNil(t, plan.Ambient)
	assert.Equal(t, 630, plan.Ambient.DurationFrames)
	assert.Equal(t, 0.15, plan.Ambient.Volume)
}

func TestPlanner_Errors(t *testing.T) {
	_, err := NewPlanner(nil).Plan(Input{})
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = NewPlanner(nil).Plan(Input{Table: table(t, 5), Voiceover: []VoiceoverClip{{SceneID: "zz"}}})
	assert.ErrorIs(t, err, ErrUnknownScene)

	cfg := DefaultConfig()
	cfg.DuckLevel = 0.5
	_, err = NewPlanner(cfg).Plan(Input{Table: table(t, 5)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
