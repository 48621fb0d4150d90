package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/sound"
)

type fixture struct {
	scenes []script.Scene
	table  *frames.Table
	input  Input
}

func approved(sceneID, url string, needsReview bool) SceneSource {
	score := 90.0
	a := generation.Attempt{Number: 1, ProviderID: "runway", AssetURL: url, Score: &score, Outcome: generation.OutcomeSucceeded}
	return SceneSource{State: generation.StateSnapshot{
		SceneID:         sceneID,
		Status:          generation.StatusApproved,
		Attempts:        []generation.Attempt{a},
		ApprovedAttempt: &a,
		NeedsReview:     needsReview,
	}}
}

func brandConfig() *brand.Config {
	cfg := brand.DefaultConfig()
	cfg.LogoURL = "https://cdn.example.com/brand/logo.png"
	cfg.Watermark.AssetURL = "https://cdn.example.com/brand/mark.png"
	cfg.Outro.CTAText = "Shop now"
	return cfg
}

func newFixture(t *testing.T, cfg *brand.Config, durations ...float64) *fixture {
	t.Helper()
	ctx := context.Background()
	resolver := asset.NewPublicResolver(false)

	scenes := make([]script.Scene, len(durations))
	sources := make(map[string]SceneSource)
	var clips []sound.VoiceoverClip
	for i, d := range durations {
		id := fmt.Sprintf("s%d", i)
		scenes[i] = script.Scene{ID: id, Index: i, Type: script.SceneTypeBenefit, DurationSeconds: d}
		sources[id] = approved(id, fmt.Sprintf("https://cdn.example.com/scenes/%s.mp4", id), false)
		clips = append(clips, sound.VoiceoverClip{SceneID: id, AssetURL: fmt.Sprintf("https://cdn.example.com/vo/%s.mp3", id), OffsetSeconds: 0.5})
	}

	clock, err := frames.NewClock(30)
	require.NoError(t, err)
	table, err := frames.BuildTable(clock, scenes)
	require.NoError(t, err)

	plan, err := brand.NewPlanner(resolver, zap.NewNop()).Plan(ctx, cfg, scenes)
	require.NoError(t, err)
	reveal, hasIntro := plan.IntroRevealSeconds()

	sp, err := sound.NewPlanner(nil).Plan(sound.Input{
		Table:              table,
		Voiceover:          clips,
		HasIntro:           hasIntro,
		IntroRevealSeconds: reveal,
		HasOutro:           plan.HasOutro(),
	})
	require.NoError(t, err)

	return &fixture{
		scenes: scenes,
		table:  table,
		input: Input{
			Table:       table,
			Scenes:      scenes,
			AspectRatio: "9:16",
			Sources:     sources,
			Brand:       plan,
			Sound:       sp,
			MusicURL:    "https://cdn.example.com/music/bed.mp3",
			SFXLibrary: map[string]string{
				"whoosh": "https://cdn.example.com/sfx/whoosh.wav",
				"impact": "https://cdn.example.com/sfx/impact.wav",
				"rise":   "https://cdn.example.com/sfx/rise.wav",
			},
		},
	}
}

func composer() *Composer {
	return NewComposer(asset.NewPublicResolver(false), zap.NewNop())
}

func TestCompose_SceneTrackFrames(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5, 5)

	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	assert.Equal(t, 30, spec.FPS())
	assert.Equal(t, 630, spec.TotalFrames())
	var starts []int
	for _, e := range spec.SceneTrack() {
		starts = append(starts, e.StartFrame)
	}
	assert.Equal(t, []int{0, 150, 330, 480}, starts)

	last := spec.SceneTrack()[3]
	assert.Equal(t, spec.TotalFrames(), last.EndFrame())
}

func TestCompose_AudioSharesFrameTable(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5, 5)

	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	scenes := spec.SceneTrack()
	vo := spec.Voiceover()
	require.Len(t, vo, 4)
	for i, v := range vo {
		assert.Equal(t, scenes[i].StartFrame+15, v.StartFrame)
		assert.Equal(t, scenes[i].EndFrame(), v.StartFrame+v.DurationFrames)
	}

	var transitions []int
	for _, c := range spec.SFX() {
		if c.Kind == sound.CueTransition {
			transitions = append(transitions, c.StartFrame)
		}
	}
	assert.Equal(t, []int{150, 330, 480}, transitions)

	music := spec.Music()
	require.NotNil(t, music)
	assert.Equal(t, 0.35, music.BaseVolume)
	assert.NotEmpty(t, music.Envelope)
}

func TestCompose_Overlays(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5, 5)

	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	byKind := make(map[brand.OverlayKind]OverlayEntry)
	for _, o := range spec.OverlayTrack() {
		byKind[o.Kind] = o
	}
	require.Contains(t, byKind, brand.OverlayIntro)
	assert.Equal(t, 0, byKind[brand.OverlayIntro].StartFrame)
	assert.Equal(t, 75, byKind[brand.OverlayIntro].DurationFrames)

	require.Contains(t, byKind, brand.OverlayWatermark)
	assert.Equal(t, 75, byKind[brand.OverlayWatermark].StartFrame)
	assert.Equal(t, 480, byKind[brand.OverlayWatermark].EndFrame())

	require.Contains(t, byKind, brand.OverlayOutroLogo)
	assert.Equal(t, 480, byKind[brand.OverlayOutroLogo].StartFrame)
	assert.Equal(t, 630, byKind[brand.OverlayOutroLogo].EndFrame())
	require.Contains(t, byKind, brand.OverlayCTA)
	assert.Equal(t, "Shop now", byKind[brand.OverlayCTA].Text)
}

func TestCompose_ShortFinalSceneHasNoOutro(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 0.4)

	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	assert.Equal(t, 162, spec.TotalFrames())
	for _, o := range spec.OverlayTrack() {
		assert.NotEqual(t, brand.OverlayCTA, o.Kind)
		assert.NotEqual(t, brand.OverlayOutroLogo, o.Kind)
	}
}

func TestCompose_UnresolvableWatermarkStillComposes(t *testing.T) {
	cfg := brandConfig()
	cfg.Watermark.AssetURL = "assets/mark.png"
	f := newFixture(t, cfg, 5, 6, 5, 5)

	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	for _, o := range spec.OverlayTrack() {
		assert.NotEqual(t, brand.OverlayWatermark, o.Kind)
	}
	require.Len(t, spec.Dropped(), 1)
	assert.Equal(t, string(asset.KindWatermark), spec.Dropped()[0].Kind)
}

func TestCompose_NotReady(t *testing.T) {
	t.Run("pending scene", func(t *testing.T) {
		f := newFixture(t, brandConfig(), 5, 6, 5)
		f.input.Sources["s1"] = SceneSource{State: generation.StateSnapshot{SceneID: "s1", Status: generation.StatusPending}}

		spec, err := composer().Compose(context.Background(), f.input)
		assert.Nil(t, spec)
		var nr *SceneNotReadyError
		require.ErrorAs(t, err, &nr)
		assert.Equal(t, 1, nr.Index)
		assert.ErrorIs(t, err, ErrSceneNotReady)
		assert.Contains(t, err.Error(), "scene 1 not ready")
	})

	t.Run("escalated without override", func(t *testing.T) {
		f := newFixture(t, brandConfig(), 5, 6, 5)
		f.input.Sources["s0"] = SceneSource{State: generation.StateSnapshot{SceneID: "s0", Status: generation.StatusEscalated}}
		delete(f.input.Sources, "s2")

		_, err := composer().Compose(context.Background(), f.input)
		var nr *SceneNotReadyError
		require.ErrorAs(t, err, &nr)
		assert.Equal(t, 0, nr.Index)
		assert.Equal(t, 2, nr.NotReady)
	})

	t.Run("escalated with override", func(t *testing.T) {
		f := newFixture(t, brandConfig(), 5, 6, 5)
		f.input.Sources["s1"] = SceneSource{
			State:       generation.StateSnapshot{SceneID: "s1", Status: generation.StatusEscalated},
			OverrideURL: "https://cdn.example.com/manual/s1.mp4",
		}

		spec, err := composer().Compose(context.Background(), f.input)
		require.NoError(t, err)
		entry := spec.SceneTrack()[1]
		assert.True(t, entry.Overridden)
		assert.Equal(t, "https://cdn.example.com/manual/s1.mp4", entry.AssetURL)
	})
}

func TestCompose_EssentialAssets(t *testing.T) {
	t.Run("scene asset", func(t *testing.T) {
		f := newFixture(t, brandConfig(), 5, 6)
		f.input.Sources["s0"] = approved("s0", "http://10.0.0.5/s0.mp4", false)

		_, err := composer().Compose(context.Background(), f.input)
		assert.ErrorIs(t, err, ErrEssentialAsset)
		assert.ErrorIs(t, err, asset.ErrUnresolvable)
	})

	t.Run("voiceover", func(t *testing.T) {
		f := newFixture(t, brandConfig(), 5, 6)
		f.input.Sound.VoiceoverRanges[0].AssetURL = "vo/s0.mp3"

		_, err := composer().Compose(context.Background(), f.input)
		assert.ErrorIs(t, err, ErrEssentialAsset)
	})
}

func TestCompose_NonEssentialAudioDropped(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5)
	f.input.MusicURL = "https://music.internal/bed.mp3"
	delete(f.input.SFXLibrary, "whoosh")

	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	assert.Nil(t, spec.Music())
	for _, c := range spec.SFX() {
		assert.NotEqual(t, sound.CueTransition, c.Kind)
	}
	kinds := make(map[string]int)
	for _, d := range spec.Dropped() {
		kinds[d.Kind]++
	}
	assert.Equal(t, 1, kinds[string(asset.KindMusic)])
	assert.Equal(t, 1, kinds[string(asset.KindSFX)])
}

func TestCompose_SameKindOverlapIsFatal(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5)
	dup := *f.input.Brand.Intro
	f.input.Brand.PerScene["s0"] = append(f.input.Brand.PerScene["s0"], brand.Overlay{
		Kind:            brand.OverlayIntro,
		Region:          brand.RegionScene,
		SceneID:         "s0",
		AssetURL:        dup.AssetURL,
		Opacity:         1,
		DurationSeconds: 1,
	})

	spec, err := composer().Compose(context.Background(), f.input)
	assert.Nil(t, spec)
	var iv *InvariantViolation
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, invOverlap, iv.Invariant)
}

func TestCompose_OverlayOutsideRegionIsFatal(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5)
	f.input.Brand.Intro.DurationSeconds = 8

	_, err := composer().Compose(context.Background(), f.input)
	var iv *InvariantViolation
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, invRegion, iv.Invariant)
}

func TestCompose_MismatchedTableIsFatal(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5)
	f.input.Scenes = f.input.Scenes[:2]

	_, err := composer().Compose(context.Background(), f.input)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestRenderSpec_JSONRoundTripRevalidates(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6, 5, 5)
	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	data, err := json.Marshal(spec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.EqualValues(t, 630, raw["total_frames"])
	assert.Contains(t, raw, "audio_tracks")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, spec.SceneTrack(), decoded.SceneTrack())

	// a gap in the scene track is rejected
	raw["total_frames"] = 700
	broken, err := json.Marshal(raw)
	require.NoError(t, err)
	_, err = Decode(broken)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestRenderSpec_AccessorsCopy(t *testing.T) {
	f := newFixture(t, brandConfig(), 5, 6)
	spec, err := composer().Compose(context.Background(), f.input)
	require.NoError(t, err)

	track := spec.SceneTrack()
	track[0].AssetURL = "https://evil.example.com/x.mp4"
	assert.NotEqual(t, track[0].AssetURL, spec.SceneTrack()[0].AssetURL)

	m := spec.Music()
	m.Envelope[0].Volume = 1
	assert.NotEqual(t, 1.0, spec.Music().Envelope[0].Volume)
}
