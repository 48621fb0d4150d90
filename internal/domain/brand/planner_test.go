package brand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/script"
)

func scenes(durations ...float64) []script.Scene {
	types := []script.SceneType{script.SceneTypeHook, script.SceneTypeProblem, script.SceneTypeSolution, script.SceneTypeCTA}
	out := make([]script.Scene, len(durations))
	for i, d := range durations {
		out[i] = script.Scene{
			ID:              string(rune('a' + i)),
			Index:           i,
			Type:            types[i%len(types)],
			DurationSeconds: d,
		}
	}
	if len(out) > 1 {
		out[len(out)-1].Type = script.SceneTypeCTA
	}
	return out
}

func fullConfig() *Config {
	cfg := DefaultConfig()
	cfg.LogoURL = "https://cdn.example.com/brand/logo.png"
	cfg.Watermark.AssetURL = "https://cdn.example.com/brand/mark.png"
	cfg.Outro.CTAText = "Shop now"
	return cfg
}

func newTestPlanner() (*Planner, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewPlanner(asset.NewPublicResolver(false), zap.New(core)), logs
}

func TestPlanner_FullPlan(t *testing.T) {
	p, _ := newTestPlanner()
	plan, err := p.Plan(context.Background(), fullConfig(), scenes(5, 6, 5, 5))
	require.NoError(t, err)

	require.NotNil(t, plan.Intro)
	assert.Equal(t, OverlayIntro, plan.Intro.Kind)
	assert.Equal(t, 2.5, plan.Intro.DurationSeconds)
	reveal, ok := plan.IntroRevealSeconds()
	assert.True(t, ok)
	assert.Equal(t, 0.5, reveal)

	require.NotNil(t, plan.Watermark)
	assert.True(t, plan.Watermark.UntilRegionEnd)
	assert.Equal(t, RegionBody, plan.Watermark.Region)
	assert.Equal(t, 0.6, plan.Watermark.Opacity)

	require.Len(t, plan.Outro, 2)
	assert.Equal(t, OverlayOutroLogo, plan.Outro[0].Kind)
	assert.Equal(t, OverlayCTA, plan.Outro[1].Kind)
	assert.Equal(t, "Shop now", plan.Outro[1].Text)
	assert.Equal(t, "d", plan.Outro[0].SceneID)
	assert.Empty(t, plan.Dropped)
}

func TestPlanner_IntroNeedsLongEnoughFirstScene(t *testing.T) {
	p, _ := newTestPlanner()

	plan, err := p.Plan(context.Background(), fullConfig(), scenes(1.4, 6))
	require.NoError(t, err)
	assert.Nil(t, plan.Intro)

	plan, err = p.Plan(context.Background(), fullConfig(), scenes(1.5, 6))
	require.NoError(t, err)
	require.NotNil(t, plan.Intro)
	assert.Equal(t, 1.5, plan.Intro.DurationSeconds)
}

func TestPlanner_IntroNeedsLogo(t *testing.T) {
	p, _ := newTestPlanner()
	cfg := fullConfig()
	cfg.LogoURL = ""

	plan, err := p.Plan(context.Background(), cfg, scenes(5, 5))
	require.NoError(t, err)
	assert.Nil(t, plan.Intro)
	assert.Empty(t, plan.Outro)
}

func TestPlanner_UnresolvableWatermarkIsDroppedAndLogged(t *testing.T) {
	p, logs := newTestPlanner()
	cfg := fullConfig()
	cfg.Watermark.AssetURL = "brand/mark.png"

	plan, err := p.Plan(context.Background(), cfg, scenes(5, 6, 5, 5))
	require.NoError(t, err)

	assert.Nil(t, plan.Watermark)
	assert.NotNil(t, plan.Intro)
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, asset.KindWatermark, plan.Dropped[0].Kind)
	assert.Equal(t, "relative reference", plan.Dropped[0].Reason)

	dropped := logs.FilterMessage("brand asset dropped").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, zapcore.WarnLevel, dropped[0].Level)
	assert.Equal(t, "brand/mark.png", dropped[0].ContextMap()["raw_url"])
}

func TestPlanner_UnresolvableOutroLogoDropsPair(t *testing.T) {
	p, _ := newTestPlanner()
	cfg := fullConfig()
	cfg.Outro.LogoURL = "http://localhost/logo.png"

	plan, err := p.Plan(context.Background(), cfg, scenes(5, 5))
	require.NoError(t, err)
	assert.Empty(t, plan.Outro)
	require.Len(t, plan.Dropped, 1)
	assert.Equal(t, asset.KindOutroLogo, plan.Dropped[0].Kind)
}

func TestPlanner_OutroNeedsLongEnoughFinalScene(t *testing.T) {
	t.Run("shorter than the cta entry", func(t *testing.T) {
		p, logs := newTestPlanner()
		plan, err := p.Plan(context.Background(), fullConfig(), scenes(5, 0.4))
		require.NoError(t, err)
		assert.Empty(t, plan.Outro)
		assert.Empty(t, plan.Dropped)
		assert.Len(t, logs.FilterMessage("outro skipped: final scene too short").All(), 1)
	})

	t.Run("exactly the outro window", func(t *testing.T) {
		p, _ := newTestPlanner()
		plan, err := p.Plan(context.Background(), fullConfig(), scenes(5, OutroWindowSeconds(AnimationFade)))
		require.NoError(t, err)
		assert.Len(t, plan.Outro, 2)
	})

	t.Run("no animation needs less room", func(t *testing.T) {
		p, _ := newTestPlanner()
		cfg := fullConfig()
		cfg.Outro.Animation = AnimationNone
		plan, err := p.Plan(context.Background(), cfg, scenes(5, 0.5))
		require.NoError(t, err)
		require.Len(t, plan.Outro, 2)
		assert.Zero(t, plan.Outro[1].StartSeconds)
	})
}

func TestPlanner_SingleSceneHasNoBody(t *testing.T) {
	p, _ := newTestPlanner()

	plan, err := p.Plan(context.Background(), fullConfig(), scenes(5))
	require.NoError(t, err)
	assert.NotNil(t, plan.Intro)
	assert.Len(t, plan.Outro, 2)
	assert.Nil(t, plan.Watermark)
}

func TestPlanner_SceneLogos(t *testing.T) {
	p, _ := newTestPlanner()
	cfg := fullConfig()
	cfg.SceneLogos = []SceneLogoRule{
		{SceneTypes: []script.SceneType{script.SceneTypeSolution}, AssetURL: "https://cdn.example.com/brand/product.png", Opacity: 0.9, SizePercent: 15},
		{SceneTypes: []script.SceneType{script.SceneTypeSolution, script.SceneTypeProblem}, Opacity: 0.5, SizePercent: 8},
	}

	plan, err := p.Plan(context.Background(), cfg, scenes(5, 6, 5, 5))
	require.NoError(t, err)

	require.Len(t, plan.PerScene["c"], 1)
	assert.Equal(t, "https://cdn.example.com/brand/product.png", plan.PerScene["c"][0].AssetURL)
	require.Len(t, plan.PerScene["b"], 1)
	assert.Equal(t, cfg.LogoURL, plan.PerScene["b"][0].AssetURL)
	assert.Empty(t, plan.PerScene["a"])
}

func TestPlanner_InvalidConfig(t *testing.T) {
	p, _ := newTestPlanner()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"opacity above one", func(c *Config) { c.Watermark.Opacity = 1.2 }},
		{"negative opacity", func(c *Config) { c.Watermark.Opacity = -0.1 }},
		{"size above hundred", func(c *Config) { c.Intro.SizePercent = 120 }},
		{"unknown animation", func(c *Config) { c.Intro.Animation = "spin" }},
		{"anchor offset", func(c *Config) { c.Outro.Anchor.OffsetXPercent = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			tt.mutate(cfg)
			_, err := p.Plan(context.Background(), cfg, scenes(5, 5))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := p.Plan(context.Background(), fullConfig(), nil)
	assert.ErrorIs(t, err, ErrNoScenes)
}

func TestPlan_Regions(t *testing.T) {
	p, _ := newTestPlanner()
	sc := scenes(5, 6, 5, 5)
	plan, err := p.Plan(context.Background(), fullConfig(), sc)
	require.NoError(t, err)

	clock, err := frames.NewClock(30)
	require.NoError(t, err)
	table, err := frames.BuildTable(clock, sc)
	require.NoError(t, err)

	r := plan.Regions(table)
	assert.True(t, r.HasIntro)
	assert.Equal(t, FrameRange{Start: 0, End: 75}, r.Intro)
	assert.Equal(t, FrameRange{Start: 75, End: 480}, r.Body)
	assert.Equal(t, FrameRange{Start: 480, End: 630}, r.Outro)
}
