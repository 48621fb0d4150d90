package brand

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/script"
)

// Drop records an overlay left out because its asset could not be made public.
type Drop struct {
	Kind    asset.Kind `json:"kind"`
	SceneID string     `json:"scene_id,omitempty"`
	RawURL  string     `json:"raw_url"`
	Reason  string     `json:"reason"`
}

// Plan is the set of brand overlays for one project.
type Plan struct {
	Intro     *Overlay
	Watermark *Overlay
	Outro     []Overlay
	PerScene  map[string][]Overlay
	Dropped   []Drop
}

// IntroRevealSeconds returns the instant the intro logo is fully revealed.
func (p *Plan) IntroRevealSeconds() (float64, bool) {
	if p == nil || p.Intro == nil {
		return 0, false
	}
	return p.Intro.StartSeconds + p.Intro.Animation.InSeconds(), true
}

// HasOutro reports whether the final scene carries an outro.
func (p *Plan) HasOutro() bool {
	return p != nil && len(p.Outro) > 0
}

// Overlays returns every planned overlay: intro, watermark, per-scene in scene order, then outro.
func (p *Plan) Overlays(scenes []script.Scene) []Overlay {
	if p == nil {
		return nil
	}
	var out []Overlay
	if p.Intro != nil {
		out = append(out, *p.Intro)
	}
	if p.Watermark != nil {
		out = append(out, *p.Watermark)
	}
	for _, s := range scenes {
		out = append(out, p.PerScene[s.ID]...)
	}
	return append(out, p.Outro...)
}

// FrameRange is a half-open range of frames.
type FrameRange struct {
	Start int `json:"start_frame"`
	End   int `json:"end_frame"`
}

// Len returns the number of frames in the range.
func (r FrameRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Regions are the timeline regions overlays are placed in, in frames.
type Regions struct {
	Intro    FrameRange
	Body     FrameRange
	Outro    FrameRange
	HasIntro bool
	HasOutro bool
}

// Regions computes the plan's regions on a frame table. The body runs from
// the end of the intro to the start of the outro scene, or to the end.
func (p *Plan) Regions(table *frames.Table) Regions {
	clock := table.Clock()
	r := Regions{Body: FrameRange{Start: 0, End: table.TotalFrames()}}
	if p != nil && p.Intro != nil {
		first := table.First()
		end := first.Start + clock.ToFrames(p.Intro.DurationSeconds)
		if end > first.End() {
			end = first.End()
		}
		r.Intro = FrameRange{Start: first.Start, End: end}
		r.HasIntro = true
		r.Body.Start = end
	}
	if p.HasOutro() {
		last := table.Last()
		r.Outro = FrameRange{Start: last.Start, End: last.End()}
		r.HasOutro = true
		r.Body.End = last.Start
	}
	return r
}

// Planner computes brand overlays for a project.
type Planner struct {
	resolver asset.Resolver
	logger   *zap.Logger
}

// NewPlanner creates a brand planner.
func NewPlanner(resolver asset.Resolver, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{resolver: resolver, logger: logger.Named("brand")}
}

// Plan decides which overlays apply to scenes. Scenes must be in index order.
// Overlays whose asset cannot be made public are dropped and logged.
func (p *Planner) Plan(ctx context.Context, cfg *Config, scenes []script.Scene) (*Plan, error) {
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan := &Plan{PerScene: make(map[string][]Overlay)}
	first := scenes[0]
	last := scenes[len(scenes)-1]

	if intro, ok := p.intro(ctx, plan, cfg, first); ok {
		plan.Intro = intro
	}

	if cfg.Outro.Enabled {
		plan.Outro = p.outro(ctx, plan, cfg, last)
	}

	if cfg.Watermark.Enabled {
		plan.Watermark = p.watermark(ctx, plan, cfg, scenes)
	}

	p.sceneLogos(ctx, plan, cfg, scenes)
	return plan, nil
}

func (p *Planner) intro(ctx context.Context, plan *Plan, cfg *Config, first script.Scene) (*Overlay, bool) {
	if !cfg.Intro.Enabled || cfg.LogoURL == "" {
		return nil, false
	}
	if first.DurationSeconds < MinIntroWindowSeconds {
		p.logger.Info("intro skipped: first scene too short",
			zap.String("scene_id", first.ID),
			zap.Float64("duration_seconds", first.DurationSeconds),
		)
		return nil, false
	}
	url, ok := p.resolve(ctx, plan, asset.KindLogo, first.ID, cfg.LogoURL)
	if !ok {
		return nil, false
	}
	duration := cfg.Intro.DurationSeconds
	if duration < MinIntroWindowSeconds {
		duration = MinIntroWindowSeconds
	}
	duration = math.Min(duration, first.DurationSeconds)
	animation := cfg.Intro.Animation
	if animation == "" {
		animation = AnimationFade
	}
	return &Overlay{
		Kind:            OverlayIntro,
		Region:          RegionIntro,
		SceneID:         first.ID,
		AssetURL:        url,
		Anchor:          cfg.Intro.Anchor,
		SizePercent:     cfg.Intro.SizePercent,
		Opacity:         1,
		Animation:       animation,
		StartSeconds:    0,
		DurationSeconds: duration,
	}, true
}

func (p *Planner) outro(ctx context.Context, plan *Plan, cfg *Config, last script.Scene) []Overlay {
	logoURL := cfg.Outro.LogoURL
	if logoURL == "" {
		logoURL = cfg.LogoURL
	}
	if logoURL == "" || cfg.Outro.CTAText == "" {
		p.logger.Debug("outro skipped: needs both a logo and a call to action")
		return nil
	}
	animation := cfg.Outro.Animation
	if animation == "" {
		animation = AnimationFade
	}
	if window := OutroWindowSeconds(animation); last.DurationSeconds < window {
		p.logger.Info("outro skipped: final scene too short",
			zap.String("scene_id", last.ID),
			zap.Float64("duration_seconds", last.DurationSeconds),
			zap.Float64("min_seconds", window),
		)
		return nil
	}
	url, ok := p.resolve(ctx, plan, asset.KindOutroLogo, last.ID, logoURL)
	if !ok {
		// the logo and CTA are only ever shown together
		return nil
	}
	return []Overlay{
		{
			Kind:           OverlayOutroLogo,
			Region:         RegionOutro,
			SceneID:        last.ID,
			AssetURL:       url,
			Anchor:         cfg.Outro.Anchor,
			SizePercent:    cfg.Outro.SizePercent,
			Opacity:        1,
			Animation:      animation,
			UntilRegionEnd: true,
		},
		{
			Kind:           OverlayCTA,
			Region:         RegionOutro,
			SceneID:        last.ID,
			Text:           cfg.Outro.CTAText,
			Anchor:         cfg.Outro.CTAAnchor,
			Opacity:        1,
			Animation:      animation,
			StartSeconds:   animation.InSeconds(),
			UntilRegionEnd: true,
		},
	}
}

func (p *Planner) watermark(ctx context.Context, plan *Plan, cfg *Config, scenes []script.Scene) *Overlay {
	raw := cfg.Watermark.AssetURL
	if raw == "" {
		raw = cfg.LogoURL
	}
	if raw == "" {
		return nil
	}

	// The body must have room left once intro and outro are carved out.
	body := 0.0
	for i, s := range scenes {
		if plan.HasOutro() && i == len(scenes)-1 {
			continue
		}
		body += s.DurationSeconds
	}
	if plan.Intro != nil {
		body -= plan.Intro.DurationSeconds
	}
	if body <= 0 {
		p.logger.Debug("watermark skipped: no body region")
		return nil
	}

	url, ok := p.resolve(ctx, plan, asset.KindWatermark, "", raw)
	if !ok {
		return nil
	}
	return &Overlay{
		Kind:           OverlayWatermark,
		Region:         RegionBody,
		AssetURL:       url,
		Anchor:         cfg.Watermark.Anchor,
		SizePercent:    cfg.Watermark.SizePercent,
		Opacity:        cfg.Watermark.Opacity,
		Animation:      AnimationNone,
		UntilRegionEnd: true,
	}
}

func (p *Planner) sceneLogos(ctx context.Context, plan *Plan, cfg *Config, scenes []script.Scene) {
	if len(cfg.SceneLogos) == 0 {
		return
	}
	resolved := make(map[string]string)
	failed := make(map[string]bool)

	for _, s := range scenes {
		for _, rule := range cfg.SceneLogos {
			if !rule.matches(s.Type) {
				continue
			}
			raw := rule.AssetURL
			if raw == "" {
				raw = cfg.LogoURL
			}
			if raw == "" || failed[raw] {
				break
			}
			url, ok := resolved[raw]
			if !ok {
				url, ok = p.resolve(ctx, plan, asset.KindSceneLogo, s.ID, raw)
				if !ok {
					failed[raw] = true
					break
				}
				resolved[raw] = url
			}
			animation := rule.Animation
			if animation == "" {
				animation = AnimationNone
			}
			plan.PerScene[s.ID] = append(plan.PerScene[s.ID], Overlay{
				Kind:           OverlaySceneLogo,
				Region:         RegionScene,
				SceneID:        s.ID,
				AssetURL:       url,
				Anchor:         rule.Anchor,
				SizePercent:    rule.SizePercent,
				Opacity:        rule.Opacity,
				Animation:      animation,
				UntilRegionEnd: true,
			})
			break // first matching rule wins
		}
	}
}

func (p *Planner) resolve(ctx context.Context, plan *Plan, kind asset.Kind, sceneID, raw string) (string, bool) {
	if p.resolver == nil {
		p.drop(plan, kind, sceneID, raw, errors.New("no resolver configured"))
		return "", false
	}
	url, err := p.resolver.Resolve(ctx, raw)
	if err != nil {
		p.drop(plan, kind, sceneID, raw, err)
		return "", false
	}
	return url, true
}

func (p *Planner) drop(plan *Plan, kind asset.Kind, sceneID, raw string, err error) {
	d := Drop{Kind: kind, SceneID: sceneID, RawURL: raw, Reason: asset.Reason(err)}
	plan.Dropped = append(plan.Dropped, d)
	p.logger.Warn("brand asset dropped",
		zap.String("kind", string(kind)),
		zap.String("scene_id", sceneID),
		zap.String("raw_url", raw),
		zap.String("reason", d.Reason),
	)
}
