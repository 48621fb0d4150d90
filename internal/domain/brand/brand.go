// Package brand plans where brand overlays appear on the timeline.
package brand

import (
	"fmt"

	"github.com/uniedit/reelforge/internal/domain/script"
)

// OverlayKind identifies a brand overlay.
type OverlayKind string

const (
	OverlayIntro     OverlayKind = "intro"
	OverlayWatermark OverlayKind = "watermark"
	OverlayCTA       OverlayKind = "cta"
	OverlaySceneLogo OverlayKind = "scene-logo"
	OverlayOutroLogo OverlayKind = "outro-logo"
)

// AnimationKind is how an overlay enters the frame.
type AnimationKind string

const (
	AnimationFade  AnimationKind = "fade"
	AnimationZoom  AnimationKind = "zoom"
	AnimationSlide AnimationKind = "slide"
	AnimationNone  AnimationKind = "none"
)

// animationInSeconds is how long an entry animation takes before the overlay is fully revealed.
const animationInSeconds = 0.5

// InSeconds returns the entry animation length.
func (a AnimationKind) InSeconds() float64 {
	switch a {
	case AnimationFade, AnimationZoom, AnimationSlide:
		return animationInSeconds
	default:
		return 0
	}
}

func (a AnimationKind) valid() bool {
	switch a {
	case "", AnimationFade, AnimationZoom, AnimationSlide, AnimationNone:
		return true
	}
	return false
}

// Region is the timeline region an overlay's timing is relative to.
type Region string

const (
	RegionIntro Region = "intro"
	RegionBody  Region = "body"
	RegionOutro Region = "outro"
	RegionScene Region = "scene"
)

// Position is a named frame anchor.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopCenter    Position = "top-center"
	PositionTopRight     Position = "top-right"
	PositionCenter       Position = "center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
	PositionBottomRight  Position = "bottom-right"
)

// Anchor is a named position plus offsets in percent of the frame.
type Anchor struct {
	Position       Position `json:"position" mapstructure:"position"`
	OffsetXPercent float64  `json:"offset_x_percent" mapstructure:"offset_x_percent"`
	OffsetYPercent float64  `json:"offset_y_percent" mapstructure:"offset_y_percent"`
}

func (a Anchor) validate() error {
	if a.OffsetXPercent < 0 || a.OffsetXPercent > 100 || a.OffsetYPercent < 0 || a.OffsetYPercent > 100 {
		return fmt.Errorf("%w: anchor offsets must lie in [0,100]", ErrInvalidConfig)
	}
	return nil
}

// Overlay is one placement instruction. StartSeconds is relative to the
// start of Region; UntilRegionEnd replaces DurationSeconds with the rest of the region.
type Overlay struct {
	Kind            OverlayKind   `json:"kind"`
	Region          Region        `json:"region"`
	SceneID         string        `json:"scene_id,omitempty"`
	AssetURL        string        `json:"asset_url,omitempty"`
	Text            string        `json:"text,omitempty"`
	Anchor          Anchor        `json:"anchor"`
	SizePercent     float64       `json:"size_percent"`
	Opacity         float64       `json:"opacity"`
	Animation       AnimationKind `json:"animation"`
	StartSeconds    float64       `json:"start_seconds"`
	DurationSeconds float64       `json:"duration_seconds,omitempty"`
	UntilRegionEnd  bool          `json:"until_region_end,omitempty"`
}

// IntroConfig configures the opening logo animation.
type IntroConfig struct {
	Enabled         bool          `json:"enabled" mapstructure:"enabled"`
	Animation       AnimationKind `json:"animation" mapstructure:"animation"`
	DurationSeconds float64       `json:"duration_seconds" mapstructure:"duration_seconds"`
	Anchor          Anchor        `json:"anchor" mapstructure:"anchor"`
	SizePercent     float64       `json:"size_percent" mapstructure:"size_percent"`
}

// WatermarkConfig configures the body watermark. One position, size and
// opacity is used for the whole video.
type WatermarkConfig struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
	AssetURL    string  `json:"asset_url" mapstructure:"asset_url"`
	Anchor      Anchor  `json:"anchor" mapstructure:"anchor"`
	SizePercent float64 `json:"size_percent" mapstructure:"size_percent"`
	Opacity     float64 `json:"opacity" mapstructure:"opacity"`
}

// OutroConfig configures the final-scene logo and call to action.
type OutroConfig struct {
	Enabled     bool          `json:"enabled" mapstructure:"enabled"`
	LogoURL     string        `json:"logo_url" mapstructure:"logo_url"`
	CTAText     string        `json:"cta_text" mapstructure:"cta_text"`
	Anchor      Anchor        `json:"anchor" mapstructure:"anchor"`
	CTAAnchor   Anchor        `json:"cta_anchor" mapstructure:"cta_anchor"`
	SizePercent float64       `json:"size_percent" mapstructure:"size_percent"`
	Animation   AnimationKind `json:"animation" mapstructure:"animation"`
}

// SceneLogoRule places a logo on every scene of the listed types.
type SceneLogoRule struct {
	SceneTypes  []script.SceneType `json:"scene_types" mapstructure:"scene_types"`
	AssetURL    string             `json:"asset_url" mapstructure:"asset_url"`
	Anchor      Anchor             `json:"anchor" mapstructure:"anchor"`
	SizePercent float64            `json:"size_percent" mapstructure:"size_percent"`
	Opacity     float64            `json:"opacity" mapstructure:"opacity"`
	Animation   AnimationKind      `json:"animation" mapstructure:"animation"`
}

func (r SceneLogoRule) matches(t script.SceneType) bool {
	for _, st := range r.SceneTypes {
		if st == t {
			return true
		}
	}
	return false
}

// Config is a project's brand configuration.
type Config struct {
	LogoURL    string          `json:"logo_url" mapstructure:"logo_url"`
	Intro      IntroConfig     `json:"intro" mapstructure:"intro"`
	Watermark  WatermarkConfig `json:"watermark" mapstructure:"watermark"`
	Outro      OutroConfig     `json:"outro" mapstructure:"outro"`
	SceneLogos []SceneLogoRule `json:"scene_logos" mapstructure:"scene_logos"`
}

// MinIntroWindowSeconds is the shortest first scene that can hold the intro animation.
const MinIntroWindowSeconds = 1.5

// minCTAVisibleSeconds is how long the CTA must stay on screen once its entry animation ends.
const minCTAVisibleSeconds = 0.5

// OutroWindowSeconds returns the shortest final scene that can hold the outro
// pair: the CTA entry delay plus a visible CTA.
func OutroWindowSeconds(a AnimationKind) float64 {
	return a.InSeconds() + minCTAVisibleSeconds
}

// DefaultConfig returns brand defaults without any asset URLs.
func DefaultConfig() *Config {
	return &Config{
		Intro: IntroConfig{
			Enabled:         true,
			Animation:       AnimationFade,
			DurationSeconds: 2.5,
			Anchor:          Anchor{Position: PositionCenter},
			SizePercent:     30,
		},
		Watermark: WatermarkConfig{
			Enabled:     true,
			Anchor:      Anchor{Position: PositionBottomRight, OffsetXPercent: 3, OffsetYPercent: 3},
			SizePercent: 10,
			Opacity:     0.6,
		},
		Outro: OutroConfig{
			Enabled:     true,
			Anchor:      Anchor{Position: PositionCenter},
			CTAAnchor:   Anchor{Position: PositionBottomCenter, OffsetYPercent: 12},
			SizePercent: 35,
			Animation:   AnimationZoom,
		},
	}
}

// Validate checks opacities, sizes, anchors and animation kinds.
func (c *Config) Validate() error {
	if !c.Intro.Animation.valid() || !c.Outro.Animation.valid() {
		return fmt.Errorf("%w: unknown animation kind", ErrInvalidConfig)
	}
	if c.Intro.DurationSeconds < 0 {
		return fmt.Errorf("%w: intro duration must not be negative", ErrInvalidConfig)
	}
	if c.Watermark.Opacity < 0 || c.Watermark.Opacity > 1 {
		return fmt.Errorf("%w: watermark opacity must lie in [0,1]", ErrInvalidConfig)
	}
	for _, size := range []float64{c.Intro.SizePercent, c.Watermark.SizePercent, c.Outro.SizePercent} {
		if size < 0 || size > 100 {
			return fmt.Errorf("%w: size must lie in [0,100]", ErrInvalidConfig)
		}
	}
	for _, a := range []Anchor{c.Intro.Anchor, c.Watermark.Anchor, c.Outro.Anchor, c.Outro.CTAAnchor} {
		if err := a.validate(); err != nil {
			return err
		}
	}
	for i, r := range c.SceneLogos {
		if r.Opacity < 0 || r.Opacity > 1 {
			return fmt.Errorf("%w: scene logo %d opacity must lie in [0,1]", ErrInvalidConfig, i)
		}
		if r.SizePercent < 0 || r.SizePercent > 100 {
			return fmt.Errorf("%w: scene logo %d size must lie in [0,100]", ErrInvalidConfig, i)
		}
		if !r.Animation.valid() {
			return fmt.Errorf("%w: scene logo %d animation", ErrInvalidConfig, i)
		}
		if err := r.Anchor.validate(); err != nil {
			return err
		}
	}
	return nil
}
