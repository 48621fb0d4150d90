// Package sound places sound-effect cues and derives the music ducking envelope.
package sound

import (
	"fmt"
	"sort"

	"github.com/uniedit/reelforge/internal/domain/frames"
)

// CueKind identifies a sound-effect cue.
type CueKind string

const (
	CueTransition CueKind = "transition"
	CueImpact     CueKind = "impact"
	CueRiseSwell  CueKind = "rise-swell"
	CueAmbient    CueKind = "ambient"
)

// Cue is one sound effect on the timeline. Frames are absolute; the seconds
// fields are derived from them with the same clock.
type Cue struct {
	Kind            CueKind `json:"kind"`
	AtFrame         int     `json:"at_frame"`
	DurationFrames  int     `json:"duration_frames"`
	AtSeconds       float64 `json:"at_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
	AssetKey        string  `json:"asset_key"`
	Volume          float64 `json:"volume"`
}

// Config holds mixing levels and cue parameters.
type Config struct {
	BaseVolume      float64 `mapstructure:"base_volume"`
	DuckLevel       float64 `mapstructure:"duck_level"`
	FadeFrames      int     `mapstructure:"fade_frames"`
	RiseLeadSeconds float64 `mapstructure:"rise_lead_seconds"`

	TransitionKey     string  `mapstructure:"transition_key"`
	TransitionSeconds float64 `mapstructure:"transition_seconds"`
	ImpactKey         string  `mapstructure:"impact_key"`
	ImpactSeconds     float64 `mapstructure:"impact_seconds"`
	RiseKey           string  `mapstructure:"rise_key"`
	AmbientKey        string  `mapstructure:"ambient_key"`
	AmbientVolume     float64 `mapstructure:"ambient_volume"`
	CueVolume         float64 `mapstructure:"cue_volume"`
}

// DefaultConfig returns the default mix: music at 0.35 ducked to 0.1 over 15 frames.
func DefaultConfig() *Config {
	return &Config{
		BaseVolume:        0.35,
		DuckLevel:         0.1,
		FadeFrames:        15,
		RiseLeadSeconds:   3,
		TransitionKey:     "whoosh",
		TransitionSeconds: 0.6,
		ImpactKey:         "impact",
		ImpactSeconds:     1,
		RiseKey:           "rise",
		AmbientVolume:     0.15,
		CueVolume:         0.8,
	}
}

// Validate checks volumes lie in [0,1] with the duck level at or below the base.
func (c *Config) Validate() error {
	for _, v := range []float64{c.BaseVolume, c.DuckLevel, c.AmbientVolume, c.CueVolume} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: volumes must lie in [0,1]", ErrInvalidConfig)
		}
	}
	if c.DuckLevel > c.BaseVolume {
		return fmt.Errorf("%w: duck level above base volume", ErrInvalidConfig)
	}
	if c.FadeFrames < 0 || c.RiseLeadSeconds < 0 || c.TransitionSeconds < 0 || c.ImpactSeconds < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	return nil
}

// VoiceoverClip says where narration plays within a scene. A non-positive
// duration means the narration runs to the end of the scene.
type VoiceoverClip struct {
	SceneID         string  `json:"scene_id"`
	AssetURL        string  `json:"asset_url"`
	OffsetSeconds   float64 `json:"offset_seconds"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Input is what the sound planner needs from the rest of the timeline.
type Input struct {
	Table     *frames.Table
	Voiceover []VoiceoverClip

	// HasIntro and IntroRevealSeconds place the impact cue.
	HasIntro           bool
	IntroRevealSeconds float64

	// HasOutro places the rise cue ahead of the final scene.
	HasOutro bool
}

// Plan is the sound design for a project.
type Plan struct {
	Transitions     []Cue
	Impacts         []Cue
	RiseSwell       *Cue
	Ambient         *Cue
	VoiceoverRanges []VoiceoverRange
	Envelope        *Envelope
}

// Cues returns every cue ordered by start frame.
func (p *Plan) Cues() []Cue {
	out := make([]Cue, 0, len(p.Transitions)+len(p.Impacts)+2)
	if p.Ambient != nil {
		out = append(out, *p.Ambient)
	}
	out = append(out, p.Transitions...)
	out = append(out, p.Impacts...)
	if p.RiseSwell != nil {
		out = append(out, *p.RiseSwell)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AtFrame < out[j].AtFrame })
	return out
}

// Planner computes sound plans.
type Planner struct {
	config *Config
}

// NewPlanner creates a sound planner.
func NewPlanner(config *Config) *Planner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Planner{config: config}
}

// Config returns the planner configuration.
func (p *Planner) Config() *Config {
	return p.config
}

// Plan places cues and builds the ducking envelope on the input's frame table.
func (p *Planner) Plan(in Input) (*Plan, error) {
	if in.Table == nil || in.Table.Len() == 0 {
		return nil, ErrNoTable
	}
	if err := p.config.Validate(); err != nil {
		return nil, err
	}

	table := in.Table
	clock := table.Clock()
	total := table.TotalFrames()
	plan := &Plan{}

	// one transition per boundary, none after the last scene
	if p.config.TransitionKey != "" {
		for _, b := range table.Boundaries() {
			plan.Transitions = append(plan.Transitions,
				p.cue(clock, total, CueTransition, b, clock.ToFrames(p.config.TransitionSeconds), p.config.TransitionKey, p.config.CueVolume))
		}
	}

	if in.HasIntro && p.config.ImpactKey != "" {
		at := clock.ToFrames(in.IntroRevealSeconds)
		if at < total {
			plan.Impacts = append(plan.Impacts,
				p.cue(clock, total, CueImpact, at, clock.ToFrames(p.config.ImpactSeconds), p.config.ImpactKey, p.config.CueVolume))
		}
	}

	if in.HasOutro && p.config.RiseKey != "" {
		outroStart := table.Last().Start
		at := outroStart - clock.ToFrames(p.config.RiseLeadSeconds)
		if at < 0 {
			at = 0
		}
		if outroStart > at {
			c := p.cue(clock, total, CueRiseSwell, at, outroStart-at, p.config.RiseKey, p.config.CueVolume)
			plan.RiseSwell = &c
		}
	}

	if p.config.AmbientKey != "" {
		c := p.cue(clock, total, CueAmbient, 0, total, p.config.AmbientKey, p.config.AmbientVolume)
		plan.Ambient = &c
	}

	ranges, err := voiceoverRanges(table, in.Voiceover)
	if err != nil {
		return nil, err
	}
	plan.VoiceoverRanges = ranges
	plan.Envelope = NewEnvelope(ranges, p.config.BaseVolume, p.config.DuckLevel, p.config.FadeFrames, total)
	return plan, nil
}

// cue builds a cue clamped to the timeline.
func (p *Planner) cue(clock frames.Clock, total int, kind CueKind, at, duration int, key string, volume float64) Cue {
	if at+duration > total {
		duration = total - at
	}
	if duration < 0 {
		duration = 0
	}
	return Cue{
		Kind:            kind,
		AtFrame:         at,
		DurationFrames:  duration,
		AtSeconds:       clock.ToSeconds(at),
		DurationSeconds: clock.ToSeconds(duration),
		AssetKey:        key,
		Volume:          volume,
	}
}

// voiceoverRanges maps clips onto absolute frames, clipped to their scene.
func voiceoverRanges(table *frames.Table, clips []VoiceoverClip) ([]VoiceoverRange, error) {
	clock := table.Clock()
	out := make([]VoiceoverRange, 0, len(clips))
	for _, c := range clips {
		span, ok := table.SpanFor(c.SceneID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScene, c.SceneID)
		}
		start := span.Start + clock.ToFrames(c.OffsetSeconds)
		end := span.End()
		if c.DurationSeconds > 0 {
			end = start + clock.ToFrames(c.DurationSeconds)
		}
		if end > span.End() {
			end = span.End()
		}
		if start >= end {
			continue
		}
		out = append(out, VoiceoverRange{SceneID: c.SceneID, AssetURL: c.AssetURL, StartFrame: start, EndFrame: end})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartFrame < out[j].StartFrame })
	return out, nil
}
