package timeline

import (
	"encoding/json"

	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/sound"
)

// SceneEntry places one scene's visual on the scene track.
type SceneEntry struct {
	SceneID        string           `json:"scene_id"`
	Index          int              `json:"index"`
	Type           script.SceneType `json:"type"`
	MediaKind      script.MediaKind `json:"media_kind"`
	AssetURL       string           `json:"asset_url"`
	StartFrame     int              `json:"start_frame"`
	DurationFrames int              `json:"duration_frames"`
	NeedsReview    bool             `json:"needs_review,omitempty"`
	Overridden     bool             `json:"overridden,omitempty"`
}

// EndFrame returns the exclusive end frame.
func (e SceneEntry) EndFrame() int {
	return e.StartFrame + e.DurationFrames
}

// OverlayEntry is a brand overlay at absolute frames.
type OverlayEntry struct {
	Kind           brand.OverlayKind   `json:"kind"`
	Region         brand.Region        `json:"region"`
	SceneID        string              `json:"scene_id,omitempty"`
	AssetURL       string              `json:"asset_url,omitempty"`
	Text           string              `json:"text,omitempty"`
	Anchor         brand.Anchor        `json:"anchor"`
	SizePercent    float64             `json:"size_percent"`
	Opacity        float64             `json:"opacity"`
	Animation      brand.AnimationKind `json:"animation"`
	StartFrame     int                 `json:"start_frame"`
	DurationFrames int                 `json:"duration_frames"`
}

// EndFrame returns the exclusive end frame.
func (e OverlayEntry) EndFrame() int {
	return e.StartFrame + e.DurationFrames
}

// VoiceoverEntry is one narration clip.
type VoiceoverEntry struct {
	SceneID        string `json:"scene_id"`
	AssetURL       string `json:"asset_url"`
	StartFrame     int    `json:"start_frame"`
	DurationFrames int    `json:"duration_frames"`
}

// MusicTrack is the music bed with its ducking envelope.
type MusicTrack struct {
	AssetURL      string           `json:"asset_url"`
	BaseVolume    float64          `json:"base_volume"`
	DuckLevel     float64          `json:"duck_level"`
	FadeFrames    int              `json:"fade_frames"`
	Envelope      []sound.Keyframe `json:"envelope"`
	DuckedRegions []sound.Region   `json:"ducked_regions"`
}

func (m *MusicTrack) clone() *MusicTrack {
	if m == nil {
		return nil
	}
	out := *m
	out.Envelope = append([]sound.Keyframe(nil), m.Envelope...)
	out.DuckedRegions = append([]sound.Region(nil), m.DuckedRegions...)
	return &out
}

// SFXEntry is one resolved sound-effect cue.
type SFXEntry struct {
	Kind           sound.CueKind `json:"kind"`
	AssetKey       string        `json:"asset_key"`
	AssetURL       string        `json:"asset_url"`
	StartFrame     int           `json:"start_frame"`
	DurationFrames int           `json:"duration_frames"`
	Volume         float64       `json:"volume"`
}

// Dropped is a non-essential asset left out of the timeline.
type Dropped struct {
	Kind    string `json:"kind"`
	SceneID string `json:"scene_id,omitempty"`
	RawURL  string `json:"raw_url"`
	Reason  string `json:"reason"`
}

// RenderSpec is the frame-indexed description of every track. It cannot be
// modified once built; changes require composing a new one.
type RenderSpec struct {
	fps          int
	totalFrames  int
	aspectRatio  string
	sceneTrack   []SceneEntry
	overlayTrack []OverlayEntry
	voiceover    []VoiceoverEntry
	music        *MusicTrack
	sfx          []SFXEntry
	dropped      []Dropped
}

// FPS returns the frame rate shared by every track.
func (s *RenderSpec) FPS() int { return s.fps }

// TotalFrames returns the timeline length.
func (s *RenderSpec) TotalFrames() int { return s.totalFrames }

// AspectRatio returns the output aspect ratio.
func (s *RenderSpec) AspectRatio() string { return s.aspectRatio }

// SceneTrack returns a copy of the scene track.
func (s *RenderSpec) SceneTrack() []SceneEntry {
	return append([]SceneEntry(nil), s.sceneTrack...)
}

// OverlayTrack returns a copy of the overlay track.
func (s *RenderSpec) OverlayTrack() []OverlayEntry {
	return append([]OverlayEntry(nil), s.overlayTrack...)
}

// Voiceover returns a copy of the voiceover track.
func (s *RenderSpec) Voiceover() []VoiceoverEntry {
	return append([]VoiceoverEntry(nil), s.voiceover...)
}

// Music returns a copy of the music track, or nil.
func (s *RenderSpec) Music() *MusicTrack {
	return s.music.clone()
}

// SFX returns a copy of the sound-effect track.
func (s *RenderSpec) SFX() []SFXEntry {
	return append([]SFXEntry(nil), s.sfx...)
}

// Dropped returns the non-essential assets that were left out.
func (s *RenderSpec) Dropped() []Dropped {
	return append([]Dropped(nil), s.dropped...)
}

// NeedsReviewCount returns how many scenes were approved with a review flag.
func (s *RenderSpec) NeedsReviewCount() int {
	n := 0
	for _, e := range s.sceneTrack {
		if e.NeedsReview {
			n++
		}
	}
	return n
}

type audioJSON struct {
	Voiceover []VoiceoverEntry `json:"voiceover"`
	Music     *MusicTrack      `json:"music,omitempty"`
	SFX       []SFXEntry       `json:"sfx"`
}

type specJSON struct {
	FPS          int            `json:"fps"`
	TotalFrames  int            `json:"total_frames"`
	AspectRatio  string         `json:"aspect_ratio"`
	SceneTrack   []SceneEntry   `json:"scene_track"`
	OverlayTrack []OverlayEntry `json:"overlay_track"`
	AudioTracks  audioJSON      `json:"audio_tracks"`
	Dropped      []Dropped      `json:"dropped_assets,omitempty"`
}

// MarshalJSON encodes the spec for the render backend and the archive.
func (s *RenderSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(specJSON{
		FPS:          s.fps,
		TotalFrames:  s.totalFrames,
		AspectRatio:  s.aspectRatio,
		SceneTrack:   nonNil(s.sceneTrack),
		OverlayTrack: nonNil(s.overlayTrack),
		AudioTracks: audioJSON{
			Voiceover: nonNil(s.voiceover),
			Music:     s.music,
			SFX:       nonNil(s.sfx),
		},
		Dropped: s.dropped,
	})
}

// Decode parses an encoded spec and re-checks every invariant.
func Decode(data []byte) (*RenderSpec, error) {
	var raw specJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	spec := &RenderSpec{
		fps:          raw.FPS,
		totalFrames:  raw.TotalFrames,
		aspectRatio:  raw.AspectRatio,
		sceneTrack:   raw.SceneTrack,
		overlayTrack: raw.OverlayTrack,
		voiceover:    raw.AudioTracks.Voiceover,
		music:        raw.AudioTracks.Music,
		sfx:          raw.AudioTracks.SFX,
		dropped:      raw.Dropped,
	}
	if err := validate(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
