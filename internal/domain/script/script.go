package script

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultAspectRatio is used when a script does not declare one.
const DefaultAspectRatio = "9:16"

// MediaKind identifies the kind of media a provider produces.
type MediaKind string

const (
	MediaKindVideo     MediaKind = "video"
	MediaKindImage     MediaKind = "image"
	MediaKindVoiceover MediaKind = "voiceover"
	MediaKindMusic     MediaKind = "music"
	MediaKindSFX       MediaKind = "sfx"
)

// IsVisual reports whether the kind can represent a scene on screen.
func (k MediaKind) IsVisual() bool {
	return k == MediaKindVideo || k == MediaKindImage
}

// SceneType is the narrative role of a scene.
type SceneType string

const (
	SceneTypeHook        SceneType = "hook"
	SceneTypeProblem     SceneType = "problem"
	SceneTypeSolution    SceneType = "solution"
	SceneTypeBenefit     SceneType = "benefit"
	SceneTypeTestimonial SceneType = "testimonial"
	SceneTypeBRoll       SceneType = "b-roll"
	SceneTypeCTA         SceneType = "cta"
)

// Scene is one narrated unit of the video.
// DurationSeconds is authoritative and is never inferred from generated media.
type Scene struct {
	ID              string    `json:"id"`
	Index           int       `json:"index"`
	Type            SceneType `json:"type"`
	NarrationText   string    `json:"narration_text"`
	DurationSeconds float64   `json:"duration_seconds"`
	VisualPrompt    string    `json:"visual_prompt"`
	VisualKind      MediaKind `json:"visual_kind,omitempty"`
}

// Kind returns the visual media kind, defaulting to video.
func (s Scene) Kind() MediaKind {
	if s.VisualKind == "" {
		return MediaKindVideo
	}
	return s.VisualKind
}

// Script is the parsed, ordered list of scenes for a project.
type Script struct {
	Title       string  `json:"title"`
	AspectRatio string  `json:"aspect_ratio,omitempty"`
	Scenes      []Scene `json:"scenes"`
}

// Aspect returns the declared aspect ratio or the default one.
func (s *Script) Aspect() string {
	if s.AspectRatio == "" {
		return DefaultAspectRatio
	}
	return s.AspectRatio
}

// Validate checks the scene invariants: positive durations, unique ids,
// and indexes forming 0..N-1 without gaps or duplicates.
func (s *Script) Validate() error {
	if len(s.Scenes) == 0 {
		return ErrNoScenes
	}

	ids := make(map[string]struct{}, len(s.Scenes))
	indexes := make(map[int]string, len(s.Scenes))
	for _, sc := range s.Scenes {
		if strings.TrimSpace(sc.ID) == "" {
			return fmt.Errorf("%w: scene at index %d", ErrMissingSceneID, sc.Index)
		}
		if _, dup := ids[sc.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSceneID, sc.ID)
		}
		ids[sc.ID] = struct{}{}

		if math.IsNaN(sc.DurationSeconds) || math.IsInf(sc.DurationSeconds, 0) || sc.DurationSeconds <= 0 {
			return fmt.Errorf("%w: scene %s has %v", ErrInvalidDuration, sc.ID, sc.DurationSeconds)
		}
		if !sc.Kind().IsVisual() {
			return fmt.Errorf("%w: scene %s has %s", ErrInvalidVisualKind, sc.ID, sc.VisualKind)
		}

		if other, dup := indexes[sc.Index]; dup {
			return fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateIndex, sc.Index, other, sc.ID)
		}
		indexes[sc.Index] = sc.ID
	}

	for i := range s.Scenes {
		if _, ok := indexes[i]; !ok {
			return fmt.Errorf("%w: missing index %d", ErrIndexGap, i)
		}
	}
	return nil
}

// Ordered returns a copy of the scenes sorted by index.
func (s *Script) Ordered() []Scene {
	out := make([]Scene, len(s.Scenes))
	copy(out, s.Scenes)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Scene looks up a scene by id.
func (s *Script) Scene(id string) (Scene, bool) {
	for _, sc := range s.Scenes {
		if sc.ID == id {
			return sc, true
		}
	}
	return Scene{}, false
}

// TotalSeconds sums every scene duration.
func (s *Script) TotalSeconds() float64 {
	var total float64
	for _, sc := range s.Scenes {
		total += sc.DurationSeconds
	}
	return total
}
