package timeline

import (
	"net/url"
	"sort"

	"github.com/uniedit/reelforge/internal/domain/brand"
)

const (
	invContiguous = "contiguous scene coverage"
	invFrameUnit  = "uniform frame unit"
	invOverlap    = "no same-kind overlay overlap"
	invBounds     = "frames within timeline"
	invRegion     = "overlay within region"
	invPublicURL  = "public asset urls"
	invOpacity    = "opacity in [0,1]"
)

// validate checks every RenderSpec invariant.
func validate(s *RenderSpec) error {
	if s.fps <= 0 {
		return violation(invFrameUnit, "fps %d", s.fps)
	}
	if err := validateSceneTrack(s); err != nil {
		return err
	}
	if err := validateOverlays(s); err != nil {
		return err
	}
	return validateAudio(s)
}

func validateSceneTrack(s *RenderSpec) error {
	if len(s.sceneTrack) == 0 {
		return violation(invContiguous, "empty scene track")
	}
	next := 0
	for _, e := range s.sceneTrack {
		if e.DurationFrames <= 0 {
			return violation(invContiguous, "scene %d has %d frames", e.Index, e.DurationFrames)
		}
		if e.StartFrame != next {
			return violation(invContiguous, "scene %d starts at %d, expected %d", e.Index, e.StartFrame, next)
		}
		if !publicURL(e.AssetURL) {
			return violation(invPublicURL, "scene %d asset %q", e.Index, e.AssetURL)
		}
		next = e.EndFrame()
	}
	if next != s.totalFrames {
		return violation(invContiguous, "scenes cover [0,%d) but timeline has %d frames", next, s.totalFrames)
	}
	return nil
}

func validateOverlays(s *RenderSpec) error {
	byKind := make(map[brand.OverlayKind][]OverlayEntry)
	for _, o := range s.overlayTrack {
		if o.DurationFrames <= 0 {
			return violation(invBounds, "%s overlay has %d frames", o.Kind, o.DurationFrames)
		}
		if o.StartFrame < 0 || o.EndFrame() > s.totalFrames {
			return violation(invBounds, "%s overlay [%d,%d) outside [0,%d)", o.Kind, o.StartFrame, o.EndFrame(), s.totalFrames)
		}
		if o.Opacity < 0 || o.Opacity > 1 {
			return violation(invOpacity, "%s overlay opacity %.2f", o.Kind, o.Opacity)
		}
		if o.AssetURL != "" && !publicURL(o.AssetURL) {
			return violation(invPublicURL, "%s overlay asset %q", o.Kind, o.AssetURL)
		}
		if o.AssetURL == "" && o.Text == "" {
			return violation(invPublicURL, "%s overlay has neither asset nor text", o.Kind)
		}
		byKind[o.Kind] = append(byKind[o.Kind], o)
	}
	for kind, list := range byKind {
		sort.Slice(list, func(i, j int) bool { return list[i].StartFrame < list[j].StartFrame })
		for i := 1; i < len(list); i++ {
			if list[i].StartFrame < list[i-1].EndFrame() {
				return violation(invOverlap, "%s overlays [%d,%d) and [%d,%d)", kind,
					list[i-1].StartFrame, list[i-1].EndFrame(), list[i].StartFrame, list[i].EndFrame())
			}
		}
	}
	return nil
}

func validateAudio(s *RenderSpec) error {
	for _, v := range s.voiceover {
		if v.DurationFrames <= 0 || v.StartFrame < 0 || v.StartFrame+v.DurationFrames > s.totalFrames {
			return violation(invBounds, "voiceover for scene %s at [%d,+%d)", v.SceneID, v.StartFrame, v.DurationFrames)
		}
		if !publicURL(v.AssetURL) {
			return violation(invPublicURL, "voiceover asset %q", v.AssetURL)
		}
	}
	for _, c := range s.sfx {
		if c.StartFrame < 0 || c.StartFrame >= s.totalFrames || c.DurationFrames < 0 || c.StartFrame+c.DurationFrames > s.totalFrames {
			return violation(invBounds, "%s cue at [%d,+%d)", c.Kind, c.StartFrame, c.DurationFrames)
		}
		if !publicURL(c.AssetURL) {
			return violation(invPublicURL, "%s cue asset %q", c.Kind, c.AssetURL)
		}
	}
	if m := s.music; m != nil {
		if !publicURL(m.AssetURL) {
			return violation(invPublicURL, "music asset %q", m.AssetURL)
		}
		prev := -1
		for _, k := range m.Envelope {
			if k.Frame <= prev || k.Frame < 0 || k.Frame > s.totalFrames {
				return violation(invBounds, "music keyframe at %d", k.Frame)
			}
			if k.Volume < 0 || k.Volume > 1 {
				return violation(invBounds, "music volume %.3f at %d", k.Volume, k.Frame)
			}
			prev = k.Frame
		}
	}
	return nil
}

func publicURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	return u.Scheme == "https" || u.Scheme == "http"
}
