package sound

import (
	"slices"
	"sort"
)

// VoiceoverRange is a half-open frame range where narration plays.
type VoiceoverRange struct {
	SceneID    string `json:"scene_id,omitempty"`
	AssetURL   string `json:"asset_url,omitempty"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
}

// Keyframe is a music volume point; volume is linear between keyframes.
type Keyframe struct {
	Frame  int     `json:"frame"`
	Volume float64 `json:"volume"`
}

// Region is a half-open frame range.
type Region struct {
	Start int `json:"start_frame"`
	End   int `json:"end_frame"`
}

// Envelope is the music ducking curve. Volume ramps from base to duck over the
// fade frames before a voiceover range, holds for the range, and ramps back
// up over the fade frames after it.
type Envelope struct {
	base   float64
	duck   float64
	fade   int
	total  int
	ranges []Region
}

// NewEnvelope builds an envelope. Ranges whose gap is less than twice the
// fade length are merged so the music never bounces between them.
func NewEnvelope(ranges []VoiceoverRange, base, duck float64, fadeFrames, totalFrames int) *Envelope {
	e := &Envelope{base: base, duck: duck, fade: fadeFrames, total: totalFrames}
	e.ranges = mergeRanges(ranges, 2*fadeFrames)
	return e
}

func mergeRanges(ranges []VoiceoverRange, minGap int) []Region {
	var in []Region
	for _, r := range ranges {
		if r.EndFrame > r.StartFrame {
			in = append(in, Region{Start: r.StartFrame, End: r.EndFrame})
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Start < in[j].Start })

	var out []Region
	for _, r := range in {
		if n := len(out); n > 0 && r.Start-out[n-1].End < minGap {
			if r.End > out[n-1].End {
				out[n-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// BaseVolume returns the unducked music volume.
func (e *Envelope) BaseVolume() float64 { return e.base }

// DuckLevel returns the volume held under narration.
func (e *Envelope) DuckLevel() float64 { return e.duck }

// FadeFrames returns the ramp length.
func (e *Envelope) FadeFrames() int { return e.fade }

// VolumeAt returns the music volume at a frame.
func (e *Envelope) VolumeAt(frame int) float64 {
	span := e.base - e.duck
	for _, r := range e.ranges {
		switch {
		case frame >= r.Start && frame < r.End:
			return e.duck
		case e.fade > 0 && frame >= r.Start-e.fade && frame < r.Start:
			return e.base - span*float64(frame-(r.Start-e.fade))/float64(e.fade)
		case e.fade > 0 && frame >= r.End && frame < r.End+e.fade:
			return e.duck + span*float64(frame-r.End)/float64(e.fade)
		}
	}
	return e.base
}

// Ranges returns the merged voiceover ranges.
func (e *Envelope) Ranges() []Region {
	return append([]Region(nil), e.ranges...)
}

// DuckedRegions returns the merged regions including their ramps, clamped to the timeline.
func (e *Envelope) DuckedRegions() []Region {
	out := make([]Region, 0, len(e.ranges))
	for _, r := range e.ranges {
		out = append(out, Region{Start: e.clamp(r.Start - e.fade), End: e.clamp(r.End + e.fade)})
	}
	return out
}

// Keyframes returns the envelope as linear keyframes from frame 0 to the end.
// A zero fade is a hard cut, emitted as a one-frame step on each edge.
func (e *Envelope) Keyframes() []Keyframe {
	frames := []int{0, e.total}
	for _, r := range e.ranges {
		if e.fade == 0 {
			frames = append(frames, r.Start-1, r.Start, r.End-1, r.End)
			continue
		}
		frames = append(frames, r.Start-e.fade, r.Start, r.End, r.End+e.fade)
	}
	for i, f := range frames {
		frames[i] = e.clamp(f)
	}
	slices.Sort(frames)
	frames = slices.Compact(frames)

	out := make([]Keyframe, 0, len(frames))
	for _, f := range frames {
		out = append(out, Keyframe{Frame: f, Volume: e.VolumeAt(f)})
	}
	return out
}

func (e *Envelope) clamp(f int) int {
	if f < 0 {
		return 0
	}
	if e.total > 0 && f > e.total {
		return e.total
	}
	return f
}
