// Package frames owns the single seconds-to-frames rounding rule used by every
// track of a render timeline.
package frames

import (
	"errors"
	"fmt"
	"math"

	"github.com/uniedit/reelforge/internal/domain/script"
)

var (
	// ErrInvalidFPS is returned for a non-positive frame rate.
	ErrInvalidFPS = errors.New("fps must be positive")

	// ErrNoScenes is returned when a table is built from no scenes.
	ErrNoScenes = errors.New("frame table needs at least one scene")
)

// Clock converts between seconds and frames at a fixed frame rate.
type Clock struct {
	fps int
}

// NewClock creates a clock for the given frame rate.
func NewClock(fps int) (Clock, error) {
	if fps <= 0 {
		return Clock{}, fmt.Errorf("%w: %d", ErrInvalidFPS, fps)
	}
	return Clock{fps: fps}, nil
}

// FPS returns the frame rate.
func (c Clock) FPS() int {
	return c.fps
}

// ToFrames rounds seconds*fps half-up.
func (c Clock) ToFrames(seconds float64) int {
	return int(math.Floor(seconds*float64(c.fps) + 0.5))
}

// ToSeconds converts a frame index back to seconds.
func (c Clock) ToSeconds(frame int) float64 {
	return float64(frame) / float64(c.fps)
}

// Span is the frame interval [Start, Start+Duration) occupied by one scene.
type Span struct {
	SceneID  string
	Index    int
	Type     script.SceneType
	Start    int
	Duration int
}

// End returns the exclusive end frame.
func (s Span) End() int {
	return s.Start + s.Duration
}

// Contains reports whether frame lies inside the span.
func (s Span) Contains(frame int) bool {
	return frame >= s.Start && frame < s.End()
}

// Table is the per-project frame layout. Each scene duration is rounded once
// and start frames are running sums of the rounded durations.
type Table struct {
	clock Clock
	spans []Span
	total int
}

// BuildTable lays out scenes in the order given.
func BuildTable(clock Clock, scenes []script.Scene) (*Table, error) {
	if clock.fps <= 0 {
		return nil, ErrInvalidFPS
	}
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	spans := make([]Span, len(scenes))
	start := 0
	for i, sc := range scenes {
		d := clock.ToFrames(sc.DurationSeconds)
		spans[i] = Span{
			SceneID:  sc.ID,
			Index:    sc.Index,
			Type:     sc.Type,
			Start:    start,
			Duration: d,
		}
		start += d
	}

	return &Table{clock: clock, spans: spans, total: start}, nil
}

// Clock returns the clock the table was built with.
func (t *Table) Clock() Clock {
	return t.clock
}

// TotalFrames returns the sum of all scene durations in frames.
func (t *Table) TotalFrames() int {
	return t.total
}

// Len returns the number of scenes.
func (t *Table) Len() int {
	return len(t.spans)
}

// Spans returns a copy of the spans in timeline order.
func (t *Table) Spans() []Span {
	out := make([]Span, len(t.spans))
	copy(out, t.spans)
	return out
}

// At returns the i-th span.
func (t *Table) At(i int) Span {
	return t.spans[i]
}

// First returns the opening span.
func (t *Table) First() Span {
	return t.spans[0]
}

// Last returns the closing span.
func (t *Table) Last() Span {
	return t.spans[len(t.spans)-1]
}

// SpanFor looks up the span of a scene.
func (t *Table) SpanFor(sceneID string) (Span, bool) {
	for _, s := range t.spans {
		if s.SceneID == sceneID {
			return s, true
		}
	}
	return Span{}, false
}

// Boundaries returns the start frame of every scene after the first.
func (t *Table) Boundaries() []int {
	if len(t.spans) < 2 {
		return nil
	}
	out := make([]int, 0, len(t.spans)-1)
	for _, s := range t.spans[1:] {
		out = append(out, s.Start)
	}
	return out
}
