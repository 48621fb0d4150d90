package sound

import "errors"

var (
	// ErrInvalidConfig is returned for inconsistent volume or fade settings.
	ErrInvalidConfig = errors.New("invalid sound config")

	// ErrUnknownScene is returned for a voiceover clip naming a scene not on the timeline.
	ErrUnknownScene = errors.New("voiceover clip references unknown scene")

	// ErrNoTable is returned when planning without a frame table.
	ErrNoTable = errors.New("frame table required")
)
