package brand

import "errors"

var (
	// ErrInvalidConfig is returned for out-of-range brand parameters.
	ErrInvalidConfig = errors.New("invalid brand config")

	// ErrNoScenes is returned when planning for an empty scene list.
	ErrNoScenes = errors.New("no scenes to brand")
)
