package script

import "errors"

var (
	// ErrNoScenes is returned when a script has no scenes.
	ErrNoScenes = errors.New("script has no scenes")

	// ErrMissingSceneID is returned when a scene has an empty id.
	ErrMissingSceneID = errors.New("scene id is required")

	// ErrDuplicateSceneID is returned when two scenes share an id.
	ErrDuplicateSceneID = errors.New("duplicate scene id")

	// ErrInvalidDuration is returned when a scene duration is not positive.
	ErrInvalidDuration = errors.New("scene duration must be positive")

	// ErrInvalidVisualKind is returned when a scene asks for a non-visual kind.
	ErrInvalidVisualKind = errors.New("scene visual kind must be video or image")

	// ErrDuplicateIndex is returned when two scenes share an index.
	ErrDuplicateIndex = errors.New("duplicate scene index")

	// ErrIndexGap is returned when scene indexes are not contiguous from 0.
	ErrIndexGap = errors.New("scene indexes must be contiguous from 0")
)
