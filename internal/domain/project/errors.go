package project

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProjectNotFound is returned for an unknown project id.
	ErrProjectNotFound = errors.New("project not found")

	// ErrSceneNotFound is returned for a scene id the project does not contain.
	ErrSceneNotFound = errors.New("scene not found")

	// ErrInvalidScript is returned when a submitted script fails validation.
	ErrInvalidScript = errors.New("invalid script")

	// ErrInvalidBrand is returned when a submitted brand configuration fails validation.
	ErrInvalidBrand = errors.New("invalid brand configuration")

	// ErrProjectCancelled is returned for operations on a cancelled project.
	ErrProjectCancelled = errors.New("project cancelled")

	// ErrSceneTerminal is returned when cancelling a scene that already finished.
	ErrSceneTerminal = errors.New("scene already finished")

	// ErrOverrideNotAllowed is returned when overriding a scene that is not escalated or cancelled.
	ErrOverrideNotAllowed = errors.New("scene cannot be overridden")

	// ErrInvalidOverride is returned when an override asset cannot be made public.
	ErrInvalidOverride = errors.New("override asset not publicly resolvable")

	// ErrNeedsReview is returned when composing with escalated scenes left unresolved.
	ErrNeedsReview = errors.New("scenes need review")

	// ErrCompositionStale is returned when overrides keep invalidating a composition in progress.
	ErrCompositionStale = errors.New("composition superseded by overrides")

	// ErrNotComposed is returned when rendering before composing.
	ErrNotComposed = errors.New("project not composed")

	// ErrRenderUnavailable is returned when no render backend or output store is configured.
	ErrRenderUnavailable = errors.New("render backend unavailable")
)

// NeedsReviewError lists the scenes blocking composition.
type NeedsReviewError struct {
	SceneIDs []string
}

func (e *NeedsReviewError) Error() string {
	return fmt.Sprintf("%s: %s", reviewMessage(len(e.SceneIDs)), strings.Join(e.SceneIDs, ", "))
}

func (e *NeedsReviewError) Unwrap() error {
	return ErrNeedsReview
}

func reviewMessage(n int) string {
	if n == 1 {
		return "1 scene needs review"
	}
	return fmt.Sprintf("%d scenes need review", n)
}
