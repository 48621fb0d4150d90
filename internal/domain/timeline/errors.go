package timeline

import (
	"errors"
	"fmt"

	"github.com/uniedit/reelforge/internal/domain/generation"
)

var (
	// ErrSceneNotReady is wrapped by SceneNotReadyError.
	ErrSceneNotReady = errors.New("scene not ready")

	// ErrInvariantViolation is wrapped by InvariantViolation.
	ErrInvariantViolation = errors.New("timeline invariant violated")

	// ErrEssentialAsset is returned when a scene visual or voiceover cannot be made public.
	ErrEssentialAsset = errors.New("essential asset unresolvable")
)

// SceneNotReadyError reports the first scene without a renderable asset.
type SceneNotReadyError struct {
	SceneID  string
	Index    int
	Status   generation.Status
	NotReady int
}

func (e *SceneNotReadyError) Error() string {
	msg := fmt.Sprintf("scene %d not ready: %s", e.Index, e.Status)
	if e.NotReady > 1 {
		msg += fmt.Sprintf(" (%d scenes not ready)", e.NotReady)
	}
	return msg
}

func (e *SceneNotReadyError) Unwrap() error {
	return ErrSceneNotReady
}

// InvariantViolation is a fatal construction error. The composer never
// repairs its input.
type InvariantViolation struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("timeline invariant violated: %s: %s", e.Invariant, e.Detail)
}

func (e *InvariantViolation) Unwrap() error {
	return ErrInvariantViolation
}

func violation(invariant, format string, args ...any) error {
	return &InvariantViolation{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}
