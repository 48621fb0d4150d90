package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned for a transition the state machine forbids.
	ErrInvalidTransition = errors.New("invalid gate transition")

	// ErrGateAlreadyStarted is returned when Run is called twice.
	ErrGateAlreadyStarted = errors.New("gate already started")

	// ErrGateTerminal is returned when cancelling a gate that already finished.
	ErrGateTerminal = errors.New("gate already in terminal state")

	// ErrAttemptPending is returned when starting an attempt while one is pending.
	ErrAttemptPending = errors.New("an attempt is already pending")

	// ErrNoProvider is returned when the provider table has no candidate.
	ErrNoProvider = errors.New("no provider configured for scene")

	// ErrUnknownProvider is returned when a provider id is not registered.
	ErrUnknownProvider = errors.New("provider not registered")

	// ErrInvalidPolicy is returned for inconsistent thresholds.
	ErrInvalidPolicy = errors.New("invalid generation policy")

	// ErrGateCancelled is returned by Run when the scene was cancelled.
	ErrGateCancelled = errors.New("scene generation cancelled")

	// ErrScoreOutOfRange is returned for a score outside [0,100].
	ErrScoreOutOfRange = errors.New("score out of range")
)

// ProviderFailure is a transient provider error: a timeout, an API error or an empty result.
type ProviderFailure struct {
	ProviderID string
	Reason     string
	Err        error
}

func (e *ProviderFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s failed: %s: %v", e.ProviderID, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %s", e.ProviderID, e.Reason)
}

func (e *ProviderFailure) Unwrap() error {
	return e.Err
}

// ScoreRejection is a content-quality rejection of a generated asset.
type ScoreRejection struct {
	Score   float64
	Band    Band
	Defects []Defect
}

func (e *ScoreRejection) Error() string {
	return fmt.Sprintf("score %.1f rejected (%s): %s", e.Score, e.Band, Summary(e.Defects))
}

// Hard reports whether the rejection is below the regenerate threshold.
func (e *ScoreRejection) Hard() bool {
	return e.Band == BandReject
}

// EscalationRequired is returned by Run when the attempt budget is exhausted.
type EscalationRequired struct {
	SceneID  string
	Reason   string
	Attempts int
}

func (e *EscalationRequired) Error() string {
	return fmt.Sprintf("scene %s escalated after %d attempts: %s", e.SceneID, e.Attempts, e.Reason)
}
