package mediaprovider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPreset is returned for a provider preset this package does not know.
	ErrUnknownPreset = errors.New("unknown provider preset")

	// ErrUnsupportedKind is returned when a provider is asked for a media kind it cannot generate.
	ErrUnsupportedKind = errors.New("media kind not supported by provider")
)

// APIError is a non-success response from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status code: %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the provider may succeed on a later call.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
