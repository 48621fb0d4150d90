package generation

import (
	"fmt"
	"time"

	"github.com/uniedit/reelforge/internal/domain/script"
)

// Band is the decision bucket for a score.
type Band string

const (
	BandApprove    Band = "approve"
	BandReview     Band = "review"
	BandRegenerate Band = "regenerate"
	BandReject     Band = "reject"
)

// Policy holds the gate's score thresholds, attempt budget and provider timeouts.
type Policy struct {
	ApproveThreshold    float64 `mapstructure:"approve_threshold"`
	ReviewThreshold     float64 `mapstructure:"review_threshold"`
	RegenerateThreshold float64 `mapstructure:"regenerate_threshold"`
	MaxAttempts         int     `mapstructure:"max_attempts"`

	// ProviderTimeouts overrides DefaultProviderTimeout per media kind.
	ProviderTimeouts       map[script.MediaKind]time.Duration `mapstructure:"provider_timeouts"`
	DefaultProviderTimeout time.Duration                      `mapstructure:"default_provider_timeout"`
}

// DefaultPolicy returns the default thresholds 85/70/50 and three attempts.
func DefaultPolicy() *Policy {
	return &Policy{
		ApproveThreshold:    85,
		ReviewThreshold:     70,
		RegenerateThreshold: 50,
		MaxAttempts:         3,
		ProviderTimeouts: map[script.MediaKind]time.Duration{
			script.MediaKindVideo: 5 * time.Minute,
			script.MediaKindImage: 2 * time.Minute,
		},
		DefaultProviderTimeout: 5 * time.Minute,
	}
}

// Validate checks 0 <= regenerate <= review <= approve <= 100 and a positive attempt budget.
func (p *Policy) Validate() error {
	if p.RegenerateThreshold < 0 || p.ApproveThreshold > 100 {
		return fmt.Errorf("%w: thresholds must lie in [0,100]", ErrInvalidPolicy)
	}
	if p.RegenerateThreshold > p.ReviewThreshold || p.ReviewThreshold > p.ApproveThreshold {
		return fmt.Errorf("%w: thresholds must satisfy regenerate <= review <= approve", ErrInvalidPolicy)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1", ErrInvalidPolicy)
	}
	if p.DefaultProviderTimeout <= 0 {
		return fmt.Errorf("%w: provider timeout must be positive", ErrInvalidPolicy)
	}
	return nil
}

// Classify maps a score to its band. Lower bounds are inclusive.
func (p *Policy) Classify(score float64) Band {
	switch {
	case score >= p.ApproveThreshold:
		return BandApprove
	case score >= p.ReviewThreshold:
		return BandReview
	case score >= p.RegenerateThreshold:
		return BandRegenerate
	default:
		return BandReject
	}
}

// TimeoutFor returns the per-call provider timeout for a media kind.
func (p *Policy) TimeoutFor(kind script.MediaKind) time.Duration {
	if d, ok := p.ProviderTimeouts[kind]; ok && d > 0 {
		return d
	}
	return p.DefaultProviderTimeout
}
