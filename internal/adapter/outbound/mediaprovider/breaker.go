package mediaprovider

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

// BreakerConfig contains circuit breaker configuration.
type BreakerConfig struct {
	FailureThreshold    uint32        `mapstructure:"failure_threshold"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxHalfOpenRequests uint32        `mapstructure:"max_half_open_requests"`
}

// DefaultBreakerConfig returns the default circuit breaker configuration.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold:    5,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// BreakerAdapter wraps a provider with a circuit breaker. While the breaker
// is open, calls fail fast with gobreaker.ErrOpenState.
type BreakerAdapter struct {
	next    generation.ProviderAdapter
	breaker *gobreaker.CircuitBreaker[*generation.GenerationResult]
}

// WithBreaker decorates next with a circuit breaker.
func WithBreaker(next generation.ProviderAdapter, config *BreakerConfig, logger *zap.Logger) *BreakerAdapter {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := config.FailureThreshold
	settings := gobreaker.Settings{
		Name:        next.ID(),
		MaxRequests: config.MaxHalfOpenRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerAdapter{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*generation.GenerationResult](settings),
	}
}

func (b *BreakerAdapter) ID() string                          { return b.next.ID() }
func (b *BreakerAdapter) Supports(kind script.MediaKind) bool { return b.next.Supports(kind) }

// State returns the breaker state.
func (b *BreakerAdapter) State() gobreaker.State {
	return b.breaker.State()
}

func (b *BreakerAdapter) Generate(ctx context.Context, req *generation.GenerationRequest) (*generation.GenerationResult, error) {
	return b.breaker.Execute(func() (*generation.GenerationResult, error) {
		return b.next.Generate(ctx, req)
	})
}

// Compile-time interface check
var _ generation.ProviderAdapter = (*BreakerAdapter)(nil)
