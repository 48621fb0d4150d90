package mediaprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

type stubProvider struct {
	id    string
	err   error
	calls int
}

func (s *stubProvider) ID() string                          { return s.id }
func (s *stubProvider) Supports(kind script.MediaKind) bool { return kind == script.MediaKindVideo }

func (s *stubProvider) Generate(_ context.Context, _ *generation.GenerationRequest) (*generation.GenerationResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &generation.GenerationResult{AssetURL: "https://cdn.example.com/a.mp4"}, nil
}

func breakerConfig() *BreakerConfig {
	return &BreakerConfig{FailureThreshold: 2, Interval: time.Minute, Timeout: time.Minute, MaxHalfOpenRequests: 1}
}

func TestBreakerAdapter(t *testing.T) {
	t.Run("opens after consecutive failures", func(t *testing.T) {
		stub := &stubProvider{id: "runway", err: errors.New("upstream 503")}
		b := WithBreaker(stub, breakerConfig(), nil)

		for i := 0; i < 2; i++ {
			_, err := b.Generate(context.Background(), &generation.GenerationRequest{})
			require.Error(t, err)
		}
		assert.Equal(t, gobreaker.StateOpen, b.State())

		_, err := b.Generate(context.Background(), &generation.GenerationRequest{})
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 2, stub.calls)
	})

	t.Run("cancellation does not trip", func(t *testing.T) {
		stub := &stubProvider{id: "runway", err: context.Canceled}
		b := WithBreaker(stub, breakerConfig(), nil)

		for i := 0; i < 3; i++ {
			_, err := b.Generate(context.Background(), &generation.GenerationRequest{})
			assert.ErrorIs(t, err, context.Canceled)
		}
		assert.Equal(t, gobreaker.StateClosed, b.State())
		assert.Equal(t, 3, stub.calls)
	})

	t.Run("passes through identity and success", func(t *testing.T) {
		stub := &stubProvider{id: "kling"}
		b := WithBreaker(stub, nil, nil)
		assert.Equal(t, "kling", b.ID())
		assert.True(t, b.Supports(script.MediaKindVideo))

		result, err := b.Generate(context.Background(), &generation.GenerationRequest{})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.mp4", result.AssetURL)
	})
}
