package generation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/uniedit/reelforge/internal/domain/script"
)

func TestPolicy_ClassifyBoundaries(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		score float64
		want  Band
	}{
		{100, BandApprove},
		{85, BandApprove},
		{84, BandReview},
		{70, BandReview},
		{69, BandRegenerate},
		{50, BandRegenerate},
		{49, BandReject},
		{0, BandReject},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.score), "score %v", tt.score)
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		assert.NoError(t, DefaultPolicy().Validate())
	})

	t.Run("unordered thresholds", func(t *testing.T) {
		p := DefaultPolicy()
		p.ReviewThreshold = 90
		assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
	})

	t.Run("out of range", func(t *testing.T) {
		p := DefaultPolicy()
		p.ApproveThreshold = 120
		assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
	})

	t.Run("zero attempts", func(t *testing.T) {
		p := DefaultPolicy()
		p.MaxAttempts = 0
		assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
	})
}

func TestPolicy_TimeoutFor(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 5*time.Minute, p.TimeoutFor(script.MediaKindVideo))
	assert.Equal(t, 2*time.Minute, p.TimeoutFor(script.MediaKindImage))
	assert.Equal(t, p.DefaultProviderTimeout, p.TimeoutFor(script.MediaKindMusic))
}

func TestParseDefects(t *testing.T) {
	got := ParseDefects([]string{" On-Image-Text", "blank-frame", "on-image-text", "", "sparkles"})
	assert.Equal(t, []Defect{DefectOnImageText, DefectBlankFrame, Defect("sparkles")}, got)
	assert.True(t, got[0].IsKnown())
	assert.False(t, got[2].IsKnown())
	assert.Equal(t, "no defects reported", Summary(nil))
}
