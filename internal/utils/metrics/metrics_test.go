package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

func newTestMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New("test", reg), reg
}

func TestNew(t *testing.T) {
	m, reg := newTestMetrics()
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.AttemptsTotal)
	assert.NotNil(t, m.CompositionsTotal)

	m.RecordTerminal(generation.StatusApproved)
	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, _ := newTestMetrics()

	t.Run("buckets status codes", func(t *testing.T) {
		m.RecordHTTPRequest("GET", "/api/v1/projects/:id", 200, 10*time.Millisecond)
		m.RecordHTTPRequest("POST", "/api/v1/projects", 422, time.Millisecond)
		m.RecordHTTPRequest("POST", "/api/v1/projects", 409, time.Millisecond)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/projects/:id", "2xx")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/projects", "4xx")))
	})
}

func TestMetrics_RecordAttempt(t *testing.T) {
	m, _ := newTestMetrics()
	started := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	finished := started.Add(42 * time.Second)
	score := 88.0

	t.Run("scored attempt", func(t *testing.T) {
		m.RecordAttempt(script.MediaKindVideo, generation.Attempt{
			ProviderID: "runway",
			Outcome:    generation.OutcomeSucceeded,
			Score:      &score,
			StartedAt:  started,
			FinishedAt: &finished,
		})
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("video", "runway", "succeeded")))
		assert.Equal(t, 1, testutil.CollectAndCount(m.AttemptScore))
		assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderCallDuration))
	})

	t.Run("failure without provider", func(t *testing.T) {
		m.RecordAttempt(script.MediaKindImage, generation.Attempt{Outcome: generation.OutcomeProviderFailed})
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues("image", "none", "provider_failed")))
	})
}

func TestMetrics_GateAndComposition(t *testing.T) {
	m, _ := newTestMetrics()

	m.RecordTerminal(generation.StatusEscalated)
	m.RecordTerminal(generation.StatusEscalated)
	m.RecordAdmissionWait(0.25)
	m.RecordComposition("composed", 2)
	m.RecordComposition("not_ready", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GatesTerminalTotal.WithLabelValues("escalated")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AdmissionWait))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompositionsTotal.WithLabelValues("composed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompositionsTotal.WithLabelValues("not_ready")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DroppedAssetsTotal))
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusCodeToString(tt.code))
		})
	}
}
