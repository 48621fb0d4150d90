package scorer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

func sceneContext() generation.SceneContext {
	return generation.SceneContext{
		SceneID:       "s2",
		SceneType:     script.SceneTypeBenefit,
		MediaKind:     script.MediaKindVideo,
		NarrationText: "Dries in minutes.",
		VisualPrompt:  "towel drying fast",
		RequestPrompt: "towel drying fast, no text",
	}
}

func TestClient_Score(t *testing.T) {
	var got scoreRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/score", r.URL.Path)
		assert.Equal(t, "Bearer sc-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"score":64.5,"defects":["On-Image-Text"," blank-frame","on-image-text","sparkles"]}`))
	}))
	defer server.Close()

	c := NewClient(&Config{BaseURL: server.URL + "/", APIKey: "sc-key", Model: "vision-v2"}, server.Client(), nil)
	res, err := c.Score(context.Background(), "https://cdn.example.com/a.mp4", sceneContext())
	require.NoError(t, err)

	assert.Equal(t, 64.5, res.Score)
	assert.Equal(t, []generation.Defect{
		generation.DefectOnImageText,
		generation.DefectBlankFrame,
		generation.Defect("sparkles"),
	}, res.Defects)

	assert.Equal(t, "https://cdn.example.com/a.mp4", got.AssetURL)
	assert.Equal(t, "vision-v2", got.Model)
	assert.Equal(t, "s2", got.Scene.SceneID)
	assert.Equal(t, "towel drying fast, no text", got.Scene.RequestPrompt)
}

func TestClient_ScoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
		text   string
	}{
		{name: "out of range", status: http.StatusOK, body: `{"score":140}`, target: ErrInvalidScore},
		{name: "missing score", status: http.StatusOK, body: `{"defects":[]}`, target: ErrInvalidScore},
		{name: "error body", status: http.StatusUnprocessableEntity, body: `{"error":{"message":"asset unreachable"}}`, text: "asset unreachable"},
		{name: "bad status", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, text: "502"},
		{name: "garbage", status: http.StatusOK, body: `not json`, text: "unmarshal response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(&Config{BaseURL: server.URL}, server.Client(), nil)
			_, err := c.Score(context.Background(), "https://cdn.example.com/a.mp4", sceneContext())
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.text != "" {
				assert.Contains(t, err.Error(), tt.text)
			}
		})
	}
}

func TestClient_ScoreTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(&Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond}, server.Client(), nil)
	_, err := c.Score(context.Background(), "https://cdn.example.com/a.mp4", sceneContext())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
