package mediaprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

func TestOpenAIAdapter_Generate(t *testing.T) {
	var got openAIImageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://oaidalle.test/img.png"}]}`))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(Config{BaseURL: server.URL, APIKey: "sk-test"}, server.Client())
	assert.Equal(t, "openai", adapter.ID())
	assert.True(t, adapter.Supports(script.MediaKindImage))
	assert.False(t, adapter.Supports(script.MediaKindVideo))

	result, err := adapter.Generate(context.Background(), &generation.GenerationRequest{
		SceneID:        "s0",
		MediaKind:      script.MediaKindImage,
		Prompt:         "product on marble",
		NegativePrompt: "blur",
		AspectRatio:    "16:9",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://oaidalle.test/img.png", result.AssetURL)

	assert.Equal(t, "dall-e-3", got.Model)
	assert.Equal(t, "1792x1024", got.Size)
	assert.Equal(t, "product on marble. Avoid: blur", got.Prompt)
	assert.Equal(t, 1, got.N)
}

func TestOpenAIAdapter_Errors(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
		}))
		defer server.Close()

		adapter := NewOpenAIAdapter(Config{BaseURL: server.URL}, server.Client())
		_, err := adapter.Generate(context.Background(), &generation.GenerationRequest{MediaKind: script.MediaKindImage})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.False(t, apiErr.Retryable())
	})

	t.Run("error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
		}))
		defer server.Close()

		adapter := NewOpenAIAdapter(Config{BaseURL: server.URL}, server.Client())
		_, err := adapter.Generate(context.Background(), &generation.GenerationRequest{MediaKind: script.MediaKindImage})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota")
	})

	t.Run("video rejected", func(t *testing.T) {
		adapter := NewOpenAIAdapter(Config{}, nil)
		_, err := adapter.Generate(context.Background(), &generation.GenerationRequest{MediaKind: script.MediaKindVideo})
		assert.ErrorIs(t, err, ErrUnsupportedKind)
	})
}

func TestImageSize(t *testing.T) {
	assert.Equal(t, "1024x1792", imageSize("9:16"))
	assert.Equal(t, "1792x1024", imageSize("16:9"))
	assert.Equal(t, "1024x1024", imageSize("1:1"))
}
