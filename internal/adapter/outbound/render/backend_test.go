package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/infra/task"
)

const specFixture = `{
	"fps": 30,
	"total_frames": 150,
	"aspect_ratio": "9:16",
	"scene_track": [{"scene_id":"s0","index":0,"type":"hook","media_kind":"video",
		"asset_url":"https://cdn.example.com/s0.mp4","start_frame":0,"duration_frames":150}],
	"overlay_track": [],
	"audio_tracks": {"voiceover": [], "sfx": []}
}`

func testSpec(t *testing.T) *timeline.RenderSpec {
	t.Helper()
	spec, err := timeline.Decode([]byte(specFixture))
	require.NoError(t, err)
	return spec
}

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:        baseURL,
		APIKey:         "rk",
		MaxOutputBytes: 1024,
		Poll: &task.Config{
			PollInterval:         5 * time.Millisecond,
			PollTimeout:          2 * time.Second,
			RequestTimeout:       time.Second,
			MaxConsecutiveErrors: 2,
		},
	}
}

func TestBackend_RenderJob(t *testing.T) {
	var polls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/renders":
			assert.Equal(t, "Bearer rk", r.Header.Get("Authorization"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.EqualValues(t, 150, body["total_frames"])
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"id":"job-1","status":"queued"}`))
		case r.URL.Path == "/v1/renders/job-1":
			w.Header().Set("Content-Type", "application/json")
			if polls.Add(1) == 1 {
				_, _ = w.Write([]byte(`{"id":"job-1","status":"rendering","progress":0.5}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"job-1","status":"done","output_url":"` + server.URL + `/out/job-1.mp4"}`))
		case r.URL.Path == "/out/job-1.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write([]byte("fake-mp4-bytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	b := NewBackend(testConfig(server.URL), server.Client(), nil)
	video, err := b.Render(context.Background(), testSpec(t))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-mp4-bytes"), video.Data)
	assert.Equal(t, "video/mp4", video.ContentType)
	assert.Equal(t, int32(2), polls.Load())
}

func TestBackend_RenderInline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/webm")
		_, _ = w.Write([]byte("webm"))
	}))
	defer server.Close()

	b := NewBackend(testConfig(server.URL), server.Client(), nil)
	video, err := b.Render(context.Background(), testSpec(t))
	require.NoError(t, err)
	assert.Equal(t, "video/webm", video.ContentType)
	assert.Equal(t, []byte("webm"), video.Data)
}

func TestBackend_RenderErrors(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte("unknown overlay kind"))
		}))
		defer server.Close()

		_, err := NewBackend(testConfig(server.URL), server.Client(), nil).Render(context.Background(), testSpec(t))
		assert.ErrorIs(t, err, ErrRenderFailed)
		assert.ErrorContains(t, err, "unknown overlay kind")
	})

	t.Run("job failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte(`{"id":"job-2"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"job-2","status":"failed","error":"codec crash"}`))
		}))
		defer server.Close()

		_, err := NewBackend(testConfig(server.URL), server.Client(), nil).Render(context.Background(), testSpec(t))
		assert.ErrorIs(t, err, ErrRenderFailed)
		assert.ErrorIs(t, err, task.ErrTaskFailed)
		assert.ErrorContains(t, err, "codec crash")
	})

	t.Run("output too large", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = w.Write(make([]byte, 2048))
		}))
		defer server.Close()

		_, err := NewBackend(testConfig(server.URL), server.Client(), nil).Render(context.Background(), testSpec(t))
		assert.ErrorIs(t, err, ErrOutputTooLarge)
	})

	t.Run("missing job id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewBackend(testConfig(server.URL), server.Client(), nil).Render(context.Background(), testSpec(t))
		assert.ErrorIs(t, err, ErrRenderFailed)
	})

	t.Run("download has its own deadline", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/v1/renders":
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte(`{"id":"job-3"}`))
			case "/v1/renders/job-3":
				_, _ = w.Write([]byte(`{"id":"job-3","status":"done","output_url":"` + server.URL + `/out/job-3.mp4"}`))
			default:
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			}
		}))
		defer server.Close()

		cfg := testConfig(server.URL)
		cfg.DownloadTimeout = 50 * time.Millisecond
		_, err := NewBackend(cfg, server.Client(), nil).Render(context.Background(), testSpec(t))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.ErrorContains(t, err, "download output")
	})
}
