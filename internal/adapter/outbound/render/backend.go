// Package render submits render specs to the rendering backend and fetches
// the finished video.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/infra/task"
	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

var (
	// ErrRenderFailed is returned when the backend rejects or fails a render job.
	ErrRenderFailed = errors.New("render failed")

	// ErrOutputTooLarge is returned when the rendered file exceeds MaxOutputBytes.
	ErrOutputTooLarge = errors.New("rendered output too large")
)

// Config contains render backend configuration.
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	SubmitTimeout   time.Duration `mapstructure:"submit_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	MaxOutputBytes  int64         `mapstructure:"max_output_bytes"`
	Poll            *task.Config  `mapstructure:"poll"`
}

// DefaultConfig returns the default render backend configuration.
func DefaultConfig() *Config {
	return &Config{
		SubmitTimeout:   30 * time.Second,
		DownloadTimeout: 15 * time.Minute,
		MaxOutputBytes:  2 << 30,
		Poll: &task.Config{
			PollInterval:         3 * time.Second,
			PollTimeout:          20 * time.Minute,
			MaxPollAttempts:      0,
			RequestTimeout:       15 * time.Second,
			MaxConsecutiveErrors: 5,
		},
	}
}

// Backend renders specs through an HTTP job API:
//
//	POST /v1/renders        -> 202 {"id": ...}, or 200 with the video body
//	GET  /v1/renders/{id}   -> {"status", "progress", "output_url", "error"}
type Backend struct {
	config *Config
	client *http.Client
	poller *task.Poller
	logger *zap.Logger
}

// NewBackend creates a render backend client.
func NewBackend(config *Config, client *http.Client, logger *zap.Logger) *Backend {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	cfg := *config
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = def.SubmitTimeout
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = def.DownloadTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = def.MaxOutputBytes
	}
	if cfg.Poll == nil {
		cfg.Poll = def.Poll
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		config: &cfg,
		client: client,
		poller: task.NewPoller(cfg.Poll, logger),
		logger: logger.Named("render"),
	}
}

type jobResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
	OutputURL string  `json:"output_url"`
	Error     string  `json:"error"`
}

// Render submits spec and returns the finished video bytes.
func (b *Backend) Render(ctx context.Context, spec *timeline.RenderSpec) (*model.RenderedVideo, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal spec: %w", err)
	}

	submitCtx, cancel := context.WithTimeout(ctx, b.config.SubmitTimeout)
	defer cancel()
	resp, err := b.do(submitCtx, http.MethodPost, b.config.BaseURL+"/v1/renders", body)
	if err != nil {
		return nil, fmt.Errorf("submit render: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK && !isJSON(resp):
		return b.read(resp)
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted:
	default:
		return nil, statusError(resp)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("%w: backend returned no job id", ErrRenderFailed)
	}

	b.logger.Info("render submitted",
		zap.String("job_id", job.ID),
		zap.Int("total_frames", spec.TotalFrames()))

	progress, err := b.poller.Wait(ctx, job.ID, func(ctx context.Context) (*task.Progress, error) {
		return b.status(ctx, job.ID)
	})
	if err != nil {
		if errors.Is(err, task.ErrTaskFailed) {
			return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
		}
		return nil, err
	}
	if progress.Output == "" {
		return nil, fmt.Errorf("%w: job %s finished without output", ErrRenderFailed, job.ID)
	}
	return b.download(ctx, progress.Output)
}

func (b *Backend) status(ctx context.Context, jobID string) (*task.Progress, error) {
	resp, err := b.do(ctx, http.MethodGet, b.config.BaseURL+"/v1/renders/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	p := &task.Progress{Percent: int(job.Progress * 100), Output: job.OutputURL, Failure: job.Error}
	switch job.Status {
	case "done", "completed":
		p.Status = task.StatusCompleted
	case "failed", "error":
		p.Status = task.StatusFailed
	case "rendering":
		p.Status = task.StatusRunning
	default:
		p.Status = task.StatusPending
	}
	return p, nil
}

func (b *Backend) download(ctx context.Context, url string) (*model.RenderedVideo, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.DownloadTimeout)
	defer cancel()
	resp, err := b.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("download output: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download output: %w", statusError(resp))
	}
	return b.read(resp)
}

func (b *Backend) read(resp *http.Response) (*model.RenderedVideo, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, b.config.MaxOutputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	if int64(len(data)) > b.config.MaxOutputBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrOutputTooLarge, b.config.MaxOutputBytes)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return &model.RenderedVideo{Data: data, ContentType: contentType}, nil
}

func (b *Backend) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.config.APIKey != "" && strings.HasPrefix(url, b.config.BaseURL) {
		req.Header.Set("Authorization", "Bearer "+b.config.APIKey)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func isJSON(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(msg) == 0 {
		return fmt.Errorf("%w: unexpected status code: %d", ErrRenderFailed, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", ErrRenderFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
}

// Compile-time interface check
var _ outbound.RenderBackendPort = (*Backend)(nil)
