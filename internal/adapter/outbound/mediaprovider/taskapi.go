package mediaprovider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/infra/task"
)

// Config configures one provider endpoint.
type Config struct {
	ID      string `mapstructure:"id"`
	Preset  string `mapstructure:"preset"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	// Kinds narrows the media kinds the preset would otherwise accept.
	Kinds []string `mapstructure:"kinds"`
}

// TaskAPIAdapter drives a provider whose API submits a generation task and
// reports its outcome through a status endpoint.
type TaskAPIAdapter struct {
	config Config
	preset preset
	kinds  []script.MediaKind
	client *http.Client
	poller *task.Poller
	logger *zap.Logger
}

// NewTaskAPIAdapter creates an adapter for a built-in preset.
func NewTaskAPIAdapter(cfg Config, client *http.Client, poller *task.Poller, logger *zap.Logger) (*TaskAPIAdapter, error) {
	p, ok := presets[cfg.Preset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, cfg.Preset)
	}
	if cfg.ID == "" {
		cfg.ID = cfg.Preset
	}
	if client == nil {
		client = http.DefaultClient
	}
	if poller == nil {
		poller = task.NewPoller(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	kinds := p.kinds
	if len(cfg.Kinds) > 0 {
		kinds = nil
		for _, k := range cfg.Kinds {
			kind := script.MediaKind(k)
			if !containsKind(p.kinds, kind) {
				return nil, fmt.Errorf("%w: %s cannot generate %s", ErrUnsupportedKind, cfg.Preset, k)
			}
			kinds = append(kinds, kind)
		}
	}

	return &TaskAPIAdapter{
		config: cfg,
		preset: p,
		kinds:  kinds,
		client: client,
		poller: poller,
		logger: logger.Named("provider").With(zap.String("provider", cfg.ID)),
	}, nil
}

func containsKind(kinds []script.MediaKind, kind script.MediaKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ID returns the provider id.
func (a *TaskAPIAdapter) ID() string {
	return a.config.ID
}

// Supports reports whether the provider can generate kind.
func (a *TaskAPIAdapter) Supports(kind script.MediaKind) bool {
	return containsKind(a.kinds, kind)
}

// Generate submits the task and blocks until the provider reports a result.
// A completed task with no output yields an empty AssetURL.
func (a *TaskAPIAdapter) Generate(ctx context.Context, req *generation.GenerationRequest) (*generation.GenerationResult, error) {
	if !a.Supports(req.MediaKind) {
		return nil, fmt.Errorf("%w: %s cannot generate %s", ErrUnsupportedKind, a.config.ID, req.MediaKind)
	}

	headers := a.preset.headers(a.config.APIKey)
	respBody, err := doJSON(ctx, a.client, a.config.ID, http.MethodPost,
		a.config.BaseURL+a.preset.submitPath(req.MediaKind), headers, a.preset.submitBody(req, a.config.Model))
	if err != nil {
		return nil, fmt.Errorf("submit task: %w", err)
	}
	taskID, err := a.preset.parseSubmit(respBody)
	if err != nil {
		return nil, fmt.Errorf("submit task: %w", err)
	}
	if taskID == "" {
		return nil, fmt.Errorf("submit task: %s returned no task id", a.config.ID)
	}

	a.logger.Debug("task submitted",
		zap.String("scene_id", req.SceneID),
		zap.String("task_id", taskID))

	statusURL := a.config.BaseURL + a.preset.statusPath(req.MediaKind, taskID)
	progress, err := a.poller.Wait(ctx, taskID, func(ctx context.Context) (*task.Progress, error) {
		body, err := doJSON(ctx, a.client, a.config.ID, http.MethodGet, statusURL, headers, nil)
		if err != nil {
			return nil, err
		}
		return a.preset.parseStatus(body)
	})
	if err != nil {
		return nil, err
	}

	return &generation.GenerationResult{AssetURL: progress.Output, TaskID: taskID}, nil
}

// Compile-time interface check
var _ generation.ProviderAdapter = (*TaskAPIAdapter)(nil)
