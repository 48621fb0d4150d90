// Package scorer is an HTTP client for the vision content scorer.
package scorer

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

	"github.com/uniedit/reelforge/internal/domain/generation"
)

// ErrInvalidScore is returned when the scorer answers with a score outside 0-100.
var ErrInvalidScore = errors.New("score out of range")

// Config contains scorer client configuration.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client scores generated assets over HTTP.
type Client struct {
	config *Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a scorer client.
func NewClient(config *Config, client *http.Client, logger *zap.Logger) *Client {
	if config == nil {
		config = &Config{}
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := *config
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{config: &cfg, client: client, logger: logger.Named("scorer")}
}

type scoreRequest struct {
	AssetURL string                  `json:"asset_url"`
	Model    string                  `json:"model,omitempty"`
	Scene    generation.SceneContext `json:"scene"`
}

type scoreResponse struct {
	Score   *float64 `json:"score"`
	Defects []string `json:"defects"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Score asks the scorer to rate assetURL against the scene it was generated for.
func (c *Client) Score(ctx context.Context, assetURL string, sc generation.SceneContext) (*generation.ScoreResult, error) {
	body, err := json.Marshal(&scoreRequest{AssetURL: assetURL, Model: c.config.Model, Scene: sc})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out scoreResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("scorer error: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if out.Score == nil {
		return nil, fmt.Errorf("%w: missing score", ErrInvalidScore)
	}
	if *out.Score < 0 || *out.Score > 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScore, *out.Score)
	}

	defects := generation.ParseDefects(out.Defects)
	for _, d := range defects {
		if !d.IsKnown() {
			c.logger.Debug("unknown defect tag", zap.String("scene_id", sc.SceneID), zap.String("defect", string(d)))
		}
	}
	return &generation.ScoreResult{Score: *out.Score, Defects: defects}, nil
}

// Compile-time interface check
var _ generation.ContentScorer = (*Client)(nil)
