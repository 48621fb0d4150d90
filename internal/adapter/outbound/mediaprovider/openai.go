package mediaprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
)

// OpenAIAdapter generates still images through the OpenAI images API.
type OpenAIAdapter struct {
	config Config
	client *http.Client
}

// NewOpenAIAdapter creates a new OpenAI image adapter with the given HTTP client.
func NewOpenAIAdapter(cfg Config, client *http.Client) *OpenAIAdapter {
	if cfg.ID == "" {
		cfg.ID = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	if client == nil {
		client = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIAdapter{config: cfg, client: client}
}

// openAIImageRequest represents an OpenAI image generation request.
type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

// openAIImageResponse represents an OpenAI image generation response.
type openAIImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// imageSize maps a script aspect ratio onto a supported output size.
func imageSize(aspect string) string {
	switch aspect {
	case "9:16":
		return "1024x1792"
	case "16:9":
		return "1792x1024"
	default:
		return "1024x1024"
	}
}

// ID returns the provider id.
func (a *OpenAIAdapter) ID() string {
	return a.config.ID
}

// Supports reports whether the adapter can generate kind.
func (a *OpenAIAdapter) Supports(kind script.MediaKind) bool {
	return kind == script.MediaKindImage
}

// Generate requests a single image URL.
func (a *OpenAIAdapter) Generate(ctx context.Context, req *generation.GenerationRequest) (*generation.GenerationResult, error) {
	if !a.Supports(req.MediaKind) {
		return nil, fmt.Errorf("%w: %s cannot generate %s", ErrUnsupportedKind, a.config.ID, req.MediaKind)
	}

	openAIReq := &openAIImageRequest{
		Model:          a.config.Model,
		Prompt:         promptWithAvoid(req),
		N:              1,
		Size:           imageSize(req.AspectRatio),
		ResponseFormat: "url",
	}

	respBody, err := doJSON(ctx, a.client, a.config.ID, http.MethodPost,
		a.config.BaseURL+"/v1/images/generations", bearer(a.config.APIKey), openAIReq)
	if err != nil {
		return nil, err
	}

	var openAIResp openAIImageResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if openAIResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", openAIResp.Error.Message)
	}

	result := &generation.GenerationResult{}
	if len(openAIResp.Data) > 0 {
		result.AssetURL = openAIResp.Data[0].URL
	}
	return result, nil
}

// Compile-time interface check
var _ generation.ProviderAdapter = (*OpenAIAdapter)(nil)
