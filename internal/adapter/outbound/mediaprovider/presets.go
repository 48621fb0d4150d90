package mediaprovider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/infra/task"
)

// preset describes one vendor's submit-then-poll task API.
type preset struct {
	kinds       []script.MediaKind
	submitPath  func(kind script.MediaKind) string
	statusPath  func(kind script.MediaKind, taskID string) string
	headers     func(apiKey string) map[string]string
	submitBody  func(req *generation.GenerationRequest, model string) any
	parseSubmit func(body []byte) (string, error)
	parseStatus func(body []byte) (*task.Progress, error)
}

var presets = map[string]preset{
	"runway": runwayPreset(),
	"kling":  klingPreset(),
	"luma":   lumaPreset(),
}

func bearer(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

// promptWithAvoid folds the negative prompt into the prompt for APIs without
// a negative prompt field.
func promptWithAvoid(req *generation.GenerationRequest) string {
	if req.NegativePrompt == "" {
		return req.Prompt
	}
	return req.Prompt + ". Avoid: " + req.NegativePrompt
}

// clipSeconds picks the shortest supported clip length covering seconds.
func clipSeconds(seconds float64, supported ...int) int {
	for _, s := range supported {
		if float64(s) >= seconds {
			return s
		}
	}
	return supported[len(supported)-1]
}

// --- Runway ---

type runwaySubmit struct {
	Model      string `json:"model"`
	PromptText string `json:"promptText"`
	Ratio      string `json:"ratio"`
	Duration   int    `json:"duration"`
}

type runwayTask struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Progress float64  `json:"progress"`
	Output   []string `json:"output"`
	Failure  string   `json:"failure"`
}

func runwayRatio(aspect string) string {
	switch aspect {
	case "16:9":
		return "1280:720"
	case "1:1":
		return "960:960"
	default:
		return "720:1280"
	}
}

func runwayPreset() preset {
	return preset{
		kinds:      []script.MediaKind{script.MediaKindVideo},
		submitPath: func(script.MediaKind) string { return "/v1/text_to_video" },
		statusPath: func(_ script.MediaKind, id string) string { return "/v1/tasks/" + id },
		headers: func(apiKey string) map[string]string {
			h := bearer(apiKey)
			h["X-Runway-Version"] = "2024-11-06"
			return h
		},
		submitBody: func(req *generation.GenerationRequest, model string) any {
			return &runwaySubmit{
				Model:      model,
				PromptText: promptWithAvoid(req),
				Ratio:      runwayRatio(req.AspectRatio),
				Duration:   clipSeconds(req.DurationSeconds, 5, 10),
			}
		},
		parseSubmit: func(body []byte) (string, error) {
			var t runwayTask
			if err := json.Unmarshal(body, &t); err != nil {
				return "", fmt.Errorf("unmarshal response: %w", err)
			}
			return t.ID, nil
		},
		parseStatus: func(body []byte) (*task.Progress, error) {
			var t runwayTask
			if err := json.Unmarshal(body, &t); err != nil {
				return nil, fmt.Errorf("unmarshal response: %w", err)
			}
			p := &task.Progress{Percent: int(t.Progress * 100), Failure: t.Failure}
			switch t.Status {
			case "SUCCEEDED":
				p.Status = task.StatusCompleted
				if len(t.Output) > 0 {
					p.Output = t.Output[0]
				}
			case "FAILED", "CANCELLED":
				p.Status = task.StatusFailed
			case "RUNNING":
				p.Status = task.StatusRunning
			default:
				p.Status = task.StatusPending
			}
			return p, nil
		},
	}
}

// --- Kling ---

type klingSubmit struct {
	ModelName      string `json:"model_name"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Duration       string `json:"duration"`
	AspectRatio    string `json:"aspect_ratio"`
}

type klingEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID        string `json:"task_id"`
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

func parseKling(body []byte) (*klingEnvelope, error) {
	var env klingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("kling error %d: %s", env.Code, env.Message)
	}
	return &env, nil
}

func klingPreset() preset {
	return preset{
		kinds:      []script.MediaKind{script.MediaKindVideo},
		submitPath: func(script.MediaKind) string { return "/v1/videos/text2video" },
		statusPath: func(_ script.MediaKind, id string) string { return "/v1/videos/text2video/" + id },
		headers:    bearer,
		submitBody: func(req *generation.GenerationRequest, model string) any {
			return &klingSubmit{
				ModelName:      model,
				Prompt:         req.Prompt,
				NegativePrompt: req.NegativePrompt,
				Duration:       strconv.Itoa(clipSeconds(req.DurationSeconds, 5, 10)),
				AspectRatio:    req.AspectRatio,
			}
		},
		parseSubmit: func(body []byte) (string, error) {
			env, err := parseKling(body)
			if err != nil {
				return "", err
			}
			return env.Data.TaskID, nil
		},
		parseStatus: func(body []byte) (*task.Progress, error) {
			env, err := parseKling(body)
			if err != nil {
				return nil, err
			}
			p := &task.Progress{Failure: env.Data.TaskStatusMsg}
			switch env.Data.TaskStatus {
			case "succeed":
				p.Status = task.StatusCompleted
				p.Percent = 100
				if videos := env.Data.TaskResult.Videos; len(videos) > 0 {
					p.Output = videos[0].URL
				}
			case "failed":
				p.Status = task.StatusFailed
			case "processing":
				p.Status = task.StatusRunning
			default:
				p.Status = task.StatusPending
			}
			return p, nil
		},
	}
}

// --- Luma ---

type lumaSubmit struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    string `json:"duration,omitempty"`
}

type lumaGeneration struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	FailureReason string `json:"failure_reason"`
	Assets        struct {
		Video string `json:"video"`
		Image string `json:"image"`
	} `json:"assets"`
}

func lumaPreset() preset {
	return preset{
		kinds: []script.MediaKind{script.MediaKindVideo, script.MediaKindImage},
		submitPath: func(kind script.MediaKind) string {
			if kind == script.MediaKindImage {
				return "/dream-machine/v1/generations/image"
			}
			return "/dream-machine/v1/generations"
		},
		statusPath: func(_ script.MediaKind, id string) string { return "/dream-machine/v1/generations/" + id },
		headers:    bearer,
		submitBody: func(req *generation.GenerationRequest, model string) any {
			body := &lumaSubmit{
				Prompt:      promptWithAvoid(req),
				Model:       model,
				AspectRatio: req.AspectRatio,
			}
			if req.MediaKind == script.MediaKindVideo {
				body.Duration = strconv.Itoa(clipSeconds(req.DurationSeconds, 5, 9)) + "s"
			}
			return body
		},
		parseSubmit: func(body []byte) (string, error) {
			var g lumaGeneration
			if err := json.Unmarshal(body, &g); err != nil {
				return "", fmt.Errorf("unmarshal response: %w", err)
			}
			return g.ID, nil
		},
		parseStatus: func(body []byte) (*task.Progress, error) {
			var g lumaGeneration
			if err := json.Unmarshal(body, &g); err != nil {
				return nil, fmt.Errorf("unmarshal response: %w", err)
			}
			p := &task.Progress{Failure: g.FailureReason}
			switch strings.ToLower(g.State) {
			case "completed":
				p.Status = task.StatusCompleted
				p.Percent = 100
				p.Output = g.Assets.Video
				if p.Output == "" {
					p.Output = g.Assets.Image
				}
			case "failed":
				p.Status = task.StatusFailed
			case "dreaming":
				p.Status = task.StatusRunning
			default:
				p.Status = task.StatusPending
			}
			return p, nil
		},
	}
}
