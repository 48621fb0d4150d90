package generation

import "time"

// Outcome is the result of one generation attempt.
type Outcome string

const (
	OutcomePending        Outcome = "pending"
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeProviderFailed Outcome = "provider_failed"
	OutcomeScoreRejected  Outcome = "score_rejected"
)

// Attempt is one try at producing a scene's visual asset.
type Attempt struct {
	Number         int        `json:"attempt_number"`
	ProviderID     string     `json:"provider_id"`
	RequestPrompt  string     `json:"request_prompt"`
	NegativePrompt string     `json:"negative_prompt,omitempty"`
	AssetURL       string     `json:"asset_url,omitempty"`
	Score          *float64   `json:"score,omitempty"`
	Defects        []Defect   `json:"defects,omitempty"`
	Outcome        Outcome    `json:"outcome"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// HasScore reports whether the attempt reached the scorer.
func (a Attempt) HasScore() bool {
	return a.Score != nil
}

// ScoreValue returns the score or zero.
func (a Attempt) ScoreValue() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

func (a Attempt) clone() Attempt {
	out := a
	if a.Score != nil {
		s := *a.Score
		out.Score = &s
	}
	if a.Defects != nil {
		out.Defects = append([]Defect(nil), a.Defects...)
	}
	if a.FinishedAt != nil {
		f := *a.FinishedAt
		out.FinishedAt = &f
	}
	return out
}
