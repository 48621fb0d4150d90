package generation

import (
	"fmt"
	"strings"

	"github.com/uniedit/reelforge/internal/domain/script"
)

// Rule is the corrective action attached to one defect tag.
type Rule struct {
	PromptClause   string
	NegativeClause string
	SwitchProvider bool
}

// RuleTable maps defect tags to corrective rules.
type RuleTable map[Defect]Rule

// DefaultRules returns the rule table for the shared defect vocabulary.
func DefaultRules() RuleTable {
	return RuleTable{
		DefectOnImageText: {
			NegativeClause: "no text, no captions, no logos",
		},
		DefectBlankFrame: {
			PromptClause:   "fully rendered subject in every frame, well lit",
			SwitchProvider: true,
		},
		DefectMismatchedContent: {
			PromptClause: "depict exactly what the narration describes",
		},
		DefectBrandColor: {
			PromptClause:   "use the brand color palette only",
			NegativeClause: "off-brand colors",
		},
		DefectDistortedAnatomy: {
			PromptClause:   "anatomically correct people",
			NegativeClause: "distorted hands, extra limbs, deformed faces",
		},
		DefectLowResolution: {
			PromptClause:   "sharp, high resolution, detailed",
			NegativeClause: "blurry, pixelated",
		},
		DefectWatermark: {
			NegativeClause: "no watermark, no stock photo overlay",
			SwitchProvider: true,
		},
		DefectMotionArtifact: {
			PromptClause:   "smooth stable camera motion",
			NegativeClause: "flicker, warping, jitter",
		},
	}
}

// ProviderTable selects ordered provider candidates by media kind and scene type.
// The first candidate is primary; the rest are alternates.
type ProviderTable struct {
	defaults    map[script.MediaKind][]string
	bySceneType map[script.MediaKind]map[script.SceneType][]string
}

// NewProviderTable creates an empty provider table.
func NewProviderTable() *ProviderTable {
	return &ProviderTable{
		defaults:    make(map[script.MediaKind][]string),
		bySceneType: make(map[script.MediaKind]map[script.SceneType][]string),
	}
}

// SetDefault sets the candidates for a media kind.
func (t *ProviderTable) SetDefault(kind script.MediaKind, providerIDs ...string) {
	t.defaults[kind] = append([]string(nil), providerIDs...)
}

// SetForSceneType overrides the candidates for one scene type of a media kind.
func (t *ProviderTable) SetForSceneType(kind script.MediaKind, sceneType script.SceneType, providerIDs ...string) {
	m, ok := t.bySceneType[kind]
	if !ok {
		m = make(map[script.SceneType][]string)
		t.bySceneType[kind] = m
	}
	m[sceneType] = append([]string(nil), providerIDs...)
}

// Candidates returns the provider ids for a scene, most specific entry first.
func (t *ProviderTable) Candidates(kind script.MediaKind, sceneType script.SceneType) []string {
	if m, ok := t.bySceneType[kind]; ok {
		if ids, ok := m[sceneType]; ok && len(ids) > 0 {
			return append([]string(nil), ids...)
		}
	}
	return append([]string(nil), t.defaults[kind]...)
}

// PlannerConfig tunes provider switching.
type PlannerConfig struct {
	// SwitchAfterRepeats is how many times one provider may produce the same
	// defect before the next attempt moves to an alternate.
	SwitchAfterRepeats int
}

// DefaultPlannerConfig returns the default planner configuration.
func DefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{SwitchAfterRepeats: 2}
}

// Decision explains how the next request was derived.
type Decision struct {
	Switched     bool
	FromProvider string
	ToProvider   string
	Reason       string
	Clauses      []string
}

// Planner derives each attempt's generation request. It never calls providers.
type Planner struct {
	rules     RuleTable
	providers *ProviderTable
	config    *PlannerConfig
}

// NewPlanner creates a regeneration planner.
func NewPlanner(rules RuleTable, providers *ProviderTable, config *PlannerConfig) *Planner {
	if rules == nil {
		rules = DefaultRules()
	}
	if providers == nil {
		providers = NewProviderTable()
	}
	if config == nil {
		config = DefaultPlannerConfig()
	}
	if config.SwitchAfterRepeats < 1 {
		config.SwitchAfterRepeats = 1
	}
	return &Planner{rules: rules, providers: providers, config: config}
}

// Initial builds the first request for a scene from its base prompt and the primary provider.
func (p *Planner) Initial(scene script.Scene, aspectRatio string) (*GenerationRequest, error) {
	candidates := p.providers.Candidates(scene.Kind(), scene.Type)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoProvider, scene.Kind(), scene.Type)
	}
	return &GenerationRequest{
		SceneID:         scene.ID,
		ProviderID:      candidates[0],
		MediaKind:       scene.Kind(),
		Prompt:          scene.VisualPrompt,
		DurationSeconds: scene.DurationSeconds,
		AspectRatio:     aspectRatio,
	}, nil
}

// Next derives the request following a failed attempt. history is the full
// attempt log including prev. hard marks provider failures and reject-band scores.
func (p *Planner) Next(scene script.Scene, prev *GenerationRequest, history []Attempt, hard bool) (*GenerationRequest, Decision) {
	next := *prev
	decision := Decision{FromProvider: prev.ProviderID, ToProvider: prev.ProviderID}

	var last Attempt
	if len(history) > 0 {
		last = history[len(history)-1]
	}

	for _, d := range last.Defects {
		rule, ok := p.rules[d]
		if !ok {
			continue
		}
		if rule.PromptClause != "" {
			var added bool
			next.Prompt, added = appendClause(next.Prompt, rule.PromptClause)
			if added {
				decision.Clauses = append(decision.Clauses, rule.PromptClause)
			}
		}
		if rule.NegativeClause != "" {
			var added bool
			next.NegativePrompt, added = appendClause(next.NegativePrompt, rule.NegativeClause)
			if added {
				decision.Clauses = append(decision.Clauses, rule.NegativeClause)
			}
		}
	}

	reason, avoid := p.switchReason(prev.ProviderID, last, history, hard)
	if reason == "" {
		return &next, decision
	}

	candidates := p.providers.Candidates(scene.Kind(), scene.Type)
	if to, ok := pickAlternate(candidates, prev.ProviderID, history, avoid); ok {
		next.ProviderID = to
		decision.Switched = true
		decision.ToProvider = to
		decision.Reason = reason
	}
	return &next, decision
}

// switchReason returns why the provider should change and which defects to
// avoid in the replacement, or an empty reason to keep the provider.
func (p *Planner) switchReason(providerID string, last Attempt, history []Attempt, hard bool) (string, []Defect) {
	if hard {
		if last.Outcome == OutcomeProviderFailed {
			return "provider failure", nil
		}
		return "low score", last.Defects
	}
	for _, d := range last.Defects {
		if rule, ok := p.rules[d]; ok && rule.SwitchProvider {
			return fmt.Sprintf("defect %s requires another provider", d), []Defect{d}
		}
	}
	var repeated []Defect
	for _, d := range last.Defects {
		if defectCount(history, providerID, d) >= p.config.SwitchAfterRepeats {
			repeated = append(repeated, d)
		}
	}
	if len(repeated) > 0 {
		return fmt.Sprintf("provider %s repeated %s", providerID, Summary(repeated)), repeated
	}
	return "", nil
}

func defectCount(history []Attempt, providerID string, d Defect) int {
	n := 0
	for _, a := range history {
		if a.ProviderID == providerID && containsDefect(a.Defects, d) {
			n++
		}
	}
	return n
}

// pickAlternate walks candidates round-robin after current, preferring one that
// never produced any of the avoided defects.
func pickAlternate(candidates []string, current string, history []Attempt, avoid []Defect) (string, bool) {
	if len(candidates) < 2 {
		return "", false
	}
	start := 0
	for i, id := range candidates {
		if id == current {
			start = i + 1
			break
		}
	}
	var fallback string
	for i := 0; i < len(candidates); i++ {
		id := candidates[(start+i)%len(candidates)]
		if id == current {
			continue
		}
		if fallback == "" {
			fallback = id
		}
		if !producedAny(history, id, avoid) {
			return id, true
		}
	}
	return fallback, fallback != ""
}

func producedAny(history []Attempt, providerID string, defects []Defect) bool {
	for _, d := range defects {
		if defectCount(history, providerID, d) > 0 {
			return true
		}
	}
	return false
}

// appendClause adds clause to text unless it is already present.
func appendClause(text, clause string) (string, bool) {
	if strings.Contains(strings.ToLower(text), strings.ToLower(clause)) {
		return text, false
	}
	if strings.TrimSpace(text) == "" {
		return clause, true
	}
	return strings.TrimRight(text, " ,") + ", " + clause, true
}
