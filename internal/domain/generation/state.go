package generation

import (
	"fmt"
	"time"
)

// Status is a gate lifecycle state.
type Status string

const (
	StatusPending      Status = "pending"
	StatusGenerating   Status = "generating"
	StatusScoring      Status = "scoring"
	StatusRegenerating Status = "regenerating"
	StatusApproved     Status = "approved"
	StatusEscalated    Status = "escalated"
	StatusCancelled    Status = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusEscalated || s == StatusCancelled
}

// StateMachine validates gate state transitions.
type StateMachine struct {
	transitions map[Status][]Status
}

// NewStateMachine creates the gate state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		transitions: map[Status][]Status{
			StatusPending:      {StatusGenerating, StatusEscalated, StatusCancelled},
			StatusGenerating:   {StatusScoring, StatusRegenerating, StatusEscalated, StatusCancelled},
			StatusScoring:      {StatusApproved, StatusRegenerating, StatusEscalated, StatusCancelled},
			StatusRegenerating: {StatusGenerating, StatusCancelled},
			StatusApproved:     {}, // Terminal state
			StatusEscalated:    {}, // Terminal state
			StatusCancelled:    {}, // Terminal state
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (sm *StateMachine) CanTransition(from, to Status) bool {
	for _, s := range sm.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the state to a new status.
func (sm *StateMachine) Transition(st *State, to Status) error {
	if !sm.CanTransition(st.status, to) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, st.status, to)
	}
	st.status = to
	st.updatedAt = time.Now()
	return nil
}

// AllowedTransitions returns all allowed transitions from the given status.
func (sm *StateMachine) AllowedTransitions(from Status) []Status {
	allowed := sm.transitions[from]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// State is the mutable generation state of one scene. It is owned by its gate.
type State struct {
	sceneID          string
	status           Status
	attempts         []Attempt
	approved         int
	needsReview      bool
	escalationReason string
	cancelReason     string
	updatedAt        time.Time
}

// NewState creates a pending state for a scene.
func NewState(sceneID string) *State {
	return &State{
		sceneID:   sceneID,
		status:    StatusPending,
		approved:  -1,
		updatedAt: time.Now(),
	}
}

func (s *State) SceneID() string          { return s.sceneID }
func (s *State) Status() Status           { return s.status }
func (s *State) NeedsReview() bool        { return s.needsReview }
func (s *State) EscalationReason() string { return s.escalationReason }
func (s *State) AttemptCount() int        { return len(s.attempts) }

// Attempts returns a copy of the attempt log.
func (s *State) Attempts() []Attempt {
	out := make([]Attempt, len(s.attempts))
	for i, a := range s.attempts {
		out[i] = a.clone()
	}
	return out
}

// ApprovedAttempt returns the approved attempt, if any.
func (s *State) ApprovedAttempt() (Attempt, bool) {
	if s.approved < 0 {
		return Attempt{}, false
	}
	return s.attempts[s.approved].clone(), true
}

// beginAttempt appends a pending attempt. Only one attempt may be pending.
func (s *State) beginAttempt(req *GenerationRequest) (*Attempt, error) {
	if last := s.lastAttempt(); last != nil && last.Outcome == OutcomePending {
		return nil, ErrAttemptPending
	}
	s.attempts = append(s.attempts, Attempt{
		Number:         len(s.attempts) + 1,
		ProviderID:     req.ProviderID,
		RequestPrompt:  req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Outcome:        OutcomePending,
		StartedAt:      time.Now(),
	})
	return &s.attempts[len(s.attempts)-1], nil
}

func (s *State) lastAttempt() *Attempt {
	if len(s.attempts) == 0 {
		return nil
	}
	return &s.attempts[len(s.attempts)-1]
}

func (s *State) finishAttempt(outcome Outcome, reason string) {
	a := s.lastAttempt()
	if a == nil || a.Outcome != OutcomePending {
		return
	}
	now := time.Now()
	a.Outcome = outcome
	a.FailureReason = reason
	a.FinishedAt = &now
}

// approve terminates the state with the last attempt approved.
func (s *State) approve(sm *StateMachine, needsReview bool) error {
	if err := sm.Transition(s, StatusApproved); err != nil {
		return err
	}
	s.approved = len(s.attempts) - 1
	s.needsReview = needsReview
	return nil
}

func (s *State) escalate(sm *StateMachine, reason string) error {
	if err := sm.Transition(s, StatusEscalated); err != nil {
		return err
	}
	s.escalationReason = reason
	return nil
}

func (s *State) cancel(sm *StateMachine, reason string) error {
	if err := sm.Transition(s, StatusCancelled); err != nil {
		return err
	}
	s.finishAttempt(OutcomeProviderFailed, "discarded: "+reason)
	s.cancelReason = reason
	return nil
}

// StateSnapshot is an immutable copy of a scene's generation state.
type StateSnapshot struct {
	SceneID          string    `json:"scene_id"`
	Status           Status    `json:"status"`
	Attempts         []Attempt `json:"attempts"`
	ApprovedAttempt  *Attempt  `json:"approved_attempt,omitempty"`
	NeedsReview      bool      `json:"needs_review"`
	EscalationReason string    `json:"escalation_reason,omitempty"`
	CancelReason     string    `json:"cancel_reason,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Snapshot copies the state.
func (s *State) Snapshot() StateSnapshot {
	snap := StateSnapshot{
		SceneID:          s.sceneID,
		Status:           s.status,
		Attempts:         s.Attempts(),
		NeedsReview:      s.needsReview,
		EscalationReason: s.escalationReason,
		CancelReason:     s.cancelReason,
		UpdatedAt:        s.updatedAt,
	}
	if a, ok := s.ApprovedAttempt(); ok {
		snap.ApprovedAttempt = &a
	}
	return snap
}

// AssetURL returns the approved asset URL, if any.
func (s StateSnapshot) AssetURL() (string, bool) {
	if s.Status != StatusApproved || s.ApprovedAttempt == nil {
		return "", false
	}
	return s.ApprovedAttempt.AssetURL, true
}
