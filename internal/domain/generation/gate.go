package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/script"
)

// GateDeps are the collaborators shared by every gate of a project.
type GateDeps struct {
	Providers ProviderLookup
	Scorer    ContentScorer
	Resolver  asset.Resolver
	Admission Admission
	Recorder  Recorder
	Planner   *Planner
	Policy    *Policy
}

// Gate drives one scene from no asset to an approved, escalated or cancelled state.
// Steps within a gate are strictly sequential.
type Gate struct {
	scene  script.Scene
	aspect string
	deps   GateDeps
	sm     *StateMachine
	logger *zap.Logger

	mu              sync.Mutex
	state           *State
	started         bool
	cancelRequested bool
	cancelReason    string
	cancelFn        context.CancelFunc
}

// NewGate creates a gate for one scene.
func NewGate(scene script.Scene, aspectRatio string, deps GateDeps, logger *zap.Logger) *Gate {
	if deps.Policy == nil {
		deps.Policy = DefaultPolicy()
	}
	if deps.Planner == nil {
		deps.Planner = NewPlanner(nil, nil, nil)
	}
	if deps.Recorder == nil {
		deps.Recorder = NopRecorder{}
	}
	if deps.Admission == nil {
		deps.Admission = NewSemaphoreAdmission(1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		scene:  scene,
		aspect: aspectRatio,
		deps:   deps,
		sm:     NewStateMachine(),
		logger: logger.Named("gate").With(zap.String("scene_id", scene.ID)),
		state:  NewState(scene.ID),
	}
}

// Scene returns the scene this gate owns.
func (g *Gate) Scene() script.Scene {
	return g.scene
}

// Snapshot returns a copy of the current state.
func (g *Gate) Snapshot() StateSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Snapshot()
}

// Cancel requests cancellation. An in-flight provider call is allowed to
// finish but its result is discarded.
func (g *Gate) Cancel(reason string) error {
	g.mu.Lock()
	if g.state.Status().IsTerminal() {
		g.mu.Unlock()
		return ErrGateTerminal
	}
	if g.cancelRequested {
		g.mu.Unlock()
		return nil
	}
	g.cancelRequested = true
	g.cancelReason = reason
	if g.started {
		if g.cancelFn != nil {
			g.cancelFn()
		}
		g.mu.Unlock()
		return nil
	}

	// Not started yet: terminate right away.
	from := g.state.Status()
	if err := g.state.cancel(g.sm, reason); err != nil {
		g.mu.Unlock()
		return err
	}
	snap := g.state.Snapshot()
	g.mu.Unlock()

	g.deps.Recorder.RecordTransition(g.scene.ID, from, StatusCancelled)
	g.deps.Recorder.RecordTerminal(snap)
	g.logger.Info("scene cancelled before start", zap.String("reason", reason))
	return nil
}

// Run executes the gate until it reaches a terminal status. It returns an
// *EscalationRequired error on escalation and ErrGateCancelled on cancellation.
func (g *Gate) Run(ctx context.Context) (StateSnapshot, error) {
	g.mu.Lock()
	if g.started {
		snap := g.state.Snapshot()
		g.mu.Unlock()
		return snap, ErrGateAlreadyStarted
	}
	g.started = true
	if g.state.Status() == StatusCancelled {
		snap := g.state.Snapshot()
		g.mu.Unlock()
		return snap, ErrGateCancelled
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.cancelFn = cancel
	g.mu.Unlock()
	defer cancel()

	if runCtx.Err() != nil {
		return g.finishCancelled(ctx)
	}

	req, err := g.deps.Planner.Initial(g.scene, g.aspect)
	if err != nil {
		return g.escalate(err.Error())
	}

	for {
		waitStart := time.Now()
		if err := g.deps.Admission.Acquire(runCtx); err != nil {
			return g.finishCancelled(ctx)
		}
		g.deps.Recorder.RecordAdmissionWait(time.Since(waitStart))

		from, err := g.beginAttempt(req)
		if err != nil {
			g.deps.Admission.Release()
			if errors.Is(err, ErrGateCancelled) || runCtx.Err() != nil {
				return g.finishCancelled(ctx)
			}
			return g.Snapshot(), err
		}
		g.deps.Recorder.RecordTransition(g.scene.ID, from, StatusGenerating)
		g.logger.Debug("generating",
			zap.Int("attempt", g.attemptCount()),
			zap.String("provider_id", req.ProviderID),
		)

		assetURL, callErr := g.callProvider(runCtx, req)
		g.deps.Admission.Release()

		if g.cancelled(runCtx) {
			return g.finishCancelled(ctx)
		}

		if callErr == nil {
			assetURL, callErr = g.resolve(runCtx, req.ProviderID, assetURL)
			if g.cancelled(runCtx) {
				return g.finishCancelled(ctx)
			}
		}

		if callErr != nil {
			snap, done, err := g.fail(OutcomeProviderFailed, callErr.Error(), "provider exhausted: "+callErr.Error())
			if done {
				return snap, err
			}
			req = g.plan(req, true)
			continue
		}

		if err := g.toScoring(assetURL); err != nil {
			return g.Snapshot(), err
		}
		g.deps.Recorder.RecordTransition(g.scene.ID, StatusGenerating, StatusScoring)

		result, scoreErr := g.score(runCtx, assetURL, req)
		if g.cancelled(runCtx) {
			return g.finishCancelled(ctx)
		}
		if scoreErr != nil {
			reason := "scoring failed: " + scoreErr.Error()
			snap, done, err := g.fail(OutcomeProviderFailed, reason, reason)
			if done {
				return snap, err
			}
			req = g.plan(req, false)
			continue
		}

		band := g.deps.Policy.Classify(result.Score)
		switch band {
		case BandApprove, BandReview:
			snap, err := g.approve(result, band == BandReview)
			if errors.Is(err, ErrGateCancelled) {
				return g.finishCancelled(ctx)
			}
			return snap, err
		default:
			rejection := &ScoreRejection{Score: result.Score, Band: band, Defects: result.Defects}
			reason := "score below review threshold"
			if rejection.Hard() {
				reason = "low score"
			}
			g.recordScore(result)
			snap, done, err := g.fail(OutcomeScoreRejected, reason, rejection.Error())
			if done {
				return snap, err
			}
			req = g.plan(req, rejection.Hard())
		}
	}
}

func (g *Gate) attemptCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.AttemptCount()
}

func (g *Gate) cancelled(runCtx context.Context) bool {
	if runCtx.Err() != nil {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cancelRequested
}

// beginAttempt moves to Generating and appends a pending attempt.
func (g *Gate) beginAttempt(req *GenerationRequest) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelRequested {
		return g.state.Status(), ErrGateCancelled
	}
	from := g.state.Status()
	if err := g.sm.Transition(g.state, StatusGenerating); err != nil {
		return from, err
	}
	if _, err := g.state.beginAttempt(req); err != nil {
		return from, err
	}
	return from, nil
}

// callProvider runs one provider call. The call is detached from cancellation
// so it can finish; only the per-call timeout bounds it.
func (g *Gate) callProvider(runCtx context.Context, req *GenerationRequest) (string, error) {
	provider, ok := g.deps.Providers.Get(req.ProviderID)
	if !ok {
		return "", &ProviderFailure{ProviderID: req.ProviderID, Reason: "not registered", Err: ErrUnknownProvider}
	}
	if !provider.Supports(req.MediaKind) {
		return "", &ProviderFailure{ProviderID: req.ProviderID, Reason: fmt.Sprintf("media kind %s not supported", req.MediaKind)}
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), g.deps.Policy.TimeoutFor(req.MediaKind))
	defer cancel()

	res, err := provider.Generate(callCtx, req)
	if err != nil {
		var pf *ProviderFailure
		if errors.As(err, &pf) {
			return "", err
		}
		reason := "api error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return "", &ProviderFailure{ProviderID: req.ProviderID, Reason: reason, Err: err}
	}
	if res == nil || res.AssetURL == "" {
		return "", &ProviderFailure{ProviderID: req.ProviderID, Reason: "empty result"}
	}
	return res.AssetURL, nil
}

// resolve makes the scene asset public. The scene visual is essential, so an
// unresolvable URL counts as a provider failure.
func (g *Gate) resolve(ctx context.Context, providerID, raw string) (string, error) {
	if g.deps.Resolver == nil {
		return raw, nil
	}
	public, err := g.deps.Resolver.Resolve(ctx, raw)
	if err != nil {
		return "", &ProviderFailure{ProviderID: providerID, Reason: "asset not publicly resolvable", Err: err}
	}
	return public, nil
}

func (g *Gate) toScoring(assetURL string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a := g.state.lastAttempt(); a != nil {
		a.AssetURL = assetURL
	}
	return g.sm.Transition(g.state, StatusScoring)
}

func (g *Gate) score(ctx context.Context, assetURL string, req *GenerationRequest) (*ScoreResult, error) {
	if g.deps.Scorer == nil {
		return nil, errors.New("no content scorer configured")
	}
	sc := SceneContext{
		SceneID:       g.scene.ID,
		SceneType:     g.scene.Type,
		MediaKind:     req.MediaKind,
		NarrationText: g.scene.NarrationText,
		VisualPrompt:  g.scene.VisualPrompt,
		RequestPrompt: req.Prompt,
	}
	res, err := g.deps.Scorer.Score(ctx, assetURL, sc)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("empty score result")
	}
	if res.Score < 0 || res.Score > 100 {
		return nil, fmt.Errorf("%w: %.2f", ErrScoreOutOfRange, res.Score)
	}
	return res, nil
}

func (g *Gate) recordScore(res *ScoreResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a := g.state.lastAttempt(); a != nil {
		s := res.Score
		a.Score = &s
		a.Defects = append([]Defect(nil), res.Defects...)
	}
}

func (g *Gate) approve(res *ScoreResult, needsReview bool) (StateSnapshot, error) {
	g.recordScore(res)

	g.mu.Lock()
	if g.cancelRequested {
		g.mu.Unlock()
		return StateSnapshot{}, ErrGateCancelled
	}
	g.state.finishAttempt(OutcomeSucceeded, "")
	attempt := g.state.lastAttempt().clone()
	if err := g.state.approve(g.sm, needsReview); err != nil {
		g.mu.Unlock()
		return g.Snapshot(), err
	}
	snap := g.state.Snapshot()
	g.mu.Unlock()

	g.deps.Recorder.RecordAttempt(g.scene.ID, g.scene.Kind(), attempt)
	g.deps.Recorder.RecordTransition(g.scene.ID, StatusScoring, StatusApproved)
	g.deps.Recorder.RecordTerminal(snap)
	g.logger.Info("scene approved",
		zap.Int("attempt", attempt.Number),
		zap.String("provider_id", attempt.ProviderID),
		zap.Float64("score", res.Score),
		zap.Bool("needs_review", needsReview),
	)
	return snap, nil
}

// fail closes the pending attempt and either escalates, when the attempt
// attempts are exhausted, or moves to Regenerating. done reports escalation.
func (g *Gate) fail(outcome Outcome, reason, escalation string) (StateSnapshot, bool, error) {
	g.mu.Lock()
	g.state.finishAttempt(outcome, reason)
	attempt := g.state.lastAttempt().clone()
	from := g.state.Status()

	if g.state.AttemptCount() >= g.deps.Policy.MaxAttempts {
		if err := g.state.escalate(g.sm, escalation); err != nil {
			g.mu.Unlock()
			return g.Snapshot(), true, err
		}
		snap := g.state.Snapshot()
		g.mu.Unlock()

		g.deps.Recorder.RecordAttempt(g.scene.ID, g.scene.Kind(), attempt)
		g.deps.Recorder.RecordTransition(g.scene.ID, from, StatusEscalated)
		g.deps.Recorder.RecordTerminal(snap)
		g.logger.Warn("scene escalated",
			zap.Int("attempts", len(snap.Attempts)),
			zap.String("reason", escalation),
		)
		return snap, true, &EscalationRequired{SceneID: g.scene.ID, Reason: escalation, Attempts: len(snap.Attempts)}
	}

	if err := g.sm.Transition(g.state, StatusRegenerating); err != nil {
		g.mu.Unlock()
		return g.Snapshot(), true, err
	}
	g.mu.Unlock()

	g.deps.Recorder.RecordAttempt(g.scene.ID, g.scene.Kind(), attempt)
	g.deps.Recorder.RecordTransition(g.scene.ID, from, StatusRegenerating)
	g.logger.Debug("attempt failed",
		zap.Int("attempt", attempt.Number),
		zap.String("outcome", string(outcome)),
		zap.String("reason", reason),
	)
	return StateSnapshot{}, false, nil
}

// plan asks the planner for the next request.
func (g *Gate) plan(prev *GenerationRequest, hard bool) *GenerationRequest {
	g.mu.Lock()
	history := g.state.Attempts()
	g.mu.Unlock()

	next, decision := g.deps.Planner.Next(g.scene, prev, history, hard)
	if decision.Switched {
		g.logger.Info("switching provider",
			zap.String("from", decision.FromProvider),
			zap.String("to", decision.ToProvider),
			zap.String("reason", decision.Reason),
		)
	}
	return next
}

func (g *Gate) escalate(reason string) (StateSnapshot, error) {
	g.mu.Lock()
	from := g.state.Status()
	if err := g.state.escalate(g.sm, reason); err != nil {
		g.mu.Unlock()
		return g.Snapshot(), err
	}
	snap := g.state.Snapshot()
	g.mu.Unlock()

	g.deps.Recorder.RecordTransition(g.scene.ID, from, StatusEscalated)
	g.deps.Recorder.RecordTerminal(snap)
	g.logger.Warn("scene escalated", zap.String("reason", reason))
	return snap, &EscalationRequired{SceneID: g.scene.ID, Reason: reason, Attempts: len(snap.Attempts)}
}

// finishCancelled forces the Cancelled status, discarding any pending attempt.
func (g *Gate) finishCancelled(parent context.Context) (StateSnapshot, error) {
	g.mu.Lock()
	reason := g.cancelReason
	if !g.cancelRequested {
		reason = "project cancelled"
		if cause := context.Cause(parent); cause != nil && !errors.Is(cause, context.Canceled) {
			reason = "project cancelled: " + cause.Error()
		}
		g.cancelRequested = true
		g.cancelReason = reason
	}
	from := g.state.Status()
	last := g.state.lastAttempt()
	hadPending := last != nil && last.Outcome == OutcomePending
	if err := g.state.cancel(g.sm, reason); err != nil {
		g.mu.Unlock()
		return g.Snapshot(), err
	}
	snap := g.state.Snapshot()
	var discarded Attempt
	if hadPending {
		discarded = g.state.lastAttempt().clone()
	}
	g.mu.Unlock()

	if hadPending {
		g.deps.Recorder.RecordAttempt(g.scene.ID, g.scene.Kind(), discarded)
	}
	g.deps.Recorder.RecordTransition(g.scene.ID, from, StatusCancelled)
	g.deps.Recorder.RecordTerminal(snap)
	g.logger.Info("scene cancelled", zap.String("reason", reason))
	return snap, ErrGateCancelled
}
