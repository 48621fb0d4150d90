// Package project orchestrates quality gates for every scene of a script and
// composes the approved scenes into a render spec.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/sound"
	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/inbound"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

const defaultCancelReason = "cancelled by user"

// Dependencies are the collaborators of the project domain. Providers, Scorer
// and Resolver are required; every store is optional.
type Dependencies struct {
	Providers generation.ProviderLookup
	Scorer    generation.ContentScorer
	Resolver  asset.Resolver
	Planner   *generation.Planner

	Cache       outbound.ProjectCachePort
	Attempts    outbound.AttemptDatabasePort
	Specs       outbound.RenderSpecDatabasePort
	Escalations outbound.EscalationPublisherPort
	Renderer    outbound.RenderBackendPort
	Outputs     outbound.RenderOutputStoragePort
	Metrics     outbound.GenerationMetricsPort
}

// Domain implements project orchestration.
type Domain struct {
	deps      Dependencies
	config    *Config
	clock     frames.Clock
	admission *generation.SemaphoreAdmission
	brand     *brand.Planner
	sound     *sound.Planner
	composer  *timeline.Composer
	logger    *zap.Logger

	// baseCtx outlives requests; gates run under it until Shutdown.
	baseCtx  context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu       sync.RWMutex
	projects map[uuid.UUID]*project
}

// NewDomain creates a project domain. One admission limit is shared by every
// project the domain runs.
func NewDomain(deps Dependencies, config *Config, logger *zap.Logger) (*Domain, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config = config.withDefaults()
	if err := config.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := config.Sound.Validate(); err != nil {
		return nil, err
	}
	if err := config.Brand.Validate(); err != nil {
		return nil, err
	}
	clock, err := frames.NewClock(config.FPS)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Planner == nil {
		deps.Planner = generation.NewPlanner(nil, nil, nil)
	}

	baseCtx, shutdown := context.WithCancel(context.Background())
	return &Domain{
		deps:      deps,
		config:    config,
		clock:     clock,
		admission: generation.NewSemaphoreAdmission(config.MaxConcurrentCalls),
		brand:     brand.NewPlanner(deps.Resolver, logger),
		sound:     sound.NewPlanner(config.Sound),
		composer:  timeline.NewComposer(deps.Resolver, logger),
		logger:    logger.Named("project"),
		baseCtx:   baseCtx,
		shutdown:  shutdown,
		projects:  make(map[uuid.UUID]*project),
	}, nil
}

// Shutdown cancels every running gate and waits for them to stop.
func (d *Domain) Shutdown(ctx context.Context) error {
	d.shutdown()
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit validates a script and starts one quality gate per scene. Gates run
// in the background; the returned snapshot is taken right after they start.
func (d *Domain) Submit(ctx context.Context, input *inbound.ProjectSubmitInput) (*model.ProjectSnapshot, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: empty submission", ErrInvalidScript)
	}
	sc := input.Script
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	scenes := sc.Ordered()
	table, err := frames.BuildTable(d.clock, scenes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	brandCfg := d.config.Brand
	if input.Brand != nil {
		brandCfg = input.Brand
	}
	if err := brandCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBrand, err)
	}
	for _, clip := range input.Voiceover {
		if _, ok := table.SpanFor(clip.SceneID); !ok {
			return nil, fmt.Errorf("%w: voiceover for unknown scene %s", ErrInvalidScript, clip.SceneID)
		}
	}
	musicURL := input.MusicURL
	if musicURL == "" {
		musicURL = d.config.MusicURL
	}

	now := time.Now()
	p := &project{
		id:        uuid.New(),
		script:    sc,
		scenes:    scenes,
		table:     table,
		brand:     brandCfg,
		voiceover: append([]sound.VoiceoverClip(nil), input.Voiceover...),
		musicURL:  musicURL,
		gates:     make(map[string]*generation.Gate, len(scenes)),
		createdAt: now,
		done:      make(chan struct{}),
		overrides: make(map[string]string),
		updatedAt: now,
	}
	p.ctx, p.cancel = context.WithCancelCause(d.baseCtx)

	gateDeps := generation.GateDeps{
		Providers: d.deps.Providers,
		Scorer:    d.deps.Scorer,
		Resolver:  d.deps.Resolver,
		Admission: d.admission,
		Recorder:  &recorder{domain: d, project: p},
		Planner:   d.deps.Planner,
		Policy:    d.config.Policy,
	}
	gateLogger := d.logger.With(zap.String("project_id", p.id.String()))
	for _, s := range scenes {
		p.gates[s.ID] = generation.NewGate(s, sc.Aspect(), gateDeps, gateLogger)
	}

	d.mu.Lock()
	d.projects[p.id] = p
	d.mu.Unlock()

	d.run(p)

	snap := p.snapshot()
	d.persist(snap)
	d.logger.Info("project submitted",
		zap.String("project_id", p.id.String()),
		zap.Int("scenes", len(scenes)),
		zap.Int("total_frames", table.TotalFrames()),
	)
	return snap, nil
}

// run starts every gate. Gates are independent: one escalating never cancels another.
func (d *Domain) run(p *project) {
	var g errgroup.Group
	for _, s := range p.scenes {
		gate := p.gates[s.ID]
		g.Go(func() error {
			_, err := gate.Run(p.ctx)
			var esc *generation.EscalationRequired
			switch {
			case err == nil, errors.As(err, &esc), errors.Is(err, generation.ErrGateCancelled):
			default:
				d.logger.Error("gate stopped unexpectedly",
					zap.String("project_id", p.id.String()),
					zap.String("scene_id", s.ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		_ = g.Wait()
		close(p.done)
		snap := p.snapshot()
		d.persist(snap)
		d.logger.Info("project generation finished",
			zap.String("project_id", p.id.String()),
			zap.String("status", string(snap.Status)),
			zap.Int("needs_review", snap.NeedsReviewCount),
		)
	}()
}

// Get returns the snapshot of a project, falling back to the cache for
// projects this process does not hold.
func (d *Domain) Get(ctx context.Context, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	if p, ok := d.lookup(projectID); ok {
		return p.snapshot(), nil
	}
	if d.deps.Cache != nil {
		snap, err := d.deps.Cache.GetSnapshot(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("get project snapshot: %w", err)
		}
		if snap != nil {
			return snap, nil
		}
	}
	return nil, ErrProjectNotFound
}

// Attempts returns the attempt history of a project.
func (d *Domain) Attempts(ctx context.Context, projectID uuid.UUID) ([]*model.AttemptRecord, error) {
	if p, ok := d.lookup(projectID); ok {
		return p.attempts(), nil
	}
	if d.deps.Attempts == nil {
		return nil, ErrProjectNotFound
	}
	records, err := d.deps.Attempts.FindByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("find attempts: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrProjectNotFound
	}
	return records, nil
}

// Cancel cancels every unfinished scene. Cancelling twice is a no-op.
func (d *Domain) Cancel(ctx context.Context, projectID uuid.UUID, reason string) (*model.ProjectSnapshot, error) {
	p, ok := d.lookup(projectID)
	if !ok {
		return nil, ErrProjectNotFound
	}
	if reason == "" {
		reason = defaultCancelReason
	}

	p.mu.Lock()
	if p.cancelled {
		p.mu.Unlock()
		return p.snapshot(), nil
	}
	p.cancelled = true
	p.updatedAt = time.Now()
	p.mu.Unlock()

	for _, s := range p.scenes {
		if err := p.gates[s.ID].Cancel(reason); err != nil && !errors.Is(err, generation.ErrGateTerminal) {
			d.logger.Warn("scene cancel failed", zap.String("scene_id", s.ID), zap.Error(err))
		}
	}
	p.cancel(fmt.Errorf("%w: %s", ErrProjectCancelled, reason))

	snap := p.snapshot()
	d.persist(snap)
	d.logger.Info("project cancelled", zap.String("project_id", projectID.String()), zap.String("reason", reason))
	return snap, nil
}

// CancelScene cancels one scene. An in-flight provider call finishes but its
// result is discarded.
func (d *Domain) CancelScene(ctx context.Context, projectID uuid.UUID, sceneID, reason string) (*model.ProjectSnapshot, error) {
	p, gate, err := d.gate(projectID, sceneID)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = defaultCancelReason
	}
	if err := gate.Cancel(reason); err != nil {
		if errors.Is(err, generation.ErrGateTerminal) {
			return nil, fmt.Errorf("%w: %s", ErrSceneTerminal, sceneID)
		}
		return nil, err
	}
	p.touch()
	snap := p.snapshot()
	d.persist(snap)
	return snap, nil
}

// OverrideScene attaches a human-chosen asset to an escalated or cancelled
// scene. Overriding invalidates any previously composed spec.
func (d *Domain) OverrideScene(ctx context.Context, projectID uuid.UUID, sceneID, assetURL string) (*model.ProjectSnapshot, error) {
	p, gate, err := d.gate(projectID, sceneID)
	if err != nil {
		return nil, err
	}
	if p.isCancelled() {
		return nil, ErrProjectCancelled
	}
	st := gate.Snapshot()
	if !timeline.Overridable(st.Status) {
		return nil, fmt.Errorf("%w: scene %s is %s", ErrOverrideNotAllowed, sceneID, st.Status)
	}
	if d.deps.Resolver == nil {
		return nil, fmt.Errorf("%w: no resolver configured", ErrInvalidOverride)
	}
	if _, err := d.deps.Resolver.Resolve(ctx, assetURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOverride, err)
	}

	p.mu.Lock()
	p.overrides[sceneID] = assetURL
	p.revision++
	p.spec = nil
	p.specID = nil
	p.renderURL = ""
	p.updatedAt = time.Now()
	p.mu.Unlock()

	d.logger.Info("scene overridden",
		zap.String("project_id", projectID.String()),
		zap.String("scene_id", sceneID),
		zap.String("previous_status", string(st.Status)),
	)
	snap := p.snapshot()
	d.persist(snap)
	return snap, nil
}

// Compose builds the render spec. With wait set it first joins every gate;
// otherwise unfinished scenes fail composition.
func (d *Domain) Compose(ctx context.Context, projectID uuid.UUID, wait bool) (*timeline.RenderSpec, error) {
	p, ok := d.lookup(projectID)
	if !ok {
		return nil, ErrProjectNotFound
	}
	if p.isCancelled() {
		return nil, ErrProjectCancelled
	}
	if wait {
		select {
		case <-p.done:
		case <-p.ctx.Done():
			return nil, ErrProjectCancelled
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if p.isCancelled() {
			return nil, ErrProjectCancelled
		}
	}

	for attempt := 1; ; attempt++ {
		spec, revision, err := d.compose(ctx, p)
		if err != nil {
			return nil, err
		}
		if p.currentRevision() == revision {
			specID := d.archive(ctx, p.id, spec)
			if p.storeSpec(revision, spec, specID) {
				d.recordComposition("composed", len(spec.Dropped()))
				d.persist(p.snapshot())
				return spec, nil
			}
		}
		if attempt >= maxComposeAttempts {
			d.recordComposition("failed", 0)
			return nil, ErrCompositionStale
		}
		d.logger.Info("scene overridden during composition, recomposing",
			zap.String("project_id", p.id.String()),
			zap.Int("attempt", attempt),
		)
	}
}

// maxComposeAttempts bounds recomposition when overrides keep landing mid-compose.
const maxComposeAttempts = 3

// compose builds one spec from the project's current sources and returns the
// override revision it was built from.
func (d *Domain) compose(ctx context.Context, p *project) (*timeline.RenderSpec, uint64, error) {
	sources, blocked, revision := p.sources()
	if len(blocked) > 0 && p.finished() {
		d.recordComposition("needs_review", 0)
		return nil, 0, &NeedsReviewError{SceneIDs: blocked}
	}

	brandPlan, err := d.brand.Plan(ctx, p.brand, p.scenes)
	if err != nil {
		d.recordComposition("failed", 0)
		return nil, 0, err
	}
	reveal, hasIntro := brandPlan.IntroRevealSeconds()
	soundPlan, err := d.sound.Plan(sound.Input{
		Table:              p.table,
		Voiceover:          p.voiceover,
		HasIntro:           hasIntro,
		IntroRevealSeconds: reveal,
		HasOutro:           brandPlan.HasOutro(),
	})
	if err != nil {
		d.recordComposition("failed", 0)
		return nil, 0, err
	}

	spec, err := d.composer.Compose(ctx, timeline.Input{
		Table:       p.table,
		Scenes:      p.scenes,
		AspectRatio: p.script.Aspect(),
		Sources:     sources,
		Brand:       brandPlan,
		Sound:       soundPlan,
		MusicURL:    p.musicURL,
		SFXLibrary:  d.config.SFXLibrary,
	})
	if err != nil {
		d.recordComposition("failed", 0)
		return nil, 0, err
	}
	return spec, revision, nil
}

// Render renders the latest composed spec and stores the video. Projects this
// process does not hold are rendered from the archived spec.
func (d *Domain) Render(ctx context.Context, projectID uuid.UUID) (*model.RenderOutput, error) {
	if d.deps.Renderer == nil || d.deps.Outputs == nil {
		return nil, ErrRenderUnavailable
	}
	p, spec, err := d.renderable(ctx, projectID)
	if err != nil {
		return nil, err
	}

	video, err := d.deps.Renderer.Render(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out, err := d.deps.Outputs.Upload(ctx, projectID, video)
	if err != nil {
		return nil, fmt.Errorf("upload render: %w", err)
	}

	if p != nil {
		p.mu.Lock()
		p.renderURL = out.URL
		p.updatedAt = time.Now()
		p.mu.Unlock()
		d.persist(p.snapshot())
	}
	d.logger.Info("project rendered",
		zap.String("project_id", projectID.String()),
		zap.String("key", out.Key),
		zap.Int64("size_bytes", out.SizeBytes),
	)
	return out, nil
}

func (d *Domain) renderable(ctx context.Context, projectID uuid.UUID) (*project, *timeline.RenderSpec, error) {
	if p, ok := d.lookup(projectID); ok {
		if p.isCancelled() {
			return nil, nil, ErrProjectCancelled
		}
		p.mu.Lock()
		spec := p.spec
		p.mu.Unlock()
		if spec == nil {
			return nil, nil, ErrNotComposed
		}
		return p, spec, nil
	}
	if d.deps.Specs == nil {
		return nil, nil, ErrProjectNotFound
	}
	record, err := d.deps.Specs.FindLatest(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("find render spec: %w", err)
	}
	if record == nil {
		return nil, nil, ErrProjectNotFound
	}
	spec, err := timeline.Decode(record.Spec)
	if err != nil {
		return nil, nil, fmt.Errorf("decode render spec: %w", err)
	}
	return nil, spec, nil
}

// archive stores the encoded spec. Archive failures are logged; the spec
// stays usable in memory.
func (d *Domain) archive(ctx context.Context, projectID uuid.UUID, spec *timeline.RenderSpec) *uuid.UUID {
	if d.deps.Specs == nil {
		return nil
	}
	data, err := json.Marshal(spec)
	if err != nil {
		d.logger.Error("encode render spec", zap.Error(err))
		return nil
	}
	record := &model.RenderSpecRecord{
		ID:          uuid.New(),
		ProjectID:   projectID,
		FPS:         spec.FPS(),
		TotalFrames: spec.TotalFrames(),
		AspectRatio: spec.AspectRatio(),
		Spec:        data,
		CreatedAt:   time.Now(),
	}
	if err := d.deps.Specs.Save(ctx, record); err != nil {
		d.logger.Warn("render spec not archived", zap.String("project_id", projectID.String()), zap.Error(err))
		return nil
	}
	return &record.ID
}

func (d *Domain) recordComposition(outcome string, dropped int) {
	if d.deps.Metrics != nil {
		d.deps.Metrics.RecordComposition(outcome, dropped)
	}
}

// persist writes a snapshot to the cache without the caller's context, so a
// finished request does not lose the write.
func (d *Domain) persist(snap *model.ProjectSnapshot) {
	if d.deps.Cache == nil {
		return
	}
	ctx, cancel := d.persistContext()
	defer cancel()
	if err := d.deps.Cache.SaveSnapshot(ctx, snap); err != nil {
		d.logger.Warn("project snapshot not cached", zap.String("project_id", snap.ID.String()), zap.Error(err))
	}
}

func (d *Domain) persistContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.config.PersistTimeout)
}

func (d *Domain) lookup(id uuid.UUID) (*project, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.projects[id]
	return p, ok
}

func (d *Domain) gate(projectID uuid.UUID, sceneID string) (*project, *generation.Gate, error) {
	p, ok := d.lookup(projectID)
	if !ok {
		return nil, nil, ErrProjectNotFound
	}
	gate, ok := p.gates[sceneID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrSceneNotFound, sceneID)
	}
	return p, gate, nil
}

// Compile-time check
var _ inbound.ProjectDomain = (*Domain)(nil)
