package project

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/uniedit/reelforge/internal/domain/asset"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// --- Asset fakes ---

// hookResolver runs hook on the first Resolve after arm, then resolves normally.
type hookResolver struct {
	asset.Resolver
	armed atomic.Bool
	fired atomic.Int32
	hook  func()
}

func (r *hookResolver) arm() { r.armed.Store(true) }

func (r *hookResolver) Resolve(ctx context.Context, raw string) (string, error) {
	if r.armed.CompareAndSwap(true, false) {
		r.fired.Add(1)
		r.hook()
	}
	return r.Resolver.Resolve(ctx, raw)
}

// --- Generation fakes ---

type fakeProvider struct {
	id    string
	delay time.Duration
	// block, when set, holds every call until closed or cancelled.
	block chan struct{}

	mu    sync.Mutex
	calls int

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (p *fakeProvider) ID() string                          { return p.id }
func (p *fakeProvider) Supports(kind script.MediaKind) bool { return kind.IsVisual() }

func (p *fakeProvider) Generate(ctx context.Context, req *generation.GenerationRequest) (*generation.GenerationResult, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		cur := p.maxInFlight.Load()
		if n <= cur || p.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()

	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return &generation.GenerationResult{
		AssetURL: fmt.Sprintf("https://cdn.example.com/gen/%s-%d.mp4", req.SceneID, call),
	}, nil
}

type providerMap map[string]generation.ProviderAdapter

func (m providerMap) Get(id string) (generation.ProviderAdapter, bool) {
	p, ok := m[id]
	return p, ok
}

// sceneScorer scores by scene id, defaulting to an approval.
type sceneScorer struct {
	scores map[string]float64
}

func (s *sceneScorer) Score(_ context.Context, _ string, sc generation.SceneContext) (*generation.ScoreResult, error) {
	if v, ok := s.scores[sc.SceneID]; ok {
		return &generation.ScoreResult{Score: v, Defects: []generation.Defect{generation.DefectMismatchedContent}}, nil
	}
	return &generation.ScoreResult{Score: 92}, nil
}

// --- Port mocks ---

type MockProjectCache struct {
	mock.Mock
}

func (m *MockProjectCache) SaveSnapshot(ctx context.Context, snapshot *model.ProjectSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockProjectCache) GetSnapshot(ctx context.Context, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProjectSnapshot), args.Error(1)
}

func (m *MockProjectCache) DeleteSnapshot(ctx context.Context, projectID uuid.UUID) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

type MockAttemptDB struct {
	mock.Mock
}

func (m *MockAttemptDB) Record(ctx context.Context, record *model.AttemptRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAttemptDB) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*model.AttemptRecord, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AttemptRecord), args.Error(1)
}

type MockSpecDB struct {
	mock.Mock
}

func (m *MockSpecDB) Save(ctx context.Context, record *model.RenderSpecRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSpecDB) FindLatest(ctx context.Context, projectID uuid.UUID) (*model.RenderSpecRecord, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderSpecRecord), args.Error(1)
}

type MockEscalations struct {
	mock.Mock
}

func (m *MockEscalations) PublishEscalation(ctx context.Context, event *model.EscalationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, spec *timeline.RenderSpec) (*model.RenderedVideo, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderedVideo), args.Error(1)
}

type MockOutputs struct {
	mock.Mock
}

func (m *MockOutputs) Upload(ctx context.Context, projectID uuid.UUID, video *model.RenderedVideo) (*model.RenderOutput, error) {
	args := m.Called(ctx, projectID, video)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderOutput), args.Error(1)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordAttempt(kind script.MediaKind, attempt generation.Attempt) {
	m.Called(kind, attempt)
}

func (m *MockMetrics) RecordTerminal(status generation.Status) {
	m.Called(status)
}

func (m *MockMetrics) RecordAdmissionWait(seconds float64) {
	m.Called(seconds)
}

func (m *MockMetrics) RecordComposition(outcome string, droppedAssets int) {
	m.Called(outcome, droppedAssets)
}

var (
	_ outbound.ProjectCachePort        = (*MockProjectCache)(nil)
	_ outbound.AttemptDatabasePort     = (*MockAttemptDB)(nil)
	_ outbound.RenderSpecDatabasePort  = (*MockSpecDB)(nil)
	_ outbound.EscalationPublisherPort = (*MockEscalations)(nil)
	_ outbound.RenderBackendPort       = (*MockRenderer)(nil)
	_ outbound.RenderOutputStoragePort = (*MockOutputs)(nil)
	_ outbound.GenerationMetricsPort   = (*MockMetrics)(nil)
)
