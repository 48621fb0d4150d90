package project

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/domain/brand"
	"github.com/uniedit/reelforge/internal/domain/frames"
	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/domain/sound"
	"github.com/uniedit/reelforge/internal/domain/timeline"
	"github.com/uniedit/reelforge/internal/model"
)

// project is the in-memory state of one submitted script.
type project struct {
	id        uuid.UUID
	script    script.Script
	scenes    []script.Scene
	table     *frames.Table
	brand     *brand.Config
	voiceover []sound.VoiceoverClip
	musicURL  string
	gates     map[string]*generation.Gate
	createdAt time.Time

	// ctx scopes every gate run; cancel aborts the whole project.
	ctx    context.Context
	cancel context.CancelCauseFunc
	// done is closed once every gate is terminal.
	done chan struct{}

	mu        sync.Mutex
	overrides map[string]string
	// revision counts overrides; a spec is stored only if it saw the latest one.
	revision  uint64
	cancelled bool
	spec      *timeline.RenderSpec
	specID    *uuid.UUID
	renderURL string
	updatedAt time.Time
}

func (p *project) touch() {
	p.mu.Lock()
	p.updatedAt = time.Now()
	p.mu.Unlock()
}

func (p *project) isCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

func (p *project) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// sources collects every scene's gate state and override along with the
// override revision they reflect. blocked lists the terminal scenes that have
// no asset and no override.
func (p *project) sources() (map[string]timeline.SceneSource, []string, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]timeline.SceneSource, len(p.scenes))
	var blocked []string
	for _, s := range p.scenes {
		st := p.gates[s.ID].Snapshot()
		override := p.overrides[s.ID]
		out[s.ID] = timeline.SceneSource{State: st, OverrideURL: override}
		if timeline.Overridable(st.Status) && override == "" {
			blocked = append(blocked, s.ID)
		}
	}
	return out, blocked, p.revision
}

func (p *project) currentRevision() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revision
}

// storeSpec keeps spec unless an override landed after revision was read.
func (p *project) storeSpec(revision uint64, spec *timeline.RenderSpec, specID *uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revision != revision {
		return false
	}
	p.spec = spec
	p.specID = specID
	p.renderURL = ""
	p.updatedAt = time.Now()
	return true
}

func (p *project) snapshot() *model.ProjectSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := &model.ProjectSnapshot{
		ID:          p.id,
		Title:       p.script.Title,
		AspectRatio: p.script.Aspect(),
		Scenes:      make([]model.SceneSnapshot, 0, len(p.scenes)),
		SpecID:      p.specID,
		RenderURL:   p.renderURL,
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
	}

	unfinished, blocked := 0, 0
	for _, s := range p.scenes {
		st := p.gates[s.ID].Snapshot()
		override := p.overrides[s.ID]
		snap.Scenes = append(snap.Scenes, model.SceneSnapshot{
			StateSnapshot: st,
			Index:         s.Index,
			Type:          s.Type,
			MediaKind:     s.Kind(),
			OverrideURL:   override,
		})
		if st.UpdatedAt.After(snap.UpdatedAt) {
			snap.UpdatedAt = st.UpdatedAt
		}
		switch {
		case !st.Status.IsTerminal():
			unfinished++
		case timeline.Overridable(st.Status) && override == "":
			blocked++
		case st.Status == generation.StatusApproved && st.NeedsReview:
			snap.FlaggedCount++
		}
	}
	snap.NeedsReviewCount = blocked

	switch {
	case p.cancelled:
		snap.Status = model.ProjectStatusCancelled
		snap.Message = "project cancelled"
	case p.renderURL != "":
		snap.Status = model.ProjectStatusRendered
	case p.spec != nil:
		snap.Status = model.ProjectStatusComposed
	case unfinished > 0:
		snap.Status = model.ProjectStatusGenerating
		snap.Message = fmt.Sprintf("%d of %d scenes generating", unfinished, len(p.scenes))
	case blocked > 0:
		snap.Status = model.ProjectStatusNeedsReview
		snap.Message = reviewMessage(blocked)
	default:
		snap.Status = model.ProjectStatusReady
	}
	return snap
}

// attempts returns the in-memory attempt history in scene order.
func (p *project) attempts() []*model.AttemptRecord {
	var out []*model.AttemptRecord
	for _, s := range p.scenes {
		for _, a := range p.gates[s.ID].Snapshot().Attempts {
			out = append(out, &model.AttemptRecord{
				ProjectID: p.id,
				SceneID:   s.ID,
				MediaKind: s.Kind(),
				Attempt:   a,
			})
		}
	}
	return out
}
