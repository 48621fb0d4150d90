package project

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniedit/reelforge/internal/domain/generation"
	"github.com/uniedit/reelforge/internal/domain/script"
	"github.com/uniedit/reelforge/internal/model"
)

// recorder fans gate events out to metrics, the attempt archive, the
// snapshot cache and the escalation topic.
type recorder struct {
	domain  *Domain
	project *project
}

func (r *recorder) RecordTransition(sceneID string, from, to generation.Status) {
	r.project.touch()
	r.domain.logger.Debug("scene transition",
		zap.String("project_id", r.project.id.String()),
		zap.String("scene_id", sceneID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

func (r *recorder) RecordAttempt(sceneID string, kind script.MediaKind, attempt generation.Attempt) {
	d := r.domain
	if d.deps.Metrics != nil {
		d.deps.Metrics.RecordAttempt(kind, attempt)
	}
	if d.deps.Attempts == nil {
		return
	}
	ctx, cancel := d.persistContext()
	defer cancel()
	record := &model.AttemptRecord{
		ProjectID: r.project.id,
		SceneID:   sceneID,
		MediaKind: kind,
		Attempt:   attempt,
	}
	if err := d.deps.Attempts.Record(ctx, record); err != nil {
		d.logger.Warn("attempt not archived",
			zap.String("project_id", r.project.id.String()),
			zap.String("scene_id", sceneID),
			zap.Int("attempt", attempt.Number),
			zap.Error(err),
		)
	}
}

func (r *recorder) RecordAdmissionWait(wait time.Duration) {
	if m := r.domain.deps.Metrics; m != nil {
		m.RecordAdmissionWait(wait.Seconds())
	}
}

func (r *recorder) RecordTerminal(snapshot generation.StateSnapshot) {
	d := r.domain
	if d.deps.Metrics != nil {
		d.deps.Metrics.RecordTerminal(snapshot.Status)
	}
	if snapshot.Status == generation.StatusEscalated {
		r.publishEscalation(snapshot)
	}
	d.persist(r.project.snapshot())
}

func (r *recorder) publishEscalation(snapshot generation.StateSnapshot) {
	d := r.domain
	if d.deps.Escalations == nil {
		return
	}
	index := -1
	if gate, ok := r.project.gates[snapshot.SceneID]; ok {
		index = gate.Scene().Index
	}
	event := &model.EscalationEvent{
		ID:         uuid.New(),
		ProjectID:  r.project.id,
		SceneID:    snapshot.SceneID,
		SceneIndex: index,
		Reason:     snapshot.EscalationReason,
		Attempts:   snapshot.Attempts,
		OccurredAt: time.Now(),
	}
	ctx, cancel := d.persistContext()
	defer cancel()
	if err := d.deps.Escalations.PublishEscalation(ctx, event); err != nil {
		d.logger.Error("escalation not published",
			zap.String("project_id", r.project.id.String()),
			zap.String("scene_id", snapshot.SceneID),
			zap.Error(err),
		)
	}
}

var _ generation.Recorder = (*recorder)(nil)
