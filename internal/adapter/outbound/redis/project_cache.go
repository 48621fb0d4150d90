package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

const (
	projectSnapshotKeyPrefix = "project:snapshot:"
	defaultSnapshotTTL       = 24 * time.Hour
)

// ProjectCacheAdapter implements ProjectCachePort as JSON documents in a CachePort.
type ProjectCacheAdapter struct {
	cache outbound.CachePort
	ttl   time.Duration
}

// NewProjectCacheAdapter creates a new project snapshot cache.
func NewProjectCacheAdapter(cache outbound.CachePort, ttl time.Duration) *ProjectCacheAdapter {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &ProjectCacheAdapter{cache: cache, ttl: ttl}
}

func snapshotKey(projectID uuid.UUID) string {
	return projectSnapshotKeyPrefix + projectID.String()
}

func (a *ProjectCacheAdapter) SaveSnapshot(ctx context.Context, snapshot *model.ProjectSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return a.cache.Set(ctx, snapshotKey(snapshot.ID), data, a.ttl)
}

func (a *ProjectCacheAdapter) GetSnapshot(ctx context.Context, projectID uuid.UUID) (*model.ProjectSnapshot, error) {
	data, err := a.cache.Get(ctx, snapshotKey(projectID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var snapshot model.ProjectSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

func (a *ProjectCacheAdapter) DeleteSnapshot(ctx context.Context, projectID uuid.UUID) error {
	return a.cache.Delete(ctx, snapshotKey(projectID))
}

// Compile-time interface check
var _ outbound.ProjectCachePort = (*ProjectCacheAdapter)(nil)
