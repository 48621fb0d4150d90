package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// RenderSpecDBAdapter implements RenderSpecDatabasePort.
type RenderSpecDBAdapter struct {
	db *gorm.DB
}

// NewRenderSpecDBAdapter creates a new render spec database adapter.
func NewRenderSpecDBAdapter(db *gorm.DB) *RenderSpecDBAdapter {
	return &RenderSpecDBAdapter{db: db}
}

func (a *RenderSpecDBAdapter) Save(ctx context.Context, record *model.RenderSpecRecord) error {
	if err := a.db.WithContext(ctx).Create(FromRenderSpecRecord(record)).Error; err != nil {
		return fmt.Errorf("save render spec: %w", err)
	}
	return nil
}

func (a *RenderSpecDBAdapter) FindLatest(ctx context.Context, projectID uuid.UUID) (*model.RenderSpecRecord, error) {
	var e RenderSpecEntity
	if err := a.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find render spec: %w", err)
	}
	return e.ToModel(), nil
}

var _ outbound.RenderSpecDatabasePort = (*RenderSpecDBAdapter)(nil)
