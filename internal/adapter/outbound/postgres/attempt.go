// Package postgres archives generation attempts and render specs with GORM.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uniedit/reelforge/internal/model"
	"github.com/uniedit/reelforge/internal/port/outbound"
)

// AttemptDBAdapter implements AttemptDatabasePort.
type AttemptDBAdapter struct {
	db *gorm.DB
}

// NewAttemptDBAdapter creates a new attempt database adapter.
func NewAttemptDBAdapter(db *gorm.DB) *AttemptDBAdapter {
	return &AttemptDBAdapter{db: db}
}

func (a *AttemptDBAdapter) Record(ctx context.Context, record *model.AttemptRecord) error {
	if err := a.db.WithContext(ctx).Create(FromAttemptRecord(record)).Error; err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (a *AttemptDBAdapter) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*model.AttemptRecord, error) {
	var entities []AttemptEntity
	if err := a.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("scene_id, attempt_number").
		Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find attempts: %w", err)
	}

	records := make([]*model.AttemptRecord, len(entities))
	for i := range entities {
		records[i] = entities[i].ToModel()
	}
	return records, nil
}

var _ outbound.AttemptDatabasePort = (*AttemptDBAdapter)(nil)

// AutoMigrate creates or updates the archive tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AttemptEntity{}, &RenderSpecEntity{})
}
