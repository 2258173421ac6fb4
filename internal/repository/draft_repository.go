package repository

import (
	"context"
	"fmt"

	"hydrogen-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRepository persists in-progress store configuration forms.
type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Save(ctx context.Context, key string, step int, payload string) (*models.StoreDraft, error) {
	draft := models.StoreDraft{DraftKey: key, Step: step, Payload: payload}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "draft_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"step", "payload", "updated_at"}),
	}).Create(&draft).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return r.Load(ctx, key)
}

func (r *DraftRepository) Load(ctx context.Context, key string) (*models.StoreDraft, error) {
	var draft models.StoreDraft
	err := r.db.WithContext(ctx).First(&draft, "draft_key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return &draft, nil
}

// Clear removes the draft. Clearing a missing draft is not an error.
func (r *DraftRepository) Clear(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("draft_key = ?", key).Delete(&models.StoreDraft{}).Error; err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}
