package repository

import (
	"context"
	"fmt"
	"time"

	"hydrogen-admin/internal/models"

	"gorm.io/gorm"
)

// RunRepository stores bulk run history and per-row outcomes.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(ctx context.Context, run *models.PublishRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Finish stores the final counters and records of a run in one transaction.
func (r *RunRepository) Finish(ctx context.Context, run *models.PublishRun, records []models.RunRecord) error {
	now := time.Now()
	run.FinishedAt = &now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(run).Updates(map[string]interface{}{
			"status":           run.Status,
			"count_total":      run.Counters.Total,
			"count_processed":  run.Counters.Processed,
			"count_successful": run.Counters.Successful,
			"count_failed":     run.Counters.Failed,
			"message":          run.Message,
			"finished_at":      run.FinishedAt,
		}).Error; err != nil {
			return fmt.Errorf("failed to update run: %w", err)
		}

		for i := range records {
			records[i].RunID = run.ID
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 100).Error; err != nil {
				return fmt.Errorf("failed to store run records: %w", err)
			}
		}
		return nil
	})
}

func (r *RunRepository) Get(ctx context.Context, id string) (*models.PublishRun, error) {
	var run models.PublishRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run: %w", err)
	}
	return &run, nil
}

// List returns the most recent runs first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.PublishRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.PublishRun
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Records returns the run's records in row order, optionally filtered by outcome.
func (r *RunRepository) Records(ctx context.Context, runID string, outcome models.RecordOutcome) ([]models.RunRecord, error) {
	query := r.db.WithContext(ctx).Where("run_id = ?", runID)
	if outcome != "" {
		query = query.Where("outcome = ?", outcome)
	}
	var records []models.RunRecord
	if err := query.Order("position ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch run records: %w", err)
	}
	return records, nil
}
