package repository

import (
	"context"
	"fmt"

	"hydrogen-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// List returns stores ordered by name.
func (r *StoreRepository) List(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("store_name ASC").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

func (r *StoreRepository) Get(ctx context.Context, storeID string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).First(&store, "store_id = ?", storeID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store: %w", err)
	}
	return &store, nil
}

// Upsert writes the registry snapshot, replacing rows with the same id.
func (r *StoreRepository) Upsert(ctx context.Context, stores []models.Store) error {
	if len(stores) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}},
		UpdateAll: true,
	}).Create(&stores).Error
	if err != nil {
		return fmt.Errorf("failed to upsert stores: %w", err)
	}
	return nil
}
