package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
)

type MetricsRepository struct {
	db *gorm.DB
}

func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) WithTx(tx *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: tx}
}

// Ensure registers a week id, keeping existing metrics untouched when the
// row already exists.
func (r *MetricsRepository) Ensure(ctx context.Context, weekID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WeekMetricsSnapshot{Date: weekID}).Error
}

// List returns all known weeks, oldest first.
func (r *MetricsRepository) List(ctx context.Context) ([]models.WeekMetricsSnapshot, error) {
	var weeks []models.WeekMetricsSnapshot
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Find(&weeks).Error
	return weeks, err
}
