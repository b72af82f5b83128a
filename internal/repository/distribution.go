package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
)

type DistributionRepository struct {
	db *gorm.DB
}

func NewDistributionRepository(db *gorm.DB) *DistributionRepository {
	return &DistributionRepository{db: db}
}

// GetBySafe lists reward payouts made to a Safe, newest first.
func (r *DistributionRepository) GetBySafe(ctx context.Context, safeAddress string) ([]models.RewardDistribution, error) {
	var distributions []models.RewardDistribution
	err := r.db.WithContext(ctx).
		Where("safe_address = ?", safeAddress).
		Order("block_number DESC").
		Find(&distributions).Error
	return distributions, err
}
