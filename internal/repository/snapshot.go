package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) WithTx(tx *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: tx}
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot *models.TokenBalanceSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// GetBySafeAndWeek lists a Safe's snapshots for one week, oldest first.
func (r *SnapshotRepository) GetBySafeAndWeek(ctx context.Context, safeAddress, weekID string) ([]models.TokenBalanceSnapshot, error) {
	var snapshots []models.TokenBalanceSnapshot
	err := r.db.WithContext(ctx).
		Where("safe_address = ? AND week = ?", safeAddress, weekID).
		Order("block_number ASC").
		Find(&snapshots).Error
	return snapshots, err
}

// LatestBlockNumber returns the block number of the most recent snapshot, or
// 0 when none exist. Used by the /status endpoint.
func (r *SnapshotRepository) LatestBlockNumber(ctx context.Context) (int64, error) {
	var snapshot models.TokenBalanceSnapshot
	err := r.db.WithContext(ctx).
		Order("block_number DESC").
		First(&snapshot).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return snapshot.BlockNumber, err
}
