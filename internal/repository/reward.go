package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
	apperrors "github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *RewardRepository) WithTx(tx *gorm.DB) *RewardRepository {
	return &RewardRepository{db: tx}
}

// GetByID fetches a reward by its composite "<week>/<address>" id. Returns
// (nil, nil) when no record exists.
func (r *RewardRepository) GetByID(ctx context.Context, id string) (*models.WeekCashbackReward, error) {
	var reward models.WeekCashbackReward
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&reward).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &reward, err
}

// Create inserts a new reward record. A unique-key violation on the
// composite id means a concurrent caller won the creation race; it surfaces
// as a CONFLICT_ERROR so the caller can re-read instead of failing.
func (r *RewardRepository) Create(ctx context.Context, reward *models.WeekCashbackReward) error {
	err := r.db.WithContext(ctx).Create(reward).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.New(apperrors.ErrConflict, "reward already materialized: "+reward.ID, err)
	}
	return err
}

// GetByWeek lists all rewards recorded for a week.
func (r *RewardRepository) GetByWeek(ctx context.Context, weekID string) ([]models.WeekCashbackReward, error) {
	var rewards []models.WeekCashbackReward
	err := r.db.WithContext(ctx).
		Where("week = ?", weekID).
		Order("address ASC").
		Find(&rewards).Error
	return rewards, err
}

// UpdateGnoBalance overwrites the reward's running-minimum GNO balance.
func (r *RewardRepository) UpdateGnoBalance(ctx context.Context, id string, balance decimal.Decimal, balanceRaw string) error {
	return r.db.WithContext(ctx).
		Model(&models.WeekCashbackReward{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"gno_balance":     balance,
			"gno_balance_raw": balanceRaw,
		}).Error
}
