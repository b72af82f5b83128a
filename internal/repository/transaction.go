package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetBySafe lists a Safe's spending transactions, newest first.
func (r *TransactionRepository) GetBySafe(ctx context.Context, safeAddress string, limit int) ([]models.GnosisPayTransaction, error) {
	var transactions []models.GnosisPayTransaction
	query := r.db.WithContext(ctx).
		Where("safe_address = ?", safeAddress).
		Order("block_timestamp DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&transactions).Error
	return transactions, err
}

// GetBySafeAndWeek lists a Safe's transactions within one week, oldest first.
func (r *TransactionRepository) GetBySafeAndWeek(ctx context.Context, safeAddress, weekID string) ([]models.GnosisPayTransaction, error) {
	var transactions []models.GnosisPayTransaction
	err := r.db.WithContext(ctx).
		Where("safe_address = ? AND week = ?", safeAddress, weekID).
		Order("block_timestamp ASC").
		Find(&transactions).Error
	return transactions, err
}
