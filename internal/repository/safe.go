package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
	apperrors "github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
)

type SafeRepository struct {
	db *gorm.DB
}

func NewSafeRepository(db *gorm.DB) *SafeRepository {
	return &SafeRepository{db: db}
}

func (r *SafeRepository) WithTx(tx *gorm.DB) *SafeRepository {
	return &SafeRepository{db: tx}
}

// GetByAddress fetches a verified Safe record. Returns (nil, nil) when the
// address has never been verified.
func (r *SafeRepository) GetByAddress(ctx context.Context, address string) (*models.SafeAddress, error) {
	var safe models.SafeAddress
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		First(&safe).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &safe, err
}

// Create inserts a newly verified Safe. Losing a creation race is benign:
// the winning record holds the same immutable owner set.
func (r *SafeRepository) Create(ctx context.Context, safe *models.SafeAddress) error {
	err := r.db.WithContext(ctx).Create(safe).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.New(apperrors.ErrConflict, "safe already verified: "+safe.Address, err)
	}
	return err
}

// ListAddresses returns every verified Safe address, for the periodic
// snapshot job.
func (r *SafeRepository) ListAddresses(ctx context.Context) ([]string, error) {
	var addresses []string
	err := r.db.WithContext(ctx).
		Model(&models.SafeAddress{}).
		Order("address ASC").
		Pluck("address", &addresses).Error
	return addresses, err
}
