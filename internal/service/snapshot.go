package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/chain"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/repository"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/week"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/logger"
)

// gnoDecimals is the GNO token's decimal count, for raw-wei to human-unit
// conversion.
const gnoDecimals = 18

// BalanceReader captures a point-in-time GNO balance from the chain.
// *chain.GnoBalanceReader satisfies it.
type BalanceReader interface {
	Read(ctx context.Context, safeAddress common.Address) (*chain.BalanceReading, error)
}

type SnapshotService struct {
	db           *gorm.DB
	reader       BalanceReader
	snapshotRepo *repository.SnapshotRepository
	rewardRepo   *repository.RewardRepository
}

func NewSnapshotService(
	db *gorm.DB,
	reader BalanceReader,
	snapshotRepo *repository.SnapshotRepository,
	rewardRepo *repository.RewardRepository,
) *SnapshotService {
	return &SnapshotService{
		db:           db,
		reader:       reader,
		snapshotRepo: snapshotRepo,
		rewardRepo:   rewardRepo,
	}
}

// CaptureReading reads the Safe's current GNO balance from the chain without
// touching persistence.
func (s *SnapshotService) CaptureReading(ctx context.Context, safeAddress string) (*chain.BalanceReading, error) {
	return s.reader.Read(ctx, chain.AddressFromCanonical(safeAddress))
}

// Capture reads the Safe's GNO balance and persists it: one append-only
// snapshot row, plus a min-fold into the enclosing week's reward record when
// one exists.
func (s *SnapshotService) Capture(ctx context.Context, safeAddress string) (*models.TokenBalanceSnapshot, error) {
	reading, err := s.CaptureReading(ctx, safeAddress)
	if err != nil {
		return nil, err
	}

	var snapshot *models.TokenBalanceSnapshot
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot, err = s.PersistReading(ctx, tx, safeAddress, reading)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"safe_address": safeAddress,
		"week":         snapshot.Week,
		"block_number": snapshot.BlockNumber,
		"balance":      snapshot.Balance.String(),
	}).Info("GNO balance snapshot captured")

	return snapshot, nil
}

// PersistReading appends a snapshot row for the reading and updates the
// week's reward record to the minimum balance observed so far. The week is
// derived from the reading's block timestamp, not the wall clock. Runs
// inside the caller's transaction.
func (s *SnapshotService) PersistReading(ctx context.Context, tx *gorm.DB, safeAddress string, reading *chain.BalanceReading) (*models.TokenBalanceSnapshot, error) {
	weekID := week.FromTime(reading.BlockTimestamp)
	balance := decimal.NewFromBigInt(reading.Balance, -gnoDecimals)

	snapshot := &models.TokenBalanceSnapshot{
		SafeAddress:    safeAddress,
		Week:           weekID,
		BlockNumber:    reading.BlockNumber,
		BlockTimestamp: reading.BlockTimestamp,
		BalanceRaw:     reading.Balance.String(),
		Balance:        balance,
	}

	snapshotRepo := s.snapshotRepo.WithTx(tx)
	rewardRepo := s.rewardRepo.WithTx(tx)

	previous, err := snapshotRepo.GetBySafeAndWeek(ctx, safeAddress, weekID)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to load prior snapshots", err)
	}

	if err := snapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to append snapshot", err)
	}

	reward, err := rewardRepo.GetByID(ctx, models.WeekRewardID(weekID, safeAddress))
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to load week reward", err)
	}
	if reward == nil {
		// No reward record materialized for this week yet; the snapshot row
		// alone tightens nothing.
		return snapshot, nil
	}

	minBalance, minRaw := foldMinimum(previous, balance, reading.Balance.String())
	if err := rewardRepo.UpdateGnoBalance(ctx, reward.ID, minBalance, minRaw); err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to update week minimum balance", err)
	}

	return snapshot, nil
}

// foldMinimum computes the minimum balance over all prior snapshots of the
// week and the newly captured one. The first capture of a week seeds the
// minimum rather than comparing against the record's zero default.
func foldMinimum(previous []models.TokenBalanceSnapshot, balance decimal.Decimal, balanceRaw string) (decimal.Decimal, string) {
	minBalance := balance
	minRaw := balanceRaw
	for _, snap := range previous {
		if snap.Balance.LessThan(minBalance) {
			minBalance = snap.Balance
			minRaw = snap.BalanceRaw
		}
	}
	return minBalance, minRaw
}
