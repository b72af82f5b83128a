package service

import (
	"context"
	"strings"
	"sync"

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

// SafeInfo is the projected owner reference on a reward.
type SafeInfo struct {
	Address string `json:"address"`
	IsOg    bool   `json:"isOg"`
}

// RewardProjection is the reward record as served to clients: the persisted
// fields plus the resolved Safe reference and the week's transactions and
// snapshots. It is built fresh on every read, never by mutating a fetched
// record.
type RewardProjection struct {
	ID                  string                        `json:"id"`
	Week                string                        `json:"week"`
	Amount              decimal.Decimal               `json:"amount"`
	NetUsdVolume        decimal.Decimal               `json:"netUsdVolume"`
	GnoBalance          decimal.Decimal               `json:"gnoBalance"`
	GnoBalanceRaw       string                        `json:"gnoBalanceRaw"`
	Safe                SafeInfo                      `json:"safe"`
	Transactions        []models.GnosisPayTransaction `json:"transactions"`
	GnoBalanceSnapshots []models.TokenBalanceSnapshot `json:"gnoBalanceSnapshots"`
}

// SafeVerifier enumerates the owners of a candidate Safe.
// *chain.SafeVerifier satisfies it.
type SafeVerifier interface {
	Verify(ctx context.Context, address common.Address) ([]common.Address, error)
}

// OgNftChecker resolves the OG bonus flag across an owner set.
// *chain.OgNftChecker satisfies it.
type OgNftChecker interface {
	Check(ctx context.Context, owners []common.Address) (bool, error)
}

// RewardService materializes week cashback rewards on demand. A lookup hit
// performs zero chain work; a miss verifies the Safe on-chain, captures a
// balance snapshot, resolves the OG flag and persists the first record for
// the (week, address) pair in one transaction.
type RewardService struct {
	db           *gorm.DB
	rewardRepo   *repository.RewardRepository
	safeRepo     *repository.SafeRepository
	txRepo       *repository.TransactionRepository
	snapshotRepo *repository.SnapshotRepository
	metricsRepo  *repository.MetricsRepository
	verifier     SafeVerifier
	ogChecker    OgNftChecker
	snapshots    *SnapshotService
}

func NewRewardService(
	db *gorm.DB,
	rewardRepo *repository.RewardRepository,
	safeRepo *repository.SafeRepository,
	txRepo *repository.TransactionRepository,
	snapshotRepo *repository.SnapshotRepository,
	metricsRepo *repository.MetricsRepository,
	verifier SafeVerifier,
	ogChecker OgNftChecker,
	snapshots *SnapshotService,
) *RewardService {
	return &RewardService{
		db:           db,
		rewardRepo:   rewardRepo,
		safeRepo:     safeRepo,
		txRepo:       txRepo,
		snapshotRepo: snapshotRepo,
		metricsRepo:  metricsRepo,
		verifier:     verifier,
		ogChecker:    ogChecker,
		snapshots:    snapshots,
	}
}

// GetOrCreate returns the reward record for (weekID, address), creating it
// on first request. Sequential calls with the same arguments hit the fast
// path the second time and perform no chain reads.
func (s *RewardService) GetOrCreate(ctx context.Context, weekID, address string) (*RewardProjection, error) {
	weekID, err := week.Validate(weekID)
	if err != nil {
		return nil, err
	}
	safeAddress, err := models.CanonicalAddress(address)
	if err != nil {
		return nil, err
	}

	id := models.WeekRewardID(weekID, safeAddress)

	reward, err := s.rewardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to look up reward", err)
	}
	if reward != nil {
		return s.project(ctx, reward)
	}

	return s.materialize(ctx, weekID, safeAddress)
}

// Get returns the reward record for (weekID, address) without materializing
// anything. Returns (nil, nil) when no record exists.
func (s *RewardService) Get(ctx context.Context, weekID, address string) (*RewardProjection, error) {
	weekID, err := week.Validate(weekID)
	if err != nil {
		return nil, err
	}
	safeAddress, err := models.CanonicalAddress(address)
	if err != nil {
		return nil, err
	}

	reward, err := s.rewardRepo.GetByID(ctx, models.WeekRewardID(weekID, safeAddress))
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to look up reward", err)
	}
	if reward == nil {
		return nil, nil
	}
	return s.project(ctx, reward)
}

// GetWeekRewards projects every reward recorded for a week.
func (s *RewardService) GetWeekRewards(ctx context.Context, weekID string) ([]*RewardProjection, error) {
	weekID, err := week.Validate(weekID)
	if err != nil {
		return nil, err
	}

	rewards, err := s.rewardRepo.GetByWeek(ctx, weekID)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to list week rewards", err)
	}

	projections := make([]*RewardProjection, 0, len(rewards))
	for i := range rewards {
		projection, err := s.project(ctx, &rewards[i])
		if err != nil {
			return nil, err
		}
		projections = append(projections, projection)
	}
	return projections, nil
}

// materialize runs the chain-verification pipeline for a (week, address)
// pair with no existing record. All chain reads happen before any write, so
// a rejected or failed request persists nothing; the subsequent writes share
// one transaction.
func (s *RewardService) materialize(ctx context.Context, weekID, safeAddress string) (*RewardProjection, error) {
	safeRecord, err := s.safeRepo.GetByAddress(ctx, safeAddress)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to look up safe", err)
	}

	var owners []common.Address
	if safeRecord == nil {
		owners, err = s.verifier.Verify(ctx, chain.AddressFromCanonical(safeAddress))
		if err != nil {
			return nil, err
		}
	}

	// The OG check and the balance snapshot read independent chain state;
	// issue them concurrently.
	var (
		wg         sync.WaitGroup
		isOg       bool
		ogErr      error
		reading    *chain.BalanceReading
		readingErr error
	)

	if safeRecord == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isOg, ogErr = s.ogChecker.Check(ctx, owners)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reading, readingErr = s.snapshots.CaptureReading(ctx, safeAddress)
	}()
	wg.Wait()

	if ogErr != nil {
		return nil, ogErr
	}
	if readingErr != nil {
		return nil, readingErr
	}

	balance := decimal.NewFromBigInt(reading.Balance, -gnoDecimals)
	reward := &models.WeekCashbackReward{
		ID:            models.WeekRewardID(weekID, safeAddress),
		Address:       safeAddress,
		Week:          weekID,
		Amount:        decimal.Zero,
		NetUsdVolume:  decimal.Zero,
		GnoBalance:    balance,
		GnoBalanceRaw: reading.Balance.String(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rewardRepo.WithTx(tx).Create(ctx, reward); err != nil {
			return err
		}
		if _, err := s.snapshots.PersistReading(ctx, tx, safeAddress, reading); err != nil {
			return err
		}
		if safeRecord == nil {
			safe := &models.SafeAddress{
				Address: safeAddress,
				Owners:  canonicalOwners(owners),
				IsOg:    isOg,
			}
			if err := s.safeRepo.WithTx(tx).Create(ctx, safe); err != nil {
				// A concurrent materialization for another week may have
				// verified the same safe; its record is equivalent.
				if !errors.HasCode(err, errors.ErrConflict) {
					return err
				}
			}
		}
		return s.metricsRepo.WithTx(tx).Ensure(ctx, weekID)
	})

	if err != nil {
		if errors.HasCode(err, errors.ErrConflict) {
			// Lost the creation race: someone else materialized this pair.
			// Their record is the authoritative one.
			existing, readErr := s.rewardRepo.GetByID(ctx, reward.ID)
			if readErr != nil || existing == nil {
				return nil, errors.New(errors.ErrPersistence, "failed to re-read reward after conflict", readErr)
			}
			return s.project(ctx, existing)
		}
		if errors.HasCode(err, errors.ErrPersistence) {
			return nil, err
		}
		return nil, errors.New(errors.ErrPersistence, "failed to persist reward", err)
	}

	logger.WithFields(map[string]interface{}{
		"week":         weekID,
		"safe_address": safeAddress,
		"gno_balance":  reward.GnoBalance.String(),
		"new_safe":     safeRecord == nil,
	}).Info("week cashback reward materialized")

	persisted, err := s.rewardRepo.GetByID(ctx, reward.ID)
	if err != nil || persisted == nil {
		return nil, errors.New(errors.ErrPersistence, "failed to re-read materialized reward", err)
	}
	return s.project(ctx, persisted)
}

// project resolves the reward's references and builds the output structure.
func (s *RewardService) project(ctx context.Context, reward *models.WeekCashbackReward) (*RewardProjection, error) {
	safe, err := s.safeRepo.GetByAddress(ctx, reward.Address)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to resolve safe reference", err)
	}

	info := SafeInfo{Address: reward.Address}
	if safe != nil {
		info.IsOg = safe.IsOg
	}

	transactions, err := s.txRepo.GetBySafeAndWeek(ctx, reward.Address, reward.Week)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to load transactions", err)
	}

	snapshots, err := s.snapshotRepo.GetBySafeAndWeek(ctx, reward.Address, reward.Week)
	if err != nil {
		return nil, errors.New(errors.ErrPersistence, "failed to load snapshots", err)
	}

	return &RewardProjection{
		ID:                  reward.ID,
		Week:                reward.Week,
		Amount:              reward.Amount,
		NetUsdVolume:        reward.NetUsdVolume,
		GnoBalance:          reward.GnoBalance,
		GnoBalanceRaw:       reward.GnoBalanceRaw,
		Safe:                info,
		Transactions:        transactions,
		GnoBalanceSnapshots: snapshots,
	}, nil
}

func canonicalOwners(owners []common.Address) models.AddressList {
	list := make(models.AddressList, 0, len(owners))
	for _, owner := range owners {
		list = append(list, strings.ToLower(owner.Hex()))
	}
	return list
}
