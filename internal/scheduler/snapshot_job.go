package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/repository"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/service"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/week"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/logger"
)

// SnapshotScheduler periodically re-captures the GNO balance of every known
// Safe. Each run first makes sure the Safe's current-week reward record
// exists, then appends a snapshot row and tightens the week's running
// minimum.
type SnapshotScheduler struct {
	cron      *cron.Cron
	rewards   *service.RewardService
	snapshots *service.SnapshotService
	safeRepo  *repository.SafeRepository
	cronExpr  string
}

func NewSnapshotScheduler(
	rewards *service.RewardService,
	snapshots *service.SnapshotService,
	safeRepo *repository.SafeRepository,
	cronExpr string,
) *SnapshotScheduler {
	return &SnapshotScheduler{
		cron:      cron.New(cron.WithSeconds()),
		rewards:   rewards,
		snapshots: snapshots,
		safeRepo:  safeRepo,
		cronExpr:  cronExpr,
	}
}

func (s *SnapshotScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, s.snapshotAllSafes)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Balance snapshot scheduler started")
	return nil
}

func (s *SnapshotScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Balance snapshot scheduler stopped")
}

func (s *SnapshotScheduler) snapshotAllSafes() {
	ctx := context.Background()

	addresses, err := s.safeRepo.ListAddresses(ctx)
	if err != nil {
		logger.Error("Failed to list safes for snapshot run:", err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"safe_count": len(addresses),
	}).Info("Starting balance snapshot run")

	currentWeek := week.Current()
	failed := 0
	for _, address := range addresses {
		if err := s.snapshotSafe(ctx, currentWeek, address); err != nil {
			failed++
			logger.WithFields(map[string]interface{}{
				"safe_address": address,
				"week":         currentWeek,
			}).Error("Failed to capture snapshot:", err)
		}
	}

	logger.WithFields(map[string]interface{}{
		"safe_count": len(addresses),
		"failed":     failed,
	}).Info("Balance snapshot run finished")
}

// snapshotSafe first ensures the Safe's reward record for the week exists,
// materializing it on the first run after a week boundary, then captures a
// fresh balance snapshot to tighten the week minimum.
func (s *SnapshotScheduler) snapshotSafe(ctx context.Context, weekID, address string) error {
	if _, err := s.rewards.GetOrCreate(ctx, weekID, address); err != nil {
		return err
	}
	_, err := s.snapshots.Capture(ctx, address)
	return err
}
