package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/chain"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
)

func rewardGnoBalance(t *testing.T, env *testEnv, id string) decimal.Decimal {
	t.Helper()
	var reward models.WeekCashbackReward
	require.NoError(t, env.db.Where("id = ?", id).First(&reward).Error)
	return reward.GnoBalance
}

func TestCaptureFoldsMinimumDownward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// First capture happens during materialization with a balance of 100.
	env.reader.readings = []*chain.BalanceReading{
		readingAt(100, 1000),
		readingAt(80, 1010),
	}

	projection, err := env.rewards.GetOrCreate(ctx, testWeek, testSafeAddress)
	require.NoError(t, err)
	assert.True(t, projection.GnoBalance.Equal(decimal.NewFromInt(100)))

	_, err = env.snapshot.Capture(ctx, testSafeAddress)
	require.NoError(t, err)

	balance := rewardGnoBalance(t, env, projection.ID)
	assert.True(t, balance.Equal(decimal.NewFromInt(80)), "minimum must drop to 80, got %s", balance)
}

func TestCaptureKeepsMinimumWhenBalanceRises(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.reader.readings = []*chain.BalanceReading{
		readingAt(80, 1000),
		readingAt(100, 1010),
	}

	projection, err := env.rewards.GetOrCreate(ctx, testWeek, testSafeAddress)
	require.NoError(t, err)
	assert.True(t, projection.GnoBalance.Equal(decimal.NewFromInt(80)))

	_, err = env.snapshot.Capture(ctx, testSafeAddress)
	require.NoError(t, err)

	balance := rewardGnoBalance(t, env, projection.ID)
	assert.True(t, balance.Equal(decimal.NewFromInt(80)), "minimum must stay at 80, got %s", balance)

	var count int64
	require.NoError(t, env.db.Model(&models.TokenBalanceSnapshot{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "snapshots are append-only")
}

func TestCaptureWithoutRewardIsHarmless(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// No reward record exists for this week yet; the snapshot row is a
	// benign orphan a later materialization folds in.
	snapshot, err := env.snapshot.Capture(ctx, testSafeAddress)
	require.NoError(t, err)
	assert.Equal(t, testWeek, snapshot.Week)

	var count int64
	require.NoError(t, env.db.Model(&models.TokenBalanceSnapshot{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMaterializeFoldsOrphanSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// An earlier failed materialization left a lower snapshot behind.
	env.reader.readings = []*chain.BalanceReading{
		readingAt(60, 990),
		readingAt(100, 1000),
	}
	_, err := env.snapshot.Capture(ctx, testSafeAddress)
	require.NoError(t, err)

	projection, err := env.rewards.GetOrCreate(ctx, testWeek, testSafeAddress)
	require.NoError(t, err)
	assert.True(t, projection.GnoBalance.Equal(decimal.NewFromInt(60)),
		"the week minimum spans orphan snapshots, got %s", projection.GnoBalance)
	assert.Len(t, projection.GnoBalanceSnapshots, 2)
}
