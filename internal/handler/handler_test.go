package handler

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/chain"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/repository"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/service"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/week"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "text", "stderr"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const testSafeAddress = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"

type chainStub struct {
	verifyErr error
}

func (s *chainStub) Verify(ctx context.Context, address common.Address) ([]common.Address, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return []common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")}, nil
}

func (s *chainStub) Check(ctx context.Context, owners []common.Address) (bool, error) {
	return false, nil
}

func (s *chainStub) Read(ctx context.Context, safeAddress common.Address) (*chain.BalanceReading, error) {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return &chain.BalanceReading{
		BlockNumber:    1000,
		BlockTimestamp: time.Now().UTC(),
		Balance:        wei.Mul(wei, big.NewInt(25)),
	}, nil
}

func newTestServer(t *testing.T, stub *chainStub) (*httptest.Server, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A pooled second connection would see its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.SafeAddress{},
		&models.WeekCashbackReward{},
		&models.TokenBalanceSnapshot{},
		&models.GnosisPayTransaction{},
		&models.RewardDistribution{},
		&models.WeekMetricsSnapshot{},
	))

	rewardRepo := repository.NewRewardRepository(db)
	safeRepo := repository.NewSafeRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	distributionRepo := repository.NewDistributionRepository(db)
	metricsRepo := repository.NewMetricsRepository(db)

	snapshotSvc := service.NewSnapshotService(db, stub, snapshotRepo, rewardRepo)
	rewardSvc := service.NewRewardService(db, rewardRepo, safeRepo, txRepo, snapshotRepo, metricsRepo, stub, stub, snapshotSvc)

	router := http.NewServeMux()
	router.HandleFunc("/health", HandleHealth)
	router.HandleFunc("/status", NewStatusHandler(snapshotRepo).GetStatus)
	router.HandleFunc("/api/cashbacks/", NewCashbackHandler(rewardSvc).GetCashback)
	weekHandler := NewWeekSnapshotHandler(rewardSvc, metricsRepo)
	router.HandleFunc("/api/week-snapshots/", weekHandler.GetWeekSnapshots)
	router.HandleFunc("/api/weeks", weekHandler.GetWeeks)
	router.HandleFunc("/api/distributions/", NewDistributionHandler(distributionRepo).GetDistributions)
	router.HandleFunc("/api/transactions/", NewTransactionHandler(txRepo).GetTransactions)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, db
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &chainStub{})

	status, body := getJSON(t, server.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestCashbackCurrentWeekMaterializes(t *testing.T) {
	server, db := newTestServer(t, &chainStub{})

	status, body := getJSON(t, server.URL+"/api/cashbacks/"+testSafeAddress)
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, week.Current()+"/"+testSafeAddress, data["id"])

	var count int64
	require.NoError(t, db.Model(&models.WeekCashbackReward{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCashbackNotASafeIsClientFault(t *testing.T) {
	stub := &chainStub{verifyErr: errors.New(errors.ErrNotASafe, "getOwners reverted", nil)}
	server, db := newTestServer(t, stub)

	status, body := getJSON(t, server.URL+"/api/cashbacks/"+testSafeAddress)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body["status"])

	var count int64
	require.NoError(t, db.Model(&models.WeekCashbackReward{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCashbackInvalidAddress(t *testing.T) {
	server, _ := newTestServer(t, &chainStub{})

	status, _ := getJSON(t, server.URL+"/api/cashbacks/not-an-address")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCashbackExplicitWeekLookupOnly(t *testing.T) {
	server, _ := newTestServer(t, &chainStub{})

	// Nothing recorded for that week: plain lookup, no materialization.
	status, _ := getJSON(t, server.URL+"/api/cashbacks/"+testSafeAddress+"/2024-03-03")
	assert.Equal(t, http.StatusNotFound, status)

	// Non-Sunday week ids are rejected before any lookup.
	status, _ = getJSON(t, server.URL+"/api/cashbacks/"+testSafeAddress+"/2024-03-04")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWeekSnapshotsValidatesWeekId(t *testing.T) {
	server, _ := newTestServer(t, &chainStub{})

	status, _ := getJSON(t, server.URL+"/api/week-snapshots/2024-03-04")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := getJSON(t, server.URL+"/api/week-snapshots/2024-03-03")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestWeeksListsKnownWeeks(t *testing.T) {
	server, _ := newTestServer(t, &chainStub{})

	// Materialize one reward so the week registry has an entry.
	status, _ := getJSON(t, server.URL+"/api/cashbacks/"+testSafeAddress)
	require.Equal(t, http.StatusOK, status)

	status, body := getJSON(t, server.URL+"/api/weeks")
	require.Equal(t, http.StatusOK, status)

	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	entry := items[0].(map[string]interface{})
	assert.Equal(t, week.Current(), entry["weekId"])
}

func TestDistributionsSumsPayouts(t *testing.T) {
	server, db := newTestServer(t, &chainStub{})

	for i, amount := range []string{"1.5", "2.25"} {
		require.NoError(t, db.Create(&models.RewardDistribution{
			SafeAddress: testSafeAddress,
			Amount:      decimal.RequireFromString(amount),
			TxHash:      "0x" + string(rune('a'+i)),
			BlockNumber: int64(100 + i),
		}).Error)
	}

	status, body := getJSON(t, server.URL+"/api/distributions/"+testSafeAddress)
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	total := decimal.RequireFromString(data["totalRewards"].(string))
	assert.True(t, total.Equal(decimal.RequireFromString("3.75")))
}

func TestTransactionsEndpoint(t *testing.T) {
	server, db := newTestServer(t, &chainStub{})

	require.NoError(t, db.Create(&models.GnosisPayTransaction{
		TxHash:         "0xdeadbeef",
		SafeAddress:    testSafeAddress,
		Week:           "2024-03-03",
		Type:           models.TransactionTypeSpend,
		AmountRaw:      "1000000",
		AmountToken:    "0x0000000000000000000000000000000000000001",
		AmountUsd:      decimal.RequireFromString("12.34"),
		BlockNumber:    123,
		BlockTimestamp: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}).Error)

	status, body := getJSON(t, server.URL+"/api/transactions/"+testSafeAddress)
	require.Equal(t, http.StatusOK, status)

	items := body["data"].([]interface{})
	require.Len(t, items, 1)
}
