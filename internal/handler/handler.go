package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/models"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/repository"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/service"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/internal/week"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/errors"
	"github.com/adamazad/gnosis-pay-rewards-monorepo/pkg/logger"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, map[string]interface{}{
		"data":       data,
		"status":     "ok",
		"statusCode": statusCode,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"error":      message,
		"status":     "error",
		"statusCode": statusCode,
	})
}

// writeAppError maps error codes to HTTP status: validation and
// not-enrolled failures are client faults, chain failures are retryable
// upstream faults, everything else is a server fault.
func writeAppError(w http.ResponseWriter, err error) {
	switch errors.CodeOf(err) {
	case errors.ErrValidation, errors.ErrNotASafe, errors.ErrNoOwnersFound:
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.ErrNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case errors.ErrChainCall:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("Internal server error:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"statusCode": http.StatusOK,
	})
}

type StatusHandler struct {
	snapshotRepo *repository.SnapshotRepository
}

func NewStatusHandler(snapshotRepo *repository.SnapshotRepository) *StatusHandler {
	return &StatusHandler{snapshotRepo: snapshotRepo}
}

func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	latestBlock, err := h.snapshotRepo.LatestBlockNumber(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"indexerState": map[string]interface{}{
			"latestSnapshotBlock": latestBlock,
			"currentWeek":         week.Current(),
		},
	})
}

type CashbackHandler struct {
	rewardSvc *service.RewardService
}

func NewCashbackHandler(rewardSvc *service.RewardService) *CashbackHandler {
	return &CashbackHandler{rewardSvc: rewardSvc}
}

// GetCashback serves /api/cashbacks/{address} and
// /api/cashbacks/{address}/{week}. The address-only form targets the current
// week and materializes the reward on first request; the explicit-week form
// is a plain lookup and 404s when nothing was recorded.
func (h *CashbackHandler) GetCashback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/cashbacks/{address}[/{week}]")
		return
	}

	address := pathParts[2]
	ctx := r.Context()

	if len(pathParts) >= 4 && pathParts[3] != "" {
		weekID := pathParts[3]
		projection, err := h.rewardSvc.Get(ctx, weekID, address)
		if err != nil {
			writeAppError(w, err)
			return
		}
		if projection == nil {
			writeError(w, http.StatusNotFound, "no cashbacks found for this address and week")
			return
		}
		writeData(w, http.StatusOK, projection)
		return
	}

	projection, err := h.rewardSvc.GetOrCreate(ctx, week.Current(), address)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, projection)
}

type WeekSnapshotHandler struct {
	rewardSvc *service.RewardService
	metrics   *repository.MetricsRepository
}

func NewWeekSnapshotHandler(rewardSvc *service.RewardService, metrics *repository.MetricsRepository) *WeekSnapshotHandler {
	return &WeekSnapshotHandler{rewardSvc: rewardSvc, metrics: metrics}
}

// GetWeekSnapshots serves /api/week-snapshots/{week}: every Safe's reward
// state for a validated week id.
func (h *WeekSnapshotHandler) GetWeekSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/week-snapshots/{week}")
		return
	}

	projections, err := h.rewardSvc.GetWeekRewards(r.Context(), pathParts[2])
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, projections)
}

// GetWeeks serves /api/weeks: every week id known to the indexer.
func (h *WeekSnapshotHandler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	weeks, err := h.metrics.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	items := make([]map[string]string, 0, len(weeks))
	for _, snapshot := range weeks {
		items = append(items, map[string]string{
			"id":     snapshot.Date,
			"weekId": snapshot.Date,
		})
	}
	writeData(w, http.StatusOK, items)
}

type DistributionHandler struct {
	distributionRepo *repository.DistributionRepository
}

func NewDistributionHandler(distributionRepo *repository.DistributionRepository) *DistributionHandler {
	return &DistributionHandler{distributionRepo: distributionRepo}
}

// GetDistributions serves /api/distributions/{address}: reward payouts plus
// their sum.
func (h *DistributionHandler) GetDistributions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/distributions/{address}")
		return
	}

	safeAddress, err := models.CanonicalAddress(pathParts[2])
	if err != nil {
		writeAppError(w, err)
		return
	}

	distributions, err := h.distributionRepo.GetBySafe(r.Context(), safeAddress)
	if err != nil {
		writeAppError(w, err)
		return
	}

	totalRewards := decimal.Zero
	for _, distribution := range distributions {
		totalRewards = totalRewards.Add(distribution.Amount)
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"safe":         safeAddress,
		"totalRewards": totalRewards,
		"transactions": distributions,
	})
}

type TransactionHandler struct {
	txRepo *repository.TransactionRepository
}

func NewTransactionHandler(txRepo *repository.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{txRepo: txRepo}
}

// GetTransactions serves /api/transactions/{address}: the Safe's spending
// transactions, newest first.
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/transactions/{address}")
		return
	}

	safeAddress, err := models.CanonicalAddress(pathParts[2])
	if err != nil {
		writeAppError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 0 || limit > 500 {
		limit = 0
	}

	transactions, err := h.txRepo.GetBySafe(r.Context(), safeAddress, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, transactions)
}
