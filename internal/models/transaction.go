package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSpend  TransactionType = "spend"
	TransactionTypeRefund TransactionType = "refund"
)

// GnosisPayTransaction is a spending transaction attributed to a Safe and a
// week. Rows are written by the transaction-ingestion job; this service only
// reads them.
type GnosisPayTransaction struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TxHash         string          `gorm:"size:66;not null;uniqueIndex:uk_tx" json:"transactionHash"`
	SafeAddress    string          `gorm:"size:42;not null;index:idx_tx_safe_week" json:"safeAddress"`
	Week           string          `gorm:"size:10;not null;index:idx_tx_safe_week" json:"week"`
	Type           TransactionType `gorm:"size:10;not null" json:"type"`
	AmountRaw      string          `gorm:"size:78;not null" json:"amountRaw"`
	AmountToken    string          `gorm:"size:42;not null" json:"amountToken"`
	AmountUsd      decimal.Decimal `gorm:"type:decimal(32,8);not null" json:"amountUsd"`
	GnoBalance     decimal.Decimal `gorm:"type:decimal(32,18);not null;default:0" json:"gnoBalance"`
	BlockNumber    int64           `gorm:"not null;index" json:"blockNumber"`
	BlockTimestamp time.Time       `gorm:"not null" json:"blockTimestamp"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (GnosisPayTransaction) TableName() string {
	return "gnosis_pay_transactions"
}
