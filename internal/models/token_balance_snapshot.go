package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenBalanceSnapshot is one GNO balance capture for a Safe. Rows are
// append-only; repeated captures within a week only tighten the reward's
// running minimum.
type TokenBalanceSnapshot struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SafeAddress    string          `gorm:"size:42;not null;index:idx_snapshot_safe_week" json:"safeAddress"`
	Week           string          `gorm:"size:10;not null;index:idx_snapshot_safe_week" json:"week"`
	BlockNumber    int64           `gorm:"not null" json:"blockNumber"`
	BlockTimestamp time.Time       `gorm:"not null" json:"blockTimestamp"`
	BalanceRaw     string          `gorm:"size:78;not null" json:"balanceRaw"`
	Balance        decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"balance"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (TokenBalanceSnapshot) TableName() string {
	return "token_balance_snapshots"
}
