package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardDistribution is an on-chain GNO payout made to a Safe for a past
// week's cashback.
type RewardDistribution struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SafeAddress string          `gorm:"size:42;not null;index" json:"safe"`
	Amount      decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"amount"`
	TxHash      string          `gorm:"size:66;not null;uniqueIndex:uk_distribution_tx" json:"transactionHash"`
	BlockNumber int64           `gorm:"not null;index" json:"blockNumber"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (RewardDistribution) TableName() string {
	return "reward_distributions"
}
