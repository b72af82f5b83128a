package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekCashbackReward is the reward record for one (week, safe) pair. The
// composite id "<week>/<address>" is the sole creation mutex: the unique
// primary key arbitrates concurrent materialization attempts.
type WeekCashbackReward struct {
	ID            string          `gorm:"primaryKey;size:53" json:"id"`
	Address       string          `gorm:"size:42;not null;index:idx_reward_address" json:"address"`
	Week          string          `gorm:"size:10;not null;index:idx_reward_week" json:"week"`
	Amount        decimal.Decimal `gorm:"type:decimal(32,18);not null;default:0" json:"amount"`
	NetUsdVolume  decimal.Decimal `gorm:"type:decimal(32,8);not null;default:0" json:"netUsdVolume"`
	GnoBalance    decimal.Decimal `gorm:"type:decimal(32,18);not null;default:0" json:"gnoBalance"`
	GnoBalanceRaw string          `gorm:"size:78;not null;default:0" json:"gnoBalanceRaw"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WeekCashbackReward) TableName() string {
	return "week_cashback_rewards"
}
