package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WeekMetricsSnapshot holds one row per known week id. It doubles as the
// registry the /weeks endpoint lists.
type WeekMetricsSnapshot struct {
	Date             string          `gorm:"primaryKey;size:10" json:"date"`
	NetUsdVolume     decimal.Decimal `gorm:"type:decimal(32,8);not null;default:0" json:"netUsdVolume"`
	TransactionCount int64           `gorm:"not null;default:0" json:"transactionCount"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WeekMetricsSnapshot) TableName() string {
	return "week_metrics_snapshots"
}
