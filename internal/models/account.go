package models

import (
	"time"
)

// Account is the persisted ledger record of a single Telegram user.
// Monetary columns hold hundredths of a unit.
type Account struct {
	UserID        int64  `gorm:"primaryKey;autoIncrement:false"`
	DisplayName   string `gorm:"size:255"`
	Balance       int64  `gorm:"not null"`
	Points        int64  `gorm:"not null"`
	ReferralCount int64  `gorm:"not null"`
	ReferrerID    *int64 `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
