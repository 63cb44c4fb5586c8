package models

import (
	"time"
)

// Referral links a referred account to the account credited for it.
// ReferredID is unique, so a referrer can be paid at most once per account.
type Referral struct {
	ID         uint  `gorm:"primaryKey"`
	ReferrerID int64 `gorm:"not null;index"`
	ReferredID int64 `gorm:"not null;uniqueIndex"`
	Bonus      int64 `gorm:"not null"`
	CreatedAt  time.Time
}
