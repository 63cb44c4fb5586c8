package models

import (
	"time"
)

// Ledger entry kinds.
const (
	EntrySignupBonus   = "signup_bonus"
	EntryReferralBonus = "referral_bonus"
	EntryWithdrawal    = "withdrawal"
	EntryAdminCredit   = "admin_credit"
)

// LedgerEntry records one balance change. Entries are written in the same
// transaction as the change itself and ordered by ID.
type LedgerEntry struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       int64  `gorm:"not null;index"`
	Kind         string `gorm:"size:32;not null"`
	Amount       int64  `gorm:"not null"`
	BalanceAfter int64  `gorm:"not null"`
	Reference    string `gorm:"size:64;index"`
	CreatedAt    time.Time
}
