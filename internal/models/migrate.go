package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every ledger table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{}, &Referral{}, &Withdrawal{}, &LedgerEntry{})
}
