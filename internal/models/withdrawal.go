package models

import (
	"time"
)

const WithdrawalSettled = "settled"

type Withdrawal struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    int64  `gorm:"not null;index"`
	Amount    int64  `gorm:"not null"`
	Wallet    string `gorm:"size:128;not null"`
	Status    string `gorm:"size:32;not null"`
	CreatedAt time.Time
}
