package ledger

import (
	"time"

	"cryptocutie-bot/internal/models"
)

type Account struct {
	UserID        int64
	DisplayName   string
	Balance       Amount
	Points        int64
	ReferralCount int64
	ReferrerID    *int64
	CreatedAt     time.Time
}

// Registration is the input of CreateIfAbsent. ReferrerID is optional.
type Registration struct {
	UserID      int64
	DisplayName string
	ReferrerID  *int64
}

// WithdrawalRequest is the input of ApplyWithdrawal. ID is the idempotency
// key the withdrawal is recorded under; an empty ID gets a fresh UUID.
type WithdrawalRequest struct {
	ID     string
	UserID int64
	Amount Amount
	Wallet string
}

// Withdrawal is a settled flat withdrawal together with the balance left
// after it.
type Withdrawal struct {
	ID        string
	UserID    int64
	Amount    Amount
	Wallet    string
	Balance   Amount
	CreatedAt time.Time
}

type Entry struct {
	ID           uint
	Kind         string
	Amount       Amount
	BalanceAfter Amount
	Reference    string
	CreatedAt    time.Time
}

type Stats struct {
	Accounts       int64
	TotalBalance   Amount
	Withdrawals    int64
	WithdrawnTotal Amount
}

func toAccount(row models.Account) Account {
	acct := Account{
		UserID:        row.UserID,
		DisplayName:   row.DisplayName,
		Balance:       Amount(row.Balance),
		Points:        row.Points,
		ReferralCount: row.ReferralCount,
		CreatedAt:     row.CreatedAt,
	}
	if row.ReferrerID != nil {
		id := *row.ReferrerID
		acct.ReferrerID = &id
	}
	return acct
}
