package service

import "cryptocutie-bot/internal/ledger"

// Intent is a parsed user request. The set is closed: only the types in this
// file implement it.
type Intent interface {
	intentName() string
}

type Register struct {
	UserID      int64
	DisplayName string
	ReferrerID  *int64
}

type QueryStatus struct {
	UserID int64
}

type QueryHistory struct {
	UserID int64
}

type GetReferralLink struct {
	UserID int64
}

type RequestWithdrawal struct {
	UserID int64
}

// SubmitWallet carries free text that may be a wallet address answering a
// pending withdrawal.
type SubmitWallet struct {
	UserID int64
	Text   string
}

type AdminCommand struct {
	UserID int64
	Args   []string
}

func (Register) intentName() string          { return "register" }
func (QueryStatus) intentName() string       { return "query_status" }
func (QueryHistory) intentName() string      { return "query_history" }
func (GetReferralLink) intentName() string   { return "referral_link" }
func (RequestWithdrawal) intentName() string { return "request_withdrawal" }
func (SubmitWallet) intentName() string      { return "submit_wallet" }
func (AdminCommand) intentName() string      { return "admin" }

// Response is the outcome of an intent, rendered to text by the transport.
type Response interface {
	responseName() string
}

type WelcomedNew struct {
	Balance ledger.Amount
}

type WelcomedBack struct {
	Balance ledger.Amount
}

type StatusReport struct {
	Balance       ledger.Amount
	Points        int64
	ReferralCount int64
}

type HistoryReport struct {
	Entries []ledger.Entry
}

type NotRegistered struct{}

type ReferralLinkIssued struct {
	Link string
}

type PromptForWallet struct {
	Amount ledger.Amount
}

type InsufficientFunds struct {
	Balance  ledger.Amount
	Required ledger.Amount
}

type Settled struct {
	Amount       ledger.Amount
	NewBalance   ledger.Amount
	Wallet       string
	WithdrawalID string
}

type InvalidWalletFormat struct{}

// NoPendingWithdrawal answers free text when no withdrawal awaits a wallet.
type NoPendingWithdrawal struct{}

// TryAgainLater reports a transient storage failure.
type TryAgainLater struct{}

// WithdrawalUnconfirmed reports a withdrawal whose outcome could not be read
// back. The user should check the balance before asking again.
type WithdrawalUnconfirmed struct{}

type Unauthorized struct{}

type AdminStats struct {
	Stats ledger.Stats
}

type AdminCredited struct {
	UserID  int64
	Amount  ledger.Amount
	Balance ledger.Amount
}

type AdminUsage struct{}

func (WelcomedNew) responseName() string           { return "welcomed_new" }
func (WelcomedBack) responseName() string          { return "welcomed_back" }
func (StatusReport) responseName() string          { return "status" }
func (HistoryReport) responseName() string         { return "history" }
func (NotRegistered) responseName() string         { return "not_registered" }
func (ReferralLinkIssued) responseName() string    { return "referral_link" }
func (PromptForWallet) responseName() string       { return "prompt_for_wallet" }
func (InsufficientFunds) responseName() string     { return "insufficient_funds" }
func (Settled) responseName() string               { return "settled" }
func (InvalidWalletFormat) responseName() string   { return "invalid_wallet_format" }
func (NoPendingWithdrawal) responseName() string   { return "no_pending_withdrawal" }
func (TryAgainLater) responseName() string         { return "try_again_later" }
func (WithdrawalUnconfirmed) responseName() string { return "withdrawal_unconfirmed" }
func (Unauthorized) responseName() string          { return "unauthorized" }
func (AdminStats) responseName() string            { return "admin_stats" }
func (AdminCredited) responseName() string         { return "admin_credited" }
func (AdminUsage) responseName() string            { return "admin_usage" }
