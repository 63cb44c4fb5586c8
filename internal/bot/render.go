package bot

import (
	"fmt"
	"strings"

	"cryptocutie-bot/internal/models"
	"cryptocutie-bot/internal/service"
)

var entryLabels = map[string]string{
	models.EntrySignupBonus:   "Signup bonus",
	models.EntryReferralBonus: "Referral bonus",
	models.EntryWithdrawal:    "Withdrawal",
	models.EntryAdminCredit:   "Credit",
}

func renderHistory(r service.HistoryReport) string {
	if len(r.Entries) == 0 {
		return "📜 No balance changes yet."
	}
	var b strings.Builder
	b.WriteString("📜 Latest balance changes:")
	for _, e := range r.Entries {
		label, ok := entryLabels[e.Kind]
		if !ok {
			label = e.Kind
		}
		sign := "+"
		if e.Amount < 0 {
			sign = ""
		}
		fmt.Fprintf(&b, "\n%s %s: %s%s → %s", e.CreatedAt.UTC().Format("2006-01-02"), label, sign, e.Amount, e.BalanceAfter)
	}
	return b.String()
}

// Render turns a response into the reply text. An empty string means the
// bot stays silent.
func Render(resp service.Response) string {
	switch r := resp.(type) {
	case service.WelcomedNew:
		return fmt.Sprintf("🎉 Welcome! You received a signup bonus.\n💰 Balance: %s", r.Balance)
	case service.WelcomedBack:
		return fmt.Sprintf("👋 Welcome back!\n💰 Balance: %s", r.Balance)
	case service.StatusReport:
		return fmt.Sprintf("💰 Balance: %s\n⭐ Points: %d\n👥 Referrals: %d", r.Balance, r.Points, r.ReferralCount)
	case service.HistoryReport:
		return renderHistory(r)
	case service.NotRegistered:
		return "You are not registered yet. Send /start to join."
	case service.ReferralLinkIssued:
		return fmt.Sprintf("🤝 Invite friends and earn a bonus for everyone who joins:\n%s", r.Link)
	case service.PromptForWallet:
		return fmt.Sprintf("💸 Send your TRC20 wallet address to withdraw %s.", r.Amount)
	case service.InsufficientFunds:
		return fmt.Sprintf("❌ Not enough balance to withdraw.\n💰 Balance: %s\nMinimum: %s", r.Balance, r.Required)
	case service.Settled:
		return fmt.Sprintf("✅ Withdrawal of %s to %s is processed.\n💰 New balance: %s", r.Amount, r.Wallet, r.NewBalance)
	case service.InvalidWalletFormat:
		return "❌ Invalid wallet address. Send /withdraw to start again."
	case service.TryAgainLater:
		return "⚠️ Something went wrong. Please try again later."
	case service.WithdrawalUnconfirmed:
		return "⏳ Your withdrawal may already be processing. Check /history before sending /withdraw again."
	case service.Unauthorized:
		return "⛔ You are not allowed to use this command."
	case service.AdminStats:
		return fmt.Sprintf("📊 Accounts: %d\n💰 Total balance: %s\n💸 Withdrawals: %d (%s)",
			r.Stats.Accounts, r.Stats.TotalBalance, r.Stats.Withdrawals, r.Stats.WithdrawnTotal)
	case service.AdminCredited:
		return fmt.Sprintf("✅ Credited %s to %d.\n💰 New balance: %s", r.Amount, r.UserID, r.Balance)
	case service.AdminUsage:
		return "Usage:\n/admin stats\n/admin credit <user_id> <amount>"
	default:
		return ""
	}
}
