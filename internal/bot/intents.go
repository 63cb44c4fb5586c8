package bot

import (
	"strings"

	"github.com/mymmrac/telego"

	"cryptocutie-bot/internal/service"
)

// parseCommand splits "/withdraw@cutie_bot a b" into "withdraw" and [a b].
// Text that is not a command yields an empty name.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:]
}

func displayName(u *telego.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// IntentFor maps a Telegram message to a service intent, or nil when the
// message is not something the bot answers.
func IntentFor(msg *telego.Message) service.Intent {
	if msg == nil || msg.From == nil || msg.Text == "" {
		return nil
	}
	userID := msg.From.ID

	name, args := parseCommand(msg.Text)
	switch name {
	case "":
		return service.SubmitWallet{UserID: userID, Text: msg.Text}
	case "start":
		var referrer *int64
		if len(args) > 0 {
			referrer = service.ParseReferrer(args[0])
		}
		return service.Register{UserID: userID, DisplayName: displayName(msg.From), ReferrerID: referrer}
	case "points", "balance":
		return service.QueryStatus{UserID: userID}
	case "history":
		return service.QueryHistory{UserID: userID}
	case "referral":
		return service.GetReferralLink{UserID: userID}
	case "withdraw":
		return service.RequestWithdrawal{UserID: userID}
	case "admin":
		return service.AdminCommand{UserID: userID, Args: args}
	default:
		return nil
	}
}
