package ledger

// Rules holds the reward constants and makes the pure decisions that the
// Store applies. Nothing here touches storage.
type Rules struct {
	SignupBonus          Amount
	ReferralBonus        Amount
	MinWithdrawalBalance Amount
	FlatWithdrawal       Amount
}

func DefaultRules() Rules {
	return Rules{
		SignupBonus:          50,
		ReferralBonus:        50,
		MinWithdrawalBalance: Units(5),
		FlatWithdrawal:       Units(5),
	}
}

func (r Rules) Gate() Gate {
	return Gate{MinWithdrawalBalance: r.MinWithdrawalBalance}
}

// RegistrationDecision describes the state change a registration produces.
// The referrer credit is conditional: the Store applies it only when the
// referrer account exists at creation time.
type RegistrationDecision struct {
	Create         bool
	SignupBonus    Amount
	CreditReferrer bool
	ReferrerID     int64
	ReferralBonus  Amount
}

func (r Rules) DecideRegistration(existing *Account, userID int64, referrerID *int64) RegistrationDecision {
	if existing != nil {
		return RegistrationDecision{}
	}
	d := RegistrationDecision{Create: true, SignupBonus: r.SignupBonus}
	if referrerID != nil && *referrerID != userID {
		d.CreditReferrer = true
		d.ReferrerID = *referrerID
		d.ReferralBonus = r.ReferralBonus
	}
	return d
}

// WithdrawalDecision is either an approval for Amount or a rejection with
// Reason set to ErrInvalidWalletFormat or ErrInsufficientFunds.
type WithdrawalDecision struct {
	Approve bool
	Amount  Amount
	Reason  error
}

// DecideWithdrawal checks a withdrawal against acct. A nil wallet means the
// address has not been asked for yet and only the balance is checked.
func (r Rules) DecideWithdrawal(acct Account, wallet *string) WithdrawalDecision {
	gate := r.Gate()
	if wallet != nil && !gate.IsWellFormedWallet(*wallet) {
		return WithdrawalDecision{Reason: ErrInvalidWalletFormat}
	}
	if !gate.MeetsWithdrawalMinimum(acct.Balance) || acct.Balance < r.FlatWithdrawal {
		return WithdrawalDecision{Reason: ErrInsufficientFunds}
	}
	return WithdrawalDecision{Approve: true, Amount: r.FlatWithdrawal}
}
