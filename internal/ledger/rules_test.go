package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideRegistration(t *testing.T) {
	rules := DefaultRules()

	t.Run("existing account is skipped", func(t *testing.T) {
		d := rules.DecideRegistration(&Account{UserID: 1}, 1, int64Ptr(2))
		assert.False(t, d.Create)
		assert.False(t, d.CreditReferrer)
	})

	t.Run("new account without referrer", func(t *testing.T) {
		d := rules.DecideRegistration(nil, 1, nil)
		assert.True(t, d.Create)
		assert.Equal(t, Amount(50), d.SignupBonus)
		assert.False(t, d.CreditReferrer)
	})

	t.Run("new account with referrer", func(t *testing.T) {
		d := rules.DecideRegistration(nil, 2, int64Ptr(1))
		assert.True(t, d.Create)
		assert.True(t, d.CreditReferrer)
		assert.Equal(t, int64(1), d.ReferrerID)
		assert.Equal(t, Amount(50), d.ReferralBonus)
	})

	t.Run("self referral earns nothing", func(t *testing.T) {
		d := rules.DecideRegistration(nil, 3, int64Ptr(3))
		assert.True(t, d.Create)
		assert.False(t, d.CreditReferrer)
	})
}

func TestDecideWithdrawal(t *testing.T) {
	rules := DefaultRules()
	good := "TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7"
	bad := "not-a-wallet"

	d := rules.DecideWithdrawal(Account{Balance: 50}, nil)
	assert.False(t, d.Approve)
	require.ErrorIs(t, d.Reason, ErrInsufficientFunds)

	d = rules.DecideWithdrawal(Account{Balance: Units(6)}, nil)
	assert.True(t, d.Approve)
	assert.Equal(t, Units(5), d.Amount)

	d = rules.DecideWithdrawal(Account{Balance: Units(6)}, &good)
	assert.True(t, d.Approve)

	d = rules.DecideWithdrawal(Account{Balance: Units(6)}, &bad)
	assert.False(t, d.Approve)
	require.ErrorIs(t, d.Reason, ErrInvalidWalletFormat)

	d = rules.DecideWithdrawal(Account{Balance: 499}, &good)
	require.ErrorIs(t, d.Reason, ErrInsufficientFunds)
}

func TestDecideWithdrawalNeverExceedsBalance(t *testing.T) {
	// A minimum below the flat amount must still not approve an overdraft.
	rules := Rules{MinWithdrawalBalance: Units(1), FlatWithdrawal: Units(5)}

	d := rules.DecideWithdrawal(Account{Balance: Units(2)}, nil)
	assert.False(t, d.Approve)
	require.ErrorIs(t, d.Reason, ErrInsufficientFunds)
}
