package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeetsWithdrawalMinimum(t *testing.T) {
	gate := DefaultRules().Gate()

	assert.False(t, gate.MeetsWithdrawalMinimum(499))
	assert.True(t, gate.MeetsWithdrawalMinimum(500))
	assert.True(t, gate.MeetsWithdrawalMinimum(Units(6)))
	assert.False(t, gate.MeetsWithdrawalMinimum(0))
}

func TestIsWellFormedWallet(t *testing.T) {
	gate := DefaultRules().Gate()

	valid := []string{
		"TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7",
		"  TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7\n",
	}
	for _, addr := range valid {
		assert.True(t, gate.IsWellFormedWallet(addr), addr)
	}

	invalid := []string{
		"",
		"T",
		"XLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU7",
		"TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU",
		"TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjU77",
		"TLa2f6VPqDgRE67v1736s7bJ8Ray5wYjO0",
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
	}
	for _, addr := range invalid {
		assert.False(t, gate.IsWellFormedWallet(addr), addr)
	}
}
