package ledger

import "strings"

const (
	walletPrefix = "T"
	walletLength = 34
	base58Chars  = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// Gate holds the stateless withdrawal predicates.
type Gate struct {
	MinWithdrawalBalance Amount
}

func (g Gate) MeetsWithdrawalMinimum(balance Amount) bool {
	return balance >= g.MinWithdrawalBalance
}

// IsWellFormedWallet is a placeholder syntax check for Tron-style addresses:
// a leading "T", 34 characters, base58 alphabet. It does not verify the
// checksum, so malformed addresses can pass and that is accepted.
func (g Gate) IsWellFormedWallet(address string) bool {
	address = strings.TrimSpace(address)
	if len(address) != walletLength || !strings.HasPrefix(address, walletPrefix) {
		return false
	}
	for _, c := range address {
		if !strings.ContainsRune(base58Chars, c) {
			return false
		}
	}
	return true
}
