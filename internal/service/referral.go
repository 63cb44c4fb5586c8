package service

import (
	"fmt"
	"strconv"
	"strings"
)

const legacyReferralPrefix = "ref_"

// ReferralPayload is the /start argument that identifies userID as referrer.
func ReferralPayload(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ParseReferrer reads a /start argument. Both "123" and "ref_123" are
// accepted; anything else yields nil.
func ParseReferrer(arg string) *int64 {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), legacyReferralPrefix)
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

func referralLink(base string, userID int64) string {
	return fmt.Sprintf("%s?start=%s", strings.TrimRight(base, "?"), ReferralPayload(userID))
}
