// Package session keeps the per-user conversation state between two chat
// messages, such as a withdrawal waiting for its wallet address.
package session

import (
	"context"
	"time"
)

type State string

const WithdrawalRequested State = "WAITING_WALLET_ADDRESS"

// DefaultTTL bounds how long a pending state survives without a reply.
const DefaultTTL = 10 * time.Minute

type Store interface {
	Set(ctx context.Context, userID int64, state State) error
	// Take returns and removes the state in one step, so only one of two
	// concurrent readers observes it.
	Take(ctx context.Context, userID int64) (State, bool, error)
	Clear(ctx context.Context, userID int64) error
}
