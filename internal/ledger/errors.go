package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the user has no account.
	ErrNotFound = errors.New("ledger: account not found")
	// ErrInsufficientFunds indicates the balance is below the withdrawal minimum
	// or would go negative.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrInvalidWalletFormat indicates the wallet address failed the format check.
	ErrInvalidWalletFormat = errors.New("ledger: invalid wallet format")
	// ErrInvalidAmount indicates a non-positive mutation amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrUnavailable indicates the storage call failed or timed out. The
	// underlying error stays reachable through errors.Is / errors.As.
	ErrUnavailable = errors.New("ledger: storage unavailable")
)

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidWalletFormat),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
