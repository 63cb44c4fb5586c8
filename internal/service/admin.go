package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"cryptocutie-bot/internal/ledger"
	"cryptocutie-bot/internal/models"
)

// Authorizer decides who may run administrative commands.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// StaticAdmins authorizes a fixed set of user IDs, typically from config.
type StaticAdmins map[int64]struct{}

func NewStaticAdmins(ids ...int64) StaticAdmins {
	a := make(StaticAdmins, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

func (a StaticAdmins) IsAdmin(userID int64) bool {
	_, ok := a[userID]
	return ok
}

// Admin runs "/admin stats" or "/admin credit <user_id> <amount>".
func (s *Service) Admin(ctx context.Context, userID int64, args []string) Response {
	if s.admins == nil || !s.admins.IsAdmin(userID) {
		s.log.WithField("user_id", userID).Warn("Unauthorized admin command")
		return Unauthorized{}
	}

	cmd := "stats"
	if len(args) > 0 {
		cmd = strings.ToLower(args[0])
	}

	switch cmd {
	case "stats":
		st, err := s.store.Stats(ctx)
		if err != nil {
			return s.failure(err, userID, "admin stats")
		}
		return AdminStats{Stats: st}

	case "credit":
		if len(args) != 3 {
			return AdminUsage{}
		}
		target, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return AdminUsage{}
		}
		amount, err := ledger.ParseAmount(args[2])
		if err != nil || amount <= 0 {
			return AdminUsage{}
		}
		balance, err := s.store.Credit(ctx, target, amount, models.EntryAdminCredit)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return NotRegistered{}
			}
			if errors.Is(err, ledger.ErrInvalidAmount) {
				s.log.WithFields(logrus.Fields{"user_id": target, "amount": amount.String()}).Warn("Admin credit rejected")
				return AdminUsage{}
			}
			return s.failure(err, userID, "admin credit")
		}
		s.log.WithFields(logrus.Fields{
			"admin_id": userID,
			"user_id":  target,
			"amount":   amount.String(),
		}).Info("Admin credit applied")
		return AdminCredited{UserID: target, Amount: amount, Balance: balance}

	default:
		return AdminUsage{}
	}
}
