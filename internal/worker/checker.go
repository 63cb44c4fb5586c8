package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"cryptocutie-bot/internal/ledger"
	"cryptocutie-bot/internal/metrics"
)

const (
	batchSize = 500
	flagTTL   = 7 * 24 * time.Hour
)

type EligibleLister interface {
	ListEligible(ctx context.Context, minBalance ledger.Amount, afterID int64, limit int) ([]ledger.Account, error)
}

type Sender interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Checker periodically tells users, at most once per flag TTL, that their
// balance reached the withdrawal minimum.
type Checker struct {
	Store    EligibleLister
	Redis    *redis.Client
	Sender   Sender
	Rules    ledger.Rules
	Interval time.Duration
	Log      logrus.FieldLogger
	Metrics  *metrics.Metrics
}

func NewChecker(store EligibleLister, rdb *redis.Client, sender Sender, rules ledger.Rules, interval time.Duration, log logrus.FieldLogger, m *metrics.Metrics) *Checker {
	return &Checker{
		Store:    store,
		Redis:    rdb,
		Sender:   sender,
		Rules:    rules,
		Interval: interval,
		Log:      log,
		Metrics:  m,
	}
}

// Start runs a check immediately and then on every tick until ctx is done.
func (c *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()
	c.Log.WithField("interval", c.Interval.String()).Info("Background eligibility worker started")

	c.CheckEligible(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckEligible(ctx)
		}
	}
}

func notifiedKey(userID int64) string {
	return fmt.Sprintf("notified_eligible_%d", userID)
}

// CheckEligible runs one cycle over every eligible account, page by page,
// and returns how many users were notified.
func (c *Checker) CheckEligible(ctx context.Context) int {
	sent := 0
	var afterID int64
	for ctx.Err() == nil {
		accounts, err := c.Store.ListEligible(ctx, c.Rules.MinWithdrawalBalance, afterID, batchSize)
		if err != nil {
			c.Log.WithFields(logrus.Fields{"after_id": afterID, "error": err.Error()}).Error("Error querying eligible accounts")
			return sent
		}
		for _, acct := range accounts {
			if c.notify(ctx, acct) {
				sent++
			}
		}
		if len(accounts) < batchSize {
			return sent
		}
		afterID = accounts[len(accounts)-1].UserID
	}
	return sent
}

// notify messages one user unless the flag shows it was done recently.
func (c *Checker) notify(ctx context.Context, acct ledger.Account) bool {
	key := notifiedKey(acct.UserID)
	fresh, err := c.Redis.SetNX(ctx, key, "true", flagTTL).Result()
	if err != nil {
		c.Log.WithFields(logrus.Fields{"user_id": acct.UserID, "error": err.Error()}).Error("Failed to set notification flag")
		return false
	}
	if !fresh {
		return false
	}

	text := fmt.Sprintf("💸 Your balance is %s. You can now withdraw with /withdraw.", acct.Balance)
	if err := c.Sender.Notify(ctx, acct.UserID, text); err != nil {
		c.Metrics.Notification("failed")
		c.Log.WithFields(logrus.Fields{"user_id": acct.UserID, "error": err.Error()}).Warn("Failed to send eligibility notification")
		// Drop the flag so the next cycle tries again.
		if err := c.Redis.Del(ctx, key).Err(); err != nil {
			c.Log.WithFields(logrus.Fields{
				"user_id": acct.UserID,
				"key":     key,
				"error":   err.Error(),
			}).Error("Failed to clear notification flag, user will not be notified until it expires")
		}
		return false
	}
	c.Metrics.Notification("sent")
	c.Log.WithField("user_id", acct.UserID).Info("Sent eligibility notification")
	return true
}
