package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cryptocutie-bot/internal/models"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultRetryDelay = 100 * time.Millisecond
)

// Store owns every account mutation. Each call runs in its own database
// transaction under a bounded timeout, and mutations on the same user are
// serialized in-process before they reach the database.
type Store struct {
	db         *gorm.DB
	rules      Rules
	log        logrus.FieldLogger
	locks      *userLocks
	timeout    time.Duration
	retryDelay time.Duration
}

type Option func(*Store)

// WithTimeout bounds every storage call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithRetryDelay sets the pause before the single read retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) { s.retryDelay = d }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

func NewStore(db *gorm.DB, rules Rules, opts ...Option) *Store {
	s := &Store{
		db:         db,
		rules:      rules,
		log:        logrus.StandardLogger(),
		locks:      newUserLocks(),
		timeout:    defaultTimeout,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// retryRead runs read and, when it fails with ErrUnavailable, runs it once
// more after the retry delay. Other errors are returned as is.
func retryRead[T any](ctx context.Context, delay time.Duration, read func() (T, error)) (T, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), 1), ctx)
	return backoff.RetryWithData(func() (T, error) {
		v, err := read()
		if err != nil && !errors.Is(err, ErrUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b)
}

// Get returns the account of userID or ErrNotFound. A storage failure is
// retried once.
func (s *Store) Get(ctx context.Context, userID int64) (*Account, error) {
	return retryRead(ctx, s.retryDelay, func() (*Account, error) {
		return s.get(ctx, userID)
	})
}

func (s *Store) get(ctx context.Context, userID int64) (*Account, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var row models.Account
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, classify(err)
	}
	acct := toAccount(row)
	return &acct, nil
}

// CreateIfAbsent creates the account with the signup bonus unless it already
// exists, in which case the stored account is returned with created=false.
// When the new account names an existing referrer, that referrer is credited
// in the same transaction.
func (s *Store) CreateIfAbsent(ctx context.Context, reg Registration) (*Account, bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	ids := []int64{reg.UserID}
	if reg.ReferrerID != nil {
		ids = append(ids, *reg.ReferrerID)
	}
	release, err := s.locks.acquire(ctx, ids...)
	if err != nil {
		return nil, false, classify(err)
	}
	defer release()

	var (
		row      models.Account
		created  bool
		credited *models.Account
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockAccount(tx, reg.UserID)
		if err != nil {
			return err
		}
		var current *Account
		if existing != nil {
			acct := toAccount(*existing)
			current = &acct
		}

		decision := s.rules.DecideRegistration(current, reg.UserID, reg.ReferrerID)
		if !decision.Create {
			row = *existing
			return nil
		}

		var referrer *models.Account
		if decision.CreditReferrer {
			if referrer, err = lockAccount(tx, decision.ReferrerID); err != nil {
				return err
			}
		}

		now := time.Now()
		row = models.Account{
			UserID:      reg.UserID,
			DisplayName: reg.DisplayName,
			Balance:     int64(decision.SignupBonus),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if referrer != nil {
			referrerID := referrer.UserID
			row.ReferrerID = &referrerID
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Inserted concurrently by another process.
			return tx.Where("user_id = ?", reg.UserID).First(&row).Error
		}
		created = true

		if err := appendEntry(tx, reg.UserID, models.EntrySignupBonus, decision.SignupBonus, Amount(row.Balance), "", now); err != nil {
			return err
		}
		if referrer == nil {
			return nil
		}

		if err := tx.Create(&models.Referral{
			ReferrerID: referrer.UserID,
			ReferredID: reg.UserID,
			Bonus:      int64(decision.ReferralBonus),
			CreatedAt:  now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).Where("user_id = ?", referrer.UserID).Updates(map[string]any{
			"balance":        gorm.Expr("balance + ?", int64(decision.ReferralBonus)),
			"referral_count": gorm.Expr("referral_count + ?", 1),
			"updated_at":     now,
		}).Error; err != nil {
			return err
		}
		referrer.Balance += int64(decision.ReferralBonus)
		referrer.ReferralCount++
		credited = referrer

		ref := strconv.FormatInt(reg.UserID, 10)
		return appendEntry(tx, referrer.UserID, models.EntryReferralBonus, decision.ReferralBonus, Amount(referrer.Balance), ref, now)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": reg.UserID,
			"error":   err.Error(),
		}).Error("Registration failed")
		return nil, false, classify(err)
	}

	if created {
		fields := logrus.Fields{"user_id": reg.UserID, "balance": Amount(row.Balance).String()}
		if credited != nil {
			fields["referrer_id"] = credited.UserID
			fields["referrer_balance"] = Amount(credited.Balance).String()
		}
		s.log.WithFields(fields).Info("Account created")
	}

	acct := toAccount(row)
	return &acct, created, nil
}

// ApplyWithdrawal decrements the balance by req.Amount if it covers it,
// checking and decrementing in one statement. The settled withdrawal is
// recorded under req.ID in the same transaction. Callers must not retry it
// blindly: after ErrUnavailable, FindWithdrawal(req.ID) tells whether it
// landed.
func (s *Store) ApplyWithdrawal(ctx context.Context, req WithdrawalRequest) (*Withdrawal, error) {
	userID, amount := req.UserID, req.Amount
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer release()

	var out Withdrawal
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Account{}).
			Where("user_id = ? AND balance >= ?", userID, int64(amount)).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", int64(amount)),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return ErrInsufficientFunds
		}

		var row models.Account
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			return err
		}

		w := models.Withdrawal{
			ID:        id,
			UserID:    userID,
			Amount:    int64(amount),
			Wallet:    strings.TrimSpace(req.Wallet),
			Status:    models.WithdrawalSettled,
			CreatedAt: now,
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		out = Withdrawal{
			ID:        w.ID,
			UserID:    userID,
			Amount:    amount,
			Wallet:    w.Wallet,
			Balance:   Amount(row.Balance),
			CreatedAt: now,
		}
		return appendEntry(tx, userID, models.EntryWithdrawal, -amount, Amount(row.Balance), w.ID, now)
	})
	if err != nil {
		err = classify(err)
		entry := s.log.WithFields(logrus.Fields{"user_id": userID, "amount": amount.String()})
		if errors.Is(err, ErrUnavailable) {
			entry.WithField("error", err.Error()).Error("Withdrawal failed")
		} else {
			entry.WithField("reason", err.Error()).Info("Withdrawal rejected")
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"amount":        amount.String(),
		"balance":       out.Balance.String(),
		"withdrawal_id": out.ID,
	}).Info("Withdrawal settled")
	return &out, nil
}

// Credit adds amount to the balance of an existing account and returns the
// new balance. kind is recorded on the ledger entry.
func (s *Store) Credit(ctx context.Context, userID int64, amount Amount, kind string) (Amount, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	release, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return 0, classify(err)
	}
	defer release()

	var balance Amount
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Account{}).
			Where("user_id = ? AND balance <= ?", userID, math.MaxInt64-int64(amount)).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance + ?", int64(amount)),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return fmt.Errorf("%w: balance would overflow", ErrInvalidAmount)
		}
		var row models.Account
		if err := tx.Where("user_id = ?", userID).First(&row).Error; err != nil {
			return err
		}
		balance = Amount(row.Balance)
		return appendEntry(tx, userID, kind, amount, balance, "", now)
	})
	if err != nil {
		return 0, classify(err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount.String(),
		"balance": balance.String(),
		"kind":    kind,
	}).Info("Balance credited")
	return balance, nil
}

// UpdateDisplayName is best effort; callers typically only log its error.
func (s *Store) UpdateDisplayName(ctx context.Context, userID int64, name string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("user_id = ? AND display_name <> ?", userID, name).
		Update("display_name", name)
	return classify(res.Error)
}

// Entries returns the latest limit ledger entries of userID, oldest first.
// A limit of zero or less returns the whole history. A storage failure is
// retried once.
func (s *Store) Entries(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	return retryRead(ctx, s.retryDelay, func() ([]Entry, error) {
		return s.entries(ctx, userID, limit)
	})
}

func (s *Store) entries(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.LedgerEntry
	if err := q.Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[len(rows)-1-i] = Entry{
			ID:           r.ID,
			Kind:         r.Kind,
			Amount:       Amount(r.Amount),
			BalanceAfter: Amount(r.BalanceAfter),
			Reference:    r.Reference,
			CreatedAt:    r.CreatedAt,
		}
	}
	return entries, nil
}

// FindWithdrawal returns the withdrawal recorded under id, with the balance
// left right after it, or ErrNotFound.
func (s *Store) FindWithdrawal(ctx context.Context, id string) (*Withdrawal, error) {
	return retryRead(ctx, s.retryDelay, func() (*Withdrawal, error) {
		return s.findWithdrawal(ctx, id)
	})
}

func (s *Store) findWithdrawal(ctx context.Context, id string) (*Withdrawal, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	db := s.db.WithContext(ctx)
	var w models.Withdrawal
	if err := db.Where("id = ?", id).First(&w).Error; err != nil {
		return nil, classify(err)
	}
	var entry models.LedgerEntry
	if err := db.Where("reference = ? AND kind = ?", id, models.EntryWithdrawal).First(&entry).Error; err != nil {
		return nil, classify(err)
	}
	return &Withdrawal{
		ID:        w.ID,
		UserID:    w.UserID,
		Amount:    Amount(w.Amount),
		Wallet:    w.Wallet,
		Balance:   Amount(entry.BalanceAfter),
		CreatedAt: w.CreatedAt,
	}, nil
}

// ListEligible returns up to limit accounts with user_id greater than afterID
// whose balance is at least minBalance, ordered by user_id. Passing the last
// user_id of one page as afterID yields the next page.
func (s *Store) ListEligible(ctx context.Context, minBalance Amount, afterID int64, limit int) ([]Account, error) {
	return retryRead(ctx, s.retryDelay, func() ([]Account, error) {
		return s.listEligible(ctx, minBalance, afterID, limit)
	})
}

func (s *Store) listEligible(ctx context.Context, minBalance Amount, afterID int64, limit int) ([]Account, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var rows []models.Account
	if err := s.db.WithContext(ctx).
		Where("balance >= ? AND user_id > ?", int64(minBalance), afterID).
		Order("user_id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	accounts := make([]Account, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, toAccount(r))
	}
	return accounts, nil
}

// Stats summarizes the ledger. A storage failure is retried once.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	return retryRead(ctx, s.retryDelay, func() (Stats, error) {
		return s.stats(ctx)
	})
}

func (s *Store) stats(ctx context.Context) (Stats, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	db := s.db.WithContext(ctx)
	var (
		st                 Stats
		balance, withdrawn int64
	)
	if err := db.Model(&models.Account{}).Count(&st.Accounts).Error; err != nil {
		return Stats{}, classify(err)
	}
	if err := db.Model(&models.Account{}).Select("CAST(COALESCE(SUM(balance), 0) AS BIGINT)").Scan(&balance).Error; err != nil {
		return Stats{}, classify(err)
	}
	if err := db.Model(&models.Withdrawal{}).Count(&st.Withdrawals).Error; err != nil {
		return Stats{}, classify(err)
	}
	if err := db.Model(&models.Withdrawal{}).Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").Scan(&withdrawn).Error; err != nil {
		return Stats{}, classify(err)
	}
	st.TotalBalance = Amount(balance)
	st.WithdrawnTotal = Amount(withdrawn)
	return st, nil
}

// lockAccount loads the account row for update, or returns nil if absent.
func lockAccount(tx *gorm.DB, userID int64) (*models.Account, error) {
	var row models.Account
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func appendEntry(tx *gorm.DB, userID int64, kind string, amount, balanceAfter Amount, ref string, at time.Time) error {
	return tx.Create(&models.LedgerEntry{
		UserID:       userID,
		Kind:         kind,
		Amount:       int64(amount),
		BalanceAfter: int64(balanceAfter),
		Reference:    ref,
		CreatedAt:    at,
	}).Error
}
