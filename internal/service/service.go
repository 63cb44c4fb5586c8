// Package service is the entry point the chat transport calls with parsed
// intents. It sequences the ledger, the reward rules and the conversation
// state, and turns every outcome, including failures, into a Response.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cryptocutie-bot/internal/ledger"
	"cryptocutie-bot/internal/metrics"
	"cryptocutie-bot/internal/session"
)

// Ledger is the subset of *ledger.Store the service needs.
type Ledger interface {
	Get(ctx context.Context, userID int64) (*ledger.Account, error)
	CreateIfAbsent(ctx context.Context, reg ledger.Registration) (*ledger.Account, bool, error)
	ApplyWithdrawal(ctx context.Context, req ledger.WithdrawalRequest) (*ledger.Withdrawal, error)
	FindWithdrawal(ctx context.Context, id string) (*ledger.Withdrawal, error)
	Entries(ctx context.Context, userID int64, limit int) ([]ledger.Entry, error)
	UpdateDisplayName(ctx context.Context, userID int64, name string) error
	Credit(ctx context.Context, userID int64, amount ledger.Amount, kind string) (ledger.Amount, error)
	Stats(ctx context.Context) (ledger.Stats, error)
}

// historyLimit caps how many ledger entries /history shows.
const historyLimit = 10

type Config struct {
	Rules           ledger.Rules
	ReferralBaseURL string
	Admins          Authorizer
	Logger          logrus.FieldLogger
	Metrics         *metrics.Metrics
}

type Service struct {
	store    Ledger
	sessions session.Store
	rules    ledger.Rules
	linkBase string
	admins   Authorizer
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

func New(store Ledger, sessions session.Store, cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:    store,
		sessions: sessions,
		rules:    cfg.Rules,
		linkBase: cfg.ReferralBaseURL,
		admins:   cfg.Admins,
		log:      log,
		metrics:  cfg.Metrics,
	}
}

// Handle dispatches a single intent.
func (s *Service) Handle(ctx context.Context, intent Intent) Response {
	var resp Response
	switch in := intent.(type) {
	case Register:
		resp = s.Register(ctx, in.UserID, in.DisplayName, in.ReferrerID)
	case QueryStatus:
		resp = s.Status(ctx, in.UserID)
	case QueryHistory:
		resp = s.History(ctx, in.UserID)
	case GetReferralLink:
		resp = s.ReferralLink(in.UserID)
	case RequestWithdrawal:
		resp = s.RequestWithdrawal(ctx, in.UserID)
	case SubmitWallet:
		resp = s.SubmitWallet(ctx, in.UserID, in.Text)
	case AdminCommand:
		resp = s.Admin(ctx, in.UserID, in.Args)
	default:
		s.log.Errorf("Unhandled intent %T", intent)
		resp = TryAgainLater{}
	}
	if intent != nil {
		s.metrics.Intent(intent.intentName(), resp.responseName())
	}
	return resp
}

// Register creates the account on first contact. A repeated registration
// refreshes the display name and cancels a withdrawal waiting for a wallet.
func (s *Service) Register(ctx context.Context, userID int64, displayName string, referrerID *int64) Response {
	acct, created, err := s.store.CreateIfAbsent(ctx, ledger.Registration{
		UserID:      userID,
		DisplayName: displayName,
		ReferrerID:  referrerID,
	})
	if err != nil {
		s.metrics.Registration("failed")
		return s.failure(err, userID, "register")
	}

	if !created {
		s.metrics.Registration("existing")
		if err := s.sessions.Clear(ctx, userID); err != nil {
			s.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Failed to clear withdrawal state")
		}
		if displayName != "" && displayName != acct.DisplayName {
			if err := s.store.UpdateDisplayName(ctx, userID, displayName); err != nil {
				s.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Failed to update display name")
			}
		}
		return WelcomedBack{Balance: acct.Balance}
	}

	s.metrics.Registration("new")
	if acct.ReferrerID != nil {
		s.metrics.ReferralBonus()
	}
	return WelcomedNew{Balance: acct.Balance}
}

func (s *Service) Status(ctx context.Context, userID int64) Response {
	acct, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.failure(err, userID, "status")
	}
	return StatusReport{
		Balance:       acct.Balance,
		Points:        acct.Points,
		ReferralCount: acct.ReferralCount,
	}
}

// History lists the latest ledger entries of userID, oldest first.
func (s *Service) History(ctx context.Context, userID int64) Response {
	if _, err := s.store.Get(ctx, userID); err != nil {
		return s.failure(err, userID, "history")
	}
	entries, err := s.store.Entries(ctx, userID, historyLimit)
	if err != nil {
		return s.failure(err, userID, "history")
	}
	return HistoryReport{Entries: entries}
}

// ReferralLink builds the invite link of userID. It does not check that the
// account exists.
func (s *Service) ReferralLink(userID int64) Response {
	return ReferralLinkIssued{Link: referralLink(s.linkBase, userID)}
}

// RequestWithdrawal checks the balance gate and, when it passes, waits for a
// wallet address in the user's next message.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int64) Response {
	acct, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.failure(err, userID, "request withdrawal")
	}

	decision := s.rules.DecideWithdrawal(*acct, nil)
	if !decision.Approve {
		s.metrics.Withdrawal("insufficient_funds")
		return InsufficientFunds{Balance: acct.Balance, Required: s.rules.MinWithdrawalBalance}
	}

	if err := s.sessions.Set(ctx, userID, session.WithdrawalRequested); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to store withdrawal state")
		return TryAgainLater{}
	}
	return PromptForWallet{Amount: decision.Amount}
}

// SubmitWallet settles a pending withdrawal. The pending state is consumed
// whatever the outcome, so a rejected address needs a new /withdraw.
func (s *Service) SubmitWallet(ctx context.Context, userID int64, text string) Response {
	state, ok, err := s.sessions.Take(ctx, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to read withdrawal state")
		return TryAgainLater{}
	}
	if !ok || state != session.WithdrawalRequested {
		return NoPendingWithdrawal{}
	}

	wallet := strings.TrimSpace(text)
	acct, err := s.store.Get(ctx, userID)
	if err != nil {
		return s.failure(err, userID, "submit wallet")
	}

	decision := s.rules.DecideWithdrawal(*acct, &wallet)
	if !decision.Approve {
		if errors.Is(decision.Reason, ledger.ErrInvalidWalletFormat) {
			s.metrics.Withdrawal("invalid_wallet")
			return InvalidWalletFormat{}
		}
		s.metrics.Withdrawal("insufficient_funds")
		return InsufficientFunds{Balance: acct.Balance, Required: s.rules.MinWithdrawalBalance}
	}

	req := ledger.WithdrawalRequest{
		ID:     uuid.NewString(),
		UserID: userID,
		Amount: decision.Amount,
		Wallet: wallet,
	}
	w, err := s.store.ApplyWithdrawal(ctx, req)
	if errors.Is(err, ledger.ErrUnavailable) {
		// The commit may have landed before the failure was reported.
		return s.confirmWithdrawal(ctx, req, err)
	}
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		// Balance changed since the check above.
		s.metrics.Withdrawal("insufficient_funds")
		balance := acct.Balance
		if fresh, err := s.store.Get(ctx, userID); err == nil {
			balance = fresh.Balance
		}
		return InsufficientFunds{Balance: balance, Required: s.rules.MinWithdrawalBalance}
	}
	if err != nil {
		s.metrics.Withdrawal("failed")
		return s.failure(err, userID, "apply withdrawal")
	}

	s.metrics.Withdrawal("settled")
	return settled(w)
}

// confirmWithdrawal looks up req after ApplyWithdrawal failed with applyErr.
// It never applies the withdrawal again.
func (s *Service) confirmWithdrawal(ctx context.Context, req ledger.WithdrawalRequest, applyErr error) Response {
	log := s.log.WithFields(logrus.Fields{"user_id": req.UserID, "withdrawal_id": req.ID})

	w, err := s.store.FindWithdrawal(ctx, req.ID)
	switch {
	case err == nil:
		log.Warn("Withdrawal settled despite a storage error")
		s.metrics.Withdrawal("settled")
		return settled(w)
	case errors.Is(err, ledger.ErrNotFound):
		log.WithField("error", applyErr.Error()).Error("Withdrawal not applied")
		s.metrics.Withdrawal("failed")
		return TryAgainLater{}
	default:
		log.WithFields(logrus.Fields{
			"error":        applyErr.Error(),
			"lookup_error": err.Error(),
		}).Error("Withdrawal outcome unknown")
		s.metrics.Withdrawal("unknown")
		return WithdrawalUnconfirmed{}
	}
}

func settled(w *ledger.Withdrawal) Settled {
	return Settled{
		Amount:       w.Amount,
		NewBalance:   w.Balance,
		Wallet:       w.Wallet,
		WithdrawalID: w.ID,
	}
}

// failure maps a ledger error to the response shown to the user.
func (s *Service) failure(err error, userID int64, op string) Response {
	if errors.Is(err, ledger.ErrNotFound) {
		return NotRegistered{}
	}
	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"op":      op,
		"error":   err.Error(),
	}).Error("Ledger operation failed")
	return TryAgainLater{}
}
